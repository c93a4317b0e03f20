package reconcile

import (
	"context"
	"errors"

	"github.com/jengzang/geolife-tracks/internal/models"
	"github.com/jengzang/geolife-tracks/internal/observability"
	"github.com/jengzang/geolife-tracks/internal/pkg/logger"
)

// ModeLister reads a user's activities with their persisted mode.
type ModeLister interface {
	ListActivitiesWithMode(ctx context.Context, userID string) ([]models.Activity, error)
}

// Mismatch is an activity whose persisted mode differs from the label.
type Mismatch struct {
	UserID     string  `json:"userId"`
	ActivityID int64   `json:"activityId"`
	Persisted  *string `json:"persisted"`
	Expected   string  `json:"expected"`
}

// VerificationReport counts, over activities that have a matching label
// interval, how many carry the expected mode.
type VerificationReport struct {
	Users      int        `json:"users"`
	Checked    int        `json:"checked"`
	Correct    int        `json:"correct"`
	Mismatches []Mismatch `json:"mismatches,omitempty"`
	Anomalies  []Anomaly  `json:"anomalies,omitempty"`
}

// OK reports whether every checked activity carries the expected mode.
func (r *VerificationReport) OK() bool {
	return len(r.Mismatches) == 0
}

// Verifier re-derives the expected mode of every labeled activity from the
// label files and compares it with what storage holds.
type Verifier struct {
	users      LabeledUserLister
	activities ModeLister
	labels     LabelSource
	log        *logger.Logger
}

// NewVerifier creates a new verifier
func NewVerifier(users LabeledUserLister, activities ModeLister, labels LabelSource, log *logger.Logger) *Verifier {
	return &Verifier{users: users, activities: activities, labels: labels, log: log}
}

// Run verifies every labeled user. It never writes.
func (v *Verifier) Run(ctx context.Context) (*VerificationReport, error) {
	ids, err := v.users.ListLabeledUserIDs(ctx)
	if err != nil {
		return nil, err
	}

	report := &VerificationReport{}
	for _, userID := range ids {
		report.Users++
		intervals, _, err := v.labels.Load(userID)
		if errors.Is(err, models.ErrLabelsMissing) {
			report.Anomalies = append(report.Anomalies, Anomaly{UserID: userID, Kind: AnomalyMissingLabels, Detail: err.Error()})
			continue
		}
		if err != nil {
			return nil, err
		}

		matcher := NewMatcher(intervals)
		activities, err := v.activities.ListActivitiesWithMode(ctx, userID)
		if err != nil {
			return nil, err
		}

		for _, a := range activities {
			expected, ok := matcher.Match(a.Start, a.End)
			if !ok {
				continue
			}
			report.Checked++
			if a.Mode != nil && *a.Mode == expected {
				report.Correct++
				continue
			}
			report.Mismatches = append(report.Mismatches, Mismatch{
				UserID:     userID,
				ActivityID: a.ID,
				Persisted:  a.Mode,
				Expected:   expected,
			})
			observability.VerificationMismatches.Inc()
			v.log.Warn("mode mismatch", "user_id", userID, "activity_id", a.ID, "persisted", a.ModeOrEmpty(), "expected", expected)
		}
	}

	v.log.Info("verification finished",
		"users", report.Users,
		"checked", report.Checked,
		"correct", report.Correct,
		"mismatches", len(report.Mismatches))
	return report, nil
}
