package reconcile

import (
	"context"
	"errors"

	"github.com/jengzang/geolife-tracks/internal/models"
	"github.com/jengzang/geolife-tracks/internal/observability"
	"github.com/jengzang/geolife-tracks/internal/pkg/logger"
)

// LabeledUserLister lists the users flagged as shipping label files.
type LabeledUserLister interface {
	ListLabeledUserIDs(ctx context.Context) ([]string, error)
}

// ActivityUpdater reads a user's activities and stores matched modes.
type ActivityUpdater interface {
	ListActivities(ctx context.Context, userID string) ([]models.Activity, error)
	UpdateActivityMode(ctx context.Context, id int64, mode string) error
}

// LabelSource loads the label intervals of one user. A missing file must
// wrap models.ErrLabelsMissing.
type LabelSource interface {
	Load(userID string) ([]models.LabelInterval, int, error)
}

type AnomalyKind string

const (
	AnomalyMissingLabels AnomalyKind = "missing_labels"
	AnomalyNoMatches     AnomalyKind = "no_matches"
)

// Anomaly is a user-level problem that does not stop a run.
type Anomaly struct {
	UserID string      `json:"userId"`
	Kind   AnomalyKind `json:"kind"`
	Detail string      `json:"detail,omitempty"`
}

// ReconcileReport summarizes one reconciliation run.
type ReconcileReport struct {
	Users         int       `json:"users"`
	Activities    int       `json:"activities"`
	Matched       int       `json:"matched"`
	LabelsDropped int       `json:"labelsDropped"`
	Anomalies     []Anomaly `json:"anomalies,omitempty"`
}

// Reconciler writes the labeled transportation mode onto every activity
// whose time window exactly matches a label interval.
type Reconciler struct {
	users      LabeledUserLister
	activities ActivityUpdater
	labels     LabelSource
	log        *logger.Logger
}

// NewReconciler creates a new label reconciler
func NewReconciler(users LabeledUserLister, activities ActivityUpdater, labels LabelSource, log *logger.Logger) *Reconciler {
	return &Reconciler{users: users, activities: activities, labels: labels, log: log}
}

// Run reconciles every labeled user. Missing label files and users without
// any match are reported as anomalies; storage errors abort the run.
func (r *Reconciler) Run(ctx context.Context) (*ReconcileReport, error) {
	ids, err := r.users.ListLabeledUserIDs(ctx)
	if err != nil {
		return nil, err
	}

	report := &ReconcileReport{}
	for _, userID := range ids {
		report.Users++
		ulog := r.log.With("user_id", userID)

		intervals, dropped, err := r.labels.Load(userID)
		if errors.Is(err, models.ErrLabelsMissing) {
			report.addAnomaly(ulog, Anomaly{UserID: userID, Kind: AnomalyMissingLabels, Detail: err.Error()})
			continue
		}
		if err != nil {
			return nil, err
		}
		report.LabelsDropped += dropped
		if dropped > 0 {
			ulog.Debug("dropped invalid label lines", "dropped", dropped)
		}

		matcher := NewMatcher(intervals)
		activities, err := r.activities.ListActivities(ctx, userID)
		if err != nil {
			return nil, err
		}

		matched := 0
		for _, a := range activities {
			report.Activities++
			mode, ok := matcher.Match(a.Start, a.End)
			if !ok {
				continue
			}
			if err := r.activities.UpdateActivityMode(ctx, a.ID, mode); err != nil {
				return nil, err
			}
			matched++
		}
		report.Matched += matched
		observability.LabelsMatched.Add(float64(matched))

		if matched == 0 {
			report.addAnomaly(ulog, Anomaly{UserID: userID, Kind: AnomalyNoMatches})
			continue
		}
		ulog.Info("reconciled labels", "activities", len(activities), "matched", matched, "intervals", len(intervals))
	}

	r.log.Info("reconciliation finished",
		"users", report.Users,
		"matched", report.Matched,
		"anomalies", len(report.Anomalies))
	return report, nil
}

func (r *ReconcileReport) addAnomaly(log *logger.Logger, a Anomaly) {
	r.Anomalies = append(r.Anomalies, a)
	observability.Anomalies.WithLabelValues(string(a.Kind)).Inc()
	log.Warn("label anomaly", "kind", string(a.Kind), "detail", a.Detail)
}
