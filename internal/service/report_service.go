package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jengzang/geolife-tracks/internal/models"
	"github.com/jengzang/geolife-tracks/internal/repository"
	"github.com/jengzang/geolife-tracks/internal/spatial"
)

const (
	// FeetToMeters converts PLT altitudes to metres.
	FeetToMeters = 0.3048
	// InvalidGap is the smallest gap between consecutive points that makes
	// an activity invalid.
	InvalidGap = 5 * time.Minute
	// DefaultTopN is the size of the top-N reports.
	DefaultTopN = 20
	// DefaultGeofenceTolerance is the half-width of the geofence box in degrees.
	DefaultGeofenceTolerance = 0.001
)

// ReportRepository is the storage the report service reads from
type ReportRepository interface {
	Counts(ctx context.Context) (*models.DatasetCounts, error)
	ActivityCountsPerUser(ctx context.Context) ([]models.UserCount, error)
	UsersWithMode(ctx context.Context, mode string) ([]models.UserCount, error)
	ModeCounts(ctx context.Context) ([]models.ModeCount, error)
	UserModeCounts(ctx context.Context) ([]models.UserMode, error)
	YearActivities(ctx context.Context) ([]models.YearActivity, error)
	UsersNear(ctx context.Context, box spatial.Box) ([]models.UserCount, error)
	ForEachTrack(ctx context.Context, f repository.SeriesFilter, fn func(a models.Activity, points []models.TrackPoint) error) error
}

// UserLister lists the first rows of the users table
type UserLister interface {
	ListUsers(ctx context.Context, limit int) ([]models.User, error)
}

// ActivityLister lists the first rows of the activities table
type ActivityLister interface {
	ListAll(ctx context.Context, limit int) ([]models.Activity, error)
}

// ReportService computes the analytical reports over an ingested dataset
type ReportService struct {
	repo       ReportRepository
	users      UserLister
	activities ActivityLister
}

// NewReportService creates a new report service
func NewReportService(repo ReportRepository, users UserLister, activities ActivityLister) *ReportService {
	return &ReportService{
		repo:       repo,
		users:      users,
		activities: activities,
	}
}

// Counts returns the row count of every table
func (s *ReportService) Counts(ctx context.Context) (*models.DatasetCounts, error) {
	counts, err := s.repo.Counts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get dataset counts: %w", err)
	}
	return counts, nil
}

// Tables returns the row counts and the first limit users and activities
func (s *ReportService) Tables(ctx context.Context, limit int) (*models.TableDump, error) {
	counts, err := s.Counts(ctx)
	if err != nil {
		return nil, err
	}
	users, err := s.users.ListUsers(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	activities, err := s.activities.ListAll(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	return &models.TableDump{Counts: *counts, Users: users, Activities: activities}, nil
}

// AverageActivitiesPerUser averages over users with at least one activity
func (s *ReportService) AverageActivitiesPerUser(ctx context.Context) (float64, error) {
	perUser, err := s.repo.ActivityCountsPerUser(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get activities per user: %w", err)
	}
	if len(perUser) == 0 {
		return 0, nil
	}
	var total int64
	for _, uc := range perUser {
		total += uc.Count
	}
	return float64(total) / float64(len(perUser)), nil
}

// TopUsersByActivities returns the n users with the most activities
func (s *ReportService) TopUsersByActivities(ctx context.Context, n int) ([]models.UserCount, error) {
	perUser, err := s.repo.ActivityCountsPerUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get activities per user: %w", err)
	}
	return topN(perUser, n), nil
}

// UsersWithMode returns the users who have used mode
func (s *ReportService) UsersWithMode(ctx context.Context, mode string) ([]models.UserCount, error) {
	if mode == "" {
		return nil, fmt.Errorf("mode must not be empty")
	}
	users, err := s.repo.UsersWithMode(ctx, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to get users with mode %s: %w", mode, err)
	}
	return users, nil
}

// ModeCounts returns the number of activities per labeled mode
func (s *ReportService) ModeCounts(ctx context.Context) ([]models.ModeCount, error) {
	counts, err := s.repo.ModeCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get mode counts: %w", err)
	}
	return counts, nil
}

// YearComparison compares the year with the most activities with the
// year with the most recorded hours
func (s *ReportService) YearComparison(ctx context.Context) (*models.YearComparison, error) {
	years, err := s.repo.YearActivities(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get activities per year: %w", err)
	}
	return CompareYears(years), nil
}

// Distance sums the haversine distance between consecutive points of every
// activity of userID in year with mode. Activity boundaries are not bridged.
func (s *ReportService) Distance(ctx context.Context, userID string, year int, mode string) (*models.DistanceReport, error) {
	report := &models.DistanceReport{UserID: userID, Year: year, Mode: mode}
	filter := repository.SeriesFilter{UserID: userID, Year: year, Mode: mode}

	var meters float64
	err := s.repo.ForEachTrack(ctx, filter, func(_ models.Activity, points []models.TrackPoint) error {
		report.Activities++
		meters += spatial.PathLength(toPath(points))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to compute distance: %w", err)
	}
	report.Kilometers = meters / 1000
	return report, nil
}

// TopAltitudeGain returns the n users with the largest total altitude gain
func (s *ReportService) TopAltitudeGain(ctx context.Context, n int) ([]models.AltitudeGain, error) {
	feet := make(map[string]int64)
	err := s.repo.ForEachTrack(ctx, repository.SeriesFilter{}, func(a models.Activity, points []models.TrackPoint) error {
		feet[a.UserID] += AltitudeGainFeet(points)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to compute altitude gain: %w", err)
	}

	gains := make([]models.AltitudeGain, 0, len(feet))
	for userID, f := range feet {
		gains = append(gains, models.AltitudeGain{UserID: userID, Feet: f, Meters: float64(f) * FeetToMeters})
	}
	sort.Slice(gains, func(i, j int) bool {
		if gains[i].Feet != gains[j].Feet {
			return gains[i].Feet > gains[j].Feet
		}
		return gains[i].UserID < gains[j].UserID
	})
	if n > 0 && len(gains) > n {
		gains = gains[:n]
	}
	return gains, nil
}

// InvalidActivities returns, per user, the number of activities having at
// least one gap of InvalidGap or more between consecutive points, most
// invalid activities first
func (s *ReportService) InvalidActivities(ctx context.Context) ([]models.UserCount, error) {
	invalid := make(map[string]int64)
	err := s.repo.ForEachTrack(ctx, repository.SeriesFilter{}, func(a models.Activity, points []models.TrackPoint) error {
		if HasGap(points, InvalidGap) {
			invalid[a.UserID]++
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find invalid activities: %w", err)
	}

	counts := make([]models.UserCount, 0, len(invalid))
	for userID, n := range invalid {
		counts = append(counts, models.UserCount{UserID: userID, Count: n})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].UserID < counts[j].UserID
	})
	return counts, nil
}

// UsersNear returns the users with a track point within tolerance degrees
// of (lat, lon)
func (s *ReportService) UsersNear(ctx context.Context, lat, lon, tolerance float64) ([]models.UserCount, error) {
	if tolerance <= 0 {
		tolerance = DefaultGeofenceTolerance
	}
	users, err := s.repo.UsersNear(ctx, spatial.NewBox(lat, lon, tolerance))
	if err != nil {
		return nil, fmt.Errorf("failed to find users near %f,%f: %w", lat, lon, err)
	}
	return users, nil
}

// MostUsedModes returns the most used labeled mode of every user
func (s *ReportService) MostUsedModes(ctx context.Context) ([]models.UserMode, error) {
	rows, err := s.repo.UserModeCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get user modes: %w", err)
	}
	return MostUsed(rows), nil
}

// AltitudeGainFeet sums the positive altitude deltas between consecutive
// points. A pair involving models.AltitudeUnknown contributes nothing.
func AltitudeGainFeet(points []models.TrackPoint) int64 {
	var gain int64
	for i := 1; i < len(points); i++ {
		prev, cur := points[i-1], points[i]
		if !prev.HasAltitude() || !cur.HasAltitude() {
			continue
		}
		if d := cur.Altitude - prev.Altitude; d > 0 {
			gain += int64(d)
		}
	}
	return gain
}

// HasGap reports whether two consecutive points are gap or more apart
func HasGap(points []models.TrackPoint, gap time.Duration) bool {
	for i := 1; i < len(points); i++ {
		if points[i].DateTime.Sub(points[i-1].DateTime) >= gap {
			return true
		}
	}
	return false
}

// CompareYears picks the busiest year by activity count and by hours.
// Ties go to the earlier year.
func CompareYears(years []models.YearActivity) *models.YearComparison {
	cmp := &models.YearComparison{}
	for i, y := range years {
		if i == 0 || y.Activities > cmp.MostActivities.Activities {
			cmp.MostActivities = y
		}
		if i == 0 || y.Hours > cmp.MostHours.Hours {
			cmp.MostHours = y
		}
	}
	cmp.SameYear = len(years) > 0 && cmp.MostActivities.Year == cmp.MostHours.Year
	return cmp
}

// MostUsed keeps the highest-count mode per user; ties go to the
// alphabetically first mode. Output is sorted by user id.
func MostUsed(rows []models.UserMode) []models.UserMode {
	best := make(map[string]models.UserMode)
	for _, r := range rows {
		cur, ok := best[r.UserID]
		if !ok || r.Count > cur.Count || (r.Count == cur.Count && r.Mode < cur.Mode) {
			best[r.UserID] = r
		}
	}

	result := make([]models.UserMode, 0, len(best))
	for _, um := range best {
		result = append(result, um)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UserID < result[j].UserID })
	return result
}

func topN(counts []models.UserCount, n int) []models.UserCount {
	sorted := make([]models.UserCount, len(counts))
	copy(sorted, counts)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Count != sorted[j].Count {
			return sorted[i].Count > sorted[j].Count
		}
		return sorted[i].UserID < sorted[j].UserID
	})
	if n > 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func toPath(points []models.TrackPoint) []spatial.Point {
	path := make([]spatial.Point, len(points))
	for i, p := range points {
		path[i] = spatial.Point{Lat: p.Latitude, Lon: p.Longitude}
	}
	return path
}

// ErrUnknownReport is returned by Run for a name not in ReportNames.
var ErrUnknownReport = errors.New("unknown report")

// ReportParams carries the optional arguments of the named reports.
// Zero values select the defaults (top 20, taxi users, walking distance of
// user 112 in 2008, the Forbidden City geofence).
type ReportParams struct {
	Limit     int
	Mode      string
	UserID    string
	Year      int
	Lat       float64
	Lon       float64
	Tolerance float64
}

// withDefaults fills zero fields with the values of the reference queries.
func (p ReportParams) withDefaults(name string) ReportParams {
	if p.Limit <= 0 {
		p.Limit = DefaultTopN
	}
	if p.Mode == "" {
		p.Mode = "taxi"
		if name == "distance" {
			p.Mode = "walk"
		}
	}
	if p.UserID == "" {
		p.UserID = "112"
	}
	if p.Year == 0 {
		p.Year = 2008
	}
	if p.Lat == 0 && p.Lon == 0 {
		p.Lat, p.Lon = 39.916, 116.397
	}
	if p.Tolerance <= 0 {
		p.Tolerance = DefaultGeofenceTolerance
	}
	return p
}

// ReportNames lists the reports Run accepts, in presentation order.
var ReportNames = []string{
	"counts",
	"tables",
	"average-activities",
	"top-users",
	"mode-users",
	"mode-counts",
	"years",
	"distance",
	"altitude-gain",
	"invalid-activities",
	"geofence",
	"most-used-modes",
}

// Run computes the named report
func (s *ReportService) Run(ctx context.Context, name string, p ReportParams) (interface{}, error) {
	p = p.withDefaults(name)
	switch name {
	case "counts":
		return s.Counts(ctx)
	case "tables":
		return s.Tables(ctx, p.Limit)
	case "average-activities":
		avg, err := s.AverageActivitiesPerUser(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]float64{"averageActivitiesPerUser": avg}, nil
	case "top-users":
		return s.TopUsersByActivities(ctx, p.Limit)
	case "mode-users":
		return s.UsersWithMode(ctx, p.Mode)
	case "mode-counts":
		return s.ModeCounts(ctx)
	case "years":
		return s.YearComparison(ctx)
	case "distance":
		return s.Distance(ctx, p.UserID, p.Year, p.Mode)
	case "altitude-gain":
		return s.TopAltitudeGain(ctx, p.Limit)
	case "invalid-activities":
		return s.InvalidActivities(ctx)
	case "geofence":
		return s.UsersNear(ctx, p.Lat, p.Lon, p.Tolerance)
	case "most-used-modes":
		return s.MostUsedModes(ctx)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownReport, name)
	}
}
