package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jengzang/geolife-tracks/internal/models"
	"github.com/jengzang/geolife-tracks/internal/spatial"
)

// ReportRepository runs the read-only analytical queries
type ReportRepository struct {
	db *sql.DB
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// SeriesFilter narrows ForEachTrack. Zero values mean "any".
type SeriesFilter struct {
	UserID string
	Year   int
	Mode   string
}

// Counts returns the row count of every table
func (r *ReportRepository) Counts(ctx context.Context) (*models.DatasetCounts, error) {
	counts := &models.DatasetCounts{}
	query := `SELECT
		(SELECT COUNT(*) FROM users),
		(SELECT COUNT(*) FROM activities),
		(SELECT COUNT(*) FROM track_points)`
	if err := r.db.QueryRowContext(ctx, query).Scan(&counts.Users, &counts.Activities, &counts.TrackPoints); err != nil {
		return nil, fmt.Errorf("failed to count rows: %w", err)
	}
	return counts, nil
}

// ActivityCountsPerUser returns the number of activities of every user
// with at least one, busiest first
func (r *ReportRepository) ActivityCountsPerUser(ctx context.Context) ([]models.UserCount, error) {
	query := `SELECT user_id, COUNT(*) AS n FROM activities
		GROUP BY user_id ORDER BY n DESC, user_id`
	return r.queryUserCounts(ctx, query)
}

// UsersWithMode returns the users having at least one activity labeled
// with mode, with the number of such activities
func (r *ReportRepository) UsersWithMode(ctx context.Context, mode string) ([]models.UserCount, error) {
	query := `SELECT user_id, COUNT(*) AS n FROM activities
		WHERE transportation_mode = ?
		GROUP BY user_id ORDER BY user_id`
	return r.queryUserCounts(ctx, query, mode)
}

// ModeCounts returns the number of activities per labeled mode
func (r *ReportRepository) ModeCounts(ctx context.Context) ([]models.ModeCount, error) {
	query := `SELECT transportation_mode, COUNT(*) AS n FROM activities
		WHERE transportation_mode IS NOT NULL
		GROUP BY transportation_mode ORDER BY n DESC, transportation_mode`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query mode counts: %w", err)
	}
	defer rows.Close()

	var counts []models.ModeCount
	for rows.Next() {
		var mc models.ModeCount
		if err := rows.Scan(&mc.Mode, &mc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan mode count: %w", err)
		}
		counts = append(counts, mc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating mode counts: %w", err)
	}
	return counts, nil
}

// UserModeCounts returns (user, mode, count) for every labeled mode of
// every user
func (r *ReportRepository) UserModeCounts(ctx context.Context) ([]models.UserMode, error) {
	query := `SELECT user_id, transportation_mode, COUNT(*) FROM activities
		WHERE transportation_mode IS NOT NULL
		GROUP BY user_id, transportation_mode
		ORDER BY user_id, transportation_mode`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query user modes: %w", err)
	}
	defer rows.Close()

	var result []models.UserMode
	for rows.Next() {
		var um models.UserMode
		if err := rows.Scan(&um.UserID, &um.Mode, &um.Count); err != nil {
			return nil, fmt.Errorf("failed to scan user mode: %w", err)
		}
		result = append(result, um)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user modes: %w", err)
	}
	return result, nil
}

// YearActivities returns the activity count and recorded hours per
// start year, oldest first
func (r *ReportRepository) YearActivities(ctx context.Context) ([]models.YearActivity, error) {
	query := `SELECT CAST(strftime('%Y', start_date_time) AS INTEGER) AS year,
			COUNT(*),
			COALESCE(SUM((julianday(end_date_time) - julianday(start_date_time)) * 24.0), 0)
		FROM activities
		GROUP BY year ORDER BY year`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query activities per year: %w", err)
	}
	defer rows.Close()

	var years []models.YearActivity
	for rows.Next() {
		var y models.YearActivity
		if err := rows.Scan(&y.Year, &y.Activities, &y.Hours); err != nil {
			return nil, fmt.Errorf("failed to scan year: %w", err)
		}
		years = append(years, y)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating years: %w", err)
	}
	return years, nil
}

// UsersNear returns the users with at least one track point strictly
// inside box, with the number of such points
func (r *ReportRepository) UsersNear(ctx context.Context, box spatial.Box) ([]models.UserCount, error) {
	minLat, minLon, maxLat, maxLon := box.Bounds()
	query := `SELECT a.user_id, COUNT(*) FROM track_points tp
		JOIN activities a ON a.id = tp.activity_id
		WHERE tp.lat > ? AND tp.lat < ? AND tp.lon > ? AND tp.lon < ?
		GROUP BY a.user_id ORDER BY a.user_id`
	return r.queryUserCounts(ctx, query, minLat, maxLat, minLon, maxLon)
}

// ForEachTrack streams the track points of every activity matching f,
// grouped per activity, ordered by activity id then insert order.
// fn must not query the database: the handle allows one connection.
func (r *ReportRepository) ForEachTrack(ctx context.Context, f SeriesFilter, fn func(a models.Activity, points []models.TrackPoint) error) error {
	var conditions []string
	var args []interface{}

	if f.UserID != "" {
		conditions = append(conditions, "a.user_id = ?")
		args = append(args, f.UserID)
	}
	if f.Year > 0 {
		conditions = append(conditions, "CAST(strftime('%Y', a.start_date_time) AS INTEGER) = ?")
		args = append(args, f.Year)
	}
	if f.Mode != "" {
		conditions = append(conditions, "a.transportation_mode = ?")
		args = append(args, f.Mode)
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	query := `SELECT a.id, a.user_id, tp.id, tp.lat, tp.lon, tp.altitude, tp.date_days, tp.date_time
		FROM track_points tp
		JOIN activities a ON a.id = tp.activity_id` + whereClause + `
		ORDER BY a.id, tp.id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to query track points: %w", err)
	}
	defer rows.Close()

	var current models.Activity
	var points []models.TrackPoint
	flush := func() error {
		if len(points) == 0 {
			return nil
		}
		err := fn(current, points)
		points = nil
		return err
	}

	for rows.Next() {
		var activityID int64
		var userID, ts string
		var p models.TrackPoint
		if err := rows.Scan(&activityID, &userID, &p.ID, &p.Latitude, &p.Longitude, &p.Altitude, &p.DateDays, &ts); err != nil {
			return fmt.Errorf("failed to scan track point: %w", err)
		}
		if p.DateTime, err = models.ParseTime(ts); err != nil {
			return fmt.Errorf("track point %d has invalid time %q: %w", p.ID, ts, err)
		}
		p.ActivityID = activityID

		if activityID != current.ID || len(points) == 0 {
			if err := flush(); err != nil {
				return err
			}
			current = models.Activity{ID: activityID, UserID: userID}
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating track points: %w", err)
	}
	return flush()
}

func (r *ReportRepository) queryUserCounts(ctx context.Context, query string, args ...interface{}) ([]models.UserCount, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query user counts: %w", err)
	}
	defer rows.Close()

	var counts []models.UserCount
	for rows.Next() {
		var uc models.UserCount
		if err := rows.Scan(&uc.UserID, &uc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan user count: %w", err)
		}
		counts = append(counts, uc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user counts: %w", err)
	}
	return counts, nil
}
