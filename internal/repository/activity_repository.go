package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jengzang/geolife-tracks/internal/models"
)

// ActivityRepository handles database operations for activities
type ActivityRepository struct {
	db *sql.DB
}

// NewActivityRepository creates a new activity repository
func NewActivityRepository(db *sql.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// InsertActivity inserts an activity with an unset transportation mode
func (r *ActivityRepository) InsertActivity(ctx context.Context, a models.Activity) error {
	query := `INSERT INTO activities (id, user_id, file_stem, transportation_mode, start_date_time, end_date_time)
		VALUES (?, ?, ?, NULL, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.UserID, a.FileStem, models.FormatTime(a.Start), models.FormatTime(a.End))
	if err != nil {
		return fmt.Errorf("failed to insert activity %d: %w", a.ID, err)
	}
	return nil
}

// UpdateActivityMode sets the transportation mode of one activity
func (r *ActivityRepository) UpdateActivityMode(ctx context.Context, id int64, mode string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE activities SET transportation_mode = ? WHERE id = ?`, mode, id)
	if err != nil {
		return fmt.Errorf("failed to update mode of activity %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update mode of activity %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("activity %d: %w", id, models.ErrNotFound)
	}
	return nil
}

// ListActivities returns the activities of a user ordered by id.
// The mode is not loaded.
func (r *ActivityRepository) ListActivities(ctx context.Context, userID string) ([]models.Activity, error) {
	query := `SELECT id, user_id, file_stem, start_date_time, end_date_time
		FROM activities WHERE user_id = ? ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query activities of user %s: %w", userID, err)
	}
	defer rows.Close()

	var activities []models.Activity
	for rows.Next() {
		var a models.Activity
		var start, end string
		if err := rows.Scan(&a.ID, &a.UserID, &a.FileStem, &start, &end); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		if err := setTimes(&a, start, end); err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activities: %w", err)
	}
	return activities, nil
}

// ListActivitiesWithMode returns the activities of a user with their
// persisted transportation mode, ordered by id
func (r *ActivityRepository) ListActivitiesWithMode(ctx context.Context, userID string) ([]models.Activity, error) {
	query := `SELECT id, user_id, file_stem, transportation_mode, start_date_time, end_date_time
		FROM activities WHERE user_id = ? ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query activities of user %s: %w", userID, err)
	}
	defer rows.Close()

	return scanActivitiesWithMode(rows)
}

// GetActivity retrieves a single activity by id
func (r *ActivityRepository) GetActivity(ctx context.Context, id int64) (*models.Activity, error) {
	query := `SELECT id, user_id, file_stem, transportation_mode, start_date_time, end_date_time
		FROM activities WHERE id = ?`

	rows, err := r.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get activity %d: %w", id, err)
	}
	defer rows.Close()

	activities, err := scanActivitiesWithMode(rows)
	if err != nil {
		return nil, err
	}
	if len(activities) == 0 {
		return nil, fmt.Errorf("activity %d: %w", id, models.ErrNotFound)
	}
	return &activities[0], nil
}

// ListAll returns up to limit activities ordered by id; limit <= 0 means all
func (r *ActivityRepository) ListAll(ctx context.Context, limit int) ([]models.Activity, error) {
	query := `SELECT id, user_id, file_stem, transportation_mode, start_date_time, end_date_time
		FROM activities ORDER BY id`
	var args []interface{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	defer rows.Close()

	return scanActivitiesWithMode(rows)
}

func scanActivitiesWithMode(rows *sql.Rows) ([]models.Activity, error) {
	var activities []models.Activity
	for rows.Next() {
		var a models.Activity
		var mode sql.NullString
		var start, end string
		if err := rows.Scan(&a.ID, &a.UserID, &a.FileStem, &mode, &start, &end); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		if mode.Valid {
			m := mode.String
			a.Mode = &m
		}
		if err := setTimes(&a, start, end); err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activities: %w", err)
	}
	return activities, nil
}

func setTimes(a *models.Activity, start, end string) error {
	var err error
	if a.Start, err = models.ParseTime(start); err != nil {
		return fmt.Errorf("activity %d has invalid start time %q: %w", a.ID, start, err)
	}
	if a.End, err = models.ParseTime(end); err != nil {
		return fmt.Errorf("activity %d has invalid end time %q: %w", a.ID, end, err)
	}
	return nil
}
