package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jengzang/geolife-tracks/internal/models"
)

// TrackRepository handles database operations for track points
type TrackRepository struct {
	db *sql.DB
}

// NewTrackRepository creates a new track repository
func NewTrackRepository(db *sql.DB) *TrackRepository {
	return &TrackRepository{db: db}
}

// InsertTrackPoints inserts a batch of track points in one transaction,
// in slice order. Either the whole batch is stored or none of it.
func (r *TrackRepository) InsertTrackPoints(ctx context.Context, points []models.TrackPoint) error {
	if len(points) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO track_points
		(activity_id, lat, lon, altitude, date_days, date_time)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, p := range points {
		_, err := stmt.ExecContext(ctx, p.ActivityID, p.Latitude, p.Longitude, p.Altitude, p.DateDays, models.FormatTime(p.DateTime))
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert track point of activity %d: %w", p.ActivityID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ListTrackPoints returns the track points of an activity in insert order
func (r *TrackRepository) ListTrackPoints(ctx context.Context, activityID int64) ([]models.TrackPoint, error) {
	query := `SELECT id, activity_id, lat, lon, altitude, date_days, date_time
		FROM track_points WHERE activity_id = ? ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, activityID)
	if err != nil {
		return nil, fmt.Errorf("failed to query track points: %w", err)
	}
	defer rows.Close()

	var points []models.TrackPoint
	for rows.Next() {
		var p models.TrackPoint
		var ts string
		if err := rows.Scan(&p.ID, &p.ActivityID, &p.Latitude, &p.Longitude, &p.Altitude, &p.DateDays, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan track point: %w", err)
		}
		if p.DateTime, err = models.ParseTime(ts); err != nil {
			return nil, fmt.Errorf("track point %d has invalid time %q: %w", p.ID, ts, err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating track points: %w", err)
	}
	return points, nil
}
