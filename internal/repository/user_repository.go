package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jengzang/geolife-tracks/internal/models"
)

// UserRepository handles database operations for users
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// InsertUser inserts one user
func (r *UserRepository) InsertUser(ctx context.Context, u models.User) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO users (id, has_labels) VALUES (?, ?)`, u.ID, u.HasLabels)
	if err != nil {
		return fmt.Errorf("failed to insert user %s: %w", u.ID, err)
	}
	return nil
}

// ListLabeledUserIDs returns the ids of users flagged with labels, sorted
func (r *UserRepository) ListLabeledUserIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM users WHERE has_labels = 1 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query labeled users: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return ids, nil
}

// ListUsers returns up to limit users ordered by id; limit <= 0 means all
func (r *UserRepository) ListUsers(ctx context.Context, limit int) ([]models.User, error) {
	query := `SELECT id, has_labels FROM users ORDER BY id`
	var args []interface{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.HasLabels); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}
