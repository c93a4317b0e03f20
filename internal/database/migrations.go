package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/jengzang/geolife-tracks/internal/pkg/logger"
	"github.com/jengzang/geolife-tracks/migrations"
)

// MigrationManager applies the embedded schema migrations
type MigrationManager struct {
	provider *goose.Provider
	log      *logger.Logger
}

// NewMigrationManager creates a new migration manager
func NewMigrationManager(db *sql.DB, log *logger.Logger) (*MigrationManager, error) {
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, migrations.FS)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration provider: %w", err)
	}
	return &MigrationManager{provider: provider, log: log}, nil
}

// RunMigrations applies all pending migrations
func (m *MigrationManager) RunMigrations(ctx context.Context) error {
	results, err := m.provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	for _, r := range results {
		m.log.Info("applied migration", "version", r.Source.Version, "path", r.Source.Path, "duration", r.Duration)
	}
	return nil
}

// Reset drops every table and re-creates the schema, so each run starts
// from empty tables.
func (m *MigrationManager) Reset(ctx context.Context) error {
	if _, err := m.provider.DownTo(ctx, 0); err != nil {
		return fmt.Errorf("failed to roll back migrations: %w", err)
	}
	m.log.Info("dropped schema")
	return m.RunMigrations(ctx)
}

// Version returns the current schema version
func (m *MigrationManager) Version(ctx context.Context) (int64, error) {
	v, err := m.provider.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return v, nil
}
