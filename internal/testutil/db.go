package testutil

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/jengzang/geolife-tracks/internal/database"
	"github.com/jengzang/geolife-tracks/internal/pkg/logger"
)

// NewDB opens a fresh SQLite database in t.TempDir() with all migrations
// applied. It is closed automatically when the test finishes.
func NewDB(t *testing.T) *sql.DB {
	t.Helper()

	ctx := context.Background()
	db, err := database.Open(ctx, database.Config{Path: filepath.Join(t.TempDir(), "geolife.db")})
	if err != nil {
		t.Fatalf("testutil.NewDB: open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	mm, err := database.NewMigrationManager(db, logger.Nop())
	if err != nil {
		t.Fatalf("testutil.NewDB: migration manager: %v", err)
	}
	if err := mm.RunMigrations(ctx); err != nil {
		t.Fatalf("testutil.NewDB: migrate: %v", err)
	}
	return db
}
