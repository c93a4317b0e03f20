package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jengzang/geolife-tracks/internal/config"
	"github.com/jengzang/geolife-tracks/internal/database"
	"github.com/jengzang/geolife-tracks/internal/dataset"
	"github.com/jengzang/geolife-tracks/internal/ingest"
	"github.com/jengzang/geolife-tracks/internal/pkg/logger"
	"github.com/jengzang/geolife-tracks/internal/reconcile"
	"github.com/jengzang/geolife-tracks/internal/repository"
	"github.com/jengzang/geolife-tracks/internal/service"
)

// app owns the process-wide resources of one command invocation
type app struct {
	cfg *config.Config
	log *logger.Logger
	db  *sql.DB

	users      *repository.UserRepository
	activities *repository.ActivityRepository
	tracks     *repository.TrackRepository
	reports    *repository.ReportRepository
}

// newApp loads the configuration, builds the logger and opens the
// database. The caller must call close on every path.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.LogMode, cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	db, err := database.Open(ctx, database.Config{Path: cfg.DBPath})
	if err != nil {
		log.Sync()
		return nil, err
	}

	return &app{
		cfg:        cfg,
		log:        log,
		db:         db,
		users:      repository.NewUserRepository(db),
		activities: repository.NewActivityRepository(db),
		tracks:     repository.NewTrackRepository(db),
		reports:    repository.NewReportRepository(db),
	}, nil
}

func (a *app) close() {
	if err := a.db.Close(); err != nil {
		a.log.Error("failed to close database", "error", err)
	}
	a.log.Sync()
}

// prepareSchema resets the schema when reset is set, otherwise applies
// pending migrations.
func (a *app) prepareSchema(ctx context.Context, reset bool) error {
	mm, err := database.NewMigrationManager(a.db, a.log)
	if err != nil {
		return err
	}
	if reset {
		return mm.Reset(ctx)
	}
	return mm.RunMigrations(ctx)
}

// layout resolves the dataset root from the positional argument,
// falling back to DATASET_ROOT.
func (a *app) layout(args []string) dataset.Layout {
	root := a.cfg.DatasetRoot
	if len(args) > 0 {
		root = args[0]
	}
	return dataset.NewLayout(root, a.cfg.ManifestName, a.cfg.LabelFileName)
}

func (a *app) pipeline(layout dataset.Layout) *ingest.Pipeline {
	opts := ingest.Options{
		BatchSize:    a.cfg.BatchSize,
		Workers:      a.cfg.ParseWorkers,
		MaxDataLines: a.cfg.MaxDataLines,
	}
	return ingest.NewPipeline(layout, a.users, a.activities, a.tracks, opts, a.log)
}

func (a *app) reconciler(layout dataset.Layout) *reconcile.Reconciler {
	return reconcile.NewReconciler(a.users, a.activities, dataset.NewLabelLoader(layout), a.log)
}

func (a *app) verifier(layout dataset.Layout) *reconcile.Verifier {
	return reconcile.NewVerifier(a.users, a.activities, dataset.NewLabelLoader(layout), a.log)
}

func (a *app) reportService() *service.ReportService {
	return service.NewReportService(a.reports, a.users, a.activities)
}

// withApp runs fn with a fully initialised app and releases it afterwards.
func withApp(ctx context.Context, fn func(a *app) error) error {
	a, err := newApp(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialise: %w", err)
	}
	defer a.close()
	return fn(a)
}
