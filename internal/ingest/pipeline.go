// Package ingest loads a GeoLife dataset into storage: users, then one
// activity per trajectory file, then its track points through a
// BatchWriter.
package ingest

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jengzang/geolife-tracks/internal/dataset"
	"github.com/jengzang/geolife-tracks/internal/models"
	"github.com/jengzang/geolife-tracks/internal/observability"
	"github.com/jengzang/geolife-tracks/internal/parser"
	"github.com/jengzang/geolife-tracks/internal/pkg/logger"
)

// DefaultWorkers is the number of trajectory files parsed concurrently.
const DefaultWorkers = 4

// UserInserter stores users.
type UserInserter interface {
	InsertUser(ctx context.Context, u models.User) error
}

// ActivityInserter stores activities.
type ActivityInserter interface {
	InsertActivity(ctx context.Context, a models.Activity) error
}

// Options tunes a Pipeline. Zero values select the defaults.
type Options struct {
	BatchSize    int
	Workers      int
	MaxDataLines int
}

// Skipped is a trajectory file that produced no activity.
type Skipped struct {
	Key    dataset.Key   `json:"key"`
	Path   string        `json:"path"`
	Reason parser.Reason `json:"reason"`
	Detail string        `json:"detail"`
}

// Summary describes one ingestion run.
type Summary struct {
	RunID        string        `json:"runId"`
	Users        int           `json:"users"`
	LabeledUsers int           `json:"labeledUsers"`
	Files        int           `json:"files"`
	Activities   int           `json:"activities"`
	Points       int64         `json:"points"`
	Batches      int           `json:"batches"`
	LinesDropped int           `json:"linesDropped"`
	Skipped      []Skipped     `json:"skipped,omitempty"`
	Ignored      []string      `json:"ignored,omitempty"`
	Duration     time.Duration `json:"duration"`
}

// SkippedBy returns the number of files skipped for reason.
func (s *Summary) SkippedBy(reason parser.Reason) int {
	n := 0
	for _, sk := range s.Skipped {
		if sk.Reason == reason {
			n++
		}
	}
	return n
}

// Pipeline runs one ingestion of a dataset root.
type Pipeline struct {
	layout     dataset.Layout
	users      UserInserter
	activities ActivityInserter
	points     TrackPointInserter
	opts       Options
	log        *logger.Logger
}

// NewPipeline creates a new ingestion pipeline
func NewPipeline(layout dataset.Layout, users UserInserter, activities ActivityInserter, points TrackPointInserter, opts Options, log *logger.Logger) *Pipeline {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.MaxDataLines <= 0 {
		opts.MaxDataLines = parser.MaxDataLines
	}
	return &Pipeline{
		layout:     layout,
		users:      users,
		activities: activities,
		points:     points,
		opts:       opts,
		log:        log,
	}
}

type parsed struct {
	file    dataset.ActivityFile
	track   *parser.Track
	outcome parser.Outcome
}

// Run ingests the dataset. Users are inserted first, then every trajectory
// file in walk order. Files are parsed concurrently in windows but their
// results are consumed strictly in walk order, so activity inserts, id
// claims and batch flushes happen exactly as in a sequential run.
//
// Per-file problems are recorded in the summary. A missing manifest or any
// storage failure aborts the run; pending track points are then discarded.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	started := time.Now()
	summary := &Summary{RunID: uuid.NewString()}
	log := p.log.With("run_id", summary.RunID)

	manifest, err := dataset.ReadManifest(p.layout.ManifestPath())
	if err != nil {
		return nil, err
	}

	plan, err := dataset.Walk(p.layout, manifest)
	if err != nil {
		return nil, err
	}
	summary.Files = len(plan.Activities)
	summary.Ignored = plan.Ignored
	for _, path := range plan.Ignored {
		log.Warn("ignoring trajectory file outside a user directory", "path", path)
	}

	for _, u := range plan.Users {
		if err := p.users.InsertUser(ctx, u); err != nil {
			return nil, err
		}
		summary.Users++
		if u.HasLabels {
			summary.LabeledUsers++
		}
	}
	log.Info("inserted users", "users", summary.Users, "labeled", summary.LabeledUsers)

	writer := NewBatchWriter(p.points, p.opts.BatchSize, log)
	registry := dataset.NewRegistry()
	trajectories := parser.NewTrajectoryParser(p.opts.MaxDataLines)

	window := p.opts.Workers * 4
	for start := 0; start < len(plan.Activities); start += window {
		end := start + window
		if end > len(plan.Activities) {
			end = len(plan.Activities)
		}

		results, err := p.parseWindow(ctx, trajectories, plan.Activities[start:end])
		if err != nil {
			writer.Discard()
			return nil, err
		}

		for _, res := range results {
			if err := p.consume(ctx, log, res, registry, writer, summary); err != nil {
				writer.Discard()
				return nil, err
			}
		}
	}

	if err := writer.Flush(ctx); err != nil {
		writer.Discard()
		return nil, err
	}

	stats := writer.Stats()
	summary.Points = stats.Points
	summary.Batches = stats.Batches
	summary.Duration = time.Since(started)

	log.Info("ingestion finished",
		"activities", summary.Activities,
		"points", summary.Points,
		"batches", summary.Batches,
		"skipped", len(summary.Skipped),
		"duration", summary.Duration)
	return summary, nil
}

func (p *Pipeline) parseWindow(ctx context.Context, trajectories *parser.TrajectoryParser, files []dataset.ActivityFile) ([]parsed, error) {
	results := make([]parsed, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Workers)
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			track, outcome := trajectories.ParseFile(f.Path)
			results[i] = parsed{file: f, track: track, outcome: outcome}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (p *Pipeline) consume(ctx context.Context, log *logger.Logger, res parsed, registry *dataset.Registry, writer *BatchWriter, summary *Summary) error {
	key := res.file.Key
	flog := log.With("user_id", key.UserID, "path", res.file.Path)

	if !res.outcome.OK() {
		p.skip(flog, summary, res.file, res.outcome)
		return nil
	}

	track := res.track
	if len(track.Issues) > 0 {
		summary.LinesDropped += len(track.Issues)
		observability.LinesDropped.Add(float64(len(track.Issues)))
		for _, issue := range track.Issues {
			flog.Debug("dropped malformed line", "line", issue.Line, "reason", issue.Reason)
		}
	}

	id, err := dataset.ActivityID(key.UserID, key.Stem)
	if err != nil {
		p.skip(flog, summary, res.file, parser.Skip(parser.ReasonInvalidID, "%v", err))
		return nil
	}
	if owner, ok := registry.Claim(id, key); !ok {
		p.skip(flog, summary, res.file, parser.Skip(parser.ReasonIDCollision, "activity id %d already taken by %s", id, owner))
		return nil
	}

	activity := models.Activity{
		ID:       id,
		UserID:   key.UserID,
		FileStem: key.Stem,
		Start:    track.Start,
		End:      track.End,
	}
	if err := p.activities.InsertActivity(ctx, activity); err != nil {
		return err
	}
	if err := writer.Add(ctx, track.Points(id)...); err != nil {
		return err
	}

	summary.Activities++
	observability.FilesParsed.Inc()
	flog.Debug("ingested activity", "activity_id", id, "samples", len(track.Samples))
	return nil
}

func (p *Pipeline) skip(log *logger.Logger, summary *Summary, f dataset.ActivityFile, outcome parser.Outcome) {
	summary.Skipped = append(summary.Skipped, Skipped{
		Key:    f.Key,
		Path:   f.Path,
		Reason: outcome.Reason,
		Detail: outcome.Detail,
	})
	observability.FilesSkipped.WithLabelValues(outcome.Reason.String()).Inc()
	log.Warn("skipped trajectory file", "reason", outcome.Reason.String(), "detail", outcome.Detail)
}
