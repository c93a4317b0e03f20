package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/jengzang/geolife-tracks/internal/models"
	"github.com/jengzang/geolife-tracks/internal/observability"
	"github.com/jengzang/geolife-tracks/internal/pkg/logger"
)

// DefaultBatchSize is the number of track points per bulk insert.
const DefaultBatchSize = 1000

// TrackPointInserter stores one batch of track points atomically.
type TrackPointInserter interface {
	InsertTrackPoints(ctx context.Context, points []models.TrackPoint) error
}

// BatchStats counts what a BatchWriter has stored so far.
type BatchStats struct {
	Batches int
	Points  int64
}

// BatchWriter accumulates track points and stores them in fixed-size bulk
// inserts. Points are stored in the order they were added.
// A BatchWriter is not safe for concurrent use.
type BatchWriter struct {
	store   TrackPointInserter
	size    int
	pending []models.TrackPoint
	stats   BatchStats
	log     *logger.Logger
}

// NewBatchWriter creates a writer flushing every size points;
// a non-positive size falls back to DefaultBatchSize.
func NewBatchWriter(store TrackPointInserter, size int, log *logger.Logger) *BatchWriter {
	if size <= 0 {
		size = DefaultBatchSize
	}
	return &BatchWriter{
		store:   store,
		size:    size,
		pending: make([]models.TrackPoint, 0, size),
		log:     log,
	}
}

// Add appends points, issuing one bulk insert each time the accumulator
// reaches the batch size. A returned error is fatal for the run.
func (w *BatchWriter) Add(ctx context.Context, points ...models.TrackPoint) error {
	for len(points) > 0 {
		n := w.size - len(w.pending)
		if n > len(points) {
			n = len(points)
		}
		w.pending = append(w.pending, points[:n]...)
		points = points[n:]

		if len(w.pending) == w.size {
			if err := w.Flush(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

// Flush stores the pending points, if any. On failure the points stay
// pending; call Discard to drop them.
func (w *BatchWriter) Flush(ctx context.Context) error {
	if len(w.pending) == 0 {
		return nil
	}

	start := time.Now()
	if err := w.store.InsertTrackPoints(ctx, w.pending); err != nil {
		return fmt.Errorf("failed to flush %d track points: %w", len(w.pending), err)
	}
	observability.FlushDuration.Observe(time.Since(start).Seconds())
	observability.BatchesFlushed.Inc()
	observability.PointsInserted.Add(float64(len(w.pending)))

	w.stats.Batches++
	w.stats.Points += int64(len(w.pending))
	w.log.Debug("flushed track points", "batch", w.stats.Batches, "points", len(w.pending))

	w.pending = w.pending[:0]
	return nil
}

// Discard drops the pending points and returns how many were dropped.
func (w *BatchWriter) Discard() int {
	n := len(w.pending)
	w.pending = w.pending[:0]
	if n > 0 {
		w.log.Warn("discarded pending track points", "points", n)
	}
	return n
}

// Pending returns the number of points not yet stored.
func (w *BatchWriter) Pending() int {
	return len(w.pending)
}

// Stats returns the number of batches and points stored so far.
func (w *BatchWriter) Stats() BatchStats {
	return w.stats
}
