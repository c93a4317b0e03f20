package ingest_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/geolife-tracks/internal/dataset"
	"github.com/jengzang/geolife-tracks/internal/ingest"
	"github.com/jengzang/geolife-tracks/internal/models"
	"github.com/jengzang/geolife-tracks/internal/parser"
	"github.com/jengzang/geolife-tracks/internal/pkg/logger"
	"github.com/jengzang/geolife-tracks/internal/repository"
	"github.com/jengzang/geolife-tracks/internal/testutil"
)

var t0 = time.Date(2008, 10, 23, 2, 53, 4, 0, time.UTC)

type store struct {
	users  *repository.UserRepository
	acts   *repository.ActivityRepository
	tracks *repository.TrackRepository
	counts func() models.DatasetCounts
}

func newStore(t *testing.T) store {
	t.Helper()
	db := testutil.NewDB(t)
	reports := repository.NewReportRepository(db)
	return store{
		users:  repository.NewUserRepository(db),
		acts:   repository.NewActivityRepository(db),
		tracks: repository.NewTrackRepository(db),
		counts: func() models.DatasetCounts {
			c, err := reports.Counts(context.Background())
			require.NoError(t, err)
			return *c
		},
	}
}

func (s store) pipeline(ds *testutil.Dataset, opts ingest.Options) *ingest.Pipeline {
	layout := dataset.NewLayout(ds.Root, "", "")
	return ingest.NewPipeline(layout, s.users, s.acts, s.tracks, opts, logger.Nop())
}

func TestPipeline_IngestsDataset(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	ds := testutil.NewDataset(t).
		Manifest("010").
		Trajectory("010", "20081023025304", testutil.PLT(testutil.Series(t0, 5*time.Second, 7)...)).
		Trajectory("010", "20081024000000", testutil.PLT(testutil.Series(t0.Add(24*time.Hour), time.Second, 3)...)).
		Trajectory("020", "20090101000000", testutil.PLT(testutil.Series(t0.AddDate(1, 0, 0), time.Minute, 2)...)).
		User("030")

	summary, err := s.pipeline(ds, ingest.Options{BatchSize: 5}).Run(ctx)
	require.NoError(t, err)

	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, 3, summary.Users)
	assert.Equal(t, 1, summary.LabeledUsers)
	assert.Equal(t, 3, summary.Files)
	assert.Equal(t, 3, summary.Activities)
	assert.Equal(t, int64(12), summary.Points)
	assert.Equal(t, 3, summary.Batches) // 5 + 5 + final 2
	assert.Empty(t, summary.Skipped)

	assert.Equal(t, models.DatasetCounts{Users: 3, Activities: 3, TrackPoints: 12}, s.counts())

	labeled, err := s.users.ListLabeledUserIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"010"}, labeled)

	acts, err := s.acts.ListActivities(ctx, "010")
	require.NoError(t, err)
	require.Len(t, acts, 2)
	assert.Equal(t, int64(1020081023025304), acts[0].ID)
	assert.Equal(t, "20081023025304", acts[0].FileStem)
	assert.Equal(t, t0, acts[0].Start)
	assert.Equal(t, t0.Add(30*time.Second), acts[0].End)

	points, err := s.tracks.ListTrackPoints(ctx, 1020081023025304)
	require.NoError(t, err)
	require.Len(t, points, 7)
	for i, p := range points {
		assert.Equal(t, t0.Add(time.Duration(i)*5*time.Second), p.DateTime)
		assert.Equal(t, 100+i, p.Altitude)
	}
}

func TestPipeline_SkipsBadFiles(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	ds := testutil.NewDataset(t).
		Manifest().
		Trajectory("010", "1", testutil.PLT(testutil.Series(t0, time.Second, 2501)...)).
		Trajectory("010", "2", testutil.PLT(testutil.Series(t0, time.Second, 2499)...)+"bad,line\n").
		Trajectory("010", "3", testutil.PLTHeader+"garbage\n").
		Trajectory("010", "notes", testutil.PLT(testutil.Series(t0, time.Second, 1)...))

	summary, err := s.pipeline(ds, ingest.Options{}).Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Activities)
	assert.Equal(t, int64(2499), summary.Points)
	assert.Equal(t, 1, summary.SkippedBy(parser.ReasonOversize))
	assert.Equal(t, 1, summary.SkippedBy(parser.ReasonNoData))
	assert.Equal(t, 1, summary.SkippedBy(parser.ReasonInvalidID))
	assert.Equal(t, 1, summary.LinesDropped)

	acts, err := s.acts.ListActivities(ctx, "010")
	require.NoError(t, err)
	require.Len(t, acts, 1)
	assert.Equal(t, int64(102), acts[0].ID)
}

func TestPipeline_IDCollisionFirstInWalkOrderWins(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	ds := testutil.NewDataset(t).
		Manifest().
		Trajectory("1", "23", testutil.PLT(testutil.Series(t0, time.Second, 2)...)).
		Trajectory("12", "3", testutil.PLT(testutil.Series(t0, time.Second, 4)...))

	summary, err := s.pipeline(ds, ingest.Options{}).Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Activities)
	require.Len(t, summary.Skipped, 1)
	assert.Equal(t, parser.ReasonIDCollision, summary.Skipped[0].Reason)
	assert.Equal(t, dataset.Key{UserID: "12", Stem: "3"}, summary.Skipped[0].Key)

	got, err := s.acts.GetActivity(ctx, 123)
	require.NoError(t, err)
	assert.Equal(t, "1", got.UserID)
	assert.Equal(t, int64(2), summary.Points)
}

func TestPipeline_ConsumesInWalkOrder(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	ds := testutil.NewDataset(t).Manifest()
	for i := 0; i < 30; i++ {
		ds.Trajectory("010", fmt.Sprintf("%03d", i), testutil.PLT(testutil.Series(t0, time.Second, 1+i%4)...))
	}

	summary, err := s.pipeline(ds, ingest.Options{Workers: 3, BatchSize: 7}).Run(ctx)
	require.NoError(t, err)
	require.Equal(t, 30, summary.Activities)

	var lastID int64
	for i := 0; i < 30; i++ {
		points, err := s.tracks.ListTrackPoints(ctx, 10000+int64(i))
		require.NoError(t, err)
		require.Len(t, points, 1+i%4)
		assert.Greater(t, points[0].ID, lastID, "activity %d", i)
		lastID = points[len(points)-1].ID
	}
}

func TestPipeline_MissingManifestIsFatal(t *testing.T) {
	s := newStore(t)
	ds := testutil.NewDataset(t).Trajectory("010", "1", testutil.PLT(testutil.Series(t0, time.Second, 1)...))

	_, err := s.pipeline(ds, ingest.Options{}).Run(context.Background())

	require.ErrorIs(t, err, models.ErrManifestMissing)
	assert.Equal(t, models.DatasetCounts{}, s.counts())
}

type failingInserter struct{ err error }

func (f failingInserter) InsertTrackPoints(context.Context, []models.TrackPoint) error { return f.err }

func TestPipeline_StorageFailureAborts(t *testing.T) {
	s := newStore(t)
	boom := errors.New("disk full")
	ds := testutil.NewDataset(t).
		Manifest().
		Trajectory("010", "1", testutil.PLT(testutil.Series(t0, time.Second, 3)...))
	layout := dataset.NewLayout(ds.Root, "", "")
	p := ingest.NewPipeline(layout, s.users, s.acts, failingInserter{err: boom}, ingest.Options{}, logger.Nop())

	_, err := p.Run(context.Background())

	require.ErrorIs(t, err, boom)
	assert.Zero(t, s.counts().TrackPoints)
}
