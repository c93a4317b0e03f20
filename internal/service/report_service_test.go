package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/geolife-tracks/internal/models"
	"github.com/jengzang/geolife-tracks/internal/repository"
	"github.com/jengzang/geolife-tracks/internal/testutil"
)

func alts(values ...int) []models.TrackPoint {
	points := make([]models.TrackPoint, len(values))
	for i, v := range values {
		points[i] = models.TrackPoint{Altitude: v}
	}
	return points
}

func TestAltitudeGainFeet(t *testing.T) {
	assert.Zero(t, AltitudeGainFeet(nil))
	assert.Zero(t, AltitudeGainFeet(alts(100)))
	assert.Equal(t, int64(30), AltitudeGainFeet(alts(100, 110, 105, 125)))
}

func TestAltitudeGainFeet_ExcludesUnknownAltitude(t *testing.T) {
	// Without the sentinel check -777 -> 100 would add 877 feet.
	points := alts(100, models.AltitudeUnknown, 100, 150)

	assert.Equal(t, int64(50), AltitudeGainFeet(points))
	assert.Zero(t, AltitudeGainFeet(alts(models.AltitudeUnknown, 5000)))
}

func TestHasGap(t *testing.T) {
	base := time.Date(2008, 1, 1, 0, 0, 0, 0, time.UTC)
	at := func(offsets ...time.Duration) []models.TrackPoint {
		points := make([]models.TrackPoint, len(offsets))
		for i, o := range offsets {
			points[i] = models.TrackPoint{DateTime: base.Add(o)}
		}
		return points
	}

	assert.False(t, HasGap(at(0, time.Minute, 5*time.Minute), InvalidGap))
	assert.True(t, HasGap(at(0, 5*time.Minute), InvalidGap))
	assert.False(t, HasGap(at(0), InvalidGap))
}

func TestCompareYears(t *testing.T) {
	cmp := CompareYears([]models.YearActivity{
		{Year: 2008, Activities: 10, Hours: 50},
		{Year: 2009, Activities: 7, Hours: 80},
	})
	assert.Equal(t, 2008, cmp.MostActivities.Year)
	assert.Equal(t, 2009, cmp.MostHours.Year)
	assert.False(t, cmp.SameYear)

	same := CompareYears([]models.YearActivity{{Year: 2010, Activities: 1, Hours: 1}})
	assert.True(t, same.SameYear)

	assert.False(t, CompareYears(nil).SameYear)
}

func TestMostUsed_TiesBreakAlphabetically(t *testing.T) {
	got := MostUsed([]models.UserMode{
		{UserID: "020", Mode: "walk", Count: 3},
		{UserID: "010", Mode: "walk", Count: 2},
		{UserID: "010", Mode: "bus", Count: 2},
		{UserID: "010", Mode: "bike", Count: 1},
		{UserID: "020", Mode: "taxi", Count: 4},
	})

	assert.Equal(t, []models.UserMode{
		{UserID: "010", Mode: "bus", Count: 2},
		{UserID: "020", Mode: "taxi", Count: 4},
	}, got)
}

func TestTopN(t *testing.T) {
	counts := []models.UserCount{{UserID: "b", Count: 1}, {UserID: "a", Count: 1}, {UserID: "c", Count: 9}}

	assert.Equal(t, []models.UserCount{{UserID: "c", Count: 9}, {UserID: "a", Count: 1}}, topN(counts, 2))
	assert.Len(t, topN(counts, 0), 3)
}

func newReportService(t *testing.T) (*ReportService, *repository.ActivityRepository, *repository.TrackRepository) {
	t.Helper()
	ctx := context.Background()
	db := testutil.NewDB(t)
	users := repository.NewUserRepository(db)
	acts := repository.NewActivityRepository(db)
	tracks := repository.NewTrackRepository(db)
	require.NoError(t, users.InsertUser(ctx, models.User{ID: "010", HasLabels: true}))
	require.NoError(t, users.InsertUser(ctx, models.User{ID: "112", HasLabels: true}))
	return NewReportService(repository.NewReportRepository(db), users, acts), acts, tracks
}

func addActivity(t *testing.T, acts *repository.ActivityRepository, tracks *repository.TrackRepository, id int64, user, mode string, points ...models.TrackPoint) {
	t.Helper()
	ctx := context.Background()
	for i := range points {
		points[i].ActivityID = id
	}
	require.NoError(t, acts.InsertActivity(ctx, models.Activity{
		ID: id, UserID: user, FileStem: fmt.Sprint(id),
		Start: points[0].DateTime, End: points[len(points)-1].DateTime,
	}))
	if mode != "" {
		require.NoError(t, acts.UpdateActivityMode(ctx, id, mode))
	}
	require.NoError(t, tracks.InsertTrackPoints(ctx, points))
}

func pt(lat, lon float64, alt int, at time.Time) models.TrackPoint {
	return models.TrackPoint{Latitude: lat, Longitude: lon, Altitude: alt, DateTime: at}
}

func TestReportService_DistanceDoesNotBridgeActivities(t *testing.T) {
	ctx := context.Background()
	svc, acts, tracks := newReportService(t)
	d := time.Date(2008, 5, 1, 8, 0, 0, 0, time.UTC)

	addActivity(t, acts, tracks, 1, "112", "walk", pt(39.0, 116.0, 0, d), pt(39.01, 116.0, 0, d.Add(time.Minute)))
	addActivity(t, acts, tracks, 2, "112", "walk", pt(40.0, 116.0, 0, d.Add(time.Hour)), pt(40.01, 116.0, 0, d.Add(time.Hour+time.Minute)))
	addActivity(t, acts, tracks, 3, "112", "bus", pt(41.0, 116.0, 0, d), pt(42.0, 116.0, 0, d.Add(time.Hour)))

	report, err := svc.Distance(ctx, "112", 2008, "walk")
	require.NoError(t, err)

	assert.Equal(t, 2, report.Activities)
	assert.InDelta(t, 2*1.112, report.Kilometers, 0.01)
}

func TestReportService_TopAltitudeGain(t *testing.T) {
	ctx := context.Background()
	svc, acts, tracks := newReportService(t)
	d := time.Date(2008, 5, 1, 8, 0, 0, 0, time.UTC)

	addActivity(t, acts, tracks, 1, "010", "",
		pt(39, 116, models.AltitudeUnknown, d), pt(39, 116, 1000, d.Add(time.Second)), pt(39, 116, 1100, d.Add(2*time.Second)))
	addActivity(t, acts, tracks, 2, "112", "",
		pt(39, 116, 0, d), pt(39, 116, 50, d.Add(time.Second)))

	gains, err := svc.TopAltitudeGain(ctx, 1)
	require.NoError(t, err)

	require.Len(t, gains, 1)
	assert.Equal(t, "010", gains[0].UserID)
	assert.Equal(t, int64(100), gains[0].Feet)
	assert.InDelta(t, 30.48, gains[0].Meters, 1e-9)
}

func TestReportService_InvalidActivitiesAndGeofence(t *testing.T) {
	ctx := context.Background()
	svc, acts, tracks := newReportService(t)
	d := time.Date(2008, 5, 1, 8, 0, 0, 0, time.UTC)

	addActivity(t, acts, tracks, 1, "010", "", pt(39.916, 116.397, 0, d), pt(39.9, 116.3, 0, d.Add(6*time.Minute)))
	addActivity(t, acts, tracks, 2, "112", "", pt(30, 110, 0, d), pt(30, 110, 0, d.Add(time.Minute)))

	invalid, err := svc.InvalidActivities(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.UserCount{{UserID: "010", Count: 1}}, invalid)

	near, err := svc.UsersNear(ctx, 39.916, 116.397, 0)
	require.NoError(t, err)
	assert.Equal(t, []models.UserCount{{UserID: "010", Count: 1}}, near)

	avg, err := svc.AverageActivitiesPerUser(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, avg, 1e-9)

	dump, err := svc.Tables(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), dump.Counts.Activities)
	assert.Len(t, dump.Users, 1)
	assert.Len(t, dump.Activities, 1)
}

func TestReportService_InvalidActivitiesMostFirst(t *testing.T) {
	ctx := context.Background()
	svc, acts, tracks := newReportService(t)
	d := time.Date(2008, 5, 1, 8, 0, 0, 0, time.UTC)
	gap := 5 * time.Minute

	addActivity(t, acts, tracks, 1, "010", "", pt(39, 116, 0, d), pt(39, 116, 0, d.Add(gap)))
	addActivity(t, acts, tracks, 2, "112", "", pt(39, 116, 0, d), pt(39, 116, 0, d.Add(gap)))
	addActivity(t, acts, tracks, 3, "112", "", pt(39, 116, 0, d), pt(39, 116, 0, d.Add(time.Hour)))
	addActivity(t, acts, tracks, 4, "112", "", pt(39, 116, 0, d), pt(39, 116, 0, d.Add(time.Minute)))

	invalid, err := svc.InvalidActivities(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.UserCount{{UserID: "112", Count: 2}, {UserID: "010", Count: 1}}, invalid)
}

func TestReportService_RunByName(t *testing.T) {
	ctx := context.Background()
	svc, acts, tracks := newReportService(t)
	d := time.Date(2008, 5, 1, 8, 0, 0, 0, time.UTC)
	addActivity(t, acts, tracks, 1, "112", "walk", pt(39.0, 116.0, 0, d), pt(39.01, 116.0, 0, d.Add(time.Minute)))

	for _, name := range ReportNames {
		_, err := svc.Run(ctx, name, ReportParams{})
		assert.NoError(t, err, name)
	}

	got, err := svc.Run(ctx, "distance", ReportParams{})
	require.NoError(t, err)
	report := got.(*models.DistanceReport)
	assert.Equal(t, "walk", report.Mode)
	assert.Equal(t, 1, report.Activities)

	_, err = svc.Run(ctx, "nope", ReportParams{})
	assert.ErrorIs(t, err, ErrUnknownReport)
}
