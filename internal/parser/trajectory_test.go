package parser_test

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/geolife-tracks/internal/parser"
)

const pltHeader = "Geolife trajectory\nWGS 84\nAltitude is in Feet\nReserved 3\n0,2,255,My Track,0,0,2,8421376\n0\n"

func pltLine(ts time.Time, alt int) string {
	return fmt.Sprintf("39.984702,116.318417,0,%d,39744.1201851852,%s,%s",
		alt, ts.Format("2006-01-02"), ts.Format("15:04:05"))
}

func plt(lines ...string) string {
	return pltHeader + strings.Join(lines, "\n") + "\n"
}

func nLines(n int) []string {
	base := time.Date(2008, 10, 23, 2, 53, 4, 0, time.UTC)
	lines := make([]string, n)
	for i := range lines {
		lines[i] = pltLine(base.Add(time.Duration(i)*5*time.Second), 492)
	}
	return lines
}

func TestParseTrajectory_Valid(t *testing.T) {
	src := plt(
		"39.984702,116.318417,0,492,39744.1201851852,2008-10-23,02:53:04",
		"39.984683,116.31845,0,492.7,39744.1202546296,2008-10-23,02:53:10",
		"39.984686,116.318417,0,-777,39744.1203125,2008-10-23,02:53:15",
	)

	track, outcome := parser.ParseTrajectory(strings.NewReader(src))

	require.True(t, outcome.OK(), outcome.String())
	require.Len(t, track.Samples, 3)
	assert.Equal(t, time.Date(2008, 10, 23, 2, 53, 4, 0, time.UTC), track.Start)
	assert.Equal(t, time.Date(2008, 10, 23, 2, 53, 15, 0, time.UTC), track.End)
	assert.Equal(t, 39.984702, track.Samples[0].Latitude)
	assert.Equal(t, 116.318417, track.Samples[0].Longitude)
	assert.Equal(t, 492, track.Samples[1].Altitude, "altitude is truncated")
	assert.Equal(t, -777, track.Samples[2].Altitude)
	assert.InDelta(t, 39744.1201851852, track.Samples[0].DateDays, 1e-9)
	assert.Equal(t, 3, track.DataLines)
	assert.Empty(t, track.Issues)
}

func TestParseTrajectory_SkipsMalformedLines(t *testing.T) {
	src := plt(
		"39.984702,116.318417,0,492,39744.12,2008-10-23,02:53:04",
		"39.98,116.31,0,492",                                 // too few fields
		"39.98,116.31,0,492,39744.12,2008-10-23,25:99:00",    // bad time
		"abc,116.31,0,492,39744.12,2008-10-23,02:53:20",      // bad latitude
		"",                                                   // blank
		"39.984683,116.31845,0,492,39744.12,2008-10-23,02:53:30",
	)

	track, outcome := parser.ParseTrajectory(strings.NewReader(src))

	require.True(t, outcome.OK())
	require.Len(t, track.Samples, 2)
	assert.Equal(t, time.Date(2008, 10, 23, 2, 53, 30, 0, time.UTC), track.End)
	require.Len(t, track.Issues, 4)
	assert.Equal(t, 8, track.Issues[0].Line, "line numbers count the header")
	assert.Equal(t, 6, track.DataLines)
}

func TestParseTrajectory_StartEndFollowFileOrder(t *testing.T) {
	src := plt(
		"39.98,116.31,0,492,39744.12,2008-10-23,05:00:00",
		"39.98,116.31,0,492,39744.12,2008-10-23,03:00:00",
		"39.98,116.31,0,492,39744.12,2008-10-23,04:00:00",
	)

	track, outcome := parser.ParseTrajectory(strings.NewReader(src))

	require.True(t, outcome.OK())
	assert.Equal(t, 5, track.Start.Hour())
	assert.Equal(t, 4, track.End.Hour())
	assert.Equal(t, []int{5, 3, 4}, []int{
		track.Samples[0].Time.Hour(), track.Samples[1].Time.Hour(), track.Samples[2].Time.Hour(),
	}, "samples are not re-sorted")
}

func TestParseTrajectory_SizeCapBoundary(t *testing.T) {
	t.Run("exactly the cap is accepted", func(t *testing.T) {
		track, outcome := parser.ParseTrajectory(strings.NewReader(plt(nLines(parser.MaxDataLines)...)))

		require.True(t, outcome.OK())
		assert.Len(t, track.Samples, parser.MaxDataLines)
	})

	t.Run("one over the cap is rejected", func(t *testing.T) {
		track, outcome := parser.ParseTrajectory(strings.NewReader(plt(nLines(parser.MaxDataLines+1)...)))

		assert.Nil(t, track)
		assert.Equal(t, parser.ReasonOversize, outcome.Reason)
	})

	t.Run("malformed lines count toward the cap", func(t *testing.T) {
		lines := append(nLines(parser.MaxDataLines), "garbage")
		_, outcome := parser.ParseTrajectory(strings.NewReader(plt(lines...)))

		assert.Equal(t, parser.ReasonOversize, outcome.Reason)
	})
}

func TestTrajectoryParser_CustomCap(t *testing.T) {
	p := parser.NewTrajectoryParser(3)

	_, outcome := p.Parse(strings.NewReader(plt(nLines(4)...)))
	assert.Equal(t, parser.ReasonOversize, outcome.Reason)

	_, outcome = p.Parse(strings.NewReader(plt(nLines(3)...)))
	assert.True(t, outcome.OK())
}

func TestParseTrajectory_NoData(t *testing.T) {
	cases := map[string]string{
		"header only":       pltHeader,
		"short file":        "Geolife trajectory\nWGS 84\n",
		"only invalid rows": plt("x,y", "1,2,3,4,5,6,not-a-time"),
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			track, outcome := parser.ParseTrajectory(strings.NewReader(src))

			assert.Nil(t, track)
			assert.Equal(t, parser.ReasonNoData, outcome.Reason)
		})
	}
}

func TestParseTrajectory_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "20081023025304.plt")
	require.NoError(t, os.WriteFile(path, []byte(plt(nLines(50)...)), 0o644))
	p := parser.NewTrajectoryParser(parser.MaxDataLines)

	first, o1 := p.ParseFile(path)
	second, o2 := p.ParseFile(path)

	require.True(t, o1.OK())
	require.True(t, o2.OK())
	assert.Equal(t, first.Samples, second.Samples)
	assert.Equal(t, first.Start, second.Start)
	assert.Equal(t, first.End, second.End)
}

func TestTrajectoryParser_ParseFileMissing(t *testing.T) {
	_, outcome := parser.NewTrajectoryParser(0).ParseFile(filepath.Join(t.TempDir(), "missing.plt"))
	assert.Equal(t, parser.ReasonUnreadable, outcome.Reason)

	_, outcome = parser.ParseTrajectoryFile(filepath.Join(t.TempDir(), "missing.plt"))
	assert.Equal(t, parser.ReasonUnreadable, outcome.Reason)
}

func TestTrack_PointsKeepOrder(t *testing.T) {
	track, outcome := parser.ParseTrajectory(strings.NewReader(plt(nLines(10)...)))
	require.True(t, outcome.OK())

	points := track.Points(1420081023025304)

	require.Len(t, points, 10)
	for i := range points {
		assert.Equal(t, int64(1420081023025304), points[i].ActivityID)
		assert.Equal(t, track.Samples[i].Time, points[i].DateTime)
	}
}

func TestParseTrajectory_OverlongLineIsDropped(t *testing.T) {
	src := plt(
		"39.984702,116.318417,0,492,39744.12,2008-10-23,02:53:04",
		strings.Repeat("9", parser.MaxLineBytes+10),
		"39.984683,116.31845,0,492,39744.12,2008-10-23,02:53:30",
	)

	track, outcome := parser.ParseTrajectory(strings.NewReader(src))

	require.True(t, outcome.OK(), outcome.String())
	require.Len(t, track.Samples, 2)
	require.Len(t, track.Issues, 1)
	assert.Equal(t, 8, track.Issues[0].Line)
	assert.Equal(t, 3, track.DataLines)
	assert.Equal(t, time.Date(2008, 10, 23, 2, 53, 30, 0, time.UTC), track.End)
}

func TestParseTrajectory_UnpaddedTimestamp(t *testing.T) {
	src := plt("39.984702,116.318417,0,492,39744.12,2008-10-3,2:53:04")

	track, outcome := parser.ParseTrajectory(strings.NewReader(src))

	require.True(t, outcome.OK(), outcome.String())
	assert.Equal(t, time.Date(2008, 10, 3, 2, 53, 4, 0, time.UTC), track.Start)
}
