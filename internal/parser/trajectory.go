package parser

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jengzang/geolife-tracks/internal/models"
)

const (
	// HeaderLines is the fixed PLT header length.
	HeaderLines = 6
	// MaxDataLines is the largest accepted number of lines after the header.
	MaxDataLines = 2500
	// MinFields is the field count of a well-formed PLT line.
	MinFields = 7
	// TrajectoryTimeLayout is the date + time layout of PLT fields 5 and 6.
	// Zero-padded and unpadded fields (2008-10-3 2:53:04) both parse.
	TrajectoryTimeLayout = "2006-1-2 15:4:5"
)

// Sample is one decoded PLT line
type Sample struct {
	Latitude  float64
	Longitude float64
	Altitude  int
	DateDays  float64
	Time      time.Time
}

// Track is the decoded content of one trajectory file.
// Start and End come from the first and last valid line in file order.
type Track struct {
	Start     time.Time
	End       time.Time
	Samples   []Sample
	Issues    []LineIssue
	DataLines int
}

// Points converts the samples to track point rows of the given activity,
// keeping their order.
func (t *Track) Points(activityID int64) []models.TrackPoint {
	points := make([]models.TrackPoint, len(t.Samples))
	for i, s := range t.Samples {
		points[i] = models.TrackPoint{
			ActivityID: activityID,
			Latitude:   s.Latitude,
			Longitude:  s.Longitude,
			Altitude:   s.Altitude,
			DateDays:   s.DateDays,
			DateTime:   s.Time,
		}
	}
	return points
}

// TrajectoryParser decodes PLT files
type TrajectoryParser struct {
	MaxDataLines int
}

// NewTrajectoryParser creates a parser with the given size cap;
// a non-positive cap falls back to MaxDataLines.
func NewTrajectoryParser(maxDataLines int) *TrajectoryParser {
	if maxDataLines <= 0 {
		maxDataLines = MaxDataLines
	}
	return &TrajectoryParser{MaxDataLines: maxDataLines}
}

// ParseTrajectory decodes r with the default size cap.
func ParseTrajectory(r io.Reader) (*Track, Outcome) {
	return NewTrajectoryParser(MaxDataLines).Parse(r)
}

// ParseTrajectoryFile decodes the file at path with the default size cap.
func ParseTrajectoryFile(path string) (*Track, Outcome) {
	return NewTrajectoryParser(MaxDataLines).ParseFile(path)
}

// ParseFile opens and decodes the file at path.
func (p *TrajectoryParser) ParseFile(path string) (*Track, Outcome) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Skip(ReasonUnreadable, "%v", err)
	}
	defer f.Close()
	return p.Parse(f)
}

// Parse decodes one PLT stream. Files with more than MaxDataLines lines
// after the header are rejected whole; reading stops at the first line
// over the cap. Lines longer than MaxLineBytes count as malformed.
func (p *TrajectoryParser) Parse(r io.Reader) (*Track, Outcome) {
	lines := newLineReader(r, MaxLineBytes)

	track := &Track{}
	lineNum := 0
	for {
		line, tooLong, err := lines.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, Skip(ReasonUnreadable, "read failed at line %d: %v", lineNum+1, err)
		}
		lineNum++
		if lineNum <= HeaderLines {
			continue
		}

		track.DataLines++
		if track.DataLines > p.MaxDataLines {
			return nil, Skip(ReasonOversize, "more than %d data lines", p.MaxDataLines)
		}

		if tooLong {
			track.Issues = append(track.Issues, LineIssue{Line: lineNum, Reason: fmt.Sprintf("line exceeds %d bytes", MaxLineBytes)})
			continue
		}
		sample, err := parseTrajectoryLine(line)
		if err != nil {
			track.Issues = append(track.Issues, LineIssue{Line: lineNum, Reason: err.Error()})
			continue
		}

		if len(track.Samples) == 0 {
			track.Start = sample.Time
		}
		track.End = sample.Time
		track.Samples = append(track.Samples, sample)
	}

	if len(track.Samples) == 0 {
		return nil, Skip(ReasonNoData, "no valid samples in %d data lines", track.DataLines)
	}
	return track, Outcome{}
}

func parseTrajectoryLine(line string) (Sample, error) {
	parts := strings.Split(strings.TrimSpace(line), ",")
	if len(parts) < MinFields {
		return Sample{}, fmt.Errorf("expected at least %d fields, got %d", MinFields, len(parts))
	}

	lat, err := parseFinite(parts[0])
	if err != nil {
		return Sample{}, fmt.Errorf("invalid latitude: %w", err)
	}
	lon, err := parseFinite(parts[1])
	if err != nil {
		return Sample{}, fmt.Errorf("invalid longitude: %w", err)
	}
	alt, err := parseFinite(parts[3])
	if err != nil {
		return Sample{}, fmt.Errorf("invalid altitude: %w", err)
	}
	days, err := parseFinite(parts[4])
	if err != nil {
		return Sample{}, fmt.Errorf("invalid date days: %w", err)
	}

	stamp := strings.TrimSpace(parts[5]) + " " + strings.TrimSpace(parts[6])
	ts, err := time.ParseInLocation(TrajectoryTimeLayout, stamp, time.UTC)
	if err != nil {
		return Sample{}, fmt.Errorf("invalid timestamp %q: %w", stamp, err)
	}

	return Sample{
		Latitude:  lat,
		Longitude: lon,
		Altitude:  int(alt), // truncates toward zero
		DateDays:  days,
		Time:      ts,
	}, nil
}

func parseFinite(field string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite value %q", field)
	}
	return v, nil
}
