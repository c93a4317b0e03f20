package parser

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jengzang/geolife-tracks/internal/models"
)

// LabelTimeLayout is the timestamp layout of label files. It differs from
// TrajectoryTimeLayout only in the date separator.
// Unpadded fields parse as well.
const LabelTimeLayout = "2006/1/2 15:4:5"

// LabelFields is the exact field count of a label line.
const LabelFields = 3

// ParseLabels decodes a label file of userID. The header line is skipped and
// lines that are not exactly start<TAB>end<TAB>mode with valid timestamps are
// dropped, as are lines longer than MaxLineBytes. It returns the intervals
// in file order and the dropped line count.
func ParseLabels(r io.Reader, userID string) ([]models.LabelInterval, int, error) {
	lines := newLineReader(r, MaxLineBytes)

	var intervals []models.LabelInterval
	dropped := 0
	lineNum := 0
	for {
		line, tooLong, err := lines.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, dropped, fmt.Errorf("failed to read labels: %w", err)
		}
		lineNum++
		if lineNum == 1 {
			continue
		}

		if tooLong {
			dropped++
			continue
		}
		interval, ok := parseLabelLine(line)
		if !ok {
			dropped++
			continue
		}
		interval.UserID = userID
		intervals = append(intervals, interval)
	}
	return intervals, dropped, nil
}

// ParseLabelFile opens and decodes the label file at path.
func ParseLabelFile(path, userID string) ([]models.LabelInterval, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()
	return ParseLabels(f, userID)
}

func parseLabelLine(line string) (models.LabelInterval, bool) {
	parts := strings.Split(strings.TrimSpace(line), "\t")
	if len(parts) != LabelFields {
		return models.LabelInterval{}, false
	}

	start, err := time.ParseInLocation(LabelTimeLayout, strings.TrimSpace(parts[0]), time.UTC)
	if err != nil {
		return models.LabelInterval{}, false
	}
	end, err := time.ParseInLocation(LabelTimeLayout, strings.TrimSpace(parts[1]), time.UTC)
	if err != nil {
		return models.LabelInterval{}, false
	}

	return models.LabelInterval{
		Start: start,
		End:   end,
		Mode:  strings.TrimSpace(parts[2]),
	}, true
}
