package dataset

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/jengzang/geolife-tracks/internal/models"
	"github.com/jengzang/geolife-tracks/internal/parser"
)

// LabelLoader reads per-user label files from a dataset
type LabelLoader struct {
	layout Layout
}

func NewLabelLoader(layout Layout) *LabelLoader {
	return &LabelLoader{layout: layout}
}

// Load returns the label intervals of userID in file order and the number
// of dropped lines. A missing file wraps models.ErrLabelsMissing.
func (l *LabelLoader) Load(userID string) ([]models.LabelInterval, int, error) {
	path := l.layout.LabelPath(userID)
	intervals, dropped, err := parser.ParseLabelFile(path, userID)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, 0, fmt.Errorf("%w: %s", models.ErrLabelsMissing, path)
	}
	if err != nil {
		return nil, dropped, fmt.Errorf("failed to load labels of user %s: %w", userID, err)
	}
	return intervals, dropped, nil
}
