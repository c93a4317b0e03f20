// Package reconcile assigns transportation modes to persisted activities
// from the users' label files and independently verifies the result.
package reconcile

import (
	"sort"
	"time"

	"github.com/jengzang/geolife-tracks/internal/models"
)

type span struct {
	start, end int64
}

func spanOf(start, end time.Time) span {
	return span{start: start.UnixNano(), end: end.UnixNano()}
}

// Matcher finds the label interval whose start and end equal an
// activity's exactly. Intervals are stable-sorted by (start, end); when
// several share the same window the first one in file order wins.
type Matcher struct {
	intervals []models.LabelInterval
	index     map[span]int
}

// NewMatcher indexes intervals. The input slice is not modified.
func NewMatcher(intervals []models.LabelInterval) *Matcher {
	sorted := make([]models.LabelInterval, len(intervals))
	copy(sorted, intervals)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Start.Equal(sorted[j].Start) {
			return sorted[i].Start.Before(sorted[j].Start)
		}
		return sorted[i].End.Before(sorted[j].End)
	})

	index := make(map[span]int, len(sorted))
	for i, iv := range sorted {
		key := spanOf(iv.Start, iv.End)
		if _, ok := index[key]; !ok {
			index[key] = i
		}
	}
	return &Matcher{intervals: sorted, index: index}
}

// Match returns the mode of the interval covering exactly [start, end].
func (m *Matcher) Match(start, end time.Time) (string, bool) {
	i, ok := m.index[spanOf(start, end)]
	if !ok {
		return "", false
	}
	return m.intervals[i].Mode, true
}

// Intervals returns the indexed intervals in (start, end) order.
func (m *Matcher) Intervals() []models.LabelInterval {
	return m.intervals
}
