package series

import (
	"errors"
	"fmt"

	"github.com/kabuist001/stock-pattern-matcher/pkg/model"
)

var (
	// ErrEmptySeries is returned when a series is constructed with no bars
	ErrEmptySeries = errors.New("series: no bars")
	// ErrUnordered is returned when timestamps are not strictly increasing
	ErrUnordered = errors.New("series: timestamps must be strictly increasing")
	// ErrOutOfRange is returned when an index falls outside the series
	ErrOutOfRange = errors.New("series: index out of range")
)

// Series is an immutable, time-ordered table of OHLC(V) bars with integer
// positional access. It owns its bars for the duration of a matching session;
// callers must not mutate slices handed out by Slice.
type Series struct {
	bars []model.Bar
}

// New validates and wraps a bar slice into a Series. Timestamps must be
// strictly increasing; duplicates are rejected. The slice is copied so later
// mutation by the caller cannot reach the store.
func New(bars []model.Bar) (*Series, error) {
	if len(bars) == 0 {
		return nil, ErrEmptySeries
	}
	for i := 1; i < len(bars); i++ {
		if !bars[i].Timestamp.After(bars[i-1].Timestamp) {
			return nil, fmt.Errorf("%w: position %d (%s) does not advance past %s",
				ErrUnordered, i, bars[i].Timestamp, bars[i-1].Timestamp)
		}
	}
	owned := make([]model.Bar, len(bars))
	copy(owned, bars)
	return &Series{bars: owned}, nil
}

// Len returns the number of bars in the series
func (s *Series) Len() int {
	return len(s.bars)
}

// Bar returns the bar at position i. Panics if i is out of range, matching
// slice semantics; use Resolve for checked access.
func (s *Series) Bar(i int) model.Bar {
	return s.bars[i]
}

// Slice returns the bars at positions [start, end] inclusive as a view into
// the series. The result must be treated as read-only.
func (s *Series) Slice(start, end int) []model.Bar {
	return s.bars[start : end+1]
}

// Resolve converts an index that may be negative (counted from the end,
// Python style: -1 is the last bar) into an absolute position.
func (s *Series) Resolve(i int) (int, error) {
	pos := i
	if pos < 0 {
		pos = len(s.bars) + pos
	}
	if pos < 0 || pos >= len(s.bars) {
		return 0, fmt.Errorf("%w: %d (len %d)", ErrOutOfRange, i, len(s.bars))
	}
	return pos, nil
}
