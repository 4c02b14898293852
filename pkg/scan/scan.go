// Package scan slides over all valid historical window positions of a series,
// scores each candidate window against a target window, and collects the
// candidates that clear the similarity floor together with their forward bars.
package scan

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/kabuist001/stock-pattern-matcher/pkg/model"
	"github.com/kabuist001/stock-pattern-matcher/pkg/norm"
	"github.com/kabuist001/stock-pattern-matcher/pkg/series"
	"github.com/kabuist001/stock-pattern-matcher/pkg/similarity"
)

var (
	// ErrInvalidParameter is returned when scan parameters fail validation
	ErrInvalidParameter = errors.New("scan: invalid parameter")
	// ErrInvalidWindow is returned when the target window exceeds the series
	// bounds or contains missing values. Candidate windows with the same
	// defects are silently excluded instead.
	ErrInvalidWindow = errors.New("scan: invalid target window")
)

// Params holds one scan invocation's configuration. The zero value is not
// usable; start from DefaultParams and override fields as needed. Params is
// passed by value and never mutated by the scanner.
type Params struct {
	// TargetEnd is the end position of the target window. Negative values
	// count from the end of the series (-1 is the last bar).
	TargetEnd int
	// WindowSize is the number of bars per comparison window
	WindowSize int
	// Lookahead is the number of forward bars collected per match
	Lookahead int
	// TopN is the number of ranked matches the caller wants back
	TopN int
	// MinSimilarity is the similarity floor in [0, 1]
	MinSimilarity float64
	// Metric selects the similarity metric
	Metric similarity.Metric
	// Normalize selects the normalization strategy
	Normalize norm.Method
	// ExcludeRecent excludes candidate end positions within this many bars of
	// the target end. Despite the day-flavored name in older tooling this is
	// a bar count; for intraday data bars are not calendar days. 0 means
	// "use WindowSize", which already prevents self-overlap.
	ExcludeRecent int
	// Workers partitions the candidate sweep across this many goroutines.
	// Values below 2 keep the scan sequential. The result set is identical
	// for any worker count.
	Workers int
	// Positions optionally restricts the sweep to these candidate end
	// positions (for example the survivors of an approximate vector-index
	// pre-filter). Nil scans every valid position.
	Positions []int
}

// DefaultParams returns the documented defaults: a 10-bar window with a
// 10-bar lookahead, correlation metric over relative normalization, top 20
// matches at a 0.7 similarity floor, targeting the last bar of the series.
func DefaultParams() Params {
	return Params{
		TargetEnd:     -1,
		WindowSize:    10,
		Lookahead:     10,
		TopN:          20,
		MinSimilarity: 0.7,
		Metric:        similarity.Correlation,
		Normalize:     norm.Relative,
	}
}

// withDefaults fills derived defaults that depend on other fields
func (p Params) withDefaults() Params {
	if p.ExcludeRecent <= 0 {
		p.ExcludeRecent = p.WindowSize
	}
	if p.Workers < 1 {
		p.Workers = 1
	}
	return p
}

// Validate fails fast on unusable parameters before any scanning work begins
func (p Params) Validate() error {
	if p.WindowSize <= 0 {
		return fmt.Errorf("%w: window size %d must be positive", ErrInvalidParameter, p.WindowSize)
	}
	if p.Lookahead <= 0 {
		return fmt.Errorf("%w: lookahead %d must be positive", ErrInvalidParameter, p.Lookahead)
	}
	if p.TopN <= 0 {
		return fmt.Errorf("%w: top n %d must be positive", ErrInvalidParameter, p.TopN)
	}
	if p.MinSimilarity < 0 || p.MinSimilarity > 1 {
		return fmt.Errorf("%w: min similarity %v outside [0, 1]", ErrInvalidParameter, p.MinSimilarity)
	}
	if !p.Metric.Valid() {
		return fmt.Errorf("%w: %v", ErrInvalidParameter, similarity.ErrUnknownMetric)
	}
	if !p.Normalize.Valid() {
		return fmt.Errorf("%w: %v", ErrInvalidParameter, norm.ErrUnknownMethod)
	}
	return nil
}

// Scanner matches windows of one series against a target window.
// It only reads the series and is safe for concurrent use.
type Scanner struct {
	series *series.Series
}

// New creates a scanner over the given series
func New(s *series.Series) *Scanner {
	return &Scanner{series: s}
}

// Scan extracts the target window, sweeps every eligible candidate position,
// and returns the matches that cleared the similarity floor, in ascending
// position order, attached to a ResultSet carrying the target window.
//
// The result is unranked; feed it through rank.Rank to truncate to TopN.
// Per-candidate data issues (flat window, missing values) exclude only that
// candidate. A scan that finds nothing returns a valid empty ResultSet.
func (sc *Scanner) Scan(p Params) (*model.ResultSet, error) {
	p = p.withDefaults()
	if err := p.Validate(); err != nil {
		return nil, err
	}

	targetEnd, err := sc.series.Resolve(p.TargetEnd)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWindow, err)
	}
	targetStart := targetEnd - p.WindowSize + 1
	if targetStart < 0 {
		return nil, fmt.Errorf("%w: window of %d bars ending at %d starts before the series",
			ErrInvalidWindow, p.WindowSize, targetEnd)
	}

	target := sc.series.Slice(targetStart, targetEnd)
	targetNorm, err := norm.Normalize(target, p.Normalize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWindow, err)
	}

	scorer, err := similarity.NewScorer(p.Metric)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidParameter, err)
	}

	positions := sc.candidatePositions(p, targetEnd)
	matches := sc.sweep(p, positions, targetNorm, scorer)

	rs := &model.ResultSet{
		Target:      target,
		TargetStart: targetStart,
		TargetEnd:   targetEnd,
		Matches:     matches,
	}
	return rs, nil
}

// candidatePositions enumerates every candidate end position that passes the
// structural exclusion rules: full window inside the series, full forward
// window inside the series, outside the recency exclusion zone, and no
// overlap with the target window.
func (sc *Scanner) candidatePositions(p Params, targetEnd int) []int {
	eligible := func(pos int) bool {
		if pos < p.WindowSize-1 || pos+p.Lookahead > sc.series.Len()-1 {
			return false
		}
		dist := pos - targetEnd
		if dist < 0 {
			dist = -dist
		}
		// overlap with the target window and the recency exclusion zone
		if dist < p.WindowSize || dist < p.ExcludeRecent {
			return false
		}
		return true
	}

	var positions []int
	if p.Positions != nil {
		positions = make([]int, 0, len(p.Positions))
		for _, pos := range p.Positions {
			if eligible(pos) {
				positions = append(positions, pos)
			}
		}
		sort.Ints(positions)
		return positions
	}

	for pos := p.WindowSize - 1; pos+p.Lookahead <= sc.series.Len()-1; pos++ {
		if eligible(pos) {
			positions = append(positions, pos)
		}
	}
	return positions
}

// sweep normalizes and scores every candidate position. With Workers > 1 the
// position list is partitioned into contiguous chunks, each worker writes to
// its own local match list, and the chunks are merged in order, so the output
// is identical to the sequential sweep.
func (sc *Scanner) sweep(p Params, positions []int, targetNorm []float64, scorer similarity.Scorer) []model.Match {
	if p.Workers < 2 || len(positions) < p.Workers {
		return sc.sweepRange(p, positions, targetNorm, scorer)
	}

	chunks := make([][]model.Match, p.Workers)
	chunkSize := (len(positions) + p.Workers - 1) / p.Workers

	var wg sync.WaitGroup
	for w := 0; w < p.Workers; w++ {
		lo := w * chunkSize
		hi := lo + chunkSize
		if hi > len(positions) {
			hi = len(positions)
		}
		if lo >= hi {
			continue
		}
		wg.Add(1)
		go func(w, lo, hi int) {
			defer wg.Done()
			chunks[w] = sc.sweepRange(p, positions[lo:hi], targetNorm, scorer)
		}(w, lo, hi)
	}
	wg.Wait()

	var matches []model.Match
	for _, chunk := range chunks {
		matches = append(matches, chunk...)
	}
	return matches
}

// sweepRange scores one contiguous run of candidate positions
func (sc *Scanner) sweepRange(p Params, positions []int, targetNorm []float64, scorer similarity.Scorer) []model.Match {
	var matches []model.Match
	for _, pos := range positions {
		candidate := sc.series.Slice(pos-p.WindowSize+1, pos)

		candNorm, err := norm.Normalize(candidate, p.Normalize)
		if err != nil {
			continue // bad candidate windows are excluded, never fatal
		}

		score := scorer.Score(targetNorm, candNorm)
		if score < p.MinSimilarity {
			continue
		}

		m, ok := sc.buildMatch(p, pos, score)
		if !ok {
			continue
		}
		matches = append(matches, m)
	}
	return matches
}

// buildMatch attaches the forward window and its return figures to a scored
// candidate. ok is false when the forward path cannot be priced.
func (sc *Scanner) buildMatch(p Params, pos int, score float64) (model.Match, bool) {
	base := sc.series.Bar(pos).Close
	if base == 0 {
		return model.Match{}, false
	}

	forward := sc.series.Slice(pos+1, pos+p.Lookahead)
	for i := range forward {
		if !forward[i].IsValid() {
			return model.Match{}, false
		}
	}

	maxHigh, minLow := forward[0].High, forward[0].Low
	for _, b := range forward[1:] {
		if b.High > maxHigh {
			maxHigh = b.High
		}
		if b.Low < minLow {
			minLow = b.Low
		}
	}

	return model.Match{
		Start:        pos - p.WindowSize + 1,
		End:          pos,
		Similarity:   score,
		Forward:      forward,
		FwdReturn:    (forward[len(forward)-1].Close - base) / base,
		MaxFwdReturn: (maxHigh - base) / base,
		MinFwdReturn: (minLow - base) / base,
	}, true
}
