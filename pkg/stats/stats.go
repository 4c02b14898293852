// Package stats reduces a ranked result set's forward returns into summary
// metrics. Statistics are derived on demand and never persisted by the core.
package stats

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/kabuist001/stock-pattern-matcher/pkg/model"
)

// ErrEmptyResult is returned by AggregateStrict when the result set has no
// matches. The non-strict Aggregate treats an empty set as a valid outcome.
var ErrEmptyResult = errors.New("stats: result set has no matches")

// Statistics summarizes the forward returns of a result set. All return
// figures are fractions (0.05 == +5%). When Count is zero every float field
// is NaN, an explicit "undefined" marker; dividing a report out of thin air
// would be worse than admitting there is none.
type Statistics struct {
	Count        int     `json:"count"`
	MeanReturn   float64 `json:"mean_return"`
	MedianReturn float64 `json:"median_return"`
	StdReturn    float64 `json:"std_return"`
	MaxReturn    float64 `json:"max_return"`
	MinReturn    float64 `json:"min_return"`
	PositiveRate float64 `json:"positive_rate"` // fraction of matches with positive forward return

	P10 float64 `json:"p10"`
	P90 float64 `json:"p90"`

	MeanMaxReturn float64 `json:"mean_max_return"` // mean of per-match best forward highs
	MeanMinReturn float64 `json:"mean_min_return"` // mean of per-match worst forward lows
}

// Defined reports whether the return metrics carry real values
func (s Statistics) Defined() bool {
	return s.Count > 0
}

// statisticsJSON is the wire shape of Statistics: undefined metrics travel as
// null, since NaN has no JSON encoding. A defined report can still carry
// individual NaN fields, a single match has no dispersion estimate.
type statisticsJSON struct {
	Count         int      `json:"count"`
	MeanReturn    *float64 `json:"mean_return"`
	MedianReturn  *float64 `json:"median_return"`
	StdReturn     *float64 `json:"std_return"`
	MaxReturn     *float64 `json:"max_return"`
	MinReturn     *float64 `json:"min_return"`
	PositiveRate  *float64 `json:"positive_rate"`
	P10           *float64 `json:"p10"`
	P90           *float64 `json:"p90"`
	MeanMaxReturn *float64 `json:"mean_max_return"`
	MeanMinReturn *float64 `json:"mean_min_return"`
}

// MarshalJSON encodes NaN-marked metrics as null
func (s Statistics) MarshalJSON() ([]byte, error) {
	return json.Marshal(statisticsJSON{
		Count:         s.Count,
		MeanReturn:    finite(s.MeanReturn),
		MedianReturn:  finite(s.MedianReturn),
		StdReturn:     finite(s.StdReturn),
		MaxReturn:     finite(s.MaxReturn),
		MinReturn:     finite(s.MinReturn),
		PositiveRate:  finite(s.PositiveRate),
		P10:           finite(s.P10),
		P90:           finite(s.P90),
		MeanMaxReturn: finite(s.MeanMaxReturn),
		MeanMinReturn: finite(s.MeanMinReturn),
	})
}

// UnmarshalJSON restores null metrics to their NaN markers
func (s *Statistics) UnmarshalJSON(data []byte) error {
	var raw statisticsJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = Statistics{
		Count:         raw.Count,
		MeanReturn:    orNaN(raw.MeanReturn),
		MedianReturn:  orNaN(raw.MedianReturn),
		StdReturn:     orNaN(raw.StdReturn),
		MaxReturn:     orNaN(raw.MaxReturn),
		MinReturn:     orNaN(raw.MinReturn),
		PositiveRate:  orNaN(raw.PositiveRate),
		P10:           orNaN(raw.P10),
		P90:           orNaN(raw.P90),
		MeanMaxReturn: orNaN(raw.MeanMaxReturn),
		MeanMinReturn: orNaN(raw.MeanMinReturn),
	}
	return nil
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func orNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

// Aggregate computes summary statistics over a result set's matches.
// An empty set yields Count 0 with NaN-marked metrics, never an error:
// strict similarity floors commonly match nothing.
func Aggregate(rs *model.ResultSet) Statistics {
	if rs == nil || len(rs.Matches) == 0 {
		return undefined()
	}

	returns := make([]float64, len(rs.Matches))
	maxReturns := make([]float64, len(rs.Matches))
	minReturns := make([]float64, len(rs.Matches))
	positive := 0
	for i, m := range rs.Matches {
		returns[i] = m.FwdReturn
		maxReturns[i] = m.MaxFwdReturn
		minReturns[i] = m.MinFwdReturn
		if m.FwdReturn > 0 {
			positive++
		}
	}

	sorted := make([]float64, len(returns))
	copy(sorted, returns)
	sort.Float64s(sorted)

	return Statistics{
		Count:         len(returns),
		MeanReturn:    mean(returns),
		MedianReturn:  percentile(sorted, 50),
		StdReturn:     sampleStd(returns),
		MaxReturn:     sorted[len(sorted)-1],
		MinReturn:     sorted[0],
		PositiveRate:  float64(positive) / float64(len(returns)),
		P10:           percentile(sorted, 10),
		P90:           percentile(sorted, 90),
		MeanMaxReturn: mean(maxReturns),
		MeanMinReturn: mean(minReturns),
	}
}

// AggregateStrict is Aggregate for callers that require a non-empty report
func AggregateStrict(rs *model.ResultSet) (Statistics, error) {
	s := Aggregate(rs)
	if !s.Defined() {
		return s, ErrEmptyResult
	}
	return s, nil
}

// String returns a one-line report, percent-formatted at this edge only
func (s Statistics) String() string {
	if !s.Defined() {
		return "no matches"
	}
	return fmt.Sprintf(
		"n=%d | mean %.2f%% | median %.2f%% | std %.2f%% | win %.0f%% | p10 %.2f%% | p90 %.2f%%",
		s.Count, s.MeanReturn*100, s.MedianReturn*100, s.StdReturn*100,
		s.PositiveRate*100, s.P10*100, s.P90*100,
	)
}

func undefined() Statistics {
	nan := math.NaN()
	return Statistics{
		MeanReturn:    nan,
		MedianReturn:  nan,
		StdReturn:     nan,
		MaxReturn:     nan,
		MinReturn:     nan,
		PositiveRate:  nan,
		P10:           nan,
		P90:           nan,
		MeanMaxReturn: nan,
		MeanMinReturn: nan,
	}
}

// mean calculates the arithmetic mean
func mean(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// sampleStd calculates the sample standard deviation (n-1 denominator).
// A single observation has no dispersion estimate and yields NaN.
func sampleStd(values []float64) float64 {
	if len(values) < 2 {
		return math.NaN()
	}
	m := mean(values)
	var sumSquares float64
	for _, v := range values {
		d := v - m
		sumSquares += d * d
	}
	return math.Sqrt(sumSquares / float64(len(values)-1))
}

// percentile calculates the p-th percentile (p in 0-100) of a sorted slice
// using linear interpolation
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if len(sorted) == 1 {
		return sorted[0]
	}

	rank := (p / 100) * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper {
		return sorted[lower]
	}

	fraction := rank - float64(lower)
	return sorted[lower] + fraction*(sorted[upper]-sorted[lower])
}
