package stats

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kabuist001/stock-pattern-matcher/pkg/model"
)

func resultSetFromReturns(returns ...float64) *model.ResultSet {
	rs := &model.ResultSet{}
	for i, r := range returns {
		rs.Matches = append(rs.Matches, model.Match{
			Start:        i * 10,
			End:          i*10 + 4,
			Similarity:   0.9,
			FwdReturn:    r,
			MaxFwdReturn: r + 0.01,
			MinFwdReturn: r - 0.01,
		})
	}
	return rs
}

// TestAggregate_KnownReturns checks every metric against hand-computed values
// for the return set {-2%, 1%, 3%, 6%}.
func TestAggregate_KnownReturns(t *testing.T) {
	rs := resultSetFromReturns(-0.02, 0.01, 0.03, 0.06)

	s := Aggregate(rs)
	require.True(t, s.Defined())
	assert.Equal(t, 4, s.Count)
	assert.InDelta(t, 0.02, s.MeanReturn, 1e-12)
	assert.InDelta(t, 0.02, s.MedianReturn, 1e-12)
	assert.InDelta(t, 0.06, s.MaxReturn, 1e-12)
	assert.InDelta(t, -0.02, s.MinReturn, 1e-12)
	assert.InDelta(t, 0.75, s.PositiveRate, 1e-12)

	// sample std with n-1: sqrt(((-.04)^2+(-.01)^2+(.01)^2+(.04)^2)/3)
	assert.InDelta(t, math.Sqrt(0.0034/3), s.StdReturn, 1e-12)

	assert.InDelta(t, 0.03, s.MeanMaxReturn, 1e-12)
	assert.InDelta(t, 0.01, s.MeanMinReturn, 1e-12)
}

// TestAggregate_Percentiles checks the interpolated P10/P90 over an
// evenly spaced return set.
func TestAggregate_Percentiles(t *testing.T) {
	rs := resultSetFromReturns(0.01, 0.02, 0.03, 0.04, 0.05)

	s := Aggregate(rs)
	// rank 0.4 between the first two observations
	assert.InDelta(t, 0.014, s.P10, 1e-12)
	assert.InDelta(t, 0.046, s.P90, 1e-12)
	assert.InDelta(t, 0.03, s.MedianReturn, 1e-12)
}

// TestAggregate_EmptySetIsDefinedAsAbsent: no matches yields Count 0 with
// NaN metrics and no error. A strict floor finding nothing is a valid outcome.
func TestAggregate_EmptySetIsDefinedAsAbsent(t *testing.T) {
	for _, rs := range []*model.ResultSet{nil, {}} {
		s := Aggregate(rs)
		assert.False(t, s.Defined())
		assert.Equal(t, 0, s.Count)
		assert.True(t, math.IsNaN(s.MeanReturn))
		assert.True(t, math.IsNaN(s.PositiveRate))
		assert.Equal(t, "no matches", s.String())
	}
}

// TestAggregateStrict_RejectsEmpty surfaces the empty case as an error for
// callers that cannot proceed without a report.
func TestAggregateStrict_RejectsEmpty(t *testing.T) {
	_, err := AggregateStrict(&model.ResultSet{})
	assert.ErrorIs(t, err, ErrEmptyResult)

	s, err := AggregateStrict(resultSetFromReturns(0.02))
	require.NoError(t, err)
	assert.Equal(t, 1, s.Count)
}

// TestAggregate_SingleMatch: one observation has a mean but no dispersion.
func TestAggregate_SingleMatch(t *testing.T) {
	s := Aggregate(resultSetFromReturns(0.05))

	assert.Equal(t, 1, s.Count)
	assert.InDelta(t, 0.05, s.MeanReturn, 1e-12)
	assert.InDelta(t, 0.05, s.MedianReturn, 1e-12)
	assert.InDelta(t, 0.05, s.P10, 1e-12)
	assert.True(t, math.IsNaN(s.StdReturn), "std of one observation is undefined")
	assert.Equal(t, 1.0, s.PositiveRate)
}

// TestAggregate_ZeroReturnIsNotPositive: flat forward paths do not count as
// wins.
func TestAggregate_ZeroReturnIsNotPositive(t *testing.T) {
	s := Aggregate(resultSetFromReturns(0, 0, 0.04, -0.04))
	assert.InDelta(t, 0.25, s.PositiveRate, 1e-12)
}

// TestStatistics_JSONRoundTrip: NaN metrics travel as null and come back as
// NaN, so a report with undefined fields always serializes.
func TestStatistics_JSONRoundTrip(t *testing.T) {
	s := Aggregate(resultSetFromReturns(0.05))
	require.True(t, math.IsNaN(s.StdReturn))

	payload, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(payload), `"std_return":null`)

	var decoded Statistics
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, 1, decoded.Count)
	assert.InDelta(t, 0.05, decoded.MeanReturn, 1e-12)
	assert.True(t, math.IsNaN(decoded.StdReturn))

	empty, err := json.Marshal(Aggregate(nil))
	require.NoError(t, err)
	assert.Contains(t, string(empty), `"count":0`)
}

// TestStatistics_String percent-formats fractions at the reporting edge.
func TestStatistics_String(t *testing.T) {
	s := Aggregate(resultSetFromReturns(0.05, 0.05, 0.05))
	assert.Contains(t, s.String(), "n=3")
	assert.Contains(t, s.String(), "mean 5.00%")
	assert.Contains(t, s.String(), "win 100%")
}
