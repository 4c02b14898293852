package norm

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kabuist001/stock-pattern-matcher/pkg/model"
)

func barsFromCloses(closes ...float64) []model.Bar {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]model.Bar, len(closes))
	for i, c := range closes {
		bars[i] = model.Bar{
			Timestamp: base.AddDate(0, 0, i),
			Open:      c,
			High:      c,
			Low:       c,
			Close:     c,
			Volume:    1,
		}
	}
	return bars
}

// TestParseMethod accepts the two known names and rejects everything else.
func TestParseMethod(t *testing.T) {
	m, err := ParseMethod("relative")
	require.NoError(t, err)
	assert.Equal(t, Relative, m)

	m, err = ParseMethod("minmax")
	require.NoError(t, err)
	assert.Equal(t, MinMax, m)

	_, err = ParseMethod("zscore")
	assert.ErrorIs(t, err, ErrUnknownMethod)
}

// TestRelative_FirstBarIsZero verifies the first close maps to 0 and the rest
// to fractional changes from it.
func TestRelative_FirstBarIsZero(t *testing.T) {
	vec, err := Normalize(barsFromCloses(100, 110, 90, 100), Relative)
	require.NoError(t, err)

	assert.Equal(t, []float64{0, 0.1, -0.1, 0}, vec)
}

// TestRelative_ScalarMultipleInvariance verifies that a pure positive scalar
// multiple of a window normalizes to the identical vector.
func TestRelative_ScalarMultipleInvariance(t *testing.T) {
	a, err := Normalize(barsFromCloses(100, 104, 98, 107, 112), Relative)
	require.NoError(t, err)
	b, err := Normalize(barsFromCloses(250, 260, 245, 267.5, 280), Relative)
	require.NoError(t, err)

	require.Len(t, b, len(a))
	for i := range a {
		assert.InDelta(t, a[i], b[i], 1e-12)
	}
}

// TestMinMax_Bounds verifies the output is bounded in [0,1] and touches both
// endpoints.
func TestMinMax_Bounds(t *testing.T) {
	vec, err := Normalize(barsFromCloses(105, 120, 95, 110, 100), MinMax)
	require.NoError(t, err)

	lo, hi := vec[0], vec[0]
	for _, v := range vec {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	assert.Equal(t, 0.0, lo, "window min must map to 0")
	assert.Equal(t, 1.0, hi, "window max must map to 1")
}

// TestMinMax_FlatWindowIsInvalid verifies a flat window is flagged invalid
// instead of silently becoming a degenerate all-zero vector.
func TestMinMax_FlatWindowIsInvalid(t *testing.T) {
	_, err := Normalize(barsFromCloses(100, 100, 100, 100), MinMax)
	assert.ErrorIs(t, err, ErrFlatWindow)
}

// TestRelative_ZeroBaseIsInvalid verifies a zero first close has no usable
// scale.
func TestRelative_ZeroBaseIsInvalid(t *testing.T) {
	_, err := Normalize(barsFromCloses(0, 100, 101), Relative)
	assert.ErrorIs(t, err, ErrFlatWindow)
}

// TestNormalize_NaNInvalidatesWindow verifies missing values are refused.
func TestNormalize_NaNInvalidatesWindow(t *testing.T) {
	bars := barsFromCloses(100, 101, 102)
	bars[1].Close = math.NaN()

	_, err := Normalize(bars, Relative)
	assert.ErrorIs(t, err, ErrMissingValue)

	_, err = Normalize(bars, MinMax)
	assert.ErrorIs(t, err, ErrMissingValue)
}

// TestNormalize_EmptyWindow refuses a window with no bars.
func TestNormalize_EmptyWindow(t *testing.T) {
	_, err := Normalize(nil, Relative)
	assert.ErrorIs(t, err, ErrMissingValue)
}

// TestNormalize_PureFunction verifies the input bars are not modified.
func TestNormalize_PureFunction(t *testing.T) {
	bars := barsFromCloses(100, 110, 120)
	_, err := Normalize(bars, MinMax)
	require.NoError(t, err)

	assert.Equal(t, 100.0, bars[0].Close)
	assert.Equal(t, 120.0, bars[2].Close)
}
