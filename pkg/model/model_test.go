package model

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestBar_Derived covers the small derived accessors.
func TestBar_Derived(t *testing.T) {
	b := Bar{Open: 100, High: 104, Low: 98, Close: 102, Volume: 1000}

	assert.InDelta(t, 0.02, b.Returns(), 1e-12)
	assert.InDelta(t, 0.06, b.Range(), 1e-12)
	assert.True(t, b.IsBullish())

	zero := Bar{}
	assert.Equal(t, 0.0, zero.Returns())
	assert.False(t, zero.IsBullish())
}

// TestBar_IsValid rejects NaN and infinite fields.
func TestBar_IsValid(t *testing.T) {
	b := Bar{Open: 100, High: 104, Low: 98, Close: 102}
	assert.True(t, b.IsValid(), "zero volume is still valid")

	b.Close = math.NaN()
	assert.False(t, b.IsValid())

	b.Close = math.Inf(1)
	assert.False(t, b.IsValid())
}

// TestScanID_Deterministic: identical inputs hash to the same ID, any changed
// input to a different one.
func TestScanID_Deterministic(t *testing.T) {
	tEnd := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	a := ScanID("SPY", "1d", tEnd, 10, 10, "correlation", "relative")
	b := ScanID("SPY", "1d", tEnd, 10, 10, "correlation", "relative")
	assert.Equal(t, a, b)
	assert.Len(t, a, 32)

	assert.NotEqual(t, a, ScanID("QQQ", "1d", tEnd, 10, 10, "correlation", "relative"))
	assert.NotEqual(t, a, ScanID("SPY", "1d", tEnd, 12, 10, "correlation", "relative"))
	assert.NotEqual(t, a, ScanID("SPY", "1d", tEnd, 10, 10, "euclidean", "relative"))
}

// TestResultSet_TargetClose reads the last close of the target window.
func TestResultSet_TargetClose(t *testing.T) {
	rs := &ResultSet{Target: []Bar{{Close: 100}, {Close: 104}}}
	assert.Equal(t, 104.0, rs.TargetClose())

	assert.Equal(t, 0.0, (&ResultSet{}).TargetClose())
}
