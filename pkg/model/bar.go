package model

import (
	"math"
	"time"
)

// Bar represents a single OHLC(V) observation at a timestamp
type Bar struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// Returns calculates the percentage return of this bar
func (b *Bar) Returns() float64 {
	if b.Open == 0 {
		return 0
	}
	return (b.Close - b.Open) / b.Open
}

// Range calculates the high-low range as a percentage of open
func (b *Bar) Range() float64 {
	if b.Open == 0 {
		return 0
	}
	return (b.High - b.Low) / b.Open
}

// IsBullish returns true if close > open
func (b *Bar) IsBullish() bool {
	return b.Close > b.Open
}

// IsValid reports whether all OHLC fields carry finite, non-NaN values.
// Volume is allowed to be zero but not NaN.
func (b *Bar) IsValid() bool {
	for _, v := range []float64{b.Open, b.High, b.Low, b.Close, b.Volume} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Closes extracts the close prices of a bar slice
func Closes(bars []Bar) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}
