// Package indicator computes common technical indicators over bar slices.
// The matching engine does not consume these; they annotate the target window
// in reports.
package indicator

import (
	"errors"
	"math"

	"github.com/kabuist001/stock-pattern-matcher/pkg/model"
)

var (
	// ErrBadPeriod is returned for non-positive periods
	ErrBadPeriod = errors.New("indicator: period must be positive")
	// ErrNotEnoughData is returned when the input is shorter than the period
	ErrNotEnoughData = errors.New("indicator: not enough data")
)

// SMA computes the simple moving average of the trailing period prices
func SMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, ErrBadPeriod
	}
	if len(prices) < period {
		return 0, ErrNotEnoughData
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// EMA computes the exponential moving average over the full price slice,
// seeded with the first price, and returns the final value.
func EMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, ErrBadPeriod
	}
	if len(prices) < period {
		return 0, ErrNotEnoughData
	}
	alpha := 2.0 / (float64(period) + 1.0)
	ema := prices[0]
	for _, p := range prices[1:] {
		ema = alpha*p + (1-alpha)*ema
	}
	return ema, nil
}

// RSI computes the Wilder-smoothed relative strength index over the period.
// Requires at least period+1 bars.
func RSI(bars []model.Bar, period int) (float64, error) {
	if period <= 0 {
		return 0, ErrBadPeriod
	}
	if len(bars) < period+1 {
		return 0, ErrNotEnoughData
	}
	closes := model.Closes(bars)

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	for i := period + 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	if avgLoss == 0 {
		return 100.0, nil
	}
	rs := avgGain / avgLoss
	return 100.0 - 100.0/(1.0+rs), nil
}

// MACD computes the moving average convergence divergence line and its
// signal line using the conventional fast/slow/signal EMA periods.
func MACD(prices []float64, fast, slow, signal int) (macd, signalLine float64, err error) {
	if fast <= 0 || slow <= 0 || signal <= 0 {
		return 0, 0, ErrBadPeriod
	}
	if len(prices) < slow+signal {
		return 0, 0, ErrNotEnoughData
	}

	alphaFast := 2.0 / (float64(fast) + 1.0)
	alphaSlow := 2.0 / (float64(slow) + 1.0)
	alphaSignal := 2.0 / (float64(signal) + 1.0)

	emaFast, emaSlow := prices[0], prices[0]
	macd = 0.0
	signalLine = 0.0
	for i, p := range prices {
		if i > 0 {
			emaFast = alphaFast*p + (1-alphaFast)*emaFast
			emaSlow = alphaSlow*p + (1-alphaSlow)*emaSlow
		}
		macd = emaFast - emaSlow
		if i == 0 {
			signalLine = macd
		} else {
			signalLine = alphaSignal*macd + (1-alphaSignal)*signalLine
		}
	}
	return macd, signalLine, nil
}

// ATR computes the average true range over the trailing period bars,
// as a fraction of the first bar's close.
func ATR(bars []model.Bar, period int) (float64, error) {
	if period <= 0 {
		return 0, ErrBadPeriod
	}
	if len(bars) < period+1 {
		return 0, ErrNotEnoughData
	}

	start := len(bars) - period
	var sumTR float64
	for i := start; i < len(bars); i++ {
		curr, prev := bars[i], bars[i-1]
		tr := math.Max(
			curr.High-curr.Low,
			math.Max(
				math.Abs(curr.High-prev.Close),
				math.Abs(curr.Low-prev.Close),
			),
		)
		sumTR += tr
	}

	base := bars[0].Close
	if base == 0 {
		return 0, ErrNotEnoughData
	}
	return sumTR / float64(period) / base, nil
}

// Snapshot bundles the indicator values of one window for reporting.
// Missing values (window too short) are NaN.
type Snapshot struct {
	SMA20      float64
	EMA20      float64
	RSI14      float64
	ATR14      float64
	MACD       float64
	MACDSignal float64
}

// TakeSnapshot computes a best-effort indicator snapshot over the bars
func TakeSnapshot(bars []model.Bar) Snapshot {
	nan := math.NaN()
	s := Snapshot{SMA20: nan, EMA20: nan, RSI14: nan, ATR14: nan, MACD: nan, MACDSignal: nan}
	closes := model.Closes(bars)

	if v, err := SMA(closes, 20); err == nil {
		s.SMA20 = v
	}
	if v, err := EMA(closes, 20); err == nil {
		s.EMA20 = v
	}
	if v, err := RSI(bars, 14); err == nil {
		s.RSI14 = v
	}
	if v, err := ATR(bars, 14); err == nil {
		s.ATR14 = v
	}
	if m, sig, err := MACD(closes, 12, 26, 9); err == nil {
		s.MACD = m
		s.MACDSignal = sig
	}
	return s
}
