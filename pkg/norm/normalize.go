// Package norm converts raw price windows into comparable vectors that are
// independent of absolute price level.
package norm

import (
	"errors"
	"fmt"

	"github.com/kabuist001/stock-pattern-matcher/pkg/model"
)

// Method selects a normalization strategy
type Method int

const (
	// Relative maps the first close to 0 and expresses every other value as a
	// fractional change from it
	Relative Method = iota
	// MinMax rescales the window's own min/max to [0, 1]
	MinMax
)

var (
	// ErrUnknownMethod is returned when parsing an unrecognized method name
	ErrUnknownMethod = errors.New("norm: unknown normalize method")
	// ErrFlatWindow is returned when a window has no usable price scale
	// (all closes equal under minmax, or a zero base close under relative)
	ErrFlatWindow = errors.New("norm: flat window has no usable scale")
	// ErrMissingValue is returned when a window contains NaN or infinite values
	ErrMissingValue = errors.New("norm: window contains missing values")
)

// ParseMethod converts a method name into a Method, rejecting unknown names
// at the validation boundary rather than deep in the scan loop.
func ParseMethod(s string) (Method, error) {
	switch s {
	case "relative":
		return Relative, nil
	case "minmax":
		return MinMax, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMethod, s)
	}
}

// String returns the canonical method name
func (m Method) String() string {
	switch m {
	case Relative:
		return "relative"
	case MinMax:
		return "minmax"
	default:
		return fmt.Sprintf("method(%d)", int(m))
	}
}

// Valid reports whether m is one of the defined methods
func (m Method) Valid() bool {
	return m == Relative || m == MinMax
}

// Normalize converts a window of bars into one close-derived value per bar.
// Every metric consumes the same layout, so the scan loop never special-cases
// per-metric data shape. Pure function: the input window is not modified.
func Normalize(bars []model.Bar, m Method) ([]float64, error) {
	if len(bars) == 0 {
		return nil, ErrMissingValue
	}
	closes := make([]float64, len(bars))
	for i, b := range bars {
		if !b.IsValid() {
			return nil, fmt.Errorf("%w: bar at offset %d", ErrMissingValue, i)
		}
		closes[i] = b.Close
	}

	switch m {
	case Relative:
		return relative(closes)
	case MinMax:
		return minMax(closes)
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownMethod, m)
	}
}

// relative expresses each close as a fractional change from the first close
func relative(closes []float64) ([]float64, error) {
	base := closes[0]
	if base == 0 {
		return nil, fmt.Errorf("%w: zero base close", ErrFlatWindow)
	}
	out := make([]float64, len(closes))
	for i, c := range closes {
		out[i] = (c - base) / base
	}
	return out, nil
}

// minMax rescales the window to [0, 1]. A flat window is an error rather
// than a degenerate all-zero vector.
func minMax(closes []float64) ([]float64, error) {
	lo, hi := closes[0], closes[0]
	for _, c := range closes {
		if c < lo {
			lo = c
		}
		if c > hi {
			hi = c
		}
	}
	if hi == lo {
		return nil, ErrFlatWindow
	}
	out := make([]float64, len(closes))
	for i, c := range closes {
		out[i] = (c - lo) / (hi - lo)
	}
	return out, nil
}
