// Package similarity scores pairs of normalized windows under interchangeable
// metrics. All metrics report into one canonical [0, 1] range so ranked
// results are comparable regardless of the metric that produced them.
package similarity

import (
	"errors"
	"fmt"
)

// Metric selects a similarity metric
type Metric int

const (
	// Correlation is the Pearson correlation coefficient of the two vectors,
	// linearly rescaled from [-1, 1] to [0, 1]
	Correlation Metric = iota
	// Euclidean maps euclidean distance d to similarity 1/(1+d), in (0, 1]
	Euclidean
	// Weighted is a correlation variant where recent bars carry linearly
	// increasing weight, rescaled like plain correlation
	Weighted
)

// ErrUnknownMetric is returned when parsing an unrecognized metric name
var ErrUnknownMetric = errors.New("similarity: unknown metric")

// ParseMetric converts a metric name into a Metric, rejecting unknown names
// at the validation boundary.
func ParseMetric(s string) (Metric, error) {
	switch s {
	case "correlation":
		return Correlation, nil
	case "euclidean":
		return Euclidean, nil
	case "weighted":
		return Weighted, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMetric, s)
	}
}

// String returns the canonical metric name
func (m Metric) String() string {
	switch m {
	case Correlation:
		return "correlation"
	case Euclidean:
		return "euclidean"
	case Weighted:
		return "weighted"
	default:
		return fmt.Sprintf("metric(%d)", int(m))
	}
}

// Valid reports whether m is one of the defined metrics
func (m Metric) Valid() bool {
	return m == Correlation || m == Euclidean || m == Weighted
}

// Scorer computes a bounded similarity in [0, 1] between two equal-length
// normalized windows. Implementations are pure and safe for concurrent use.
type Scorer interface {
	Score(a, b []float64) float64
}

// NewScorer returns the scorer implementation for the given metric
func NewScorer(m Metric) (Scorer, error) {
	switch m {
	case Correlation:
		return correlationScorer{}, nil
	case Euclidean:
		return euclideanScorer{}, nil
	case Weighted:
		return weightedScorer{}, nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownMetric, m)
	}
}
