package similarity

import "math"

// correlationScorer scores by Pearson correlation of the two vectors
type correlationScorer struct{}

func (correlationScorer) Score(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	r, ok := pearson(a, b)
	if !ok {
		// zero variance on either side: correlation is undefined,
		// score 0 by convention
		return 0
	}
	return rescale(r)
}

// euclideanScorer maps euclidean distance d to 1/(1+d). The mapping is
// strictly decreasing in d and bounded in (0, 1].
type euclideanScorer struct{}

func (euclideanScorer) Score(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return 1 / (1 + math.Sqrt(sum))
}

// weightedScorer computes a weighted Pearson correlation where bar i carries
// weight i+1, a linear ramp from 1 to the window length. The weight vector is
// renormalized to sum 1, so the metric stays in correlation's [-1, 1] range
// before rescaling.
type weightedScorer struct{}

func (weightedScorer) Score(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	n := len(a)
	weights := make([]float64, n)
	var total float64
	for i := range weights {
		weights[i] = float64(i + 1)
		total += weights[i]
	}
	for i := range weights {
		weights[i] /= total
	}

	meanA := weightedMean(a, weights)
	meanB := weightedMean(b, weights)

	var cov, varA, varB float64
	for i := range a {
		da := a[i] - meanA
		db := b[i] - meanB
		cov += weights[i] * da * db
		varA += weights[i] * da * da
		varB += weights[i] * db * db
	}
	if varA == 0 || varB == 0 {
		return 0
	}
	return rescale(cov / math.Sqrt(varA*varB))
}

// pearson computes the Pearson correlation coefficient.
// ok is false when either vector has zero variance.
func pearson(a, b []float64) (r float64, ok bool) {
	n := float64(len(a))
	var sumA, sumB float64
	for i := range a {
		sumA += a[i]
		sumB += b[i]
	}
	meanA := sumA / n
	meanB := sumB / n

	var cov, varA, varB float64
	for i := range a {
		da := a[i] - meanA
		db := b[i] - meanB
		cov += da * db
		varA += da * da
		varB += db * db
	}
	if varA == 0 || varB == 0 {
		return 0, false
	}
	return cov / math.Sqrt(varA*varB), true
}

// rescale maps correlation's native [-1, 1] onto the canonical [0, 1] range.
// Floating point can push the product a hair outside the bounds, so clamp.
func rescale(r float64) float64 {
	s := (r + 1) / 2
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}

// weightedMean computes the mean of values under weights summing to 1
func weightedMean(values, weights []float64) float64 {
	var m float64
	for i := range values {
		m += weights[i] * values[i]
	}
	return m
}
