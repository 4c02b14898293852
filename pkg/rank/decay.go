package rank

import (
	"math"
	"sort"

	"github.com/kabuist001/stock-pattern-matcher/pkg/model"
)

// DecayConfig holds configuration for age-decay reranking
type DecayConfig struct {
	Lambda float64 // Exponential decay rate per bar of age (higher = faster decay)
}

// DefaultDecayConfig returns a moderate decay rate
func DefaultDecayConfig() DecayConfig {
	return DecayConfig{Lambda: 0.001}
}

// DecayedMatch extends a match with its age weight and decayed final score
type DecayedMatch struct {
	model.Match
	AgeBars    int
	Weight     float64
	FinalScore float64
}

// Rerank reweights each match's similarity by the exponential decay of its
// age in bars relative to the target end, then sorts by the decayed score
// descending. Optional: the plain Rank order is the engine's contract, this
// view simply prefers more recent analogues more aggressively.
func Rerank(rs *model.ResultSet, cfg DecayConfig) []DecayedMatch {
	ranked := make([]DecayedMatch, len(rs.Matches))
	for i, m := range rs.Matches {
		age := rs.TargetEnd - m.End
		if age < 0 {
			age = -age
		}
		weight := math.Exp(-cfg.Lambda * float64(age))
		ranked[i] = DecayedMatch{
			Match:      m,
			AgeBars:    age,
			Weight:     weight,
			FinalScore: m.Similarity * weight,
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].FinalScore != ranked[j].FinalScore {
			return ranked[i].FinalScore > ranked[j].FinalScore
		}
		return ranked[i].End > ranked[j].End
	})

	return ranked
}
