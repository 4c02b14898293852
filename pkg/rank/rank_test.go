package rank

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kabuist001/stock-pattern-matcher/pkg/model"
)

func matchAt(end int, similarity float64) model.Match {
	return model.Match{Start: end - 4, End: end, Similarity: similarity}
}

// TestRank_OrdersBySimilarityDescending verifies the primary sort key.
func TestRank_OrdersBySimilarityDescending(t *testing.T) {
	matches := []model.Match{
		matchAt(10, 0.71),
		matchAt(20, 0.93),
		matchAt(30, 0.80),
		matchAt(40, 0.99),
	}

	ranked := Rank(matches, 10)
	require.Len(t, ranked, 4)
	assert.Equal(t, []int{40, 20, 30, 10}, ends(ranked))
}

// TestRank_TieBreaksOnRecency: equal scores rank the later window first.
func TestRank_TieBreaksOnRecency(t *testing.T) {
	matches := []model.Match{
		matchAt(10, 0.9),
		matchAt(50, 0.9),
		matchAt(30, 0.9),
	}

	ranked := Rank(matches, 10)
	assert.Equal(t, []int{50, 30, 10}, ends(ranked))
}

// TestRank_TruncatesToTopN keeps only the best topN matches.
func TestRank_TruncatesToTopN(t *testing.T) {
	matches := []model.Match{
		matchAt(10, 0.7),
		matchAt(20, 0.9),
		matchAt(30, 0.8),
		matchAt(40, 0.95),
	}

	ranked := Rank(matches, 2)
	assert.Equal(t, []int{40, 20}, ends(ranked))
}

// TestRank_ShortListReturnedAsIs: fewer matches than topN is not an error.
func TestRank_ShortListReturnedAsIs(t *testing.T) {
	ranked := Rank([]model.Match{matchAt(10, 0.7)}, 20)
	assert.Len(t, ranked, 1)

	assert.Empty(t, Rank(nil, 20))
}

// TestRank_Idempotent: ranking a ranked list changes nothing.
func TestRank_Idempotent(t *testing.T) {
	matches := []model.Match{
		matchAt(10, 0.7),
		matchAt(20, 0.9),
		matchAt(30, 0.9),
		matchAt(40, 0.8),
	}

	once := Rank(matches, 3)
	twice := Rank(once, 3)
	assert.Equal(t, once, twice)
}

// TestRank_DoesNotMutateInput: the caller's slice keeps its original order.
func TestRank_DoesNotMutateInput(t *testing.T) {
	matches := []model.Match{
		matchAt(10, 0.7),
		matchAt(20, 0.9),
	}

	_ = Rank(matches, 10)
	assert.Equal(t, 10, matches[0].End)
	assert.Equal(t, 20, matches[1].End)
}

// TestRerank_DecayPrefersRecent: with a strong enough decay a slightly weaker
// but much more recent match overtakes an older, stronger one.
func TestRerank_DecayPrefersRecent(t *testing.T) {
	rs := &model.ResultSet{
		TargetEnd: 1000,
		Matches: []model.Match{
			matchAt(100, 0.95), // 900 bars old
			matchAt(990, 0.90), // 10 bars old
		},
	}

	plain := Rank(rs.Matches, 10)
	assert.Equal(t, 100, plain[0].End, "plain ranking favors the higher score")

	decayed := Rerank(rs, DecayConfig{Lambda: 0.01})
	require.Len(t, decayed, 2)
	assert.Equal(t, 990, decayed[0].End, "decay flips the order")

	want := 0.95 * math.Exp(-0.01*900)
	assert.InDelta(t, want, decayed[1].FinalScore, 1e-12)
	assert.Equal(t, 900, decayed[1].AgeBars)
}

// TestRerank_ZeroLambdaMatchesPlainOrder: without decay the view degenerates
// to the similarity order.
func TestRerank_ZeroLambdaMatchesPlainOrder(t *testing.T) {
	rs := &model.ResultSet{
		TargetEnd: 1000,
		Matches: []model.Match{
			matchAt(100, 0.95),
			matchAt(990, 0.90),
			matchAt(500, 0.92),
		},
	}

	decayed := Rerank(rs, DecayConfig{Lambda: 0})
	got := make([]int, len(decayed))
	for i, d := range decayed {
		got[i] = d.End
		assert.Equal(t, 1.0, d.Weight)
	}
	assert.Equal(t, []int{100, 500, 990}, got)
}

func ends(matches []model.Match) []int {
	out := make([]int, len(matches))
	for i, m := range matches {
		out[i] = m.End
	}
	return out
}
