// Package rank orders scored matches and truncates them to the requested
// count.
package rank

import (
	"sort"

	"github.com/kabuist001/stock-pattern-matcher/pkg/model"
)

// Rank sorts matches by similarity descending, breaking ties in favor of the
// more recent candidate position, and truncates to topN. Fewer than topN
// matches is not an error; the short list is returned as-is. The input slice
// is not modified and the operation is idempotent.
func Rank(matches []model.Match, topN int) []model.Match {
	ranked := make([]model.Match, len(matches))
	copy(ranked, matches)

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Similarity != ranked[j].Similarity {
			return ranked[i].Similarity > ranked[j].Similarity
		}
		// more recent analogues are considered more informative
		return ranked[i].End > ranked[j].End
	})

	if topN > 0 && len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked
}

// Apply ranks a result set in place of its unranked matches and returns the
// same set for chaining.
func Apply(rs *model.ResultSet, topN int) *model.ResultSet {
	rs.Matches = Rank(rs.Matches, topN)
	return rs
}
