// Package scorer computes the three relevance signals over a snapshot:
// TF-IDF cosine, field-weighted BM25F, and embedding cosine. Every scorer
// returns one score per document, indexed by enumeration order.
package scorer

import (
	"sort"

	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/internal/indexer/index"
)

// Scores holds one score per document in enumeration order.
type Scores []float64

func newScores(snap *index.Snapshot) Scores {
	return make(Scores, snap.DocCount())
}

// Max returns the largest score, 0 for an empty slice.
func (s Scores) Max() float64 {
	var m float64
	for _, x := range s {
		if x > m {
			m = x
		}
	}
	return m
}

// unique returns the distinct terms in sorted order.
func unique(terms []string) []string {
	seen := make(map[string]struct{}, len(terms))
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
