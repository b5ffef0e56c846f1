package scorer

import (
	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/internal/indexer/vector"
)

// Semantic returns the cosine between the query embedding and every
// document embedding. A zero or mismatched query vector scores 0 everywhere.
func Semantic(snap *index.Snapshot, query vector.Dense) Scores {
	scores := newScores(snap)
	if snap.Dimension() == 0 || len(query) != snap.Dimension() || query.Norm() == 0 {
		return scores
	}
	for i, id := range snap.DocIDs {
		scores[i] = query.Cosine(snap.Semantic.Vector(id))
	}
	return scores
}
