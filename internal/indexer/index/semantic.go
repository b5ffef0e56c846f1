package index

import (
	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/internal/embed"
	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/internal/indexer/vector"
)

// SemanticIndex holds one embedding per document. Documents without a single
// resolvable token map to the zero vector.
type SemanticIndex struct {
	Dimension int                     `json:"dimension"`
	Vectors   map[string]vector.Dense `json:"vectors"`
}

// Vector returns the embedding of docID, or nil when unknown.
func (s *SemanticIndex) Vector(docID string) vector.Dense {
	return s.Vectors[docID]
}

// Embed averages the provider vectors of every resolvable term, repetitions
// included. A nil provider yields an empty vector.
func Embed(p embed.Provider, terms []string) vector.Dense {
	if p == nil {
		return vector.Zero(0)
	}
	dim := p.Dimension()
	vecs := make([]vector.Dense, 0, len(terms))
	for _, t := range terms {
		if v, ok := p.Vector(t); ok {
			vecs = append(vecs, v)
		}
	}
	return vector.Mean(dim, vecs)
}
