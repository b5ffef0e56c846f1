// Package embed supplies word-vector providers for the semantic index. The
// index only consumes the Provider interface; model loading lives here.
package embed

import "github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/internal/indexer/vector"

// Provider resolves a single term to a fixed-dimension vector.
type Provider interface {
	// Vector returns the term's vector, or false when the term cannot be
	// resolved.
	Vector(term string) (vector.Dense, bool)

	// Dimension returns D, the length of every returned vector.
	Dimension() int
}

// Map is an in-memory Provider backed by a plain map.
type Map struct {
	dim     int
	vectors map[string]vector.Dense
}

// NewMap builds a Map provider. Vectors whose length differs from dim are
// dropped.
func NewMap(dim int, vectors map[string][]float32) *Map {
	m := &Map{dim: dim, vectors: make(map[string]vector.Dense, len(vectors))}
	for term, v := range vectors {
		if len(v) != dim {
			continue
		}
		m.vectors[term] = vector.Dense(v)
	}
	return m
}

func (m *Map) Vector(term string) (vector.Dense, bool) {
	v, ok := m.vectors[term]
	return v, ok
}

func (m *Map) Dimension() int {
	return m.dim
}

// Len returns the vocabulary size.
func (m *Map) Len() int {
	return len(m.vectors)
}
