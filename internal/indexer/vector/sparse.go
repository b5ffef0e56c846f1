// Package vector holds the sparse term-weight and dense embedding primitives
// shared by the index builder and the three scorers.
package vector

import (
	"math"
	"sort"
)

// Sparse maps a term to its weight. Absent terms weigh zero.
type Sparse map[string]float64

// Get returns the weight of term, or 0 when the term is absent.
func (s Sparse) Get(term string) float64 {
	return s[term]
}

// Terms returns the terms of s in sorted order.
func (s Sparse) Terms() []string {
	terms := make([]string, 0, len(s))
	for t := range s {
		terms = append(terms, t)
	}
	sort.Strings(terms)
	return terms
}

// Norm returns the L2 norm. Squares are summed in term order so the result
// does not depend on map iteration.
func (s Sparse) Norm() float64 {
	var sum float64
	for _, t := range s.Terms() {
		sum += s[t] * s[t]
	}
	return math.Sqrt(sum)
}

// DotTerms returns the inner product restricted to terms, summed in the given
// order.
func (s Sparse) DotTerms(o Sparse, terms []string) float64 {
	var sum float64
	for _, t := range terms {
		sum += s[t] * o[t]
	}
	return sum
}

// Normalize divides every weight by the L2 norm in place. A zero vector is
// left untouched.
func (s Sparse) Normalize() Sparse {
	norm := s.Norm()
	if norm == 0 {
		return s
	}
	for term, w := range s {
		s[term] = w / norm
	}
	return s
}
