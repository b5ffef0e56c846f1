// Package index holds the immutable search snapshot: the TF-IDF lexical
// index, the field-aware inverted index used by BM25F, and the semantic
// document embeddings. A Builder assembles a Snapshot from per-document
// partials in a single goroutine.
package index

import (
	"math"

	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/internal/indexer/vector"
)

// DefaultTextField is the field TF-IDF and the document embeddings are built
// from when LexicalOptions.Fields is empty.
const DefaultTextField = "body"

// LexicalOptions are the TF-IDF build options. They are stored with the
// snapshot so queries are weighted the way documents were.
type LexicalOptions struct {
	SmoothIDF bool `json:"smooth_idf"`
	Normalize bool `json:"normalize"`
	// Fields feed the TF-IDF counts and the mean embedding. Other fields,
	// such as a title taken from the file name, only reach BM25F.
	Fields []string `json:"fields,omitempty"`
}

// TextFields returns Fields, or the body field when none are set.
func (o LexicalOptions) TextFields() []string {
	if len(o.Fields) == 0 {
		return []string{DefaultTextField}
	}
	return o.Fields
}

// IDF returns ln(1 + n/df) when smooth, else ln(n/df). A term that occurs
// in no document weighs 0.
func IDF(n, df int, smooth bool) float64 {
	if n <= 0 || df <= 0 {
		return 0
	}
	ratio := float64(n) / float64(df)
	if smooth {
		return math.Log(1 + ratio)
	}
	return math.Log(ratio)
}

// LexicalIndex maps each document to its TF-IDF weighted vector.
type LexicalIndex struct {
	Options LexicalOptions           `json:"options"`
	IDF     map[string]float64       `json:"idf"`
	Vectors map[string]vector.Sparse `json:"vectors"`

	norms map[string]float64
}

// Weigh turns raw term counts into a TF-IDF vector using the corpus IDF.
// Terms unknown to the corpus get weight 0 and are left out.
func (l *LexicalIndex) Weigh(counts map[string]int) vector.Sparse {
	v := make(vector.Sparse, len(counts))
	for term, f := range counts {
		if w := float64(f) * l.IDF[term]; w != 0 {
			v[term] = w
		}
	}
	if l.Options.Normalize {
		v.Normalize()
	}
	return v
}

// Vectorize weighs a query's terms, counting repetitions.
func (l *LexicalIndex) Vectorize(terms []string) vector.Sparse {
	return l.Weigh(Counts(terms))
}

// Norm returns the cached L2 norm of a document vector.
func (l *LexicalIndex) Norm(docID string) float64 {
	if n, ok := l.norms[docID]; ok {
		return n
	}
	return l.Vectors[docID].Norm()
}

func (l *LexicalIndex) prepare() {
	l.norms = make(map[string]float64, len(l.Vectors))
	for id, v := range l.Vectors {
		l.norms[id] = v.Norm()
	}
}

// Counts returns the term multiset of terms.
func Counts(terms []string) map[string]int {
	counts := make(map[string]int, len(terms))
	for _, t := range terms {
		counts[t]++
	}
	return counts
}
