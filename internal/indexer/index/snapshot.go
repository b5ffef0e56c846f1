package index

import (
	"time"

	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/internal/indexer/vector"
)

// Snapshot is one immutable build of all three indices. It is written once
// by a Builder and only read afterwards, so it is safe for concurrent use.
type Snapshot struct {
	Version  string         `json:"version"`
	BuiltAt  time.Time      `json:"built_at"`
	DocIDs   []string       `json:"doc_ids"`
	Lexical  *LexicalIndex  `json:"lexical"`
	Inverted *InvertedIndex `json:"inverted"`
	Semantic *SemanticIndex `json:"semantic"`

	ordinals map[string]int
}

// NewVersion derives a sortable snapshot version from the build time.
func NewVersion(t time.Time) string {
	return t.UTC().Format("20060102T150405.000000000Z")
}

// Prepare rebuilds the derived lookup tables. Decoders must call it before
// the snapshot is served.
func (s *Snapshot) Prepare() {
	if s.Lexical == nil {
		s.Lexical = &LexicalIndex{}
	}
	if s.Lexical.IDF == nil {
		s.Lexical.IDF = map[string]float64{}
	}
	if s.Lexical.Vectors == nil {
		s.Lexical.Vectors = map[string]vector.Sparse{}
	}
	if s.Inverted == nil {
		s.Inverted = &InvertedIndex{}
	}
	if s.Inverted.Postings == nil {
		s.Inverted.Postings = map[string]PostingList{}
	}
	if s.Semantic == nil {
		s.Semantic = &SemanticIndex{}
	}
	if s.Semantic.Vectors == nil {
		s.Semantic.Vectors = map[string]vector.Dense{}
	}
	s.ordinals = make(map[string]int, len(s.DocIDs))
	for i, id := range s.DocIDs {
		s.ordinals[id] = i
	}
	s.Lexical.prepare()
}

// Ordinal returns the enumeration position of docID.
func (s *Snapshot) Ordinal(docID string) (int, bool) {
	i, ok := s.ordinals[docID]
	return i, ok
}

func (s *Snapshot) DocCount() int {
	return len(s.DocIDs)
}

func (s *Snapshot) Terms() int {
	if s.Inverted == nil {
		return 0
	}
	return s.Inverted.Terms()
}

// Dimension returns the embedding dimension, 0 when built without a model.
func (s *Snapshot) Dimension() int {
	if s.Semantic == nil {
		return 0
	}
	return s.Semantic.Dimension
}
