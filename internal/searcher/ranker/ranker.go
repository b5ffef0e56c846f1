// Package ranker fuses the lexical and semantic signals into one score per
// document and keeps the best topN.
package ranker

import (
	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/internal/searcher/merger"
	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/internal/searcher/scorer"
)

// DefaultTopN is used when a request asks for no particular size.
const DefaultTopN = 10

// ScoredDoc is one ranked hit with its per-signal breakdown.
type ScoredDoc struct {
	DocID    string  `json:"doc_id"`
	Score    float64 `json:"score"`
	TFIDF    float64 `json:"tfidf"`
	BM25F    float64 `json:"bm25f"`
	Semantic float64 `json:"semantic"`
	Ordinal  int     `json:"-"`
}

// Weights are the two convex mixing weights, each in [0,1]:
//
//	lexical = TFIDF·tfidf + (1−TFIDF)·bm25f
//	final   = (1−Semantic)·lexical + Semantic·semantic
type Weights struct {
	TFIDF    float64
	Semantic float64
}

// Signals carries the per-document scores of each scorer. A nil signal
// contributes 0.
type Signals struct {
	TFIDF    scorer.Scores
	BM25F    scorer.Scores
	Semantic scorer.Scores
}

// Fuse combines the signals, drops documents whose fused score is not
// positive, and returns at most topN hits sorted by descending score with
// ties broken by enumeration order.
func Fuse(snap *index.Snapshot, sig Signals, w Weights, topN int) []ScoredDoc {
	if topN <= 0 {
		topN = DefaultTopN
	}
	top := merger.New(topN, Better)
	for i, id := range snap.DocIDs {
		tf, bm, sem := at(sig.TFIDF, i), at(sig.BM25F, i), at(sig.Semantic, i)
		lexical := w.TFIDF*tf + (1-w.TFIDF)*bm
		final := (1-w.Semantic)*lexical + w.Semantic*sem
		if !(final > 0) {
			continue
		}
		top.Push(ScoredDoc{
			DocID:    id,
			Score:    final,
			TFIDF:    tf,
			BM25F:    bm,
			Semantic: sem,
			Ordinal:  i,
		})
	}
	return top.Sorted()
}

// Better orders hits by score, then by enumeration order.
func Better(a, b ScoredDoc) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.Ordinal < b.Ordinal
}

func at(s scorer.Scores, i int) float64 {
	if i < len(s) {
		return s[i]
	}
	return 0
}
