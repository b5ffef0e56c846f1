package scorer

import (
	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/internal/indexer/index"
)

// TFIDF returns the cosine between the weighted query vector and every
// document vector, restricted to the query terms. Only documents sharing a
// term with the query can score above 0, so they are found via the postings.
func TFIDF(snap *index.Snapshot, query []string) Scores {
	scores := newScores(snap)
	lex := snap.Lexical
	q := lex.Vectorize(query)
	qNorm := q.Norm()
	if qNorm == 0 {
		return scores
	}
	terms := q.Terms()
	for _, term := range terms {
		for _, p := range snap.Inverted.Search(term) {
			ord, ok := snap.Ordinal(p.DocID)
			if !ok || scores[ord] != 0 {
				continue
			}
			dNorm := lex.Norm(p.DocID)
			if dNorm == 0 {
				continue
			}
			scores[ord] = lex.Vectors[p.DocID].DotTerms(q, terms) / (dNorm * qNorm)
		}
	}
	return scores
}
