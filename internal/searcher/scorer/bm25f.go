package scorer

import (
	"math"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/internal/indexer/index"
)

// BM25FParams are the saturation, length normalization and per-field boost
// parameters. Fields without an explicit weight get 1.0.
type BM25FParams struct {
	K1           float64
	B            float64
	FieldWeights map[string]float64
}

// DefaultBM25F returns k1=1.5, b=0.75 with title boosted 2x over body.
func DefaultBM25F() BM25FParams {
	return BM25FParams{
		K1:           1.5,
		B:            0.75,
		FieldWeights: map[string]float64{"title": 2.0, "body": 1.0},
	}
}

func (p BM25FParams) weight(field string) float64 {
	if w, ok := p.FieldWeights[field]; ok {
		return w
	}
	return 1.0
}

// BM25IDF returns ln((n − df + 0.5)/(df + 0.5) + 1), which stays positive
// even for terms present in every document.
func BM25IDF(n, df int) float64 {
	return math.Log((float64(n-df)+0.5)/(float64(df)+0.5) + 1)
}

// Saturate returns the BM25 term-frequency component for a field of length
// fieldLen whose corpus average is avgLen.
func (p BM25FParams) Saturate(f, fieldLen int, avgLen float64) float64 {
	if f <= 0 {
		return 0
	}
	ratio := 0.0
	if avgLen > 0 {
		ratio = float64(fieldLen) / avgLen
	}
	denom := float64(f) + p.K1*(1-p.B+p.B*ratio)
	if denom <= 0 {
		return 0
	}
	return float64(f) * (p.K1 + 1) / denom
}

// BM25F scores the distinct query terms. Each field of a matching document
// is saturated against that field's own length statistics, weighted, and
// the per-field contributions are summed.
func BM25F(snap *index.Snapshot, query []string, params BM25FParams) Scores {
	scores := newScores(snap)
	inv := snap.Inverted
	n := inv.Stats.N
	for _, term := range unique(query) {
		postings := inv.Search(term)
		if len(postings) == 0 {
			continue
		}
		idf := BM25IDF(n, inv.DF(term))
		for _, p := range postings {
			ord, ok := snap.Ordinal(p.DocID)
			if !ok {
				continue
			}
			fields := make([]string, 0, len(p.Fields))
			for f := range p.Fields {
				fields = append(fields, f)
			}
			sort.Strings(fields)
			for _, field := range fields {
				tf := params.Saturate(p.Fields[field], inv.FieldLength(p.DocID, field), inv.AvgFieldLength(field))
				scores[ord] += idf * tf * params.weight(field)
			}
		}
	}
	return scores
}
