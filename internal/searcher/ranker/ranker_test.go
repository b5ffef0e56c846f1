package ranker

import (
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/internal/searcher/scorer"
)

func snapshotOf(t *testing.T, n int) *index.Snapshot {
	t.Helper()
	b := index.NewBuilder(index.LexicalOptions{}, 0)
	for i := 0; i < n; i++ {
		if err := b.Add(index.Partial{DocID: fmt.Sprintf("d%d", i)}); err != nil {
			t.Fatal(err)
		}
	}
	return b.Finish("v", time.Now())
}

var signals = Signals{
	TFIDF:    scorer.Scores{0.9, 0.1, 0.0, 0.5},
	BM25F:    scorer.Scores{0.2, 3.0, 1.0, 0.0},
	Semantic: scorer.Scores{0.1, 0.2, 0.9, -0.5},
}

func ids(docs []ScoredDoc) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.DocID
	}
	return out
}

// ranking returns the ids with positive scores in descending order.
func ranking(s scorer.Scores) []string {
	type p struct {
		i int
		v float64
	}
	ps := make([]p, 0, len(s))
	for i, v := range s {
		if v > 0 {
			ps = append(ps, p{i, v})
		}
	}
	sort.SliceStable(ps, func(a, b int) bool { return ps[a].v > ps[b].v })
	out := make([]string, len(ps))
	for k, x := range ps {
		out[k] = fmt.Sprintf("d%d", x.i)
	}
	return out
}

func TestFuseConvexCorners(t *testing.T) {
	snap := snapshotOf(t, 4)
	tests := []struct {
		name string
		w    Weights
		want []string
	}{
		{"tfidf only", Weights{TFIDF: 1, Semantic: 0}, ranking(signals.TFIDF)},
		{"bm25f only", Weights{TFIDF: 0, Semantic: 0}, ranking(signals.BM25F)},
		{"semantic only", Weights{TFIDF: 0.5, Semantic: 1}, ranking(signals.Semantic)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Fuse(snap, signals, tt.w, 10))
			if fmt.Sprint(got) != fmt.Sprint(tt.want) {
				t.Errorf("Fuse = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFuseResultInvariants(t *testing.T) {
	snap := snapshotOf(t, 4)
	for _, topN := range []int{1, 2, 10} {
		got := Fuse(snap, signals, Weights{TFIDF: 0.5, Semantic: 0.3}, topN)
		if len(got) > topN {
			t.Errorf("topN=%d: %d results", topN, len(got))
		}
		for i, d := range got {
			if d.Score <= 0 {
				t.Errorf("non-positive score %v", d.Score)
			}
			if i > 0 && got[i-1].Score < d.Score {
				t.Errorf("not descending at %d", i)
			}
		}
	}
}

func TestFuseBreakdown(t *testing.T) {
	snap := snapshotOf(t, 4)
	got := Fuse(snap, signals, Weights{TFIDF: 0.5, Semantic: 0.5}, 10)
	for _, d := range got {
		want := 0.5*(0.5*d.TFIDF+0.5*d.BM25F) + 0.5*d.Semantic
		if d.Score != want {
			t.Errorf("%s: score %v, breakdown gives %v", d.DocID, d.Score, want)
		}
		if d.TFIDF != signals.TFIDF[d.Ordinal] || d.BM25F != signals.BM25F[d.Ordinal] {
			t.Errorf("%s: breakdown does not match signals", d.DocID)
		}
	}
}

func TestFuseTiesFollowEnumerationOrder(t *testing.T) {
	snap := snapshotOf(t, 5)
	flat := Signals{TFIDF: scorer.Scores{1, 1, 1, 1, 1}}
	got := ids(Fuse(snap, flat, Weights{TFIDF: 1}, 3))
	if fmt.Sprint(got) != "[d0 d1 d2]" {
		t.Errorf("ties = %v", got)
	}
}

func TestFuseNilSignalsAndDefaultTopN(t *testing.T) {
	snap := snapshotOf(t, 12)
	if got := Fuse(snap, Signals{}, Weights{TFIDF: 0.5}, 5); len(got) != 0 {
		t.Errorf("no signals should yield nothing, got %v", got)
	}
	all := make(scorer.Scores, 12)
	for i := range all {
		all[i] = float64(12 - i)
	}
	if got := Fuse(snap, Signals{BM25F: all}, Weights{}, 0); len(got) != DefaultTopN {
		t.Errorf("default topN gave %d results", len(got))
	}
}
