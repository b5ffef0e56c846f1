package scorer

import (
	"math"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/internal/indexer/vector"
)

type testDoc struct {
	id     string
	fields map[string][]string
	emb    vector.Dense
}

func build(t *testing.T, opts index.LexicalOptions, dim int, docs ...testDoc) *index.Snapshot {
	t.Helper()
	b := index.NewBuilder(opts, dim)
	for _, d := range docs {
		p := index.Partial{DocID: d.id, Fields: map[string]map[string]int{}, Lengths: map[string]int{}, Embedding: d.emb}
		for f, terms := range d.fields {
			p.Fields[f] = index.Counts(terms)
			p.Lengths[f] = len(terms)
		}
		if err := b.Add(p); err != nil {
			t.Fatal(err)
		}
	}
	return b.Finish("test", time.Now())
}

func body(terms ...string) map[string][]string {
	return map[string][]string{"body": terms}
}

func scenario(t *testing.T) *index.Snapshot {
	return build(t, index.LexicalOptions{SmoothIDF: true, Normalize: true}, 2,
		testDoc{id: "doc1", fields: body("gato", "perro"), emb: vector.Dense{0, 1}},
		testDoc{id: "doc2", fields: body("perro", "perro"), emb: vector.Dense{1, 0}},
		testDoc{id: "doc3", fields: body("pajaro"), emb: vector.Dense{-1, 0}},
	)
}

func TestTFIDFScenario(t *testing.T) {
	s := TFIDF(scenario(t), []string{"perro"})
	if !(s[1] > s[0]) {
		t.Errorf("doc2 (%v) should outrank doc1 (%v)", s[1], s[0])
	}
	if s[2] != 0 {
		t.Errorf("doc3 = %v, want 0", s[2])
	}
	for i, x := range s {
		if x < 0 || x > 1+1e-9 {
			t.Errorf("score[%d] = %v outside [0,1]", i, x)
		}
	}
}

func TestTFIDFWithoutNormalization(t *testing.T) {
	snap := build(t, index.LexicalOptions{SmoothIDF: false, Normalize: false}, 0,
		testDoc{id: "a", fields: body("perro", "perro", "gato")},
		testDoc{id: "b", fields: body("gato")},
		testDoc{id: "c", fields: body("raton")},
	)
	s := TFIDF(snap, []string{"perro"})
	perro, gato := 2*math.Log(3), math.Log(1.5)
	want := perro / math.Sqrt(perro*perro+gato*gato)
	if math.Abs(s[0]-want) > 1e-9 {
		t.Errorf("a = %v, want %v", s[0], want)
	}
	if s[1] != 0 || s[2] != 0 {
		t.Errorf("non-matching docs scored: %v", s)
	}
}

func TestTFIDFUnknownAndEmptyQuery(t *testing.T) {
	snap := scenario(t)
	for _, q := range [][]string{nil, {"raton"}} {
		if TFIDF(snap, q).Max() != 0 {
			t.Errorf("query %v should score 0 everywhere", q)
		}
	}
}

func TestBM25FScenario(t *testing.T) {
	s := BM25F(scenario(t), []string{"perro", "perro"}, DefaultBM25F())
	if !(s[1] > s[0] && s[0] > 0) {
		t.Errorf("scores = %v, want doc2 > doc1 > 0", s)
	}
	if s[2] != 0 {
		t.Errorf("doc3 = %v", s[2])
	}
}

func TestBM25FMatchesSingleFieldFormula(t *testing.T) {
	snap := scenario(t)
	p := DefaultBM25F()
	s := BM25F(snap, []string{"perro"}, p)
	idf := BM25IDF(3, 2)
	avg := 5.0 / 3
	want := idf * 2 * (p.K1 + 1) / (2 + p.K1*(1-p.B+p.B*2/avg))
	if math.Abs(s[1]-want) > 1e-12 {
		t.Errorf("doc2 = %v, want %v", s[1], want)
	}
}

func TestBM25FNonDecreasingInFrequency(t *testing.T) {
	p := DefaultBM25F()
	prev := 0.0
	for f := 1; f <= 20; f++ {
		got := p.Saturate(f, 20, 10)
		if got < prev {
			t.Fatalf("Saturate(%d) = %v < %v", f, got, prev)
		}
		prev = got
	}
	if p.Saturate(3, 10, 0) <= 0 {
		t.Error("zero average length should still score")
	}
	if p.Saturate(0, 10, 5) != 0 {
		t.Error("zero frequency should score 0")
	}
}

func TestTFIDFIgnoresTitleOnlyTerms(t *testing.T) {
	snap := build(t, index.LexicalOptions{SmoothIDF: true, Normalize: true}, 0,
		testDoc{id: "perro", fields: map[string][]string{"title": {"perro"}, "body": {"gato"}}},
		testDoc{id: "x", fields: body("raton")},
	)
	if s := TFIDF(snap, []string{"perro"}); s[0] != 0 || s[1] != 0 {
		t.Errorf("title-only term matched through TF-IDF: %v", s)
	}
	if s := BM25F(snap, []string{"perro"}, DefaultBM25F()); !(s[0] > 0) {
		t.Errorf("BM25F should still see the title: %v", s)
	}
}

func TestBM25FFieldWeights(t *testing.T) {
	snap := build(t, index.LexicalOptions{}, 0,
		testDoc{id: "titled", fields: map[string][]string{"title": {"perro"}, "body": {"gato"}}},
		testDoc{id: "plain", fields: map[string][]string{"title": {"gato"}, "body": {"perro"}}},
	)
	s := BM25F(snap, []string{"perro"}, DefaultBM25F())
	if !(s[0] > s[1]) {
		t.Errorf("title match (%v) should outrank body match (%v)", s[0], s[1])
	}
	flat := BM25FParams{K1: 1.5, B: 0.75}
	s = BM25F(snap, []string{"perro"}, flat)
	if math.Abs(s[0]-s[1]) > 1e-12 {
		t.Errorf("unweighted fields should tie: %v", s)
	}
}

func TestBM25IDFPositive(t *testing.T) {
	if BM25IDF(3, 3) <= 0 {
		t.Error("idf of a term in every document should stay positive")
	}
	if !(BM25IDF(10, 1) > BM25IDF(10, 5)) {
		t.Error("idf should decrease with df")
	}
}

func TestSemantic(t *testing.T) {
	snap := scenario(t)
	s := Semantic(snap, vector.Dense{1, 0})
	if math.Abs(s[1]-1) > 1e-9 || s[0] != 0 || s[2] >= 0 {
		t.Errorf("scores = %v", s)
	}
	if Semantic(snap, vector.Dense{0, 0}).Max() != 0 {
		t.Error("zero query should score 0")
	}
	if Semantic(snap, vector.Dense{1, 0, 0}).Max() != 0 {
		t.Error("mismatched dimension should score 0")
	}
	noModel := build(t, index.LexicalOptions{}, 0, testDoc{id: "a", fields: body("x")})
	if Semantic(noModel, nil).Max() != 0 {
		t.Error("snapshot without embeddings should score 0")
	}
}
