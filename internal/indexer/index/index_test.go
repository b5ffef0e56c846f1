package index

import (
	"math"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/internal/embed"
)

func partial(id string, fields map[string][]string) Partial {
	p := Partial{DocID: id, Fields: map[string]map[string]int{}, Lengths: map[string]int{}}
	for f, terms := range fields {
		p.Fields[f] = Counts(terms)
		p.Lengths[f] = len(terms)
	}
	return p
}

func buildScenario(t *testing.T, opts LexicalOptions) *Snapshot {
	t.Helper()
	b := NewBuilder(opts, 0)
	docs := []Partial{
		partial("doc1", map[string][]string{"body": {"gato", "perro"}}),
		partial("doc2", map[string][]string{"body": {"perro", "perro"}, "title": {"perro"}}),
		partial("doc3", map[string][]string{"body": {"pajaro"}}),
	}
	for _, d := range docs {
		if err := b.Add(d); err != nil {
			t.Fatalf("Add(%s): %v", d.DocID, err)
		}
	}
	return b.Finish("v1", time.Unix(0, 0))
}

func TestIDFStrictlyDecreasingInDF(t *testing.T) {
	for _, smooth := range []bool{true, false} {
		prev := math.Inf(1)
		for df := 1; df <= 10; df++ {
			got := IDF(10, df, smooth)
			if got >= prev {
				t.Fatalf("smooth=%v: idf(df=%d) = %v not below %v", smooth, df, got, prev)
			}
			prev = got
		}
	}
	if IDF(10, 0, true) != 0 || IDF(0, 0, false) != 0 {
		t.Error("degenerate idf should be 0")
	}
}

func TestBuilderStatistics(t *testing.T) {
	snap := buildScenario(t, LexicalOptions{SmoothIDF: true, Normalize: true})
	inv := snap.Inverted

	if inv.Stats.N != 3 || snap.DocCount() != 3 {
		t.Fatalf("N = %d, DocCount = %d", inv.Stats.N, snap.DocCount())
	}
	for term, postings := range inv.Postings {
		if inv.DF(term) != len(postings) {
			t.Errorf("df(%s) = %d, postings = %d", term, inv.DF(term), len(postings))
		}
		if inv.DF(term) > inv.Stats.N {
			t.Errorf("df(%s) exceeds N", term)
		}
	}
	if p := inv.Search("perro")[0]; p.DocID != "doc1" || p.Fields["body"] != 1 {
		t.Errorf("doc1 perro posting = %+v", p)
	}
	if p := inv.Search("perro")[1]; p.Fields["title"] != 1 || p.Fields["body"] != 2 {
		t.Errorf("per-field frequencies = %v", p.Fields)
	}
	if got := inv.AvgFieldLength("body"); math.Abs(got-5.0/3) > 1e-9 {
		t.Errorf("avg body length = %v", got)
	}
	if got := inv.AvgFieldLength("title"); got != 1 {
		t.Errorf("avg title length = %v, want 1 (only doc2 has a title)", got)
	}
	if inv.FieldLength("doc2", "body") != 2 {
		t.Errorf("doc2 body length = %d", inv.FieldLength("doc2", "body"))
	}
	if ord, ok := snap.Ordinal("doc3"); !ok || ord != 2 {
		t.Errorf("Ordinal(doc3) = %d %v", ord, ok)
	}
}

func TestBuilderLexicalUsesTextFieldsOnly(t *testing.T) {
	b := NewBuilder(LexicalOptions{SmoothIDF: true, Normalize: true}, 0)
	for _, p := range []Partial{
		partial("perro", map[string][]string{"title": {"perro"}, "body": {"gato"}}),
		partial("x", map[string][]string{"body": {"raton"}}),
	} {
		if err := b.Add(p); err != nil {
			t.Fatal(err)
		}
	}
	snap := b.Finish("v1", time.Unix(0, 0))

	if v := snap.Lexical.Vectors["perro"]; v.Get("perro") != 0 || v.Get("gato") == 0 {
		t.Errorf("lexical vector = %v, want only the body term", v)
	}
	if _, ok := snap.Lexical.IDF["perro"]; ok {
		t.Error("title-only term has a TF-IDF weight")
	}
	if snap.Inverted.DF("perro") != 1 {
		t.Errorf("BM25F df(perro) = %d, want 1", snap.Inverted.DF("perro"))
	}

	b = NewBuilder(LexicalOptions{Fields: []string{"title", "body"}}, 0)
	if err := b.Add(partial("perro", map[string][]string{"title": {"perro"}, "body": {"gato"}})); err != nil {
		t.Fatal(err)
	}
	if v := b.Finish("v2", time.Unix(0, 0)).Lexical.Vectors["perro"]; len(v) != 2 {
		t.Errorf("with title configured, lexical vector = %v", v)
	}
}

func TestBuilderPostingsFollowEnumerationOrder(t *testing.T) {
	snap := buildScenario(t, LexicalOptions{})
	postings := snap.Inverted.Search("perro")
	if len(postings) != 2 || postings[0].DocID != "doc1" || postings[1].DocID != "doc2" {
		t.Errorf("postings = %+v", postings)
	}
}

func TestBuilderNormalizedVectors(t *testing.T) {
	snap := buildScenario(t, LexicalOptions{SmoothIDF: true, Normalize: true})
	for id, v := range snap.Lexical.Vectors {
		if math.Abs(v.Norm()-1) > 1e-9 {
			t.Errorf("‖%s‖ = %v, want 1", id, v.Norm())
		}
		if math.Abs(snap.Lexical.Norm(id)-v.Norm()) > 1e-12 {
			t.Errorf("cached norm mismatch for %s", id)
		}
	}
}

func TestBuilderRejectsDuplicateIDs(t *testing.T) {
	b := NewBuilder(LexicalOptions{}, 0)
	if err := b.Add(partial("a", nil)); err != nil {
		t.Fatal(err)
	}
	if err := b.Add(partial("a", nil)); err == nil {
		t.Error("expected duplicate id error")
	}
}

func TestBuilderEmpty(t *testing.T) {
	snap := NewBuilder(LexicalOptions{SmoothIDF: true}, 4).Finish("empty", time.Now())
	if snap.DocCount() != 0 || snap.Terms() != 0 || snap.Dimension() != 4 {
		t.Errorf("empty snapshot: docs %d terms %d dim %d", snap.DocCount(), snap.Terms(), snap.Dimension())
	}
}

func TestBuilderPadsMissingEmbeddings(t *testing.T) {
	b := NewBuilder(LexicalOptions{}, 3)
	if err := b.Add(partial("a", map[string][]string{"body": {"x"}})); err != nil {
		t.Fatal(err)
	}
	snap := b.Finish("v", time.Now())
	if v := snap.Semantic.Vector("a"); len(v) != 3 || v.Norm() != 0 {
		t.Errorf("embedding = %v, want zero vector of dim 3", v)
	}
}

func TestVectorizeUnknownTerms(t *testing.T) {
	snap := buildScenario(t, LexicalOptions{SmoothIDF: true})
	q := snap.Lexical.Vectorize([]string{"perro", "perro", "raton"})
	if _, ok := q["raton"]; ok {
		t.Error("unknown term should have no weight")
	}
	want := 2 * IDF(3, 2, true)
	if math.Abs(q["perro"]-want) > 1e-12 {
		t.Errorf("w(perro) = %v, want %v", q["perro"], want)
	}
}

func TestEmbed(t *testing.T) {
	p := embed.NewMap(2, map[string][]float32{"perro": {1, 0}, "gato": {0, 1}})
	got := Embed(p, []string{"perro", "gato", "perro", "raton"})
	if math.Abs(float64(got[0])-2.0/3) > 1e-6 || math.Abs(float64(got[1])-1.0/3) > 1e-6 {
		t.Errorf("Embed = %v", got)
	}
	if v := Embed(p, []string{"raton"}); len(v) != 2 || v.Norm() != 0 {
		t.Errorf("unresolvable terms should give zero vector, got %v", v)
	}
	if v := Embed(nil, []string{"perro"}); len(v) != 0 {
		t.Errorf("nil provider = %v", v)
	}
}
