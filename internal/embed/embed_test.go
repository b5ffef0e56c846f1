package embed

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/internal/indexer/vector"
)

const sampleVec = `4 3
perro 1 0 0
Perro 9 9 9
gato 0.5 0.5 0
canción 0 0 1
pájaro 0 1 0
`

func TestReadVec(t *testing.T) {
	m, err := ReadVec(strings.NewReader(sampleVec), nil, strings.ToLower)
	if err != nil {
		t.Fatalf("ReadVec: %v", err)
	}
	if m.Dimension() != 3 {
		t.Fatalf("Dimension = %d, want 3", m.Dimension())
	}
	v, ok := m.Vector("perro")
	if !ok || v[0] != 1 {
		t.Errorf("first occurrence should win, got %v %v", v, ok)
	}
	if _, ok := m.Vector("raton"); ok {
		t.Error("unexpected vector for unknown word")
	}
}

func TestReadVecKeepAndKey(t *testing.T) {
	keep := map[string]struct{}{"cancion": {}, "gato": {}}
	fold := func(s string) string {
		return strings.NewReplacer("ó", "o", "á", "a").Replace(strings.ToLower(s))
	}
	m, err := ReadVec(strings.NewReader(sampleVec), keep, fold)
	if err != nil {
		t.Fatalf("ReadVec: %v", err)
	}
	if m.Len() != 2 {
		t.Errorf("Len = %d, want 2", m.Len())
	}
	if _, ok := m.Vector("cancion"); !ok {
		t.Error("folded key not stored")
	}
}

func TestReadVecWithoutHeader(t *testing.T) {
	m, err := ReadVec(strings.NewReader("a 1 2\nb 3 4\n"), nil, nil)
	if err != nil {
		t.Fatalf("ReadVec: %v", err)
	}
	if m.Dimension() != 2 || m.Len() != 2 {
		t.Errorf("got dim %d len %d", m.Dimension(), m.Len())
	}
}

func TestReadVecRejectsRaggedRows(t *testing.T) {
	if _, err := ReadVec(strings.NewReader("2 3\na 1 2 3\nb 1 2\n"), nil, nil); err == nil {
		t.Error("expected error for short row")
	}
	if _, err := ReadVec(strings.NewReader("a 1 x\n"), nil, nil); err == nil {
		t.Error("expected error for bad float")
	}
}

func TestLoadVecFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.vec")
	if err := os.WriteFile(path, []byte(sampleVec), 0644); err != nil {
		t.Fatal(err)
	}
	m, err := LoadVecFile(path, nil, nil)
	if err != nil {
		t.Fatalf("LoadVecFile: %v", err)
	}
	if m.Len() != 5 {
		t.Errorf("Len = %d, want 5", m.Len())
	}
	if _, err := LoadVecFile(filepath.Join(t.TempDir(), "missing.vec"), nil, nil); err == nil {
		t.Error("expected error for missing file")
	}
}

type countingProvider struct {
	calls int
	inner Provider
}

func (c *countingProvider) Vector(term string) (vector.Dense, bool) {
	c.calls++
	return c.inner.Vector(term)
}

func (c *countingProvider) Dimension() int { return c.inner.Dimension() }

func TestCachedMemoizesHitsAndMisses(t *testing.T) {
	inner := &countingProvider{inner: NewMap(2, map[string][]float32{"a": {1, 0}})}
	c := NewCached(inner, 8)
	for i := 0; i < 3; i++ {
		if _, ok := c.Vector("a"); !ok {
			t.Fatal("expected hit for a")
		}
		if _, ok := c.Vector("b"); ok {
			t.Fatal("expected miss for b")
		}
	}
	if inner.calls != 2 {
		t.Errorf("inner calls = %d, want 2", inner.calls)
	}
	if c.Dimension() != 2 || c.Len() != 2 {
		t.Errorf("Dimension %d Len %d", c.Dimension(), c.Len())
	}
}

func TestNewMapDropsWrongDimension(t *testing.T) {
	m := NewMap(2, map[string][]float32{"ok": {1, 2}, "bad": {1}})
	if m.Len() != 1 {
		t.Errorf("Len = %d, want 1", m.Len())
	}
}
