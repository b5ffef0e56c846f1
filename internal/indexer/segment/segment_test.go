package segment

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/internal/indexer/vector"
)

func testSnapshot(t *testing.T, version string) *index.Snapshot {
	t.Helper()
	b := index.NewBuilder(index.LexicalOptions{SmoothIDF: true, Normalize: true}, 2)
	docs := []index.Partial{
		{DocID: "doc1", Fields: map[string]map[string]int{"body": {"gato": 1, "perro": 1}}, Lengths: map[string]int{"body": 2}, Embedding: vector.Dense{0.5, 0.5}},
		{DocID: "doc2", Fields: map[string]map[string]int{"body": {"perro": 2}, "title": {"perro": 1}}, Lengths: map[string]int{"body": 2, "title": 1}, Embedding: vector.Dense{1, 0}},
		{DocID: "doc3", Fields: map[string]map[string]int{"body": {"pajaro": 1}}, Lengths: map[string]int{"body": 1}},
	}
	for _, d := range docs {
		if err := b.Add(d); err != nil {
			t.Fatal(err)
		}
	}
	return b.Finish(version, time.Date(2026, 1, 2, 3, 4, 5, 6, time.UTC))
}

func TestWriteOpenRoundTrip(t *testing.T) {
	dir := t.TempDir()
	snap := testSnapshot(t, "v1")
	path, err := NewWriter(dir).Write(snap)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if filepath.Base(path) != "v1.hsnap" {
		t.Errorf("path = %s", path)
	}

	got, err := OpenLatest(dir)
	if err != nil {
		t.Fatalf("OpenLatest: %v", err)
	}
	if got.Version != "v1" || !got.BuiltAt.Equal(snap.BuiltAt) {
		t.Errorf("metadata = %s %s", got.Version, got.BuiltAt)
	}
	if !reflect.DeepEqual(got.DocIDs, snap.DocIDs) {
		t.Errorf("DocIDs = %v", got.DocIDs)
	}
	if !reflect.DeepEqual(got.Lexical.Vectors, snap.Lexical.Vectors) || !reflect.DeepEqual(got.Lexical.IDF, snap.Lexical.IDF) {
		t.Error("lexical index differs after round trip")
	}
	if !reflect.DeepEqual(got.Lexical.Options, snap.Lexical.Options) {
		t.Errorf("options = %+v", got.Lexical.Options)
	}
	if !reflect.DeepEqual(got.Inverted.Postings, snap.Inverted.Postings) || !reflect.DeepEqual(got.Inverted.Stats, snap.Inverted.Stats) {
		t.Error("inverted index differs after round trip")
	}
	if !reflect.DeepEqual(got.Semantic, snap.Semantic) {
		t.Error("semantic index differs after round trip")
	}
	if ord, ok := got.Ordinal("doc2"); !ok || ord != 1 {
		t.Errorf("Ordinal after load = %d %v", ord, ok)
	}

	h, err := ReadHeader(path)
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	if h.DocCount != 3 || h.TermCount != 3 || h.Dimension != 2 {
		t.Errorf("header = %+v", h)
	}
}

func TestCurrentFollowsLatestWrite(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)
	for _, v := range []string{"v1", "v2"} {
		if _, err := w.Write(testSnapshot(t, v)); err != nil {
			t.Fatal(err)
		}
	}
	got, err := OpenLatest(dir)
	if err != nil {
		t.Fatal(err)
	}
	if got.Version != "v2" {
		t.Errorf("latest = %s, want v2", got.Version)
	}
	if _, err := os.Stat(filepath.Join(dir, CurrentFile+".tmp")); !os.IsNotExist(err) {
		t.Error("temporary CURRENT left behind")
	}
}

func TestCorruptionDetected(t *testing.T) {
	tests := []struct {
		name   string
		mutate func([]byte) []byte
	}{
		{"bad magic", func(b []byte) []byte { b[0] ^= 0xFF; return b }},
		{"bad version", func(b []byte) []byte { b[4] = 9; return b }},
		{"flipped payload byte", func(b []byte) []byte { b[len(b)-1] ^= 0x01; return b }},
		{"truncated payload", func(b []byte) []byte { return b[:len(b)-3] }},
		{"truncated header", func(b []byte) []byte { return b[:10] }},
		{"huge raw size", func(b []byte) []byte { binary.LittleEndian.PutUint64(b[40:48], 1<<62); return b }},
		{"zero raw size", func(b []byte) []byte { binary.LittleEndian.PutUint64(b[40:48], 0); return b }},
		{"raw size off by one", func(b []byte) []byte {
			binary.LittleEndian.PutUint64(b[40:48], binary.LittleEndian.Uint64(b[40:48])+1)
			return b
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path, err := NewWriter(dir).Write(testSnapshot(t, "v1"))
			if err != nil {
				t.Fatal(err)
			}
			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			if err := os.WriteFile(path, tt.mutate(data), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := Open(path); !errors.Is(err, ErrCorruptSnapshot) {
				t.Errorf("Open error = %v, want ErrCorruptSnapshot", err)
			}
		})
	}
}

func TestOpenLatestWithoutSnapshot(t *testing.T) {
	if _, err := OpenLatest(t.TempDir()); !errors.Is(err, ErrNoSnapshot) {
		t.Errorf("err = %v, want ErrNoSnapshot", err)
	}
}

func TestPrune(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)
	for _, v := range []string{"v1", "v2", "v3", "v4"} {
		if _, err := w.Write(testSnapshot(t, v)); err != nil {
			t.Fatal(err)
		}
	}
	removed, err := w.Prune(2)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}
	for _, v := range []string{"v3", "v4"} {
		if _, err := os.Stat(filepath.Join(dir, v+Extension)); err != nil {
			t.Errorf("%s missing after prune: %v", v, err)
		}
	}
	if _, err := OpenLatest(dir); err != nil {
		t.Errorf("latest unreadable after prune: %v", err)
	}
}
