// Package benchmark contains Go benchmarks for the index build, snapshot
// persistence, and query pipeline, measuring throughput and allocation
// behaviour.
package benchmark

import (
	"context"
	"fmt"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/internal/embed"
	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/internal/indexer/segment"
	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/internal/indexer/tokenizer"
)

var vocabulary = []string{
	"busqueda", "indice", "documento", "termino", "consulta", "ranking",
	"semantica", "lexica", "vector", "sinonimo", "titulo", "cuerpo",
	"frecuencia", "longitud", "corpus", "fusion",
}

// syntheticCorpus builds n documents over a fixed vocabulary so every run
// sees the same term distribution.
func syntheticCorpus(n int) []corpus.Document {
	docs := make([]corpus.Document, n)
	for i := range docs {
		body := ""
		for j := 0; j < 40; j++ {
			body += vocabulary[(i*7+j*3)%len(vocabulary)] + " "
		}
		docs[i] = corpus.Document{
			ID: fmt.Sprintf("doc-%06d", i),
			Fields: map[string]string{
				corpus.FieldTitle: vocabulary[i%len(vocabulary)] + " " + vocabulary[(i+5)%len(vocabulary)],
				corpus.FieldBody:  body,
			},
		}
	}
	return docs
}

func syntheticVectors(dim int) *embed.Map {
	vectors := make(map[string][]float32, len(vocabulary))
	for i, w := range vocabulary {
		v := make([]float32, dim)
		for d := range v {
			v[d] = float32((i+1)*(d+3)%11) / 11
		}
		vectors[w] = v
	}
	return embed.NewMap(dim, vectors)
}

func buildSnapshot(b *testing.B, n int, provider embed.Provider) *index.Snapshot {
	b.Helper()
	engine := indexer.NewEngine(tokenizer.Default(), provider, indexer.Options{
		Workers: 4,
		Lexical: index.LexicalOptions{SmoothIDF: true, Normalize: true},
	}, nil)
	snap, err := engine.Build(context.Background(), syntheticCorpus(n))
	if err != nil {
		b.Fatal(err)
	}
	return snap
}

// BenchmarkBuild measures full snapshot builds at various corpus sizes and
// worker counts.
func BenchmarkBuild(b *testing.B) {
	for _, size := range []int{100, 1000, 5000} {
		docs := syntheticCorpus(size)
		for _, workers := range []int{1, 4} {
			b.Run(fmt.Sprintf("docs_%d/workers_%d", size, workers), func(b *testing.B) {
				engine := indexer.NewEngine(tokenizer.Default(), syntheticVectors(32), indexer.Options{
					Workers: workers,
					Lexical: index.LexicalOptions{SmoothIDF: true, Normalize: true},
				}, nil)
				b.ReportAllocs()
				b.ResetTimer()
				for i := 0; i < b.N; i++ {
					if _, err := engine.Build(context.Background(), docs); err != nil {
						b.Fatal(err)
					}
				}
			})
		}
	}
}

// BenchmarkSnapshotWrite measures encoding, compressing and atomically
// writing a 5 000 document snapshot.
func BenchmarkSnapshotWrite(b *testing.B) {
	snap := buildSnapshot(b, 5000, syntheticVectors(32))
	w := segment.NewWriter(b.TempDir())
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := w.Write(snap); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkSnapshotOpen measures validating and decoding the same snapshot.
func BenchmarkSnapshotOpen(b *testing.B) {
	snap := buildSnapshot(b, 5000, syntheticVectors(32))
	path, err := segment.NewWriter(b.TempDir()).Write(snap)
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := segment.Open(path); err != nil {
			b.Fatal(err)
		}
	}
}
