// Package indexer turns a corpus into a search snapshot. Documents are
// analyzed in parallel by a bounded worker pool; a single goroutine then
// reduces the partials, in enumeration order, into the immutable indices.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/internal/embed"
	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/pkg/metrics"
)

// Options configures a build.
type Options struct {
	Workers int
	Lexical index.LexicalOptions
}

type Engine struct {
	normalizer *tokenizer.Normalizer
	provider   embed.Provider
	opts       Options
	metrics    *metrics.Metrics
	logger     *slog.Logger
	now        func() time.Time
}

// NewEngine creates an Engine. provider and m may be nil: without a provider
// the semantic index has dimension 0.
func NewEngine(normalizer *tokenizer.Normalizer, provider embed.Provider, opts Options, m *metrics.Metrics) *Engine {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Engine{
		normalizer: normalizer,
		provider:   provider,
		opts:       opts,
		metrics:    m,
		logger:     slog.Default().With("component", "indexer"),
		now:        time.Now,
	}
}

// Build analyzes docs and returns a prepared snapshot. The result depends
// only on docs and the engine configuration, apart from its version and
// build time.
func (e *Engine) Build(ctx context.Context, docs []corpus.Document) (*index.Snapshot, error) {
	start := e.now()
	e.logger.Info("index build started", "documents", len(docs), "workers", e.opts.Workers)

	snap, err := e.build(ctx, docs)
	elapsed := e.now().Sub(start)
	if err != nil {
		e.recordBuild("failed", elapsed, 0)
		e.logger.Error("index build failed", "error", err, "duration", elapsed)
		return nil, err
	}
	e.recordBuild("success", elapsed, len(docs))
	e.logger.Info("index build complete",
		"version", snap.Version,
		"documents", snap.DocCount(),
		"terms", snap.Terms(),
		"dimension", snap.Dimension(),
		"duration", elapsed,
	)
	return snap, nil
}

func (e *Engine) build(ctx context.Context, docs []corpus.Document) (*index.Snapshot, error) {
	partials := make([]index.Partial, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)
	for i := range docs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			partials[i] = e.Analyze(docs[i])
			e.logger.Debug("document analyzed", "doc_id", docs[i].ID, "fields", len(partials[i].Fields))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("analyzing documents: %w", err)
	}

	b := index.NewBuilder(e.opts.Lexical, e.dimension())
	for _, p := range partials {
		if err := b.Add(p); err != nil {
			return nil, fmt.Errorf("reducing partials: %w", err)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	builtAt := e.now()
	return b.Finish(index.NewVersion(builtAt), builtAt), nil
}

// Analyze normalizes every field of doc and embeds the concatenated tokens
// of the text fields.
func (e *Engine) Analyze(doc corpus.Document) index.Partial {
	p := index.Partial{
		DocID:   doc.ID,
		Fields:  make(map[string]map[string]int, len(doc.Fields)),
		Lengths: make(map[string]int, len(doc.Fields)),
	}
	text := e.opts.Lexical.TextFields()
	embedded := make([]string, 0, 256)
	for _, field := range doc.FieldNames() {
		tokens := e.normalizer.Normalize(doc.Fields[field])
		p.Fields[field] = index.Counts(tokens)
		p.Lengths[field] = len(tokens)
		if slices.Contains(text, field) {
			embedded = append(embedded, tokens...)
		}
	}
	if e.provider != nil {
		p.Embedding = index.Embed(e.provider, embedded)
	}
	return p
}

func (e *Engine) dimension() int {
	if e.provider == nil {
		return 0
	}
	return e.provider.Dimension()
}

func (e *Engine) recordBuild(status string, elapsed time.Duration, docs int) {
	if e.metrics == nil {
		return
	}
	e.metrics.IndexBuildsTotal.WithLabelValues(status).Inc()
	e.metrics.IndexBuildDuration.Observe(elapsed.Seconds())
	e.metrics.DocsIndexedTotal.Add(float64(docs))
}

// Vocabulary returns the distinct normalized terms of docs. The indexer
// uses it to load only the word vectors the corpus can use.
func Vocabulary(normalizer *tokenizer.Normalizer, docs []corpus.Document) map[string]struct{} {
	vocab := make(map[string]struct{}, 1024)
	for _, doc := range docs {
		for _, text := range doc.Fields {
			for _, term := range normalizer.Normalize(text) {
				vocab[term] = struct{}{}
			}
		}
	}
	return vocab
}
