// Package executor serves queries against the current snapshot. The
// snapshot is held behind an atomic pointer: each query loads it once and
// only reads it, and a rebuild or reload publishes a new one with a single
// store.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/internal/embed"
	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/internal/searcher/scorer"
	apperrors "github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/pkg/resilience"
	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/pkg/tracing"
)

// DefaultTFIDFWeight balances TF-IDF and BM25F equally.
const DefaultTFIDFWeight = 0.5

// Request is one search. A zero TopN selects the default; a nil
// TFIDFWeight selects the configured default.
type Request struct {
	Query       string
	TopN        int
	TFIDFWeight *float64
}

// Weight is a convenience for building a Request with an explicit weight.
func Weight(w float64) *float64 {
	return &w
}

type SearchResult struct {
	Query    string             `json:"query"`
	Terms    []string           `json:"terms"`
	Synonyms []string           `json:"synonyms,omitempty"`
	Total    int                `json:"total"`
	Results  []ranker.ScoredDoc `json:"results"`
	Version  string             `json:"snapshot_version"`
}

// Options are the per-searcher ranking settings.
type Options struct {
	BM25F              scorer.BM25FParams
	SemanticWeight     float64
	DefaultTopN        int
	MaxTopN            int
	DefaultTFIDFWeight float64
	QueryTimeout       time.Duration
	Trace              bool
	// Metrics receives per-stage timings when set.
	Metrics *metrics.Metrics
}

type Executor struct {
	snapshot atomic.Pointer[index.Snapshot]
	parser   *parser.Parser
	provider embed.Provider
	opts     Options
	logger   *slog.Logger
}

// New creates an Executor with no snapshot; Search fails with
// ErrSnapshotUnavailable until Swap is called. provider may be nil.
func New(p *parser.Parser, provider embed.Provider, opts Options) *Executor {
	if opts.DefaultTopN <= 0 {
		opts.DefaultTopN = ranker.DefaultTopN
	}
	if opts.MaxTopN < opts.DefaultTopN {
		opts.MaxTopN = opts.DefaultTopN
	}
	return &Executor{
		parser:   p,
		provider: provider,
		opts:     opts,
		logger:   slog.Default().With("component", "query-executor"),
	}
}

// Load returns the serving snapshot, or nil before the first Swap.
func (e *Executor) Load() *index.Snapshot {
	return e.snapshot.Load()
}

// Swap publishes snap and returns the snapshot it replaced.
func (e *Executor) Swap(snap *index.Snapshot) *index.Snapshot {
	if e.provider != nil && snap.Dimension() != 0 && e.provider.Dimension() != snap.Dimension() {
		e.logger.Warn("embedding dimension mismatch, semantic scores disabled for this snapshot",
			"snapshot_dimension", snap.Dimension(),
			"provider_dimension", e.provider.Dimension(),
		)
	}
	prev := e.snapshot.Swap(snap)
	attrs := []any{"version", snap.Version, "documents", snap.DocCount(), "terms", snap.Terms()}
	if prev != nil {
		attrs = append(attrs, "previous_version", prev.Version)
	}
	e.logger.Info("snapshot swapped in", attrs...)
	return prev
}

// Resolve fills the request defaults and validates the ranges.
func (e *Executor) Resolve(req Request) (Request, error) {
	if req.TopN == 0 {
		req.TopN = e.opts.DefaultTopN
	}
	if req.TopN < 1 {
		return req, apperrors.InvalidInput("top must be >= 1, got %d", req.TopN)
	}
	if req.TopN > e.opts.MaxTopN {
		req.TopN = e.opts.MaxTopN
	}
	if req.TFIDFWeight == nil {
		req.TFIDFWeight = Weight(e.opts.DefaultTFIDFWeight)
	}
	if w := *req.TFIDFWeight; w < 0 || w > 1 {
		return req, apperrors.InvalidInput("weight must be in [0,1], got %v", w)
	}
	return req, nil
}

// Search runs the query pipeline under the configured time budget.
func (e *Executor) Search(ctx context.Context, req Request) (*SearchResult, error) {
	snap := e.Load()
	if snap == nil {
		return nil, apperrors.ErrSnapshotUnavailable
	}
	req, err := e.Resolve(req)
	if err != nil {
		return nil, err
	}
	return resilience.Within(ctx, e.opts.QueryTimeout, "search", func(ctx context.Context) (*SearchResult, error) {
		return e.execute(ctx, snap, req)
	})
}

func (e *Executor) execute(ctx context.Context, snap *index.Snapshot, req Request) (*SearchResult, error) {
	log := logger.For(ctx, "query-executor")
	ctx, root := tracing.Start(ctx, "search", logger.RequestID(ctx))
	defer e.finishTrace(log, root)

	_, span := tracing.Child(ctx, "parse")
	plan := e.parser.Parse(req.Query)
	span.Set("terms", len(plan.Terms))
	span.Set("synonyms", len(plan.Synonyms()))
	span.End()

	result := &SearchResult{
		Query:    req.Query,
		Terms:    plan.Terms,
		Synonyms: plan.Synonyms(),
		Results:  []ranker.ScoredDoc{},
		Version:  snap.Version,
	}
	if plan.Empty() || snap.DocCount() == 0 {
		return result, nil
	}

	var sig ranker.Signals
	stages := []struct {
		name string
		run  func()
	}{
		{"tfidf", func() { sig.TFIDF = scorer.TFIDF(snap, plan.Expanded) }},
		{"bm25f", func() { sig.BM25F = scorer.BM25F(snap, plan.Expanded, e.opts.BM25F) }},
		{"semantic", func() {
			if e.semanticEnabled(snap) {
				sig.Semantic = scorer.Semantic(snap, index.Embed(e.provider, plan.Expanded))
			}
		}},
	}
	for _, stage := range stages {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("before %s: %w", stage.name, err)
		}
		_, span := tracing.Child(ctx, stage.name)
		stage.run()
		log.Debug("stage complete", "stage", stage.name, "duration", span.End())
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("before fusion: %w", err)
	}

	_, span = tracing.Child(ctx, "fuse")
	weights := ranker.Weights{TFIDF: *req.TFIDFWeight, Semantic: e.opts.SemanticWeight}
	result.Results = ranker.Fuse(snap, sig, weights, req.TopN)
	result.Total = len(result.Results)
	span.Set("results", result.Total)
	span.End()

	log.Debug("query executed",
		"query", req.Query,
		"terms", plan.Expanded,
		"results", result.Total,
		"snapshot", snap.Version,
	)
	return result, nil
}

func (e *Executor) finishTrace(log *slog.Logger, root *tracing.Span) {
	root.End()
	if m := e.opts.Metrics; m != nil {
		for _, st := range root.Stages() {
			m.SearchStageDuration.WithLabelValues(st.Name).Observe(st.Duration.Seconds())
		}
	}
	if e.opts.Trace {
		log.Info("search trace", "trace_id", root.TraceID, "trace", root)
	}
}

func (e *Executor) semanticEnabled(snap *index.Snapshot) bool {
	return e.provider != nil && snap.Dimension() > 0 && e.provider.Dimension() == snap.Dimension()
}
