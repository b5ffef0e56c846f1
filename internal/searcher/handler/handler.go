// Package handler exposes the searcher over HTTP: hybrid search, snapshot
// stats and reload, and result-cache administration.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/internal/searcher/executor"
	apperrors "github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/pkg/proto"
)

type SearchExecutor interface {
	Resolve(req executor.Request) (executor.Request, error)
	Search(ctx context.Context, req executor.Request) (*executor.SearchResult, error)
	Load() *index.Snapshot
}

type Reloader interface {
	ReloadLatest(ctx context.Context) (proto.ReloadResponse, error)
}

// TextSource returns a document's extracted text for snippets.
type TextSource interface {
	Text(id string) (string, error)
}

type Handler struct {
	executor SearchExecutor
	cache    *cache.QueryCache
	reloader Reloader
	texts    TextSource
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// New creates a Handler. queryCache, reloader, texts and m may be nil.
func New(exec SearchExecutor, queryCache *cache.QueryCache, reloader Reloader, texts TextSource, m *metrics.Metrics) *Handler {
	return &Handler{
		executor: exec,
		cache:    queryCache,
		reloader: reloader,
		texts:    texts,
		metrics:  m,
		logger:   slog.Default().With("component", "search-handler"),
	}
}

// Routes registers the API on a new mux.
// Paths lists the API routes, for bounding metric labels.
var Paths = []string{
	"/api/v1/search",
	"/api/v1/index/stats",
	"/api/v1/index/reload",
	"/api/v1/cache/stats",
	"/api/v1/cache",
}

func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/index/stats", h.IndexStats)
	mux.HandleFunc("POST /api/v1/index/reload", h.Reload)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("DELETE /api/v1/cache", h.CacheInvalidate)
	return mux
}

// Search handles GET /api/v1/search?q=&top=&weight=.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.For(ctx, "search-api")

	params := r.URL.Query()
	req := executor.Request{Query: params.Get("q")}
	if s := params.Get("top"); s != "" {
		top, err := strconv.Atoi(s)
		if err != nil {
			h.writeError(w, r, apperrors.InvalidInput("top must be an integer, got %q", s))
			return
		}
		if top < 1 {
			h.writeError(w, r, apperrors.InvalidInput("top must be >= 1, got %d", top))
			return
		}
		req.TopN = top
	}
	if s := params.Get("weight"); s != "" {
		weight, err := strconv.ParseFloat(s, 64)
		if err != nil {
			h.writeError(w, r, apperrors.InvalidInput("weight must be a number, got %q", s))
			return
		}
		req.TFIDFWeight = executor.Weight(weight)
	}
	req, err := h.executor.Resolve(req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var result *executor.SearchResult
	cacheHit := false
	snap := h.executor.Load()
	if h.cache != nil && snap != nil && strings.TrimSpace(req.Query) != "" {
		result, cacheHit, err = h.cache.GetOrCompute(ctx, req, snap.Version, func() (*executor.SearchResult, error) {
			return h.executor.Search(ctx, req)
		})
	} else {
		result, err = h.executor.Search(ctx, req)
	}
	if err != nil {
		h.record("error", cacheHit, start, 0)
		log.Error("search execution failed", "query", req.Query, "error", err)
		h.writeError(w, r, err)
		return
	}

	resp := h.response(result, cacheHit, start)
	h.record(resultType(result), cacheHit, start, resp.Total)
	log.Info("search completed",
		"query", req.Query,
		"top", req.TopN,
		"weight", *req.TFIDFWeight,
		"returned", resp.Total,
		"cache_hit", cacheHit,
		"latency_ms", resp.LatencyMs,
	)
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) response(result *executor.SearchResult, cacheHit bool, start time.Time) proto.SearchResponse {
	words := strings.Fields(result.Query)
	hits := make([]proto.SearchHit, 0, len(result.Results))
	for _, d := range result.Results {
		hit := proto.SearchHit{
			DocID:    d.DocID,
			Title:    corpus.Title(d.DocID),
			Score:    d.Score,
			TFIDF:    d.TFIDF,
			BM25F:    d.BM25F,
			Semantic: d.Semantic,
		}
		if h.texts != nil {
			if text, err := h.texts.Text(d.DocID); err == nil {
				hit.Snippet = Snippet(text, words)
			} else {
				h.logger.Debug("snippet text unavailable", "doc_id", d.DocID, "error", err)
			}
		}
		hits = append(hits, hit)
	}
	return proto.SearchResponse{
		Query:     result.Query,
		Terms:     result.Terms,
		Synonyms:  result.Synonyms,
		Total:     result.Total,
		Results:   hits,
		Snapshot:  result.Version,
		Cached:    cacheHit,
		LatencyMs: time.Since(start).Milliseconds(),
	}
}

func resultType(result *executor.SearchResult) string {
	if result.Total == 0 {
		return "empty"
	}
	return "hit"
}

func (h *Handler) record(resultType string, cacheHit bool, start time.Time, returned int) {
	if h.metrics == nil {
		return
	}
	status := "miss"
	if cacheHit {
		status = "hit"
	}
	h.metrics.SearchQueriesTotal.WithLabelValues(resultType).Inc()
	h.metrics.SearchLatency.WithLabelValues(status).Observe(time.Since(start).Seconds())
	if resultType != "error" {
		h.metrics.SearchResultsCount.Observe(float64(returned))
	}
}

// IndexStats handles GET /api/v1/index/stats.
func (h *Handler) IndexStats(w http.ResponseWriter, r *http.Request) {
	snap := h.executor.Load()
	if snap == nil {
		h.writeError(w, r, apperrors.ErrSnapshotUnavailable)
		return
	}
	h.writeJSON(w, http.StatusOK, proto.IndexStats{
		Version:   snap.Version,
		BuiltAt:   snap.BuiltAt.UTC().Format(time.RFC3339Nano),
		Documents: snap.DocCount(),
		Terms:     snap.Terms(),
		Dimension: snap.Dimension(),
	})
}

// Reload handles POST /api/v1/index/reload.
func (h *Handler) Reload(w http.ResponseWriter, r *http.Request) {
	if h.reloader == nil {
		h.writeError(w, r, apperrors.NotConfigured("reload"))
		return
	}
	resp, err := h.reloader.ReloadLatest(r.Context())
	if err != nil {
		logger.FromContext(r.Context()).Error("snapshot reload failed", "error", err)
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	h.writeJSON(w, http.StatusOK, h.cache.Stats())
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, r, apperrors.Unavailable("caching is disabled"))
		return
	}
	if err := h.cache.Invalidate(r.Context()); err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

// writeError maps err to its HTTP status. Internal errors are not echoed to
// the client.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	h.writeJSON(w, apperrors.HTTPStatusCode(err), proto.ErrorResponse{
		Error:     apperrors.Public(err),
		Code:      apperrors.Code(err),
		RequestID: logger.RequestID(r.Context()),
	})
}
