// Package cache memoizes search results in Redis. Keys include the serving
// snapshot version, so a swap makes older entries unreachable; they are
// also flushed in bulk. Redis failures never fail a search: a circuit
// breaker stops calling Redis while it is down and the query is computed.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/pkg/resilience"
)

const keyPrefix = "search:"

// Store is the subset of the Redis client the cache uses.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

type QueryCache struct {
	store      Store
	normalizer *tokenizer.Normalizer
	ttl        time.Duration
	breaker    *resilience.Breaker
	metrics    *metrics.Metrics
	group      singleflight.Group
	logger     *slog.Logger
	hits       atomic.Int64
	misses     atomic.Int64
	errors     atomic.Int64
}

// New creates a QueryCache. m may be nil.
func New(store Store, normalizer *tokenizer.Normalizer, ttl time.Duration, m *metrics.Metrics) *QueryCache {
	cbCfg := resilience.BreakerConfig{
		Threshold: 5,
		Cooldown:  10 * time.Second,
		IsFailure: func(err error) bool { return !pkgredis.IsNilError(err) },
	}
	if m != nil {
		cbCfg.OnTransition = func(name string, _, to resilience.State) {
			m.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
		}
	}
	return &QueryCache{
		store:      store,
		normalizer: normalizer,
		ttl:        ttl,
		breaker:    resilience.NewBreaker("redis-cache", cbCfg),
		metrics:    m,
		logger:     slog.Default().With("component", "query-cache"),
	}
}

// Get returns the cached result for req against the given snapshot version.
func (c *QueryCache) Get(ctx context.Context, req executor.Request, version string) (*executor.SearchResult, bool) {
	key := c.Key(req, version)
	var data string
	err := c.breaker.Do(ctx, func(ctx context.Context) error {
		var err error
		data, err = c.store.Get(ctx, key)
		return err
	})
	switch {
	case pkgredis.IsNilError(err):
		c.recordMiss()
		return nil, false
	case err != nil:
		c.errors.Add(1)
		c.logger.Warn("cache get failed", "key", key, "error", err)
		c.recordMiss()
		return nil, false
	}
	var result executor.SearchResult
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.recordMiss()
		return nil, false
	}
	c.hits.Add(1)
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.Inc()
	}
	c.logger.Debug("cache hit", "query", req.Query, "key", key)
	return &result, true
}

func (c *QueryCache) Set(ctx context.Context, req executor.Request, version string, result *executor.SearchResult) {
	key := c.Key(req, version)
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.breaker.Do(ctx, func(ctx context.Context) error {
		return c.store.Set(ctx, key, data, c.ttl)
	}); err != nil {
		c.errors.Add(1)
		c.logger.Warn("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached result or runs computeFn once per key,
// however many callers ask concurrently. req must already be resolved so
// that equivalent requests share a key.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	req executor.Request,
	version string,
	computeFn func() (*executor.SearchResult, error),
) (*executor.SearchResult, bool, error) {
	if result, ok := c.Get(ctx, req, version); ok {
		return withQuery(result, req.Query), true, nil
	}
	key := c.Key(req, version)
	val, err, _ := c.group.Do(key, func() (any, error) {
		result, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, req, version, result)
		return result, nil
	})
	if err != nil {
		return nil, false, err
	}
	return withQuery(val.(*executor.SearchResult), req.Query), false, nil
}

// withQuery returns result as seen by a caller who asked for query. Entries
// are shared by every query with the same normalized terms, so the raw query
// is the caller's, not the one that filled the entry.
func withQuery(result *executor.SearchResult, query string) *executor.SearchResult {
	if result.Query == query {
		return result
	}
	out := *result
	out.Query = query
	return &out
}

// Invalidate deletes every cached search result.
func (c *QueryCache) Invalidate(ctx context.Context) error {
	var deleted int64
	err := c.breaker.Do(ctx, func(ctx context.Context) error {
		var err error
		deleted, err = c.store.FlushByPattern(ctx, keyPrefix+"*")
		return err
	})
	if err != nil {
		return fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted)
	return nil
}

// Stats reports the counters since start and the breaker state.
type Stats struct {
	Hits    int64  `json:"hits"`
	Misses  int64  `json:"misses"`
	Errors  int64  `json:"errors"`
	HitRate string `json:"hit_rate"`
	Breaker string `json:"breaker"`
}

func (c *QueryCache) Stats() Stats {
	hits, misses := c.hits.Load(), c.misses.Load()
	var rate float64
	if total := hits + misses; total > 0 {
		rate = float64(hits) / float64(total) * 100
	}
	return Stats{
		Hits:    hits,
		Misses:  misses,
		Errors:  c.errors.Load(),
		HitRate: fmt.Sprintf("%.1f%%", rate),
		Breaker: c.breaker.State().String(),
	}
}

// Key hashes the normalized query, topN, weight and snapshot version.
func (c *QueryCache) Key(req executor.Request, version string) string {
	weight := "default"
	if req.TFIDFWeight != nil {
		weight = strconv.FormatFloat(*req.TFIDFWeight, 'g', -1, 64)
	}
	raw := strings.Join([]string{
		strings.Join(c.normalizer.Normalize(req.Query), " "),
		"top=" + strconv.Itoa(req.TopN),
		"w=" + weight,
		"v=" + version,
	}, "|")
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}

func (c *QueryCache) recordMiss() {
	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
}
