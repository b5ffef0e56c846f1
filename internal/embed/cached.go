package embed

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/internal/indexer/vector"
)

// DefaultCacheSize bounds the number of term vectors kept by Cached.
const DefaultCacheSize = 50000

type cacheEntry struct {
	vec vector.Dense
	ok  bool
}

// Cached memoizes an inner Provider, including misses, so repeated terms
// across documents and queries resolve once.
type Cached struct {
	inner Provider
	cache *lru.Cache[string, cacheEntry]
}

// NewCached wraps inner with an LRU of the given size (DefaultCacheSize when
// size <= 0).
func NewCached(inner Provider, size int) *Cached {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, _ := lru.New[string, cacheEntry](size)
	return &Cached{inner: inner, cache: cache}
}

func (c *Cached) Vector(term string) (vector.Dense, bool) {
	if e, ok := c.cache.Get(term); ok {
		return e.vec, e.ok
	}
	vec, ok := c.inner.Vector(term)
	c.cache.Add(term, cacheEntry{vec: vec, ok: ok})
	return vec, ok
}

func (c *Cached) Dimension() int {
	return c.inner.Dimension()
}

// Len returns the number of cached entries.
func (c *Cached) Len() int {
	return c.cache.Len()
}
