// Package proto defines the JSON messages exchanged between the indexer and
// the searcher: the index.complete event on Kafka and the bodies of the
// search HTTP API.
package proto

// ---------- Events ----------

// IndexComplete is published by the indexer after a snapshot file and its
// CURRENT pointer are durable.
type IndexComplete struct {
	Version   string `json:"version"`
	Path      string `json:"path"`
	Documents int    `json:"documents"`
	Terms     int    `json:"terms"`
	Dimension int    `json:"dimension"`
	BuiltAt   int64  `json:"built_at"`
}

// ---------- Search ----------

// SearchResponse is the body of GET /api/v1/search.
type SearchResponse struct {
	Query     string      `json:"query"`
	Terms     []string    `json:"terms"`
	Synonyms  []string    `json:"synonyms,omitempty"`
	Total     int         `json:"total"`
	Results   []SearchHit `json:"results"`
	Snapshot  string      `json:"snapshot_version"`
	Cached    bool        `json:"cached"`
	LatencyMs int64       `json:"latency_ms"`
}

// SearchHit is a single scored document with its per-signal breakdown.
type SearchHit struct {
	DocID    string  `json:"doc_id"`
	Title    string  `json:"title"`
	Score    float64 `json:"score"`
	TFIDF    float64 `json:"tfidf"`
	BM25F    float64 `json:"bm25f"`
	Semantic float64 `json:"semantic"`
	Snippet  string  `json:"snippet,omitempty"`
}

// ---------- Index ----------

// IndexStats is the body of GET /api/v1/index/stats.
type IndexStats struct {
	Version   string `json:"version"`
	BuiltAt   string `json:"built_at"`
	Documents int    `json:"documents"`
	Terms     int    `json:"terms"`
	Dimension int    `json:"dimension"`
}

// ReloadResponse is the body of POST /api/v1/index/reload.
type ReloadResponse struct {
	Version         string `json:"version"`
	PreviousVersion string `json:"previous_version,omitempty"`
	Documents       int    `json:"documents"`
	Changed         bool   `json:"changed"`
}

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}
