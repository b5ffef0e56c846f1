// Package metrics defines the Prometheus collectors of the indexer and the
// searcher. Every collector lives under the hybrid_search namespace.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "hybrid_search"

var latencyBuckets = []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1}

type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	SearchQueriesTotal  *prometheus.CounterVec
	SearchLatency       *prometheus.HistogramVec
	SearchStageDuration *prometheus.HistogramVec
	SearchResultsCount  prometheus.Histogram

	CacheHitsTotal      prometheus.Counter
	CacheMissesTotal    prometheus.Counter
	CircuitBreakerState *prometheus.GaugeVec

	DocsIndexedTotal   prometheus.Counter
	IndexBuildsTotal   *prometheus.CounterVec
	IndexBuildDuration prometheus.Histogram

	SnapshotDocuments    prometheus.Gauge
	SnapshotReloadsTotal *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New registers the collectors with the process-wide default registry.
func New() *Metrics {
	return register(prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
}

// NewWithRegistry registers with reg and also adds Go runtime and process
// collectors. Tests pass a fresh registry so construction can repeat.
func NewWithRegistry(reg *prometheus.Registry) *Metrics {
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return register(reg, reg)
}

func register(reg prometheus.Registerer, g prometheus.Gatherer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "http",
			Name: "requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "http",
			Name:    "request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: latencyBuckets,
		}, []string{"method", "path"}),
		HTTPRequestsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "http",
			Name: "requests_in_flight",
			Help: "HTTP requests currently being served.",
		}),

		SearchQueriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "search",
			Name: "queries_total",
			Help: "Search queries by outcome (hit, empty, error).",
		}, []string{"result_type"}),
		SearchLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "search",
			Name:    "latency_seconds",
			Help:    "End-to-end search latency by cache status (hit, miss).",
			Buckets: latencyBuckets,
		}, []string{"cache_status"}),
		SearchStageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "search",
			Name:    "stage_duration_seconds",
			Help:    "Time spent per scoring stage (parse, tfidf, bm25f, semantic, fuse).",
			Buckets: latencyBuckets,
		}, []string{"stage"}),
		SearchResultsCount: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "search",
			Name:    "results_count",
			Help:    "Results returned per query.",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100},
		}),

		CacheHitsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "cache",
			Name: "hits_total",
			Help: "Result cache hits.",
		}),
		CacheMissesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "cache",
			Name: "misses_total",
			Help: "Result cache misses, including lookups failed open.",
		}),
		CircuitBreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Breaker state per dependency (0=closed, 1=open, 2=half-open).",
		}, []string{"name"}),

		DocsIndexedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "index",
			Name: "docs_indexed_total",
			Help: "Documents indexed across builds.",
		}),
		IndexBuildsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "index",
			Name: "builds_total",
			Help: "Snapshot builds by status.",
		}, []string{"status"}),
		IndexBuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "index",
			Name:    "build_duration_seconds",
			Help:    "Snapshot build duration.",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
		}),

		SnapshotDocuments: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "snapshot",
			Name: "documents",
			Help: "Documents in the serving snapshot.",
		}),
		SnapshotReloadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "snapshot",
			Name: "reloads_total",
			Help: "Snapshot reloads by status (success, unchanged, failed).",
		}, []string{"status"}),

		gatherer: g,
	}

	reg.MustRegister(
		m.HTTPRequestsTotal, m.HTTPRequestDuration, m.HTTPRequestsInFlight,
		m.SearchQueriesTotal, m.SearchLatency, m.SearchStageDuration, m.SearchResultsCount,
		m.CacheHitsTotal, m.CacheMissesTotal, m.CircuitBreakerState,
		m.DocsIndexedTotal, m.IndexBuildsTotal, m.IndexBuildDuration,
		m.SnapshotDocuments, m.SnapshotReloadsTotal,
	)
	return m
}

// Handler serves the registry these metrics were registered with.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
