// Package consumer keeps the searcher's snapshot current. A Reloader opens
// a snapshot from the data directory and swaps it into the executor; the
// ReloadConsumer drives it from index.complete events on Kafka.
package consumer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/internal/indexer/segment"
	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/pkg/proto"
)

// Invalidator drops cached results computed against an older snapshot.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

type Reloader struct {
	dataDir string
	exec    *executor.Executor
	cache   Invalidator
	metrics *metrics.Metrics
	mu      sync.Mutex
	logger  *slog.Logger
}

// NewReloader creates a Reloader. cache and m may be nil.
func NewReloader(dataDir string, exec *executor.Executor, cache Invalidator, m *metrics.Metrics) *Reloader {
	return &Reloader{
		dataDir: dataDir,
		exec:    exec,
		cache:   cache,
		metrics: m,
		logger:  slog.Default().With("component", "snapshot-reloader"),
	}
}

// ReloadLatest swaps in the snapshot named by the data directory's CURRENT
// file.
func (r *Reloader) ReloadLatest(ctx context.Context) (proto.ReloadResponse, error) {
	return r.reload(ctx, "", func() (*index.Snapshot, error) {
		return segment.OpenLatest(r.dataDir)
	})
}

// ReloadEvent swaps in the snapshot an index.complete event announces. The
// file is looked up in the local data directory first, since the indexer's
// path may not be valid on this host. An event for the version already
// serving is a no-op.
func (r *Reloader) ReloadEvent(ctx context.Context, ev proto.IndexComplete) (proto.ReloadResponse, error) {
	path := filepath.Join(r.dataDir, ev.Version+segment.Extension)
	if _, err := os.Stat(path); err != nil && ev.Path != "" {
		path = ev.Path
	}
	return r.reload(ctx, ev.Version, func() (*index.Snapshot, error) {
		return segment.Open(path)
	})
}

func (r *Reloader) reload(ctx context.Context, want string, open func() (*index.Snapshot, error)) (proto.ReloadResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current := r.exec.Load()
	if want != "" && current != nil && current.Version == want {
		r.logger.Debug("snapshot already serving", "version", want)
		return proto.ReloadResponse{Version: want, Documents: current.DocCount()}, nil
	}
	snap, err := open()
	if err != nil {
		r.record("failed")
		return proto.ReloadResponse{}, fmt.Errorf("opening snapshot: %w", err)
	}
	if want != "" && snap.Version != want {
		r.logger.Warn("snapshot version differs from event", "event_version", want, "file_version", snap.Version)
	}
	resp := proto.ReloadResponse{Version: snap.Version, Documents: snap.DocCount()}
	if current != nil {
		resp.PreviousVersion = current.Version
		if current.Version == snap.Version {
			r.record("unchanged")
			return resp, nil
		}
	}
	r.exec.Swap(snap)
	resp.Changed = true
	r.record("success")
	if r.metrics != nil {
		r.metrics.SnapshotDocuments.Set(float64(snap.DocCount()))
	}
	if r.cache != nil {
		if err := r.cache.Invalidate(ctx); err != nil {
			r.logger.Warn("cache invalidation after reload failed", "error", err)
		}
	}
	return resp, nil
}

func (r *Reloader) record(status string) {
	if r.metrics != nil {
		r.metrics.SnapshotReloadsTotal.WithLabelValues(status).Inc()
	}
}
