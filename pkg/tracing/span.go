// Package tracing times the stages of a request with in-process spans that
// propagate through contexts. The searcher opens one root span per query
// and a child per pipeline stage; a span logs as a nested slog group.
package tracing

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"sync"
	"time"
)

type spanKey struct{}

type Span struct {
	Name    string
	TraceID string
	Start   time.Time

	mu       sync.Mutex
	duration time.Duration
	attrs    []slog.Attr
	children []*Span
}

// Stage is the timing of one direct child span.
type Stage struct {
	Name     string
	Duration time.Duration
}

// NewTraceID returns a random 16-hex-digit id.
func NewTraceID() string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}

// Start opens a root span. An empty traceID is replaced by a fresh one.
func Start(ctx context.Context, name, traceID string) (context.Context, *Span) {
	if traceID == "" {
		traceID = NewTraceID()
	}
	s := &Span{Name: name, TraceID: traceID, Start: time.Now()}
	return context.WithValue(ctx, spanKey{}, s), s
}

// Child opens a span under the one in ctx. Without a parent the span is
// still timed but belongs to no trace.
func Child(ctx context.Context, name string) (context.Context, *Span) {
	s := &Span{Name: name, Start: time.Now()}
	if parent := FromContext(ctx); parent != nil {
		s.TraceID = parent.TraceID
		parent.mu.Lock()
		parent.children = append(parent.children, s)
		parent.mu.Unlock()
	}
	return context.WithValue(ctx, spanKey{}, s), s
}

func FromContext(ctx context.Context) *Span {
	s, _ := ctx.Value(spanKey{}).(*Span)
	return s
}

// End fixes the span's duration; later calls keep the first value.
func (s *Span) End() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.duration == 0 {
		s.duration = max(time.Since(s.Start), time.Nanosecond)
	}
	return s.duration
}

func (s *Span) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.duration
}

func (s *Span) Set(key string, value any) {
	s.mu.Lock()
	s.attrs = append(s.attrs, slog.Any(key, value))
	s.mu.Unlock()
}

// Stages lists the ended direct children in start order.
func (s *Span) Stages() []Stage {
	s.mu.Lock()
	children := append([]*Span(nil), s.children...)
	s.mu.Unlock()
	stages := make([]Stage, 0, len(children))
	for _, c := range children {
		if d := c.Duration(); d > 0 {
			stages = append(stages, Stage{Name: c.Name, Duration: d})
		}
	}
	return stages
}

// LogValue renders the span tree as nested groups keyed by span name.
func (s *Span) LogValue() slog.Value {
	s.mu.Lock()
	attrs := make([]slog.Attr, 0, len(s.attrs)+len(s.children)+1)
	attrs = append(attrs, slog.Duration("took", s.duration))
	attrs = append(attrs, s.attrs...)
	children := append([]*Span(nil), s.children...)
	s.mu.Unlock()
	for _, c := range children {
		attrs = append(attrs, slog.Any(c.Name, c))
	}
	return slog.GroupValue(attrs...)
}
