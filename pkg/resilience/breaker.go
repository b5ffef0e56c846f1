// Package resilience guards calls to optional dependencies (Redis, Kafka,
// Postgres) and bounds the time a search may take.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ErrOpen is returned by Breaker.Do while calls are being rejected.
var ErrOpen = errors.New("circuit open")

type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	}
	return "unknown"
}

// BreakerConfig tunes a Breaker. Zero values take defaults.
//
// IsFailure decides which errors count against the threshold; the default
// counts every error except context cancellation. OnTransition runs with
// the breaker lock held and must not call back into it.
type BreakerConfig struct {
	Threshold    int
	Cooldown     time.Duration
	Probes       int
	IsFailure    func(error) bool
	OnTransition func(name string, from, to State)
}

// BreakerStats is a point-in-time view of a Breaker.
type BreakerStats struct {
	State    State     `json:"-"`
	Failures int       `json:"consecutive_failures"`
	OpenedAt time.Time `json:"opened_at,omitzero"`
}

// Breaker trips open after Threshold consecutive failures, rejects calls
// for Cooldown, then lets up to Probes calls through to test recovery.
type Breaker struct {
	name   string
	cfg    BreakerConfig
	logger *slog.Logger
	now    func() time.Time

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
	inFlight int
}

func NewBreaker(name string, cfg BreakerConfig) *Breaker {
	if cfg.Threshold <= 0 {
		cfg.Threshold = 5
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 30 * time.Second
	}
	if cfg.Probes <= 0 {
		cfg.Probes = 1
	}
	if cfg.IsFailure == nil {
		cfg.IsFailure = func(err error) bool { return !errors.Is(err, context.Canceled) }
	}
	return &Breaker{
		name:   name,
		cfg:    cfg,
		logger: slog.Default().With("component", "breaker", "dependency", name),
		now:    time.Now,
	}
}

// Do runs fn unless the breaker is open. Errors that IsFailure rejects are
// returned to the caller but leave the breaker untouched.
func (b *Breaker) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := b.admit(); err != nil {
		return err
	}
	err := fn(ctx)
	b.settle(err)
	return err
}

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) Stats() BreakerStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return BreakerStats{State: b.state, Failures: b.failures, OpenedAt: b.openedAt}
}

func (b *Breaker) admit() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case Open:
		wait := b.cfg.Cooldown - b.now().Sub(b.openedAt)
		if wait > 0 {
			return fmt.Errorf("%s: %w, retry in %v", b.name, ErrOpen, wait.Round(time.Millisecond))
		}
		b.transition(HalfOpen)
		b.inFlight = 1
	case HalfOpen:
		if b.inFlight >= b.cfg.Probes {
			return fmt.Errorf("%s: %w, probe in progress", b.name, ErrOpen)
		}
		b.inFlight++
	}
	return nil
}

func (b *Breaker) settle(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil || !b.cfg.IsFailure(err) {
		if b.state == HalfOpen {
			b.logger.Info("dependency recovered")
			b.transition(Closed)
		}
		b.failures = 0
		b.inFlight = 0
		return
	}
	b.failures++
	switch {
	case b.state == HalfOpen:
		b.logger.Warn("probe failed, reopening", "error", err)
		b.trip()
	case b.state == Closed && b.failures >= b.cfg.Threshold:
		b.logger.Warn("dependency failing, opening circuit",
			"consecutive_failures", b.failures,
			"cooldown", b.cfg.Cooldown,
			"error", err,
		)
		b.trip()
	}
}

func (b *Breaker) trip() {
	b.openedAt = b.now()
	b.inFlight = 0
	b.transition(Open)
}

func (b *Breaker) transition(to State) {
	from := b.state
	b.state = to
	if b.cfg.OnTransition != nil && from != to {
		b.cfg.OnTransition(b.name, from, to)
	}
}
