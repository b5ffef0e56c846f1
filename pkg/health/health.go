// Package health reports whether a process can serve traffic. Required
// checks (a loaded snapshot) take the service down when they fail; optional
// ones (the Redis cache) only degrade it, and a degraded service stays ready.
package health

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

type Status string

const (
	StatusUp       Status = "up"
	StatusDegraded Status = "degraded"
	StatusDown     Status = "down"
)

func (s Status) worse(than Status) bool {
	rank := map[Status]int{StatusUp: 0, StatusDegraded: 1, StatusDown: 2}
	return rank[s] > rank[than]
}

// Result is the outcome of one check.
type Result struct {
	Status Status `json:"status"`
	Detail string `json:"detail,omitempty"`
	Took   string `json:"took,omitempty"`
}

type Check func(ctx context.Context) Result

// Report aggregates every registered check; Status is the worst of them.
type Report struct {
	Status    Status            `json:"status"`
	Checks    map[string]Result `json:"checks"`
	CheckedAt time.Time         `json:"checked_at"`
}

// Checker runs registered checks concurrently, each under its own timeout.
type Checker struct {
	timeout time.Duration
	logger  *slog.Logger

	mu     sync.RWMutex
	checks map[string]Check
	last   Status
}

// NewChecker returns a Checker giving each check at most timeout
// (2s when timeout <= 0).
func NewChecker(timeout time.Duration) *Checker {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Checker{
		timeout: timeout,
		checks:  make(map[string]Check),
		last:    StatusUp,
		logger:  slog.Default().With("component", "health"),
	}
}

func (c *Checker) Register(name string, check Check) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

func (c *Checker) Run(ctx context.Context) Report {
	c.mu.RLock()
	checks := make(map[string]Check, len(c.checks))
	for name, check := range c.checks {
		checks[name] = check
	}
	c.mu.RUnlock()

	var (
		mu      sync.Mutex
		results = make(map[string]Result, len(checks))
		g       errgroup.Group
	)
	for name, check := range checks {
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(ctx, c.timeout)
			defer cancel()
			start := time.Now()
			res := check(cctx)
			res.Took = time.Since(start).Round(time.Microsecond).String()
			mu.Lock()
			results[name] = res
			mu.Unlock()
			return nil
		})
	}
	g.Wait()

	report := Report{Status: StatusUp, Checks: results, CheckedAt: time.Now().UTC()}
	for _, res := range results {
		if res.Status.worse(report.Status) {
			report.Status = res.Status
		}
	}
	c.observe(report)
	return report
}

func (c *Checker) observe(report Report) {
	c.mu.Lock()
	prev := c.last
	c.last = report.Status
	c.mu.Unlock()
	if prev == report.Status {
		return
	}
	attrs := []any{"from", prev, "to", report.Status}
	for name, res := range report.Checks {
		if res.Status != StatusUp {
			attrs = append(attrs, name, res.Detail)
		}
	}
	if report.Status == StatusUp {
		c.logger.Info("health recovered", attrs...)
	} else {
		c.logger.Warn("health changed", attrs...)
	}
}

// LiveHandler answers 200 while the process is running.
func (c *Checker) LiveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
	}
}

// ReadyHandler answers 503 only when a required check is down.
func (c *Checker) ReadyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := c.Run(r.Context())
		code := http.StatusOK
		if report.Status == StatusDown {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, report)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

// Ping adapts a dependency ping (Redis, PostgreSQL) into a Check.
func Ping(ping func(ctx context.Context) error, required bool) Check {
	return func(ctx context.Context) Result {
		if err := ping(ctx); err != nil {
			if required {
				return Result{Status: StatusDown, Detail: err.Error()}
			}
			return Result{Status: StatusDegraded, Detail: err.Error()}
		}
		return Result{Status: StatusUp}
	}
}
