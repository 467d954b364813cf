// Package health runs dependency probes for the liveness and readiness
// endpoints.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

type Status string

const (
	StatusUp       Status = "up"
	StatusDown     Status = "down"
	StatusDegraded Status = "degraded"
)

// Check probes one dependency.
type Check func(ctx context.Context) ComponentHealth

type ComponentHealth struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

type Report struct {
	Status     Status                     `json:"status"`
	Components map[string]ComponentHealth `json:"components"`
	Timestamp  string                     `json:"timestamp"`
}

// Checker holds named checks. A check registered as optional can only
// degrade the overall status, never take it down.
type Checker struct {
	mu       sync.RWMutex
	checks   map[string]Check
	optional map[string]bool
	timeout  time.Duration
	logger   *slog.Logger
}

func NewChecker(timeout time.Duration) *Checker {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Checker{
		checks:   make(map[string]Check),
		optional: make(map[string]bool),
		timeout:  timeout,
		logger:   slog.Default().With("component", "health"),
	}
}

func (c *Checker) Register(name string, check Check) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

func (c *Checker) RegisterOptional(name string, check Check) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
	c.optional[name] = true
}

// Run executes every check concurrently. The overall status is the worst
// component status after optional failures are downgraded.
func (c *Checker) Run(ctx context.Context) Report {
	c.mu.RLock()
	checks := make(map[string]Check, len(c.checks))
	optional := make(map[string]bool, len(c.optional))
	for name, check := range c.checks {
		checks[name] = check
		optional[name] = c.optional[name]
	}
	c.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var mu sync.Mutex
	results := make(map[string]ComponentHealth, len(checks))
	var g errgroup.Group
	for name, check := range checks {
		g.Go(func() error {
			start := time.Now()
			result := check(ctx)
			result.Latency = time.Since(start).Round(time.Millisecond).String()
			mu.Lock()
			results[name] = result
			mu.Unlock()
			return nil
		})
	}
	g.Wait()

	report := Report{
		Status:     StatusUp,
		Components: results,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}
	for name, comp := range results {
		status := comp.Status
		if status == StatusDown && optional[name] {
			status = StatusDegraded
		}
		switch {
		case status == StatusDown:
			report.Status = StatusDown
		case status == StatusDegraded && report.Status == StatusUp:
			report.Status = StatusDegraded
		}
		if comp.Status != StatusUp {
			c.logger.Warn("health check not passing", "check", name, "status", comp.Status, "message", comp.Message)
		}
	}
	return report
}

// PingCheck adapts a Ping method (Postgres, SQLite, Redis) into a Check.
func PingCheck(ping func(ctx context.Context) error) Check {
	return func(ctx context.Context) ComponentHealth {
		if err := ping(ctx); err != nil {
			return ComponentHealth{Status: StatusDown, Message: err.Error()}
		}
		return ComponentHealth{Status: StatusUp}
	}
}

// CorpusCheck degrades while a reference corpus is empty: analyses still
// run but cannot flag anything.
func CorpusCheck(kind string, size func() int) Check {
	return func(context.Context) ComponentHealth {
		n := size()
		if n == 0 {
			return ComponentHealth{Status: StatusDegraded, Message: fmt.Sprintf("no %s references registered", kind)}
		}
		return ComponentHealth{Status: StatusUp, Message: fmt.Sprintf("%d references", n)}
	}
}

// LiveHandler answers liveness probes without running checks.
func (c *Checker) LiveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c.write(w, http.StatusOK, map[string]string{"status": "alive"})
	}
}

// ReadyHandler reports 503 only when a required dependency is down.
func (c *Checker) ReadyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := c.Run(r.Context())
		status := http.StatusOK
		if report.Status == StatusDown {
			status = http.StatusServiceUnavailable
		}
		c.write(w, status, report)
	}
}

func (c *Checker) write(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		c.logger.Error("failed to write health response", "error", err)
	}
}
