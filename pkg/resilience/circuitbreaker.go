// Package resilience guards calls to optional backing services (the report
// cache, the corpus store, brokers) with a circuit breaker, bounded retry
// and a deadline wrapper.
package resilience

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig controls when the breaker trips and how it recovers.
// IsFailure decides which errors count against the breaker; nil counts every
// error. OnStateChange is called outside the lock after each transition.
type CircuitBreakerConfig struct {
	FailureThreshold    int
	ResetTimeout        time.Duration
	HalfOpenMaxRequests int
	IsFailure           func(error) bool
	OnStateChange       func(name string, from, to State)
}

func (c *CircuitBreakerConfig) withDefaults() {
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = 5
	}
	if c.ResetTimeout <= 0 {
		c.ResetTimeout = 30 * time.Second
	}
	if c.HalfOpenMaxRequests <= 0 {
		c.HalfOpenMaxRequests = 1
	}
	if c.IsFailure == nil {
		c.IsFailure = func(err error) bool { return err != nil }
	}
}

// CircuitBreaker opens after FailureThreshold consecutive failures, rejects
// calls for ResetTimeout, then lets HalfOpenMaxRequests probes through.
type CircuitBreaker struct {
	name   string
	cfg    CircuitBreakerConfig
	now    func() time.Time
	logger *slog.Logger

	mu        sync.Mutex
	state     State
	failures  int
	openedAt  time.Time
	probes    int
	rejected  int64
	succeeded int64
}

func NewCircuitBreaker(name string, cfg CircuitBreakerConfig) *CircuitBreaker {
	cfg.withDefaults()
	return &CircuitBreaker{
		name:   name,
		cfg:    cfg,
		now:    time.Now,
		logger: slog.Default().With("component", "circuit-breaker", "name", name),
	}
}

func (cb *CircuitBreaker) Name() string { return cb.name }

// Execute runs fn unless the circuit is open.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if err := cb.admit(); err != nil {
		return err
	}
	err := fn()
	cb.record(err)
	return err
}

func (cb *CircuitBreaker) GetState() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Counts reports calls rejected while open and calls that succeeded.
func (cb *CircuitBreaker) Counts() (rejected, succeeded int64) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.rejected, cb.succeeded
}

func (cb *CircuitBreaker) Reset() {
	cb.transition(func() {
		cb.failures = 0
		cb.probes = 0
	}, StateClosed)
}

func (cb *CircuitBreaker) admit() error {
	cb.mu.Lock()
	switch cb.state {
	case StateOpen:
		wait := cb.cfg.ResetTimeout - cb.now().Sub(cb.openedAt)
		if wait > 0 {
			cb.rejected++
			cb.mu.Unlock()
			return fmt.Errorf("%w: %s (retry after %v)", ErrCircuitOpen, cb.name, wait.Round(time.Millisecond))
		}
		cb.mu.Unlock()
		cb.transition(func() { cb.probes = 1 }, StateHalfOpen)
		return nil
	case StateHalfOpen:
		defer cb.mu.Unlock()
		if cb.probes >= cb.cfg.HalfOpenMaxRequests {
			cb.rejected++
			return fmt.Errorf("%w: %s (probe in flight)", ErrCircuitOpen, cb.name)
		}
		cb.probes++
		return nil
	default:
		cb.mu.Unlock()
		return nil
	}
}

func (cb *CircuitBreaker) record(err error) {
	if !cb.cfg.IsFailure(err) {
		cb.mu.Lock()
		cb.succeeded++
		recovering := cb.state == StateHalfOpen
		cb.failures = 0
		cb.mu.Unlock()
		if recovering {
			cb.transition(func() { cb.probes = 0 }, StateClosed)
		}
		return
	}

	cb.mu.Lock()
	cb.failures++
	trip := cb.state == StateHalfOpen || (cb.state == StateClosed && cb.failures >= cb.cfg.FailureThreshold)
	failures := cb.failures
	cb.mu.Unlock()
	if trip {
		cb.logger.Warn("circuit opened", "consecutive_failures", failures, "error", err)
		cb.transition(func() { cb.openedAt = cb.now() }, StateOpen)
	}
}

// transition applies mutate and moves to state, notifying OnStateChange when
// the state actually changed.
func (cb *CircuitBreaker) transition(mutate func(), to State) {
	cb.mu.Lock()
	from := cb.state
	mutate()
	cb.state = to
	cb.mu.Unlock()
	if from == to {
		return
	}
	cb.logger.Info("circuit state changed", "from", from, "to", to)
	if cb.cfg.OnStateChange != nil {
		cb.cfg.OnStateChange(cb.name, from, to)
	}
}
