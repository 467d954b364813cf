package resilience

import (
	"context"
	"fmt"
	"time"
)

// WithTimeout runs fn under a deadline of timeout and returns as soon as
// the deadline passes, even if fn is still running. fn must honour its
// context. A non-positive timeout runs fn directly.
func WithTimeout(ctx context.Context, timeout time.Duration, name string, fn func(ctx context.Context) error) error {
	if timeout <= 0 {
		return fn(ctx)
	}
	ctx, cancel := context.WithTimeoutCause(ctx, timeout,
		fmt.Errorf("%s: %w (limit %v)", name, context.DeadlineExceeded, timeout))
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- fn(ctx) }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return context.Cause(ctx)
	}
}
