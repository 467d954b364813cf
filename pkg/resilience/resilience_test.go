package resilience

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

var errBoom = errors.New("boom")

func TestCircuitBreakerLifecycle(t *testing.T) {
	var mu sync.Mutex
	var transitions []State
	now := time.Unix(0, 0)
	cb := NewCircuitBreaker("store", CircuitBreakerConfig{
		FailureThreshold: 2,
		ResetTimeout:     time.Second,
		OnStateChange: func(_ string, _, to State) {
			mu.Lock()
			transitions = append(transitions, to)
			mu.Unlock()
		},
	})
	cb.now = func() time.Time { return now }
	fail := func() error { return errBoom }

	cb.Execute(fail)
	if cb.GetState() != StateClosed {
		t.Fatal("opened before threshold")
	}
	cb.Execute(fail)
	if cb.GetState() != StateOpen {
		t.Fatal("did not open at threshold")
	}
	if err := cb.Execute(func() error { return nil }); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("Execute() while open = %v", err)
	}

	now = now.Add(time.Second)
	if err := cb.Execute(fail); !errors.Is(err, errBoom) {
		t.Fatalf("probe error = %v", err)
	}
	if cb.GetState() != StateOpen {
		t.Fatal("failed probe should reopen")
	}

	now = now.Add(time.Second)
	if err := cb.Execute(func() error { return nil }); err != nil {
		t.Fatal(err)
	}
	if cb.GetState() != StateClosed {
		t.Fatal("successful probe should close")
	}
	rejected, succeeded := cb.Counts()
	if rejected != 1 || succeeded != 1 {
		t.Errorf("Counts() = %d, %d", rejected, succeeded)
	}
	want := []State{StateOpen, StateHalfOpen, StateOpen, StateHalfOpen, StateClosed}
	if len(transitions) != len(want) {
		t.Fatalf("transitions = %v, want %v", transitions, want)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Fatalf("transitions = %v, want %v", transitions, want)
		}
	}
}

func TestCircuitBreakerIgnoresNonFailures(t *testing.T) {
	notFound := errors.New("not found")
	cb := NewCircuitBreaker("cache", CircuitBreakerConfig{
		FailureThreshold: 1,
		IsFailure:        func(err error) bool { return err != nil && !errors.Is(err, notFound) },
	})
	for i := 0; i < 3; i++ {
		if err := cb.Execute(func() error { return notFound }); !errors.Is(err, notFound) {
			t.Fatalf("Execute() = %v", err)
		}
	}
	if cb.GetState() != StateClosed {
		t.Error("non-failure errors opened the circuit")
	}
}

func TestRetry(t *testing.T) {
	fast := RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond}

	calls := 0
	err := Retry(context.Background(), "flaky", fast, func() error {
		calls++
		if calls < 3 {
			return errBoom
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Errorf("Retry() = %v after %d calls", err, calls)
	}

	calls = 0
	err = Retry(context.Background(), "down", fast, func() error { calls++; return errBoom })
	if !errors.Is(err, errBoom) || calls != 3 {
		t.Errorf("Retry() = %v after %d calls", err, calls)
	}

	calls = 0
	permanent := fast
	permanent.Permanent = func(err error) bool { return errors.Is(err, errBoom) }
	err = Retry(context.Background(), "bad", permanent, func() error { calls++; return errBoom })
	if !errors.Is(err, errBoom) || calls != 1 {
		t.Errorf("permanent error retried: %v after %d calls", err, calls)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	slow := RetryConfig{MaxAttempts: 5, InitialDelay: time.Hour}
	err = Retry(ctx, "cancelled", slow, func() error { return errBoom })
	if !errors.Is(err, context.Canceled) || !errors.Is(err, errBoom) {
		t.Errorf("Retry() after cancel = %v", err)
	}
}

func TestWithTimeout(t *testing.T) {
	err := WithTimeout(context.Background(), 10*time.Millisecond, "slow", func(ctx context.Context) error {
		<-ctx.Done()
		time.Sleep(50 * time.Millisecond)
		return nil
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("WithTimeout() = %v, want deadline exceeded", err)
	}

	err = WithTimeout(context.Background(), time.Second, "quick", func(context.Context) error { return errBoom })
	if !errors.Is(err, errBoom) {
		t.Errorf("WithTimeout() = %v", err)
	}

	if err := WithTimeout(context.Background(), 0, "none", func(ctx context.Context) error {
		if _, ok := ctx.Deadline(); ok {
			return errors.New("unexpected deadline")
		}
		return nil
	}); err != nil {
		t.Error(err)
	}
}
