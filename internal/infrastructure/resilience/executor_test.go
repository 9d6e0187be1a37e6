package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastPolicy() Policy {
	return Policy{
		MaxAttempts:       3,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        2 * time.Millisecond,
		BackoffMultiplier: 2.0,
		MinRequests:       2,
		FailureRatio:      0.5,
		OpenFor:           50 * time.Millisecond,
		HalfOpenCalls:     1,
	}
}

func TestDoRetriesRetryableErrors(t *testing.T) {
	executor := NewExecutor(fastPolicy())
	calls := 0

	err := executor.Do(context.Background(), "op", func(error) Outcome {
		return Outcome{Retry: true, CountAsFailure: true}
	}, func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestDoStopsOnNonRetryable(t *testing.T) {
	executor := NewExecutor(fastPolicy())
	calls := 0

	err := executor.Do(context.Background(), "op", func(error) Outcome {
		return Outcome{Retry: false, CountAsFailure: false}
	}, func(context.Context) error {
		calls++
		return errors.New("permanent")
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if calls != 1 {
		t.Fatalf("expected single attempt, got %d", calls)
	}
}

func TestDoExhaustsAttemptBudget(t *testing.T) {
	executor := NewExecutor(fastPolicy())
	calls := 0

	err := executor.Do(context.Background(), "op", func(error) Outcome {
		return Outcome{Retry: true, CountAsFailure: true}
	}, func(context.Context) error {
		calls++
		return errors.New("always failing")
	})
	if err == nil {
		t.Fatalf("expected error after exhausted attempts")
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestBreakerOpensAfterRepeatedFailures(t *testing.T) {
	policy := fastPolicy()
	policy.MaxAttempts = 1
	executor := NewExecutor(policy)

	classify := func(error) Outcome { return Outcome{Retry: false, CountAsFailure: true} }
	fail := func(context.Context) error { return errors.New("down") }

	for range 4 {
		_ = executor.Do(context.Background(), "breaker-op", classify, fail)
	}

	err := executor.Do(context.Background(), "breaker-op", classify, fail)
	if !IsCircuitOpen(err) {
		t.Fatalf("expected open circuit, got %v", err)
	}
}

func TestDoRespectsContextCancellation(t *testing.T) {
	executor := NewExecutor(fastPolicy())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := executor.Do(ctx, "op", nil, func(context.Context) error {
		t.Fatalf("callback must not run with cancelled context")
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
