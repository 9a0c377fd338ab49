package extraction

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func testRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:    3,
		InitialDelay:  time.Millisecond,
		MaxDelay:      10 * time.Millisecond,
		BackoffFactor: 2.0,
	}
}

func TestWithRetry_SuccessFirstAttempt(t *testing.T) {
	attempts := 0
	result, err := WithRetry(context.Background(), testRetryConfig(), func(ctx context.Context) (string, error) {
		attempts++
		return "ok", nil
	})

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result != "ok" {
		t.Fatalf("expected 'ok', got %q", result)
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestWithRetry_TransientThenSuccess(t *testing.T) {
	attempts := 0
	result, err := WithRetry(context.Background(), testRetryConfig(), func(ctx context.Context) (string, error) {
		attempts++
		if attempts < 3 {
			return "", &PipelineError{
				Code:      ErrLlmTransport,
				Message:   "transient",
				Retryable: true,
			}
		}
		return "recovered", nil
	})

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result != "recovered" {
		t.Fatalf("expected 'recovered', got %q", result)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestWithRetry_NonRetryableStopsImmediately(t *testing.T) {
	attempts := 0
	_, err := WithRetry(context.Background(), testRetryConfig(), func(ctx context.Context) (int, error) {
		attempts++
		return 0, &PipelineError{
			Code:      ErrLlmResponseUnparseable,
			Message:   "bad JSON",
			Retryable: false,
		}
	})

	if err == nil {
		t.Fatal("expected error")
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestWithRetry_ExhaustsAllAttempts(t *testing.T) {
	cfg := testRetryConfig()
	cfg.MaxRetries = 2

	attempts := 0
	_, err := WithRetry(context.Background(), cfg, func(ctx context.Context) (int, error) {
		attempts++
		return 0, fmt.Errorf("always failing")
	})

	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts (1 + 2 retries), got %d", attempts)
	}
}

func TestBackoffDelay_GrowsCapsAndJitters(t *testing.T) {
	cfg := RetryConfig{
		InitialDelay:   100 * time.Millisecond,
		MaxDelay:       300 * time.Millisecond,
		BackoffFactor:  2.0,
		JitterFraction: 0.2,
	}

	for i := 0; i < 100; i++ {
		// Attempt 0: 100ms +/- 20%.
		d := backoffDelay(cfg, 0)
		if d < 80*time.Millisecond || d > 120*time.Millisecond {
			t.Fatalf("attempt 0 delay %v outside jitter band", d)
		}
		// Attempt 3 would be 800ms; capped at 300ms before jitter.
		d = backoffDelay(cfg, 3)
		if d < 240*time.Millisecond || d > 360*time.Millisecond {
			t.Fatalf("capped delay %v outside jitter band", d)
		}
	}
}

func TestWithRetry_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	attempts := 0
	_, err := WithRetry(ctx, testRetryConfig(), func(ctx context.Context) (int, error) {
		attempts++
		cancel()
		return 0, fmt.Errorf("failing")
	})

	if err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}
