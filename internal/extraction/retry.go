package extraction

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// RetryConfig shapes the backoff schedule for a retried operation.
type RetryConfig struct {
	MaxRetries     int
	InitialDelay   time.Duration
	MaxDelay       time.Duration
	BackoffFactor  float64
	JitterFraction float64 // fraction of the delay randomized, 0..1
}

// DefaultLlmRetryConfig bounds how long a flaky completion call can hold a
// page: two retries, a second of initial backoff, never more than ten.
var DefaultLlmRetryConfig = RetryConfig{
	MaxRetries:     2,
	InitialDelay:   1 * time.Second,
	MaxDelay:       10 * time.Second,
	BackoffFactor:  2.0,
	JitterFraction: 0.2,
}

// backoffDelay computes the sleep before retry number attempt+1:
// exponential growth capped at MaxDelay, then spread by up to
// ±JitterFraction so concurrent page workers don't retry in lockstep.
func backoffDelay(cfg RetryConfig, attempt int) time.Duration {
	d := float64(cfg.InitialDelay) * math.Pow(cfg.BackoffFactor, float64(attempt))
	if d > float64(cfg.MaxDelay) {
		d = float64(cfg.MaxDelay)
	}
	if cfg.JitterFraction > 0 {
		d += d * cfg.JitterFraction * (rand.Float64()*2 - 1)
		if d < 0 {
			d = float64(cfg.InitialDelay)
		}
	}
	return time.Duration(d)
}

// WithRetry runs fn until it succeeds, the error proves terminal, the
// context ends, or the attempt budget runs out. A *PipelineError with
// Retryable=false stops immediately; any other error is assumed transient.
func WithRetry[T any](ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) (T, error)) (T, error) {
	var lastErr error
	var zero T

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if perr, ok := err.(*PipelineError); ok && !perr.Retryable {
			return zero, err
		}
		if attempt >= cfg.MaxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(backoffDelay(cfg, attempt)):
		}
	}

	return zero, lastErr
}
