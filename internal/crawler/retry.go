package crawler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SHSHJW/top10-daily/internal/config"
)

// ErrRetryAborted is returned when the context ends between attempts.
var ErrRetryAborted = errors.New("retry aborted")

// Backoff returns the delay to wait after the given failed attempt.
type Backoff func(attempt int) time.Duration

// RetryPolicy bounds how one candidate is retried.
type RetryPolicy struct {
	Backoff     Backoff
	IsRetryable func(error) bool
	// OnRetry, when set, is told about each failed attempt that will be retried.
	OnRetry     func(attempt int, err error, delay time.Duration)
	MaxAttempts int
}

// PolicyFromConfig adapts the configured retry settings.
func PolicyFromConfig(rp config.RetryPolicy) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: rp.MaxAttempts,
		Backoff:     rp.GetRetryDelay,
		IsRetryable: IsRetryable,
	}
}

// WithRetry runs op until it succeeds, fails with a non-retryable error,
// or MaxAttempts is reached. Sleeps between attempts honor ctx.
func WithRetry[T any](ctx context.Context, p RetryPolicy, op func(ctx context.Context, attempt int) (T, error)) (T, error) {
	var zero T

	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	isRetryable := p.IsRetryable
	if isRetryable == nil {
		isRetryable = IsRetryable
	}

	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if ctx.Err() != nil {
			return zero, joinAbort(ctx, lastErr)
		}

		result, err := op(ctx, attempt)
		if err == nil {
			return result, nil
		}

		lastErr = err

		if !isRetryable(err) || attempt == maxAttempts {
			break
		}

		var delay time.Duration
		if p.Backoff != nil {
			delay = p.Backoff(attempt)
		}

		if p.OnRetry != nil {
			p.OnRetry(attempt, err, delay)
		}

		if err := sleep(ctx, delay); err != nil {
			return zero, joinAbort(ctx, lastErr)
		}
	}

	return zero, lastErr
}

func joinAbort(ctx context.Context, lastErr error) error {
	if lastErr == nil {
		return fmt.Errorf("%w: %w", ErrRetryAborted, ctx.Err())
	}

	return fmt.Errorf("%w: %w (last error: %w)", ErrRetryAborted, ctx.Err(), lastErr)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
