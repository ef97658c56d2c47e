package pipeline

import (
	"context"
	"time"

	"github.com/codebuildervaibhav/meeting-pipeline/internal/types"
)

// RetryPolicy bounds how often a failing collaborator call is repeated.
// Only errors for which types.Retryable is true are retried.
type RetryPolicy struct {
	MaxRetries int
	Backoff    func(attempt int) time.Duration
}

// DefaultRetry retries twice, sleeping attempt² seconds between attempts.
var DefaultRetry = RetryPolicy{
	MaxRetries: 2,
	Backoff: func(attempt int) time.Duration {
		return time.Duration(attempt*attempt) * time.Second
	},
}

func (p RetryPolicy) delay(attempt int) time.Duration {
	if p.Backoff == nil {
		return 0
	}
	return p.Backoff(attempt)
}

// withRetry calls fn until it succeeds, returns a non-retryable error, the
// retries run out or ctx is done. onRetry is told about every failed attempt
// that will be retried.
func withRetry[T any](ctx context.Context, p RetryPolicy, fn func(context.Context) (T, error), onRetry func(attempt int, err error)) (T, error) {
	var zero T
	for attempt := 1; ; attempt++ {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		if !types.Retryable(err) || attempt > p.MaxRetries {
			return zero, err
		}
		if onRetry != nil {
			onRetry(attempt, err)
		}

		timer := time.NewTimer(p.delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}
}
