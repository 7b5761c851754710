package resilience

import (
	"context"
	"errors"
	"time"

	"storefront-api/pkg/apierror"
)

// Retrier wraps a unit of work with bounded exponential-backoff retry.
// Fast-fail decisions belong to the CircuitBreaker; the retrier only
// decides whether another attempt is worth making.
type Retrier struct {
	maxAttempts int
	baseDelay   time.Duration
}

// NewRetrier creates a retrier. maxAttempts counts the first attempt.
func NewRetrier(maxAttempts int, baseDelay time.Duration) *Retrier {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if baseDelay <= 0 {
		baseDelay = 200 * time.Millisecond
	}
	return &Retrier{
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
	}
}

// Do runs fn up to maxAttempts times with delays of baseDelay * 2^attempt
// between failures. Client-class errors and ErrCircuitOpen are returned
// immediately without consuming further attempts. The backoff sleep
// honors ctx so callers bound total elapsed time with their own deadline.
func (r *Retrier) Do(ctx context.Context, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if !isRetriable(lastErr) {
			return lastErr
		}

		if attempt == r.maxAttempts-1 {
			break
		}

		delay := r.baseDelay * (1 << uint(attempt))
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return lastErr
}

// isRetriable classifies the error. 4xx-equivalent errors can never
// succeed on retry, and a tripped breaker means the dependency is being
// rested on purpose.
func isRetriable(err error) bool {
	if errors.Is(err, ErrCircuitOpen) {
		return false
	}
	if apierror.IsClientError(err) {
		return false
	}
	return true
}
