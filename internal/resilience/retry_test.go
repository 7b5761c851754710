package resilience

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-api/pkg/apierror"
)

func TestRetrierReturnsOnFirstSuccess(t *testing.T) {
	r := NewRetrier(3, time.Millisecond)

	calls := 0
	err := r.Do(context.Background(), func() error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetrierRetriesTransientFailures(t *testing.T) {
	r := NewRetrier(3, time.Millisecond)

	calls := 0
	err := r.Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errUpstream
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetrierExhaustsAttemptsAndReturnsLastError(t *testing.T) {
	r := NewRetrier(3, time.Millisecond)

	calls := 0
	err := r.Do(context.Background(), func() error {
		calls++
		return errUpstream
	})

	assert.ErrorIs(t, err, errUpstream)
	assert.Equal(t, 3, calls)
}

func TestRetrierDoesNotRetryClientErrors(t *testing.T) {
	r := NewRetrier(5, time.Millisecond)

	calls := 0
	err := r.Do(context.Background(), func() error {
		calls++
		return apierror.BadRequest("bad input")
	})

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.True(t, apierror.IsClientError(err))
}

func TestRetrierDoesNotRetryCircuitOpen(t *testing.T) {
	r := NewRetrier(5, time.Millisecond)

	calls := 0
	err := r.Do(context.Background(), func() error {
		calls++
		return ErrCircuitOpen
	})

	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 1, calls)
}

func TestRetrierHonorsContextCancellation(t *testing.T) {
	r := NewRetrier(10, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	calls := 0
	start := time.Now()
	err := r.Do(ctx, func() error {
		calls++
		return errUpstream
	})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, calls)
	// The 10-attempt backoff schedule would take seconds; the deadline
	// must cut it short.
	assert.Less(t, time.Since(start), 200*time.Millisecond)
}

func TestRetrierBackoffIsExponential(t *testing.T) {
	base := 10 * time.Millisecond
	r := NewRetrier(3, base)

	start := time.Now()
	_ = r.Do(context.Background(), func() error {
		return errUpstream
	})
	elapsed := time.Since(start)

	// Delays: base + 2*base = 30ms minimum before the final attempt.
	assert.GreaterOrEqual(t, elapsed, 30*time.Millisecond)
}
