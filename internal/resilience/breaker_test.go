package resilience

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errUpstream = errors.New("upstream failure")

func failing() error { return errUpstream }
func succeeding() error { return nil }

func TestBreakerStaysClosedBelowThreshold(t *testing.T) {
	cb := NewCircuitBreaker("test", 3, time.Minute)

	for i := 0; i < 2; i++ {
		err := cb.Execute(failing)
		assert.ErrorIs(t, err, errUpstream)
	}

	assert.Equal(t, StateClosed, cb.State())
}

func TestBreakerOpensAtThreshold(t *testing.T) {
	cb := NewCircuitBreaker("test", 3, time.Minute)

	for i := 0; i < 3; i++ {
		_ = cb.Execute(failing)
	}

	assert.Equal(t, StateOpen, cb.State())

	// Next call fails fast without attempting the operation.
	attempted := false
	err := cb.Execute(func() error {
		attempted = true
		return nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, attempted)
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	cb := NewCircuitBreaker("test", 3, time.Minute)

	_ = cb.Execute(failing)
	_ = cb.Execute(failing)
	require.NoError(t, cb.Execute(succeeding))

	// Two more failures should not trip a threshold of three.
	_ = cb.Execute(failing)
	_ = cb.Execute(failing)
	assert.Equal(t, StateClosed, cb.State())
}

func TestBreakerHalfOpenTrialCloses(t *testing.T) {
	cb := NewCircuitBreaker("test", 2, 20*time.Millisecond)

	_ = cb.Execute(failing)
	_ = cb.Execute(failing)
	require.Equal(t, StateOpen, cb.State())

	time.Sleep(30 * time.Millisecond)

	// Reset timeout elapsed: one trial call is allowed through.
	err := cb.Execute(succeeding)
	require.NoError(t, err)
	assert.Equal(t, StateClosed, cb.State())
}

func TestBreakerHalfOpenAllowsSingleConcurrentTrial(t *testing.T) {
	cb := NewCircuitBreaker("test", 2, 20*time.Millisecond)

	_ = cb.Execute(failing)
	_ = cb.Execute(failing)
	require.Equal(t, StateOpen, cb.State())

	time.Sleep(30 * time.Millisecond)

	// Five callers race into the half-open circuit; only one trial may
	// reach the recovering dependency, the rest fail fast.
	var attempts int64
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = cb.Execute(func() error {
				atomic.AddInt64(&attempts, 1)
				time.Sleep(20 * time.Millisecond)
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), atomic.LoadInt64(&attempts))
	assert.Equal(t, StateClosed, cb.State())
}

func TestBreakerHalfOpenTrialFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker("test", 2, 20*time.Millisecond)

	_ = cb.Execute(failing)
	_ = cb.Execute(failing)
	require.Equal(t, StateOpen, cb.State())

	time.Sleep(30 * time.Millisecond)

	err := cb.Execute(failing)
	assert.ErrorIs(t, err, errUpstream)
	assert.Equal(t, StateOpen, cb.State())

	// And the reopened circuit fails fast again.
	err = cb.Execute(succeeding)
	assert.ErrorIs(t, err, ErrCircuitOpen)
}
