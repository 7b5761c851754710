package resilience

import (
	"log"
	"sync"
	"time"
)

// State is the circuit breaker state.
type State int

const (
	// StateClosed allows calls through normally.
	StateClosed State = iota
	// StateOpen fails calls fast without attempting them.
	StateOpen
	// StateHalfOpen allows a single trial call after the reset timeout.
	StateHalfOpen
)

// String returns the state name for diagnostics.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen is returned when the breaker rejects a call without
// attempting it.
type breakerError string

func (e breakerError) Error() string { return string(e) }

const ErrCircuitOpen breakerError = "circuit breaker open"

// CircuitBreaker gates calls to a single upstream dependency. State is
// process-local: each instance makes its own open/closed decision.
// Mutations happen only inside Execute.
type CircuitBreaker struct {
	name         string
	threshold    int
	resetTimeout time.Duration

	mu            sync.Mutex
	state         State
	failureCount  int
	successCount  int
	lastFailure   time.Time
	trialInFlight bool
}

// NewCircuitBreaker creates a breaker for the named dependency.
func NewCircuitBreaker(name string, threshold int, resetTimeout time.Duration) *CircuitBreaker {
	if threshold <= 0 {
		threshold = 5
	}
	if resetTimeout <= 0 {
		resetTimeout = 30 * time.Second
	}
	return &CircuitBreaker{
		name:         name,
		threshold:    threshold,
		resetTimeout: resetTimeout,
		state:        StateClosed,
	}
}

// Execute runs fn through the breaker. If the circuit is open and the
// reset timeout has not elapsed, it returns ErrCircuitOpen without
// calling fn. After the timeout exactly one trial is let through;
// concurrent callers arriving while that trial is in flight fail fast.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	isTrial := false

	cb.mu.Lock()
	switch cb.state {
	case StateOpen:
		if time.Since(cb.lastFailure) < cb.resetTimeout {
			cb.mu.Unlock()
			return ErrCircuitOpen
		}
		cb.transition(StateHalfOpen)
		cb.trialInFlight = true
		isTrial = true
	case StateHalfOpen:
		if cb.trialInFlight {
			cb.mu.Unlock()
			return ErrCircuitOpen
		}
		cb.trialInFlight = true
		isTrial = true
	}
	cb.mu.Unlock()

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()

	if isTrial {
		cb.trialInFlight = false
	}

	if err != nil {
		cb.failureCount++
		cb.lastFailure = time.Now()
		if cb.failureCount >= cb.threshold {
			cb.transition(StateOpen)
		}
		return err
	}

	cb.failureCount = 0
	cb.successCount++
	if cb.state == StateHalfOpen {
		cb.transition(StateClosed)
	}
	return nil
}

// State returns the current breaker state for diagnostics.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// transition changes state and resets per-state counters. Caller must
// hold cb.mu.
func (cb *CircuitBreaker) transition(to State) {
	if cb.state == to {
		return
	}
	log.Printf("[CircuitBreaker:%s] %s -> %s (failures=%d)", cb.name, cb.state, to, cb.failureCount)
	cb.state = to
	cb.successCount = 0
	if to == StateClosed {
		cb.failureCount = 0
	}
	// failureCount is kept across open -> half-open so a failed trial
	// reopens the circuit immediately.
}
