package service

import (
	"context"
	"log"
	"sync"
	"time"
)

// RefreshSchedulerConfig holds configuration for the refresh-ahead scheduler.
type RefreshSchedulerConfig struct {
	// Interval is how often the scheduler checks the shared token.
	// Default: 30 seconds
	Interval time.Duration

	// Timeout bounds each background refresh attempt.
	// Default: 15 seconds
	Timeout time.Duration
}

// RefreshScheduler keeps the shared access token warm by calling
// GetAccessToken on a timer. With the safety buffer in place this means
// the fleet rarely refreshes on the request path. Best effort: failures
// are logged and the next tick tries again.
type RefreshScheduler struct {
	tokens    *TokenService
	config    RefreshSchedulerConfig
	ticker    *time.Ticker
	stopCh    chan struct{}
	stopOnce  sync.Once
	isRunning bool
	mu        sync.Mutex
}

// NewRefreshScheduler creates a new refresh-ahead scheduler.
func NewRefreshScheduler(tokens *TokenService, config RefreshSchedulerConfig) *RefreshScheduler {
	if config.Interval <= 0 {
		config.Interval = 30 * time.Second
	}
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}

	return &RefreshScheduler{
		tokens: tokens,
		config: config,
		stopCh: make(chan struct{}),
	}
}

// Start begins the scheduler.
func (s *RefreshScheduler) Start() {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = true
	s.ticker = time.NewTicker(s.config.Interval)
	s.mu.Unlock()

	log.Printf("[RefreshScheduler] Started - Interval: %v", s.config.Interval)

	go s.run()
}

func (s *RefreshScheduler) run() {
	// Warm the token immediately so the first requests hit the cache.
	s.refresh()

	for {
		select {
		case <-s.ticker.C:
			s.refresh()
		case <-s.stopCh:
			return
		}
	}
}

func (s *RefreshScheduler) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Timeout)
	defer cancel()

	if _, err := s.tokens.GetAccessToken(ctx); err != nil {
		log.Printf("[RefreshScheduler] background refresh failed: %v", err)
	}
}

// Stop halts the scheduler.
func (s *RefreshScheduler) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		if s.ticker != nil {
			s.ticker.Stop()
		}
		s.isRunning = false
		s.mu.Unlock()
		close(s.stopCh)
	})
	log.Printf("[RefreshScheduler] Stopped")
}
