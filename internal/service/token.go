package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"storefront-api/internal/cache"
	"storefront-api/internal/lock"
	"storefront-api/internal/model"
	"storefront-api/internal/resilience"
	"storefront-api/pkg/apierror"
)

const (
	// TokenCacheKey holds the fleet-shared access token.
	TokenCacheKey = "oauth:access_token"

	// TokenLockKey guards the refresh call so one instance refreshes
	// per expiry cycle.
	TokenLockKey = "oauth:token_refresh"
)

// TokenServiceConfig holds refresh protocol settings.
type TokenServiceConfig struct {
	// SafetyBuffer is subtracted from the token's real lifetime so the
	// cached entry disappears before the token is truly expired.
	SafetyBuffer time.Duration

	// LockTTL bounds a crashed holder's lock; it must exceed the
	// expected refresh call latency.
	LockTTL time.Duration

	// LockWait is how long a non-holder waits before re-checking.
	LockWait time.Duration

	// LockAttempts bounds the wait-and-retry loop. Past the budget the
	// caller gets an authorization failure instead of livelocking.
	LockAttempts int
}

func (c *TokenServiceConfig) applyDefaults() {
	if c.SafetyBuffer <= 0 {
		c.SafetyBuffer = 60 * time.Second
	}
	if c.LockTTL <= 0 {
		c.LockTTL = 10 * time.Second
	}
	if c.LockWait <= 0 {
		c.LockWait = 100 * time.Millisecond
	}
	if c.LockAttempts <= 0 {
		c.LockAttempts = 50
	}
}

// TokenService manages the single shared OAuth2 credential. Under
// normal operation exactly one instance across the fleet performs the
// network refresh per expiry cycle; everyone else reads the cache.
type TokenService struct {
	issuer  TokenIssuer
	cache   cache.Cache
	locker  lock.Locker
	breaker *resilience.CircuitBreaker
	retrier *resilience.Retrier
	cfg     TokenServiceConfig

	now func() time.Time // injectable clock for tests
}

// NewTokenService creates a new token service.
// Returns nil if any required dependency is missing.
func NewTokenService(
	issuer TokenIssuer,
	c cache.Cache,
	locker lock.Locker,
	breaker *resilience.CircuitBreaker,
	retrier *resilience.Retrier,
	cfg TokenServiceConfig,
) *TokenService {
	if issuer == nil || c == nil || locker == nil || breaker == nil || retrier == nil {
		return nil
	}
	cfg.applyDefaults()
	return &TokenService{
		issuer:  issuer,
		cache:   c,
		locker:  locker,
		breaker: breaker,
		retrier: retrier,
		cfg:     cfg,
		now:     time.Now,
	}
}

// GetAccessToken returns a token guaranteed to outlive the safety
// buffer. Fast path reads the cache without touching the lock; on miss
// it enters the lock-guarded refresh protocol. Unrecoverable failures
// surface as authorization errors.
func (s *TokenService) GetAccessToken(ctx context.Context) (*model.AccessToken, error) {
	if token := s.cachedToken(ctx); token != nil {
		return token, nil
	}

	for attempt := 0; attempt < s.cfg.LockAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, apierror.Unauthorized("token refresh cancelled")
		}

		acquired, err := s.locker.Acquire(ctx, TokenLockKey, s.cfg.LockTTL)
		if err != nil {
			// Lock store unreachable. Refresh without exclusion rather
			// than fail: the breaker caps the resulting herd.
			log.Printf("[TokenService] lock store error, refreshing uncoordinated: %v", err)
			acquired = true
		}

		if acquired {
			return s.refreshUnderLock(ctx, err == nil)
		}

		// Another instance is refreshing. Wait briefly, then re-check
		// the cache before trying the lock again.
		select {
		case <-time.After(s.cfg.LockWait):
		case <-ctx.Done():
			return nil, apierror.Unauthorized("token refresh cancelled")
		}

		if token := s.cachedToken(ctx); token != nil {
			return token, nil
		}
	}

	return nil, apierror.Unauthorized("timed out waiting for token refresh")
}

// refreshUnderLock re-checks the cache (another holder may have
// refreshed between the fast path and lock acquisition), then performs
// the issuer call through the retrier and breaker. The lock is released
// even when the refresh fails.
func (s *TokenService) refreshUnderLock(ctx context.Context, holdingLock bool) (*model.AccessToken, error) {
	if holdingLock {
		defer func() {
			if err := s.locker.Release(ctx, TokenLockKey); err != nil {
				log.Printf("[TokenService] lock release failed: %v", err)
			}
		}()
	}

	if token := s.cachedToken(ctx); token != nil {
		return token, nil
	}

	var token *model.AccessToken
	err := s.retrier.Do(ctx, func() error {
		return s.breaker.Execute(func() error {
			fetched, err := s.issuer.FetchToken(ctx)
			if err != nil {
				return err
			}
			token = fetched
			return nil
		})
	})
	if err != nil {
		log.Printf("[TokenService] token refresh failed: %v", err)
		if apierror.IsClientError(err) {
			return nil, err
		}
		if errors.Is(err, resilience.ErrCircuitOpen) {
			return nil, apierror.ServiceUnavailable("token issuer unavailable")
		}
		return nil, apierror.Unauthorized("unable to refresh access token")
	}

	token.ExpiresAt = s.now().Add(time.Duration(token.ExpiresIn) * time.Second)
	s.storeToken(ctx, token)

	log.Printf("[TokenService] refreshed access token, expires at %v", token.ExpiresAt)
	return token, nil
}

// cachedToken returns the cached token if it is still clear of the
// safety buffer. Cache errors degrade to a miss.
func (s *TokenService) cachedToken(ctx context.Context) *model.AccessToken {
	data, err := s.cache.Get(ctx, TokenCacheKey)
	if err != nil {
		if err != cache.ErrCacheMiss {
			log.Printf("[TokenService] cache get failed: %v", err)
		}
		return nil
	}

	var token model.AccessToken
	if err := json.Unmarshal(data, &token); err != nil {
		_ = s.cache.Delete(ctx, TokenCacheKey)
		return nil
	}

	if !token.ValidFor(s.now(), s.cfg.SafetyBuffer) {
		return nil
	}
	return &token
}

// storeToken caches the token with TTL = expiresIn - safetyBuffer so
// the entry vanishes before the token does. If the subtraction would go
// non-positive the raw lifetime is used.
func (s *TokenService) storeToken(ctx context.Context, token *model.AccessToken) {
	lifetime := time.Duration(token.ExpiresIn) * time.Second
	ttl := lifetime - s.cfg.SafetyBuffer
	if ttl <= 0 {
		ttl = lifetime
	}

	data, err := json.Marshal(token)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, TokenCacheKey, data, ttl); err != nil {
		log.Printf("[TokenService] cache set failed: %v", err)
	}
}
