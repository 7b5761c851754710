package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-api/internal/cache"
	"storefront-api/internal/lock"
	"storefront-api/internal/model"
	"storefront-api/internal/resilience"
	"storefront-api/pkg/apierror"
)

// fakeIssuer counts network refresh calls and can be made to fail.
type fakeIssuer struct {
	calls     int64
	delay     time.Duration
	err       error
	expiresIn int64
}

func (f *fakeIssuer) FetchToken(ctx context.Context) (*model.AccessToken, error) {
	atomic.AddInt64(&f.calls, 1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	expiresIn := f.expiresIn
	if expiresIn == 0 {
		expiresIn = 3600
	}
	return &model.AccessToken{
		AccessToken: "tok-abc",
		TokenType:   "Bearer",
		ExpiresIn:   expiresIn,
	}, nil
}

func newTestTokenService(t *testing.T, issuer TokenIssuer, cfg TokenServiceConfig) (*TokenService, *cache.MemoryCache, *lock.MemoryLocker) {
	t.Helper()

	c := cache.NewMemoryCache()
	t.Cleanup(func() { c.Close() })
	locker := lock.NewMemoryLocker()

	breaker := resilience.NewCircuitBreaker("issuer", 5, time.Minute)
	retrier := resilience.NewRetrier(3, time.Millisecond)

	svc := NewTokenService(issuer, c, locker, breaker, retrier, cfg)
	require.NotNil(t, svc)
	return svc, c, locker
}

func TestGetAccessTokenRefreshesOnEmptyCache(t *testing.T) {
	issuer := &fakeIssuer{}
	svc, _, _ := newTestTokenService(t, issuer, TokenServiceConfig{})

	token, err := svc.GetAccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-abc", token.AccessToken)
	assert.Equal(t, int64(1), atomic.LoadInt64(&issuer.calls))
	assert.True(t, token.ExpiresAt.After(time.Now().Add(time.Minute)))
}

func TestGetAccessTokenFastPathSkipsIssuer(t *testing.T) {
	issuer := &fakeIssuer{}
	svc, _, _ := newTestTokenService(t, issuer, TokenServiceConfig{})
	ctx := context.Background()

	_, err := svc.GetAccessToken(ctx)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		token, err := svc.GetAccessToken(ctx)
		require.NoError(t, err)
		assert.Equal(t, "tok-abc", token.AccessToken)
	}

	assert.Equal(t, int64(1), atomic.LoadInt64(&issuer.calls))
}

func TestGetAccessTokenExactlyOnceUnderConcurrency(t *testing.T) {
	issuer := &fakeIssuer{delay: 20 * time.Millisecond}
	svc, _, _ := newTestTokenService(t, issuer, TokenServiceConfig{
		LockWait:     2 * time.Millisecond,
		LockAttempts: 500,
	})

	const n = 20
	var wg sync.WaitGroup
	buffer := 60 * time.Second

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			token, err := svc.GetAccessToken(context.Background())
			assert.NoError(t, err)
			if token != nil {
				assert.True(t, token.ValidFor(time.Now(), buffer))
			}
		}()
	}
	wg.Wait()

	// Of N concurrent callers with no cached token, exactly one hits
	// the network.
	assert.Equal(t, int64(1), atomic.LoadInt64(&issuer.calls))
}

func TestGetAccessTokenRefreshesExpiredToken(t *testing.T) {
	issuer := &fakeIssuer{}
	svc, _, _ := newTestTokenService(t, issuer, TokenServiceConfig{})
	ctx := context.Background()

	// Simulate a stale cache entry inside the safety buffer.
	stale := &model.AccessToken{
		AccessToken: "tok-old",
		TokenType:   "Bearer",
		ExpiresIn:   3600,
		ExpiresAt:   time.Now().Add(30 * time.Second), // < 60s buffer
	}
	svc.storeToken(ctx, stale)

	token, err := svc.GetAccessToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-abc", token.AccessToken)
	assert.Equal(t, int64(1), atomic.LoadInt64(&issuer.calls))
}

func TestGetAccessTokenWaitsForOtherHolder(t *testing.T) {
	issuer := &fakeIssuer{}
	svc, _, locker := newTestTokenService(t, issuer, TokenServiceConfig{
		LockWait:     5 * time.Millisecond,
		LockAttempts: 100,
	})
	ctx := context.Background()

	// Another instance holds the refresh lock.
	ok, err := locker.Acquire(ctx, TokenLockKey, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	// It publishes the refreshed token shortly after.
	go func() {
		time.Sleep(15 * time.Millisecond)
		fresh := &model.AccessToken{
			AccessToken: "tok-from-peer",
			TokenType:   "Bearer",
			ExpiresIn:   3600,
			ExpiresAt:   time.Now().Add(time.Hour),
		}
		svc.storeToken(context.Background(), fresh)
		_ = locker.Release(context.Background(), TokenLockKey)
	}()

	token, err := svc.GetAccessToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-from-peer", token.AccessToken)
	assert.Equal(t, int64(0), atomic.LoadInt64(&issuer.calls), "waiter must not refresh itself")
}

func TestGetAccessTokenBoundedLockWait(t *testing.T) {
	issuer := &fakeIssuer{}
	svc, _, locker := newTestTokenService(t, issuer, TokenServiceConfig{
		LockWait:     time.Millisecond,
		LockAttempts: 3,
	})
	ctx := context.Background()

	// A holder that never publishes and never releases.
	ok, err := locker.Acquire(ctx, TokenLockKey, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = svc.GetAccessToken(ctx)
	require.Error(t, err)

	apiErr, isAPIErr := err.(*apierror.Error)
	require.True(t, isAPIErr)
	assert.Equal(t, "UNAUTHORIZED", apiErr.Code)
}

func TestGetAccessTokenIssuerFailureIsAuthorizationError(t *testing.T) {
	issuer := &fakeIssuer{err: assertAnError}
	svc, _, _ := newTestTokenService(t, issuer, TokenServiceConfig{})

	_, err := svc.GetAccessToken(context.Background())
	require.Error(t, err)

	apiErr, isAPIErr := err.(*apierror.Error)
	require.True(t, isAPIErr)
	assert.Equal(t, "UNAUTHORIZED", apiErr.Code)
	// Transient issuer failures were retried before giving up.
	assert.Equal(t, int64(3), atomic.LoadInt64(&issuer.calls))
}

func TestGetAccessTokenClientErrorNotRetried(t *testing.T) {
	issuer := &fakeIssuer{err: apierror.Unauthorized("bad credentials")}
	svc, _, _ := newTestTokenService(t, issuer, TokenServiceConfig{})

	_, err := svc.GetAccessToken(context.Background())
	require.Error(t, err)
	assert.True(t, apierror.IsClientError(err))
	assert.Equal(t, int64(1), atomic.LoadInt64(&issuer.calls))
}

func TestStoreTokenTTLClampedBySafetyBuffer(t *testing.T) {
	issuer := &fakeIssuer{expiresIn: 30} // shorter than the 60s buffer
	svc, _, _ := newTestTokenService(t, issuer, TokenServiceConfig{})

	token, err := svc.GetAccessToken(context.Background())
	require.NoError(t, err)
	// Short-lived tokens are still returned; the cache entry just uses
	// the raw lifetime instead of a negative TTL.
	assert.Equal(t, "tok-abc", token.AccessToken)
	assert.True(t, token.ExpiresAt.After(time.Now()))
}

// assertAnError is a plain transient error for issuer failures.
var assertAnError = &transientError{}

type transientError struct{}

func (e *transientError) Error() string { return "issuer unreachable" }
