package lock

import (
	"context"
	"sync"
	"time"
)

// MemoryLocker is an in-process implementation of Locker for tests and
// single-instance deployments. Semantics match RedisLocker: acquire is
// set-if-absent with expiry, release is an unconditional delete.
type MemoryLocker struct {
	mu    sync.Mutex
	locks map[string]time.Time
}

// NewMemoryLocker creates a new in-memory locker.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{
		locks: make(map[string]time.Time),
	}
}

// Acquire takes the lock if it is absent or its TTL has lapsed.
func (l *MemoryLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if expiresAt, held := l.locks[key]; held && now.Before(expiresAt) {
		return false, nil
	}

	l.locks[key] = now.Add(ttl)
	return true, nil
}

// Release deletes the lock.
func (l *MemoryLocker) Release(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.locks, key)
	return nil
}

// Ensure MemoryLocker implements Locker
var _ Locker = (*MemoryLocker)(nil)
