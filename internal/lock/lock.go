package lock

import (
	"context"
	"time"
)

// Locker is a cross-process advisory mutual-exclusion primitive. Acquire
// returns true iff this call created the lock key; false means another
// holder has it and the caller should wait and retry. Release deletes
// the key unconditionally: there is no ownership token, so a holder that
// outlives its TTL can release a lock re-acquired by someone else. The
// TTL bounds the blast radius and is the only crash-recovery mechanism.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}
