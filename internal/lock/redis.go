package lock

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// lockValue is the constant sentinel stored under the lock key. The
// protocol does not track holder identity.
const lockValue = "locked"

// RedisLocker implements Locker using Redis SET NX EX, which is atomic
// at the store level. A separate exists-then-set sequence would let two
// callers both observe absence and both "acquire".
type RedisLocker struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisLocker creates a Redis-backed locker around an existing client.
func NewRedisLocker(client *redis.Client, keyPrefix string) *RedisLocker {
	if keyPrefix == "" {
		keyPrefix = "storefront"
	}
	return &RedisLocker{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

func (l *RedisLocker) key(k string) string {
	return l.keyPrefix + ":lock:" + k
}

// Acquire attempts to take the lock. Returns true iff this call created
// the key.
func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return l.client.SetNX(ctx, l.key(key), lockValue, ttl).Result()
}

// Release deletes the lock key.
func (l *RedisLocker) Release(ctx context.Context, key string) error {
	return l.client.Del(ctx, l.key(key)).Err()
}

// Ensure RedisLocker implements Locker
var _ Locker = (*RedisLocker)(nil)
