package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockNotAcquired is returned when a lock stays contended past the
// wait budget.
var ErrLockNotAcquired = errors.New("lock not acquired")

const lockRetryInterval = 25 * time.Millisecond

// releaseScript deletes the key only if it still holds our token, so an
// expired lock taken over by another holder is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker serializes work per key across process instances. It
// narrows the race window in front of the store's own uniqueness
// constraint; correctness does not depend on it.
type RedisLocker struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	wait   time.Duration
}

// NewRedisLocker builds a locker over client.
func NewRedisLocker(client *redis.Client, prefix string, ttl, wait time.Duration) *RedisLocker {
	return &RedisLocker{client: client, prefix: prefix, ttl: ttl, wait: wait}
}

// Lock acquires key and returns the function that releases it.
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	fullKey := l.prefix + key
	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.client.SetNX(ctx, fullKey, token, l.ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			return func() {
				// Release on a fresh context: the request may already be cancelled.
				releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				_ = releaseScript.Run(releaseCtx, l.client, []string{fullKey}, token).Err()
			}, nil
		}
		if time.Now().After(deadline) {
			return nil, ErrLockNotAcquired
		}
		timer := time.NewTimer(lockRetryInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}
