// Package redislock provides a best-effort distributed lock on Redis. With
// no Redis configured the lock always grants, which is correct for single
// instance deployments.
package redislock

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Locker grants short leases on named keys.
type Locker struct {
	client *redis.Client
}

// New wraps client, which may be nil.
func New(client *redis.Client) *Locker {
	return &Locker{client: client}
}

// TryAcquire attempts to take the lease for key. It returns false when
// another holder owns it. Redis errors also return false so a flaky Redis
// never turns one leaseholder into many.
func (l *Locker) TryAcquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if l.client == nil {
		return true, nil
	}
	ok, err := l.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}

// Release drops the lease early.
func (l *Locker) Release(ctx context.Context, key string) error {
	if l.client == nil {
		return nil
	}
	return l.client.Del(ctx, key).Err()
}
