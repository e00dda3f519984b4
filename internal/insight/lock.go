package insight

import (
	"context"
	"log/slog"
	"time"

	"github.com/bsm/redislock"
)

// RedisLocker implements Locker with a Redis lock per owner, so replicas
// sharing a Redis instance also keep one request in flight per owner.
type RedisLocker struct {
	client *redislock.Client
	ttl    time.Duration
	retry  redislock.RetryStrategy
}

func NewRedisLocker(client redislock.RedisClient, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisLocker{
		client: redislock.New(client),
		ttl:    ttl,
		retry:  redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), 50),
	}
}

func (l *RedisLocker) Lock(ctx context.Context, ownerID string) (func(), error) {
	lock, err := l.client.Obtain(ctx, "lock:insight:"+ownerID, l.ttl, &redislock.Options{RetryStrategy: l.retry})
	if err != nil {
		return nil, err
	}
	return func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil && err != redislock.ErrLockNotHeld {
			slog.WarnContext(ctx, "Failed to release insight lock", "owner_id", ownerID, "error", err)
		}
	}, nil
}
