package lock

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"
)

// releaseScript deletes the key only when the stored holder value matches,
// so an expired handle cannot free a lock re-acquired by someone else.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisLocker implements Locker on top of Redis using SET NX PX.
type RedisLocker struct {
	client        redis.UniversalClient
	holderTTL     time.Duration
	retryInterval time.Duration
}

// RedisOption configures a RedisLocker.
type RedisOption func(*RedisLocker)

// WithHolderTTL bounds how long a holder may keep the lock before it
// auto-releases. Must exceed the longest critical section it guards.
func WithHolderTTL(ttl time.Duration) RedisOption {
	return func(l *RedisLocker) {
		if ttl > 0 {
			l.holderTTL = ttl
		}
	}
}

// WithRetryInterval sets the pause between contended acquisition attempts.
func WithRetryInterval(interval time.Duration) RedisOption {
	return func(l *RedisLocker) {
		if interval > 0 {
			l.retryInterval = interval
		}
	}
}

// NewRedisLocker creates a Redis-backed locker.
func NewRedisLocker(client redis.UniversalClient, opts ...RedisOption) *RedisLocker {
	l := &RedisLocker{
		client:        client,
		holderTTL:     10 * time.Second,
		retryInterval: 50 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Acquire obtains the lock for key, retrying at a constant interval until
// timeout elapses.
func (l *RedisLocker) Acquire(ctx context.Context, key string, timeout time.Duration) (*Handle, error) {
	holder := newHolder()

	backoff := retry.WithMaxDuration(timeout, retry.NewConstant(l.retryInterval))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		ok, err := l.client.SetNX(ctx, key, holder, l.holderTTL).Result()
		if err != nil {
			// Transient store failures are retried within the same deadline.
			return retry.RetryableError(errors.Join(ErrStoreUnavailable, err))
		}
		if !ok {
			return retry.RetryableError(ErrAcquireTimeout)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrStoreUnavailable) {
			return nil, err
		}
		return nil, errors.Join(ErrAcquireTimeout, err)
	}

	return &Handle{key: key, holder: holder}, nil
}

// Release frees the lock if handle still owns it.
func (l *RedisLocker) Release(ctx context.Context, handle *Handle) error {
	if handle == nil {
		return ErrNilHandle
	}

	if err := releaseScript.Run(ctx, l.client, []string{handle.key}, handle.holder).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

var _ Locker = (*RedisLocker)(nil)
