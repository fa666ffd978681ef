package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
)

// ErrLockNotObtained means another holder kept the lock for the whole wait.
var ErrLockNotObtained = errors.New("lock not obtained")

const lockRetryInterval = 50 * time.Millisecond

// Locker hands out short-lived exclusive locks shared by every API replica.
type Locker struct {
	client *redislock.Client
	ttl    time.Duration
	wait   time.Duration
}

// NewLocker builds a locker on top of the client's connection. ttl bounds
// how long a crashed holder can block others; wait bounds how long Acquire
// retries before giving up.
func NewLocker(c *Client, ttl, wait time.Duration) (*Locker, error) {
	if c == nil || c.raw == nil {
		return nil, errors.New("redis client required for locking")
	}
	if ttl <= 0 {
		return nil, errors.New("lock ttl must be positive")
	}
	if wait < 0 {
		wait = 0
	}
	return &Locker{client: redislock.New(c.raw), ttl: ttl, wait: wait}, nil
}

// Acquire takes the lock stored at key and returns its release func.
func (l *Locker) Acquire(ctx context.Context, key string) (func(context.Context) error, error) {
	obtainCtx := ctx
	opts := &redislock.Options{RetryStrategy: redislock.NoRetry()}
	if l.wait > 0 {
		var cancel context.CancelFunc
		obtainCtx, cancel = context.WithTimeout(ctx, l.wait)
		defer cancel()
		opts.RetryStrategy = redislock.LinearBackoff(lockRetryInterval)
	}

	lock, err := l.client.Obtain(obtainCtx, key, l.ttl, opts)
	if err != nil {
		if errors.Is(err, redislock.ErrNotObtained) || errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s", ErrLockNotObtained, key)
		}
		return nil, fmt.Errorf("obtain lock %s: %w", key, err)
	}
	return func(releaseCtx context.Context) error {
		if err := lock.Release(releaseCtx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			return err
		}
		return nil
	}, nil
}
