package gateway

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Locker serializes commands per entity. pkg/redis.Locker implements it
// across replicas; LocalLocker within one process.
type Locker interface {
	Acquire(ctx context.Context, key string) (func(context.Context) error, error)
}

// LockKey yields lock:<resource>:<id>.
func LockKey(resource string, id uuid.UUID) string {
	return fmt.Sprintf("lock:%s:%s", resource, id)
}

// LocalLocker is an in-process keyed mutex with a bounded wait.
type LocalLocker struct {
	mu    sync.Mutex
	slots map[string]*slot
	wait  time.Duration
}

type slot struct {
	ch   chan struct{}
	refs int
}

func NewLocalLocker(wait time.Duration) *LocalLocker {
	return &LocalLocker{slots: map[string]*slot{}, wait: wait}
}

func (l *LocalLocker) Acquire(ctx context.Context, key string) (func(context.Context) error, error) {
	l.mu.Lock()
	s, ok := l.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	l.mu.Unlock()

	var timeout <-chan time.Time
	if l.wait > 0 {
		timer := time.NewTimer(l.wait)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case s.ch <- struct{}{}:
	default:
		if l.wait <= 0 {
			l.drop(key, s)
			return nil, fmt.Errorf("lock %s is held", key)
		}
		select {
		case s.ch <- struct{}{}:
		case <-timeout:
			l.drop(key, s)
			return nil, fmt.Errorf("lock %s not obtained within %s", key, l.wait)
		case <-ctx.Done():
			l.drop(key, s)
			return nil, ctx.Err()
		}
	}

	var once sync.Once
	return func(context.Context) error {
		once.Do(func() {
			<-s.ch
			l.drop(key, s)
		})
		return nil
	}, nil
}

func (l *LocalLocker) drop(key string, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}
