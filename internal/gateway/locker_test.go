package gateway

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockKey(t *testing.T) {
	id := uuid.MustParse("6f1c2a8e-1111-4a2b-9c3d-000000000001")
	assert.Equal(t, "lock:payout:6f1c2a8e-1111-4a2b-9c3d-000000000001", LockKey("payout", id))
}

func TestLocalLockerExcludesSameKey(t *testing.T) {
	l := NewLocalLocker(20 * time.Millisecond)
	ctx := context.Background()

	release, err := l.Acquire(ctx, "lock:payout:a")
	require.NoError(t, err)

	_, err = l.Acquire(ctx, "lock:payout:a")
	assert.Error(t, err)

	other, err := l.Acquire(ctx, "lock:payout:b")
	require.NoError(t, err)
	require.NoError(t, other(ctx))

	require.NoError(t, release(ctx))
	require.NoError(t, release(ctx))

	again, err := l.Acquire(ctx, "lock:payout:a")
	require.NoError(t, err)
	require.NoError(t, again(ctx))
	assert.Empty(t, l.slots)
}

func TestLocalLockerWaitsForRelease(t *testing.T) {
	l := NewLocalLocker(time.Second)
	ctx := context.Background()

	release, err := l.Acquire(ctx, "k")
	require.NoError(t, err)

	acquired := make(chan error, 1)
	go func() {
		second, err := l.Acquire(ctx, "k")
		if err == nil {
			err = second(ctx)
		}
		acquired <- err
	}()

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, release(ctx))
	select {
	case err := <-acquired:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("waiter never acquired the lock")
	}
}

func TestLocalLockerHonoursContext(t *testing.T) {
	l := NewLocalLocker(time.Minute)
	release, err := l.Acquire(context.Background(), "k")
	require.NoError(t, err)
	defer release(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = l.Acquire(ctx, "k")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
