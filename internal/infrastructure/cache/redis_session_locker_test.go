package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisSessionLocker_Lock(t *testing.T) {
	t.Run("acquires and releases", func(t *testing.T) {
		client, mr := setupTestRedis(t)
		locker := NewRedisSessionLocker(client, 10*time.Second, 100*time.Millisecond, nil)

		unlock, err := locker.Lock(context.Background(), "s1")
		require.NoError(t, err)
		assert.True(t, mr.Exists("cartlock:s1"))
		assert.Equal(t, 10*time.Second, mr.TTL("cartlock:s1"))

		unlock()
		assert.False(t, mr.Exists("cartlock:s1"))
		unlock()
	})

	t.Run("busy session times out", func(t *testing.T) {
		client, _ := setupTestRedis(t)
		locker := NewRedisSessionLocker(client, 10*time.Second, 50*time.Millisecond, nil)

		unlock, err := locker.Lock(context.Background(), "s1")
		require.NoError(t, err)
		defer unlock()

		_, err = locker.Lock(context.Background(), "s1")
		assert.ErrorIs(t, err, cart.ErrCartBusy)
	})

	t.Run("other sessions are independent", func(t *testing.T) {
		client, _ := setupTestRedis(t)
		locker := NewRedisSessionLocker(client, 10*time.Second, 50*time.Millisecond, nil)

		unlock1, err := locker.Lock(context.Background(), "s1")
		require.NoError(t, err)
		defer unlock1()

		unlock2, err := locker.Lock(context.Background(), "s2")
		require.NoError(t, err)
		unlock2()
	})

	t.Run("waiter gets the lock after release", func(t *testing.T) {
		client, _ := setupTestRedis(t)
		locker := NewRedisSessionLocker(client, 10*time.Second, 2*time.Second, nil)

		unlock, err := locker.Lock(context.Background(), "s1")
		require.NoError(t, err)

		var wg sync.WaitGroup
		wg.Add(1)
		var waitErr error
		go func() {
			defer wg.Done()
			u, err := locker.Lock(context.Background(), "s1")
			waitErr = err
			if err == nil {
				u()
			}
		}()

		time.Sleep(30 * time.Millisecond)
		unlock()
		wg.Wait()
		assert.NoError(t, waitErr)
	})

	t.Run("stale holder does not release a new owner", func(t *testing.T) {
		client, mr := setupTestRedis(t)
		locker := NewRedisSessionLocker(client, time.Second, 50*time.Millisecond, nil)

		staleUnlock, err := locker.Lock(context.Background(), "s1")
		require.NoError(t, err)
		mr.FastForward(2 * time.Second)

		unlock, err := locker.Lock(context.Background(), "s1")
		require.NoError(t, err)
		defer unlock()

		staleUnlock()
		assert.True(t, mr.Exists("cartlock:s1"))
	})

	t.Run("cancelled context", func(t *testing.T) {
		client, _ := setupTestRedis(t)
		locker := NewRedisSessionLocker(client, 10*time.Second, time.Second, nil)

		unlock, err := locker.Lock(context.Background(), "s1")
		require.NoError(t, err)
		defer unlock()

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		_, err = locker.Lock(ctx, "s1")
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("cart keys never collide with lock keys", func(t *testing.T) {
		client, mr := setupTestRedis(t)
		store := NewRedisCartStore(client, time.Hour)
		locker := NewRedisSessionLocker(client, 10*time.Second, 50*time.Millisecond, nil)

		require.NoError(t, store.Save(context.Background(), sampleCart(t, "lock:victim")))

		unlock, err := locker.Lock(context.Background(), "victim")
		require.NoError(t, err)
		defer unlock()
		assert.True(t, mr.Exists("cart:lock:victim"))
		assert.True(t, mr.Exists("cartlock:victim"))
	})

	t.Run("redis down is a storage failure", func(t *testing.T) {
		client, mr := setupTestRedis(t)
		locker := NewRedisSessionLocker(client, time.Second, 50*time.Millisecond, nil)
		mr.Close()

		_, err := locker.Lock(context.Background(), "s1")
		assert.ErrorIs(t, err, shared.ErrStorageUnavailable)
	})
}
