package cache

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/eshop/backend/internal/domain/feed"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryFeedLock(t *testing.T) {
	ctx := context.Background()

	t.Run("second acquire fails until release", func(t *testing.T) {
		lock := NewInMemoryFeedLock(time.Minute)
		feedID := uuid.New()

		release, err := lock.Acquire(ctx, feedID)
		require.NoError(t, err)

		_, err = lock.Acquire(ctx, feedID)
		assert.ErrorIs(t, err, feed.ErrSyncInProgress)

		require.NoError(t, release(ctx))
		release2, err := lock.Acquire(ctx, feedID)
		require.NoError(t, err)
		require.NoError(t, release2(ctx))
	})

	t.Run("feeds are independent", func(t *testing.T) {
		lock := NewInMemoryFeedLock(time.Minute)
		_, err := lock.Acquire(ctx, uuid.New())
		require.NoError(t, err)
		_, err = lock.Acquire(ctx, uuid.New())
		assert.NoError(t, err)
	})

	t.Run("expired lock can be taken and stale release is ignored", func(t *testing.T) {
		lock := NewInMemoryFeedLock(time.Minute)
		now := time.Now()
		lock.now = func() time.Time { return now }
		feedID := uuid.New()

		staleRelease, err := lock.Acquire(ctx, feedID)
		require.NoError(t, err)

		now = now.Add(2 * time.Minute)
		_, err = lock.Acquire(ctx, feedID)
		require.NoError(t, err)

		require.NoError(t, staleRelease(ctx))
		_, err = lock.Acquire(ctx, feedID)
		assert.ErrorIs(t, err, feed.ErrSyncInProgress)
	})

	t.Run("only one concurrent winner", func(t *testing.T) {
		lock := NewInMemoryFeedLock(time.Minute)
		feedID := uuid.New()
		var wins atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := lock.Acquire(ctx, feedID); err == nil {
					wins.Add(1)
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, int32(1), wins.Load())
	})
}

// ESHOP_TEST_REDIS_ADDR points at a disposable Redis, e.g. localhost:6379
func redisForTest(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("ESHOP_TEST_REDIS_ADDR")
	if addr == "" || testing.Short() {
		t.Skip("ESHOP_TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	require.NoError(t, client.Ping(context.Background()).Err())
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisFeedLock(t *testing.T) {
	client := redisForTest(t)
	ctx := context.Background()
	lock := NewRedisFeedLock(client, time.Minute)
	lock.keyPrefix = "test:" + uuid.NewString() + ":"
	feedID := uuid.New()

	release, err := lock.Acquire(ctx, feedID)
	require.NoError(t, err)

	ttl, err := client.PTTL(ctx, lock.keyPrefix+feedID.String()).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	_, err = lock.Acquire(ctx, feedID)
	assert.ErrorIs(t, err, feed.ErrSyncInProgress)

	require.NoError(t, release(ctx))
	release2, err := lock.Acquire(ctx, feedID)
	require.NoError(t, err)

	// a stale release must not drop the current holder's key
	require.NoError(t, release(ctx))
	_, err = lock.Acquire(ctx, feedID)
	assert.ErrorIs(t, err, feed.ErrSyncInProgress)

	require.NoError(t, release2(ctx))
}
