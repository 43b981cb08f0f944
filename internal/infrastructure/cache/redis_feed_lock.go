package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/eshop/backend/internal/domain/feed"
	"github.com/eshop/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultLockKeyPrefix = "feedsync:lock:"

// releaseScript deletes the lock only while it still holds our token, so an
// expired lock re-acquired by another instance is never removed.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisFeedLock implements feed.SyncLock with SET NX PX, shared by every
// instance pointing at the same Redis.
type RedisFeedLock struct {
	client    redis.UniversalClient
	keyPrefix string
	ttl       time.Duration
}

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// NewRedisFeedLock creates a lock whose keys expire after ttl
func NewRedisFeedLock(client redis.UniversalClient, ttl time.Duration) *RedisFeedLock {
	return &RedisFeedLock{
		client:    client,
		keyPrefix: defaultLockKeyPrefix,
		ttl:       ttl,
	}
}

// Acquire takes the lock for feedID or returns feed.ErrSyncInProgress
func (l *RedisFeedLock) Acquire(ctx context.Context, feedID uuid.UUID) (feed.ReleaseFunc, error) {
	key := l.keyPrefix + feedID.String()
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire feed lock: %w", err)
	}
	if !ok {
		return nil, feed.ErrSyncInProgress
	}

	return func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
			return fmt.Errorf("failed to release feed lock: %w", err)
		}
		return nil
	}, nil
}

var _ feed.SyncLock = (*RedisFeedLock)(nil)
