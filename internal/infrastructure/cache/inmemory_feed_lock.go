package cache

import (
	"context"
	"sync"
	"time"

	"github.com/eshop/backend/internal/domain/feed"
	"github.com/google/uuid"
)

// InMemoryFeedLock implements feed.SyncLock for a single instance.
// Locks expire after ttl like their Redis counterparts.
type InMemoryFeedLock struct {
	mu   sync.Mutex
	held map[uuid.UUID]lockEntry
	ttl  time.Duration
	now  func() time.Time
	seq  uint64
}

type lockEntry struct {
	token     uint64
	expiresAt time.Time
}

// NewInMemoryFeedLock creates an in-memory lock
func NewInMemoryFeedLock(ttl time.Duration) *InMemoryFeedLock {
	return &InMemoryFeedLock{
		held: make(map[uuid.UUID]lockEntry),
		ttl:  ttl,
		now:  time.Now,
	}
}

// Acquire takes the lock for feedID or returns feed.ErrSyncInProgress
func (l *InMemoryFeedLock) Acquire(ctx context.Context, feedID uuid.UUID) (feed.ReleaseFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if e, ok := l.held[feedID]; ok && now.Before(e.expiresAt) {
		return nil, feed.ErrSyncInProgress
	}

	l.seq++
	token := l.seq
	l.held[feedID] = lockEntry{token: token, expiresAt: now.Add(l.ttl)}

	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		if e, ok := l.held[feedID]; ok && e.token == token {
			delete(l.held, feedID)
		}
		return nil
	}, nil
}

var _ feed.SyncLock = (*InMemoryFeedLock)(nil)
