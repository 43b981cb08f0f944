package feed

import (
	"context"

	"github.com/google/uuid"
)

// ReleaseFunc releases a held sync lock
type ReleaseFunc func(ctx context.Context) error

// SyncLock serializes sync runs per feed. Acquire returns ErrSyncInProgress
// when another run holds the lock.
type SyncLock interface {
	Acquire(ctx context.Context, feedID uuid.UUID) (ReleaseFunc, error)
}
