package imagecache

import (
	"github.com/eshop/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// NewStore builds the store selected by feed sync's image backend.
// Anything but "s3" uses the local directory.
func NewStore(feedSync config.FeedSyncConfig, storage *config.StorageConfig, logger *zap.Logger) (Store, error) {
	if feedSync.ImageBackend == config.ImageBackendS3 {
		if logger == nil {
			logger = zap.NewNop()
		}
		return NewS3Store(storage, WithS3Logger(logger))
	}
	return NewLocalStore(feedSync.ImageDir, feedSync.ImagePublicPrefix)
}

// ServesLocally reports whether images must be exposed as static files
func ServesLocally(feedSync config.FeedSyncConfig) bool {
	return feedSync.ImageBackend != config.ImageBackendS3 && feedSync.ImageDir != ""
}
