package imagecache

import (
	"path/filepath"
	"testing"

	"github.com/eshop/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStore_Local(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "products")
	cfg := config.FeedSyncConfig{ImageBackend: config.ImageBackendLocal, ImageDir: dir, ImagePublicPrefix: "/products"}

	store, err := NewStore(cfg, &config.StorageConfig{}, nil)
	require.NoError(t, err)
	assert.IsType(t, &LocalStore{}, store)
	assert.Equal(t, "/products/a.jpg", store.PublicPath("a.jpg"))
	assert.DirExists(t, dir)
	assert.True(t, ServesLocally(cfg))
}

func TestServesLocally(t *testing.T) {
	assert.False(t, ServesLocally(config.FeedSyncConfig{ImageBackend: config.ImageBackendS3, ImageDir: "/tmp/x"}))
	assert.False(t, ServesLocally(config.FeedSyncConfig{}))
}

func TestNewStore_LocalRequiresDir(t *testing.T) {
	_, err := NewStore(config.FeedSyncConfig{}, nil, nil)
	assert.Error(t, err)
}
