// Package imagecache materializes supplier image URLs into content-addressed
// files so product pages do not hotlink supplier servers.
package imagecache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"path"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultExtension is used when the URL path carries no accepted extension
const DefaultExtension = "jpg"

var allowedExtensions = map[string]bool{
	"jpg":  true,
	"jpeg": true,
	"png":  true,
	"webp": true,
	"gif":  true,
}

// Fetcher downloads a remote object
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Store persists cached images under a content-addressed name
type Store interface {
	Exists(ctx context.Context, name string) (bool, error)
	Put(ctx context.Context, name string, data []byte) error
	PublicPath(name string) string
}

// FileName derives the cache file name for a source URL:
// hex(sha256(url)) + "." + extension.
func FileName(rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL))
	return hex.EncodeToString(sum[:]) + "." + extensionOf(rawURL)
}

func extensionOf(rawURL string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(p), "."))
	if allowedExtensions[ext] {
		return ext
	}
	return DefaultExtension
}

// Resolver maps remote image URLs to public paths of cached copies
type Resolver struct {
	store    Store
	fetcher  Fetcher
	minBytes int
	group    singleflight.Group
	logger   *zap.Logger
}

// Option configures a Resolver
type Option func(*Resolver)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// WithMinBytes rejects downloads smaller than n bytes (placeholder pixels, error pages)
func WithMinBytes(n int) Option {
	return func(r *Resolver) {
		r.minBytes = n
	}
}

// NewResolver creates a Resolver
func NewResolver(store Store, fetcher Fetcher, opts ...Option) *Resolver {
	r := &Resolver{
		store:    store,
		fetcher:  fetcher,
		minBytes: 100,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the public path of the cached copy of rawURL, downloading it
// when absent. ok is false when no local copy could be produced; callers keep
// the remote URL in that case.
func (r *Resolver) Resolve(ctx context.Context, rawURL string) (string, bool) {
	if !isHTTPURL(rawURL) {
		return "", false
	}
	name := FileName(rawURL)

	v, err, _ := r.group.Do(name, func() (any, error) {
		return r.materialize(ctx, rawURL, name)
	})
	if err != nil {
		r.logger.Warn("Image caching failed, keeping remote URL",
			zap.String("url", rawURL),
			zap.Error(err),
		)
		return "", false
	}
	return v.(string), true
}

func (r *Resolver) materialize(ctx context.Context, rawURL, name string) (string, error) {
	exists, err := r.store.Exists(ctx, name)
	if err != nil {
		return "", err
	}
	if exists {
		return r.store.PublicPath(name), nil
	}

	data, err := r.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return "", err
	}
	if len(data) < r.minBytes {
		return "", &TooSmallError{Size: len(data), Min: r.minBytes}
	}
	if err := r.store.Put(ctx, name, data); err != nil {
		return "", err
	}

	r.logger.Debug("Image cached", zap.String("url", rawURL), zap.String("name", name), zap.Int("bytes", len(data)))
	return r.store.PublicPath(name), nil
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
