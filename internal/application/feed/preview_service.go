package feedapp

import (
	"context"
	"strings"

	"github.com/eshop/backend/internal/domain/shared"
	"github.com/eshop/backend/internal/infrastructure/xmltree"
	"go.uber.org/zap"
)

// PreviewRequest asks for a look at a candidate feed document
type PreviewRequest struct {
	URL         string `json:"url" binding:"required,url,max=2048"`
	ProductPath string `json:"productPath" binding:"max=500"`
}

// PreviewService fetches and parses a feed document without touching the catalog
type PreviewService struct {
	fetcher Fetcher
	logger  *zap.Logger
}

// NewPreviewService creates a PreviewService. The fetcher should carry the
// shorter preview timeout.
func NewPreviewService(fetcher Fetcher, logger *zap.Logger) *PreviewService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PreviewService{fetcher: fetcher, logger: logger.Named("feed_preview")}
}

// Preview returns the leaf tags, a sample record and the record count at the
// product path, or the document structure when no path is given
func (s *PreviewService) Preview(ctx context.Context, req PreviewRequest) (*xmltree.PreviewResult, error) {
	url := strings.TrimSpace(req.URL)
	if url == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "URL required")
	}

	data, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		s.logger.Warn("Feed preview fetch failed", zap.String("url", url), zap.Error(err))
		return nil, err
	}
	root, err := xmltree.Parse(data, req.ProductPath)
	if err != nil {
		s.logger.Warn("Feed preview parse failed", zap.String("url", url), zap.Error(err))
		return nil, err
	}

	result := xmltree.Preview(root, req.ProductPath)
	return &result, nil
}
