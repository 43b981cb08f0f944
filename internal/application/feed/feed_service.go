package feedapp

import (
	"context"
	"errors"
	"strings"

	"github.com/eshop/backend/internal/domain/catalog"
	"github.com/eshop/backend/internal/domain/feed"
	"github.com/eshop/backend/internal/domain/shared"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FeedService handles supplier feed administration
type FeedService struct {
	feeds      feed.Repository
	products   catalog.ProductRepository
	categories catalog.CategoryRepository
	validate   *validator.Validate
	logger     *zap.Logger
}

// NewFeedService creates a new FeedService
func NewFeedService(
	feeds feed.Repository,
	products catalog.ProductRepository,
	categories catalog.CategoryRepository,
	logger *zap.Logger,
) *FeedService {
	if logger == nil {
		logger = zap.NewNop()
	}
	v := validator.New(validator.WithRequiredStructEnabled())
	v.SetTagName("binding")
	return &FeedService{
		feeds:      feeds,
		products:   products,
		categories: categories,
		validate:   v,
		logger:     logger.Named("feed_service"),
	}
}

// List returns a page of feeds with their linked product counts
func (s *FeedService) List(ctx context.Context, filter shared.Filter) (shared.Paginated[FeedResponse], error) {
	feeds, err := s.feeds.FindAll(ctx, filter)
	if err != nil {
		return shared.Paginated[FeedResponse]{}, err
	}
	total, err := s.feeds.Count(ctx, filter)
	if err != nil {
		return shared.Paginated[FeedResponse]{}, err
	}

	ids := make([]uuid.UUID, len(feeds))
	for i := range feeds {
		ids[i] = feeds[i].ID
	}
	counts := map[uuid.UUID]int64{}
	if len(ids) > 0 {
		if counts, err = s.products.CountByFeeds(ctx, ids); err != nil {
			return shared.Paginated[FeedResponse]{}, err
		}
	}

	items := make([]FeedResponse, len(feeds))
	for i := range feeds {
		items[i] = ToFeedResponse(&feeds[i], counts[feeds[i].ID])
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// Get returns one feed with its linked product count
func (s *FeedService) Get(ctx context.Context, id uuid.UUID) (*FeedResponse, error) {
	f, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	count, err := s.products.CountByFeed(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToFeedResponse(f, count)
	return &resp, nil
}

// Create registers a feed
func (s *FeedService) Create(ctx context.Context, req CreateFeedRequest) (*FeedResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, validationError(err)
	}
	if err := s.checkCategory(ctx, req.DefaultCategoryID); err != nil {
		return nil, err
	}

	f, err := feed.NewSupplierFeed(feed.Params{
		Name:              &req.Name,
		URL:               &req.URL,
		SyncInterval:      req.SyncInterval,
		ProductPath:       &req.ProductPath,
		FieldMapping:      feed.FieldMapping(req.FieldMapping),
		DefaultCategoryID: req.DefaultCategoryID,
		MarkupPercent:     req.MarkupPercent,
		IsActive:          req.IsActive,
	})
	if err != nil {
		return nil, err
	}
	if err := s.feeds.Save(ctx, f); err != nil {
		return nil, err
	}

	s.logger.Info("Feed created", zap.String("feed_id", f.ID.String()), zap.String("feed_name", f.Name))
	resp := ToFeedResponse(f, 0)
	return &resp, nil
}

// Update applies a partial update
func (s *FeedService) Update(ctx context.Context, id uuid.UUID, req UpdateFeedRequest) (*FeedResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, validationError(err)
	}
	f, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	params := feed.Params{
		Name:              req.Name,
		URL:               req.URL,
		SyncInterval:      req.SyncInterval,
		ProductPath:       req.ProductPath,
		FieldMapping:      feed.FieldMapping(req.FieldMapping),
		DefaultCategoryID: f.DefaultCategoryID,
		MarkupPercent:     f.MarkupPercent,
		IsActive:          req.IsActive,
	}
	switch {
	case req.ClearDefaultCategory:
		params.DefaultCategoryID = nil
	case req.DefaultCategoryID != nil:
		if err := s.checkCategory(ctx, req.DefaultCategoryID); err != nil {
			return nil, err
		}
		params.DefaultCategoryID = req.DefaultCategoryID
	}
	switch {
	case req.ClearMarkup:
		params.MarkupPercent = nil
	case req.MarkupPercent != nil:
		params.MarkupPercent = req.MarkupPercent
	}

	if err := f.Update(params); err != nil {
		return nil, err
	}
	if err := s.feeds.Save(ctx, f); err != nil {
		return nil, err
	}
	count, err := s.products.CountByFeed(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToFeedResponse(f, count)
	return &resp, nil
}

// Delete detaches the feed's products and removes the feed. The products
// themselves are kept.
func (s *FeedService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.feeds.Delete(ctx, id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return feed.ErrFeedNotFound
		}
		return err
	}
	s.logger.Info("Feed deleted", zap.String("feed_id", id.String()))
	return nil
}

func (s *FeedService) find(ctx context.Context, id uuid.UUID) (*feed.SupplierFeed, error) {
	f, err := s.feeds.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, feed.ErrFeedNotFound
		}
		return nil, err
	}
	return f, nil
}

func (s *FeedService) checkCategory(ctx context.Context, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	if _, err := s.categories.FindByID(ctx, *id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewDomainError("INVALID_CATEGORY", "Category not found")
		}
		return err
	}
	return nil
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field()+" "+fe.Tag())
	}
	return shared.NewDomainError("VALIDATION_ERROR", "Invalid feed: "+strings.Join(fields, ", "))
}
