package handler

import (
	"context"
	"time"

	feedapp "github.com/eshop/backend/internal/application/feed"
	"github.com/eshop/backend/internal/domain/feed"
	"github.com/eshop/backend/internal/domain/shared"
	"github.com/eshop/backend/internal/infrastructure/xmltree"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockFeedAdmin is a mock implementation of FeedAdmin
type MockFeedAdmin struct {
	mock.Mock
}

func (m *MockFeedAdmin) List(ctx context.Context, filter shared.Filter) (shared.Paginated[feedapp.FeedResponse], error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(shared.Paginated[feedapp.FeedResponse]), args.Error(1)
}

func (m *MockFeedAdmin) Get(ctx context.Context, id uuid.UUID) (*feedapp.FeedResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*feedapp.FeedResponse), args.Error(1)
}

func (m *MockFeedAdmin) Create(ctx context.Context, req feedapp.CreateFeedRequest) (*feedapp.FeedResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*feedapp.FeedResponse), args.Error(1)
}

func (m *MockFeedAdmin) Update(ctx context.Context, id uuid.UUID, req feedapp.UpdateFeedRequest) (*feedapp.FeedResponse, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*feedapp.FeedResponse), args.Error(1)
}

func (m *MockFeedAdmin) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

// MockFeedSyncer is a mock implementation of FeedSyncer
type MockFeedSyncer struct {
	mock.Mock
}

func (m *MockFeedSyncer) SyncFeed(ctx context.Context, feedID uuid.UUID) (*feed.SyncResult, error) {
	args := m.Called(ctx, feedID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*feed.SyncResult), args.Error(1)
}

// MockFeedPreviewer is a mock implementation of FeedPreviewer
type MockFeedPreviewer struct {
	mock.Mock
}

func (m *MockFeedPreviewer) Preview(ctx context.Context, req feedapp.PreviewRequest) (*xmltree.PreviewResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*xmltree.PreviewResult), args.Error(1)
}

// MockDueFeedRunner is a mock implementation of DueFeedRunner
type MockDueFeedRunner struct {
	mock.Mock
}

func (m *MockDueFeedRunner) RunDue(ctx context.Context, now time.Time) (*feedapp.CronSummary, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*feedapp.CronSummary), args.Error(1)
}

// MockPinger is a mock implementation of Pinger
type MockPinger struct {
	mock.Mock
}

func (m *MockPinger) PingContext(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
