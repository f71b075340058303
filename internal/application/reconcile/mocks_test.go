package reconcile

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/gearsync/backend/internal/domain/catalog"
	"github.com/gearsync/backend/internal/domain/listing"
	"github.com/gearsync/backend/internal/domain/reconcile"
	"github.com/gearsync/backend/internal/domain/shared"
)

// MockEventRepository is a mock implementation of reconcile.EventRepository
type MockEventRepository struct {
	mock.Mock
}

func (m *MockEventRepository) FindByID(ctx context.Context, id uuid.UUID) (*reconcile.ChangeEvent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reconcile.ChangeEvent), args.Error(1)
}

func (m *MockEventRepository) FindAll(ctx context.Context, filter reconcile.EventFilter) ([]reconcile.ChangeEvent, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]reconcile.ChangeEvent), args.Get(1).(int64), args.Error(2)
}

func (m *MockEventRepository) ClaimPending(ctx context.Context, limit int) ([]reconcile.ChangeEvent, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]reconcile.ChangeEvent), args.Error(1)
}

func (m *MockEventRepository) Save(ctx context.Context, event *reconcile.ChangeEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// MockItemRepository is a mock implementation of catalog.ItemRepository
type MockItemRepository struct {
	mock.Mock
}

func (m *MockItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Item, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Item), args.Error(1)
}

func (m *MockItemRepository) FindBySKU(ctx context.Context, sku string) (*catalog.Item, error) {
	args := m.Called(ctx, sku)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Item), args.Error(1)
}

func (m *MockItemRepository) SearchByBrandModel(ctx context.Context, brand, modelFragment string) ([]catalog.Item, error) {
	args := m.Called(ctx, brand, modelFragment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Item), args.Error(1)
}

func (m *MockItemRepository) SearchByKeywords(ctx context.Context, keywords []string) ([]catalog.Item, error) {
	args := m.Called(ctx, keywords)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Item), args.Error(1)
}

func (m *MockItemRepository) Save(ctx context.Context, item *catalog.Item) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockItemRepository) FindAll(ctx context.Context, filter shared.Filter) ([]catalog.Item, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]catalog.Item), args.Get(1).(int64), args.Error(2)
}

// MockLinkRepository is a mock implementation of listing.LinkRepository
type MockLinkRepository struct {
	mock.Mock
}

func (m *MockLinkRepository) FindByID(ctx context.Context, id uuid.UUID) (*listing.PlatformLink, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*listing.PlatformLink), args.Error(1)
}

func (m *MockLinkRepository) FindByItem(ctx context.Context, itemID uuid.UUID) ([]listing.PlatformLink, error) {
	args := m.Called(ctx, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]listing.PlatformLink), args.Error(1)
}

func (m *MockLinkRepository) FindByItemAndPlatform(ctx context.Context, itemID uuid.UUID, platform listing.Platform) (*listing.PlatformLink, error) {
	args := m.Called(ctx, itemID, platform)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*listing.PlatformLink), args.Error(1)
}

func (m *MockLinkRepository) FindByNativeID(ctx context.Context, platform listing.Platform, nativeID string) (*listing.PlatformLink, error) {
	args := m.Called(ctx, platform, nativeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*listing.PlatformLink), args.Error(1)
}

func (m *MockLinkRepository) FindUnresolved(ctx context.Context, platform listing.Platform) ([]listing.PlatformLink, error) {
	args := m.Called(ctx, platform)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]listing.PlatformLink), args.Error(1)
}

func (m *MockLinkRepository) NativeIDsForPlatform(ctx context.Context, platform listing.Platform) ([]string, error) {
	args := m.Called(ctx, platform)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockLinkRepository) Save(ctx context.Context, link *listing.PlatformLink) error {
	args := m.Called(ctx, link)
	return args.Error(0)
}

func (m *MockLinkRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockResolutionRepository is a mock implementation of
// reconcile.ResolutionRepository
type MockResolutionRepository struct {
	mock.Mock
}

func (m *MockResolutionRepository) FindByID(ctx context.Context, id uuid.UUID) (*reconcile.PendingResolution, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reconcile.PendingResolution), args.Error(1)
}

func (m *MockResolutionRepository) FindByLink(ctx context.Context, linkID uuid.UUID) (*reconcile.PendingResolution, error) {
	args := m.Called(ctx, linkID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reconcile.PendingResolution), args.Error(1)
}

func (m *MockResolutionRepository) FindDue(ctx context.Context, now time.Time, limit int) ([]reconcile.PendingResolution, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]reconcile.PendingResolution), args.Error(1)
}

func (m *MockResolutionRepository) FindAll(ctx context.Context, filter shared.Filter) ([]reconcile.PendingResolution, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]reconcile.PendingResolution), args.Get(1).(int64), args.Error(2)
}

func (m *MockResolutionRepository) Save(ctx context.Context, resolution *reconcile.PendingResolution) error {
	args := m.Called(ctx, resolution)
	return args.Error(0)
}

// MockGateway is a mock implementation of listing.Gateway
type MockGateway struct {
	mock.Mock
	platform listing.Platform
}

func NewMockGateway(platform listing.Platform) *MockGateway {
	return &MockGateway{platform: platform}
}

func (m *MockGateway) Platform() listing.Platform {
	return m.platform
}

func (m *MockGateway) CreateListing(ctx context.Context, item *catalog.Item, source map[string]any) (*listing.CreateListingResult, error) {
	args := m.Called(ctx, item, source)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*listing.CreateListingResult), args.Error(1)
}

func (m *MockGateway) UpdateStatus(ctx context.Context, nativeID string, status listing.Status) error {
	args := m.Called(ctx, nativeID, status)
	return args.Error(0)
}

func (m *MockGateway) UpdateQuantity(ctx context.Context, nativeID string, quantity int) error {
	args := m.Called(ctx, nativeID, quantity)
	return args.Error(0)
}

func (m *MockGateway) UpdatePrice(ctx context.Context, nativeID string, price decimal.Decimal) error {
	args := m.Called(ctx, nativeID, price)
	return args.Error(0)
}

func (m *MockGateway) FetchQuantity(ctx context.Context, nativeID string) (int, error) {
	args := m.Called(ctx, nativeID)
	return args.Int(0), args.Error(1)
}

func (m *MockGateway) FetchInventorySnapshot(ctx context.Context) ([]listing.RawListing, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]listing.RawListing), args.Error(1)
}

// stubRegistry is a fixed gateway registry for tests
type stubRegistry struct {
	gateways map[listing.Platform]listing.Gateway
}

func newStubRegistry(gateways ...listing.Gateway) *stubRegistry {
	r := &stubRegistry{gateways: make(map[listing.Platform]listing.Gateway)}
	for _, g := range gateways {
		r.gateways[g.Platform()] = g
	}
	return r
}

func (r *stubRegistry) Gateway(platform listing.Platform) (listing.Gateway, error) {
	g, ok := r.gateways[platform]
	if !ok {
		return nil, listing.ErrGatewayNotConfigured
	}
	return g, nil
}

func (r *stubRegistry) Platforms() []listing.Platform {
	out := make([]listing.Platform, 0, len(r.gateways))
	for _, p := range listing.AllPlatforms() {
		if _, ok := r.gateways[p]; ok {
			out = append(out, p)
		}
	}
	return out
}
