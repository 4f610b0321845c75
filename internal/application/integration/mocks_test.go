package integration

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/stocklink/backend/internal/domain/catalog"
	"github.com/stocklink/backend/internal/domain/integration"
)

// MockConnectionRepository is a mock implementation of ConnectionRepository
type MockConnectionRepository struct {
	mock.Mock
}

func (m *MockConnectionRepository) FindByID(ctx context.Context, id uuid.UUID) (*integration.Connection, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.Connection), args.Error(1)
}

func (m *MockConnectionRepository) FindAll(ctx context.Context) ([]integration.Connection, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.Connection), args.Error(1)
}

func (m *MockConnectionRepository) FindActive(ctx context.Context) ([]integration.Connection, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.Connection), args.Error(1)
}

func (m *MockConnectionRepository) Save(ctx context.Context, conn *integration.Connection) error {
	args := m.Called(ctx, conn)
	return args.Error(0)
}

func (m *MockConnectionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockProductMappingRepository is a mock implementation of ProductMappingRepository
type MockProductMappingRepository struct {
	mock.Mock
}

func (m *MockProductMappingRepository) FindByID(ctx context.Context, id uuid.UUID) (*integration.ProductMapping, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.ProductMapping), args.Error(1)
}

func (m *MockProductMappingRepository) FindByConnection(ctx context.Context, connectionID uuid.UUID) ([]integration.ProductMapping, error) {
	args := m.Called(ctx, connectionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.ProductMapping), args.Error(1)
}

func (m *MockProductMappingRepository) FindByLocalProduct(ctx context.Context, localProductID uuid.UUID) ([]integration.ProductMapping, error) {
	args := m.Called(ctx, localProductID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.ProductMapping), args.Error(1)
}

func (m *MockProductMappingRepository) FindByLocalProductAndConnection(ctx context.Context, localProductID, connectionID uuid.UUID) (*integration.ProductMapping, error) {
	args := m.Called(ctx, localProductID, connectionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.ProductMapping), args.Error(1)
}

func (m *MockProductMappingRepository) FindByRemoteIdentity(ctx context.Context, connectionID uuid.UUID, remoteID string) (*integration.ProductMapping, error) {
	args := m.Called(ctx, connectionID, remoteID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.ProductMapping), args.Error(1)
}

func (m *MockProductMappingRepository) ExistsForPair(ctx context.Context, localProductID, connectionID uuid.UUID) (bool, error) {
	args := m.Called(ctx, localProductID, connectionID)
	return args.Bool(0), args.Error(1)
}

func (m *MockProductMappingRepository) Save(ctx context.Context, mapping *integration.ProductMapping) error {
	args := m.Called(ctx, mapping)
	return args.Error(0)
}

func (m *MockProductMappingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockProductMappingRepository) DeleteByConnection(ctx context.Context, connectionID uuid.UUID) error {
	args := m.Called(ctx, connectionID)
	return args.Error(0)
}

func (m *MockProductMappingRepository) DeleteByLocalProduct(ctx context.Context, localProductID uuid.UUID) error {
	args := m.Called(ctx, localProductID)
	return args.Error(0)
}

// MockSyncLogRepository is a mock implementation of SyncLogRepository
type MockSyncLogRepository struct {
	mock.Mock
}

func (m *MockSyncLogRepository) Save(ctx context.Context, entry *integration.SyncLogEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockSyncLogRepository) FindByConnection(ctx context.Context, connectionID uuid.UUID, limit int) ([]integration.SyncLogEntry, error) {
	args := m.Called(ctx, connectionID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.SyncLogEntry), args.Error(1)
}

func (m *MockSyncLogRepository) DeleteByConnection(ctx context.Context, connectionID uuid.UUID) error {
	args := m.Called(ctx, connectionID)
	return args.Error(0)
}

// MockProductRepository is a mock implementation of catalog.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindUnmappedWithSKU(ctx context.Context, connectionID uuid.UUID) ([]catalog.Product, error) {
	args := m.Called(ctx, connectionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) CountMappedWithSKU(ctx context.Context, connectionID uuid.UUID) (int64, error) {
	args := m.Called(ctx, connectionID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProductRepository) UpdateQuantity(ctx context.Context, id uuid.UUID, quantity decimal.Decimal) error {
	args := m.Called(ctx, id, quantity)
	return args.Error(0)
}

func (m *MockProductRepository) RecordAdjustment(ctx context.Context, adj *catalog.InventoryAdjustment) error {
	args := m.Called(ctx, adj)
	return args.Error(0)
}

// MockShopPlatform is a mock implementation of integration.ShopPlatform
type MockShopPlatform struct {
	mock.Mock
}

func (m *MockShopPlatform) PlatformCode() integration.PlatformCode {
	args := m.Called()
	return args.Get(0).(integration.PlatformCode)
}

func (m *MockShopPlatform) TestConnection(ctx context.Context) *integration.TestResult {
	args := m.Called(ctx)
	return args.Get(0).(*integration.TestResult)
}

func (m *MockShopPlatform) FetchProducts(ctx context.Context, cursor string) (*integration.ProductPage, error) {
	args := m.Called(ctx, cursor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.ProductPage), args.Error(1)
}

func (m *MockShopPlatform) FetchInventory(ctx context.Context, inventoryItemIDs []string) ([]integration.RemoteInventory, error) {
	args := m.Called(ctx, inventoryItemIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.RemoteInventory), args.Error(1)
}

func (m *MockShopPlatform) InventoryBatchSize() int {
	args := m.Called()
	return args.Int(0)
}

func (m *MockShopPlatform) UpdateInventory(ctx context.Context, updates []integration.InventoryUpdate) *integration.UpdateResult {
	args := m.Called(ctx, updates)
	return args.Get(0).(*integration.UpdateResult)
}

func (m *MockShopPlatform) FindProductBySku(ctx context.Context, sku string) (*integration.RemoteProduct, error) {
	args := m.Called(ctx, sku)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.RemoteProduct), args.Error(1)
}

func (m *MockShopPlatform) GetShopInfo(ctx context.Context) (*integration.ShopInfo, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.ShopInfo), args.Error(1)
}

func (m *MockShopPlatform) RefreshToken(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockAdapterFactory is a mock implementation of AdapterFactory
type MockAdapterFactory struct {
	mock.Mock
}

func (m *MockAdapterFactory) AdapterFor(conn *integration.Connection) (integration.ShopPlatform, error) {
	args := m.Called(conn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(integration.ShopPlatform), args.Error(1)
}

// MockScheduleManager is a mock implementation of SyncScheduleManager
type MockScheduleManager struct {
	mock.Mock
}

func (m *MockScheduleManager) Schedule(connectionID uuid.UUID, interval time.Duration) error {
	args := m.Called(connectionID, interval)
	return args.Error(0)
}

func (m *MockScheduleManager) Cancel(connectionID uuid.UUID) {
	m.Called(connectionID)
}

// MockIdempotencyStore is a mock implementation of shared.IdempotencyStore
type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) MarkProcessed(ctx context.Context, deliveryID string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, deliveryID, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) IsProcessed(ctx context.Context, deliveryID string) (bool, error) {
	args := m.Called(ctx, deliveryID)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) Forget(ctx context.Context, deliveryID string) error {
	args := m.Called(ctx, deliveryID)
	return args.Error(0)
}

func (m *MockIdempotencyStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
