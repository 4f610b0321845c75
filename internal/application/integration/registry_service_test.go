package integration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/stocklink/backend/internal/domain/integration"
)

type registryFixture struct {
	connRepo    *MockConnectionRepository
	mappingRepo *MockProductMappingRepository
	syncLogRepo *MockSyncLogRepository
	adapters    *MockAdapterFactory
	schedules   *MockScheduleManager
	service     *ConnectionRegistryService
}

func newRegistryFixture() *registryFixture {
	f := &registryFixture{
		connRepo:    new(MockConnectionRepository),
		mappingRepo: new(MockProductMappingRepository),
		syncLogRepo: new(MockSyncLogRepository),
		adapters:    new(MockAdapterFactory),
		schedules:   new(MockScheduleManager),
	}
	f.service = NewConnectionRegistryService(
		f.connRepo, f.mappingRepo, f.syncLogRepo, f.adapters, f.schedules, zap.NewNop(),
	)
	return f
}

func activeConnection(t *testing.T) *integration.Connection {
	t.Helper()
	conn, err := integration.NewConnection(integration.PlatformCodeShopify, "https://demo.myshopify.com")
	assert.NoError(t, err)
	conn.AccessToken = "shpat_token"
	return conn
}

func TestCreateConnection_Success(t *testing.T) {
	f := newRegistryFixture()
	ctx := context.Background()
	adapter := new(MockShopPlatform)

	f.connRepo.On("Save", ctx, mock.AnythingOfType("*integration.Connection")).Return(nil)
	f.adapters.On("AdapterFor", mock.AnythingOfType("*integration.Connection")).Return(adapter, nil)
	adapter.On("TestConnection", ctx).Return(&integration.TestResult{
		OK:   true,
		Shop: &integration.ShopInfo{Name: "Demo Store", Domain: "demo.myshopify.com", Currency: "EUR"},
	})
	f.schedules.On("Schedule", mock.AnythingOfType("uuid.UUID"), 5*time.Minute).Return(nil)

	conn, err := f.service.CreateConnection(ctx, CreateConnectionRequest{
		PlatformCode:        integration.PlatformCodeShopify,
		ShopURL:             "https://demo.myshopify.com/",
		AccessToken:         "shpat_token",
		SyncIntervalSeconds: 300,
	})

	assert.NoError(t, err)
	assert.Equal(t, "https://demo.myshopify.com", conn.ShopURL)
	assert.Equal(t, 5*time.Minute, conn.SyncInterval)
	assert.True(t, conn.SyncEnabled)
	// The connection test during create captures the store's real name
	assert.Equal(t, "Demo Store", conn.ShopName)
	f.connRepo.AssertExpectations(t)
	f.schedules.AssertExpectations(t)
	adapter.AssertExpectations(t)
}

func TestCreateConnection_FailedTestStillRegisters(t *testing.T) {
	f := newRegistryFixture()
	ctx := context.Background()
	adapter := new(MockShopPlatform)

	f.connRepo.On("Save", ctx, mock.AnythingOfType("*integration.Connection")).Return(nil)
	f.adapters.On("AdapterFor", mock.AnythingOfType("*integration.Connection")).Return(adapter, nil)
	adapter.On("TestConnection", ctx).Return(&integration.TestResult{
		OK:      false,
		Message: "401 unauthorized",
	})
	f.schedules.On("Schedule", mock.AnythingOfType("uuid.UUID"), mock.Anything).Return(nil)

	conn, err := f.service.CreateConnection(ctx, CreateConnectionRequest{
		PlatformCode: integration.PlatformCodeShopify,
		ShopURL:      "https://demo.myshopify.com",
		AccessToken:  "shpat_bad",
	})

	assert.NoError(t, err)
	assert.Empty(t, conn.ShopName)
	f.connRepo.AssertExpectations(t)
}

func TestCreateConnection_MissingCredentials(t *testing.T) {
	f := newRegistryFixture()
	ctx := context.Background()

	_, err := f.service.CreateConnection(ctx, CreateConnectionRequest{
		PlatformCode: integration.PlatformCodeWooCommerce,
		ShopURL:      "https://shop.example.com",
	})

	assert.ErrorIs(t, err, integration.ErrConnectionNoCredentials)
	f.connRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestCreateConnection_UnknownPlatform(t *testing.T) {
	f := newRegistryFixture()

	_, err := f.service.CreateConnection(context.Background(), CreateConnectionRequest{
		PlatformCode: integration.PlatformCode("MAGENTO"),
		ShopURL:      "https://shop.example.com",
	})

	assert.ErrorIs(t, err, integration.ErrPlatformNotSupported)
}

func TestUpdateConnection_DisableSyncCancelsSchedule(t *testing.T) {
	f := newRegistryFixture()
	ctx := context.Background()
	conn := activeConnection(t)

	f.connRepo.On("FindByID", ctx, conn.ID).Return(conn, nil)
	f.connRepo.On("Save", ctx, conn).Return(nil)
	f.schedules.On("Cancel", conn.ID).Return()

	disabled := false
	updated, err := f.service.UpdateConnection(ctx, conn.ID, UpdateConnectionRequest{
		SyncEnabled: &disabled,
	})

	assert.NoError(t, err)
	assert.False(t, updated.SyncEnabled)
	f.schedules.AssertExpectations(t)
}

func TestUpdateConnection_IntervalChangeReschedules(t *testing.T) {
	f := newRegistryFixture()
	ctx := context.Background()
	conn := activeConnection(t)

	f.connRepo.On("FindByID", ctx, conn.ID).Return(conn, nil)
	f.connRepo.On("Save", ctx, conn).Return(nil)
	f.schedules.On("Schedule", conn.ID, 10*time.Minute).Return(nil)

	interval := int64(600)
	updated, err := f.service.UpdateConnection(ctx, conn.ID, UpdateConnectionRequest{
		SyncIntervalSeconds: &interval,
	})

	assert.NoError(t, err)
	assert.Equal(t, 10*time.Minute, updated.SyncInterval)
	f.schedules.AssertExpectations(t)
}

func TestUpdateConnection_NotFound(t *testing.T) {
	f := newRegistryFixture()
	ctx := context.Background()
	id := uuid.New()

	f.connRepo.On("FindByID", ctx, id).Return(nil, integration.ErrConnectionNotFound)

	_, err := f.service.UpdateConnection(ctx, id, UpdateConnectionRequest{})

	assert.ErrorIs(t, err, integration.ErrConnectionNotFound)
}

func TestDeleteConnection_CascadesChildRecordsFirst(t *testing.T) {
	f := newRegistryFixture()
	ctx := context.Background()
	conn := activeConnection(t)

	var order []string
	f.connRepo.On("FindByID", ctx, conn.ID).Return(conn, nil)
	f.schedules.On("Cancel", conn.ID).Return()
	f.mappingRepo.On("DeleteByConnection", ctx, conn.ID).Return(nil).Run(func(mock.Arguments) {
		order = append(order, "mappings")
	})
	f.syncLogRepo.On("DeleteByConnection", ctx, conn.ID).Return(nil).Run(func(mock.Arguments) {
		order = append(order, "logs")
	})
	f.connRepo.On("Delete", ctx, conn.ID).Return(nil).Run(func(mock.Arguments) {
		order = append(order, "connection")
	})

	err := f.service.DeleteConnection(ctx, conn.ID)

	assert.NoError(t, err)
	assert.Equal(t, []string{"mappings", "logs", "connection"}, order)
	f.connRepo.AssertExpectations(t)
	f.mappingRepo.AssertExpectations(t)
	f.syncLogRepo.AssertExpectations(t)
}

func TestDeleteConnection_MappingCascadeFailureAborts(t *testing.T) {
	f := newRegistryFixture()
	ctx := context.Background()
	conn := activeConnection(t)

	f.connRepo.On("FindByID", ctx, conn.ID).Return(conn, nil)
	f.schedules.On("Cancel", conn.ID).Return()
	f.mappingRepo.On("DeleteByConnection", ctx, conn.ID).Return(errors.New("db down"))

	err := f.service.DeleteConnection(ctx, conn.ID)

	assert.Error(t, err)
	f.connRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestTestConnection_SuccessEnrichesShopName(t *testing.T) {
	f := newRegistryFixture()
	ctx := context.Background()
	conn := activeConnection(t)
	adapter := new(MockShopPlatform)

	f.connRepo.On("FindByID", ctx, conn.ID).Return(conn, nil)
	f.adapters.On("AdapterFor", conn).Return(adapter, nil)
	adapter.On("TestConnection", ctx).Return(&integration.TestResult{
		OK: true,
		Shop: &integration.ShopInfo{
			Name:     "Demo Store",
			Domain:   "demo.myshopify.com",
			Currency: "EUR",
		},
	})
	f.connRepo.On("Save", ctx, conn).Return(nil)

	resp, err := f.service.TestConnection(ctx, conn.ID)

	assert.NoError(t, err)
	assert.True(t, resp.OK)
	assert.Equal(t, "Demo Store", resp.ShopName)
	assert.Equal(t, "EUR", resp.Currency)
	assert.Equal(t, "Demo Store", conn.ShopName)
	adapter.AssertExpectations(t)
}

func TestTestConnection_FailureIsReportedNotReturned(t *testing.T) {
	f := newRegistryFixture()
	ctx := context.Background()
	conn := activeConnection(t)
	adapter := new(MockShopPlatform)

	f.connRepo.On("FindByID", ctx, conn.ID).Return(conn, nil)
	f.adapters.On("AdapterFor", conn).Return(adapter, nil)
	adapter.On("TestConnection", ctx).Return(&integration.TestResult{
		OK:      false,
		Message: "401 unauthorized",
	})

	resp, err := f.service.TestConnection(ctx, conn.ID)

	assert.NoError(t, err)
	assert.False(t, resp.OK)
	assert.Equal(t, "401 unauthorized", resp.Message)
	f.connRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestPersistTokens_UpdatesConnection(t *testing.T) {
	f := newRegistryFixture()
	ctx := context.Background()
	conn := activeConnection(t)
	expiresAt := time.Now().Add(time.Hour)

	f.connRepo.On("FindByID", ctx, conn.ID).Return(conn, nil)
	f.connRepo.On("Save", ctx, conn).Return(nil)

	err := f.service.PersistTokens(ctx, conn.ID, "new-access", "new-refresh", expiresAt)

	assert.NoError(t, err)
	assert.Equal(t, "new-access", conn.AccessToken)
	assert.Equal(t, "new-refresh", conn.RefreshToken)
	assert.NotNil(t, conn.TokenExpiresAt)
	f.connRepo.AssertExpectations(t)
}

func TestScheduleAll_SkipsSyncDisabled(t *testing.T) {
	f := newRegistryFixture()
	ctx := context.Background()

	enabled := activeConnection(t)
	disabled := activeConnection(t)
	disabled.DisableSync()

	f.connRepo.On("FindActive", ctx).Return([]integration.Connection{*enabled, *disabled}, nil)
	f.schedules.On("Schedule", enabled.ID, enabled.SyncInterval).Return(nil)

	err := f.service.ScheduleAll(ctx)

	assert.NoError(t, err)
	f.schedules.AssertExpectations(t)
	f.schedules.AssertNotCalled(t, "Schedule", disabled.ID, mock.Anything)
}
