package integration

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stocklink/backend/internal/domain/integration"
)

// AdapterFactory builds a live platform adapter from a connection record
type AdapterFactory interface {
	AdapterFor(conn *integration.Connection) (integration.ShopPlatform, error)
}

// SyncScheduleManager is the registry's view of the recurring sync scheduler
type SyncScheduleManager interface {
	Schedule(connectionID uuid.UUID, interval time.Duration) error
	Cancel(connectionID uuid.UUID)
}

// ConnectionRegistryService owns the lifecycle of storefront connections:
// registration, credential updates, connection tests and teardown. Deleting a
// connection cascades through its mappings and sync logs before the record
// itself goes away, so no orphaned rows survive.
type ConnectionRegistryService struct {
	connRepo    integration.ConnectionRepository
	mappingRepo integration.ProductMappingRepository
	syncLogRepo integration.SyncLogRepository
	adapters    AdapterFactory
	schedules   SyncScheduleManager
	logger      *zap.Logger
}

// NewConnectionRegistryService creates a new connection registry.
// schedules may be nil when no recurring scheduler is wired (tests, CLI).
func NewConnectionRegistryService(
	connRepo integration.ConnectionRepository,
	mappingRepo integration.ProductMappingRepository,
	syncLogRepo integration.SyncLogRepository,
	adapters AdapterFactory,
	schedules SyncScheduleManager,
	logger *zap.Logger,
) *ConnectionRegistryService {
	return &ConnectionRegistryService{
		connRepo:    connRepo,
		mappingRepo: mappingRepo,
		syncLogRepo: syncLogRepo,
		adapters:    adapters,
		schedules:   schedules,
		logger:      logger,
	}
}

// CreateConnection registers a new storefront connection
func (s *ConnectionRegistryService) CreateConnection(ctx context.Context, req CreateConnectionRequest) (*integration.Connection, error) {
	conn, err := integration.NewConnection(req.PlatformCode, req.ShopURL)
	if err != nil {
		return nil, err
	}

	conn.APIKey = req.APIKey
	conn.APISecret = req.APISecret
	conn.AccessToken = req.AccessToken
	conn.LocationID = req.LocationID
	if req.SyncIntervalSeconds > 0 {
		conn.SyncInterval = time.Duration(req.SyncIntervalSeconds) * time.Second
	}

	if err := conn.Validate(); err != nil {
		return nil, err
	}

	if err := s.connRepo.Save(ctx, conn); err != nil {
		return nil, err
	}

	// Test the store right away so a bad credential surfaces at creation
	// instead of on the first scheduled pass. Best effort: a failed test
	// does not undo the registration.
	if adapter, err := s.adapters.AdapterFor(conn); err != nil {
		s.logger.Warn("Connection test skipped, adapter unavailable",
			zap.String("connection_id", conn.ID.String()),
			zap.Error(err),
		)
	} else {
		s.enrichFromTest(ctx, conn, adapter.TestConnection(ctx))
	}

	s.scheduleIfEnabled(conn)

	s.logger.Info("Connection created",
		zap.String("connection_id", conn.ID.String()),
		zap.String("platform_code", conn.PlatformCode.String()),
		zap.String("shop_url", conn.ShopURL),
	)

	return conn, nil
}

// GetConnection retrieves a connection by ID
func (s *ConnectionRegistryService) GetConnection(ctx context.Context, id uuid.UUID) (*integration.Connection, error) {
	return s.connRepo.FindByID(ctx, id)
}

// ListConnections returns all connections
func (s *ConnectionRegistryService) ListConnections(ctx context.Context) ([]integration.Connection, error) {
	return s.connRepo.FindAll(ctx)
}

// UpdateConnection applies a partial update to a connection
func (s *ConnectionRegistryService) UpdateConnection(ctx context.Context, id uuid.UUID, req UpdateConnectionRequest) (*integration.Connection, error) {
	conn, err := s.connRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.ShopURL != nil {
		conn.ShopURL = *req.ShopURL
	}
	if req.APIKey != nil {
		conn.APIKey = *req.APIKey
	}
	if req.APISecret != nil {
		conn.APISecret = *req.APISecret
	}
	if req.AccessToken != nil {
		conn.AccessToken = *req.AccessToken
	}
	if req.LocationID != nil {
		conn.LocationID = *req.LocationID
	}
	if req.IsActive != nil {
		conn.IsActive = *req.IsActive
	}
	if req.SyncEnabled != nil {
		if *req.SyncEnabled {
			conn.EnableSync()
		} else {
			conn.DisableSync()
		}
	}
	if req.SyncIntervalSeconds != nil && *req.SyncIntervalSeconds > 0 {
		conn.SyncInterval = time.Duration(*req.SyncIntervalSeconds) * time.Second
	}
	conn.UpdatedAt = time.Now()

	if err := conn.Validate(); err != nil {
		return nil, err
	}

	if err := s.connRepo.Save(ctx, conn); err != nil {
		return nil, err
	}

	// Rescheduling replaces any previous timer, so an interval change never
	// leaves the old cadence running
	if conn.IsActive && conn.SyncEnabled {
		s.scheduleIfEnabled(conn)
	} else if s.schedules != nil {
		s.schedules.Cancel(conn.ID)
	}

	return conn, nil
}

// DeleteConnection removes a connection, its mappings and its sync history.
// The cascade runs child records first so a failure never orphans them.
func (s *ConnectionRegistryService) DeleteConnection(ctx context.Context, id uuid.UUID) error {
	conn, err := s.connRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if s.schedules != nil {
		s.schedules.Cancel(conn.ID)
	}

	if err := s.mappingRepo.DeleteByConnection(ctx, conn.ID); err != nil {
		return err
	}
	if err := s.syncLogRepo.DeleteByConnection(ctx, conn.ID); err != nil {
		return err
	}
	if err := s.connRepo.Delete(ctx, conn.ID); err != nil {
		return err
	}

	s.logger.Info("Connection deleted",
		zap.String("connection_id", conn.ID.String()),
		zap.String("platform_code", conn.PlatformCode.String()),
	)

	return nil
}

// TestConnection verifies the connection's credentials against the store.
// A successful test enriches the stored shop name with what the store reports.
func (s *ConnectionRegistryService) TestConnection(ctx context.Context, id uuid.UUID) (*TestConnectionResponse, error) {
	conn, err := s.connRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	adapter, err := s.adapters.AdapterFor(conn)
	if err != nil {
		return nil, err
	}

	return s.enrichFromTest(ctx, conn, adapter.TestConnection(ctx)), nil
}

// enrichFromTest folds a store test result into the connection record and
// the API response shape
func (s *ConnectionRegistryService) enrichFromTest(ctx context.Context, conn *integration.Connection, result *integration.TestResult) *TestConnectionResponse {
	resp := &TestConnectionResponse{
		OK:      result.OK,
		Message: result.Message,
	}

	if result.OK && result.Shop != nil {
		resp.ShopName = result.Shop.Name
		resp.Domain = result.Shop.Domain
		resp.Currency = result.Shop.Currency

		conn.EnrichShopName(result.Shop.Name)
		if err := s.connRepo.Save(ctx, conn); err != nil {
			s.logger.Warn("Failed to persist enriched shop name",
				zap.String("connection_id", conn.ID.String()),
				zap.Error(err),
			)
		}
	}

	return resp
}

// PersistTokens writes a renewed OAuth token pair back to the connection.
// Used both by the adapter refresh callback and by OAuth flow completion.
func (s *ConnectionRegistryService) PersistTokens(ctx context.Context, id uuid.UUID, accessToken, refreshToken string, expiresAt time.Time) error {
	conn, err := s.connRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	conn.SetTokens(accessToken, refreshToken, expiresAt)
	return s.connRepo.Save(ctx, conn)
}

// ScheduleAll starts recurring timers for every active sync-enabled
// connection. Called once at startup.
func (s *ConnectionRegistryService) ScheduleAll(ctx context.Context) error {
	if s.schedules == nil {
		return nil
	}

	conns, err := s.connRepo.FindActive(ctx)
	if err != nil {
		return err
	}

	for i := range conns {
		if conns[i].SyncEnabled {
			s.scheduleIfEnabled(&conns[i])
		}
	}
	return nil
}

func (s *ConnectionRegistryService) scheduleIfEnabled(conn *integration.Connection) {
	if s.schedules == nil || !conn.IsActive || !conn.SyncEnabled {
		return
	}
	if err := s.schedules.Schedule(conn.ID, conn.SyncInterval); err != nil {
		s.logger.Warn("Failed to schedule connection sync",
			zap.String("connection_id", conn.ID.String()),
			zap.Error(err),
		)
	}
}
