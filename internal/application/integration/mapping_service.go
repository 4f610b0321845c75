package integration

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stocklink/backend/internal/domain/catalog"
	"github.com/stocklink/backend/internal/domain/integration"
)

// MappingService manages the correspondence between local products and their
// remote counterparts, including SKU-based auto-matching.
type MappingService struct {
	connRepo    integration.ConnectionRepository
	mappingRepo integration.ProductMappingRepository
	productRepo catalog.ProductRepository
	adapters    AdapterFactory
	logger      *zap.Logger
}

// NewMappingService creates a new mapping service
func NewMappingService(
	connRepo integration.ConnectionRepository,
	mappingRepo integration.ProductMappingRepository,
	productRepo catalog.ProductRepository,
	adapters AdapterFactory,
	logger *zap.Logger,
) *MappingService {
	return &MappingService{
		connRepo:    connRepo,
		mappingRepo: mappingRepo,
		productRepo: productRepo,
		adapters:    adapters,
		logger:      logger,
	}
}

// CreateMapping maps one local product to a remote product on a connection.
// When the request carries a RemoteSKU the remote identity is resolved by
// looking the SKU up on the platform; otherwise the explicit remote IDs are
// used as given.
func (s *MappingService) CreateMapping(ctx context.Context, connectionID uuid.UUID, req CreateMappingRequest) (*integration.ProductMapping, error) {
	conn, err := s.connRepo.FindByID(ctx, connectionID)
	if err != nil {
		return nil, err
	}

	// The local product must exist
	if _, err := s.productRepo.FindByID(ctx, req.LocalProductID); err != nil {
		return nil, err
	}

	exists, err := s.mappingRepo.ExistsForPair(ctx, req.LocalProductID, conn.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, integration.ErrMappingAlreadyExists
	}

	var remote integration.RemoteProduct
	if req.RemoteSKU != "" {
		adapter, err := s.adapters.AdapterFor(conn)
		if err != nil {
			return nil, err
		}
		found, err := adapter.FindProductBySku(ctx, req.RemoteSKU)
		if err != nil {
			return nil, err
		}
		remote = *found
	} else {
		if req.RemoteProductID == "" {
			return nil, integration.ErrMappingInvalidInput
		}
		remote = integration.RemoteProduct{
			ProductID:       req.RemoteProductID,
			VariantID:       req.RemoteVariantID,
			InventoryItemID: req.RemoteProductID,
		}
		if req.RemoteVariantID != "" {
			remote.InventoryItemID = req.RemoteVariantID
		}
	}

	mapping, err := integration.NewProductMapping(conn.ID, req.LocalProductID, remote)
	if err != nil {
		return nil, err
	}

	if err := s.mappingRepo.Save(ctx, mapping); err != nil {
		return nil, err
	}

	s.logger.Info("Product mapping created",
		zap.String("connection_id", conn.ID.String()),
		zap.String("local_product_id", req.LocalProductID.String()),
		zap.String("remote_product_id", mapping.RemoteProductID),
	)

	return mapping, nil
}

// ListMappings returns all mappings for a connection
func (s *MappingService) ListMappings(ctx context.Context, connectionID uuid.UUID) ([]integration.ProductMapping, error) {
	return s.mappingRepo.FindByConnection(ctx, connectionID)
}

// GetMapping retrieves a mapping by ID
func (s *MappingService) GetMapping(ctx context.Context, id uuid.UUID) (*integration.ProductMapping, error) {
	return s.mappingRepo.FindByID(ctx, id)
}

// DeleteMapping removes a mapping. The products on both sides are untouched.
func (s *MappingService) DeleteMapping(ctx context.Context, id uuid.UUID) error {
	return s.mappingRepo.Delete(ctx, id)
}

// AutoMatch walks every unmapped local product that carries a SKU and looks
// it up on the connection's platform. Exact SKU hits become mappings; items
// the platform does not track stock for are skipped, since writing stock to
// them could never reconcile.
func (s *MappingService) AutoMatch(ctx context.Context, connectionID uuid.UUID) (*AutoMatchResult, error) {
	conn, err := s.connRepo.FindByID(ctx, connectionID)
	if err != nil {
		return nil, err
	}

	adapter, err := s.adapters.AdapterFor(conn)
	if err != nil {
		return nil, err
	}

	candidates, err := s.productRepo.FindUnmappedWithSKU(ctx, conn.ID)
	if err != nil {
		return nil, err
	}

	alreadyMapped, err := s.productRepo.CountMappedWithSKU(ctx, conn.ID)
	if err != nil {
		return nil, err
	}

	result := &AutoMatchResult{AlreadyMapped: int(alreadyMapped)}
	for i := range candidates {
		product := &candidates[i]

		remote, err := adapter.FindProductBySku(ctx, product.SKU)
		if err != nil {
			if errors.Is(err, integration.ErrRemoteProductNotFound) {
				result.NotFound++
				continue
			}
			result.Failed++
			s.logger.Warn("Auto-match SKU lookup failed",
				zap.String("connection_id", conn.ID.String()),
				zap.String("sku", product.SKU),
				zap.Error(err),
			)
			continue
		}

		if !remote.Tracked {
			result.SkippedUntracked++
			continue
		}

		mapping, err := integration.NewProductMapping(conn.ID, product.ID, *remote)
		if err != nil {
			result.Failed++
			continue
		}
		if err := s.mappingRepo.Save(ctx, mapping); err != nil {
			result.Failed++
			s.logger.Warn("Auto-match mapping save failed",
				zap.String("connection_id", conn.ID.String()),
				zap.String("sku", product.SKU),
				zap.Error(err),
			)
			continue
		}
		result.Matched++
	}

	s.logger.Info("Auto-match completed",
		zap.String("connection_id", conn.ID.String()),
		zap.Int("matched", result.Matched),
		zap.Int("already_mapped", result.AlreadyMapped),
		zap.Int("skipped_untracked", result.SkippedUntracked),
		zap.Int("not_found", result.NotFound),
		zap.Int("failed", result.Failed),
	)

	return result, nil
}
