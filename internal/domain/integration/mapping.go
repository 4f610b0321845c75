package integration

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// MappingStatus
// ---------------------------------------------------------------------------

// MappingStatus represents the reconciliation state of a product mapping
type MappingStatus string

const (
	// MappingStatusSynced indicates both sides matched at last reconciliation
	MappingStatusSynced MappingStatus = "SYNCED"
	// MappingStatusPendingPush indicates a local change awaiting push
	MappingStatusPendingPush MappingStatus = "PENDING_PUSH"
	// MappingStatusConflict indicates both sides changed since last sync
	MappingStatusConflict MappingStatus = "CONFLICT"
)

// IsValid returns true if the status is valid
func (s MappingStatus) IsValid() bool {
	switch s {
	case MappingStatusSynced, MappingStatusPendingPush, MappingStatusConflict:
		return true
	default:
		return false
	}
}

// String returns the string representation of MappingStatus
func (s MappingStatus) String() string {
	return string(s)
}

// ---------------------------------------------------------------------------
// ProductMapping Entity
// ---------------------------------------------------------------------------

// ProductMapping is the persisted correspondence between one local product
// and its remote counterpart for one connection. The last-known quantities on
// both sides are the baseline drift detection compares against.
type ProductMapping struct {
	// ID is the unique identifier of this mapping
	ID uuid.UUID
	// ConnectionID is the connection this mapping belongs to
	ConnectionID uuid.UUID
	// LocalProductID is our internal product ID
	LocalProductID uuid.UUID
	// RemoteProductID is the product ID on the platform
	RemoteProductID string
	// RemoteVariantID is the variant ID on the platform (optional)
	RemoteVariantID string
	// RemoteSKU is the SKU as the platform reports it
	RemoteSKU string
	// RemoteInventoryItemID is the addressable handle stock writes target
	RemoteInventoryItemID string
	// Status is the reconciliation state
	Status MappingStatus
	// LastKnownLocalQty is the local quantity at last successful sync
	LastKnownLocalQty decimal.Decimal
	// LastKnownRemoteQty is the remote quantity at last successful sync
	LastKnownRemoteQty decimal.Decimal
	// LastSyncedAt is when this mapping last reconciled cleanly
	LastSyncedAt *time.Time
	// CreatedAt is when this mapping was created
	CreatedAt time.Time
	// UpdatedAt is when this mapping was last updated
	UpdatedAt time.Time
}

// NewProductMapping creates a mapping between a local product and a remote
// product for one connection
func NewProductMapping(connectionID, localProductID uuid.UUID, remote RemoteProduct) (*ProductMapping, error) {
	if connectionID == uuid.Nil || localProductID == uuid.Nil {
		return nil, ErrMappingInvalidInput
	}
	if remote.ProductID == "" {
		return nil, ErrMappingInvalidInput
	}

	handle := remote.InventoryItemID
	if handle == "" {
		handle = remote.ProductID
	}

	now := time.Now()
	return &ProductMapping{
		ID:                    uuid.New(),
		ConnectionID:          connectionID,
		LocalProductID:        localProductID,
		RemoteProductID:       remote.ProductID,
		RemoteVariantID:       remote.VariantID,
		RemoteSKU:             remote.SKU,
		RemoteInventoryItemID: handle,
		Status:                MappingStatusPendingPush,
		CreatedAt:             now,
		UpdatedAt:             now,
	}, nil
}

// Drift classification against the mapping's last-known values.

// LocalChanged reports drift on the local side
func (m *ProductMapping) LocalChanged(currentLocal decimal.Decimal) bool {
	return !currentLocal.Equal(m.LastKnownLocalQty)
}

// RemoteChanged reports drift on the remote side
func (m *ProductMapping) RemoteChanged(currentRemote decimal.Decimal) bool {
	return !currentRemote.Equal(m.LastKnownRemoteQty)
}

// MarkSynced records a successful reconciliation with the quantities both
// sides agreed on
func (m *ProductMapping) MarkSynced(localQty, remoteQty decimal.Decimal) {
	now := time.Now()
	m.LastKnownLocalQty = localQty
	m.LastKnownRemoteQty = remoteQty
	m.Status = MappingStatusSynced
	m.LastSyncedAt = &now
	m.UpdatedAt = now
}

// MarkPendingPush flags a local change that has not reached the remote side
func (m *ProductMapping) MarkPendingPush() {
	m.Status = MappingStatusPendingPush
	m.UpdatedAt = time.Now()
}

// MarkConflict flags concurrent drift on both sides
func (m *ProductMapping) MarkConflict() {
	m.Status = MappingStatusConflict
	m.UpdatedAt = time.Now()
}

// ---------------------------------------------------------------------------
// ProductMappingRepository Interface
// ---------------------------------------------------------------------------

// ProductMappingRepository defines persistence for product mappings.
// Implementations must enforce at most one mapping per
// (local product, connection) pair.
type ProductMappingRepository interface {
	// FindByID finds a mapping by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*ProductMapping, error)

	// FindByConnection returns all mappings for a connection
	FindByConnection(ctx context.Context, connectionID uuid.UUID) ([]ProductMapping, error)

	// FindByLocalProduct returns all mappings of a local product across
	// connections
	FindByLocalProduct(ctx context.Context, localProductID uuid.UUID) ([]ProductMapping, error)

	// FindByLocalProductAndConnection finds the unique mapping for the pair
	FindByLocalProductAndConnection(ctx context.Context, localProductID, connectionID uuid.UUID) (*ProductMapping, error)

	// FindByRemoteIdentity matches a mapping by the platform-specific
	// identity a webhook carries: the addressable handle, the remote product
	// ID or the remote variant ID.
	FindByRemoteIdentity(ctx context.Context, connectionID uuid.UUID, remoteID string) (*ProductMapping, error)

	// ExistsForPair reports whether the (local product, connection) pair is
	// already mapped
	ExistsForPair(ctx context.Context, localProductID, connectionID uuid.UUID) (bool, error)

	// Save creates or updates a mapping
	Save(ctx context.Context, mapping *ProductMapping) error

	// Delete removes a mapping
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteByConnection removes all mappings of a connection
	DeleteByConnection(ctx context.Context, connectionID uuid.UUID) error

	// DeleteByLocalProduct removes all mappings of a local product
	DeleteByLocalProduct(ctx context.Context, localProductID uuid.UUID) error
}
