package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrProductNotFound = errors.New("catalog: product not found")
	ErrInvalidProduct  = errors.New("catalog: invalid product")
)

// AdjustmentReasonPlatformSync marks quantity changes pulled in from a
// remote storefront during reconciliation.
const AdjustmentReasonPlatformSync = "platform sync"

// Product is the local point-of-sale ledger's view of a sellable item. Only
// the fields the sync engine consumes are modeled here; the full catalog is
// owned by the POS.
type Product struct {
	// ID is the unique identifier of this product
	ID uuid.UUID
	// SKU is the merchant-assigned stock keeping unit, may be empty
	SKU string
	// Name is the display name
	Name string
	// Quantity is the current on-hand stock
	Quantity decimal.Decimal
	// CreatedAt is when this product was created
	CreatedAt time.Time
	// UpdatedAt is when this product was last updated
	UpdatedAt time.Time
}

// InventoryAdjustment is one recorded stock correction on the local ledger.
type InventoryAdjustment struct {
	// ID is the unique identifier of this adjustment
	ID uuid.UUID
	// ProductID is the product that was adjusted
	ProductID uuid.UUID
	// QuantityChange is the signed delta applied
	QuantityChange decimal.Decimal
	// Before is the quantity prior to the adjustment
	Before decimal.Decimal
	// After is the quantity after the adjustment
	After decimal.Decimal
	// Reason is why the adjustment happened (e.g. "platform sync")
	Reason string
	// CreatedAt is when the adjustment was recorded
	CreatedAt time.Time
}

// NewInventoryAdjustment records a stock correction
func NewInventoryAdjustment(productID uuid.UUID, before, after decimal.Decimal, reason string) *InventoryAdjustment {
	return &InventoryAdjustment{
		ID:             uuid.New(),
		ProductID:      productID,
		QuantityChange: after.Sub(before),
		Before:         before,
		After:          after,
		Reason:         reason,
		CreatedAt:      time.Now(),
	}
}

// ProductRepository is the local collaborator contract the sync engine
// consumes. The POS owns the implementation.
type ProductRepository interface {
	// FindByID finds a product by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindUnmappedWithSKU returns products carrying a non-empty SKU that
	// have no mapping for the given connection. Used by auto-match.
	FindUnmappedWithSKU(ctx context.Context, connectionID uuid.UUID) ([]Product, error)

	// CountMappedWithSKU counts products carrying a non-empty SKU that are
	// already mapped for the given connection. Reported by auto-match as
	// the skipped portion of its candidate set.
	CountMappedWithSKU(ctx context.Context, connectionID uuid.UUID) (int64, error)

	// UpdateQuantity sets a product's on-hand stock
	UpdateQuantity(ctx context.Context, id uuid.UUID, quantity decimal.Decimal) error

	// RecordAdjustment appends an inventory adjustment to the local ledger
	RecordAdjustment(ctx context.Context, adj *InventoryAdjustment) error
}
