package integration

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

var (
	// Platform errors
	ErrPlatformNotSupported    = errors.New("integration: platform not supported")
	ErrPlatformUnavailable     = errors.New("integration: platform temporarily unavailable")
	ErrPlatformInvalidResponse = errors.New("integration: invalid platform response")
	ErrPlatformAuthFailed      = errors.New("integration: platform authentication failed")
	ErrPlatformTokenExpired    = errors.New("integration: platform token expired")

	// Remote lookup errors
	ErrRemoteProductNotFound = errors.New("integration: remote product not found")
	ErrLocationNotResolved   = errors.New("integration: inventory location could not be resolved")

	// Connection errors
	ErrConnectionNotFound      = errors.New("integration: connection not found")
	ErrConnectionInactive      = errors.New("integration: connection is not active")
	ErrConnectionInvalidURL    = errors.New("integration: connection shop URL is required")
	ErrConnectionNoCredentials = errors.New("integration: connection credentials are required")

	// Mapping errors
	ErrMappingNotFound      = errors.New("integration: product mapping not found")
	ErrMappingAlreadyExists = errors.New("integration: product mapping already exists")
	ErrMappingInvalidInput  = errors.New("integration: invalid product mapping input")

	// Sync pass errors
	ErrSyncBusy     = errors.New("integration: a sync pass is already running")
	ErrSyncDisabled = errors.New("integration: sync is disabled for this connection")
)

// PlatformError is the normalized form of a failed remote call. Adapters
// convert transport and API failures into this type so callers above the
// adapter never see raw HTTP details.
type PlatformError struct {
	// Platform identifies which adapter produced the error
	Platform PlatformCode
	// Message is a human-readable description
	Message string
	// Status is the HTTP status code, 0 for transport-level failures
	Status int
	// Details carries the platform's error payload, if any
	Details string
}

// Error implements the error interface
func (e *PlatformError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s: %s (HTTP %d)", e.Platform, e.Message, e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Platform, e.Message)
}

// NewPlatformError creates a normalized platform error
func NewPlatformError(platform PlatformCode, message string, status int, details string) *PlatformError {
	return &PlatformError{
		Platform: platform,
		Message:  message,
		Status:   status,
		Details:  details,
	}
}

// ---------------------------------------------------------------------------
// PlatformCode
// ---------------------------------------------------------------------------

// PlatformCode identifies the kind of remote storefront a connection talks to.
type PlatformCode string

const (
	// PlatformCodeShopify represents a Shopify storefront
	PlatformCodeShopify PlatformCode = "SHOPIFY"
	// PlatformCodeWooCommerce represents a WooCommerce storefront
	PlatformCodeWooCommerce PlatformCode = "WOOCOMMERCE"
)

// IsValid returns true if the platform code is one this build knows how to talk to
func (c PlatformCode) IsValid() bool {
	switch c {
	case PlatformCodeShopify, PlatformCodeWooCommerce:
		return true
	default:
		return false
	}
}

// String returns the string representation of PlatformCode
func (c PlatformCode) String() string {
	return string(c)
}

// DisplayName returns a human-readable name for the platform
func (c PlatformCode) DisplayName() string {
	switch c {
	case PlatformCodeShopify:
		return "Shopify"
	case PlatformCodeWooCommerce:
		return "WooCommerce"
	default:
		return string(c)
	}
}

// ---------------------------------------------------------------------------
// Value Objects
// ---------------------------------------------------------------------------

// RemoteProduct is the adapter's normalized view of one sellable unit on the
// platform. Variable products are expanded into one RemoteProduct per variant
// before they leave the adapter.
type RemoteProduct struct {
	// ProductID is the product ID on the platform
	ProductID string
	// VariantID is the variant ID on the platform (empty for simple products)
	VariantID string
	// InventoryItemID is the addressable handle inventory writes must target.
	// For platforms without a separate inventory identity this equals the
	// product or variant ID.
	InventoryItemID string
	// SKU is the merchant-assigned stock keeping unit
	SKU string
	// Title is the display name, including variant options where applicable
	Title string
	// Price is the current listing price
	Price decimal.Decimal
	// Quantity is the stock level reported at fetch time
	Quantity decimal.Decimal
	// Tracked reports whether the platform manages stock for this item.
	// Untracked items must be skipped by reconciliation, never written.
	Tracked bool
}

// RemoteInventory is a transient snapshot of a remote item's quantity at
// fetch time. It is never persisted.
type RemoteInventory struct {
	// ProductID is the product ID on the platform
	ProductID string
	// VariantID is the variant ID on the platform (optional)
	VariantID string
	// InventoryItemID is the addressable handle the snapshot belongs to
	InventoryItemID string
	// Quantity is the resolved stock level
	Quantity decimal.Decimal
}

// InventoryUpdate is one desired absolute stock write.
type InventoryUpdate struct {
	// InventoryItemID is the addressable handle to write to
	InventoryItemID string
	// Quantity is the absolute quantity to set
	Quantity decimal.Decimal
}

// UpdateFailure describes one item of a batch write that did not land.
type UpdateFailure struct {
	// InventoryItemID is the handle whose write failed
	InventoryItemID string
	// Message is the failure description
	Message string
}

// UpdateResult reports per-item outcomes of a batch inventory write. A batch
// never collapses into a single opaque failure: callers must be able to tell
// which updates landed.
type UpdateResult struct {
	// Succeeded lists the handles whose writes were applied
	Succeeded []string
	// Failed lists the items that were rejected, with reasons
	Failed []UpdateFailure
}

// AllSucceeded returns true when no item in the batch failed
func (r *UpdateResult) AllSucceeded() bool {
	return len(r.Failed) == 0
}

// ProductPage is one page of normalized products plus continuation state.
type ProductPage struct {
	// Products contains the normalized records for this page
	Products []RemoteProduct
	// NextCursor resumes listing after this page. Adapters must accept any
	// previously issued cursor, or "" for the first page.
	NextCursor string
	// HasMore indicates whether another page exists
	HasMore bool
}

// ShopInfo carries display metadata about the connected store.
type ShopInfo struct {
	// Name is the store's display name
	Name string
	// Domain is the store's primary domain
	Domain string
	// Currency is the store's ISO currency code
	Currency string
}

// TestResult is the structured outcome of a connection test. Transport and
// auth failures are folded into it; TestConnection never surfaces an error.
type TestResult struct {
	// OK reports whether the credentials reached the store
	OK bool
	// Message is a human-readable outcome
	Message string
	// Shop carries store metadata when the test succeeded
	Shop *ShopInfo
}

// ---------------------------------------------------------------------------
// ShopPlatform Port Interface
// ---------------------------------------------------------------------------

// ShopPlatform is the capability contract every remote storefront integration
// must satisfy. It is defined in the domain layer following the Ports &
// Adapters pattern; concrete implementations (Shopify, WooCommerce) live in
// the infrastructure layer. All platform-specific pagination styles, auth
// schemes and rate-limit signaling are absorbed behind this interface.
type ShopPlatform interface {
	// PlatformCode returns the platform code this adapter handles
	PlatformCode() PlatformCode

	// TestConnection verifies credentials against the store. Failures are
	// reported in the result, never as an error.
	TestConnection(ctx context.Context) *TestResult

	// FetchProducts returns one page of normalized products. cursor is ""
	// for the first page; any previously issued NextCursor restarts the
	// listing from that point.
	FetchProducts(ctx context.Context, cursor string) (*ProductPage, error)

	// FetchInventory returns quantities for a bounded batch of addressable
	// handles. Inputs longer than InventoryBatchSize are truncated, not
	// rejected.
	FetchInventory(ctx context.Context, inventoryItemIDs []string) ([]RemoteInventory, error)

	// InventoryBatchSize returns the maximum number of handles one
	// FetchInventory call will query.
	InventoryBatchSize() int

	// UpdateInventory applies absolute quantity writes and reports per-item
	// success and failure.
	UpdateInventory(ctx context.Context, updates []InventoryUpdate) *UpdateResult

	// FindProductBySku looks up a product by SKU for auto-mapping. Returns
	// ErrRemoteProductNotFound when the SKU does not exist on the platform.
	FindProductBySku(ctx context.Context, sku string) (*RemoteProduct, error)

	// GetShopInfo returns store metadata for connection display
	GetShopInfo(ctx context.Context) (*ShopInfo, error)

	// RefreshToken renews OAuth credentials before they expire. Static
	// credential platforms implement it as a no-op.
	RefreshToken(ctx context.Context) error
}
