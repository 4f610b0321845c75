package integration

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stocklink/backend/internal/domain/integration"
)

// ---------------------------------------------------------------------------
// Connection DTOs
// ---------------------------------------------------------------------------

// ConnectionResponse represents a connection in API responses. Credential
// material never leaves the service layer.
type ConnectionResponse struct {
	ID                  uuid.UUID                 `json:"id"`
	PlatformCode        integration.PlatformCode  `json:"platform_code"`
	PlatformDisplayName string                    `json:"platform_display_name"`
	ShopName            string                    `json:"shop_name,omitempty"`
	ShopURL             string                    `json:"shop_url"`
	IsActive            bool                      `json:"is_active"`
	SyncEnabled         bool                      `json:"sync_enabled"`
	SyncIntervalSeconds int64                     `json:"sync_interval_seconds"`
	LastSyncAt          *time.Time                `json:"last_sync_at,omitempty"`
	LastSyncStatus      integration.SyncLogStatus `json:"last_sync_status,omitempty"`
	LastSyncError       string                    `json:"last_sync_error,omitempty"`
	CreatedAt           time.Time                 `json:"created_at"`
	UpdatedAt           time.Time                 `json:"updated_at"`
}

// CreateConnectionRequest represents a request to register a storefront
type CreateConnectionRequest struct {
	PlatformCode integration.PlatformCode `json:"platform_code" validate:"required"`
	ShopURL      string                   `json:"shop_url" validate:"required,url"`
	APIKey       string                   `json:"api_key,omitempty"`
	APISecret    string                   `json:"api_secret,omitempty"`
	AccessToken  string                   `json:"access_token,omitempty"`
	LocationID   string                   `json:"location_id,omitempty"`
	// SyncIntervalSeconds of 0 keeps the default cadence
	SyncIntervalSeconds int64 `json:"sync_interval_seconds,omitempty"`
}

// UpdateConnectionRequest represents a partial connection update
type UpdateConnectionRequest struct {
	ShopURL             *string `json:"shop_url,omitempty"`
	APIKey              *string `json:"api_key,omitempty"`
	APISecret           *string `json:"api_secret,omitempty"`
	AccessToken         *string `json:"access_token,omitempty"`
	LocationID          *string `json:"location_id,omitempty"`
	IsActive            *bool   `json:"is_active,omitempty"`
	SyncEnabled         *bool   `json:"sync_enabled,omitempty"`
	SyncIntervalSeconds *int64  `json:"sync_interval_seconds,omitempty"`
}

// TestConnectionResponse reports the outcome of a connection test
type TestConnectionResponse struct {
	OK       bool   `json:"ok"`
	Message  string `json:"message"`
	ShopName string `json:"shop_name,omitempty"`
	Domain   string `json:"domain,omitempty"`
	Currency string `json:"currency,omitempty"`
}

// ---------------------------------------------------------------------------
// Mapping DTOs
// ---------------------------------------------------------------------------

// MappingResponse represents a product mapping in API responses
type MappingResponse struct {
	ID                    uuid.UUID                 `json:"id"`
	ConnectionID          uuid.UUID                 `json:"connection_id"`
	LocalProductID        uuid.UUID                 `json:"local_product_id"`
	RemoteProductID       string                    `json:"remote_product_id"`
	RemoteVariantID       string                    `json:"remote_variant_id,omitempty"`
	RemoteSKU             string                    `json:"remote_sku,omitempty"`
	RemoteInventoryItemID string                    `json:"remote_inventory_item_id"`
	Status                integration.MappingStatus `json:"status"`
	LastKnownLocalQty     decimal.Decimal           `json:"last_known_local_qty"`
	LastKnownRemoteQty    decimal.Decimal           `json:"last_known_remote_qty"`
	LastSyncedAt          *time.Time                `json:"last_synced_at,omitempty"`
	CreatedAt             time.Time                 `json:"created_at"`
}

// CreateMappingRequest represents a request to map a local product to a
// remote one. Either RemoteSKU (looked up on the platform) or an explicit
// remote product identity must be provided.
type CreateMappingRequest struct {
	LocalProductID  uuid.UUID `json:"local_product_id" validate:"required"`
	RemoteSKU       string    `json:"remote_sku,omitempty"`
	RemoteProductID string    `json:"remote_product_id,omitempty"`
	RemoteVariantID string    `json:"remote_variant_id,omitempty"`
}

// AutoMatchResult summarizes one auto-match run over a connection
type AutoMatchResult struct {
	// Matched counts newly created mappings
	Matched int `json:"matched"`
	// AlreadyMapped counts SKU-carrying products skipped because a mapping
	// for this connection already existed
	AlreadyMapped int `json:"already_mapped"`
	// SkippedUntracked counts SKU hits whose remote item does not track stock
	SkippedUntracked int `json:"skipped_untracked"`
	// NotFound counts local SKUs with no remote counterpart
	NotFound int `json:"not_found"`
	// Failed counts lookups or saves that errored
	Failed int `json:"failed"`
}

// ---------------------------------------------------------------------------
// Sync DTOs
// ---------------------------------------------------------------------------

// SyncSummary reports the outcome of one sync pass
type SyncSummary struct {
	ConnectionID uuid.UUID                 `json:"connection_id"`
	Status       integration.SyncLogStatus `json:"status"`
	// Pushed counts local quantities written to the remote side
	Pushed int `json:"pushed"`
	// Pulled counts remote quantities written into the local ledger
	Pulled int `json:"pulled"`
	// Conflicts counts mappings where both sides had drifted
	Conflicts int `json:"conflicts"`
	// Errors counts per-item failures inside the pass
	Errors int `json:"errors"`
	// InSync counts mappings that needed no write
	InSync int `json:"in_sync"`
}

// SyncLogResponse represents one sync log entry in API responses
type SyncLogResponse struct {
	ID           uuid.UUID                 `json:"id"`
	ConnectionID uuid.UUID                 `json:"connection_id"`
	Kind         integration.SyncKind      `json:"kind"`
	Trigger      integration.SyncTrigger   `json:"trigger"`
	Status       integration.SyncLogStatus `json:"status"`
	Pushed       int                       `json:"pushed"`
	Pulled       int                       `json:"pulled"`
	ErrorCount   int                       `json:"error_count"`
	Detail       string                    `json:"detail,omitempty"`
	StartedAt    time.Time                 `json:"started_at"`
	CompletedAt  *time.Time                `json:"completed_at,omitempty"`
}

// WebhookEvent is the normalized form of an inbound inventory notification.
// DeliveryID is the platform's delivery identifier used for dedup; RemoteID
// is whatever identity the payload carried (inventory item, product or
// variant ID).
type WebhookEvent struct {
	ConnectionID uuid.UUID
	DeliveryID   string
	RemoteID     string
	// Quantity is the remote stock level carried by the notification. Nil
	// when the platform only signals that something changed; the engine then
	// reconciles with a full pass instead of a direct apply.
	Quantity *decimal.Decimal
}

// WebhookResult reports how an inbound notification was handled
type WebhookResult struct {
	Processed bool   `json:"processed"`
	Reason    string `json:"reason,omitempty"`
}

// ---------------------------------------------------------------------------
// Conversion functions
// ---------------------------------------------------------------------------

// ToConnectionResponse converts a domain Connection to a response DTO
func ToConnectionResponse(c *integration.Connection) ConnectionResponse {
	return ConnectionResponse{
		ID:                  c.ID,
		PlatformCode:        c.PlatformCode,
		PlatformDisplayName: c.PlatformCode.DisplayName(),
		ShopName:            c.ShopName,
		ShopURL:             c.ShopURL,
		IsActive:            c.IsActive,
		SyncEnabled:         c.SyncEnabled,
		SyncIntervalSeconds: int64(c.SyncInterval / time.Second),
		LastSyncAt:          c.LastSyncAt,
		LastSyncStatus:      c.LastSyncStatus,
		LastSyncError:       c.LastSyncError,
		CreatedAt:           c.CreatedAt,
		UpdatedAt:           c.UpdatedAt,
	}
}

// ToConnectionResponses converts a slice of connections to response DTOs
func ToConnectionResponses(conns []integration.Connection) []ConnectionResponse {
	responses := make([]ConnectionResponse, len(conns))
	for i := range conns {
		responses[i] = ToConnectionResponse(&conns[i])
	}
	return responses
}

// ToMappingResponse converts a domain ProductMapping to a response DTO
func ToMappingResponse(m *integration.ProductMapping) MappingResponse {
	return MappingResponse{
		ID:                    m.ID,
		ConnectionID:          m.ConnectionID,
		LocalProductID:        m.LocalProductID,
		RemoteProductID:       m.RemoteProductID,
		RemoteVariantID:       m.RemoteVariantID,
		RemoteSKU:             m.RemoteSKU,
		RemoteInventoryItemID: m.RemoteInventoryItemID,
		Status:                m.Status,
		LastKnownLocalQty:     m.LastKnownLocalQty,
		LastKnownRemoteQty:    m.LastKnownRemoteQty,
		LastSyncedAt:          m.LastSyncedAt,
		CreatedAt:             m.CreatedAt,
	}
}

// ToMappingResponses converts a slice of mappings to response DTOs
func ToMappingResponses(mappings []integration.ProductMapping) []MappingResponse {
	responses := make([]MappingResponse, len(mappings))
	for i := range mappings {
		responses[i] = ToMappingResponse(&mappings[i])
	}
	return responses
}

// ToSyncLogResponse converts a domain SyncLogEntry to a response DTO
func ToSyncLogResponse(e *integration.SyncLogEntry) SyncLogResponse {
	return SyncLogResponse{
		ID:           e.ID,
		ConnectionID: e.ConnectionID,
		Kind:         e.Kind,
		Trigger:      e.Trigger,
		Status:       e.Status,
		Pushed:       e.Pushed,
		Pulled:       e.Pulled,
		ErrorCount:   e.ErrorCount,
		Detail:       e.Detail,
		StartedAt:    e.StartedAt,
		CompletedAt:  e.CompletedAt,
	}
}

// ToSyncLogResponses converts a slice of log entries to response DTOs
func ToSyncLogResponses(entries []integration.SyncLogEntry) []SyncLogResponse {
	responses := make([]SyncLogResponse, len(entries))
	for i := range entries {
		responses[i] = ToSyncLogResponse(&entries[i])
	}
	return responses
}
