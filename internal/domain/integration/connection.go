package integration

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Connection Entity
// ---------------------------------------------------------------------------

// Connection represents one configured external storefront. It owns the
// credential material and sync preferences; the live adapter instance is a
// rebuildable projection of this record and is never the source of truth.
type Connection struct {
	// ID is the unique identifier of this connection
	ID uuid.UUID
	// PlatformCode identifies which platform the store runs on
	PlatformCode PlatformCode
	// ShopName is the store's display name, enriched after a successful test
	ShopName string
	// ShopURL is the store endpoint (e.g. https://acme.myshopify.com)
	ShopURL string
	// APIKey is the static key or consumer key, depending on platform
	APIKey string
	// APISecret is the static secret or consumer secret
	APISecret string
	// AccessToken is the OAuth access token for token-based platforms
	AccessToken string
	// RefreshToken is the OAuth refresh token
	RefreshToken string
	// TokenExpiresAt is when the access token expires
	TokenExpiresAt *time.Time
	// LocationID is the platform inventory location stock writes target.
	// Empty means the adapter resolves the primary location lazily.
	LocationID string
	// IsActive indicates whether this connection participates at all
	IsActive bool
	// SyncEnabled indicates whether scheduled and push syncs run
	SyncEnabled bool
	// SyncInterval is the scheduled sync cadence
	SyncInterval time.Duration
	// LastSyncAt is when the last sync pass finished
	LastSyncAt *time.Time
	// LastSyncStatus is the outcome of the last pass
	LastSyncStatus SyncLogStatus
	// LastSyncError holds the failure detail of the last pass, if any
	LastSyncError string
	// CreatedAt is when this connection was created
	CreatedAt time.Time
	// UpdatedAt is when this connection was last updated
	UpdatedAt time.Time
}

// NewConnection creates a new connection for a storefront
func NewConnection(platformCode PlatformCode, shopURL string) (*Connection, error) {
	if !platformCode.IsValid() {
		return nil, ErrPlatformNotSupported
	}
	if strings.TrimSpace(shopURL) == "" {
		return nil, ErrConnectionInvalidURL
	}

	now := time.Now()
	return &Connection{
		ID:           uuid.New(),
		PlatformCode: platformCode,
		ShopURL:      strings.TrimRight(shopURL, "/"),
		IsActive:     true,
		SyncEnabled:  true,
		SyncInterval: 15 * time.Minute,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Validate validates the connection
func (c *Connection) Validate() error {
	if !c.PlatformCode.IsValid() {
		return ErrPlatformNotSupported
	}
	if c.ShopURL == "" {
		return ErrConnectionInvalidURL
	}
	if !c.HasCredentials() {
		return ErrConnectionNoCredentials
	}
	return nil
}

// HasCredentials returns true when either static keys or an OAuth token pair
// is present
func (c *Connection) HasCredentials() bool {
	if c.APIKey != "" && c.APISecret != "" {
		return true
	}
	return c.AccessToken != ""
}

// TokenExpiringWithin returns true when the OAuth access token expires inside
// the given window. Static-credential connections never expire.
func (c *Connection) TokenExpiringWithin(window time.Duration) bool {
	if c.TokenExpiresAt == nil {
		return false
	}
	return time.Now().Add(window).After(*c.TokenExpiresAt)
}

// SetTokens stores a fresh OAuth token pair
func (c *Connection) SetTokens(accessToken, refreshToken string, expiresAt time.Time) {
	c.AccessToken = accessToken
	if refreshToken != "" {
		c.RefreshToken = refreshToken
	}
	c.TokenExpiresAt = &expiresAt
	c.UpdatedAt = time.Now()
}

// EnrichShopName records the discovered store name after a successful test
func (c *Connection) EnrichShopName(name string) {
	if name == "" || c.ShopName == name {
		return
	}
	c.ShopName = name
	c.UpdatedAt = time.Now()
}

// DisableSync soft-disables the connection without deleting any state
func (c *Connection) DisableSync() {
	c.SyncEnabled = false
	c.UpdatedAt = time.Now()
}

// EnableSync re-enables scheduled and push syncs
func (c *Connection) EnableSync() {
	c.SyncEnabled = true
	c.UpdatedAt = time.Now()
}

// RecordSyncOutcome updates the connection's last-sync fields after a pass
func (c *Connection) RecordSyncOutcome(status SyncLogStatus, errMsg string) {
	now := time.Now()
	c.LastSyncAt = &now
	c.LastSyncStatus = status
	c.LastSyncError = errMsg
	c.UpdatedAt = now
}

// ---------------------------------------------------------------------------
// ConnectionRepository Interface
// ---------------------------------------------------------------------------

// ConnectionRepository defines persistence for connections
type ConnectionRepository interface {
	// FindByID finds a connection by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Connection, error)

	// FindAll returns all connections
	FindAll(ctx context.Context) ([]Connection, error)

	// FindActive returns connections with IsActive set
	FindActive(ctx context.Context) ([]Connection, error)

	// Save creates or updates a connection
	Save(ctx context.Context, conn *Connection) error

	// Delete removes a connection record. Dependent mappings and logs must
	// already be gone; cascade ordering is the registry's responsibility.
	Delete(ctx context.Context, id uuid.UUID) error
}
