package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stocklink/backend/internal/domain/integration"
)

// ConnectionModel is the persistence model for the Connection domain entity.
type ConnectionModel struct {
	ID             uuid.UUID                 `gorm:"type:uuid;primary_key"`
	PlatformCode   integration.PlatformCode  `gorm:"type:varchar(20);not null;index"`
	ShopName       string                    `gorm:"type:varchar(255)"`
	ShopURL        string                    `gorm:"type:varchar(500);not null"`
	APIKey         string                    `gorm:"type:varchar(255)"`
	APISecret      string                    `gorm:"type:varchar(255)"`
	AccessToken    string                    `gorm:"type:text"`
	RefreshToken   string                    `gorm:"type:text"`
	TokenExpiresAt *time.Time
	LocationID     string                    `gorm:"type:varchar(100)"`
	IsActive       bool                      `gorm:"not null;default:true;index"`
	SyncEnabled    bool                      `gorm:"not null;default:true"`
	SyncInterval   int64                     `gorm:"not null;default:900;comment:seconds"`
	LastSyncAt     *time.Time
	LastSyncStatus integration.SyncLogStatus `gorm:"type:varchar(20)"`
	LastSyncError  string                    `gorm:"type:text"`
	CreatedAt      time.Time                 `gorm:"not null"`
	UpdatedAt      time.Time                 `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ConnectionModel) TableName() string {
	return "connections"
}

// ToDomain converts the persistence model to a domain Connection entity.
func (m *ConnectionModel) ToDomain() *integration.Connection {
	return &integration.Connection{
		ID:             m.ID,
		PlatformCode:   m.PlatformCode,
		ShopName:       m.ShopName,
		ShopURL:        m.ShopURL,
		APIKey:         m.APIKey,
		APISecret:      m.APISecret,
		AccessToken:    m.AccessToken,
		RefreshToken:   m.RefreshToken,
		TokenExpiresAt: m.TokenExpiresAt,
		LocationID:     m.LocationID,
		IsActive:       m.IsActive,
		SyncEnabled:    m.SyncEnabled,
		SyncInterval:   time.Duration(m.SyncInterval) * time.Second,
		LastSyncAt:     m.LastSyncAt,
		LastSyncStatus: m.LastSyncStatus,
		LastSyncError:  m.LastSyncError,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain Connection entity.
func (m *ConnectionModel) FromDomain(c *integration.Connection) {
	m.ID = c.ID
	m.PlatformCode = c.PlatformCode
	m.ShopName = c.ShopName
	m.ShopURL = c.ShopURL
	m.APIKey = c.APIKey
	m.APISecret = c.APISecret
	m.AccessToken = c.AccessToken
	m.RefreshToken = c.RefreshToken
	m.TokenExpiresAt = c.TokenExpiresAt
	m.LocationID = c.LocationID
	m.IsActive = c.IsActive
	m.SyncEnabled = c.SyncEnabled
	m.SyncInterval = int64(c.SyncInterval / time.Second)
	m.LastSyncAt = c.LastSyncAt
	m.LastSyncStatus = c.LastSyncStatus
	m.LastSyncError = c.LastSyncError
	m.CreatedAt = c.CreatedAt
	m.UpdatedAt = c.UpdatedAt
}

// ConnectionModelFromDomain creates a new persistence model from a domain Connection entity.
func ConnectionModelFromDomain(c *integration.Connection) *ConnectionModel {
	m := &ConnectionModel{}
	m.FromDomain(c)
	return m
}

// ProductMappingModel is the persistence model for the ProductMapping domain entity.
type ProductMappingModel struct {
	ID                    uuid.UUID                 `gorm:"type:uuid;primary_key"`
	ConnectionID          uuid.UUID                 `gorm:"type:uuid;not null;index:idx_mapping_connection,priority:1;uniqueIndex:idx_mapping_pair,priority:2"`
	LocalProductID        uuid.UUID                 `gorm:"type:uuid;not null;index;uniqueIndex:idx_mapping_pair,priority:1"`
	RemoteProductID       string                    `gorm:"type:varchar(100);not null;index"`
	RemoteVariantID       string                    `gorm:"type:varchar(100)"`
	RemoteSKU             string                    `gorm:"type:varchar(100)"`
	RemoteInventoryItemID string                    `gorm:"type:varchar(100);not null;index"`
	Status                integration.MappingStatus `gorm:"type:varchar(20);not null;default:'PENDING_PUSH'"`
	LastKnownLocalQty     decimal.Decimal           `gorm:"type:decimal(18,4);not null;default:0"`
	LastKnownRemoteQty    decimal.Decimal           `gorm:"type:decimal(18,4);not null;default:0"`
	LastSyncedAt          *time.Time
	CreatedAt             time.Time                 `gorm:"not null"`
	UpdatedAt             time.Time                 `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ProductMappingModel) TableName() string {
	return "product_mappings"
}

// ToDomain converts the persistence model to a domain ProductMapping entity.
func (m *ProductMappingModel) ToDomain() *integration.ProductMapping {
	return &integration.ProductMapping{
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
		UpdatedAt:             m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain ProductMapping entity.
func (m *ProductMappingModel) FromDomain(pm *integration.ProductMapping) {
	m.ID = pm.ID
	m.ConnectionID = pm.ConnectionID
	m.LocalProductID = pm.LocalProductID
	m.RemoteProductID = pm.RemoteProductID
	m.RemoteVariantID = pm.RemoteVariantID
	m.RemoteSKU = pm.RemoteSKU
	m.RemoteInventoryItemID = pm.RemoteInventoryItemID
	m.Status = pm.Status
	m.LastKnownLocalQty = pm.LastKnownLocalQty
	m.LastKnownRemoteQty = pm.LastKnownRemoteQty
	m.LastSyncedAt = pm.LastSyncedAt
	m.CreatedAt = pm.CreatedAt
	m.UpdatedAt = pm.UpdatedAt
}

// ProductMappingModelFromDomain creates a new persistence model from a domain ProductMapping entity.
func ProductMappingModelFromDomain(pm *integration.ProductMapping) *ProductMappingModel {
	m := &ProductMappingModel{}
	m.FromDomain(pm)
	return m
}

// SyncLogModel is the persistence model for the SyncLogEntry domain entity.
type SyncLogModel struct {
	ID           uuid.UUID                 `gorm:"type:uuid;primary_key"`
	ConnectionID uuid.UUID                 `gorm:"type:uuid;not null;index:idx_sync_log_connection,priority:1"`
	Kind         integration.SyncKind      `gorm:"type:varchar(20);not null"`
	Trigger      integration.SyncTrigger   `gorm:"type:varchar(20);not null"`
	Status       integration.SyncLogStatus `gorm:"type:varchar(20);not null"`
	Pushed       int                       `gorm:"not null;default:0"`
	Pulled       int                       `gorm:"not null;default:0"`
	ErrorCount   int                       `gorm:"not null;default:0"`
	Detail       string                    `gorm:"type:text"`
	StartedAt    time.Time                 `gorm:"not null;index:idx_sync_log_connection,priority:2,sort:desc"`
	CompletedAt  *time.Time
}

// TableName returns the table name for GORM
func (SyncLogModel) TableName() string {
	return "sync_logs"
}

// ToDomain converts the persistence model to a domain SyncLogEntry entity.
func (m *SyncLogModel) ToDomain() *integration.SyncLogEntry {
	return &integration.SyncLogEntry{
		ID:           m.ID,
		ConnectionID: m.ConnectionID,
		Kind:         m.Kind,
		Trigger:      m.Trigger,
		Status:       m.Status,
		Pushed:       m.Pushed,
		Pulled:       m.Pulled,
		ErrorCount:   m.ErrorCount,
		Detail:       m.Detail,
		StartedAt:    m.StartedAt,
		CompletedAt:  m.CompletedAt,
	}
}

// FromDomain populates the persistence model from a domain SyncLogEntry entity.
func (m *SyncLogModel) FromDomain(e *integration.SyncLogEntry) {
	m.ID = e.ID
	m.ConnectionID = e.ConnectionID
	m.Kind = e.Kind
	m.Trigger = e.Trigger
	m.Status = e.Status
	m.Pushed = e.Pushed
	m.Pulled = e.Pulled
	m.ErrorCount = e.ErrorCount
	m.Detail = e.Detail
	m.StartedAt = e.StartedAt
	m.CompletedAt = e.CompletedAt
}

// SyncLogModelFromDomain creates a new persistence model from a domain SyncLogEntry entity.
func SyncLogModelFromDomain(e *integration.SyncLogEntry) *SyncLogModel {
	m := &SyncLogModel{}
	m.FromDomain(e)
	return m
}
