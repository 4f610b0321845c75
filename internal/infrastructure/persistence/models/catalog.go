package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stocklink/backend/internal/domain/catalog"
)

// ProductModel is the persistence model for the Product domain entity.
type ProductModel struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key"`
	SKU       string          `gorm:"type:varchar(100);index"`
	Name      string          `gorm:"type:varchar(255);not null"`
	Quantity  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	CreatedAt time.Time       `gorm:"not null"`
	UpdatedAt time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product entity.
func (m *ProductModel) ToDomain() *catalog.Product {
	return &catalog.Product{
		ID:        m.ID,
		SKU:       m.SKU,
		Name:      m.Name,
		Quantity:  m.Quantity,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain Product entity.
func (m *ProductModel) FromDomain(p *catalog.Product) {
	m.ID = p.ID
	m.SKU = p.SKU
	m.Name = p.Name
	m.Quantity = p.Quantity
	m.CreatedAt = p.CreatedAt
	m.UpdatedAt = p.UpdatedAt
}

// ProductModelFromDomain creates a new persistence model from a domain Product entity.
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{}
	m.FromDomain(p)
	return m
}

// InventoryAdjustmentModel is the persistence model for the InventoryAdjustment domain entity.
type InventoryAdjustmentModel struct {
	ID             uuid.UUID       `gorm:"type:uuid;primary_key"`
	ProductID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	QuantityChange decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Before         decimal.Decimal `gorm:"type:decimal(18,4);not null;column:quantity_before"`
	After          decimal.Decimal `gorm:"type:decimal(18,4);not null;column:quantity_after"`
	Reason         string          `gorm:"type:varchar(100);not null"`
	CreatedAt      time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (InventoryAdjustmentModel) TableName() string {
	return "inventory_adjustments"
}

// ToDomain converts the persistence model to a domain InventoryAdjustment entity.
func (m *InventoryAdjustmentModel) ToDomain() *catalog.InventoryAdjustment {
	return &catalog.InventoryAdjustment{
		ID:             m.ID,
		ProductID:      m.ProductID,
		QuantityChange: m.QuantityChange,
		Before:         m.Before,
		After:          m.After,
		Reason:         m.Reason,
		CreatedAt:      m.CreatedAt,
	}
}

// FromDomain populates the persistence model from a domain InventoryAdjustment entity.
func (m *InventoryAdjustmentModel) FromDomain(a *catalog.InventoryAdjustment) {
	m.ID = a.ID
	m.ProductID = a.ProductID
	m.QuantityChange = a.QuantityChange
	m.Before = a.Before
	m.After = a.After
	m.Reason = a.Reason
	m.CreatedAt = a.CreatedAt
}

// InventoryAdjustmentModelFromDomain creates a new persistence model from a domain InventoryAdjustment entity.
func InventoryAdjustmentModelFromDomain(a *catalog.InventoryAdjustment) *InventoryAdjustmentModel {
	m := &InventoryAdjustmentModel{}
	m.FromDomain(a)
	return m
}
