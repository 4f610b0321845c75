package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/stocklink/backend/internal/domain/catalog"
	"github.com/stocklink/backend/internal/infrastructure/persistence/models"
)

// GormProductRepository implements catalog.ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByID finds a product by its ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	var model models.ProductModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, catalog.ErrProductNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindUnmappedWithSKU returns products carrying a non-empty SKU that have no
// mapping for the given connection
func (r *GormProductRepository) FindUnmappedWithSKU(ctx context.Context, connectionID uuid.UUID) ([]catalog.Product, error) {
	var productModels []models.ProductModel
	subquery := r.db.
		Model(&models.ProductMappingModel{}).
		Select("local_product_id").
		Where("connection_id = ?", connectionID)

	if err := r.db.WithContext(ctx).
		Where("sku <> ''").
		Where("id NOT IN (?)", subquery).
		Order("created_at ASC").
		Find(&productModels).Error; err != nil {
		return nil, err
	}

	products := make([]catalog.Product, len(productModels))
	for i, model := range productModels {
		products[i] = *model.ToDomain()
	}
	return products, nil
}

// CountMappedWithSKU counts products carrying a non-empty SKU that are
// already mapped for the given connection
func (r *GormProductRepository) CountMappedWithSKU(ctx context.Context, connectionID uuid.UUID) (int64, error) {
	subquery := r.db.
		Model(&models.ProductMappingModel{}).
		Select("local_product_id").
		Where("connection_id = ?", connectionID)

	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.ProductModel{}).
		Where("sku <> ''").
		Where("id IN (?)", subquery).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// UpdateQuantity sets a product's on-hand stock
func (r *GormProductRepository) UpdateQuantity(ctx context.Context, id uuid.UUID, quantity decimal.Decimal) error {
	result := r.db.WithContext(ctx).
		Model(&models.ProductModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"quantity":   quantity,
			"updated_at": gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return catalog.ErrProductNotFound
	}
	return nil
}

// RecordAdjustment appends an inventory adjustment to the local ledger
func (r *GormProductRepository) RecordAdjustment(ctx context.Context, adj *catalog.InventoryAdjustment) error {
	model := models.InventoryAdjustmentModelFromDomain(adj)
	return r.db.WithContext(ctx).Create(model).Error
}

// Ensure GormProductRepository implements catalog.ProductRepository
var _ catalog.ProductRepository = (*GormProductRepository)(nil)
