package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stocklink/backend/internal/domain/integration"
	"github.com/stocklink/backend/internal/infrastructure/persistence/models"
)

// defaultSyncLogLimit caps history reads when the caller passes no limit
const defaultSyncLogLimit = 50

// GormSyncLogRepository implements SyncLogRepository using GORM
type GormSyncLogRepository struct {
	db *gorm.DB
}

// NewGormSyncLogRepository creates a new GormSyncLogRepository
func NewGormSyncLogRepository(db *gorm.DB) *GormSyncLogRepository {
	return &GormSyncLogRepository{db: db}
}

// Save creates or updates a log entry
func (r *GormSyncLogRepository) Save(ctx context.Context, entry *integration.SyncLogEntry) error {
	model := models.SyncLogModelFromDomain(entry)
	return r.db.WithContext(ctx).Save(model).Error
}

// FindByConnection returns entries for a connection, newest first
func (r *GormSyncLogRepository) FindByConnection(ctx context.Context, connectionID uuid.UUID, limit int) ([]integration.SyncLogEntry, error) {
	if limit <= 0 {
		limit = defaultSyncLogLimit
	}

	var logModels []models.SyncLogModel
	if err := r.db.WithContext(ctx).
		Where("connection_id = ?", connectionID).
		Order("started_at DESC").
		Limit(limit).
		Find(&logModels).Error; err != nil {
		return nil, err
	}

	entries := make([]integration.SyncLogEntry, len(logModels))
	for i, model := range logModels {
		entries[i] = *model.ToDomain()
	}
	return entries, nil
}

// DeleteByConnection removes all entries of a connection
func (r *GormSyncLogRepository) DeleteByConnection(ctx context.Context, connectionID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Delete(&models.SyncLogModel{}, "connection_id = ?", connectionID).Error
}

// Ensure GormSyncLogRepository implements SyncLogRepository
var _ integration.SyncLogRepository = (*GormSyncLogRepository)(nil)
