package audit

import (
	"context"

	"gorm.io/gorm"
)

// Repository reads the audit trail. There are deliberately no update or
// delete methods.
type Repository interface {
	List(ctx context.Context, limit, offset int) ([]*Log, error)
	ListByEntity(ctx context.Context, entityType, entityID string) ([]*Log, error)
}

type gormRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) List(ctx context.Context, limit, offset int) ([]*Log, error) {
	var entries []*Log
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&entries).Error
	return entries, err
}

func (r *gormRepository) ListByEntity(ctx context.Context, entityType, entityID string) ([]*Log, error) {
	var entries []*Log
	err := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at ASC").
		Find(&entries).Error
	return entries, err
}
