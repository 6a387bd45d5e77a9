package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/intellipost/backend/internal/domain/content"
	"github.com/intellipost/backend/internal/domain/shared"
	"github.com/intellipost/backend/internal/infrastructure/persistence/models"
)

// GormContentRepository implements content.Repository on PostgreSQL
type GormContentRepository struct {
	db *gorm.DB
}

// NewGormContentRepository creates a GormContentRepository
func NewGormContentRepository(db *gorm.DB) *GormContentRepository {
	return &GormContentRepository{db: db}
}

var _ content.Repository = (*GormContentRepository)(nil)

// Save inserts a content version
func (r *GormContentRepository) Save(ctx context.Context, c *content.GeneratedContent) error {
	model, err := models.GeneratedContentModelFromDomain(c)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(model).Error
}

// Update persists seller edits and approval
func (r *GormContentRepository) Update(ctx context.Context, c *content.GeneratedContent) error {
	model, err := models.GeneratedContentModelFromDomain(c)
	if err != nil {
		return err
	}
	result := r.db.WithContext(ctx).
		Model(&models.GeneratedContentModel{}).
		Where("id = ?", model.ID).
		Select("title", "description", "category_id", "category_name",
			"attributes", "confidence", "edited_by_user", "approved_at", "updated_at").
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByID loads a content version by ID
func (r *GormContentRepository) FindByID(ctx context.Context, id uuid.UUID) (*content.GeneratedContent, error) {
	var model models.GeneratedContentModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain()
}

// FindLatestByProduct loads the highest generation for a product
func (r *GormContentRepository) FindLatestByProduct(ctx context.Context, productID uuid.UUID) (*content.GeneratedContent, error) {
	var model models.GeneratedContentModel
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("generation DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain()
}

// ListByProduct returns all generations for a product, newest first
func (r *GormContentRepository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]*content.GeneratedContent, error) {
	var rows []models.GeneratedContentModel
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("generation DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	result := make([]*content.GeneratedContent, len(rows))
	for i := range rows {
		c, err := rows[i].ToDomain()
		if err != nil {
			return nil, err
		}
		result[i] = c
	}
	return result, nil
}

// NextGeneration returns the next generation number for a product
func (r *GormContentRepository) NextGeneration(ctx context.Context, productID uuid.UUID) (int, error) {
	var max int
	err := r.db.WithContext(ctx).
		Model(&models.GeneratedContentModel{}).
		Where("product_id = ?", productID).
		Select("COALESCE(MAX(generation), 0)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	return max + 1, nil
}
