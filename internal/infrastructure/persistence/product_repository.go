package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/intellipost/backend/internal/domain/product"
	"github.com/intellipost/backend/internal/domain/shared"
	"github.com/intellipost/backend/internal/infrastructure/persistence/models"
)

// GormProductRepository implements product.Repository on PostgreSQL
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

var _ product.Repository = (*GormProductRepository)(nil)

// Save inserts a new product with its images
func (r *GormProductRepository) Save(ctx context.Context, p *product.Product) error {
	model := models.ProductModelFromDomain(p)
	return r.db.WithContext(ctx).Create(model).Error
}

// Update persists the aggregate with optimistic locking. Images are
// upserted in the same transaction so new uploads and processed
// variants land atomically with the status change.
func (r *GormProductRepository) Update(ctx context.Context, p *product.Product) error {
	model := models.ProductModelFromDomain(p)
	currentVersion := model.Version
	model.Version++

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.ProductModel{}).
			Where("id = ? AND version = ?", model.ID, currentVersion).
			Select("prompt", "price_cents", "currency", "status", "failure_cause",
				"listing_id", "published_at", "version", "updated_at").
			Updates(model)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}

		for i := range model.Images {
			img := model.Images[i]
			img.ProductID = model.ID
			if err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"processed_key", "thumbnail_key", "width", "height",
					"is_primary", "position", "updated_at",
				}),
			}).Create(&img).Error; err != nil {
				return err
			}
		}

		p.Version = model.Version
		return nil
	})
}

// Delete removes a product; images cascade at the database level
func (r *GormProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.ProductModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByID loads a product with its images
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*product.Product, error) {
	var model models.ProductModel
	err := r.db.WithContext(ctx).
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&model, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ListByUser returns a page of the user's products, newest first
func (r *GormProductRepository) ListByUser(ctx context.Context, userID uuid.UUID, filter product.ListFilter) ([]*product.Product, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.ProductModel{}).
		Where("user_id = ?", userID)
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	var rows []models.ProductModel
	err := query.
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	result := make([]*product.Product, len(rows))
	for i := range rows {
		result[i] = rows[i].ToDomain()
	}
	return result, total, nil
}

// CountByStatus returns per-status product counts for the dashboard
func (r *GormProductRepository) CountByStatus(ctx context.Context, userID uuid.UUID) (map[product.Status]int64, error) {
	type row struct {
		Status string
		Count  int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.ProductModel{}).
		Select("status, count(*) as count").
		Where("user_id = ?", userID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[product.Status]int64, len(rows))
	for _, r := range rows {
		counts[product.Status(r.Status)] = r.Count
	}
	return counts, nil
}
