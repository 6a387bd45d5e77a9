package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/intellipost/backend/internal/domain/marketplace"
	"github.com/intellipost/backend/internal/domain/shared"
	"github.com/intellipost/backend/internal/infrastructure/persistence/models"
)

// GormMarketplaceRepository implements marketplace.Repository on PostgreSQL
type GormMarketplaceRepository struct {
	db *gorm.DB
}

// NewGormMarketplaceRepository creates a GormMarketplaceRepository
func NewGormMarketplaceRepository(db *gorm.DB) *GormMarketplaceRepository {
	return &GormMarketplaceRepository{db: db}
}

var _ marketplace.Repository = (*GormMarketplaceRepository)(nil)

// Save inserts a new connection
func (r *GormMarketplaceRepository) Save(ctx context.Context, c *marketplace.Credentials) error {
	model := models.MLCredentialsModelFromDomain(c)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if isDuplicateKey(err) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// Update persists token changes with optimistic locking
func (r *GormMarketplaceRepository) Update(ctx context.Context, c *marketplace.Credentials) error {
	model := models.MLCredentialsModelFromDomain(c)
	currentVersion := model.Version
	model.Version++

	result := r.db.WithContext(ctx).
		Model(&models.MLCredentialsModel{}).
		Where("id = ? AND version = ?", model.ID, currentVersion).
		Select("access_token", "refresh_token", "token_type", "scope",
			"expires_at", "last_refresh_at", "refresh_fails", "version", "updated_at").
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	c.Version = model.Version
	return nil
}

// Delete removes a connection
func (r *GormMarketplaceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.MLCredentialsModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByUser loads the connection for a user
func (r *GormMarketplaceRepository) FindByUser(ctx context.Context, userID uuid.UUID) (*marketplace.Credentials, error) {
	var model models.MLCredentialsModel
	err := r.db.WithContext(ctx).First(&model, "user_id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ListExpiring returns connections whose tokens expire within the
// refresh window, oldest first, for the background refresher
func (r *GormMarketplaceRepository) ListExpiring(ctx context.Context, limit int) ([]*marketplace.Credentials, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []models.MLCredentialsModel
	err := r.db.WithContext(ctx).
		Where("expires_at < ? AND refresh_fails < 3", time.Now().Add(time.Hour)).
		Order("expires_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	result := make([]*marketplace.Credentials, len(rows))
	for i := range rows {
		result[i] = rows[i].ToDomain()
	}
	return result, nil
}
