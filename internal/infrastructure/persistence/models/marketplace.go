package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/intellipost/backend/internal/domain/marketplace"
	"github.com/intellipost/backend/internal/domain/shared"
)

// MLCredentialsModel is the ml_credentials table
type MLCredentialsModel struct {
	VersionedModel
	UserID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	Site          string    `gorm:"size:3;not null"`
	MLUserID      int64     `gorm:"not null"`
	Nickname      string    `gorm:"size:60"`
	AccessToken   string    `gorm:"type:text;not null"`
	RefreshToken  string    `gorm:"type:text;not null"`
	TokenType     string    `gorm:"size:20"`
	Scope         string    `gorm:"size:255"`
	ExpiresAt     time.Time `gorm:"not null;index"`
	LastRefreshAt *time.Time
	RefreshFails  int `gorm:"not null;default:0"`
}

// TableName sets the table name
func (MLCredentialsModel) TableName() string {
	return "ml_credentials"
}

// ToDomain converts the persistence model to the domain aggregate
func (m *MLCredentialsModel) ToDomain() *marketplace.Credentials {
	return &marketplace.Credentials{
		OwnedAggregateRoot: shared.OwnedAggregateRoot{
			BaseAggregateRoot: shared.BaseAggregateRoot{
				BaseEntity: shared.BaseEntity{
					ID:        m.ID,
					CreatedAt: m.CreatedAt,
					UpdatedAt: m.UpdatedAt,
				},
				Version: m.Version,
			},
			UserID: m.UserID,
		},
		Site:          marketplace.Site(m.Site),
		MLUserID:      m.MLUserID,
		Nickname:      m.Nickname,
		AccessToken:   m.AccessToken,
		RefreshToken:  m.RefreshToken,
		TokenType:     m.TokenType,
		Scope:         m.Scope,
		ExpiresAt:     m.ExpiresAt,
		LastRefreshAt: m.LastRefreshAt,
		RefreshFails:  m.RefreshFails,
	}
}

// MLCredentialsModelFromDomain converts the domain aggregate to the persistence model
func MLCredentialsModelFromDomain(c *marketplace.Credentials) *MLCredentialsModel {
	return &MLCredentialsModel{
		VersionedModel: VersionedModel{
			BaseModel: BaseModel{
				ID:        c.ID,
				CreatedAt: c.CreatedAt,
				UpdatedAt: c.UpdatedAt,
			},
			Version: c.Version,
		},
		UserID:        c.UserID,
		Site:          string(c.Site),
		MLUserID:      c.MLUserID,
		Nickname:      c.Nickname,
		AccessToken:   c.AccessToken,
		RefreshToken:  c.RefreshToken,
		TokenType:     c.TokenType,
		Scope:         c.Scope,
		ExpiresAt:     c.ExpiresAt,
		LastRefreshAt: c.LastRefreshAt,
		RefreshFails:  c.RefreshFails,
	}
}
