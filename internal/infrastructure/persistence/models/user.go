package models

import (
	"time"

	"github.com/intellipost/backend/internal/domain/shared"
	"github.com/intellipost/backend/internal/domain/user"
)

// UserModel is the users table
type UserModel struct {
	VersionedModel
	Email         string `gorm:"uniqueIndex;size:254;not null"`
	PasswordHash  string `gorm:"size:100;not null"`
	FirstName     string `gorm:"size:100"`
	LastName      string `gorm:"size:100"`
	Status        string `gorm:"size:20;not null;default:'active'"`
	FailedLogins  int    `gorm:"not null;default:0"`
	LockedUntil   *time.Time
	LastLoginAt   *time.Time
	AIConfidence  string `gorm:"size:10;not null;default:'medium'"`
	AutoPublish   bool   `gorm:"not null;default:false"`
	DefaultPrompt string `gorm:"type:text"`
}

// TableName sets the table name
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the persistence model to the domain aggregate
func (m *UserModel) ToDomain() *user.User {
	return &user.User{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.BaseEntity{
				ID:        m.ID,
				CreatedAt: m.CreatedAt,
				UpdatedAt: m.UpdatedAt,
			},
			Version: m.Version,
		},
		Email:         m.Email,
		PasswordHash:  m.PasswordHash,
		FirstName:     m.FirstName,
		LastName:      m.LastName,
		Status:        user.Status(m.Status),
		FailedLogins:  m.FailedLogins,
		LockedUntil:   m.LockedUntil,
		LastLoginAt:   m.LastLoginAt,
		AIConfidence:  m.AIConfidence,
		AutoPublish:   m.AutoPublish,
		DefaultPrompt: m.DefaultPrompt,
	}
}

// UserModelFromDomain converts the domain aggregate to the persistence model
func UserModelFromDomain(u *user.User) *UserModel {
	return &UserModel{
		VersionedModel: VersionedModel{
			BaseModel: BaseModel{
				ID:        u.ID,
				CreatedAt: u.CreatedAt,
				UpdatedAt: u.UpdatedAt,
			},
			Version: u.Version,
		},
		Email:         u.Email,
		PasswordHash:  u.PasswordHash,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Status:        string(u.Status),
		FailedLogins:  u.FailedLogins,
		LockedUntil:   u.LockedUntil,
		LastLoginAt:   u.LastLoginAt,
		AIConfidence:  u.AIConfidence,
		AutoPublish:   u.AutoPublish,
		DefaultPrompt: u.DefaultPrompt,
	}
}
