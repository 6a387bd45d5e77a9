package models

import (
	"time"

	"github.com/google/uuid"
)

// BaseModel carries the columns shared by every table
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// VersionedModel adds optimistic locking to BaseModel
type VersionedModel struct {
	BaseModel
	Version int `gorm:"not null;default:1"`
}
