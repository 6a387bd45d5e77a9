package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/intellipost/backend/internal/domain/notification"
	"github.com/intellipost/backend/internal/domain/shared"
)

// NotificationModel is the notifications table
type NotificationModel struct {
	BaseModel
	UserID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Kind      string    `gorm:"size:30;not null"`
	Title     string    `gorm:"size:255;not null"`
	Body      string    `gorm:"type:text"`
	ProductID *uuid.UUID `gorm:"type:uuid"`
	ReadAt    *time.Time `gorm:"index"`
}

// TableName sets the table name
func (NotificationModel) TableName() string {
	return "notifications"
}

// ToDomain converts the persistence model to the domain entity
func (m *NotificationModel) ToDomain() *notification.Notification {
	return &notification.Notification{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		UserID:    m.UserID,
		Kind:      notification.Kind(m.Kind),
		Title:     m.Title,
		Body:      m.Body,
		ProductID: m.ProductID,
		ReadAt:    m.ReadAt,
	}
}

// NotificationModelFromDomain converts the domain entity to the persistence model
func NotificationModelFromDomain(n *notification.Notification) *NotificationModel {
	return &NotificationModel{
		BaseModel: BaseModel{
			ID:        n.ID,
			CreatedAt: n.CreatedAt,
			UpdatedAt: n.UpdatedAt,
		},
		UserID:    n.UserID,
		Kind:      string(n.Kind),
		Title:     n.Title,
		Body:      n.Body,
		ProductID: n.ProductID,
		ReadAt:    n.ReadAt,
	}
}
