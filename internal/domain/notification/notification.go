package notification

import (
	"time"

	"github.com/google/uuid"

	"github.com/intellipost/backend/internal/domain/shared"
)

// Kind classifies a notification for the frontend
type Kind string

const (
	KindProductReady     Kind = "product_ready"
	KindProductPublished Kind = "product_published"
	KindProductFailed    Kind = "product_failed"
	KindConnectionBroken Kind = "connection_broken"
)

// Notification is an in-app message for a seller
type Notification struct {
	shared.BaseEntity
	UserID    uuid.UUID
	Kind      Kind
	Title     string
	Body      string
	ProductID *uuid.UUID
	ReadAt    *time.Time
}

// New creates an unread notification
func New(userID uuid.UUID, kind Kind, title, body string) *Notification {
	return &Notification{
		BaseEntity: shared.NewBaseEntity(),
		UserID:     userID,
		Kind:       kind,
		Title:      title,
		Body:       body,
	}
}

// WithProduct links the notification to a product
func (n *Notification) WithProduct(productID uuid.UUID) *Notification {
	n.ProductID = &productID
	return n
}

// MarkRead stamps the notification as read
func (n *Notification) MarkRead() {
	if n.ReadAt == nil {
		now := time.Now()
		n.ReadAt = &now
		n.UpdatedAt = now
	}
}

// IsRead reports whether the notification has been read
func (n *Notification) IsRead() bool {
	return n.ReadAt != nil
}
