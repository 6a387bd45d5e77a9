package dto

import (
	"time"

	"github.com/intellipost/backend/internal/domain/notification"
)

// NotificationResponse is one in-app notification
type NotificationResponse struct {
	ID        string     `json:"id"`
	Kind      string     `json:"kind"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	ProductID *string    `json:"product_id,omitempty"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// UnreadCountResponse is the badge count
type UnreadCountResponse struct {
	Unread int64 `json:"unread"`
}

// NewNotificationResponse converts a domain notification
func NewNotificationResponse(n *notification.Notification) NotificationResponse {
	resp := NotificationResponse{
		ID:        n.ID.String(),
		Kind:      string(n.Kind),
		Title:     n.Title,
		Body:      n.Body,
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
	}
	if n.ProductID != nil {
		id := n.ProductID.String()
		resp.ProductID = &id
	}
	return resp
}
