package handler

import (
	"github.com/gin-gonic/gin"

	notifapp "github.com/intellipost/backend/internal/application/notification"
	"github.com/intellipost/backend/internal/interfaces/http/dto"
)

// NotificationHandler serves in-app notifications
type NotificationHandler struct {
	BaseHandler
	notifications *notifapp.NotificationService
}

// NewNotificationHandler creates a NotificationHandler
func NewNotificationHandler(notifications *notifapp.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// RegisterRoutes registers notification routes behind authentication
func (h *NotificationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	n := rg.Group("/notifications")
	n.GET("", h.List)
	n.GET("/unread-count", h.UnreadCount)
	n.POST("/read-all", h.MarkAllRead)
	n.POST("/:id/read", h.MarkRead)
}

// List returns a page of the user's notifications
func (h *NotificationHandler) List(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	unreadOnly := c.Query("unread_only") == "true"
	page := queryInt(c, "page", 1)
	pageSize := queryInt(c, "page_size", defaultPageSize)
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	items, total, err := h.notifications.List(c.Request.Context(), userID, unreadOnly, page, pageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]dto.NotificationResponse, len(items))
	for i, n := range items {
		responses[i] = dto.NewNotificationResponse(n)
	}
	h.Paginated(c, responses, page, pageSize, total)
}

// UnreadCount returns the badge count
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	count, err := h.notifications.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.UnreadCountResponse{Unread: count})
}

// MarkRead marks one notification as read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	notificationID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.notifications.MarkRead(c.Request.Context(), userID, notificationID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// MarkAllRead marks every notification as read
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	if err := h.notifications.MarkAllRead(c.Request.Context(), userID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
