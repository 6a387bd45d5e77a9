package notification

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/intellipost/backend/internal/domain/marketplace"
	"github.com/intellipost/backend/internal/domain/notification"
	"github.com/intellipost/backend/internal/domain/product"
	"github.com/intellipost/backend/internal/domain/shared"
)

// NotificationService turns domain events into in-app notifications
// and serves the notification endpoints
type NotificationService struct {
	notifications notification.Repository
	logger        *zap.Logger
}

// NewNotificationService creates a NotificationService
func NewNotificationService(notifications notification.Repository, log *zap.Logger) *NotificationService {
	if log == nil {
		log = zap.NewNop()
	}
	return &NotificationService{
		notifications: notifications,
		logger:        log,
	}
}

var _ shared.EventHandler = (*NotificationService)(nil)

// EventTypes lists the events that produce notifications
func (s *NotificationService) EventTypes() []string {
	return []string{
		product.EventProductReady,
		product.EventProductPublished,
		product.EventProductFailed,
		marketplace.EventConnectionBroken,
	}
}

// Handle creates the notification for a domain event
func (s *NotificationService) Handle(ctx context.Context, e shared.DomainEvent) error {
	var n *notification.Notification

	switch event := e.(type) {
	case *product.ProductReadyEvent:
		n = notification.New(e.UserID(), notification.KindProductReady,
			"Your listing is ready for review",
			"The generated content is ready. Review and publish when you are happy with it.").
			WithProduct(e.AggregateID())
	case *product.ProductPublishedEvent:
		n = notification.New(e.UserID(), notification.KindProductPublished,
			"Your listing is live",
			"Your product was published to MercadoLibre as "+event.ListingID+".").
			WithProduct(e.AggregateID())
	case *product.ProductFailedEvent:
		n = notification.New(e.UserID(), notification.KindProductFailed,
			"Processing failed",
			"Something went wrong: "+event.Cause+". You can retry from the product page.").
			WithProduct(e.AggregateID())
	case *marketplace.ConnectionBrokenEvent:
		n = notification.New(e.UserID(), notification.KindConnectionBroken,
			"MercadoLibre connection needs attention",
			"We could not refresh your MercadoLibre access. Please reconnect your account.")
	default:
		return nil
	}

	if err := s.notifications.Save(ctx, n); err != nil {
		return err
	}
	s.logger.Debug("notification created",
		zap.String("user_id", n.UserID.String()),
		zap.String("kind", string(n.Kind)),
	)
	return nil
}

// List returns a page of the user's notifications
func (s *NotificationService) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, page, pageSize int) ([]*notification.Notification, int64, error) {
	return s.notifications.ListByUser(ctx, userID, unreadOnly, page, pageSize)
}

// UnreadCount returns the badge count
func (s *NotificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.notifications.CountUnread(ctx, userID)
}

// MarkRead marks one notification as read
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	n, err := s.notifications.FindByID(ctx, notificationID)
	if err != nil {
		return err
	}
	if n.UserID != userID {
		return shared.ErrForbidden
	}
	n.MarkRead()
	return s.notifications.Update(ctx, n)
}

// MarkAllRead marks every notification for the user as read
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	return s.notifications.MarkAllRead(ctx, userID)
}
