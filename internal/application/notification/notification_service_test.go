package notification

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/intellipost/backend/internal/domain/marketplace"
	"github.com/intellipost/backend/internal/domain/notification"
	"github.com/intellipost/backend/internal/domain/product"
	"github.com/intellipost/backend/internal/domain/shared"
)

type mockNotificationRepo struct{ mock.Mock }

func (m *mockNotificationRepo) Save(ctx context.Context, n *notification.Notification) error {
	return m.Called(ctx, n).Error(0)
}
func (m *mockNotificationRepo) Update(ctx context.Context, n *notification.Notification) error {
	return m.Called(ctx, n).Error(0)
}
func (m *mockNotificationRepo) FindByID(ctx context.Context, id uuid.UUID) (*notification.Notification, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notification.Notification), args.Error(1)
}
func (m *mockNotificationRepo) ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, page, pageSize int) ([]*notification.Notification, int64, error) {
	args := m.Called(ctx, userID, unreadOnly, page, pageSize)
	return nil, 0, args.Error(2)
}
func (m *mockNotificationRepo) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}
func (m *mockNotificationRepo) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func TestHandleProductReady(t *testing.T) {
	repo := new(mockNotificationRepo)
	svc := NewNotificationService(repo, nil)

	productID := uuid.New()
	userID := uuid.New()
	var saved *notification.Notification
	repo.On("Save", mock.Anything, mock.AnythingOfType("*notification.Notification")).
		Run(func(args mock.Arguments) {
			saved = args.Get(1).(*notification.Notification)
		}).Return(nil)

	event := product.NewProductReadyEvent(productID, userID)
	require.NoError(t, svc.Handle(context.Background(), event))

	require.NotNil(t, saved)
	assert.Equal(t, notification.KindProductReady, saved.Kind)
	assert.Equal(t, userID, saved.UserID)
	require.NotNil(t, saved.ProductID)
	assert.Equal(t, productID, *saved.ProductID)
	assert.False(t, saved.IsRead())
}

func TestHandleProductFailedIncludesCause(t *testing.T) {
	repo := new(mockNotificationRepo)
	svc := NewNotificationService(repo, nil)

	var saved *notification.Notification
	repo.On("Save", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			saved = args.Get(1).(*notification.Notification)
		}).Return(nil)

	event := product.NewProductFailedEvent(uuid.New(), uuid.New(), "gemini timeout")
	require.NoError(t, svc.Handle(context.Background(), event))
	assert.Contains(t, saved.Body, "gemini timeout")
}

func TestHandleConnectionBroken(t *testing.T) {
	repo := new(mockNotificationRepo)
	svc := NewNotificationService(repo, nil)

	var saved *notification.Notification
	repo.On("Save", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			saved = args.Get(1).(*notification.Notification)
		}).Return(nil)

	event := marketplace.NewConnectionBrokenEvent(uuid.New(), uuid.New(), "MLA")
	require.NoError(t, svc.Handle(context.Background(), event))
	assert.Equal(t, notification.KindConnectionBroken, saved.Kind)
	assert.Nil(t, saved.ProductID)
}

func TestHandleIgnoresOtherEvents(t *testing.T) {
	repo := new(mockNotificationRepo)
	svc := NewNotificationService(repo, nil)

	event := product.NewProductCreatedEvent(uuid.New(), uuid.New())
	require.NoError(t, svc.Handle(context.Background(), event))
	repo.AssertNotCalled(t, "Save")
}

func TestMarkReadEnforcesOwnership(t *testing.T) {
	repo := new(mockNotificationRepo)
	svc := NewNotificationService(repo, nil)

	owner := uuid.New()
	n := notification.New(owner, notification.KindProductReady, "t", "b")
	repo.On("FindByID", mock.Anything, n.ID).Return(n, nil)
	repo.On("Update", mock.Anything, n).Return(nil)

	err := svc.MarkRead(context.Background(), uuid.New(), n.ID)
	assert.ErrorIs(t, err, shared.ErrForbidden)

	require.NoError(t, svc.MarkRead(context.Background(), owner, n.ID))
	assert.True(t, n.IsRead())
}
