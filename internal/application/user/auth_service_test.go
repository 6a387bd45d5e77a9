package user

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/intellipost/backend/internal/domain/shared"
	"github.com/intellipost/backend/internal/domain/user"
	"github.com/intellipost/backend/internal/infrastructure/auth"
)

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Save(ctx context.Context, u *user.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *mockUserRepository) Update(ctx context.Context, u *user.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *mockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *mockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, ...shared.DomainEvent) error { return nil }

func newTestAuthService(repo *mockUserRepository) *AuthService {
	jwtService := auth.NewJWTService("test-secret", "test", 15*time.Minute, 7*24*time.Hour)
	return NewAuthService(repo, jwtService, auth.NewInMemoryTokenBlacklist(), noopPublisher{})
}

func existingUser(t *testing.T, password string) *user.User {
	t.Helper()
	u, err := user.NewUser("seller@example.com", password, "Ana", "García")
	require.NoError(t, err)
	u.ClearDomainEvents()
	return u
}

func TestRegister(t *testing.T) {
	repo := new(mockUserRepository)
	repo.On("ExistsByEmail", mock.Anything, "new@example.com").Return(false, nil)
	repo.On("Save", mock.Anything, mock.AnythingOfType("*user.User")).Return(nil)

	svc := newTestAuthService(repo)
	result, err := svc.Register(context.Background(), "new@example.com", "secret123", "Ana", "García")
	require.NoError(t, err)

	assert.Equal(t, "new@example.com", result.User.Email)
	assert.NotEmpty(t, result.AccessToken)
	assert.NotEmpty(t, result.RefreshToken)
	repo.AssertExpectations(t)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := new(mockUserRepository)
	repo.On("ExistsByEmail", mock.Anything, "taken@example.com").Return(true, nil)

	svc := newTestAuthService(repo)
	_, err := svc.Register(context.Background(), "taken@example.com", "secret123", "A", "B")
	require.Error(t, err)

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "EMAIL_TAKEN", domainErr.Code)
	repo.AssertNotCalled(t, "Save")
}

func TestLogin(t *testing.T) {
	u := existingUser(t, "secret123")
	repo := new(mockUserRepository)
	repo.On("FindByEmail", mock.Anything, "seller@example.com").Return(u, nil)
	repo.On("Update", mock.Anything, u).Return(nil)

	svc := newTestAuthService(repo)
	result, err := svc.Login(context.Background(), "seller@example.com", "secret123")
	require.NoError(t, err)

	assert.NotEmpty(t, result.AccessToken)
	assert.NotNil(t, u.LastLoginAt)
	repo.AssertExpectations(t)
}

func TestLoginWrongPassword(t *testing.T) {
	u := existingUser(t, "secret123")
	repo := new(mockUserRepository)
	repo.On("FindByEmail", mock.Anything, "seller@example.com").Return(u, nil)
	repo.On("Update", mock.Anything, u).Return(nil)

	svc := newTestAuthService(repo)
	_, err := svc.Login(context.Background(), "seller@example.com", "wrongpass1")
	require.Error(t, err)

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_CREDENTIALS", domainErr.Code)
	assert.Equal(t, 1, u.FailedLogins)
}

func TestLoginUnknownEmailSameError(t *testing.T) {
	repo := new(mockUserRepository)
	repo.On("FindByEmail", mock.Anything, "ghost@example.com").Return(nil, shared.ErrNotFound)

	svc := newTestAuthService(repo)
	_, err := svc.Login(context.Background(), "ghost@example.com", "whatever1")
	require.Error(t, err)

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	// same code as wrong password so the endpoint does not leak which emails exist
	assert.Equal(t, "INVALID_CREDENTIALS", domainErr.Code)
}

func TestLoginLockedAccount(t *testing.T) {
	u := existingUser(t, "secret123")
	until := time.Now().Add(time.Hour)
	u.Status = user.StatusLocked
	u.LockedUntil = &until

	repo := new(mockUserRepository)
	repo.On("FindByEmail", mock.Anything, "seller@example.com").Return(u, nil)

	svc := newTestAuthService(repo)
	_, err := svc.Login(context.Background(), "seller@example.com", "secret123")
	require.Error(t, err)

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "ACCOUNT_LOCKED", domainErr.Code)
}

func TestRefreshRotatesAndRevokesOldToken(t *testing.T) {
	u := existingUser(t, "secret123")
	repo := new(mockUserRepository)
	repo.On("FindByID", mock.Anything, u.ID).Return(u, nil)

	svc := newTestAuthService(repo)
	pair, err := svc.jwtService.GenerateTokenPair(u.ID, u.Email)
	require.NoError(t, err)

	result, err := svc.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, result.RefreshToken)

	// replaying the consumed refresh token must fail
	_, err = svc.Refresh(context.Background(), pair.RefreshToken)
	require.Error(t, err)
}

func TestLogoutRevokesAccessToken(t *testing.T) {
	u := existingUser(t, "secret123")
	repo := new(mockUserRepository)

	svc := newTestAuthService(repo)
	pair, err := svc.jwtService.GenerateTokenPair(u.ID, u.Email)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), pair.AccessToken, pair.RefreshToken))

	claims, err := svc.jwtService.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	revoked, err := svc.blacklist.IsRevoked(context.Background(), claims.ID)
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestChangePassword(t *testing.T) {
	u := existingUser(t, "secret123")
	repo := new(mockUserRepository)
	repo.On("FindByID", mock.Anything, u.ID).Return(u, nil)
	repo.On("Update", mock.Anything, u).Return(nil)

	svc := newTestAuthService(repo)
	require.NoError(t, svc.ChangePassword(context.Background(), u.ID, "secret123", "newsecret1"))
	assert.True(t, u.VerifyPassword("newsecret1"))

	err := svc.ChangePassword(context.Background(), u.ID, "wrongpass1", "another1x")
	require.Error(t, err)
}

func TestChangePasswordInvalidatesExistingSessions(t *testing.T) {
	u := existingUser(t, "secret123")
	repo := new(mockUserRepository)
	repo.On("FindByID", mock.Anything, u.ID).Return(u, nil)
	repo.On("Update", mock.Anything, u).Return(nil)

	svc := newTestAuthService(repo)
	pair, err := svc.jwtService.GenerateTokenPair(u.ID, u.Email)
	require.NoError(t, err)

	require.NoError(t, svc.ChangePassword(context.Background(), u.ID, "secret123", "newsecret1"))

	// the refresh token issued before the change can no longer be used
	_, err = svc.Refresh(context.Background(), pair.RefreshToken)
	require.Error(t, err)
}
