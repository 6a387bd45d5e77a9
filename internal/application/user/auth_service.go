package user

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/intellipost/backend/internal/domain/shared"
	"github.com/intellipost/backend/internal/domain/user"
	"github.com/intellipost/backend/internal/infrastructure/auth"
	"github.com/intellipost/backend/internal/infrastructure/logger"
)

// AuthService handles registration, login and token lifecycle
type AuthService struct {
	users      user.Repository
	jwtService *auth.JWTService
	blacklist  auth.TokenBlacklist
	events     shared.EventPublisher
}

// NewAuthService creates an AuthService
func NewAuthService(users user.Repository, jwtService *auth.JWTService, blacklist auth.TokenBlacklist, events shared.EventPublisher) *AuthService {
	return &AuthService{
		users:      users,
		jwtService: jwtService,
		blacklist:  blacklist,
		events:     events,
	}
}

// AuthResult carries the user and tokens returned by login and register
type AuthResult struct {
	User             *user.User
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// Register creates a new account and logs it in
func (s *AuthService) Register(ctx context.Context, email, password, firstName, lastName string) (*AuthResult, error) {
	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("EMAIL_TAKEN", "An account with this email already exists")
	}

	u, err := user.NewUser(email, password, firstName, lastName)
	if err != nil {
		return nil, err
	}
	if err := s.users.Save(ctx, u); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, u)
	logger.L(ctx).Info("user registered", zap.String("user_id", u.ID.String()))

	return s.issueTokens(u)
}

// Login authenticates by email and password
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if err == shared.ErrNotFound {
			return nil, shared.NewDomainError("INVALID_CREDENTIALS", "Invalid email or password")
		}
		return nil, err
	}

	if u.IsLocked() {
		logger.L(ctx).Warn("login attempt on locked account", zap.String("user_id", u.ID.String()))
		return nil, shared.NewDomainError("ACCOUNT_LOCKED", "Account is temporarily locked, try again later")
	}
	if !u.IsActive() {
		return nil, shared.NewDomainError("ACCOUNT_INACTIVE", "Account is not active")
	}

	if !u.VerifyPassword(password) {
		u.RecordLoginFailure()
		if err := s.users.Update(ctx, u); err != nil {
			logger.L(ctx).Error("record login failure", zap.Error(err))
		}
		s.publishEvents(ctx, u)
		return nil, shared.NewDomainError("INVALID_CREDENTIALS", "Invalid email or password")
	}

	u.RecordLoginSuccess()
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}

	logger.L(ctx).Info("user logged in", zap.String("user_id", u.ID.String()))
	return s.issueTokens(u)
}

// Refresh rotates a refresh token into a new token pair. The used
// refresh token is revoked so it cannot be replayed.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_TOKEN", "Refresh token is invalid or expired")
	}

	revoked, err := s.blacklist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, shared.NewDomainError("INVALID_TOKEN", "Refresh token has been revoked")
	}
	if claims.IssuedAt != nil {
		invalidated, err := s.blacklist.IsRevokedForUser(ctx, claims.UserID.String(), claims.IssuedAt.Time)
		if err != nil {
			return nil, err
		}
		if invalidated {
			return nil, shared.NewDomainError("INVALID_TOKEN", "Refresh token has been revoked")
		}
	}

	u, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_TOKEN", "Account no longer exists")
	}
	if !u.IsActive() {
		return nil, shared.NewDomainError("ACCOUNT_INACTIVE", "Account is not active")
	}

	pair, err := s.jwtService.RefreshTokenPair(refreshToken)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_TOKEN", "Refresh token can no longer be extended")
	}

	if err := s.blacklist.Revoke(ctx, claims.ID, time.Until(claims.ExpiresAt.Time)); err != nil {
		logger.L(ctx).Warn("revoke used refresh token", zap.Error(err))
	}

	return &AuthResult{
		User:             u,
		AccessToken:      pair.AccessToken,
		RefreshToken:     pair.RefreshToken,
		AccessExpiresAt:  pair.AccessExpiresAt,
		RefreshExpiresAt: pair.RefreshExpiresAt,
	}, nil
}

// Logout revokes both tokens of the session
func (s *AuthService) Logout(ctx context.Context, accessToken, refreshToken string) error {
	if claims, err := s.jwtService.ValidateAccessToken(accessToken); err == nil {
		if err := s.blacklist.Revoke(ctx, claims.ID, time.Until(claims.ExpiresAt.Time)); err != nil {
			return err
		}
	}
	if refreshToken != "" {
		if claims, err := s.jwtService.ValidateRefreshToken(refreshToken); err == nil {
			if err := s.blacklist.Revoke(ctx, claims.ID, time.Until(claims.ExpiresAt.Time)); err != nil {
				return err
			}
		}
	}
	return nil
}

// GetCurrentUser loads the authenticated user's profile
func (s *AuthService) GetCurrentUser(ctx context.Context, userID uuid.UUID) (*user.User, error) {
	return s.users.FindByID(ctx, userID)
}

// ChangePassword verifies the current password and sets a new one
func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, current, newPassword string) error {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := u.ChangePassword(current, newPassword); err != nil {
		return err
	}
	if err := s.users.Update(ctx, u); err != nil {
		return err
	}
	// invalidate every outstanding session, including the refresh tokens
	if err := s.blacklist.RevokeAllForUser(ctx, userID.String(), s.jwtService.RefreshTTL()); err != nil {
		logger.L(ctx).Warn("revoke user sessions", zap.Error(err))
	}
	s.publishEvents(ctx, u)
	logger.L(ctx).Info("password changed", zap.String("user_id", userID.String()))
	return nil
}

// UpdateProfile updates display name fields
func (s *AuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, firstName, lastName string) (*user.User, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	u.UpdateProfile(firstName, lastName)
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// UpdateAISettings updates the seller's content generation preferences
func (s *AuthService) UpdateAISettings(ctx context.Context, userID uuid.UUID, confidence string, autoPublish bool, defaultPrompt string) (*user.User, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := u.UpdateAISettings(confidence, autoPublish, defaultPrompt); err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *AuthService) issueTokens(u *user.User) (*AuthResult, error) {
	pair, err := s.jwtService.GenerateTokenPair(u.ID, u.Email)
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		User:             u,
		AccessToken:      pair.AccessToken,
		RefreshToken:     pair.RefreshToken,
		AccessExpiresAt:  pair.AccessExpiresAt,
		RefreshExpiresAt: pair.RefreshExpiresAt,
	}, nil
}

func (s *AuthService) publishEvents(ctx context.Context, u *user.User) {
	events := u.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.events.Publish(ctx, events...); err != nil {
		logger.L(ctx).Warn("publish domain events", zap.Error(err))
	}
	u.ClearDomainEvents()
}
