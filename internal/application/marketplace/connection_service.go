package marketplace

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/intellipost/backend/internal/domain/marketplace"
	"github.com/intellipost/backend/internal/domain/shared"
	"github.com/intellipost/backend/internal/infrastructure/cache"
	"github.com/intellipost/backend/internal/infrastructure/logger"
)

// VerifierFactory produces PKCE code verifiers. Injectable for tests.
type VerifierFactory func() string

// ConnectionService drives the MercadoLibre account connection flow
type ConnectionService struct {
	credentials marketplace.Repository
	oauth       OAuthClient
	api         APIClient
	states      cache.OAuthStateStore
	events      shared.EventPublisher
	newVerifier VerifierFactory
}

// NewConnectionService creates a ConnectionService
func NewConnectionService(
	credentials marketplace.Repository,
	oauth OAuthClient,
	api APIClient,
	states cache.OAuthStateStore,
	events shared.EventPublisher,
	newVerifier VerifierFactory,
) *ConnectionService {
	return &ConnectionService{
		credentials: credentials,
		oauth:       oauth,
		api:         api,
		states:      states,
		events:      events,
		newVerifier: newVerifier,
	}
}

// StartAuthorization builds the consent URL and parks the PKCE state
func (s *ConnectionService) StartAuthorization(ctx context.Context, userID uuid.UUID, site marketplace.Site) (string, error) {
	if !site.IsValid() {
		return "", shared.NewDomainError("INVALID_SITE", "Unsupported marketplace site")
	}

	state, err := randomState()
	if err != nil {
		return "", err
	}
	verifier := s.newVerifier()

	if err := s.states.Put(ctx, state, cache.OAuthState{
		UserID:       userID,
		Site:         string(site),
		CodeVerifier: verifier,
	}); err != nil {
		return "", err
	}

	return s.oauth.AuthorizationURL(site, state, verifier), nil
}

// HandleCallback finishes the flow: validates state, exchanges the
// code, fetches the seller profile and stores the connection
func (s *ConnectionService) HandleCallback(ctx context.Context, state, code string) (*marketplace.Credentials, error) {
	stored, err := s.states.Take(ctx, state)
	if err != nil {
		if err == cache.ErrStateNotFound {
			return nil, shared.NewDomainError("INVALID_STATE", "Authorization state is invalid or expired")
		}
		return nil, err
	}

	tokens, err := s.oauth.ExchangeCode(ctx, code, stored.CodeVerifier)
	if err != nil {
		return nil, shared.NewDomainError("OAUTH_EXCHANGE_FAILED", "Could not exchange authorization code")
	}

	profile, err := s.api.GetMe(ctx, tokens.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("fetch marketplace profile: %w", err)
	}

	// reconnecting replaces any previous connection
	if existing, err := s.credentials.FindByUser(ctx, stored.UserID); err == nil {
		if err := s.credentials.Delete(ctx, existing.ID); err != nil {
			return nil, err
		}
	}

	creds, err := marketplace.NewCredentials(stored.UserID, marketplace.Site(stored.Site), profile.ID, profile.Nickname)
	if err != nil {
		return nil, err
	}
	if err := creds.SetTokens(tokens.AccessToken, tokens.RefreshToken, tokens.TokenType, tokens.Scope, tokens.ExpiresIn); err != nil {
		return nil, err
	}
	if err := s.credentials.Save(ctx, creds); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, creds)
	logger.L(ctx).Info("marketplace account connected",
		zap.String("user_id", stored.UserID.String()),
		zap.String("site", stored.Site),
		zap.String("nickname", profile.Nickname),
	)
	return creds, nil
}

// Connection returns the user's marketplace connection
func (s *ConnectionService) Connection(ctx context.Context, userID uuid.UUID) (*marketplace.Credentials, error) {
	return s.credentials.FindByUser(ctx, userID)
}

// Disconnect removes the user's marketplace connection
func (s *ConnectionService) Disconnect(ctx context.Context, userID uuid.UUID) error {
	creds, err := s.credentials.FindByUser(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.credentials.Delete(ctx, creds.ID); err != nil {
		return err
	}
	event := marketplace.NewAccountDisconnectedEvent(creds.ID, userID, string(creds.Site))
	if err := s.events.Publish(ctx, event); err != nil {
		logger.L(ctx).Warn("publish disconnect event", zap.Error(err))
	}
	return nil
}

// FreshAccessToken returns a valid access token, refreshing first if
// the stored one is stale
func (s *ConnectionService) FreshAccessToken(ctx context.Context, userID uuid.UUID) (*marketplace.Credentials, error) {
	creds, err := s.credentials.FindByUser(ctx, userID)
	if err != nil {
		if err == shared.ErrNotFound {
			return nil, shared.NewDomainError("NOT_CONNECTED", "MercadoLibre account is not connected")
		}
		return nil, err
	}
	if creds.IsBroken() {
		return nil, shared.NewDomainError("CONNECTION_BROKEN", "MercadoLibre connection requires re-authorization")
	}
	if !creds.NeedsRefresh() {
		return creds, nil
	}
	if err := s.RefreshCredentials(ctx, creds); err != nil {
		return nil, shared.NewDomainError("CONNECTION_BROKEN", "Could not refresh MercadoLibre tokens")
	}
	return creds, nil
}

// RefreshCredentials rotates the stored token pair
func (s *ConnectionService) RefreshCredentials(ctx context.Context, creds *marketplace.Credentials) error {
	tokens, err := s.oauth.Refresh(ctx, creds.RefreshToken)
	if err != nil {
		creds.RecordRefreshFailure()
		if uerr := s.credentials.Update(ctx, creds); uerr != nil {
			logger.L(ctx).Warn("persist refresh failure", zap.Error(uerr))
		}
		s.publishEvents(ctx, creds)
		return err
	}

	refreshToken := tokens.RefreshToken
	if refreshToken == "" {
		refreshToken = creds.RefreshToken
	}
	if err := creds.SetTokens(tokens.AccessToken, refreshToken, tokens.TokenType, tokens.Scope, tokens.ExpiresIn); err != nil {
		return err
	}
	return s.credentials.Update(ctx, creds)
}

// RefreshExpiring refreshes every connection close to expiry. Called
// by the scheduler.
func (s *ConnectionService) RefreshExpiring(ctx context.Context, limit int) error {
	expiring, err := s.credentials.ListExpiring(ctx, limit)
	if err != nil {
		return err
	}
	for _, creds := range expiring {
		if err := s.RefreshCredentials(ctx, creds); err != nil {
			logger.L(ctx).Warn("token refresh failed",
				zap.String("user_id", creds.UserID.String()),
				zap.Error(err),
			)
		}
	}
	return nil
}

func (s *ConnectionService) publishEvents(ctx context.Context, creds *marketplace.Credentials) {
	events := creds.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.events.Publish(ctx, events...); err != nil {
		logger.L(ctx).Warn("publish domain events", zap.Error(err))
	}
	creds.ClearDomainEvents()
}

func randomState() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
