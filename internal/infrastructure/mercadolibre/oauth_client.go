package mercadolibre

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"

	appmarketplace "github.com/intellipost/backend/internal/application/marketplace"
	"github.com/intellipost/backend/internal/domain/marketplace"
	"github.com/intellipost/backend/internal/infrastructure/config"
)

// tokenURL is shared by every country site
const tokenURL = "https://api.mercadolibre.com/oauth/token"

// OAuthClient implements the authorization code flow with PKCE against
// MercadoLibre. The authorization host varies per country site but the
// token endpoint does not.
type OAuthClient struct {
	clientID     string
	clientSecret string
	redirectURL  string
}

// NewOAuthClient creates an OAuthClient
func NewOAuthClient(cfg config.MercadoLibreConfig) *OAuthClient {
	return &OAuthClient{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		redirectURL:  cfg.RedirectURL,
	}
}

var _ appmarketplace.OAuthClient = (*OAuthClient)(nil)

// GenerateVerifier returns a fresh PKCE code verifier
func GenerateVerifier() string {
	return oauth2.GenerateVerifier()
}

func (c *OAuthClient) oauthConfig(site marketplace.Site) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.clientID,
		ClientSecret: c.clientSecret,
		RedirectURL:  c.redirectURL,
		Endpoint: oauth2.Endpoint{
			AuthURL:  fmt.Sprintf("https://%s/authorization", site.AuthDomain()),
			TokenURL: tokenURL,
		},
	}
}

// AuthorizationURL builds the consent URL with the S256 challenge
func (c *OAuthClient) AuthorizationURL(site marketplace.Site, state, codeVerifier string) string {
	cfg := c.oauthConfig(site)
	return cfg.AuthCodeURL(state, oauth2.S256ChallengeOption(codeVerifier))
}

// ExchangeCode trades an authorization code plus verifier for tokens
func (c *OAuthClient) ExchangeCode(ctx context.Context, code, codeVerifier string) (*appmarketplace.TokenResponse, error) {
	cfg := c.oauthConfig(marketplace.SiteArgentina)
	token, err := cfg.Exchange(ctx, code, oauth2.VerifierOption(codeVerifier))
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}
	return tokenResponse(token), nil
}

// Refresh trades a refresh token for a new pair. MercadoLibre rotates
// refresh tokens on every use.
func (c *OAuthClient) Refresh(ctx context.Context, refreshToken string) (*appmarketplace.TokenResponse, error) {
	cfg := c.oauthConfig(marketplace.SiteArgentina)
	token, err := cfg.TokenSource(ctx, &oauth2.Token{
		RefreshToken: refreshToken,
		Expiry:       time.Now().Add(-time.Minute),
	}).Token()
	if err != nil {
		return nil, fmt.Errorf("refresh token: %w", err)
	}
	return tokenResponse(token), nil
}

func tokenResponse(token *oauth2.Token) *appmarketplace.TokenResponse {
	resp := &appmarketplace.TokenResponse{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
		ExpiresIn:    time.Until(token.Expiry),
	}
	if scope, ok := token.Extra("scope").(string); ok {
		resp.Scope = scope
	}
	switch id := token.Extra("user_id").(type) {
	case float64:
		resp.MLUserID = int64(id)
	case int64:
		resp.MLUserID = id
	}
	return resp
}
