package marketplace

import (
	"context"
	"time"

	"github.com/intellipost/backend/internal/domain/content"
	"github.com/intellipost/backend/internal/domain/marketplace"
)

// TokenResponse is the result of a code exchange or refresh
type TokenResponse struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	Scope        string
	ExpiresIn    time.Duration
	MLUserID     int64
}

// MLUser is the marketplace account profile
type MLUser struct {
	ID       int64
	Nickname string
	SiteID   string
}

// CategoryPrediction is the marketplace's category suggestion
type CategoryPrediction struct {
	ID   string
	Name string
}

// ListingPicture references an image by public URL
type ListingPicture struct {
	Source string
}

// ListingRequest is everything needed to create a marketplace item
type ListingRequest struct {
	Site        marketplace.Site
	Title       string
	Description string
	CategoryID  string
	PriceCents  int64
	Currency    string
	Attributes  []content.Attribute
	Pictures    []ListingPicture
}

// ListingResult identifies the created item
type ListingResult struct {
	ItemID    string
	Permalink string
}

// OAuthClient drives the authorization code flow with PKCE
type OAuthClient interface {
	// AuthorizationURL builds the redirect URL for the given site
	AuthorizationURL(site marketplace.Site, state, codeVerifier string) string
	// ExchangeCode trades an authorization code for tokens
	ExchangeCode(ctx context.Context, code, codeVerifier string) (*TokenResponse, error)
	// Refresh trades a refresh token for a new token pair
	Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error)
}

// APIClient calls the marketplace REST API on behalf of a seller
type APIClient interface {
	GetMe(ctx context.Context, accessToken string) (*MLUser, error)
	PredictCategory(ctx context.Context, accessToken string, site marketplace.Site, title string) (*CategoryPrediction, error)
	PublishItem(ctx context.Context, accessToken string, req ListingRequest) (*ListingResult, error)
}
