package marketplace

import (
	"time"

	"github.com/google/uuid"

	"github.com/intellipost/backend/internal/domain/shared"
)

// Site identifies a MercadoLibre country site
type Site string

const (
	SiteArgentina Site = "MLA"
	SiteBrazil    Site = "MLB"
	SiteMexico    Site = "MLM"
	SiteChile     Site = "MLC"
	SiteUruguay   Site = "MLU"
)

// authDomains maps each site to its OAuth authorization host
var authDomains = map[Site]string{
	SiteArgentina: "auth.mercadolibre.com.ar",
	SiteBrazil:    "auth.mercadolivre.com.br",
	SiteMexico:    "auth.mercadolibre.com.mx",
	SiteChile:     "auth.mercadolibre.cl",
	SiteUruguay:   "auth.mercadolibre.com.uy",
}

// refreshWindow is how long before expiry a token is considered stale.
// MercadoLibre tokens live 6 hours; refreshing with an hour of margin
// keeps API calls from racing the expiry.
const refreshWindow = time.Hour

// IsValid reports whether the site code is supported
func (s Site) IsValid() bool {
	_, ok := authDomains[s]
	return ok
}

// AuthDomain returns the OAuth host for the site
func (s Site) AuthDomain() string {
	return authDomains[s]
}

// Credentials is the per-user MercadoLibre connection aggregate. One
// connection per user; reconnecting replaces the stored tokens.
type Credentials struct {
	shared.OwnedAggregateRoot
	Site          Site
	MLUserID      int64
	Nickname      string
	AccessToken   string
	RefreshToken  string
	TokenType     string
	Scope         string
	ExpiresAt     time.Time
	LastRefreshAt *time.Time
	RefreshFails  int
}

// NewCredentials creates a connection from a completed OAuth exchange
func NewCredentials(userID uuid.UUID, site Site, mlUserID int64, nickname string) (*Credentials, error) {
	if !site.IsValid() {
		return nil, shared.NewDomainError("INVALID_SITE", "Unsupported marketplace site")
	}
	c := &Credentials{
		OwnedAggregateRoot: shared.NewOwnedAggregateRoot(userID),
		Site:               site,
		MLUserID:           mlUserID,
		Nickname:           nickname,
	}
	c.AddDomainEvent(NewAccountConnectedEvent(c.ID, userID, string(site), nickname))
	return c, nil
}

// SetTokens stores a fresh token pair from the OAuth server
func (c *Credentials) SetTokens(accessToken, refreshToken, tokenType, scope string, expiresIn time.Duration) error {
	if accessToken == "" || refreshToken == "" {
		return shared.NewDomainError("INVALID_INPUT", "Token pair is incomplete")
	}
	now := time.Now()
	c.AccessToken = accessToken
	c.RefreshToken = refreshToken
	c.TokenType = tokenType
	c.Scope = scope
	c.ExpiresAt = now.Add(expiresIn)
	c.LastRefreshAt = &now
	c.RefreshFails = 0
	c.UpdatedAt = now
	return nil
}

// NeedsRefresh reports whether the access token is expired or about to
func (c *Credentials) NeedsRefresh() bool {
	return time.Now().After(c.ExpiresAt.Add(-refreshWindow))
}

// IsExpired reports whether the access token can no longer be used
func (c *Credentials) IsExpired() bool {
	return time.Now().After(c.ExpiresAt)
}

// RecordRefreshFailure counts a failed refresh attempt. After repeated
// failures the connection is considered broken and the seller must
// re-authorize.
func (c *Credentials) RecordRefreshFailure() {
	c.RefreshFails++
	c.UpdatedAt = time.Now()
	if c.RefreshFails >= 3 {
		c.AddDomainEvent(NewConnectionBrokenEvent(c.ID, c.UserID, string(c.Site)))
	}
}

// IsBroken reports whether refresh has failed enough to require reauth
func (c *Credentials) IsBroken() bool {
	return c.RefreshFails >= 3
}
