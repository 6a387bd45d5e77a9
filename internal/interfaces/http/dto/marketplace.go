package dto

import (
	"time"

	"github.com/intellipost/backend/internal/domain/marketplace"
)

// StartAuthorizationRequest begins the OAuth connection flow
type StartAuthorizationRequest struct {
	Site string `json:"site" binding:"required,oneof=MLA MLB MLM MLC MLU"`
}

// AuthorizationURLResponse carries the consent redirect URL
type AuthorizationURLResponse struct {
	AuthorizationURL string `json:"authorization_url"`
}

// ConnectionResponse describes the marketplace connection
type ConnectionResponse struct {
	Site        string     `json:"site"`
	MLUserID    int64      `json:"ml_user_id"`
	Nickname    string     `json:"nickname"`
	Connected   bool       `json:"connected"`
	NeedsReauth bool       `json:"needs_reauth"`
	ExpiresAt   time.Time  `json:"expires_at"`
	ConnectedAt time.Time  `json:"connected_at"`
	LastRefresh *time.Time `json:"last_refresh_at,omitempty"`
}

// NewConnectionResponse converts domain credentials. Tokens are never
// exposed through the API.
func NewConnectionResponse(c *marketplace.Credentials) ConnectionResponse {
	return ConnectionResponse{
		Site:        string(c.Site),
		MLUserID:    c.MLUserID,
		Nickname:    c.Nickname,
		Connected:   !c.IsBroken(),
		NeedsReauth: c.IsBroken(),
		ExpiresAt:   c.ExpiresAt,
		ConnectedAt: c.CreatedAt,
		LastRefresh: c.LastRefreshAt,
	}
}
