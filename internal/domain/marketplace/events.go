package marketplace

import (
	"github.com/google/uuid"

	"github.com/intellipost/backend/internal/domain/shared"
)

const (
	EventAccountConnected    = "marketplace.account_connected"
	EventAccountDisconnected = "marketplace.account_disconnected"
	EventConnectionBroken    = "marketplace.connection_broken"
)

const aggregateType = "marketplace_credentials"

// AccountConnectedEvent is raised when OAuth authorization completes
type AccountConnectedEvent struct {
	shared.BaseDomainEvent
	Site     string `json:"site"`
	Nickname string `json:"nickname"`
}

// NewAccountConnectedEvent creates an AccountConnectedEvent
func NewAccountConnectedEvent(credentialsID, userID uuid.UUID, site, nickname string) *AccountConnectedEvent {
	return &AccountConnectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventAccountConnected, aggregateType, credentialsID, userID),
		Site:            site,
		Nickname:        nickname,
	}
}

// AccountDisconnectedEvent is raised when the seller disconnects
type AccountDisconnectedEvent struct {
	shared.BaseDomainEvent
	Site string `json:"site"`
}

// NewAccountDisconnectedEvent creates an AccountDisconnectedEvent
func NewAccountDisconnectedEvent(credentialsID, userID uuid.UUID, site string) *AccountDisconnectedEvent {
	return &AccountDisconnectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventAccountDisconnected, aggregateType, credentialsID, userID),
		Site:            site,
	}
}

// ConnectionBrokenEvent is raised when token refresh keeps failing and
// the seller has to re-authorize
type ConnectionBrokenEvent struct {
	shared.BaseDomainEvent
	Site string `json:"site"`
}

// NewConnectionBrokenEvent creates a ConnectionBrokenEvent
func NewConnectionBrokenEvent(credentialsID, userID uuid.UUID, site string) *ConnectionBrokenEvent {
	return &ConnectionBrokenEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventConnectionBroken, aggregateType, credentialsID, userID),
		Site:            site,
	}
}
