package user

import (
	"time"

	"github.com/google/uuid"

	"github.com/intellipost/backend/internal/domain/shared"
)

const (
	EventUserRegistered  = "user.registered"
	EventUserLocked      = "user.locked"
	EventPasswordChanged = "user.password_changed"
)

const aggregateType = "user"

// UserRegisteredEvent is raised when a new account is created
type UserRegisteredEvent struct {
	shared.BaseDomainEvent
	Email string `json:"email"`
}

// NewUserRegisteredEvent creates a UserRegisteredEvent
func NewUserRegisteredEvent(userID uuid.UUID, email string) *UserRegisteredEvent {
	return &UserRegisteredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventUserRegistered, aggregateType, userID, userID),
		Email:           email,
	}
}

// UserLockedEvent is raised when repeated login failures lock an account
type UserLockedEvent struct {
	shared.BaseDomainEvent
	Email       string    `json:"email"`
	LockedUntil time.Time `json:"locked_until"`
}

// NewUserLockedEvent creates a UserLockedEvent
func NewUserLockedEvent(userID uuid.UUID, email string, until time.Time) *UserLockedEvent {
	return &UserLockedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventUserLocked, aggregateType, userID, userID),
		Email:           email,
		LockedUntil:     until,
	}
}

// PasswordChangedEvent is raised when a user changes their password
type PasswordChangedEvent struct {
	shared.BaseDomainEvent
	Email string `json:"email"`
}

// NewPasswordChangedEvent creates a PasswordChangedEvent
func NewPasswordChangedEvent(userID uuid.UUID, email string) *PasswordChangedEvent {
	return &PasswordChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventPasswordChanged, aggregateType, userID, userID),
		Email:           email,
	}
}
