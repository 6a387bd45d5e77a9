package user

import (
	"regexp"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/intellipost/backend/internal/domain/shared"
)

// Status represents the lifecycle state of a user account
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusLocked   Status = "locked"
)

const (
	bcryptCost      = 12
	maxLoginRetries = 5
	lockDuration    = 30 * time.Minute
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// User is the account aggregate. Sellers authenticate by email.
type User struct {
	shared.BaseAggregateRoot
	Email         string
	PasswordHash  string
	FirstName     string
	LastName      string
	Status        Status
	FailedLogins  int
	LockedUntil   *time.Time
	LastLoginAt   *time.Time
	AIConfidence  string
	AutoPublish   bool
	DefaultPrompt string
}

// NewUser creates a new active user with a hashed password
func NewUser(email, password, firstName, lastName string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, shared.NewDomainError("PASSWORD_HASH_FAILED", "Failed to hash password")
	}

	u := &User{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Email:             email,
		PasswordHash:      string(hash),
		FirstName:         strings.TrimSpace(firstName),
		LastName:          strings.TrimSpace(lastName),
		Status:            StatusActive,
		AIConfidence:      "medium",
	}

	u.AddDomainEvent(NewUserRegisteredEvent(u.ID, u.Email))
	return u, nil
}

// VerifyPassword checks the given password against the stored hash
func (u *User) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// ChangePassword verifies the current password and sets a new one
func (u *User) ChangePassword(current, newPassword string) error {
	if !u.VerifyPassword(current) {
		return shared.NewDomainError("INVALID_PASSWORD", "Current password is incorrect")
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return shared.NewDomainError("PASSWORD_HASH_FAILED", "Failed to hash password")
	}
	u.PasswordHash = string(hash)
	u.UpdatedAt = time.Now()
	u.AddDomainEvent(NewPasswordChangedEvent(u.ID, u.Email))
	return nil
}

// RecordLoginSuccess resets the failure counter and stamps the login time
func (u *User) RecordLoginSuccess() {
	now := time.Now()
	u.FailedLogins = 0
	u.LockedUntil = nil
	u.LastLoginAt = &now
	u.UpdatedAt = now
}

// RecordLoginFailure increments the failure counter and locks the
// account once the retry budget is exhausted
func (u *User) RecordLoginFailure() {
	u.FailedLogins++
	u.UpdatedAt = time.Now()
	if u.FailedLogins >= maxLoginRetries {
		until := time.Now().Add(lockDuration)
		u.Status = StatusLocked
		u.LockedUntil = &until
		u.AddDomainEvent(NewUserLockedEvent(u.ID, u.Email, until))
	}
}

// IsLocked reports whether the account is currently locked.
// An expired lock is cleared as a side effect.
func (u *User) IsLocked() bool {
	if u.Status != StatusLocked {
		return false
	}
	if u.LockedUntil != nil && time.Now().After(*u.LockedUntil) {
		u.Status = StatusActive
		u.FailedLogins = 0
		u.LockedUntil = nil
		return false
	}
	return true
}

// Deactivate marks the account inactive
func (u *User) Deactivate() {
	u.Status = StatusInactive
	u.UpdatedAt = time.Now()
}

// IsActive reports whether the account can authenticate
func (u *User) IsActive() bool {
	return u.Status == StatusActive
}

// UpdateProfile updates the display name fields
func (u *User) UpdateProfile(firstName, lastName string) {
	u.FirstName = strings.TrimSpace(firstName)
	u.LastName = strings.TrimSpace(lastName)
	u.UpdatedAt = time.Now()
}

// UpdateAISettings updates the content generation preferences
func (u *User) UpdateAISettings(confidence string, autoPublish bool, defaultPrompt string) error {
	switch confidence {
	case "low", "medium", "high":
	default:
		return shared.NewDomainError("INVALID_INPUT", "AI confidence must be low, medium or high")
	}
	u.AIConfidence = confidence
	u.AutoPublish = autoPublish
	u.DefaultPrompt = strings.TrimSpace(defaultPrompt)
	u.UpdatedAt = time.Now()
	return nil
}

// FullName returns the display name
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func validateEmail(email string) error {
	if email == "" {
		return shared.NewDomainError("INVALID_EMAIL", "Email is required")
	}
	if len(email) > 254 || !emailRegex.MatchString(email) {
		return shared.NewDomainError("INVALID_EMAIL", "Email format is invalid")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return shared.NewDomainError("WEAK_PASSWORD", "Password must be at least 8 characters")
	}
	if len(password) > 72 {
		// bcrypt truncates beyond 72 bytes
		return shared.NewDomainError("WEAK_PASSWORD", "Password must be at most 72 characters")
	}
	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			hasLetter = true
		case r >= '0' && r <= '9':
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return shared.NewDomainError("WEAK_PASSWORD", "Password must contain letters and digits")
	}
	return nil
}
