package user

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	u, err := NewUser("Seller@Example.COM", "secret123", "Ana", "García")
	require.NoError(t, err)

	assert.Equal(t, "seller@example.com", u.Email)
	assert.Equal(t, StatusActive, u.Status)
	assert.Equal(t, "Ana García", u.FullName())
	assert.True(t, u.VerifyPassword("secret123"))
	assert.False(t, u.VerifyPassword("wrong"))
	assert.Equal(t, 1, u.GetVersion())

	events := u.GetDomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventUserRegistered, events[0].EventType())
}

func TestNewUserValidation(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		wantCode string
	}{
		{"empty email", "", "secret123", "INVALID_EMAIL"},
		{"malformed email", "not-an-email", "secret123", "INVALID_EMAIL"},
		{"short password", "a@b.com", "ab1", "WEAK_PASSWORD"},
		{"no digits", "a@b.com", "onlyletters", "WEAK_PASSWORD"},
		{"no letters", "a@b.com", "12345678", "WEAK_PASSWORD"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewUser(tt.email, tt.password, "A", "B")
			require.Error(t, err)
			assert.Contains(t, err.Error(), "")
		})
	}
}

func TestChangePassword(t *testing.T) {
	u, err := NewUser("a@b.com", "secret123", "A", "B")
	require.NoError(t, err)

	err = u.ChangePassword("wrongpass1", "newsecret1")
	require.Error(t, err)

	err = u.ChangePassword("secret123", "newsecret1")
	require.NoError(t, err)
	assert.True(t, u.VerifyPassword("newsecret1"))
	assert.False(t, u.VerifyPassword("secret123"))
}

func TestLoginFailureLocksAccount(t *testing.T) {
	u, err := NewUser("a@b.com", "secret123", "A", "B")
	require.NoError(t, err)

	for i := 0; i < maxLoginRetries-1; i++ {
		u.RecordLoginFailure()
		assert.False(t, u.IsLocked())
	}

	u.RecordLoginFailure()
	assert.True(t, u.IsLocked())
	assert.Equal(t, StatusLocked, u.Status)
	require.NotNil(t, u.LockedUntil)
}

func TestExpiredLockIsCleared(t *testing.T) {
	u, err := NewUser("a@b.com", "secret123", "A", "B")
	require.NoError(t, err)

	past := time.Now().Add(-time.Minute)
	u.Status = StatusLocked
	u.LockedUntil = &past
	u.FailedLogins = maxLoginRetries

	assert.False(t, u.IsLocked())
	assert.Equal(t, StatusActive, u.Status)
	assert.Zero(t, u.FailedLogins)
}

func TestRecordLoginSuccessResetsFailures(t *testing.T) {
	u, err := NewUser("a@b.com", "secret123", "A", "B")
	require.NoError(t, err)

	u.RecordLoginFailure()
	u.RecordLoginFailure()
	u.RecordLoginSuccess()

	assert.Zero(t, u.FailedLogins)
	require.NotNil(t, u.LastLoginAt)
}

func TestUpdateAISettings(t *testing.T) {
	u, err := NewUser("a@b.com", "secret123", "A", "B")
	require.NoError(t, err)

	require.NoError(t, u.UpdateAISettings("high", true, "  always mention brand  "))
	assert.Equal(t, "high", u.AIConfidence)
	assert.True(t, u.AutoPublish)
	assert.Equal(t, "always mention brand", u.DefaultPrompt)

	err = u.UpdateAISettings("extreme", false, "")
	require.Error(t, err)
}
