package marketplace

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSiteValidation(t *testing.T) {
	assert.True(t, SiteArgentina.IsValid())
	assert.True(t, SiteBrazil.IsValid())
	assert.False(t, Site("MLX").IsValid())

	assert.Equal(t, "auth.mercadolibre.com.ar", SiteArgentina.AuthDomain())
	assert.Equal(t, "auth.mercadolivre.com.br", SiteBrazil.AuthDomain())
}

func TestNewCredentials(t *testing.T) {
	userID := uuid.New()
	c, err := NewCredentials(userID, SiteArgentina, 123456, "TESTSELLER")
	require.NoError(t, err)

	assert.Equal(t, SiteArgentina, c.Site)
	assert.True(t, c.OwnedBy(userID))

	events := c.GetDomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventAccountConnected, events[0].EventType())

	_, err = NewCredentials(userID, Site("XXX"), 1, "n")
	require.Error(t, err)
}

func TestSetTokensAndRefreshWindow(t *testing.T) {
	c, err := NewCredentials(uuid.New(), SiteArgentina, 1, "n")
	require.NoError(t, err)

	require.NoError(t, c.SetTokens("access", "refresh", "Bearer", "offline_access read write", 6*time.Hour))
	assert.False(t, c.IsExpired())
	assert.False(t, c.NeedsRefresh())

	// inside the one hour refresh margin
	c.ExpiresAt = time.Now().Add(30 * time.Minute)
	assert.True(t, c.NeedsRefresh())
	assert.False(t, c.IsExpired())

	c.ExpiresAt = time.Now().Add(-time.Minute)
	assert.True(t, c.IsExpired())

	require.Error(t, c.SetTokens("", "refresh", "Bearer", "", time.Hour))
}

func TestRefreshFailuresBreakConnection(t *testing.T) {
	c, err := NewCredentials(uuid.New(), SiteArgentina, 1, "n")
	require.NoError(t, err)
	c.ClearDomainEvents()

	c.RecordRefreshFailure()
	c.RecordRefreshFailure()
	assert.False(t, c.IsBroken())

	c.RecordRefreshFailure()
	assert.True(t, c.IsBroken())

	events := c.GetDomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventConnectionBroken, events[0].EventType())
}

func TestSetTokensResetsFailures(t *testing.T) {
	c, err := NewCredentials(uuid.New(), SiteArgentina, 1, "n")
	require.NoError(t, err)

	c.RecordRefreshFailure()
	require.NoError(t, c.SetTokens("a", "r", "Bearer", "", time.Hour))
	assert.Zero(t, c.RefreshFails)
}
