package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intellipost/backend/internal/infrastructure/auth"
)

func newTestEngine(jwtService *auth.JWTService, blacklist auth.TokenBlacklist) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.GET("/me", JWTAuth(jwtService, blacklist), func(c *gin.Context) {
		id, ok := GetUserID(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, id.String())
	})
	return engine
}

func issueAccessToken(t *testing.T, jwtService *auth.JWTService, userID uuid.UUID) string {
	t.Helper()
	pair, err := jwtService.GenerateTokenPair(userID, "seller@example.com")
	require.NoError(t, err)
	return pair.AccessToken
}

func TestJWTAuthAcceptsValidToken(t *testing.T) {
	jwtService := auth.NewJWTService("test-secret", "test", 15*time.Minute, time.Hour)
	userID := uuid.New()
	engine := newTestEngine(jwtService, auth.NewInMemoryTokenBlacklist())

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+issueAccessToken(t, jwtService, userID))
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID.String(), rec.Body.String())
}

func TestJWTAuthRejectsMissingHeader(t *testing.T) {
	jwtService := auth.NewJWTService("test-secret", "test", 15*time.Minute, time.Hour)
	engine := newTestEngine(jwtService, auth.NewInMemoryTokenBlacklist())

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "UNAUTHORIZED")
}

func TestJWTAuthRejectsGarbageToken(t *testing.T) {
	jwtService := auth.NewJWTService("test-secret", "test", 15*time.Minute, time.Hour)
	engine := newTestEngine(jwtService, auth.NewInMemoryTokenBlacklist())

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthRejectsRefreshToken(t *testing.T) {
	jwtService := auth.NewJWTService("test-secret", "test", 15*time.Minute, time.Hour)
	engine := newTestEngine(jwtService, auth.NewInMemoryTokenBlacklist())

	pair, err := jwtService.GenerateTokenPair(uuid.New(), "seller@example.com")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+pair.RefreshToken)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthRejectsRevokedToken(t *testing.T) {
	jwtService := auth.NewJWTService("test-secret", "test", 15*time.Minute, time.Hour)
	blacklist := auth.NewInMemoryTokenBlacklist()
	engine := newTestEngine(jwtService, blacklist)

	pair, err := jwtService.GenerateTokenPair(uuid.New(), "seller@example.com")
	require.NoError(t, err)
	claims, err := jwtService.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	require.NoError(t, blacklist.Revoke(context.Background(), claims.ID, time.Hour))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "revoked")
}

func TestJWTAuthRejectsTokenAfterUserWideRevocation(t *testing.T) {
	jwtService := auth.NewJWTService("test-secret", "test", 15*time.Minute, time.Hour)
	blacklist := auth.NewInMemoryTokenBlacklist()
	userID := uuid.New()
	engine := newTestEngine(jwtService, blacklist)

	token := issueAccessToken(t, jwtService, userID)
	require.NoError(t, blacklist.RevokeAllForUser(context.Background(), userID.String(), time.Hour))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// tokens issued after the revocation are accepted again
	time.Sleep(1100 * time.Millisecond)
	fresh := issueAccessToken(t, jwtService, userID)
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+fresh)
	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
