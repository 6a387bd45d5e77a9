package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/intellipost/backend/internal/infrastructure/auth"
	"github.com/intellipost/backend/internal/infrastructure/logger"
	"github.com/intellipost/backend/internal/interfaces/http/dto"
)

// Context keys set by the JWT middleware
const (
	UserIDKey      = "auth_user_id"
	UserEmailKey   = "auth_user_email"
	AccessTokenKey = "auth_access_token"

	authHeader   = "Authorization"
	bearerPrefix = "Bearer "
)

// JWTAuth validates the bearer access token, rejects revoked sessions
// and puts the user identity into the request context
func JWTAuth(jwtService *auth.JWTService, blacklist auth.TokenBlacklist) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(authHeader)
		if !strings.HasPrefix(header, bearerPrefix) {
			abortUnauthorized(c, "Missing or malformed authorization header")
			return
		}
		token := strings.TrimPrefix(header, bearerPrefix)
		if token == "" {
			abortUnauthorized(c, "Missing token")
			return
		}

		claims, err := jwtService.ValidateAccessToken(token)
		if err != nil {
			abortUnauthorized(c, "Token is invalid or expired")
			return
		}

		if blacklist != nil {
			revoked, err := blacklist.IsRevoked(c.Request.Context(), claims.ID)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusServiceUnavailable,
					dto.Err("INTERNAL_ERROR", "Could not verify session"))
				return
			}
			if revoked {
				abortUnauthorized(c, "Session has been revoked")
				return
			}

			if claims.IssuedAt != nil {
				invalidated, err := blacklist.IsRevokedForUser(
					c.Request.Context(), claims.UserID.String(), claims.IssuedAt.Time)
				if err != nil {
					// fail open: a blacklist outage should not lock everyone out
					logger.L(c.Request.Context()).Warn("user revocation check failed",
						zap.Error(err))
				} else if invalidated {
					abortUnauthorized(c, "Session has been revoked")
					return
				}
			}
		}

		c.Set(UserIDKey, claims.UserID.String())
		c.Set(UserEmailKey, claims.Email)
		c.Set(AccessTokenKey, token)

		ctx := logger.WithUserID(c.Request.Context(), claims.UserID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// GetUserID returns the authenticated user's ID from the gin context
func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	raw := c.GetString(UserIDKey)
	if raw == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// GetAccessToken returns the raw bearer token of the current request
func GetAccessToken(c *gin.Context) string {
	return c.GetString(AccessTokenKey)
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.Err("UNAUTHORIZED", message))
}
