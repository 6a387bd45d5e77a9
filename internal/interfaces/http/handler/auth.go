package handler

import (
	"github.com/gin-gonic/gin"

	userapp "github.com/intellipost/backend/internal/application/user"
	"github.com/intellipost/backend/internal/interfaces/http/dto"
	"github.com/intellipost/backend/internal/interfaces/http/middleware"
)

// AuthHandler handles registration, login and account settings
type AuthHandler struct {
	BaseHandler
	authService *userapp.AuthService
}

// NewAuthHandler creates an AuthHandler
func NewAuthHandler(authService *userapp.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// RegisterPublicRoutes registers routes that need no authentication.
// Credential endpoints get a stricter rate limit than the global one.
func (h *AuthHandler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	auth := rg.Group("/auth", middleware.NewRateLimiter(2, 5).Middleware())
	auth.POST("/register", h.Register)
	auth.POST("/login", h.Login)
	auth.POST("/refresh", h.Refresh)
}

// RegisterRoutes registers routes behind authentication
func (h *AuthHandler) RegisterRoutes(rg *gin.RouterGroup) {
	auth := rg.Group("/auth")
	auth.POST("/logout", h.Logout)
	auth.GET("/me", h.Me)
	auth.PUT("/me", h.UpdateProfile)
	auth.PUT("/me/password", h.ChangePassword)
	auth.PUT("/me/ai-settings", h.UpdateAISettings)
}

// Register creates a new seller account
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.authService.Register(c.Request.Context(), req.Email, req.Password, req.FirstName, req.LastName)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, authResponse(result))
}

// Login authenticates by email and password
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, authResponse(result))
}

// Refresh rotates a refresh token into a new pair
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.authService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, authResponse(result))
}

// Logout revokes the session tokens
func (h *AuthHandler) Logout(c *gin.Context) {
	var req dto.LogoutRequest
	_ = c.ShouldBindJSON(&req)

	err := h.authService.Logout(c.Request.Context(), middleware.GetAccessToken(c), req.RefreshToken)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Me returns the authenticated user's profile
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	u, err := h.authService.GetCurrentUser(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewUserResponse(u))
}

// UpdateProfile updates display name fields
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	u, err := h.authService.UpdateProfile(c.Request.Context(), userID, req.FirstName, req.LastName)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewUserResponse(u))
}

// ChangePassword verifies the current password and sets a new one
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.authService.ChangePassword(c.Request.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// UpdateAISettings updates content generation preferences
func (h *AuthHandler) UpdateAISettings(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	var req dto.UpdateAISettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	u, err := h.authService.UpdateAISettings(c.Request.Context(), userID, req.AIConfidence, req.AutoPublish, req.DefaultPrompt)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewUserResponse(u))
}

func authResponse(result *userapp.AuthResult) dto.AuthResponse {
	return dto.AuthResponse{
		User:             dto.NewUserResponse(result.User),
		AccessToken:      result.AccessToken,
		RefreshToken:     result.RefreshToken,
		AccessExpiresAt:  result.AccessExpiresAt,
		RefreshExpiresAt: result.RefreshExpiresAt,
	}
}
