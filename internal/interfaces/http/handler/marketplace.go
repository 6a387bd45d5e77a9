package handler

import (
	"github.com/gin-gonic/gin"

	marketapp "github.com/intellipost/backend/internal/application/marketplace"
	"github.com/intellipost/backend/internal/domain/marketplace"
	"github.com/intellipost/backend/internal/interfaces/http/dto"
)

// MarketplaceHandler handles the MercadoLibre connection and publishing
type MarketplaceHandler struct {
	BaseHandler
	connections *marketapp.ConnectionService
	publisher   *marketapp.PublishService
}

// NewMarketplaceHandler creates a MarketplaceHandler
func NewMarketplaceHandler(connections *marketapp.ConnectionService, publisher *marketapp.PublishService) *MarketplaceHandler {
	return &MarketplaceHandler{connections: connections, publisher: publisher}
}

// RegisterPublicRoutes registers the OAuth callback. The marketplace
// redirects the seller's browser here without a bearer token; the
// parked state identifies the user.
func (h *MarketplaceHandler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.GET("/marketplace/callback", h.Callback)
}

// RegisterRoutes registers routes behind authentication
func (h *MarketplaceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	m := rg.Group("/marketplace")
	m.POST("/connection", h.Connect)
	m.GET("/connection", h.Connection)
	m.DELETE("/connection", h.Disconnect)

	rg.POST("/products/:id/publish", h.Publish)
}

// Connect starts the OAuth authorization flow
func (h *MarketplaceHandler) Connect(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	var req dto.StartAuthorizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	url, err := h.connections.StartAuthorization(c.Request.Context(), userID, marketplace.Site(req.Site))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.AuthorizationURLResponse{AuthorizationURL: url})
}

// Callback finishes the OAuth flow
func (h *MarketplaceHandler) Callback(c *gin.Context) {
	state := c.Query("state")
	code := c.Query("code")
	if state == "" || code == "" {
		h.BadRequest(c, "Missing state or code parameter")
		return
	}

	creds, err := h.connections.HandleCallback(c.Request.Context(), state, code)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewConnectionResponse(creds))
}

// Connection returns the current marketplace connection
func (h *MarketplaceHandler) Connection(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	creds, err := h.connections.Connection(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewConnectionResponse(creds))
}

// Disconnect removes the marketplace connection
func (h *MarketplaceHandler) Disconnect(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	if err := h.connections.Disconnect(c.Request.Context(), userID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Publish pushes a ready product to the marketplace
func (h *MarketplaceHandler) Publish(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	productID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	p, err := h.publisher.Publish(c.Request.Context(), userID, productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewProductResponse(p))
}
