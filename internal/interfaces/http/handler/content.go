package handler

import (
	"github.com/gin-gonic/gin"

	contentapp "github.com/intellipost/backend/internal/application/content"
	"github.com/intellipost/backend/internal/interfaces/http/dto"
)

// ContentHandler serves generated listing content
type ContentHandler struct {
	BaseHandler
	generation *contentapp.GenerationService
}

// NewContentHandler creates a ContentHandler
func NewContentHandler(generation *contentapp.GenerationService) *ContentHandler {
	return &ContentHandler{generation: generation}
}

// RegisterRoutes registers content routes behind authentication
func (h *ContentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	c := rg.Group("/products/:id/content")
	c.GET("", h.Latest)
	c.GET("/versions", h.Versions)
	c.PUT("", h.Edit)
	c.POST("/approve", h.Approve)
}

// Latest returns the newest content version for a product
func (h *ContentHandler) Latest(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	productID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	content, err := h.generation.Latest(c.Request.Context(), userID, productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewContentResponse(content))
}

// Versions returns every content generation for a product
func (h *ContentHandler) Versions(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	productID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	versions, err := h.generation.Versions(c.Request.Context(), userID, productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]dto.ContentResponse, len(versions))
	for i, v := range versions {
		responses[i] = dto.NewContentResponse(v)
	}
	h.Success(c, responses)
}

// Edit applies seller changes to the latest content version
func (h *ContentHandler) Edit(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	productID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.EditContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	content, err := h.generation.Edit(c.Request.Context(), userID, productID, req.Title, req.Description)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewContentResponse(content))
}

// Approve marks the latest content version as seller approved
func (h *ContentHandler) Approve(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	productID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	content, err := h.generation.Approve(c.Request.Context(), userID, productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewContentResponse(content))
}
