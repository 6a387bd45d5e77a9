package dto

import (
	"time"

	"github.com/intellipost/backend/internal/domain/content"
)

// EditContentRequest applies seller edits to generated content
type EditContentRequest struct {
	Title       string `json:"title" binding:"required,max=60"`
	Description string `json:"description" binding:"required"`
}

// AttributeResponse is a suggested listing attribute
type AttributeResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ContentResponse is one generated content version
type ContentResponse struct {
	ID           string              `json:"id"`
	ProductID    string              `json:"product_id"`
	Generation   int                 `json:"generation"`
	Title        string              `json:"title"`
	Description  string              `json:"description"`
	CategoryID   string              `json:"category_id,omitempty"`
	CategoryName string              `json:"category_name,omitempty"`
	Attributes   []AttributeResponse `json:"attributes"`
	Confidence   string              `json:"confidence"`
	Model        string              `json:"model,omitempty"`
	EditedByUser bool                `json:"edited_by_user"`
	ApprovedAt   *time.Time          `json:"approved_at,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
}

// NewContentResponse converts a domain content version
func NewContentResponse(c *content.GeneratedContent) ContentResponse {
	attrs := make([]AttributeResponse, len(c.Attributes))
	for i, a := range c.Attributes {
		attrs[i] = AttributeResponse{ID: a.ID, Name: a.Name, Value: a.Value}
	}
	return ContentResponse{
		ID:           c.ID.String(),
		ProductID:    c.ProductID.String(),
		Generation:   c.Generation,
		Title:        c.Title,
		Description:  c.Description,
		CategoryID:   c.CategoryID,
		CategoryName: c.CategoryName,
		Attributes:   attrs,
		Confidence:   c.Confidence,
		Model:        c.Model,
		EditedByUser: c.EditedByUser,
		ApprovedAt:   c.ApprovedAt,
		CreatedAt:    c.CreatedAt,
	}
}
