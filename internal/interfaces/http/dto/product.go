package dto

import (
	"time"

	"github.com/intellipost/backend/internal/domain/product"
)

// CreateProductRequest starts a new listing
type CreateProductRequest struct {
	Prompt     string `json:"prompt" binding:"required,min=3,max=500"`
	PriceCents int64  `json:"price_cents" binding:"required,gt=0"`
	Currency   string `json:"currency" binding:"omitempty,len=3"`
}

// RequestUploadRequest asks for a presigned upload slot
type RequestUploadRequest struct {
	Filename    string `json:"filename" binding:"required,max=255"`
	ContentType string `json:"content_type" binding:"required,oneof=image/jpeg image/png image/webp"`
	SizeBytes   int64  `json:"size_bytes" binding:"required,gt=0"`
}

// UpdateProductRequest edits prompt and price before publishing
type UpdateProductRequest struct {
	Prompt     *string `json:"prompt" binding:"omitempty,min=3,max=500"`
	PriceCents *int64  `json:"price_cents" binding:"omitempty,gt=0"`
	Currency   string  `json:"currency" binding:"omitempty,len=3"`
}

// UploadTicketResponse is a presigned upload slot
type UploadTicketResponse struct {
	ImageID   string `json:"image_id"`
	Key       string `json:"key"`
	UploadURL string `json:"upload_url"`
}

// ImageResponse is one product photo with its serving URLs
type ImageResponse struct {
	ID           string `json:"id"`
	Filename     string `json:"filename"`
	ContentType  string `json:"content_type"`
	SizeBytes    int64  `json:"size_bytes"`
	Width        int    `json:"width,omitempty"`
	Height       int    `json:"height,omitempty"`
	IsPrimary    bool   `json:"is_primary"`
	Position     int    `json:"position"`
	URL          string `json:"url,omitempty"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

// ProductResponse is the full product representation
type ProductResponse struct {
	ID           string          `json:"id"`
	Prompt       string          `json:"prompt"`
	PriceCents   int64           `json:"price_cents"`
	Currency     string          `json:"currency"`
	Status       string          `json:"status"`
	FailureCause string          `json:"failure_cause,omitempty"`
	ListingID    string          `json:"listing_id,omitempty"`
	PublishedAt  *time.Time      `json:"published_at,omitempty"`
	Images       []ImageResponse `json:"images"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// DashboardResponse is the per-status product count summary
type DashboardResponse struct {
	Counts map[string]int64 `json:"counts"`
	Total  int64            `json:"total"`
}

// NewProductResponse converts a domain product. URLs are resolved by
// the handler because presigning needs a context.
func NewProductResponse(p *product.Product) ProductResponse {
	images := make([]ImageResponse, len(p.Images))
	for i, img := range p.Images {
		images[i] = ImageResponse{
			ID:          img.ID.String(),
			Filename:    img.Filename,
			ContentType: img.ContentType,
			SizeBytes:   img.SizeBytes,
			Width:       img.Width,
			Height:      img.Height,
			IsPrimary:   img.IsPrimary,
			Position:    img.Position,
		}
	}
	return ProductResponse{
		ID:           p.ID.String(),
		Prompt:       p.Prompt,
		PriceCents:   p.PriceCents,
		Currency:     p.Currency,
		Status:       string(p.Status),
		FailureCause: p.FailureCause,
		ListingID:    p.ListingID,
		PublishedAt:  p.PublishedAt,
		Images:       images,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}
