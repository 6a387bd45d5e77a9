package content

import (
	"context"

	"github.com/intellipost/backend/internal/domain/content"
)

// ImageInput is one product photo handed to the generator
type ImageInput struct {
	MimeType string
	Data     []byte
}

// GenerationRequest carries everything the generator needs
type GenerationRequest struct {
	Prompt        string
	DefaultPrompt string
	Site          string
	Images        []ImageInput
}

// GenerationResult is the structured listing produced by the model
type GenerationResult struct {
	Title        string
	Description  string
	CategoryName string
	Attributes   []content.Attribute
	Confidence   string
	Model        string
	PromptTokens int
	OutputTokens int
}

// Generator produces listing content from photos and a prompt
type Generator interface {
	Generate(ctx context.Context, req GenerationRequest) (*GenerationResult, error)
}

// BackgroundRemover strips the background from a product photo
type BackgroundRemover interface {
	RemoveBackground(ctx context.Context, image []byte, mimeType string) ([]byte, error)
}

// ImageProcessor normalizes uploads before they reach the generator
type ImageProcessor interface {
	// Normalize strips EXIF orientation, resizes oversized images and
	// re-encodes. Returns the processed bytes with dimensions.
	Normalize(data []byte) (processed []byte, width, height int, err error)
	// Thumbnail produces a small JPEG preview
	Thumbnail(data []byte) ([]byte, error)
}
