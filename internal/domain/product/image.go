package product

import (
	"time"

	"github.com/intellipost/backend/internal/domain/shared"
)

// Image formats accepted for upload
var allowedFormats = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// Image is an uploaded product photo. OriginalKey points at the raw
// upload in object storage; ProcessedKey is set once the background has
// been removed.
type Image struct {
	shared.BaseEntity
	Filename     string
	ContentType  string
	SizeBytes    int64
	Width        int
	Height       int
	OriginalKey  string
	ProcessedKey string
	ThumbnailKey string
	IsPrimary    bool
	Position     int
}

// NewImage creates an image record for an original upload
func NewImage(filename, contentType string, sizeBytes int64, originalKey string) Image {
	return Image{
		BaseEntity:  shared.NewBaseEntity(),
		Filename:    filename,
		ContentType: contentType,
		SizeBytes:   sizeBytes,
		OriginalKey: originalKey,
	}
}

// Validate checks format and size constraints
func (i *Image) Validate() error {
	if !allowedFormats[i.ContentType] {
		return shared.NewDomainError("UNSUPPORTED_FORMAT", "Only JPEG, PNG and WebP images are accepted")
	}
	if i.SizeBytes <= 0 || i.SizeBytes > MaxImageBytes {
		return shared.NewDomainError("IMAGE_TOO_LARGE", "Images must be at most 10MB")
	}
	if i.OriginalKey == "" {
		return shared.NewDomainError("INVALID_INPUT", "Image storage key is required")
	}
	return nil
}

// SetProcessed records the background-removed variant
func (i *Image) SetProcessed(key string, width, height int) {
	i.ProcessedKey = key
	i.Width = width
	i.Height = height
	i.UpdatedAt = time.Now()
}

// SetThumbnail records the thumbnail variant
func (i *Image) SetThumbnail(key string) {
	i.ThumbnailKey = key
	i.UpdatedAt = time.Now()
}

// BestKey returns the processed variant when available, else the original
func (i *Image) BestKey() string {
	if i.ProcessedKey != "" {
		return i.ProcessedKey
	}
	return i.OriginalKey
}
