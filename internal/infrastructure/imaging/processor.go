package imaging

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/webp"

	appcontent "github.com/intellipost/backend/internal/application/content"
)

const (
	// maxDimension is the longest edge after normalization. Marketplace
	// image requirements top out well below this.
	maxDimension = 1600
	thumbnailDim = 300
	jpegQuality  = 85
)

// Processor normalizes uploaded product photos: applies EXIF
// orientation, bounds dimensions and re-encodes as JPEG
type Processor struct{}

// NewProcessor creates a Processor
func NewProcessor() *Processor {
	return &Processor{}
}

var _ appcontent.ImageProcessor = (*Processor)(nil)

// Normalize decodes the upload, applies the EXIF orientation, resizes
// when larger than maxDimension and re-encodes as JPEG
func (p *Processor) Normalize(data []byte) ([]byte, int, int, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("decode image: %w", err)
	}

	img = applyOrientation(img, readOrientation(data))

	bounds := img.Bounds()
	if bounds.Dx() > maxDimension || bounds.Dy() > maxDimension {
		img = imaging.Fit(img, maxDimension, maxDimension, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, 0, 0, fmt.Errorf("encode image: %w", err)
	}
	final := img.Bounds()
	return buf.Bytes(), final.Dx(), final.Dy(), nil
}

// Thumbnail produces a square-bounded JPEG preview
func (p *Processor) Thumbnail(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	img = applyOrientation(img, readOrientation(data))
	img = imaging.Fit(img, thumbnailDim, thumbnailDim, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

// readOrientation extracts the EXIF orientation tag, defaulting to 1
// (upright) when absent or unreadable
func readOrientation(data []byte) int {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	orientation, err := tag.Int(0)
	if err != nil {
		return 1
	}
	return orientation
}

// applyOrientation rotates and flips per the EXIF orientation value
func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}
