package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeJPEG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 100, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func makePNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func decodeDims(t *testing.T, data []byte) (int, int) {
	t.Helper()
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	return cfg.Width, cfg.Height
}

func TestNormalizeKeepsSmallImages(t *testing.T) {
	p := NewProcessor()

	out, w, h, err := p.Normalize(makeJPEG(t, 800, 600))
	require.NoError(t, err)
	assert.Equal(t, 800, w)
	assert.Equal(t, 600, h)

	gotW, gotH := decodeDims(t, out)
	assert.Equal(t, 800, gotW)
	assert.Equal(t, 600, gotH)
}

func TestNormalizeResizesLargeImages(t *testing.T) {
	p := NewProcessor()

	_, w, h, err := p.Normalize(makeJPEG(t, 3200, 1600))
	require.NoError(t, err)
	assert.Equal(t, 1600, w)
	assert.Equal(t, 800, h)
}

func TestNormalizeReencodesPNGAsJPEG(t *testing.T) {
	p := NewProcessor()

	out, _, _, err := p.Normalize(makePNG(t, 400, 400))
	require.NoError(t, err)

	_, format, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
}

func TestNormalizeRejectsGarbage(t *testing.T) {
	p := NewProcessor()

	_, _, _, err := p.Normalize([]byte("not an image"))
	require.Error(t, err)
}

func TestThumbnail(t *testing.T) {
	p := NewProcessor()

	out, err := p.Thumbnail(makeJPEG(t, 1200, 900))
	require.NoError(t, err)

	w, h := decodeDims(t, out)
	assert.Equal(t, 300, w)
	assert.Equal(t, 225, h)
}
