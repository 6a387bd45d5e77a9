package product

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validImage() Image {
	return NewImage("photo.jpg", "image/jpeg", 1024, "originals/abc.jpg")
}

func newTestProduct(t *testing.T) *Product {
	t.Helper()
	p, err := New(uuid.New(), "vintage leather jacket", 250000, "ARS")
	require.NoError(t, err)
	return p
}

func TestNewProduct(t *testing.T) {
	userID := uuid.New()
	p, err := New(userID, "  vintage leather jacket  ", 250000, "")
	require.NoError(t, err)

	assert.Equal(t, StatusUploading, p.Status)
	assert.Equal(t, "vintage leather jacket", p.Prompt)
	assert.Equal(t, "ARS", p.Currency)
	assert.True(t, p.OwnedBy(userID))

	events := p.GetDomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventProductCreated, events[0].EventType())
}

func TestNewProductValidation(t *testing.T) {
	_, err := New(uuid.New(), "ab", 100, "ARS")
	require.Error(t, err)

	_, err = New(uuid.New(), "ok prompt", 0, "ARS")
	require.Error(t, err)

	_, err = New(uuid.New(), "ok prompt", -5, "ARS")
	require.Error(t, err)
}

func TestAddImage(t *testing.T) {
	p := newTestProduct(t)

	require.NoError(t, p.AddImage(validImage()))
	require.NoError(t, p.AddImage(validImage()))

	assert.Len(t, p.Images, 2)
	assert.True(t, p.Images[0].IsPrimary)
	assert.False(t, p.Images[1].IsPrimary)
	assert.Equal(t, 0, p.Images[0].Position)
	assert.Equal(t, 1, p.Images[1].Position)
}

func TestAddImageLimits(t *testing.T) {
	p := newTestProduct(t)

	for i := 0; i < MaxImages; i++ {
		require.NoError(t, p.AddImage(validImage()))
	}
	err := p.AddImage(validImage())
	require.Error(t, err)

	bad := validImage()
	bad.ContentType = "image/gif"
	require.Error(t, p.AddImage(bad))

	big := validImage()
	big.SizeBytes = MaxImageBytes + 1
	require.Error(t, p.AddImage(big))
}

func TestAddImageAfterUploadingRejected(t *testing.T) {
	p := newTestProduct(t)
	require.NoError(t, p.AddImage(validImage()))
	require.NoError(t, p.StartProcessing())

	err := p.AddImage(validImage())
	require.Error(t, err)
}

func TestStatusMachineHappyPath(t *testing.T) {
	p := newTestProduct(t)
	require.NoError(t, p.AddImage(validImage()))

	require.NoError(t, p.StartProcessing())
	assert.Equal(t, StatusProcessing, p.Status)

	require.NoError(t, p.MarkReady())
	assert.Equal(t, StatusReady, p.Status)

	require.NoError(t, p.StartPublishing())
	require.NoError(t, p.MarkPublished("MLA123456"))
	assert.Equal(t, StatusPublished, p.Status)
	assert.Equal(t, "MLA123456", p.ListingID)
	require.NotNil(t, p.PublishedAt)
}

func TestStatusMachineRejectsSkips(t *testing.T) {
	p := newTestProduct(t)
	require.NoError(t, p.AddImage(validImage()))

	require.Error(t, p.MarkReady())
	require.Error(t, p.MarkPublished("MLA1"))
	require.Error(t, p.StartPublishing())
}

func TestProcessingRequiresImages(t *testing.T) {
	p := newTestProduct(t)
	require.Error(t, p.StartProcessing())
}

func TestFailAndRetry(t *testing.T) {
	p := newTestProduct(t)
	require.NoError(t, p.AddImage(validImage()))
	require.NoError(t, p.StartProcessing())

	require.NoError(t, p.MarkFailed("gemini timeout"))
	assert.Equal(t, StatusFailed, p.Status)
	assert.Equal(t, "gemini timeout", p.FailureCause)

	require.NoError(t, p.Retry())
	assert.Equal(t, StatusProcessing, p.Status)
	assert.Empty(t, p.FailureCause)
}

func TestRegenerateFromReady(t *testing.T) {
	p := newTestProduct(t)
	require.NoError(t, p.AddImage(validImage()))
	require.NoError(t, p.StartProcessing())
	require.NoError(t, p.MarkReady())

	require.NoError(t, p.Retry())
	assert.Equal(t, StatusProcessing, p.Status)
}

func TestUpdatesLockedAfterPublish(t *testing.T) {
	p := newTestProduct(t)
	require.NoError(t, p.AddImage(validImage()))
	require.NoError(t, p.StartProcessing())
	require.NoError(t, p.MarkReady())
	require.NoError(t, p.StartPublishing())

	require.Error(t, p.UpdatePrompt("another prompt"))
	require.Error(t, p.UpdatePrice(100, "ARS"))
	assert.False(t, p.CanDelete())

	require.NoError(t, p.MarkPublished("MLA1"))
	require.Error(t, p.UpdatePrompt("another prompt"))
	assert.True(t, p.CanDelete())
}

func TestSetPrimaryImage(t *testing.T) {
	p := newTestProduct(t)
	require.NoError(t, p.AddImage(validImage()))
	require.NoError(t, p.AddImage(validImage()))

	second := p.Images[1].ID
	require.NoError(t, p.SetPrimaryImage(second))
	assert.False(t, p.Images[0].IsPrimary)
	assert.True(t, p.Images[1].IsPrimary)
	assert.Equal(t, second, p.PrimaryImage().ID)

	require.Error(t, p.SetPrimaryImage(uuid.New()))
}

func TestImageBestKey(t *testing.T) {
	img := validImage()
	assert.Equal(t, "originals/abc.jpg", img.BestKey())

	img.SetProcessed("processed/abc.png", 1200, 1200)
	assert.Equal(t, "processed/abc.png", img.BestKey())
	assert.Equal(t, 1200, img.Width)
}
