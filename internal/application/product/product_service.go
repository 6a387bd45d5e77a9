package product

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/intellipost/backend/internal/domain/product"
	"github.com/intellipost/backend/internal/domain/shared"
	"github.com/intellipost/backend/internal/infrastructure/logger"
	"github.com/intellipost/backend/internal/infrastructure/storage"
)

// ProductService handles the seller-facing product lifecycle
type ProductService struct {
	products product.Repository
	storage  storage.ObjectStorage
	events   shared.EventPublisher
}

// NewProductService creates a ProductService
func NewProductService(products product.Repository, store storage.ObjectStorage, events shared.EventPublisher) *ProductService {
	return &ProductService{
		products: products,
		storage:  store,
		events:   events,
	}
}

// UploadTicket is a presigned upload slot for one image
type UploadTicket struct {
	ImageID   uuid.UUID
	Key       string
	UploadURL string
}

// Create starts a new product in uploading state
func (s *ProductService) Create(ctx context.Context, userID uuid.UUID, prompt string, priceCents int64, currency string) (*product.Product, error) {
	p, err := product.New(userID, prompt, priceCents, currency)
	if err != nil {
		return nil, err
	}
	if err := s.products.Save(ctx, p); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, p)
	logger.L(ctx).Info("product created", zap.String("product_id", p.ID.String()))
	return p, nil
}

// RequestUpload registers an image slot and returns a presigned PUT URL
// so the browser uploads directly to object storage
func (s *ProductService) RequestUpload(ctx context.Context, userID, productID uuid.UUID, filename, contentType string, sizeBytes int64) (*UploadTicket, error) {
	p, err := s.ownedProduct(ctx, userID, productID)
	if err != nil {
		return nil, err
	}

	// the storage key embeds the image ID, so it is set after creation
	img := product.NewImage(filename, contentType, sizeBytes, "")
	key := fmt.Sprintf("products/%s/original/%s%s", p.ID, img.ID, extensionFor(contentType, filename))
	img.OriginalKey = key

	if err := p.AddImage(img); err != nil {
		return nil, err
	}

	uploadURL, err := s.storage.PresignUpload(ctx, key, contentType, sizeBytes)
	if err != nil {
		return nil, err
	}
	if err := s.products.Update(ctx, p); err != nil {
		return nil, err
	}

	return &UploadTicket{
		ImageID:   img.ID,
		Key:       key,
		UploadURL: uploadURL,
	}, nil
}

// ConfirmUpload verifies that a single image object landed in storage.
// No state is persisted here; Process re-verifies every image before
// the product leaves uploading, so a stale confirmation cannot slip
// through.
func (s *ProductService) ConfirmUpload(ctx context.Context, userID, productID, imageID uuid.UUID) (*product.Product, error) {
	p, err := s.ownedProduct(ctx, userID, productID)
	if err != nil {
		return nil, err
	}

	var img *product.Image
	for i := range p.Images {
		if p.Images[i].ID == imageID {
			img = &p.Images[i]
			break
		}
	}
	if img == nil {
		return nil, shared.ErrNotFound
	}

	ok, err := s.storage.Exists(ctx, img.OriginalKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, shared.NewDomainError("UPLOAD_INCOMPLETE",
			"Image "+img.Filename+" was never uploaded")
	}
	return p, nil
}

// Process verifies the uploads landed and hands the product to the
// generation pipeline
func (s *ProductService) Process(ctx context.Context, userID, productID uuid.UUID) (*product.Product, error) {
	p, err := s.ownedProduct(ctx, userID, productID)
	if err != nil {
		return nil, err
	}

	for _, img := range p.Images {
		ok, err := s.storage.Exists(ctx, img.OriginalKey)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, shared.NewDomainError("UPLOAD_INCOMPLETE",
				"Image "+img.Filename+" was never uploaded")
		}
	}

	if p.Status == product.StatusFailed || p.Status == product.StatusReady {
		err = p.Retry()
	} else {
		err = p.StartProcessing()
	}
	if err != nil {
		return nil, err
	}

	if err := s.products.Update(ctx, p); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, p)
	logger.L(ctx).Info("product queued for processing", zap.String("product_id", p.ID.String()))
	return p, nil
}

// Get loads a product owned by the user
func (s *ProductService) Get(ctx context.Context, userID, productID uuid.UUID) (*product.Product, error) {
	return s.ownedProduct(ctx, userID, productID)
}

// List returns a page of the user's products
func (s *ProductService) List(ctx context.Context, userID uuid.UUID, filter product.ListFilter) ([]*product.Product, int64, error) {
	return s.products.ListByUser(ctx, userID, filter)
}

// Counts returns per-status totals for the dashboard
func (s *ProductService) Counts(ctx context.Context, userID uuid.UUID) (map[product.Status]int64, error) {
	return s.products.CountByStatus(ctx, userID)
}

// UpdatePrompt changes the generation prompt before publishing
func (s *ProductService) UpdatePrompt(ctx context.Context, userID, productID uuid.UUID, prompt string) (*product.Product, error) {
	p, err := s.ownedProduct(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	if err := p.UpdatePrompt(prompt); err != nil {
		return nil, err
	}
	if err := s.products.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// UpdatePrice changes the listing price before publishing
func (s *ProductService) UpdatePrice(ctx context.Context, userID, productID uuid.UUID, priceCents int64, currency string) (*product.Product, error) {
	p, err := s.ownedProduct(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	if err := p.UpdatePrice(priceCents, currency); err != nil {
		return nil, err
	}
	if err := s.products.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// SetPrimaryImage changes the listing cover
func (s *ProductService) SetPrimaryImage(ctx context.Context, userID, productID, imageID uuid.UUID) (*product.Product, error) {
	p, err := s.ownedProduct(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	if err := p.SetPrimaryImage(imageID); err != nil {
		return nil, err
	}
	if err := s.products.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Delete removes the product and its stored images
func (s *ProductService) Delete(ctx context.Context, userID, productID uuid.UUID) error {
	p, err := s.ownedProduct(ctx, userID, productID)
	if err != nil {
		return err
	}
	if !p.CanDelete() {
		return shared.NewDomainError("INVALID_STATE", "Cannot delete a product while it is being published")
	}

	for _, img := range p.Images {
		for _, key := range []string{img.OriginalKey, img.ProcessedKey, img.ThumbnailKey} {
			if key == "" {
				continue
			}
			if err := s.storage.Delete(ctx, key); err != nil {
				logger.L(ctx).Warn("delete image object",
					zap.String("key", key),
					zap.Error(err),
				)
			}
		}
	}
	return s.products.Delete(ctx, productID)
}

// ImageURL presigns a download URL for an image variant
func (s *ProductService) ImageURL(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", nil
	}
	return s.storage.PresignDownload(ctx, key)
}

func (s *ProductService) ownedProduct(ctx context.Context, userID, productID uuid.UUID) (*product.Product, error) {
	p, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !p.OwnedBy(userID) {
		return nil, shared.ErrForbidden
	}
	return p, nil
}

func (s *ProductService) publishEvents(ctx context.Context, p *product.Product) {
	events := p.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.events.Publish(ctx, events...); err != nil {
		logger.L(ctx).Warn("publish domain events", zap.Error(err))
	}
	p.ClearDomainEvents()
}

func extensionFor(contentType, filename string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/jpeg":
		return ".jpg"
	}
	if ext := strings.ToLower(path.Ext(filename)); ext != "" {
		return ext
	}
	return ".bin"
}
