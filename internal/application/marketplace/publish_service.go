package marketplace

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/intellipost/backend/internal/domain/content"
	"github.com/intellipost/backend/internal/domain/product"
	"github.com/intellipost/backend/internal/domain/shared"
	"github.com/intellipost/backend/internal/infrastructure/logger"
	"github.com/intellipost/backend/internal/infrastructure/storage"
)

// PublishService pushes a ready product to the marketplace
type PublishService struct {
	products    product.Repository
	contents    content.Repository
	connections *ConnectionService
	api         APIClient
	storage     storage.ObjectStorage
	events      shared.EventPublisher
}

// NewPublishService creates a PublishService
func NewPublishService(
	products product.Repository,
	contents content.Repository,
	connections *ConnectionService,
	api APIClient,
	store storage.ObjectStorage,
	events shared.EventPublisher,
) *PublishService {
	return &PublishService{
		products:    products,
		contents:    contents,
		connections: connections,
		api:         api,
		storage:     store,
		events:      events,
	}
}

// Publish creates the marketplace listing for a ready product using
// its latest content version
func (s *PublishService) Publish(ctx context.Context, userID, productID uuid.UUID) (*product.Product, error) {
	p, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !p.OwnedBy(userID) {
		return nil, shared.ErrForbidden
	}

	c, err := s.contents.FindLatestByProduct(ctx, productID)
	if err != nil {
		if err == shared.ErrNotFound {
			return nil, shared.NewDomainError("NO_CONTENT", "Product has no generated content yet")
		}
		return nil, err
	}

	creds, err := s.connections.FreshAccessToken(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := p.StartPublishing(); err != nil {
		return nil, err
	}
	if err := s.products.Update(ctx, p); err != nil {
		return nil, err
	}

	pictures, err := s.listingPictures(ctx, p)
	if err != nil {
		s.markFailed(ctx, p, err.Error())
		return p, nil
	}

	result, err := s.api.PublishItem(ctx, creds.AccessToken, ListingRequest{
		Site:        creds.Site,
		Title:       c.Title,
		Description: c.Description,
		CategoryID:  c.CategoryID,
		PriceCents:  p.PriceCents,
		Currency:    p.Currency,
		Attributes:  c.Attributes,
		Pictures:    pictures,
	})
	if err != nil {
		logger.L(ctx).Error("publish listing failed",
			zap.String("product_id", p.ID.String()),
			zap.Error(err),
		)
		s.markFailed(ctx, p, "marketplace rejected the listing: "+err.Error())
		return p, nil
	}

	if err := p.MarkPublished(result.ItemID); err != nil {
		return nil, err
	}
	if err := s.products.Update(ctx, p); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, p)

	logger.L(ctx).Info("product published",
		zap.String("product_id", p.ID.String()),
		zap.String("listing_id", result.ItemID),
	)
	return p, nil
}

// listingPictures presigns download URLs for the processed images so
// the marketplace can fetch them
func (s *PublishService) listingPictures(ctx context.Context, p *product.Product) ([]ListingPicture, error) {
	pictures := make([]ListingPicture, 0, len(p.Images))

	// primary image first, marketplace uses the first as the cover
	if primary := p.PrimaryImage(); primary != nil {
		url, err := s.storage.PresignDownload(ctx, primary.BestKey())
		if err != nil {
			return nil, err
		}
		pictures = append(pictures, ListingPicture{Source: url})
	}
	for i := range p.Images {
		img := &p.Images[i]
		if img.IsPrimary {
			continue
		}
		url, err := s.storage.PresignDownload(ctx, img.BestKey())
		if err != nil {
			return nil, err
		}
		pictures = append(pictures, ListingPicture{Source: url})
	}
	return pictures, nil
}

func (s *PublishService) markFailed(ctx context.Context, p *product.Product, cause string) {
	if err := p.MarkFailed(cause); err != nil {
		return
	}
	if err := s.products.Update(ctx, p); err != nil {
		logger.L(ctx).Error("persist publish failure", zap.Error(err))
	}
	s.publishEvents(ctx, p)
}

func (s *PublishService) publishEvents(ctx context.Context, p *product.Product) {
	events := p.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.events.Publish(ctx, events...); err != nil {
		logger.L(ctx).Warn("publish domain events", zap.Error(err))
	}
	p.ClearDomainEvents()
}

// TokenRefreshJob adapts RefreshExpiring to the scheduler
type TokenRefreshJob struct {
	connections *ConnectionService
	batchSize   int
}

// NewTokenRefreshJob creates a TokenRefreshJob
func NewTokenRefreshJob(connections *ConnectionService, batchSize int) *TokenRefreshJob {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &TokenRefreshJob{connections: connections, batchSize: batchSize}
}

// Name identifies the job in logs
func (j *TokenRefreshJob) Name() string {
	return "ml-token-refresh"
}

// Run refreshes connections that are close to expiry
func (j *TokenRefreshJob) Run(ctx context.Context) error {
	return j.connections.RefreshExpiring(ctx, j.batchSize)
}
