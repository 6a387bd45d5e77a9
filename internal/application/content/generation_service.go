package content

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appmarketplace "github.com/intellipost/backend/internal/application/marketplace"
	"github.com/intellipost/backend/internal/domain/content"
	"github.com/intellipost/backend/internal/domain/marketplace"
	"github.com/intellipost/backend/internal/domain/product"
	"github.com/intellipost/backend/internal/domain/shared"
	"github.com/intellipost/backend/internal/domain/user"
	"github.com/intellipost/backend/internal/infrastructure/logger"
	"github.com/intellipost/backend/internal/infrastructure/storage"
)

// GenerationService runs the content pipeline: normalize photos,
// remove backgrounds, generate listing content and store the result.
// It subscribes to processing events so the HTTP request that queued a
// product returns immediately.
type GenerationService struct {
	products    product.Repository
	contents    content.Repository
	users       user.Repository
	credentials marketplace.Repository
	storage     storage.ObjectStorage
	generator   Generator
	remover     BackgroundRemover
	processor   ImageProcessor
	mlAPI       appmarketplace.APIClient
	events      shared.EventPublisher
	logger      *zap.Logger
}

// NewGenerationService creates a GenerationService
func NewGenerationService(
	products product.Repository,
	contents content.Repository,
	users user.Repository,
	credentials marketplace.Repository,
	store storage.ObjectStorage,
	generator Generator,
	remover BackgroundRemover,
	processor ImageProcessor,
	mlAPI appmarketplace.APIClient,
	events shared.EventPublisher,
	log *zap.Logger,
) *GenerationService {
	if log == nil {
		log = zap.NewNop()
	}
	return &GenerationService{
		products:    products,
		contents:    contents,
		users:       users,
		credentials: credentials,
		storage:     store,
		generator:   generator,
		remover:     remover,
		processor:   processor,
		mlAPI:       mlAPI,
		events:      events,
		logger:      log,
	}
}

var _ shared.EventHandler = (*GenerationService)(nil)

// EventTypes subscribes the pipeline to processing kickoffs
func (s *GenerationService) EventTypes() []string {
	return []string{product.EventProcessingStarted}
}

// Handle runs the pipeline for a queued product
func (s *GenerationService) Handle(ctx context.Context, e shared.DomainEvent) error {
	ctx = logger.WithLogger(ctx, s.logger)
	return s.Run(ctx, e.AggregateID())
}

// Run executes the full pipeline for one product. Failures mark the
// product failed with a cause instead of returning an error, so the
// event bus does not retry half-completed work.
func (s *GenerationService) Run(ctx context.Context, productID uuid.UUID) error {
	p, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return err
	}
	if p.Status != product.StatusProcessing {
		logger.L(ctx).Debug("skipping pipeline, product not in processing",
			zap.String("product_id", productID.String()),
			zap.String("status", string(p.Status)),
		)
		return nil
	}

	owner, err := s.users.FindByID(ctx, p.UserID)
	if err != nil {
		return err
	}

	if err := s.pipeline(ctx, p, owner); err != nil {
		logger.L(ctx).Error("generation pipeline failed",
			zap.String("product_id", p.ID.String()),
			zap.Error(err),
		)
		if ferr := p.MarkFailed(err.Error()); ferr == nil {
			if uerr := s.products.Update(ctx, p); uerr != nil {
				logger.L(ctx).Error("persist failure state", zap.Error(uerr))
			}
			s.publishEvents(ctx, p)
		}
		return nil
	}

	if err := p.MarkReady(); err != nil {
		return err
	}
	if err := s.products.Update(ctx, p); err != nil {
		return err
	}
	s.publishEvents(ctx, p)
	logger.L(ctx).Info("product ready", zap.String("product_id", p.ID.String()))
	return nil
}

func (s *GenerationService) pipeline(ctx context.Context, p *product.Product, owner *user.User) error {
	inputs := make([]ImageInput, 0, len(p.Images))

	for i := range p.Images {
		img := &p.Images[i]

		original, err := s.storage.Get(ctx, img.OriginalKey)
		if err != nil {
			return fmt.Errorf("fetch original %s: %w", img.Filename, err)
		}

		normalized, width, height, err := s.processor.Normalize(original)
		if err != nil {
			return fmt.Errorf("normalize %s: %w", img.Filename, err)
		}

		processed, err := s.remover.RemoveBackground(ctx, normalized, "image/jpeg")
		if err != nil {
			return fmt.Errorf("remove background %s: %w", img.Filename, err)
		}

		processedKey := fmt.Sprintf("products/%s/processed/%s.png", p.ID, img.ID)
		if err := s.storage.Put(ctx, processedKey, "image/png", processed); err != nil {
			return fmt.Errorf("store processed %s: %w", img.Filename, err)
		}
		img.SetProcessed(processedKey, width, height)

		if thumb, err := s.processor.Thumbnail(normalized); err == nil {
			thumbKey := fmt.Sprintf("products/%s/thumb/%s.jpg", p.ID, img.ID)
			if err := s.storage.Put(ctx, thumbKey, "image/jpeg", thumb); err == nil {
				img.SetThumbnail(thumbKey)
			}
		}

		inputs = append(inputs, ImageInput{MimeType: "image/jpeg", Data: normalized})
	}

	site, accessToken := s.sellerSite(ctx, p.UserID)

	result, err := s.generator.Generate(ctx, GenerationRequest{
		Prompt:        p.Prompt,
		DefaultPrompt: owner.DefaultPrompt,
		Site:          string(site),
		Images:        inputs,
	})
	if err != nil {
		return fmt.Errorf("generate content: %w", err)
	}

	generation, err := s.contents.NextGeneration(ctx, p.ID)
	if err != nil {
		return err
	}

	c, err := content.New(p.ID, generation, result.Title, result.Description)
	if err != nil {
		return err
	}
	c.SetAttributes(result.Attributes)
	c.SetConfidence(result.Confidence)
	c.SetUsage(result.Model, result.PromptTokens, result.OutputTokens)

	if accessToken != "" {
		if pred, err := s.mlAPI.PredictCategory(ctx, accessToken, site, c.Title); err == nil {
			c.SetCategory(pred.ID, pred.Name)
		} else {
			logger.L(ctx).Warn("category prediction failed", zap.Error(err))
			c.SetCategory("", result.CategoryName)
		}
	} else {
		c.SetCategory("", result.CategoryName)
	}

	return s.contents.Save(ctx, c)
}

// sellerSite resolves the seller's marketplace site and access token,
// defaulting to Argentina for unconnected accounts
func (s *GenerationService) sellerSite(ctx context.Context, userID uuid.UUID) (marketplace.Site, string) {
	creds, err := s.credentials.FindByUser(ctx, userID)
	if err != nil || creds.IsExpired() {
		return marketplace.SiteArgentina, ""
	}
	return creds.Site, creds.AccessToken
}

// Latest returns the newest content version for a product
func (s *GenerationService) Latest(ctx context.Context, userID, productID uuid.UUID) (*content.GeneratedContent, error) {
	if _, err := s.ownedProduct(ctx, userID, productID); err != nil {
		return nil, err
	}
	return s.contents.FindLatestByProduct(ctx, productID)
}

// Versions returns every generation for a product, newest first
func (s *GenerationService) Versions(ctx context.Context, userID, productID uuid.UUID) ([]*content.GeneratedContent, error) {
	if _, err := s.ownedProduct(ctx, userID, productID); err != nil {
		return nil, err
	}
	return s.contents.ListByProduct(ctx, productID)
}

// Edit applies seller changes to the latest content version
func (s *GenerationService) Edit(ctx context.Context, userID, productID uuid.UUID, title, description string) (*content.GeneratedContent, error) {
	if _, err := s.ownedProduct(ctx, userID, productID); err != nil {
		return nil, err
	}
	c, err := s.contents.FindLatestByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if err := c.Edit(title, description); err != nil {
		return nil, err
	}
	if err := s.contents.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Approve accepts the latest content version for publishing
func (s *GenerationService) Approve(ctx context.Context, userID, productID uuid.UUID) (*content.GeneratedContent, error) {
	if _, err := s.ownedProduct(ctx, userID, productID); err != nil {
		return nil, err
	}
	c, err := s.contents.FindLatestByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	c.Approve()
	if err := s.contents.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GenerationService) ownedProduct(ctx context.Context, userID, productID uuid.UUID) (*product.Product, error) {
	p, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !p.OwnedBy(userID) {
		return nil, shared.ErrForbidden
	}
	return p, nil
}

func (s *GenerationService) publishEvents(ctx context.Context, p *product.Product) {
	events := p.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.events.Publish(ctx, events...); err != nil {
		logger.L(ctx).Warn("publish domain events", zap.Error(err))
	}
	p.ClearDomainEvents()
}
