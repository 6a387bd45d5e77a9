package product

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/intellipost/backend/internal/domain/shared"
)

// Status represents the processing state of a product
type Status string

const (
	StatusUploading  Status = "uploading"
	StatusProcessing Status = "processing"
	StatusReady      Status = "ready"
	StatusPublishing Status = "publishing"
	StatusPublished  Status = "published"
	StatusFailed     Status = "failed"
)

const (
	MaxImages        = 8
	MaxImageBytes    = 10 << 20
	MaxPromptLength  = 500
	MaxPriceCents    = 999_999_999
	minPromptLength  = 3
)

// allowed transitions of the product state machine
var transitions = map[Status][]Status{
	StatusUploading:  {StatusProcessing, StatusFailed},
	StatusProcessing: {StatusReady, StatusFailed},
	StatusReady:      {StatusPublishing, StatusProcessing},
	StatusPublishing: {StatusPublished, StatusFailed},
	StatusFailed:     {StatusProcessing},
}

// Product is the listing aggregate. A seller uploads photos plus a short
// prompt, the pipeline generates the listing content, and the result is
// published to the marketplace.
type Product struct {
	shared.OwnedAggregateRoot
	Prompt       string
	PriceCents   int64
	Currency     string
	Status       Status
	FailureCause string
	Images       []Image
	ListingID    string
	PublishedAt  *time.Time
}

// New creates a product in uploading state
func New(userID uuid.UUID, prompt string, priceCents int64, currency string) (*Product, error) {
	prompt = strings.TrimSpace(prompt)
	if len(prompt) < minPromptLength {
		return nil, shared.NewDomainError("INVALID_PROMPT", "Prompt must be at least 3 characters")
	}
	if len(prompt) > MaxPromptLength {
		return nil, shared.NewDomainError("INVALID_PROMPT", "Prompt must be at most 500 characters")
	}
	if priceCents <= 0 || priceCents > MaxPriceCents {
		return nil, shared.NewDomainError("INVALID_PRICE", "Price must be positive")
	}
	if currency == "" {
		currency = "ARS"
	}

	p := &Product{
		OwnedAggregateRoot: shared.NewOwnedAggregateRoot(userID),
		Prompt:             prompt,
		PriceCents:         priceCents,
		Currency:           currency,
		Status:             StatusUploading,
	}
	p.AddDomainEvent(NewProductCreatedEvent(p.ID, userID))
	return p, nil
}

// AddImage attaches an uploaded image to the product. Only allowed while
// the product is still collecting uploads.
func (p *Product) AddImage(img Image) error {
	if p.Status != StatusUploading {
		return shared.ErrInvalidState
	}
	if len(p.Images) >= MaxImages {
		return shared.NewDomainError("TOO_MANY_IMAGES", "A product can have at most 8 images")
	}
	if err := img.Validate(); err != nil {
		return err
	}
	if len(p.Images) == 0 {
		img.IsPrimary = true
	}
	img.Position = len(p.Images)
	p.Images = append(p.Images, img)
	p.UpdatedAt = time.Now()
	return nil
}

// SetPrimaryImage marks the given image as the listing cover
func (p *Product) SetPrimaryImage(imageID uuid.UUID) error {
	found := false
	for i := range p.Images {
		if p.Images[i].ID == imageID {
			found = true
		}
	}
	if !found {
		return shared.ErrNotFound
	}
	for i := range p.Images {
		p.Images[i].IsPrimary = p.Images[i].ID == imageID
	}
	p.UpdatedAt = time.Now()
	return nil
}

// PrimaryImage returns the cover image, or nil when no images exist
func (p *Product) PrimaryImage() *Image {
	for i := range p.Images {
		if p.Images[i].IsPrimary {
			return &p.Images[i]
		}
	}
	return nil
}

// StartProcessing moves the product into the generation pipeline
func (p *Product) StartProcessing() error {
	if len(p.Images) == 0 {
		return shared.NewDomainError("NO_IMAGES", "At least one image is required")
	}
	if err := p.transition(StatusProcessing); err != nil {
		return err
	}
	p.FailureCause = ""
	p.AddDomainEvent(NewProcessingStartedEvent(p.ID, p.UserID))
	return nil
}

// MarkReady records that content generation completed
func (p *Product) MarkReady() error {
	if err := p.transition(StatusReady); err != nil {
		return err
	}
	p.AddDomainEvent(NewProductReadyEvent(p.ID, p.UserID))
	return nil
}

// StartPublishing moves the product into the marketplace publish flow
func (p *Product) StartPublishing() error {
	return p.transition(StatusPublishing)
}

// MarkPublished records the marketplace listing reference
func (p *Product) MarkPublished(listingID string) error {
	if listingID == "" {
		return shared.NewDomainError("INVALID_INPUT", "Listing ID is required")
	}
	if err := p.transition(StatusPublished); err != nil {
		return err
	}
	now := time.Now()
	p.ListingID = listingID
	p.PublishedAt = &now
	p.AddDomainEvent(NewProductPublishedEvent(p.ID, p.UserID, listingID))
	return nil
}

// MarkFailed records a pipeline or publish failure with its cause
func (p *Product) MarkFailed(cause string) error {
	if err := p.transition(StatusFailed); err != nil {
		return err
	}
	p.FailureCause = cause
	p.AddDomainEvent(NewProductFailedEvent(p.ID, p.UserID, cause))
	return nil
}

// Retry returns a failed or ready product to the processing state
func (p *Product) Retry() error {
	if p.Status != StatusFailed && p.Status != StatusReady {
		return shared.ErrInvalidState
	}
	if err := p.transition(StatusProcessing); err != nil {
		return err
	}
	p.FailureCause = ""
	p.AddDomainEvent(NewProcessingStartedEvent(p.ID, p.UserID))
	return nil
}

// UpdatePrompt replaces the generation prompt. Only allowed before the
// product has been published.
func (p *Product) UpdatePrompt(prompt string) error {
	if p.Status == StatusPublished || p.Status == StatusPublishing {
		return shared.ErrInvalidState
	}
	prompt = strings.TrimSpace(prompt)
	if len(prompt) < minPromptLength || len(prompt) > MaxPromptLength {
		return shared.NewDomainError("INVALID_PROMPT", "Prompt must be between 3 and 500 characters")
	}
	p.Prompt = prompt
	p.UpdatedAt = time.Now()
	return nil
}

// UpdatePrice replaces the listing price. Only allowed before publishing.
func (p *Product) UpdatePrice(priceCents int64, currency string) error {
	if p.Status == StatusPublished || p.Status == StatusPublishing {
		return shared.ErrInvalidState
	}
	if priceCents <= 0 || priceCents > MaxPriceCents {
		return shared.NewDomainError("INVALID_PRICE", "Price must be positive")
	}
	p.PriceCents = priceCents
	if currency != "" {
		p.Currency = currency
	}
	p.UpdatedAt = time.Now()
	return nil
}

// CanDelete reports whether the product may be removed
func (p *Product) CanDelete() bool {
	return p.Status != StatusPublishing
}

func (p *Product) transition(to Status) error {
	for _, allowed := range transitions[p.Status] {
		if allowed == to {
			p.Status = to
			p.UpdatedAt = time.Now()
			return nil
		}
	}
	return shared.NewDomainError("INVALID_TRANSITION",
		"Cannot move product from "+string(p.Status)+" to "+string(to))
}
