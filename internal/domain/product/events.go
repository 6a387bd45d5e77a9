package product

import (
	"github.com/google/uuid"

	"github.com/intellipost/backend/internal/domain/shared"
)

const (
	EventProductCreated    = "product.created"
	EventProcessingStarted = "product.processing_started"
	EventProductReady      = "product.ready"
	EventProductPublished  = "product.published"
	EventProductFailed     = "product.failed"
)

const aggregateType = "product"

// ProductCreatedEvent is raised when a seller starts a new listing
type ProductCreatedEvent struct {
	shared.BaseDomainEvent
}

// NewProductCreatedEvent creates a ProductCreatedEvent
func NewProductCreatedEvent(productID, userID uuid.UUID) *ProductCreatedEvent {
	return &ProductCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventProductCreated, aggregateType, productID, userID),
	}
}

// ProcessingStartedEvent is raised when the generation pipeline picks
// up a product
type ProcessingStartedEvent struct {
	shared.BaseDomainEvent
}

// NewProcessingStartedEvent creates a ProcessingStartedEvent
func NewProcessingStartedEvent(productID, userID uuid.UUID) *ProcessingStartedEvent {
	return &ProcessingStartedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventProcessingStarted, aggregateType, productID, userID),
	}
}

// ProductReadyEvent is raised when generated content is ready for review
type ProductReadyEvent struct {
	shared.BaseDomainEvent
}

// NewProductReadyEvent creates a ProductReadyEvent
func NewProductReadyEvent(productID, userID uuid.UUID) *ProductReadyEvent {
	return &ProductReadyEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventProductReady, aggregateType, productID, userID),
	}
}

// ProductPublishedEvent is raised when the listing goes live
type ProductPublishedEvent struct {
	shared.BaseDomainEvent
	ListingID string `json:"listing_id"`
}

// NewProductPublishedEvent creates a ProductPublishedEvent
func NewProductPublishedEvent(productID, userID uuid.UUID, listingID string) *ProductPublishedEvent {
	return &ProductPublishedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventProductPublished, aggregateType, productID, userID),
		ListingID:       listingID,
	}
}

// ProductFailedEvent is raised when processing or publishing fails
type ProductFailedEvent struct {
	shared.BaseDomainEvent
	Cause string `json:"cause"`
}

// NewProductFailedEvent creates a ProductFailedEvent
func NewProductFailedEvent(productID, userID uuid.UUID, cause string) *ProductFailedEvent {
	return &ProductFailedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventProductFailed, aggregateType, productID, userID),
		Cause:           cause,
	}
}
