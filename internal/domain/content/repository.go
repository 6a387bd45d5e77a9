package content

import (
	"context"

	"github.com/google/uuid"
)

// Repository provides persistence for generated content versions
type Repository interface {
	Save(ctx context.Context, c *GeneratedContent) error
	Update(ctx context.Context, c *GeneratedContent) error
	FindByID(ctx context.Context, id uuid.UUID) (*GeneratedContent, error)
	FindLatestByProduct(ctx context.Context, productID uuid.UUID) (*GeneratedContent, error)
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]*GeneratedContent, error)
	NextGeneration(ctx context.Context, productID uuid.UUID) (int, error)
}
