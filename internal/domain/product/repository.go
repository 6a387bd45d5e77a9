package product

import (
	"context"

	"github.com/google/uuid"
)

// ListFilter narrows List results
type ListFilter struct {
	Status   Status
	Page     int
	PageSize int
}

// Repository provides persistence for the product aggregate
type Repository interface {
	Save(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	ListByUser(ctx context.Context, userID uuid.UUID, filter ListFilter) ([]*Product, int64, error)
	CountByStatus(ctx context.Context, userID uuid.UUID) (map[Status]int64, error)
}
