package marketplace

import (
	"context"

	"github.com/google/uuid"
)

// Repository provides persistence for marketplace credentials
type Repository interface {
	Save(ctx context.Context, c *Credentials) error
	Update(ctx context.Context, c *Credentials) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByUser(ctx context.Context, userID uuid.UUID) (*Credentials, error)
	ListExpiring(ctx context.Context, limit int) ([]*Credentials, error)
}
