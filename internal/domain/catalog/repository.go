package catalog

import (
	"context"

	"github.com/google/uuid"
)

// CardRepository defines read access to the card catalog.
type CardRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Card, error)
	FindAll(ctx context.Context) ([]*Card, error)
	// FindByUserID returns the cards actively registered to a user.
	FindByUserID(ctx context.Context, userID uuid.UUID) ([]*Card, error)
}

// UserCardRepository defines persistence for card registrations.
type UserCardRepository interface {
	Save(ctx context.Context, uc *UserCard) error
	Update(ctx context.Context, uc *UserCard) error
	FindActive(ctx context.Context, userID, cardID uuid.UUID) (*UserCard, error)
	ExistsActive(ctx context.Context, userID, cardID uuid.UUID) (bool, error)
}
