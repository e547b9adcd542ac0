package lipidpanel

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a panel does not exist.
var ErrNotFound = errors.New("lipid panel not found")

// Repository is the storage contract for lipid panels.
// Implementations exist for Postgres and SQLite.
type Repository interface {
	Create(ctx context.Context, p *Panel) error
	GetByID(ctx context.Context, id uuid.UUID) (*Panel, error)
	Update(ctx context.Context, p *Panel) error
	Delete(ctx context.Context, id uuid.UUID) error
	// ListByUser returns panels newest first plus the total count.
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Panel, int, error)
	// Latest returns the most recent panel by collection time.
	Latest(ctx context.Context, userID uuid.UUID) (*Panel, error)
}
