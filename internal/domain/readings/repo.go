package readings

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a reading does not exist.
var ErrNotFound = errors.New("reading not found")

// Repository is the storage contract for blood-pressure readings.
// Implementations exist for Postgres and SQLite.
type Repository interface {
	Create(ctx context.Context, r *Reading) error
	GetByID(ctx context.Context, id uuid.UUID) (*Reading, error)
	Update(ctx context.Context, r *Reading) error
	Delete(ctx context.Context, id uuid.UUID) error
	// ListByUser returns readings newest first plus the total count.
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Reading, int, error)
	// ListSince is ListByUser restricted to readings recorded at or
	// after since.
	ListSince(ctx context.Context, userID uuid.UUID, since time.Time, limit, offset int) ([]*Reading, int, error)
	// Latest returns the most recent reading by recorded time.
	Latest(ctx context.Context, userID uuid.UUID) (*Reading, error)
	// Window returns up to n of the most recent readings in chronological
	// order, oldest first, ready for trend analysis.
	Window(ctx context.Context, userID uuid.UUID, n int) ([]*Reading, error)
}
