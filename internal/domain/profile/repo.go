package profile

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a user has no stored profile.
var ErrNotFound = errors.New("risk profile not found")

// Repository is the storage contract for risk profiles. Each user holds at
// most one profile, so writes are upserts.
type Repository interface {
	Get(ctx context.Context, userID uuid.UUID) (*Profile, error)
	Upsert(ctx context.Context, p *Profile) error
}
