package lipidpanel

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cardio/cardio/internal/engine/units"
)

// EventSink receives panel lifecycle notifications. Implementations
// must not block; publishing happens inline on the request path.
type EventSink interface {
	PanelCreated(ctx context.Context, p WithDerived)
}

// Service owns lipid-panel business rules: validation, ownership checks and
// collection-time defaulting. Panels passing through it are canonical mg/dL.
type Service struct {
	repo   Repository
	events EventSink
}

// NewService wires a lipid-panel service. events may be nil.
func NewService(repo Repository, events EventSink) *Service {
	return &Service{repo: repo, events: events}
}

func validate(p *Panel) error {
	if p.UserID == uuid.Nil {
		return fmt.Errorf("user_id is required")
	}
	if p.TotalCholesterol <= 0 {
		return fmt.Errorf("total_cholesterol must be positive")
	}
	if p.HDL <= 0 {
		return fmt.Errorf("hdl must be positive")
	}
	if p.LDLMeasured != nil && *p.LDLMeasured <= 0 {
		return fmt.Errorf("ldl_measured must be positive when present")
	}
	if p.Triglycerides != nil && *p.Triglycerides <= 0 {
		return fmt.Errorf("triglycerides must be positive when present")
	}
	return nil
}

// Create validates and stores a panel, then publishes a creation event
// with the canonical derived view. A zero CollectedAt defaults to now.
func (s *Service) Create(ctx context.Context, p *Panel) error {
	if err := validate(p); err != nil {
		return err
	}
	if p.CollectedAt.IsZero() {
		p.CollectedAt = time.Now().UTC()
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return err
	}
	if s.events != nil {
		s.events.PanelCreated(ctx, p.WithDerived(units.MgDL))
	}
	return nil
}

// Get returns a panel owned by the user. Panels belonging to someone else
// read as not found.
func (s *Service) Get(ctx context.Context, userID, id uuid.UUID) (*Panel, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.UserID != userID {
		return nil, ErrNotFound
	}
	return p, nil
}

// Update replaces the mutable fields of an owned panel. A zero CollectedAt
// keeps the stored time.
func (s *Service) Update(ctx context.Context, userID uuid.UUID, p *Panel) error {
	existing, err := s.Get(ctx, userID, p.ID)
	if err != nil {
		return err
	}
	p.UserID = existing.UserID
	if p.CollectedAt.IsZero() {
		p.CollectedAt = existing.CollectedAt
	}
	if err := validate(p); err != nil {
		return err
	}
	return s.repo.Update(ctx, p)
}

// Delete removes an owned panel.
func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// List returns the user's panels newest first plus the total count.
func (s *Service) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Panel, int, error) {
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

// Latest returns the user's most recent panel.
func (s *Service) Latest(ctx context.Context, userID uuid.UUID) (*Panel, error) {
	return s.repo.Latest(ctx, userID)
}
