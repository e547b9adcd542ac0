package readings

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cardio/cardio/internal/engine/trend"
)

// Pressure sanity bounds in mmHg. The calculation engine stays total on
// any input; the service rejects values no cuff can produce before they
// reach storage.
const (
	MinPressure = 10
	MaxPressure = 400
)

// Default trend knobs, overridable per request.
const (
	DefaultTrendWindow = 14
	DefaultTrendMin    = 4
)

// EventSink receives reading lifecycle notifications. Implementations
// must not block; publishing happens inline on the request path.
type EventSink interface {
	ReadingCreated(ctx context.Context, r WithDerived)
	ReadingUrgent(ctx context.Context, r WithDerived)
}

// Service owns validation, orchestration, and event publication for
// blood-pressure readings.
type Service struct {
	repo        Repository
	events      EventSink
	trendWindow int
	trendMin    int
}

// NewService wires a reading service. events may be nil. Non-positive
// trend knobs fall back to the defaults.
func NewService(repo Repository, events EventSink, trendWindow, trendMin int) *Service {
	if trendWindow <= 0 {
		trendWindow = DefaultTrendWindow
	}
	if trendMin <= 0 {
		trendMin = DefaultTrendMin
	}
	return &Service{repo: repo, events: events, trendWindow: trendWindow, trendMin: trendMin}
}

func validate(rd *Reading) error {
	if rd.UserID == uuid.Nil {
		return fmt.Errorf("user_id is required")
	}
	if rd.Systolic < MinPressure || rd.Systolic > MaxPressure {
		return fmt.Errorf("systolic must be between %d and %d mmHg", MinPressure, MaxPressure)
	}
	if rd.Diastolic < MinPressure || rd.Diastolic > MaxPressure {
		return fmt.Errorf("diastolic must be between %d and %d mmHg", MinPressure, MaxPressure)
	}
	return nil
}

// Create validates and stores a reading, then publishes creation and,
// for hypertensive-crisis readings, urgency events.
func (s *Service) Create(ctx context.Context, rd *Reading) error {
	if err := validate(rd); err != nil {
		return err
	}
	if rd.RecordedAt.IsZero() {
		rd.RecordedAt = time.Now().UTC()
	}
	if err := s.repo.Create(ctx, rd); err != nil {
		return err
	}

	wd := rd.WithDerived()
	if s.events != nil {
		s.events.ReadingCreated(ctx, wd)
		if wd.Derived.Urgent {
			s.events.ReadingUrgent(ctx, wd)
		}
	}
	return nil
}

// Get returns a reading owned by the user. Readings belonging to someone
// else read as not found.
func (s *Service) Get(ctx context.Context, userID, id uuid.UUID) (*Reading, error) {
	rd, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rd.UserID != userID {
		return nil, ErrNotFound
	}
	return rd, nil
}

// Update replaces the mutable fields of an owned reading. A zero
// RecordedAt keeps the stored time.
func (s *Service) Update(ctx context.Context, userID uuid.UUID, rd *Reading) error {
	existing, err := s.Get(ctx, userID, rd.ID)
	if err != nil {
		return err
	}
	rd.UserID = existing.UserID
	if rd.RecordedAt.IsZero() {
		rd.RecordedAt = existing.RecordedAt
	}
	if err := validate(rd); err != nil {
		return err
	}
	return s.repo.Update(ctx, rd)
}

// Delete removes an owned reading.
func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// List returns the user's readings newest first plus the total count.
func (s *Service) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Reading, int, error) {
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

// Since returns the user's readings recorded at or after the given
// time, newest first, plus the matching count.
func (s *Service) Since(ctx context.Context, userID uuid.UUID, since time.Time, limit, offset int) ([]*Reading, int, error) {
	return s.repo.ListSince(ctx, userID, since, limit, offset)
}

// Latest returns the user's most recent reading.
func (s *Service) Latest(ctx context.Context, userID uuid.UUID) (*Reading, error) {
	return s.repo.Latest(ctx, userID)
}

// Trend runs trend analysis over the user's most recent readings.
// Non-positive window or min fall back to the service defaults.
func (s *Service) Trend(ctx context.Context, userID uuid.UUID, window, min int) (trend.Analysis, error) {
	if window <= 0 {
		window = s.trendWindow
	}
	if min <= 0 {
		min = s.trendMin
	}
	items, err := s.repo.Window(ctx, userID, window)
	if err != nil {
		return trend.Analysis{}, err
	}
	samples := make([]trend.Sample, len(items))
	for i, rd := range items {
		samples[i] = rd.TrendSample()
	}
	return trend.Analyze(samples, min), nil
}
