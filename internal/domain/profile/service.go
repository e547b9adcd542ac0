package profile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cardio/cardio/internal/domain/lipidpanel"
	"github.com/cardio/cardio/internal/domain/readings"
	"github.com/cardio/cardio/internal/engine/risk"
)

// IncompleteError reports why a risk assessment cannot run yet. The API maps
// it to 422 so clients can show the reason instead of a score.
type IncompleteError struct {
	Reason string
}

func (e *IncompleteError) Error() string { return e.Reason }

// ReadingSource supplies the latest blood-pressure reading for assessments.
type ReadingSource interface {
	Latest(ctx context.Context, userID uuid.UUID) (*readings.Reading, error)
}

// PanelSource supplies the latest lipid panel for assessments.
type PanelSource interface {
	Latest(ctx context.Context, userID uuid.UUID) (*lipidpanel.Panel, error)
}

// EventSink receives assessment notifications. Implementations must
// not block; publishing happens inline on the request path.
type EventSink interface {
	AssessmentCompleted(ctx context.Context, userID uuid.UUID, a Assessment)
}

// Service owns profile storage and risk assessment. An assessment is
// assembled on demand from the stored profile, the latest lipid panel and
// the latest reading; nothing about it is persisted.
type Service struct {
	repo     Repository
	readings ReadingSource
	panels   PanelSource
	events   EventSink
}

// NewService wires a profile service. events may be nil.
func NewService(repo Repository, readings ReadingSource, panels PanelSource, events EventSink) *Service {
	return &Service{repo: repo, readings: readings, panels: panels, events: events}
}

func validate(p *Profile) error {
	if p.UserID == uuid.Nil {
		return fmt.Errorf("user_id is required")
	}
	if p.Age <= 0 {
		return fmt.Errorf("age must be positive")
	}
	if p.Sex != risk.SexMale && p.Sex != risk.SexFemale {
		return fmt.Errorf("sex must be male or female")
	}
	return nil
}

// Get returns the user's stored profile.
func (s *Service) Get(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	return s.repo.Get(ctx, userID)
}

// Upsert validates and stores the user's profile, replacing any previous one.
func (s *Service) Upsert(ctx context.Context, p *Profile) error {
	if err := validate(p); err != nil {
		return err
	}
	return s.repo.Upsert(ctx, p)
}

// Assess assembles the risk-model inputs and runs both models. It returns an
// IncompleteError when the profile, panel or reading needed to feed the
// models is missing or out of the models' input domain.
func (s *Service) Assess(ctx context.Context, userID uuid.UUID) (Assessment, error) {
	prof, err := s.repo.Get(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return Assessment{}, &IncompleteError{Reason: "risk profile not set"}
	}
	if err != nil {
		return Assessment{}, err
	}

	panel, err := s.panels.Latest(ctx, userID)
	if errors.Is(err, lipidpanel.ErrNotFound) {
		return Assessment{}, &IncompleteError{Reason: "no lipid panel recorded"}
	}
	if err != nil {
		return Assessment{}, err
	}

	reading, err := s.readings.Latest(ctx, userID)
	if errors.Is(err, readings.ErrNotFound) {
		return Assessment{}, &IncompleteError{Reason: "no blood pressure reading recorded"}
	}
	if err != nil {
		return Assessment{}, err
	}

	inputs := risk.Profile{
		Age:                     prof.Age,
		Sex:                     prof.Sex,
		TotalCholesterol:        panel.TotalCholesterol,
		HDL:                     panel.HDL,
		SystolicBP:              reading.Systolic,
		OnHypertensionTreatment: prof.OnHypertensionTreatment,
		Smoker:                  prof.Smoker,
		Diabetic:                prof.Diabetic,
	}
	if !inputs.IsComplete() {
		if inputs.Age < risk.MinAge || inputs.Age > risk.MaxAge {
			return Assessment{}, &IncompleteError{
				Reason: fmt.Sprintf("age %d is outside the supported %d-%d range", inputs.Age, risk.MinAge, risk.MaxAge),
			}
		}
		return Assessment{}, &IncompleteError{Reason: "lipid panel is missing positive cholesterol values"}
	}

	a := Assessment{
		Inputs:      inputs,
		TenYear:     risk.TenYear(inputs),
		ThirtyYear:  risk.ThirtyYear(inputs),
		GeneratedAt: time.Now().UTC(),
	}
	if s.events != nil {
		s.events.AssessmentCompleted(ctx, userID, a)
	}
	return a, nil
}
