package readings

import (
	"time"

	"github.com/google/uuid"

	"github.com/cardio/cardio/internal/engine/trend"
	"github.com/cardio/cardio/internal/engine/vitals"
)

// Reading maps to the bp_reading table. Only the raw pair is stored;
// everything derived is recomputed from it on render and never persisted.
type Reading struct {
	ID         uuid.UUID `db:"id" json:"id"`
	UserID     uuid.UUID `db:"user_id" json:"user_id"`
	Systolic   int       `db:"systolic" json:"systolic"`
	Diastolic  int       `db:"diastolic" json:"diastolic"`
	Note       *string   `db:"note" json:"note,omitempty"`
	RecordedAt time.Time `db:"recorded_at" json:"recorded_at"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Derived is the computed view of a reading.
type Derived struct {
	PulsePressure           int                `json:"pulse_pressure"`
	MeanArterialPressure    float64            `json:"mean_arterial_pressure"`
	FractionalPulsePressure float64            `json:"fractional_pulse_pressure"`
	BPCategory              vitals.BPCategory  `json:"bp_category"`
	BPLabel                 string             `json:"bp_label"`
	BPGuidance              string             `json:"bp_guidance"`
	Urgent                  bool               `json:"urgent"`
	FPPCategory             vitals.FPPCategory `json:"fpp_category"`
	Interpretation          string             `json:"interpretation"`
}

// WithDerived pairs a stored reading with its computed values for API
// responses.
type WithDerived struct {
	Reading
	Derived Derived `json:"derived"`
}

// Derive computes the full derived view for the reading.
func (r *Reading) Derive() Derived {
	fpp := vitals.FractionalPulsePressure(r.Systolic, r.Diastolic)
	bp := vitals.ClassifyBP(r.Systolic, r.Diastolic)
	return Derived{
		PulsePressure:           vitals.PulsePressure(r.Systolic, r.Diastolic),
		MeanArterialPressure:    vitals.MeanArterialPressure(r.Systolic, r.Diastolic),
		FractionalPulsePressure: fpp,
		BPCategory:              bp,
		BPLabel:                 bp.Label(),
		BPGuidance:              bp.Description(),
		Urgent:                  bp.IsUrgent(),
		FPPCategory:             vitals.ClassifyFPP(fpp),
		Interpretation:          vitals.Interpret(fpp, bp),
	}
}

// WithDerived returns the reading paired with its derived view.
func (r *Reading) WithDerived() WithDerived {
	return WithDerived{Reading: *r, Derived: r.Derive()}
}

// TrendSample converts the reading into the pressure pair consumed by
// trend analysis.
func (r *Reading) TrendSample() trend.Sample {
	return trend.Sample{
		PulsePressure:        float64(vitals.PulsePressure(r.Systolic, r.Diastolic)),
		MeanArterialPressure: vitals.MeanArterialPressure(r.Systolic, r.Diastolic),
		Timestamp:            r.RecordedAt,
	}
}
