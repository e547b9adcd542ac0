package profile

import (
	"time"

	"github.com/google/uuid"

	"github.com/cardio/cardio/internal/engine/risk"
)

// Profile stores the demographic and risk-factor fields that feed the risk
// models. Cholesterol values are not stored here; assessments pull them from
// the user's latest lipid panel.
type Profile struct {
	UserID                  uuid.UUID `db:"user_id" json:"user_id"`
	Age                     int       `db:"age" json:"age"`
	Sex                     risk.Sex  `db:"sex" json:"sex"`
	OnHypertensionTreatment bool      `db:"on_hypertension_treatment" json:"on_hypertension_treatment"`
	Smoker                  bool      `db:"smoker" json:"smoker"`
	Diabetic                bool      `db:"diabetic" json:"diabetic"`
	UpdatedAt               time.Time `db:"updated_at" json:"updated_at"`
}

// Assessment is the combined risk view: the inputs assembled from the stored
// profile, latest lipid panel and latest reading, plus both model outputs.
type Assessment struct {
	Inputs      risk.Profile `json:"inputs"`
	TenYear     risk.Result  `json:"ten_year"`
	ThirtyYear  risk.Result  `json:"thirty_year"`
	GeneratedAt time.Time    `json:"generated_at"`
}
