package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/cardio/cardio/internal/domain/profile"
)

type profileRepo struct {
	db *sql.DB
}

func (r *profileRepo) Get(ctx context.Context, userID uuid.UUID) (*profile.Profile, error) {
	var p profile.Profile
	err := r.db.QueryRowContext(ctx, `
		SELECT user_id, age, sex, on_hypertension_treatment, smoker, diabetic, updated_at
		FROM risk_profile WHERE user_id = ?
	`, userID).Scan(&p.UserID, &p.Age, &p.Sex, &p.OnHypertensionTreatment, &p.Smoker, &p.Diabetic, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, profile.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *profileRepo) Upsert(ctx context.Context, p *profile.Profile) error {
	p.UpdatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO risk_profile (user_id, age, sex, on_hypertension_treatment, smoker, diabetic, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, p.UserID, p.Age, p.Sex, p.OnHypertensionTreatment, p.Smoker, p.Diabetic, p.UpdatedAt)
	return err
}
