package profile

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

// NewRepoPG returns a Postgres-backed profile repository.
func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const profileCols = `user_id, age, sex, on_hypertension_treatment, smoker, diabetic, updated_at`

func (r *repoPG) Get(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	var p Profile
	err := r.pool.QueryRow(ctx, `SELECT `+profileCols+` FROM risk_profile WHERE user_id = $1`, userID).
		Scan(&p.UserID, &p.Age, &p.Sex, &p.OnHypertensionTreatment, &p.Smoker, &p.Diabetic, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repoPG) Upsert(ctx context.Context, p *Profile) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO risk_profile (user_id, age, sex, on_hypertension_treatment, smoker, diabetic)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (user_id) DO UPDATE SET
			age = EXCLUDED.age,
			sex = EXCLUDED.sex,
			on_hypertension_treatment = EXCLUDED.on_hypertension_treatment,
			smoker = EXCLUDED.smoker,
			diabetic = EXCLUDED.diabetic,
			updated_at = NOW()
		RETURNING updated_at`,
		p.UserID, p.Age, p.Sex, p.OnHypertensionTreatment, p.Smoker, p.Diabetic).
		Scan(&p.UpdatedAt)
}
