package lipidpanel

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

// NewRepoPG returns a Postgres-backed panel repository.
func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const panelCols = `id, user_id, total_cholesterol, hdl, ldl_measured, triglycerides, collected_at, created_at, updated_at`

func (r *repoPG) scan(row pgx.Row) (*Panel, error) {
	var p Panel
	err := row.Scan(&p.ID, &p.UserID, &p.TotalCholesterol, &p.HDL, &p.LDLMeasured,
		&p.Triglycerides, &p.CollectedAt, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &p, err
}

func (r *repoPG) Create(ctx context.Context, p *Panel) error {
	p.ID = uuid.New()
	return r.pool.QueryRow(ctx, `
		INSERT INTO lipid_panel (id, user_id, total_cholesterol, hdl, ldl_measured, triglycerides, collected_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at, updated_at`,
		p.ID, p.UserID, p.TotalCholesterol, p.HDL, p.LDLMeasured, p.Triglycerides, p.CollectedAt).
		Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Panel, error) {
	return r.scan(r.pool.QueryRow(ctx, `SELECT `+panelCols+` FROM lipid_panel WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, p *Panel) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE lipid_panel SET total_cholesterol=$2, hdl=$3, ldl_measured=$4, triglycerides=$5, collected_at=$6, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.TotalCholesterol, p.HDL, p.LDLMeasured, p.Triglycerides, p.CollectedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM lipid_panel WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Panel, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM lipid_panel WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+panelCols+` FROM lipid_panel WHERE user_id = $1 ORDER BY collected_at DESC LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Panel
	for rows.Next() {
		p, err := r.scan(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

func (r *repoPG) Latest(ctx context.Context, userID uuid.UUID) (*Panel, error) {
	return r.scan(r.pool.QueryRow(ctx, `SELECT `+panelCols+` FROM lipid_panel WHERE user_id = $1 ORDER BY collected_at DESC LIMIT 1`, userID))
}
