package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/cardio/cardio/internal/domain/lipidpanel"
)

type panelRepo struct {
	db *sql.DB
}

const panelCols = `id, user_id, total_cholesterol, hdl, ldl_measured, triglycerides, collected_at, created_at, updated_at`

func scanPanel(row rowScanner) (*lipidpanel.Panel, error) {
	var p lipidpanel.Panel
	err := row.Scan(&p.ID, &p.UserID, &p.TotalCholesterol, &p.HDL, &p.LDLMeasured,
		&p.Triglycerides, &p.CollectedAt, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, lipidpanel.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *panelRepo) Create(ctx context.Context, p *lipidpanel.Panel) error {
	p.ID = uuid.New()
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO lipid_panel (id, user_id, total_cholesterol, hdl, ldl_measured, triglycerides, collected_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.UserID, p.TotalCholesterol, p.HDL, p.LDLMeasured, p.Triglycerides, p.CollectedAt, p.CreatedAt, p.UpdatedAt)
	return err
}

func (r *panelRepo) GetByID(ctx context.Context, id uuid.UUID) (*lipidpanel.Panel, error) {
	return scanPanel(r.db.QueryRowContext(ctx, `
		SELECT `+panelCols+` FROM lipid_panel WHERE id = ?
	`, id))
}

func (r *panelRepo) Update(ctx context.Context, p *lipidpanel.Panel) error {
	p.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		UPDATE lipid_panel SET total_cholesterol = ?, hdl = ?, ldl_measured = ?, triglycerides = ?, collected_at = ?, updated_at = ?
		WHERE id = ?
	`, p.TotalCholesterol, p.HDL, p.LDLMeasured, p.Triglycerides, p.CollectedAt, p.UpdatedAt, p.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return lipidpanel.ErrNotFound
	}
	return nil
}

func (r *panelRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM lipid_panel WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return lipidpanel.ErrNotFound
	}
	return nil
}

func (r *panelRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*lipidpanel.Panel, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM lipid_panel WHERE user_id = ?`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+panelCols+` FROM lipid_panel WHERE user_id = ?
		ORDER BY collected_at DESC LIMIT ? OFFSET ?
	`, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*lipidpanel.Panel
	for rows.Next() {
		p, err := scanPanel(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

func (r *panelRepo) Latest(ctx context.Context, userID uuid.UUID) (*lipidpanel.Panel, error) {
	return scanPanel(r.db.QueryRowContext(ctx, `
		SELECT `+panelCols+` FROM lipid_panel WHERE user_id = ?
		ORDER BY collected_at DESC LIMIT 1
	`, userID))
}
