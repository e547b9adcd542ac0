package readings

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

// NewRepoPG returns a Postgres-backed reading repository.
func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const readingCols = `id, user_id, systolic, diastolic, note, recorded_at, created_at, updated_at`

func (r *repoPG) scan(row pgx.Row) (*Reading, error) {
	var rd Reading
	err := row.Scan(&rd.ID, &rd.UserID, &rd.Systolic, &rd.Diastolic, &rd.Note,
		&rd.RecordedAt, &rd.CreatedAt, &rd.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &rd, err
}

func (r *repoPG) Create(ctx context.Context, rd *Reading) error {
	rd.ID = uuid.New()
	return r.pool.QueryRow(ctx, `
		INSERT INTO bp_reading (id, user_id, systolic, diastolic, note, recorded_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING created_at, updated_at`,
		rd.ID, rd.UserID, rd.Systolic, rd.Diastolic, rd.Note, rd.RecordedAt).
		Scan(&rd.CreatedAt, &rd.UpdatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Reading, error) {
	return r.scan(r.pool.QueryRow(ctx, `SELECT `+readingCols+` FROM bp_reading WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, rd *Reading) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE bp_reading SET systolic=$2, diastolic=$3, note=$4, recorded_at=$5, updated_at=NOW()
		WHERE id = $1`,
		rd.ID, rd.Systolic, rd.Diastolic, rd.Note, rd.RecordedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM bp_reading WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Reading, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM bp_reading WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+readingCols+` FROM bp_reading WHERE user_id = $1 ORDER BY recorded_at DESC LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Reading
	for rows.Next() {
		rd, err := r.scan(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, rd)
	}
	return items, total, rows.Err()
}

func (r *repoPG) ListSince(ctx context.Context, userID uuid.UUID, since time.Time, limit, offset int) ([]*Reading, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM bp_reading WHERE user_id = $1 AND recorded_at >= $2`, userID, since).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+readingCols+` FROM bp_reading WHERE user_id = $1 AND recorded_at >= $2 ORDER BY recorded_at DESC LIMIT $3 OFFSET $4`, userID, since, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Reading
	for rows.Next() {
		rd, err := r.scan(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, rd)
	}
	return items, total, rows.Err()
}

func (r *repoPG) Latest(ctx context.Context, userID uuid.UUID) (*Reading, error) {
	return r.scan(r.pool.QueryRow(ctx, `SELECT `+readingCols+` FROM bp_reading WHERE user_id = $1 ORDER BY recorded_at DESC LIMIT 1`, userID))
}

func (r *repoPG) Window(ctx context.Context, userID uuid.UUID, n int) ([]*Reading, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+readingCols+` FROM bp_reading WHERE user_id = $1 ORDER BY recorded_at DESC LIMIT $2`, userID, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Reading
	for rows.Next() {
		rd, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, rd)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Query walks newest first; reverse so callers get oldest first.
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	return items, nil
}
