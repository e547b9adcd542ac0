package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/cardio/cardio/internal/domain/readings"
)

type readingRepo struct {
	db *sql.DB
}

const readingCols = `id, user_id, systolic, diastolic, note, recorded_at, created_at, updated_at`

func scanReading(row rowScanner) (*readings.Reading, error) {
	var rd readings.Reading
	err := row.Scan(&rd.ID, &rd.UserID, &rd.Systolic, &rd.Diastolic, &rd.Note,
		&rd.RecordedAt, &rd.CreatedAt, &rd.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, readings.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rd, nil
}

func (r *readingRepo) Create(ctx context.Context, rd *readings.Reading) error {
	rd.ID = uuid.New()
	now := time.Now().UTC()
	rd.CreatedAt = now
	rd.UpdatedAt = now
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO bp_reading (id, user_id, systolic, diastolic, note, recorded_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, rd.ID, rd.UserID, rd.Systolic, rd.Diastolic, rd.Note, rd.RecordedAt, rd.CreatedAt, rd.UpdatedAt)
	return err
}

func (r *readingRepo) GetByID(ctx context.Context, id uuid.UUID) (*readings.Reading, error) {
	return scanReading(r.db.QueryRowContext(ctx, `
		SELECT `+readingCols+` FROM bp_reading WHERE id = ?
	`, id))
}

func (r *readingRepo) Update(ctx context.Context, rd *readings.Reading) error {
	rd.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		UPDATE bp_reading SET systolic = ?, diastolic = ?, note = ?, recorded_at = ?, updated_at = ?
		WHERE id = ?
	`, rd.Systolic, rd.Diastolic, rd.Note, rd.RecordedAt, rd.UpdatedAt, rd.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return readings.ErrNotFound
	}
	return nil
}

func (r *readingRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM bp_reading WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return readings.ErrNotFound
	}
	return nil
}

func (r *readingRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*readings.Reading, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bp_reading WHERE user_id = ?`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+readingCols+` FROM bp_reading WHERE user_id = ?
		ORDER BY recorded_at DESC LIMIT ? OFFSET ?
	`, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*readings.Reading
	for rows.Next() {
		rd, err := scanReading(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, rd)
	}
	return items, total, rows.Err()
}

func (r *readingRepo) ListSince(ctx context.Context, userID uuid.UUID, since time.Time, limit, offset int) ([]*readings.Reading, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM bp_reading WHERE user_id = ? AND recorded_at >= ?
	`, userID, since).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+readingCols+` FROM bp_reading WHERE user_id = ? AND recorded_at >= ?
		ORDER BY recorded_at DESC LIMIT ? OFFSET ?
	`, userID, since, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*readings.Reading
	for rows.Next() {
		rd, err := scanReading(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, rd)
	}
	return items, total, rows.Err()
}

func (r *readingRepo) Latest(ctx context.Context, userID uuid.UUID) (*readings.Reading, error) {
	return scanReading(r.db.QueryRowContext(ctx, `
		SELECT `+readingCols+` FROM bp_reading WHERE user_id = ?
		ORDER BY recorded_at DESC LIMIT 1
	`, userID))
}

func (r *readingRepo) Window(ctx context.Context, userID uuid.UUID, n int) ([]*readings.Reading, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+readingCols+` FROM bp_reading WHERE user_id = ?
		ORDER BY recorded_at DESC LIMIT ?
	`, userID, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*readings.Reading
	for rows.Next() {
		rd, err := scanReading(rows)
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
