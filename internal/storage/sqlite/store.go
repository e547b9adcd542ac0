// Package sqlite backs the domain repositories with an embedded SQLite
// database for local single-user deployments.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/cardio/cardio/internal/domain/lipidpanel"
	"github.com/cardio/cardio/internal/domain/profile"
	"github.com/cardio/cardio/internal/domain/readings"
)

// Store owns the database handle and hands out per-domain repositories.
type Store struct {
	db *sql.DB
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// NewMemoryStore creates an in-memory store. Used heavily in tests.
func NewMemoryStore() (*Store, error) {
	return newStore(":memory:")
}

// NewFileStore creates a file-based store at the given path.
func NewFileStore(path string) (*Store, error) {
	return newStore(path)
}

func newStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return store, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Readings returns the blood-pressure reading repository.
func (s *Store) Readings() readings.Repository {
	return &readingRepo{db: s.db}
}

// Panels returns the lipid-panel repository.
func (s *Store) Panels() lipidpanel.Repository {
	return &panelRepo{db: s.db}
}

// Profiles returns the risk-profile repository.
func (s *Store) Profiles() profile.Repository {
	return &profileRepo{db: s.db}
}
