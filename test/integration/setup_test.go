package integration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cardio/cardio/internal/domain/lipidpanel"
	"github.com/cardio/cardio/internal/domain/readings"
	"github.com/cardio/cardio/internal/platform/db"
)

// testDB holds the shared database infrastructure for integration tests.
type testDB struct {
	Pool          *pgxpool.Pool
	ConnStr       string
	MigrationsDir string
}

// globalDB is the package-level test database, initialized once in TestMain.
var globalDB *testDB

// TestMain starts a throwaway postgres container and applies all
// migrations. The suite needs Docker, so it only runs when
// CARDIO_INTEGRATION=1 is set.
func TestMain(m *testing.M) {
	if os.Getenv("CARDIO_INTEGRATION") != "1" {
		fmt.Println("skipping integration tests; set CARDIO_INTEGRATION=1 to run them")
		os.Exit(0)
	}

	ctx := context.Background()

	connStr, cleanup, err := startPostgresContainer(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start postgres container: %v\n", err)
		os.Exit(1)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		cleanup()
		fmt.Fprintf(os.Stderr, "failed to create pool: %v\n", err)
		os.Exit(1)
	}

	migrationsDir := findMigrationsDir()
	migrator := db.NewMigrator(pool, migrationsDir)
	if _, err := migrator.Up(ctx); err != nil {
		pool.Close()
		cleanup()
		fmt.Fprintf(os.Stderr, "failed to apply migrations: %v\n", err)
		os.Exit(1)
	}

	globalDB = &testDB{Pool: pool, ConnStr: connStr, MigrationsDir: migrationsDir}
	code := m.Run()
	pool.Close()
	cleanup()
	os.Exit(code)
}

// findMigrationsDir locates the migrations directory relative to this test file.
func findMigrationsDir() string {
	_, filename, _, _ := runtime.Caller(0)
	dir := filepath.Dir(filename)
	// test/integration -> repo root
	return filepath.Join(dir, "..", "..", "migrations")
}

// newUser returns a fresh user ID. Tests isolate on user scoping rather
// than truncation, matching how the API partitions data.
func newUser() uuid.UUID {
	return uuid.New()
}

// seedReading inserts a reading through the repository and fails the test
// on error.
func seedReading(t *testing.T, ctx context.Context, repo readings.Repository, userID uuid.UUID, systolic, diastolic int, at time.Time) *readings.Reading {
	t.Helper()
	rd := &readings.Reading{
		UserID:     userID,
		Systolic:   systolic,
		Diastolic:  diastolic,
		RecordedAt: at,
	}
	if err := repo.Create(ctx, rd); err != nil {
		t.Fatalf("seed reading: %v", err)
	}
	return rd
}

// seedPanel inserts a lipid panel through the repository and fails the
// test on error.
func seedPanel(t *testing.T, ctx context.Context, repo lipidpanel.Repository, userID uuid.UUID, tc, hdl float64, tg *float64, at time.Time) *lipidpanel.Panel {
	t.Helper()
	p := &lipidpanel.Panel{
		UserID:           userID,
		TotalCholesterol: tc,
		HDL:              hdl,
		Triglycerides:    tg,
		CollectedAt:      at,
	}
	if err := repo.Create(ctx, p); err != nil {
		t.Fatalf("seed panel: %v", err)
	}
	return p
}

// ptrStr returns a pointer to the given string.
func ptrStr(s string) *string { return &s }

// ptrFloat returns a pointer to the given float64.
func ptrFloat(f float64) *float64 { return &f }
