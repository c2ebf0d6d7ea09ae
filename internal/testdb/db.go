// Package testdb provides utilities for database integration testing.
// It only depends on database/sql and the embedded migrations, not on
// specific store implementations.
package testdb

import (
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"

	"github.com/jcarver/taskhive/internal/platform/postgres/migrations"
)

// TestTimeout defines a default timeout for test database operations.
const TestTimeout = 5 * time.Second

// GetTestDatabaseURL returns the database URL for tests.
// It checks DATABASE_URL and TASKHIVE_TEST_DB_URL environment variables
// in that order, returning the first non-empty value.
func GetTestDatabaseURL() string {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		dbURL = os.Getenv("TASKHIVE_TEST_DB_URL")
	}
	return dbURL
}

// ShouldSkipDatabaseTest returns true if no database URL environment
// variable is set, indicating that integration tests should be skipped.
func ShouldSkipDatabaseTest() bool {
	return GetTestDatabaseURL() == ""
}

// GetTestDB opens a connection to the test database and ensures the schema
// is migrated. The connection is closed automatically during test cleanup.
// Tests should call ShouldSkipDatabaseTest first and skip when no database
// is configured.
func GetTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dbURL := GetTestDatabaseURL()
	require.NotEmpty(t, dbURL, "DATABASE_URL must be set for integration tests")

	db, err := sql.Open("pgx", dbURL)
	require.NoError(t, err, "Failed to open test database connection")
	t.Cleanup(func() {
		require.NoError(t, db.Close(), "Failed to close test database connection")
	})

	require.NoError(t, db.Ping(), "Failed to ping test database")

	setupSchema(t, db)
	return db
}

// setupSchema applies the embedded migrations to the test database.
func setupSchema(t *testing.T, db *sql.DB) {
	t.Helper()

	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(goose.NopLogger())
	require.NoError(t, goose.SetDialect("postgres"), "Failed to set migration dialect")
	require.NoError(t, goose.Up(db, "."), "Failed to run migrations")
}

// WithTx executes a test function within a transaction, rolling back after
// the function returns. This keeps tests isolated from each other and lets
// them run against a shared database without cleanup queries.
func WithTx(t *testing.T, db *sql.DB, fn func(t *testing.T, tx *sql.Tx)) {
	t.Helper()

	tx, err := db.Begin()
	require.NoError(t, err, "Failed to begin transaction")

	defer func() {
		err := tx.Rollback()
		if err != nil && !errors.Is(err, sql.ErrTxDone) {
			t.Errorf("Failed to roll back transaction: %v", err)
		}
	}()

	fn(t, tx)
}
