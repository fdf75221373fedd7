package testutil

import (
	"database/sql"
	"testing"

	"fscat/internal/catalog"
	"fscat/internal/database"
	"fscat/internal/database/migrations"
)

// NewTestDatabase creates a new in-memory SQLite catalog with migrations applied.
// The database is automatically closed when the test completes.
func NewTestDatabase(t *testing.T) catalog.Database {
	t.Helper()
	db, _ := NewTestSQLDatabase(t)
	return db
}

// NewTestSQLDatabase is NewTestDatabase that also returns the raw connection,
// for tests that count rows directly.
func NewTestSQLDatabase(t *testing.T) (*database.SQLiteDatabase, *sql.DB) {
	t.Helper()

	sqlDB, err := database.OpenConnection(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	if err := migrations.MigrateUp(sqlDB); err != nil {
		sqlDB.Close()
		t.Fatalf("failed to apply migrations: %v", err)
	}

	db := database.NewSQLiteDatabaseFromDB(sqlDB)

	t.Cleanup(func() {
		db.Close()
	})

	return db, sqlDB
}

// CountRows returns the number of rows in table.
func CountRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatalf("counting %s: %v", table, err)
	}
	return n
}
