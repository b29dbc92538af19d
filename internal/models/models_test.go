package models

import (
	"database/sql"
	"testing"

	"github.com/BigZorin/coachdesk/internal/database"
)

// testDB creates a fresh in-memory SQLite database with migrations applied.
func testDB(t testing.TB) *sql.DB {
	t.Helper()

	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := database.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

// testCoachAndClient seeds one coach with one active client.
func testCoachAndClient(t testing.TB, db *sql.DB) (*Coach, *Client) {
	t.Helper()

	coach, err := CreateCoach(db, "Sam", "sam@example.com")
	if err != nil {
		t.Fatalf("create coach: %v", err)
	}
	client, err := CreateClient(db, coach.ID, "Alice")
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	return coach, client
}
