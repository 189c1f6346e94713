package migrations_test

import (
	"testing"

	"schedsync/internal/database"
	"schedsync/internal/database/migrations"
)

func TestMigrateUp(t *testing.T) {
	db, err := database.OpenConnection(":memory:")
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	defer db.Close()

	// A fresh database fails the status check.
	if err := migrations.CheckDBMigrationStatus(db); err == nil {
		t.Error("expected a fresh database to fail the migration check")
	}

	if err := migrations.MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() error = %v", err)
	}
	if err := migrations.CheckDBMigrationStatus(db); err != nil {
		t.Errorf("migration check after MigrateUp: %v", err)
	}

	// Running again is a no-op.
	if err := migrations.MigrateUp(db); err != nil {
		t.Errorf("second MigrateUp() error = %v", err)
	}

	// The migrated schema has the tables the store relies on.
	for _, table := range []string{"schedule_blocks", "schedule_templates", "availability_overrides", "user_event_links", "events", "availabilities", "sync_operations"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing after migration: %v", table, err)
		}
	}
}

// The handwritten test schema must stay in lockstep with the migration
// files; drift here means tests run against a different database shape
// than production.
func TestSchemaMatchesMigrations(t *testing.T) {
	db, err := database.OpenConnection(":memory:")
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(database.Schema); err != nil {
		t.Fatalf("applying schema: %v", err)
	}
	if err := migrations.CheckDBMigrationStatus(db); err != nil {
		t.Errorf("schema-built database fails the migration check: %v", err)
	}
}
