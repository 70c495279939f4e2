package db

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestOpenCreatesParentDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "test.db")
	database, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer database.Close()

	if database.Path() != dbPath {
		t.Errorf("Path() = %q, want %q", database.Path(), dbPath)
	}
}

func TestMigrateAppliesSchemaOnce(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	database, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer database.Close()

	applied, err := database.Migrate()
	if err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	if len(applied) == 0 {
		t.Fatal("expected at least one applied migration")
	}

	// Idempotent: a second run applies nothing.
	applied, err = database.Migrate()
	if err != nil {
		t.Fatalf("second Migrate failed: %v", err)
	}
	if len(applied) != 0 {
		t.Errorf("second Migrate applied %v, want none", applied)
	}

	var count int
	if err := database.QueryRow("SELECT COUNT(*) FROM processes").Scan(&count); err != nil {
		t.Fatalf("schema not usable after migration: %v", err)
	}
}

func TestMigrationStatus(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	database, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer database.Close()

	applied, pending, err := database.MigrationStatus()
	if err != nil {
		t.Fatalf("MigrationStatus failed: %v", err)
	}
	if len(applied) != 0 {
		t.Errorf("fresh database reports applied migrations: %v", applied)
	}
	if len(pending) == 0 {
		t.Error("fresh database reports no pending migrations")
	}

	if err := database.RequiresMigrationError(); err == nil {
		t.Error("expected RequiresMigrationError on fresh database")
	} else if !strings.Contains(err.Error(), "kollator migrate") {
		t.Errorf("error should point at the migrate command, got: %v", err)
	}

	if _, err := database.Migrate(); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	if err := database.RequiresMigrationError(); err != nil {
		t.Errorf("migrated database still requires migration: %v", err)
	}
}
