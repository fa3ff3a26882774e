package db

import (
	"os"
	"path/filepath"
	"testing"
)

func writeMigration(t *testing.T, dir, name, sql string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(sql), 0o644); err != nil {
		t.Fatalf("write migration file: %v", err)
	}
}

func TestLoadMigrations_SortedByVersion(t *testing.T) {
	dir := t.TempDir()
	writeMigration(t, dir, "002_beds.sql", "CREATE TABLE bed (id UUID);")
	writeMigration(t, dir, "001_wards.sql", "CREATE TABLE ward (id UUID);")
	writeMigration(t, dir, "010_billing.sql", "CREATE TABLE billing_ledger (id UUID);")

	m := NewMigrator(nil, dir)
	migrations, err := m.LoadMigrations()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(migrations) != 3 {
		t.Fatalf("expected 3 migrations, got %d", len(migrations))
	}
	wantVersions := []int{1, 2, 10}
	for i, want := range wantVersions {
		if migrations[i].Version != want {
			t.Errorf("migration %d: expected version %d, got %d", i, want, migrations[i].Version)
		}
	}
	if migrations[0].Name != "001_wards.sql" {
		t.Errorf("expected 001_wards.sql first, got %s", migrations[0].Name)
	}
}

func TestLoadMigrations_SkipsNonNumericAndNonSQL(t *testing.T) {
	dir := t.TempDir()
	writeMigration(t, dir, "001_core.sql", "SELECT 1;")
	writeMigration(t, dir, "README.md", "notes")
	writeMigration(t, dir, "notes_draft.sql", "SELECT 2;")

	m := NewMigrator(nil, dir)
	migrations, err := m.LoadMigrations()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(migrations) != 1 {
		t.Fatalf("expected 1 migration, got %d", len(migrations))
	}
}

func TestLoadMigrations_MissingDir(t *testing.T) {
	m := NewMigrator(nil, "/nonexistent/migrations")
	if _, err := m.LoadMigrations(); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestLoadMigrations_ReadsSQLContent(t *testing.T) {
	dir := t.TempDir()
	const sql = "CREATE TABLE admission (id UUID PRIMARY KEY);"
	writeMigration(t, dir, "001_admission.sql", sql)

	m := NewMigrator(nil, dir)
	migrations, err := m.LoadMigrations()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if migrations[0].SQL != sql {
		t.Errorf("unexpected SQL content: %q", migrations[0].SQL)
	}
}
