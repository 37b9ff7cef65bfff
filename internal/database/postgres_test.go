package database

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMigrationVersion(t *testing.T) {
	tests := []struct {
		name   string
		want   int
		wantOK bool
	}{
		{"001_form_sessions.sql", 1, true},
		{"012_add_index.sql", 12, true},
		{"000_nothing.sql", 0, false},
		{"abc_schema.sql", 0, false},
		{"003_notes.txt", 0, false},
		{"README.md", 0, false},
		{"004.sql", 0, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := migrationVersion(tc.name)
			if got != tc.want || ok != tc.wantOK {
				t.Errorf("migrationVersion(%q) = %d, %v; want %d, %v", tc.name, got, ok, tc.want, tc.wantOK)
			}
		})
	}
}

func TestListMigrationsSortsAndSkips(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"010_later.sql", "002_second.sql", "001_first.sql", "notes.md"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "005_dir.sql"), 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := listMigrations(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []int{1, 2, 10}
	if len(got) != len(want) {
		t.Fatalf("expected %d migrations, got %d", len(want), len(got))
	}
	for i, v := range want {
		if got[i].version != v {
			t.Errorf("migration %d: expected version %d, got %d", i, v, got[i].version)
		}
	}
}

func TestListMigrationsRejectsDuplicateVersions(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"001_a.sql", "001_b.sql"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := listMigrations(dir); err == nil {
		t.Fatal("expected duplicate version error")
	}
}

func TestListMigrationsMissingDir(t *testing.T) {
	if _, err := listMigrations(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("expected error for missing directory")
	}
}
