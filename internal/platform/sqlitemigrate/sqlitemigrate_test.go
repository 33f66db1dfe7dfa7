package sqlitemigrate

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"
)

func TestUpSection(t *testing.T) {
	content := "-- +migrate Up\nCREATE TABLE a (id INTEGER);\n-- +migrate Down\nDROP TABLE a;\n"
	if got := UpSection(content); got != "\nCREATE TABLE a (id INTEGER);\n" {
		t.Fatalf("unexpected up section %q", got)
	}
	if got := UpSection("SELECT 1;"); got != "SELECT 1;" {
		t.Fatalf("expected unmarked content unchanged, got %q", got)
	}
}

func TestApplyRunsEachMigrationOnce(t *testing.T) {
	sqlDB, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "migrate.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	migrations := fstest.MapFS{
		"0001_items.sql": {Data: []byte("-- +migrate Up\nCREATE TABLE items (id INTEGER PRIMARY KEY);\n-- +migrate Down\nDROP TABLE items;\n")},
		"0002_seed.sql":  {Data: []byte("INSERT INTO items (id) VALUES (1);")},
		"notes.txt":      {Data: []byte("ignored")},
	}
	for i := 0; i < 2; i++ {
		if err := Apply(context.Background(), sqlDB, migrations, "", nil); err != nil {
			t.Fatalf("apply run %d: %v", i+1, err)
		}
	}

	var count int
	if err := sqlDB.QueryRow(`SELECT COUNT(*) FROM items`).Scan(&count); err != nil {
		t.Fatalf("count items: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected seed applied once, got %d rows", count)
	}
	if err := sqlDB.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&count); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 recorded migrations, got %d", count)
	}
}

func TestApplyRequiresDB(t *testing.T) {
	if err := Apply(context.Background(), nil, fstest.MapFS{}, "", nil); err == nil {
		t.Fatal("expected nil db error")
	}
	if !IsAlreadyExists(errors.New("table items already exists")) {
		t.Fatal("expected already exists match")
	}
}
