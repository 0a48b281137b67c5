package migrations_test

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
	_ "modernc.org/sqlite"

	"github.com/tavoloai/tavolo-web/internal/repository/sqlite/migrations"
)

func openMemory(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	db.SetMaxOpenConns(1)
	return db
}

func TestRunMigrations(t *testing.T) {
	db := openMemory(t)
	ctx := context.Background()

	if err := migrations.Run(ctx, db); err != nil {
		t.Fatalf("first migration run: %v", err)
	}
	if err := migrations.Run(ctx, db); err != nil {
		t.Fatalf("second run (idempotent): %v", err)
	}

	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
		t.Fatalf("count schema_migrations: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 migrations recorded, got %d", count)
	}
	for _, table := range []string{"users", "sessions"} {
		if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&count); err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}
}

func TestApplyOrderAndReturn(t *testing.T) {
	db := openMemory(t)
	ctx := context.Background()

	fsys := fstest.MapFS{
		"002_b.sql":  {Data: []byte("INSERT INTO things (name) VALUES ('b');")},
		"001_a.sql":  {Data: []byte("CREATE TABLE things (name TEXT);")},
		"README.txt": {Data: []byte("ignored")},
	}
	applied, err := migrations.Apply(ctx, db, fsys)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if diff := cmp.Diff([]string{"001_a.sql", "002_b.sql"}, applied); diff != "" {
		t.Errorf("applied (-want +got):\n%s", diff)
	}

	applied, err = migrations.Apply(ctx, db, fsys)
	if err != nil || len(applied) != 0 {
		t.Errorf("second Apply = %v, %v; want nothing applied", applied, err)
	}
}

func TestApplyDetectsEditedMigration(t *testing.T) {
	db := openMemory(t)
	ctx := context.Background()

	if _, err := migrations.Apply(ctx, db, fstest.MapFS{
		"001_a.sql": {Data: []byte("CREATE TABLE things (name TEXT);")},
	}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	_, err := migrations.Apply(ctx, db, fstest.MapFS{
		"001_a.sql": {Data: []byte("CREATE TABLE things (name TEXT, extra TEXT);")},
	})
	if err == nil || !strings.Contains(err.Error(), "changed") {
		t.Fatalf("expected changed-migration error, got %v", err)
	}
}

func TestApplyRollsBackFailedMigration(t *testing.T) {
	db := openMemory(t)
	ctx := context.Background()

	_, err := migrations.Apply(ctx, db, fstest.MapFS{
		"001_bad.sql": {Data: []byte("CREATE TABLE ok (id TEXT); THIS IS NOT SQL;")},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("expected nothing recorded, got %d", count)
	}
}
