package database

import (
	"context"
	"testing"
	"testing/fstest"
)

// withTestMigrations swaps in an in-memory migrations filesystem for the
// duration of the test.
func withTestMigrations(t *testing.T, files map[string]string) {
	t.Helper()

	fsys := fstest.MapFS{}
	for name, content := range files {
		fsys[name] = &fstest.MapFile{Data: []byte(content)}
	}

	origFS := MigrationsFS
	origDir := MigrationsDir
	MigrationsFS = fsys
	MigrationsDir = "."
	t.Cleanup(func() {
		MigrationsFS = origFS
		MigrationsDir = origDir
	})
}

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		name        string
		wantVersion string
		wantUp      bool
		wantOK      bool
	}{
		{"20260301_120000_initial_schema.up.sql", "20260301_120000", true, true},
		{"20260301_120000_initial_schema.down.sql", "20260301_120000", false, true},
		{"README.md", "", false, false},
		{"badname.up.sql", "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			version, isUp, ok := parseMigrationFilename(tt.name)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if version != tt.wantVersion {
				t.Errorf("version = %q, want %q", version, tt.wantVersion)
			}
			if isUp != tt.wantUp {
				t.Errorf("isUp = %v, want %v", isUp, tt.wantUp)
			}
		})
	}
}

func TestExtractMigrationName(t *testing.T) {
	if got := extractMigrationName("20260301_120000_initial_schema.up.sql"); got != "initial_schema" {
		t.Errorf("extractMigrationName = %q, want initial_schema", got)
	}
}

func TestMigrate(t *testing.T) {
	withTestMigrations(t, map[string]string{
		"20260301_120000_create_t.up.sql":   "CREATE TABLE t (id TEXT PRIMARY KEY);",
		"20260301_120000_create_t.down.sql": "DROP TABLE t;",
	})

	db := openTestDB(t)
	ctx := context.Background()

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	// Table must exist
	if _, err := db.ExecContext(ctx, "INSERT INTO t (id) VALUES ('x')"); err != nil {
		t.Fatalf("expected table t to exist: %v", err)
	}

	// Re-running must be a no-op
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() second run error = %v", err)
	}

	applied, err := db.getAppliedMigrations(ctx)
	if err != nil {
		t.Fatalf("getAppliedMigrations() error = %v", err)
	}
	if len(applied) != 1 {
		t.Errorf("applied migrations = %d, want 1", len(applied))
	}
}

func TestMigrate_OrderedApplication(t *testing.T) {
	withTestMigrations(t, map[string]string{
		"20260302_000000_add_col.up.sql":   "ALTER TABLE t ADD COLUMN name TEXT;",
		"20260302_000000_add_col.down.sql": "",
		"20260301_000000_create_t.up.sql":   "CREATE TABLE t (id TEXT PRIMARY KEY);",
		"20260301_000000_create_t.down.sql": "DROP TABLE t;",
	})

	db := openTestDB(t)
	ctx := context.Background()

	// The ALTER only succeeds if create ran first despite map iteration order.
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
}

func TestMigrateDown(t *testing.T) {
	withTestMigrations(t, map[string]string{
		"20260301_120000_create_t.up.sql":   "CREATE TABLE t (id TEXT PRIMARY KEY);",
		"20260301_120000_create_t.down.sql": "DROP TABLE t;",
	})

	db := openTestDB(t)
	ctx := context.Background()

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if err := db.MigrateDown(ctx); err != nil {
		t.Fatalf("MigrateDown() error = %v", err)
	}

	// Table must be gone
	if _, err := db.ExecContext(ctx, "INSERT INTO t (id) VALUES ('x')"); err == nil {
		t.Error("expected table t to be dropped")
	}

	applied, err := db.getAppliedMigrations(ctx)
	if err != nil {
		t.Fatalf("getAppliedMigrations() error = %v", err)
	}
	if len(applied) != 0 {
		t.Errorf("applied migrations = %d, want 0", len(applied))
	}
}

func TestMigrate_NoMigrations(t *testing.T) {
	withTestMigrations(t, nil)

	db := openTestDB(t)

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() with no files error = %v", err)
	}
}
