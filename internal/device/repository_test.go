package device

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// setupTestDB creates an in-memory SQLite database with the devices table.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	// Create devices table matching the schema
	schema := `
		CREATE TABLE devices (
			id TEXT PRIMARY KEY,
			owner TEXT NOT NULL,
			owner_id TEXT NOT NULL DEFAULT '',
			owner_name TEXT NOT NULL DEFAULT '',
			owner_email TEXT NOT NULL DEFAULT '',
			api_key TEXT NOT NULL,
			city TEXT NOT NULL,
			latitude REAL NOT NULL,
			longitude REAL NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			zones TEXT NOT NULL DEFAULT '[]',
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		) STRICT;
		CREATE INDEX idx_devices_owner ON devices(owner);
	`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		t.Fatalf("failed to create test schema: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// testDevice creates a device for testing.
func testDevice(id, owner string) *Device {
	return &Device{
		ID:         id,
		Owner:      owner,
		OwnerID:    "acct-1",
		OwnerName:  "Pat Example",
		OwnerEmail: "pat@example.com",
		APIKey:     "test-api-key",
		City:       "Springfield",
		Latitude:   40.1,
		Longitude:  -88.2,
		Name:       "Back Garden Hub",
		Zones: []Zone{
			{ID: "zone-a", Number: 1},
			{ID: "zone-b", Number: 2},
		},
	}
}

func TestRepository_CreateAndGet(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	want := testDevice("dev-1", "chief1")
	if err := repo.Create(ctx, want); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := repo.GetByID(ctx, "dev-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}

	if got.Owner != "chief1" {
		t.Errorf("Owner = %q, want chief1", got.Owner)
	}
	if got.APIKey != "test-api-key" {
		t.Errorf("APIKey = %q, want test-api-key", got.APIKey)
	}
	if got.Latitude != 40.1 || got.Longitude != -88.2 {
		t.Errorf("coords = (%v, %v), want (40.1, -88.2)", got.Latitude, got.Longitude)
	}
}

func TestRepository_ZoneOrderPreserved(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	dev := testDevice("dev-1", "chief1")
	dev.Zones = []Zone{
		{ID: "z3", Number: 3},
		{ID: "z1", Number: 1},
		{ID: "z2", Number: 2},
	}
	if err := repo.Create(ctx, dev); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := repo.GetByID(ctx, "dev-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}

	if len(got.Zones) != 3 {
		t.Fatalf("len(Zones) = %d, want 3", len(got.Zones))
	}
	// Provider order, not numeric order
	for i, wantID := range []string{"z3", "z1", "z2"} {
		if got.Zones[i].ID != wantID {
			t.Errorf("Zones[%d].ID = %q, want %q", i, got.Zones[i].ID, wantID)
		}
	}
}

func TestRepository_CreateDuplicate(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	if err := repo.Create(ctx, testDevice("dev-1", "chief1")); err != nil {
		t.Fatalf("first Create() error = %v", err)
	}

	err := repo.Create(ctx, testDevice("dev-1", "chief2"))
	if !errors.Is(err, ErrDeviceExists) {
		t.Errorf("second Create() error = %v, want ErrDeviceExists", err)
	}
}

func TestRepository_GetByIDNotFound(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))

	_, err := repo.GetByID(context.Background(), "missing")
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("GetByID() error = %v, want ErrDeviceNotFound", err)
	}
}

func TestRepository_List(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	for _, id := range []string{"dev-1", "dev-2", "dev-3"} {
		if err := repo.Create(ctx, testDevice(id, "chief1")); err != nil {
			t.Fatalf("Create(%s) error = %v", id, err)
		}
	}

	devices, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(devices) != 3 {
		t.Errorf("len(devices) = %d, want 3", len(devices))
	}
}

func TestRepository_ListByOwner(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	if err := repo.Create(ctx, testDevice("dev-1", "chief1")); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := repo.Create(ctx, testDevice("dev-2", "chief2")); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	devices, err := repo.ListByOwner(ctx, "chief1")
	if err != nil {
		t.Fatalf("ListByOwner() error = %v", err)
	}
	if len(devices) != 1 || devices[0].ID != "dev-1" {
		t.Errorf("ListByOwner(chief1) = %v, want [dev-1]", devices)
	}
}

func TestRepository_EmptyZones(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	dev := testDevice("dev-1", "chief1")
	dev.Zones = nil
	if err := repo.Create(ctx, dev); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := repo.GetByID(ctx, "dev-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if len(got.Zones) != 0 {
		t.Errorf("len(Zones) = %d, want 0", len(got.Zones))
	}
}
