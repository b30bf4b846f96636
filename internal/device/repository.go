package device

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Repository defines the interface for device persistence operations.
// This abstraction allows for different implementations (SQLite, mock, etc.)
// and enables unit testing without database dependencies.
type Repository interface {
	// GetByID retrieves a device by its unique identifier.
	// Returns ErrDeviceNotFound if the device does not exist.
	GetByID(ctx context.Context, id string) (*Device, error)

	// List retrieves all devices in insertion order.
	List(ctx context.Context) ([]Device, error)

	// ListByOwner retrieves all devices registered by a local username.
	ListByOwner(ctx context.Context, owner string) ([]Device, error)

	// Create inserts a new device.
	// Returns ErrDeviceExists if a device with the same ID already exists.
	Create(ctx context.Context, device *Device) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
// The db parameter should be an open SQLite connection.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const deviceColumns = `id, owner, owner_id, owner_name, owner_email,
		api_key, city, latitude, longitude, name, zones, created_at`

// GetByID retrieves a device by its unique identifier.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM devices WHERE id = ?`

	row := r.db.QueryRowContext(ctx, query, id)
	device, err := scanDevice(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDeviceNotFound
		}
		return nil, fmt.Errorf("querying device by id: %w", err)
	}
	return device, nil
}

// List retrieves all devices in insertion order.
func (r *SQLiteRepository) List(ctx context.Context) ([]Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM devices ORDER BY created_at, id`
	return r.queryDevices(ctx, query)
}

// ListByOwner retrieves all devices registered by a local username.
func (r *SQLiteRepository) ListByOwner(ctx context.Context, owner string) ([]Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM devices WHERE owner = ? ORDER BY created_at, id`
	return r.queryDevices(ctx, query, owner)
}

// Create inserts a new device.
func (r *SQLiteRepository) Create(ctx context.Context, device *Device) error {
	zonesJSON, err := json.Marshal(device.Zones)
	if err != nil {
		return fmt.Errorf("marshalling zones: %w", err)
	}

	if device.CreatedAt.IsZero() {
		device.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO devices (
			id, owner, owner_id, owner_name, owner_email,
			api_key, city, latitude, longitude, name, zones, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.ExecContext(ctx, query,
		device.ID,
		device.Owner,
		device.OwnerID,
		device.OwnerName,
		device.OwnerEmail,
		device.APIKey,
		device.City,
		device.Latitude,
		device.Longitude,
		device.Name,
		string(zonesJSON),
		device.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		// Check for unique constraint violation
		if isUniqueConstraintError(err) {
			return ErrDeviceExists
		}
		return fmt.Errorf("inserting device: %w", err)
	}

	return nil
}

// queryDevices runs a multi-row device query and scans all results.
func (r *SQLiteRepository) queryDevices(ctx context.Context, query string, args ...any) ([]Device, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying devices: %w", err)
	}
	defer rows.Close()

	var devices []Device
	for rows.Next() {
		device, err := scanDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning device: %w", err)
		}
		devices = append(devices, *device)
	}
	return devices, rows.Err()
}

// rowScanner abstracts sql.Row and sql.Rows for shared scanning logic.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanDevice scans a single device row.
func scanDevice(scanner rowScanner) (*Device, error) {
	var d Device
	var zonesJSON string
	var createdAt string

	err := scanner.Scan(
		&d.ID,
		&d.Owner,
		&d.OwnerID,
		&d.OwnerName,
		&d.OwnerEmail,
		&d.APIKey,
		&d.City,
		&d.Latitude,
		&d.Longitude,
		&d.Name,
		&zonesJSON,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	if zonesJSON != "" {
		if err := json.Unmarshal([]byte(zonesJSON), &d.Zones); err != nil {
			return nil, fmt.Errorf("unmarshalling zones: %w", err)
		}
	}

	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		d.CreatedAt = t
	}

	return &d, nil
}

// isUniqueConstraintError checks if an error is a SQLite unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "unique constraint")
}
