package device

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Logger defines the logging interface used by the Registry.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Registry provides device management with caching and thread safety.
// It wraps a Repository and adds an in-memory cache for fast lookups.
//
// The cache is populated on startup via RefreshCache() and kept in sync
// by the Create path. All public methods are thread-safe.
type Registry struct {
	repo    Repository
	cache   map[string]*Device // Cached devices by ID
	cacheMu sync.RWMutex       // Protects cache
	logger  Logger
}

// NewRegistry creates a new device registry.
// The repository is used for persistence; the registry adds caching.
func NewRegistry(repo Repository) *Registry {
	return &Registry{
		repo:   repo,
		cache:  make(map[string]*Device),
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// RefreshCache reloads all devices from the repository into the cache.
// This should be called on application startup.
func (r *Registry) RefreshCache(ctx context.Context) error {
	devices, err := r.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("loading devices: %w", err)
	}

	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()

	r.cache = make(map[string]*Device, len(devices))
	for i := range devices {
		d := devices[i]
		r.cache[d.ID] = d.Copy()
	}

	r.logger.Info("device cache refreshed", "count", len(devices))
	return nil
}

// Create validates and persists a new device, then caches it.
// Returns ErrDeviceExists if the ID is already registered.
func (r *Registry) Create(ctx context.Context, device *Device) error {
	if err := ValidateDevice(device); err != nil {
		return err
	}

	if err := r.repo.Create(ctx, device); err != nil {
		return err
	}

	// Cache a copy to prevent external modification
	r.cacheMu.Lock()
	r.cache[device.ID] = device.Copy()
	r.cacheMu.Unlock()

	r.logger.Info("device registered",
		"id", device.ID,
		"owner", device.Owner,
		"zones", len(device.Zones),
	)
	return nil
}

// Get retrieves a device by ID.
// Returns ErrDeviceNotFound if the device does not exist.
// The returned device is a copy; callers can safely modify it.
func (r *Registry) Get(ctx context.Context, id string) (*Device, error) {
	// Try cache first
	r.cacheMu.RLock()
	cached, ok := r.cache[id]
	r.cacheMu.RUnlock()

	if ok {
		return cached.Copy(), nil
	}

	// Fall back to repository (might be a device created by another instance)
	device, err := r.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	r.cacheMu.Lock()
	r.cache[id] = device.Copy()
	r.cacheMu.Unlock()

	return device, nil
}

// List retrieves all devices in stable creation order.
// The returned devices are copies; callers can safely modify them.
func (r *Registry) List(ctx context.Context) ([]Device, error) {
	r.cacheMu.RLock()
	if len(r.cache) > 0 {
		devices := make([]Device, 0, len(r.cache))
		for _, d := range r.cache {
			devices = append(devices, *d.Copy())
		}
		r.cacheMu.RUnlock()

		// Map iteration order is random; restore creation order so
		// snapshots are stable for display.
		sort.Slice(devices, func(i, j int) bool {
			if devices[i].CreatedAt.Equal(devices[j].CreatedAt) {
				return devices[i].ID < devices[j].ID
			}
			return devices[i].CreatedAt.Before(devices[j].CreatedAt)
		})
		return devices, nil
	}
	r.cacheMu.RUnlock()

	return r.repo.List(ctx)
}

// ListByOwner retrieves all devices registered by a local username.
func (r *Registry) ListByOwner(ctx context.Context, owner string) ([]Device, error) {
	return r.repo.ListByOwner(ctx, owner)
}

// Count returns the number of cached devices.
func (r *Registry) Count() int {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()
	return len(r.cache)
}
