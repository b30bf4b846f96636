package fleet

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/firewatch/firewatch-core/internal/device"
	"github.com/firewatch/firewatch-core/internal/provider"
)

// Logger defines the logging interface used by the fleet package.
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

// AccountResolver resolves an API key to its provider account.
// Satisfied by *provider.Resolver.
type AccountResolver interface {
	Resolve(ctx context.Context, apiKey string) (*provider.Account, error)
}

// DeviceStore is the registry surface the fleet package needs.
// Satisfied by *device.Registry.
type DeviceStore interface {
	Get(ctx context.Context, id string) (*device.Device, error)
	Create(ctx context.Context, d *device.Device) error
	List(ctx context.Context) ([]device.Device, error)
}

// RegistrationRequest is the homeowner's registration input.
type RegistrationRequest struct {
	Owner     string
	City      string
	Latitude  float64
	Longitude float64
	APIKey    string
}

// RegistrationOutcome is the result of persisting one physical device.
type RegistrationOutcome struct {
	DeviceID string
	Name     string
	Created  bool
	Err      error
}

// RegistrationResult is the combined result of one registration call:
// one outcome per physical device the provider reported for the account.
type RegistrationResult struct {
	// BatchID correlates the result with log lines for this registration.
	BatchID  string
	Owner    string
	Outcomes []RegistrationOutcome
}

// Registrar orchestrates device registration.
type Registrar struct {
	accounts AccountResolver
	store    DeviceStore
	logger   Logger
}

// NewRegistrar creates a registrar.
func NewRegistrar(accounts AccountResolver, store DeviceStore) *Registrar {
	return &Registrar{
		accounts: accounts,
		store:    store,
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for the registrar.
func (r *Registrar) SetLogger(logger Logger) {
	r.logger = logger
}

// Register validates the request, resolves the provider account, and
// persists one local device per physical controller the account owns.
//
// Validation failures and account resolution failures return an error and
// touch nothing. After the account resolves, each device's persistence is
// independent: failures are reported per outcome, never by aborting the
// batch, so a multi-device account cannot lose all devices because one
// failed to save.
func (r *Registrar) Register(ctx context.Context, req RegistrationRequest) (*RegistrationResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	batchID := uuid.NewString()
	log := r.logger
	log.Debug("resolving provider account", "batch_id", batchID, "owner", req.Owner)

	account, err := r.accounts.Resolve(ctx, req.APIKey)
	if err != nil {
		return nil, fmt.Errorf("resolving account: %w", err)
	}

	result := &RegistrationResult{
		BatchID:  batchID,
		Owner:    req.Owner,
		Outcomes: make([]RegistrationOutcome, 0, len(account.Devices)),
	}

	for _, descriptor := range account.Devices {
		dev := buildDevice(req, account, descriptor)

		outcome := RegistrationOutcome{
			DeviceID: dev.ID,
			Name:     dev.Name,
		}
		if createErr := r.store.Create(ctx, dev); createErr != nil {
			outcome.Err = createErr
			log.Warn("device registration failed",
				"batch_id", batchID,
				"device_id", dev.ID,
				"error", createErr,
			)
		} else {
			outcome.Created = true
			log.Info("device registered",
				"batch_id", batchID,
				"device_id", dev.ID,
				"owner", req.Owner,
				"zones", len(dev.Zones),
			)
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}

	return result, nil
}

// buildDevice maps one provider device descriptor to a local device record.
// Owner and city come from the registration input; account identity fields
// are denormalised from the resolved account; zones are flattened in
// provider-reported order. Coordinates come from the input, falling back to
// the provider's own location for the controller when the input carries none.
func buildDevice(req RegistrationRequest, account *provider.Account, d provider.DeviceDescriptor) *device.Device {
	zones := make([]device.Zone, 0, len(d.Zones))
	for _, z := range d.Zones {
		zones = append(zones, device.Zone{
			ID:     z.ID,
			Number: z.ZoneNumber,
		})
	}

	lat, lng := req.Latitude, req.Longitude
	if lat == 0 && lng == 0 {
		lat, lng = d.Latitude, d.Longitude
	}

	return &device.Device{
		ID:         d.ID,
		Name:       d.Name,
		Owner:      req.Owner,
		OwnerID:    account.ID,
		OwnerName:  account.FullName,
		OwnerEmail: account.Email,
		APIKey:     req.APIKey,
		City:       req.City,
		Latitude:   lat,
		Longitude:  lng,
		Zones:      zones,
	}
}

// validateRequest checks registration input before any network or store call.
func validateRequest(req RegistrationRequest) error {
	if err := device.ValidateOwner(req.Owner); err != nil {
		return fmt.Errorf("%w: owner %v", ErrInvalidInput, err)
	}
	if strings.TrimSpace(req.City) == "" {
		return fmt.Errorf("%w: city is required", ErrInvalidInput)
	}
	if req.APIKey == "" {
		return fmt.Errorf("%w: api_key is required", ErrInvalidInput)
	}
	return nil
}
