package fleet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/firewatch/firewatch-core/internal/provider"
)

// retryDelay is the pause before the single retry of a transient
// provider failure.
const retryDelay = 500 * time.Millisecond

// CommandClient is the provider surface the controller needs.
// Satisfied by *provider.Client.
type CommandClient interface {
	StartAllZones(ctx context.Context, apiKey, deviceID string, zones []provider.ZoneStart) error
}

// Controller executes watering commands against registered devices.
type Controller struct {
	client  CommandClient
	devices DeviceStore
	logger  Logger
}

// NewController creates a controller over the given provider client and
// device lookup.
func NewController(client CommandClient, devices DeviceStore) *Controller {
	return &Controller{
		client:  client,
		devices: devices,
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the controller.
func (c *Controller) SetLogger(logger Logger) {
	c.logger = logger
}

// StartAll starts every zone of the identified device in ascending zone
// order. The device must be registered; unknown IDs fail without any
// provider call. apiKey overrides the stored credential when non-empty.
//
// A transient provider failure is retried once after a short delay.
// A provider rejection is never retried.
func (c *Controller) StartAll(ctx context.Context, deviceID, apiKey string) error {
	dev, err := c.devices.Get(ctx, deviceID)
	if err != nil {
		return err
	}

	if apiKey == "" {
		apiKey = dev.APIKey
	}

	// Only zone identity crosses this boundary; the provider client
	// assigns run durations and sort order from slice position.
	zones := make([]provider.ZoneStart, len(dev.Zones))
	for i, zone := range dev.Zones {
		zones[i] = provider.ZoneStart{ID: zone.ID}
	}

	err = c.client.StartAllZones(ctx, apiKey, deviceID, zones)
	if errors.Is(err, provider.ErrUnavailable) {
		c.logger.Warn("start command failed, retrying",
			"device_id", deviceID,
			"error", err,
		)
		select {
		case <-time.After(retryDelay):
		case <-ctx.Done():
			return fmt.Errorf("start zones: %w", ctx.Err())
		}
		err = c.client.StartAllZones(ctx, apiKey, deviceID, zones)
	}
	if err != nil {
		return fmt.Errorf("start zones for device %s: %w", deviceID, err)
	}

	c.logger.Info("started all zones",
		"device_id", deviceID,
		"zones", len(zones),
	)
	return nil
}
