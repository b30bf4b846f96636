package device

import "time"

// Zone is an individually controllable sprinkler valve belonging to a device.
// The zone ID is provider-assigned; Number is the provider's zone number,
// unique within a device. Slice order is the provider-reported order.
type Zone struct {
	ID     string `json:"id"`
	Number int    `json:"number"`
}

// Device represents a registered irrigation controller hub.
// This matches the database schema in migrations/20260301_120000_initial_schema.up.sql.
type Device struct {
	// Identity (provider-assigned, unique across the registry)
	ID   string `json:"id"`
	Name string `json:"name"`

	// Local owner (the registering username)
	Owner string `json:"owner"`

	// Provider account details, denormalised at registration time.
	// Not re-synced afterwards; staleness is accepted.
	OwnerID    string `json:"owner_id"`
	OwnerName  string `json:"owner_name"`
	OwnerEmail string `json:"owner_email"`

	// APIKey is the provider credential used for all outbound calls for
	// this device. Account-scoped at the provider, stored per device.
	APIKey string `json:"api_key"`

	// Location
	City      string  `json:"city"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`

	// Zones in provider-reported order. May legitimately be empty if the
	// provider reports none.
	Zones []Zone `json:"zones"`

	CreatedAt time.Time `json:"created_at"`
}

// Copy returns an independent copy of the Device.
// The zones slice is cloned so modifications to the copy do not affect
// the original. This is essential for cache isolation.
func (d *Device) Copy() *Device {
	if d == nil {
		return nil
	}

	cpy := *d
	if d.Zones != nil {
		cpy.Zones = make([]Zone, len(d.Zones))
		copy(cpy.Zones, d.Zones)
	}
	return &cpy
}
