package provider

// Account is the provider-side identity owning one or more devices,
// resolved from an API key. Transient: produced by the Resolver, consumed
// by registration, then discarded.
type Account struct {
	ID       string             `json:"id"`
	FullName string             `json:"fullName"`
	Email    string             `json:"email"`
	Devices  []DeviceDescriptor `json:"devices"`
}

// DeviceDescriptor is one physical controller as reported by the provider.
type DeviceDescriptor struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Latitude  float64          `json:"latitude"`
	Longitude float64          `json:"longitude"`
	Zones     []ZoneDescriptor `json:"zones"`
}

// ZoneDescriptor is one sprinkler zone within a device.
// Slice order in DeviceDescriptor.Zones is the provider-reported order.
type ZoneDescriptor struct {
	ID         string `json:"id"`
	ZoneNumber int    `json:"zoneNumber"`
}

// DeviceStatus is the live status of one device as reported by the provider.
type DeviceStatus struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// Schedule describes a currently running watering schedule.
// A nil *Schedule means no schedule is running - that is not an error.
type Schedule struct {
	// Duration is the total run duration in seconds.
	Duration float64 `json:"duration"`
}

// ZoneStart is one entry in a start-multiple-zones command.
type ZoneStart struct {
	ID        string `json:"id"`
	Duration  int    `json:"duration"`
	SortOrder int    `json:"sortOrder"`
}
