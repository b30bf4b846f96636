package device

import "errors"

// Domain errors for the device package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, device.ErrDeviceNotFound) {
//	    // handle not found case
//	}
var (
	// ErrDeviceNotFound is returned when a device ID does not exist.
	ErrDeviceNotFound = errors.New("device: not found")

	// ErrDeviceExists is returned when creating a device with an ID that already exists.
	ErrDeviceExists = errors.New("device: already exists")

	// ErrInvalidDevice is returned when device validation fails.
	ErrInvalidDevice = errors.New("device: invalid")

	// ErrInvalidOwner is returned when an owner username is malformed.
	ErrInvalidOwner = errors.New("device: invalid owner")

	// ErrInvalidCity is returned when a city is empty.
	ErrInvalidCity = errors.New("device: invalid city")

	// ErrMissingAPIKey is returned when a device has no provider API key.
	ErrMissingAPIKey = errors.New("device: missing api key")

	// ErrDuplicateZone is returned when zone numbers repeat within a device.
	ErrDuplicateZone = errors.New("device: duplicate zone number")
)
