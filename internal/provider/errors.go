package provider

import "errors"

// Sentinel errors for provider API failures.
//
// These can be checked using errors.Is() so callers never need to inspect
// HTTP status codes:
//
//	if errors.Is(err, provider.ErrInvalidCredential) {
//	    // surface "invalid API key" to the user
//	}
var (
	// ErrInvalidCredential is returned when the provider rejects the API key.
	ErrInvalidCredential = errors.New("provider: invalid credential")

	// ErrDeviceNotFound is returned when the provider does not know the device ID.
	ErrDeviceNotFound = errors.New("provider: device not found")

	// ErrCommandRejected is returned when the provider refuses a control
	// command, for example because the device is offline.
	ErrCommandRejected = errors.New("provider: command rejected")

	// ErrUnavailable is returned on network failure, timeout, or a provider
	// 5xx response. Potentially transient.
	ErrUnavailable = errors.New("provider: unavailable")
)
