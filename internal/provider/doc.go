// Package provider wraps the irrigation provider's cloud REST API.
//
// The provider is the external service that knows about physical
// controllers: account lookup by API key, per-device status and running
// schedule, and the start-all-zones command. This package is the single
// place that speaks the provider's JSON wire format; the rest of the
// system sees typed results and the sentinel errors defined in errors.go.
//
// Every call carries an explicit per-request timeout - no operation
// blocks indefinitely. Failures are classified into:
//
//   - ErrInvalidCredential: the provider rejected the API key (auth 4xx)
//   - ErrDeviceNotFound: the device ID is unknown to the provider
//   - ErrCommandRejected: the provider refused a command (device offline etc.)
//   - ErrUnavailable: network failure, timeout, or provider 5xx (transient)
//
// The Resolver composes the two-step account protocol (key -> account ID,
// account ID -> account details) into a single Resolve call so callers
// never see the intermediate step.
package provider
