// Package device provides the local sprinkler device registry.
//
// A Device is one physical irrigation controller registered by a homeowner.
// The record is created once during registration from the provider's account
// data and is never updated afterwards: owner name/email are a denormalised
// copy taken at registration time, and the provider API key is stored per
// device even though the provider scopes keys to accounts.
//
// The package follows a two-layer design:
//
//   - Repository: the persistence interface, with a SQLite implementation.
//     This is the only code that touches the devices table.
//   - Registry: wraps a Repository with an in-memory cache for fast reads.
//     Returned devices are copies; callers can modify them freely.
//
// All Registry methods are safe for concurrent use. Concurrent Create calls
// for the same device ID resolve to exactly one success; the rest observe
// ErrDeviceExists via the table's primary key constraint.
package device
