// Package fleet orchestrates operations across registered sprinkler devices.
//
// It sits between the HTTP handlers and the two lower layers (the device
// registry and the provider client) and owns the partial-failure semantics
// of the system:
//
//   - Registrar: resolves an API key to a provider account and persists one
//     local device per physical controller. Each device's persistence is
//     independent - a duplicate or store error on one device never prevents
//     the others from being saved.
//
//   - Aggregator: the fleet snapshot fan-out. Status and schedule are
//     fetched concurrently per device under a bounded worker limit and a
//     global deadline. A slow or failing device reports status "unknown";
//     it never sinks the batch, and output order always matches input order.
//
//   - Controller: the start-all-zones command for one device. The registry
//     is consulted before the provider is ever contacted; a transient
//     provider failure is retried once, a rejection never is (the command
//     is not idempotent).
//
// Dependencies are accepted as small interfaces so tests can substitute
// scripted provider and store implementations.
package fleet
