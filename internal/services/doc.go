// Package services defines shared utilities consumed by the automation runner,
// the form driver, and the HTTP API.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, class codes, form steps, and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent run statuses (failed vs rejected vs cancelled).
//
// Use these helpers when wiring new automation steps so error handling and
// observability stay uniform.
package services
