// Package services defines shared utilities consumed by the session
// operations and the HTTP layer.
//
// Key responsibilities:
//   - Context helpers that stamp the acting user, operation names, and
//     correlation identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent HTTP statuses (not found, validation, server error).
//
// Use these helpers when wiring new operations so error handling and
// observability stay uniform across the service.
package services
