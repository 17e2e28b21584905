// Package services defines shared utilities consumed by the grouping service,
// the HTTP API, and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp item IDs, group keys, strategy names, and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper so callers can classify
//     failures (validation vs not found vs persistence) with errors.Is.
//
// Use these helpers when wiring new components so error handling and
// observability stay uniform.
package services
