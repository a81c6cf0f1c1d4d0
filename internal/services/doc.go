// Package services defines shared utilities consumed by the background jobs
// and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp job identifiers, job kinds, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper so callers can classify
//     failures with errors.Is (invalid range, busy, unavailable, external,
//     parse).
//
// Use these helpers when wiring new job logic so error handling and
// observability stay uniform across the workbench.
package services
