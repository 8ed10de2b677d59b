// Package services defines shared utilities consumed by the import workflow and
// its external collaborators.
//
// Key responsibilities:
//   - Context helpers that stamp batch IDs, stage names, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper so callers can tell
//     recoverable collaborator failures from broken inputs with errors.Is.
package services
