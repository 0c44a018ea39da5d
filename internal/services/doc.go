// Package services defines shared utilities consumed by transactions and the
// external integrations they drive.
//
// Key responsibilities:
//   - Context helpers that stamp transaction IDs, categories, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper so failures can be
//     classified consistently in logs and the transaction history.
//
// Use these helpers when wiring new transaction bodies or engine adapters so
// operational behaviour (error handling, observability) stays uniform.
package services
