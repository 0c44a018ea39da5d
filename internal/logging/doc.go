// Package logging assembles structured slog loggers and formatting helpers used
// across banshee.
//
// It owns the console and JSON handlers, centralizes level and output plumbing,
// and exposes context-aware helpers so transaction bodies can automatically tag
// log lines with transaction IDs and categories. The package also provides a
// no-op logger for tests and wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so new components emit
// data with the same shape as the rest of the system.
package logging
