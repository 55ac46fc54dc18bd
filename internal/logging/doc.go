// Package logging assembles structured slog loggers and formatting helpers used
// across miqa services.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing (including size-based rotation of the daemon log file), and exposes
// context-aware helpers so request handlers automatically tag log lines with
// the acting user, the operation and the correlation ID. The package also
// provides a no-op logger for tests and wiring code that cannot fail.
package logging
