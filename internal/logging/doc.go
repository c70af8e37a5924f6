// Package logging assembles structured slog loggers and formatting helpers used
// across makeupexam.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so automation code can tag log
// lines with run IDs, class codes, and form steps. Each automation run also
// gets its own JSON log file teed from the main logger. A no-op logger is
// provided for tests and wiring code that cannot fail.
package logging
