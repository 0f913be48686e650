// Package logging assembles structured slog loggers and formatting helpers used
// across mover components.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, defines the standard attribute keys (component, event_type,
// error_hint, impact) and prunes old mover-<runID>.log files. The package also
// provides a no-op logger for tests and wiring code that cannot fail.
package logging
