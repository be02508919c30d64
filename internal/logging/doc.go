// Package logging assembles structured slog loggers and formatting helpers used
// across mqttha.
//
// It owns the console/JSON handlers, a fan-out handler that lets one logger
// feed several sinks with independent level thresholds, run-scoped context
// helpers, and retention pruning for dated log artifacts. A no-op logger is
// provided for tests and wiring code that cannot fail.
package logging
