// Package preflight provides readiness checks for the broker, the log
// directory, and the external tools a mqttha run depends on.
//
// The "mqttha check" command renders these results as a table. A run never
// calls them: broker and mail failures during a run are reported through the
// run's own diagnostics instead.
//
// Each check is gated by its config toggle -- disabled features are skipped.
package preflight
