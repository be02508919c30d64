// Package workflow drives one mqttha run from a loaded configuration to an
// exit code.
//
// Run acquires the run lock, builds the diagnostics recorder, and executes
// the publish session. Whatever the session reports, the run then dispatches
// the optional notification, pushes optional run metrics, and hands over to
// the follow-up scheduler. The log artifacts are flushed after the grace
// period, immediately before the follow-up command starts.
//
// ExitCode maps a Result onto the process exit status used by cmd/mqttha.
package workflow
