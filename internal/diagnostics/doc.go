// Package diagnostics records a run's structured log into two leveled
// streams, an informational one and an error-only one.
//
// Both streams are held in memory for the notification body and, when a log
// directory is configured, written to dated `.log` and `.err` artifacts. The
// `.err` artifact is created on the first error record and removed at Flush
// if it ended up empty.
package diagnostics
