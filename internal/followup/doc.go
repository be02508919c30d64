// Package followup runs the user-configured command (typically a reboot)
// after the run has finished notifying. When mail is enabled a grace period
// elapses first so the notification can leave the host.
package followup
