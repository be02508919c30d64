package notifications

import (
	"strings"

	"mqttha/internal/diagnostics"
)

const (
	sectionSeparator = "----------\n\n"
	errSectionHeader = ".err file\n"
	logSectionHeader = ".log file\n"

	// DisabledPlaceholder replaces the informational section when no log
	// directory is configured.
	DisabledPlaceholder = "Diagnostics were not enabled for this run; no log output is available.\n"
)

// BuildBody concatenates the error section (only when errors were recorded)
// and the informational section (only when diagnostics are enabled).
func BuildBody(snap diagnostics.Snapshot) string {
	var b strings.Builder
	if snap.HasErrors() {
		b.WriteString(sectionSeparator)
		b.WriteString(errSectionHeader)
		b.WriteString(snap.Errors)
	}
	if !snap.Enabled {
		b.WriteString(DisabledPlaceholder)
		return b.String()
	}
	if snap.Info != "" {
		b.WriteString(sectionSeparator)
		b.WriteString(logSectionHeader)
		b.WriteString(snap.Info)
	}
	return b.String()
}
