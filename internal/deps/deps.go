package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement defines an external executable mqttha may invoke.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	// Path is the resolved executable when Available.
	Path   string
	Detail string
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		path, err := exec.LookPath(cmd)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		status.Path = path
		results = append(results, status)
	}
	return results
}

// ShellBinary returns the executable a simple shell command line starts
// with, skipping leading VAR=value assignments. It returns "" when the line
// has no plain command word.
func ShellBinary(commandLine string) string {
	for _, field := range strings.Fields(commandLine) {
		if name, _, ok := strings.Cut(field, "="); ok && name != "" && !strings.ContainsAny(name, "/'\"") {
			continue
		}
		return strings.Trim(field, `'"`)
	}
	return ""
}
