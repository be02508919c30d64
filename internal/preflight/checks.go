package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"mqttha/internal/config"
	"mqttha/internal/deps"
)

const defaultDialTimeout = 5 * time.Second

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckLogDirectory is CheckDirectoryAccess for a directory the run creates
// on demand: a missing directory passes when its nearest existing ancestor
// is writable.
func CheckLogDirectory(name, path string) Result {
	if _, err := os.Stat(path); err == nil || !os.IsNotExist(err) {
		return CheckDirectoryAccess(name, path)
	}
	parent := filepath.Dir(path)
	for parent != filepath.Dir(parent) {
		if _, err := os.Stat(parent); err == nil {
			break
		}
		parent = filepath.Dir(parent)
	}
	ancestor := CheckDirectoryAccess(name, parent)
	if !ancestor.Passed {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: cannot be created under %s)", path, parent)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (will be created)", path)}
}

// CheckBroker verifies that the broker accepts TCP connections. It does not
// perform the MQTT handshake, so credentials are not validated.
func CheckBroker(ctx context.Context, address string, timeout time.Duration) Result {
	return CheckTCP(ctx, "Broker", address, timeout)
}

// CheckTCP verifies that address accepts TCP connections within timeout.
func CheckTCP(ctx context.Context, name, address string, timeout time.Duration) Result {
	host, _, err := net.SplitHostPort(address)
	if err != nil || strings.TrimSpace(host) == "" {
		return Result{Name: name, Detail: fmt.Sprintf("invalid address %q", address)}
	}
	if timeout <= 0 {
		timeout = defaultDialTimeout
	}

	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var dialer net.Dialer
	conn, err := dialer.DialContext(dialCtx, "tcp", address)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s unreachable (%s)", address, summarizeDialError(err))}
	}
	_ = conn.Close()
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s reachable", address)}
}

// CheckPushgateway verifies the Pushgateway health endpoint.
func CheckPushgateway(ctx context.Context, baseURL string, timeout time.Duration) Result {
	const name = "Pushgateway"

	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return Result{Name: name, Detail: "missing url"}
	}
	if timeout <= 0 {
		timeout = defaultDialTimeout
	}

	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client := &http.Client{Timeout: timeout}
	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, base+"/-/healthy", nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("health check failed (%v)", err)}
	}
	resp, err := client.Do(req)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("health check failed (%s)", summarizeDialError(err))}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{Name: name, Detail: fmt.Sprintf("health check failed (%d)", resp.StatusCode)}
	}
	return Result{Name: name, Passed: true, Detail: "Reachable"}
}

// CheckSystemDeps evaluates the executables the configured features invoke.
// The follow-up command is run through /bin/sh, so its first word is only an
// optional requirement: it may be a shell builtin.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "sh",
			Command:     "/bin/sh",
			Description: "Runs the follow-up command",
			Optional:    !cfg.FollowupEnabled(),
		},
	}
	if cfg.MailEnabled() && cfg.Mail.Transport != config.TransportSMTP {
		requirements = append(requirements, deps.Requirement{
			Name:        "mail",
			Command:     cfg.MailBinary(),
			Description: "Sends the run notification",
		})
	}
	if cfg.FollowupEnabled() {
		requirements = append(requirements, deps.Requirement{
			Name:        "follow-up",
			Command:     deps.ShellBinary(cfg.Followup.Command),
			Description: "First word of followup.command",
			Optional:    true,
		})
	}
	return deps.CheckBinaries(requirements)
}

func smtpAddress(cfg *config.Config) string {
	return net.JoinHostPort(cfg.Mail.SMTPHost, strconv.Itoa(cfg.Mail.SMTPPort))
}

// summarizeDialError produces a human-readable summary for connectivity failures.
func summarizeDialError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timed out"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timed out"
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Err != nil {
		return opErr.Err.Error()
	}
	return err.Error()
}
