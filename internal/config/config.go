package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Logging contains configuration for diagnostic log artifacts.
type Logging struct {
	// Dir receives the dated .log/.err artifacts. Empty disables file
	// diagnostics entirely.
	Dir           string `toml:"log_dir"`
	Prefix        string `toml:"prefix"`
	DateFormat    string `toml:"date_format"`
	Level         string `toml:"level"`
	Format        string `toml:"format"`
	RetentionDays int    `toml:"retention_days"`
	Console       bool   `toml:"console"`
}

// Broker contains the MQTT broker connection settings.
type Broker struct {
	Host               string `toml:"host"`
	Port               int    `toml:"port"`
	Username           string `toml:"username"`
	Password           string `toml:"password"`
	ClientID           string `toml:"client_id"`
	TLS                bool   `toml:"tls"`
	InsecureSkipVerify bool   `toml:"insecure_skip_verify"`
	ConnectTimeout     int    `toml:"connect_timeout"`
	AckTimeout         int    `toml:"ack_timeout"`
	QoS                int    `toml:"qos"`
}

// Publish contains the primary retained message.
type Publish struct {
	Topic   string `toml:"topic"`
	Message string `toml:"message"`
}

// Availability contains the optional availability announcement published
// ahead of the primary message.
type Availability struct {
	Enabled bool   `toml:"enabled"`
	Topic   string `toml:"topic"`
	Payload string `toml:"payload"`
}

// Mail contains notification settings. An empty recipient disables mail.
type Mail struct {
	Recipient    string `toml:"recipient"`
	Subject      string `toml:"subject"`
	Transport    string `toml:"transport"`
	Command      string `toml:"command"`
	SMTPHost     string `toml:"smtp_host"`
	SMTPPort     int    `toml:"smtp_port"`
	SMTPUsername string `toml:"smtp_username"`
	SMTPPassword string `toml:"smtp_password"`
	SMTPFrom     string `toml:"smtp_from"`
}

// Followup contains the command executed after the run completes. An empty
// command disables it.
type Followup struct {
	Command         string `toml:"command"`
	GraceSeconds    int    `toml:"grace_seconds"`
	WaitWithoutMail bool   `toml:"wait_without_mail"`
	OnFailure       bool   `toml:"on_failure"`
}

// Metrics contains optional Prometheus Pushgateway settings.
type Metrics struct {
	PushgatewayURL string `toml:"pushgateway_url"`
	Job            string `toml:"job"`
	Timeout        int    `toml:"timeout"`
}

// Config encapsulates all configuration values for a run.
//
// A loaded Config is treated as read-only for the rest of the run.
type Config struct {
	Logging      Logging      `toml:"logging"`
	Broker       Broker       `toml:"broker"`
	Publish      Publish      `toml:"publish"`
	Availability Availability `toml:"availability"`
	Mail         Mail         `toml:"mail"`
	Followup     Followup     `toml:"followup"`
	Metrics      Metrics      `toml:"metrics"`
}

// Load parses, normalizes, and validates the configuration file at path. The
// file must exist; mqttha has no implicit configuration location.
func Load(path string) (*Config, string, error) {
	cfg := Default()

	resolvedPath, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", err
	}

	file, err := os.Open(resolvedPath)
	if err != nil {
		return nil, "", fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	decoder := toml.NewDecoder(file)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, "", fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}

	return &cfg, resolvedPath, nil
}

func resolveConfigPath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", errors.New("config path is required")
	}
	expanded, err := expandPath(strings.TrimSpace(path))
	if err != nil {
		return "", err
	}
	info, err := os.Stat(expanded)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("config %s not found (create one with 'mqttha config init -c %s')", expanded, expanded)
		}
		return "", fmt.Errorf("stat config: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("config %s is a directory", expanded)
	}
	return expanded, nil
}

// EnsureDirectories creates the log directory when diagnostics are enabled.
func (c *Config) EnsureDirectories() error {
	if !c.DiagnosticsEnabled() {
		return nil
	}
	if err := os.MkdirAll(c.Logging.Dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", c.Logging.Dir, err)
	}
	return nil
}

// DiagnosticsEnabled reports whether dated log artifacts are written.
func (c *Config) DiagnosticsEnabled() bool {
	return strings.TrimSpace(c.Logging.Dir) != ""
}

// MailEnabled reports whether a notification is sent after the run.
func (c *Config) MailEnabled() bool {
	return strings.TrimSpace(c.Mail.Recipient) != ""
}

// FollowupEnabled reports whether a follow-up command is configured.
func (c *Config) FollowupEnabled() bool {
	return strings.TrimSpace(c.Followup.Command) != ""
}

// MetricsEnabled reports whether run metrics are pushed to a Pushgateway.
func (c *Config) MetricsEnabled() bool {
	return strings.TrimSpace(c.Metrics.PushgatewayURL) != ""
}

// BrokerAddress returns host:port for the configured broker.
func (c *Config) BrokerAddress() string {
	return net.JoinHostPort(c.Broker.Host, strconv.Itoa(c.Broker.Port))
}

// BrokerURL returns the paho-style broker URL including the scheme.
func (c *Config) BrokerURL() string {
	scheme := "tcp"
	if c.Broker.TLS {
		scheme = "ssl"
	}
	return scheme + "://" + c.BrokerAddress()
}

// ConnectTimeout bounds the CONNECT/CONNACK exchange.
func (c *Config) ConnectTimeout() time.Duration {
	return time.Duration(c.Broker.ConnectTimeout) * time.Second
}

// AckTimeout bounds the wait for each publish acknowledgment.
func (c *Config) AckTimeout() time.Duration {
	return time.Duration(c.Broker.AckTimeout) * time.Second
}

// GracePeriod is the delay between a notification and the follow-up command.
func (c *Config) GracePeriod() time.Duration {
	return time.Duration(c.Followup.GraceSeconds) * time.Second
}

// MetricsTimeout bounds the Pushgateway request.
func (c *Config) MetricsTimeout() time.Duration {
	return time.Duration(c.Metrics.Timeout) * time.Second
}

// MailBinary returns the executable used by the command mail transport.
func (c *Config) MailBinary() string {
	if cmd := strings.TrimSpace(c.Mail.Command); cmd != "" {
		return cmd
	}
	return defaultMailCommand
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o600); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
