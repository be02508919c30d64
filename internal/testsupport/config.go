package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"mqttha/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with a unique temp log directory per
// test. The broker points at 127.0.0.1:1883, the publish plan is
// home/status = "on", and mail, follow-up, metrics and console output are off.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Logging.Dir = filepath.Join(base, "logs")
	cfgVal.Logging.Console = false
	cfgVal.Broker.Host = "127.0.0.1"
	cfgVal.Broker.ClientID = "mqttha-test"
	cfgVal.Publish.Topic = "home/status"
	cfgVal.Publish.Message = "on"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithoutDiagnostics disables the log directory.
func WithoutDiagnostics() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Logging.Dir = ""
	}
}

// WithMail enables notifications to recipient.
func WithMail(recipient string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Mail.Recipient = recipient
	}
}

// WithFollowup configures the follow-up command.
func WithFollowup(command string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Followup.Command = command
	}
}

// WithAvailability enables the availability announcement.
func WithAvailability(topic, payload string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Availability.Enabled = true
		b.cfg.Availability.Topic = topic
		b.cfg.Availability.Payload = payload
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, the default mail binary is
// stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"mail"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config. It
// requires the log directory to be set.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Logging.Dir)
}
