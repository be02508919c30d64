package followup

import (
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"mqttha/internal/config"
	"mqttha/internal/logging"
)

// Runner executes the follow-up command line.
type Runner interface {
	Run(ctx context.Context, command string) (exitCode int, err error)
}

// shellRunner runs the command through /bin/sh -c.
type shellRunner struct{}

func (shellRunner) Run(ctx context.Context, command string) (int, error) {
	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", command) //nolint:gosec
	err := cmd.Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	if err != nil {
		return -1, err
	}
	return 0, nil
}

// Sleeper blocks for d or until ctx ends.
type Sleeper func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithRunner overrides the command runner.
func WithRunner(r Runner) Option {
	return func(s *Scheduler) {
		if r != nil {
			s.runner = r
		}
	}
}

// WithSleeper overrides the grace-period sleep.
func WithSleeper(fn Sleeper) Option {
	return func(s *Scheduler) {
		if fn != nil {
			s.sleep = fn
		}
	}
}

// WithBeforeRun registers fn to run once the "running" record is logged and
// immediately before the command starts. It is skipped when the grace period
// is cancelled.
func WithBeforeRun(fn func()) Option {
	return func(s *Scheduler) {
		s.beforeRun = fn
	}
}

// Scheduler runs the configured follow-up command once per run.
type Scheduler struct {
	command         string
	grace           time.Duration
	waitWithoutMail bool
	runner          Runner
	sleep           Sleeper
	beforeRun       func()
	logger          *slog.Logger
}

// New builds a scheduler from the followup section.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		grace:           cfg.GracePeriod(),
		waitWithoutMail: cfg.Followup.WaitWithoutMail,
		runner:          shellRunner{},
		sleep:           sleepContext,
		logger:          logging.NewComponentLogger(logger, "followup"),
	}
	if cfg.FollowupEnabled() {
		s.command = strings.TrimSpace(cfg.Followup.Command)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Enabled reports whether a command is configured.
func (s *Scheduler) Enabled() bool {
	return s.command != ""
}

// MaybeRun waits out the grace period when notifications were enabled, then
// runs the command synchronously. It reports whether the command was
// started. The command's exit status is logged, never returned.
func (s *Scheduler) MaybeRun(ctx context.Context, notificationsEnabled bool) bool {
	if !s.Enabled() {
		return false
	}
	logger := logging.WithContext(ctx, s.logger)

	if notificationsEnabled || s.waitWithoutMail {
		logger.Info("waiting before follow-up command",
			logging.Duration("grace", s.grace),
			logging.Bool("notifications_enabled", notificationsEnabled),
		)
		if err := s.sleep(ctx, s.grace); err != nil {
			logging.WarnWithContext(logger, "follow-up cancelled during grace period", "followup_cancelled",
				logging.Error(err),
				logging.String(logging.FieldImpact, "follow-up command was not run"),
			)
			return false
		}
	}

	logger.Info("running follow-up command", logging.String("command", s.command))
	if s.beforeRun != nil {
		s.beforeRun()
	}
	code, err := s.runner.Run(ctx, s.command)
	if err != nil {
		logger.Debug("follow-up command could not start", logging.Error(err))
		return true
	}
	logger.Debug("follow-up command finished", logging.Int("exit_code", code))
	return true
}
