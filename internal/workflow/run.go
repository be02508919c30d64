package workflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"mqttha/internal/broker"
	"mqttha/internal/config"
	"mqttha/internal/diagnostics"
	"mqttha/internal/followup"
	"mqttha/internal/logging"
	"mqttha/internal/metrics"
	"mqttha/internal/notifications"
	"mqttha/internal/publisher"
)

// Options injects collaborators. Zero values select the production
// implementations derived from the configuration.
type Options struct {
	Dialer    publisher.Dialer
	Transport notifications.Transport
	Runner    followup.Runner
	Sleeper   followup.Sleeper
	// Console mirrors the run log; defaults to os.Stdout.
	Console io.Writer
	Now     func() time.Time
	RunID   string
}

// Result summarizes a finished run.
type Result struct {
	RunID        string
	Report       publisher.Report
	Notification notifications.Outcome
	Artifacts    diagnostics.Artifacts
	FollowupRan  bool
	MetricsErr   error
}

// ErrAlreadyRunning is returned when another run holds the lock.
var ErrAlreadyRunning = errors.New("another mqttha run is in progress")

// Run executes one publish-confirm-notify cycle. The returned error covers
// only failures that prevented the run from starting; broker and mail
// failures are reported through Result.
func Run(ctx context.Context, cfg *config.Config, opts Options) (Result, error) {
	if cfg == nil {
		return Result{}, errors.New("workflow: config is required")
	}
	opts = withDefaults(opts)
	result := Result{RunID: opts.RunID}

	if err := cfg.EnsureDirectories(); err != nil {
		return result, err
	}
	lock := flock.New(lockPath(cfg))
	ok, err := lock.TryLock()
	if err != nil {
		return result, fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return result, fmt.Errorf("%w (lock %s)", ErrAlreadyRunning, lock.Path())
	}
	defer func() { _ = lock.Unlock() }()

	started := opts.Now()
	recorder, err := diagnostics.New(diagnostics.OptionsFromConfig(cfg, started, opts.Console))
	if err != nil {
		return result, err
	}
	defer recorder.Close()

	ctx = logging.WithRunID(ctx, opts.RunID)
	root := recorder.Logger()
	logger := logging.WithContext(ctx, logging.NewComponentLogger(root, "workflow"))

	logger.Info("run started",
		logging.String("broker", cfg.BrokerAddress()),
		logging.String("topic", cfg.Publish.Topic),
		logging.Bool("diagnostics", recorder.Enabled()),
		logging.Bool("mail", cfg.MailEnabled()),
		logging.Bool("followup", cfg.FollowupEnabled()),
	)
	if recorder.Enabled() {
		if removed := recorder.Prune(cfg.Logging.RetentionDays, started); removed > 0 {
			logger.Debug("pruned old log artifacts", logging.Int("removed", removed))
		}
	}
	diagnostics.RecordHost(ctx, logging.WithContext(ctx, root))

	dialer := opts.Dialer
	if dialer == nil {
		dialer = broker.NewDialer(broker.OptionsFromConfig(cfg), root)
	}
	session := publisher.NewSession(dialer, publisher.OptionsFromConfig(cfg, opts.RunID), root, publisher.WithClock(opts.Now))
	result.Report = session.Run(ctx)

	if cfg.MailEnabled() {
		transport := opts.Transport
		if transport == nil {
			transport = notifications.NewTransport(cfg)
		}
		dispatcher := notifications.NewDispatcher(transport, recorder, root, cfg.Logging.Dir, cfg.Logging.Prefix)
		subject := notifications.SubjectFor(result.Report, cfg.Mail.Subject)
		result.Notification = dispatcher.Notify(ctx, result.Report, subject, cfg.Mail.Recipient)
	}

	if pusher := metrics.NewPusher(cfg, root); pusher != nil {
		run := metrics.NewRun()
		run.Observe(result.Report, result.Notification.Sent)
		result.MetricsErr = pusher.Push(ctx, run)
	}

	logRunFinished(logger, result)

	// Artifacts are flushed right before the follow-up command starts.
	// Records written after that reach memory and console only.
	flush := func() {
		if artifacts, ok := recorder.Flush(); ok {
			result.Artifacts = artifacts
		}
	}
	scheduler := followup.New(cfg, root, append(schedulerOptions(opts), followup.WithBeforeRun(flush))...)
	switch {
	case !scheduler.Enabled():
	case !result.Report.Succeeded() && !cfg.Followup.OnFailure:
		logger.Info("follow-up command skipped after failed run",
			logging.String("failed_stage", result.Report.FailedStage()),
		)
	default:
		result.FollowupRan = scheduler.MaybeRun(ctx, cfg.MailEnabled())
	}
	flush()

	return result, nil
}

func withDefaults(opts Options) Options {
	if opts.Console == nil {
		opts.Console = os.Stdout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	return opts
}

func schedulerOptions(opts Options) []followup.Option {
	var out []followup.Option
	if opts.Runner != nil {
		out = append(out, followup.WithRunner(opts.Runner))
	}
	if opts.Sleeper != nil {
		out = append(out, followup.WithSleeper(opts.Sleeper))
	}
	return out
}

// lockPath places the run lock next to the artifacts, or in the temp dir
// when diagnostics are disabled.
func lockPath(cfg *config.Config) string {
	dir := os.TempDir()
	if cfg.DiagnosticsEnabled() {
		dir = cfg.Logging.Dir
	}
	return filepath.Join(dir, cfg.Logging.Prefix+".lock")
}

func logRunFinished(logger *slog.Logger, result Result) {
	attrs := []logging.Attr{
		logging.Bool("succeeded", result.Report.Succeeded()),
		logging.Duration("duration", result.Report.Finished.Sub(result.Report.Started)),
		logging.Bool("notification_sent", result.Notification.Sent),
		logging.Int("exit_code", ExitCode(result)),
	}
	if stage := result.Report.FailedStage(); stage != "" {
		attrs = append(attrs, logging.String("failed_stage", stage))
	}
	logger.Info("run finished", logging.Args(attrs...)...)
}
