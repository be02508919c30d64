package diagnostics

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ncruces/go-strftime"

	"mqttha/internal/config"
	"mqttha/internal/logging"
)

const (
	logExtension = ".log"
	errExtension = ".err"

	maxArtifactAttempts = 100
)

// Options configures the recorder sinks.
type Options struct {
	// Dir is the artifact directory. Empty disables the file sinks.
	Dir    string
	Prefix string
	// Stamp is appended to Prefix to form artifact names.
	Stamp  string
	Level  slog.Level
	Format string
	// Console mirrors the informational stream when non-nil.
	Console io.Writer
}

// OptionsFromConfig derives recorder options from the logging section.
func OptionsFromConfig(cfg *config.Config, now time.Time, console io.Writer) Options {
	opts := Options{
		Prefix: cfg.Logging.Prefix,
		Stamp:  StampFor(cfg.Logging.DateFormat, now),
		Level:  logging.ParseLevel(cfg.Logging.Level),
		Format: cfg.Logging.Format,
	}
	if cfg.DiagnosticsEnabled() {
		opts.Dir = cfg.Logging.Dir
	}
	if cfg.Logging.Console {
		opts.Console = console
	}
	return opts
}

// StampFor renders the artifact date suffix using strftime syntax.
func StampFor(format string, t time.Time) string {
	return strftime.Format(format, t)
}

// Artifacts lists the files left on disk after Flush.
type Artifacts struct {
	LogPath string
	// ErrPath is empty when no error record was written.
	ErrPath string
}

// Snapshot is a point-in-time copy of both in-memory streams.
type Snapshot struct {
	Info    string
	Errors  string
	Enabled bool
	LogPath string
	ErrPath string
}

// HasErrors reports whether the error stream has content.
func (s Snapshot) HasErrors() bool {
	return strings.TrimSpace(s.Errors) != ""
}

// Recorder fans every record out to the informational and error streams.
// Each stream always lands in memory and, when a directory is configured,
// in a dated file.
type Recorder struct {
	logger  *slog.Logger
	info    *memorySink
	errs    *memorySink
	logFile *fileSink
	errFile *fileSink
	prefix  string
	logPath string
	errPath string
	enabled bool

	mu      sync.Mutex
	flushed bool
}

// New builds a recorder and its single fan-out logger.
func New(opts Options) (*Recorder, error) {
	rec := &Recorder{
		info: &memorySink{},
		errs: &memorySink{},
	}

	var handlers []slog.Handler
	if opts.Console != nil {
		console, err := logging.NewHandler(opts.Console, opts.Format, opts.Level, false)
		if err != nil {
			return nil, err
		}
		handlers = append(handlers, console)
	}

	if dir := strings.TrimSpace(opts.Dir); dir != "" {
		logFile, logPath, errPath, err := claimArtifacts(dir, opts.Prefix+opts.Stamp)
		if err != nil {
			return nil, fmt.Errorf("diagnostics: %w", err)
		}
		rec.enabled = true
		rec.prefix = opts.Prefix
		rec.logPath = logPath
		rec.errPath = errPath
		errFile := newLazyFileSink(errPath)
		rec.logFile = logFile
		rec.errFile = errFile

		logHandler, err := logging.NewHandler(logFile, opts.Format, opts.Level, false)
		if err != nil {
			_ = logFile.Close()
			return nil, err
		}
		errHandler, err := logging.NewHandler(errFile, opts.Format, slog.LevelError, false)
		if err != nil {
			_ = logFile.Close()
			return nil, err
		}
		handlers = append(handlers, logHandler, errHandler)
	}

	// The in-memory streams feed the mail body, so they keep the console
	// line format regardless of the configured file format.
	infoHandler, _ := logging.NewHandler(rec.info, "console", opts.Level, false)
	errHandler, _ := logging.NewHandler(rec.errs, "console", slog.LevelError, false)
	handlers = append(handlers, infoHandler, errHandler)

	rec.logger = slog.New(logging.TeeHandler(handlers...))
	return rec, nil
}

// Logger returns the recorder's logger.
func (r *Recorder) Logger() *slog.Logger {
	return r.logger
}

// Enabled reports whether file sinks were configured.
func (r *Recorder) Enabled() bool {
	return r.enabled
}

// HasErrors reports whether any error-level record was written.
func (r *Recorder) HasErrors() bool {
	return r.errs.Len() > 0
}

// Snapshot copies the current stream contents.
func (r *Recorder) Snapshot() Snapshot {
	return Snapshot{
		Info:    r.info.String(),
		Errors:  r.errs.String(),
		Enabled: r.enabled,
		LogPath: r.logPath,
		ErrPath: r.errPath,
	}
}

// Flush closes the file sinks and drops an empty error artifact. It returns
// false when diagnostics are disabled. Flush is idempotent.
func (r *Recorder) Flush() (Artifacts, bool) {
	if !r.enabled {
		return Artifacts{}, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	artifacts := Artifacts{LogPath: r.logPath}
	if !r.flushed {
		r.flushed = true
		_ = r.logFile.Close()
		_ = r.errFile.Close()
		if err := removeIfEmpty(r.errPath); err != nil {
			logging.WarnWithContext(r.logger, "empty error artifact not removed", "diagnostics_cleanup_failed",
				logging.String("path", r.errPath),
				logging.Error(err),
			)
		}
	}
	if info, err := os.Stat(r.errPath); err == nil && info.Size() > 0 {
		artifacts.ErrPath = r.errPath
	}
	return artifacts, true
}

// Close flushes and discards the result, for use with defer.
func (r *Recorder) Close() {
	r.Flush()
}

// Prune removes .log and .err artifacts sharing the recorder prefix that are
// older than retentionDays. The current run's artifacts are never removed.
func (r *Recorder) Prune(retentionDays int, now time.Time) int {
	if !r.enabled {
		return 0
	}
	dir := filepath.Dir(r.logPath)
	exclude := []string{r.logPath, r.errPath}
	return logging.CleanupOldLogs(r.logger, retentionDays, now,
		logging.RetentionTarget{Dir: dir, Pattern: r.prefix + "*" + logExtension, Exclude: exclude},
		logging.RetentionTarget{Dir: dir, Pattern: r.prefix + "*" + errExtension, Exclude: exclude},
	)
}

// claimArtifacts creates the .log file for the first "<base>" or
// "<base>-N" name that no earlier run has used. Runs sharing a date stamp
// therefore never append to each other's artifacts.
func claimArtifacts(dir, base string) (*fileSink, string, string, error) {
	for attempt := 1; attempt <= maxArtifactAttempts; attempt++ {
		name := base
		if attempt > 1 {
			name = fmt.Sprintf("%s-%d", base, attempt)
		}
		logPath := filepath.Join(dir, name+logExtension)
		errPath := filepath.Join(dir, name+errExtension)
		if _, err := os.Lstat(errPath); err == nil {
			continue
		}
		sink, err := newExclusiveFileSink(logPath)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return nil, "", "", err
		}
		return sink, logPath, errPath, nil
	}
	return nil, "", "", fmt.Errorf("no unused artifact name for %s after %d attempts", base, maxArtifactAttempts)
}

func removeIfEmpty(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if info.Size() > 0 {
		return nil
	}
	return os.Remove(path)
}
