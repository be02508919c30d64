package followup_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mqttha/internal/config"
	"mqttha/internal/followup"
	"mqttha/internal/logging"
)

type fakeRunner struct {
	calls []string
	code  int
	err   error
}

func (f *fakeRunner) Run(_ context.Context, command string) (int, error) {
	f.calls = append(f.calls, command)
	return f.code, f.err
}

type fakeSleeper struct {
	waits []time.Duration
	err   error
}

func (f *fakeSleeper) sleep(_ context.Context, d time.Duration) error {
	f.waits = append(f.waits, d)
	return f.err
}

type runnerFunc func(ctx context.Context, command string) (int, error)

func (f runnerFunc) Run(ctx context.Context, command string) (int, error) { return f(ctx, command) }

func followupConfig(command string) *config.Config {
	cfg := config.Default()
	cfg.Followup.Command = command
	cfg.Followup.GraceSeconds = 120
	return &cfg
}

func TestMaybeRunWaitsWhenNotificationsEnabled(t *testing.T) {
	runner := &fakeRunner{}
	sleeper := &fakeSleeper{}
	s := followup.New(followupConfig("sudo reboot"), logging.NewNop(), followup.WithRunner(runner), followup.WithSleeper(sleeper.sleep))

	if !s.MaybeRun(context.Background(), true) {
		t.Fatal("expected command to run")
	}
	if len(sleeper.waits) != 1 || sleeper.waits[0] != 120*time.Second {
		t.Fatalf("expected one 120s grace wait, got %v", sleeper.waits)
	}
	if len(runner.calls) != 1 || runner.calls[0] != "sudo reboot" {
		t.Fatalf("expected one invocation, got %v", runner.calls)
	}
}

func TestMaybeRunSkipsGraceWithoutNotifications(t *testing.T) {
	runner := &fakeRunner{code: 1}
	sleeper := &fakeSleeper{}
	s := followup.New(followupConfig("true"), logging.NewNop(), followup.WithRunner(runner), followup.WithSleeper(sleeper.sleep))

	if !s.MaybeRun(context.Background(), false) {
		t.Fatal("expected command to run")
	}
	if len(sleeper.waits) != 0 {
		t.Fatalf("expected no grace wait, got %v", sleeper.waits)
	}
	if len(runner.calls) != 1 {
		t.Fatalf("expected exactly one invocation, got %d", len(runner.calls))
	}
}

func TestMaybeRunWaitWithoutMail(t *testing.T) {
	cfg := followupConfig("true")
	cfg.Followup.WaitWithoutMail = true
	sleeper := &fakeSleeper{}
	s := followup.New(cfg, logging.NewNop(), followup.WithRunner(&fakeRunner{}), followup.WithSleeper(sleeper.sleep))

	s.MaybeRun(context.Background(), false)
	if len(sleeper.waits) != 1 {
		t.Fatalf("expected grace wait, got %v", sleeper.waits)
	}
}

func TestMaybeRunDisabled(t *testing.T) {
	for _, command := range []string{"", "   "} {
		cfg := followupConfig(command)
		runner := &fakeRunner{}
		s := followup.New(cfg, logging.NewNop(), followup.WithRunner(runner))
		if s.Enabled() || s.MaybeRun(context.Background(), true) || len(runner.calls) != 0 {
			t.Fatalf("command %q should be a no-op", command)
		}
	}
}

func TestMaybeRunCancelledDuringGrace(t *testing.T) {
	runner := &fakeRunner{}
	sleeper := &fakeSleeper{err: context.Canceled}
	s := followup.New(followupConfig("sudo reboot"), logging.NewNop(), followup.WithRunner(runner), followup.WithSleeper(sleeper.sleep))

	if s.MaybeRun(context.Background(), true) {
		t.Fatal("cancelled grace period must not run the command")
	}
	if len(runner.calls) != 0 {
		t.Fatalf("unexpected invocation: %v", runner.calls)
	}
}

func TestMaybeRunCallsBeforeRunAfterGrace(t *testing.T) {
	var events []string
	runner := runnerFunc(func(context.Context, string) (int, error) {
		events = append(events, "run")
		return 0, nil
	})
	sleeper := func(context.Context, time.Duration) error {
		events = append(events, "grace")
		return nil
	}
	s := followup.New(followupConfig("sudo reboot"), logging.NewNop(),
		followup.WithRunner(runner),
		followup.WithSleeper(sleeper),
		followup.WithBeforeRun(func() { events = append(events, "before") }),
	)

	s.MaybeRun(context.Background(), true)
	if got := strings.Join(events, ","); got != "grace,before,run" {
		t.Fatalf("unexpected order: %s", got)
	}
}

func TestMaybeRunSkipsBeforeRunWhenCancelled(t *testing.T) {
	called := false
	s := followup.New(followupConfig("sudo reboot"), logging.NewNop(),
		followup.WithRunner(&fakeRunner{}),
		followup.WithSleeper((&fakeSleeper{err: context.Canceled}).sleep),
		followup.WithBeforeRun(func() { called = true }),
	)

	s.MaybeRun(context.Background(), true)
	if called {
		t.Fatal("before-run hook must not fire when the grace period is cancelled")
	}
}

func TestMaybeRunIgnoresRunnerErrors(t *testing.T) {
	runner := &fakeRunner{err: errors.New("exec failed")}
	s := followup.New(followupConfig("x"), logging.NewNop(), followup.WithRunner(runner))
	if !s.MaybeRun(context.Background(), false) {
		t.Fatal("a start failure still counts as an attempted follow-up")
	}
}

func TestShellRunnerExecutesCommand(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "ran")
	s := followup.New(followupConfig("touch '"+marker+"' && exit 7"), logging.NewNop())

	if !s.MaybeRun(context.Background(), false) {
		t.Fatal("expected command to run")
	}
	if _, err := os.Stat(marker); err != nil {
		t.Fatalf("expected shell command side effect: %v", err)
	}
}

func TestDefaultSleeperHonoursContext(t *testing.T) {
	cfg := followupConfig("true")
	runner := &fakeRunner{}
	s := followup.New(cfg, logging.NewNop(), followup.WithRunner(runner))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if s.MaybeRun(ctx, true) {
		t.Fatal("expected cancelled context to abort the grace wait")
	}
}
