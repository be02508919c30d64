package notifications_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mqttha/internal/config"
	"mqttha/internal/diagnostics"
	"mqttha/internal/logging"
	"mqttha/internal/notifications"
	"mqttha/internal/publisher"
)

type staticSnapshot diagnostics.Snapshot

func (s staticSnapshot) Snapshot() diagnostics.Snapshot { return diagnostics.Snapshot(s) }

type recordingTransport struct {
	sent []notifications.Message
	err  error
}

func (r *recordingTransport) Send(_ context.Context, msg notifications.Message) error {
	r.sent = append(r.sent, msg)
	return r.err
}

func okReport() publisher.Report {
	return publisher.Report{
		Connection: publisher.ConnectionOutcome{Connected: true},
		Publish:    &publisher.PublishOutcome{Delivered: true, Attempts: 1},
	}
}

func failedReport() publisher.Report {
	return publisher.Report{
		Connection: publisher.ConnectionOutcome{Cause: publisher.ErrUnreachable, Reason: publisher.ReasonUnreachable},
	}
}

func TestBuildBodySections(t *testing.T) {
	tests := []struct {
		name      string
		snap      diagnostics.Snapshot
		wantErr   bool
		wantLog   bool
		wantPlace bool
	}{
		{name: "enabled without errors", snap: diagnostics.Snapshot{Info: "INFO ok\n", Enabled: true}, wantLog: true},
		{name: "enabled with errors", snap: diagnostics.Snapshot{Info: "INFO a\nERROR b\n", Errors: "ERROR b\n", Enabled: true}, wantErr: true, wantLog: true},
		{name: "disabled without errors", snap: diagnostics.Snapshot{Info: "INFO ok\n"}, wantPlace: true},
		{name: "disabled with errors", snap: diagnostics.Snapshot{Info: "ERROR b\n", Errors: "ERROR b\n"}, wantErr: true, wantPlace: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			body := notifications.BuildBody(tc.snap)
			if got := strings.Contains(body, ".err file\n"); got != tc.wantErr {
				t.Fatalf("error section present=%v, want %v:\n%s", got, tc.wantErr, body)
			}
			if got := strings.Contains(body, ".log file\n"); got != tc.wantLog {
				t.Fatalf("log section present=%v, want %v:\n%s", got, tc.wantLog, body)
			}
			if got := strings.Contains(body, notifications.DisabledPlaceholder); got != tc.wantPlace {
				t.Fatalf("placeholder present=%v, want %v:\n%s", got, tc.wantPlace, body)
			}
		})
	}

	body := notifications.BuildBody(diagnostics.Snapshot{Info: "INFO x\n", Errors: "ERROR y\n", Enabled: true})
	if strings.Index(body, ".err file") > strings.Index(body, ".log file") {
		t.Fatalf("error section must precede log section:\n%s", body)
	}
	if !strings.HasPrefix(body, "----------\n\n.err file\nERROR y\n") {
		t.Fatalf("unexpected body layout:\n%s", body)
	}
}

func TestDispatcherSendsBodyAndAttachments(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "MQTT-2024.log")
	if err := os.WriteFile(logPath, []byte("INFO connected\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	transport := &recordingTransport{}
	snap := staticSnapshot{Info: "INFO connected\n", Enabled: true, LogPath: logPath}

	outcome := notifications.NewDispatcher(transport, snap, logging.NewNop(), dir, "MQTT-").
		Notify(context.Background(), okReport(), "subject", "ops@example.com")

	if !outcome.Sent || outcome.Err != nil {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if len(transport.sent) != 1 {
		t.Fatalf("expected one send, got %d", len(transport.sent))
	}
	msg := transport.sent[0]
	if msg.Recipient != "ops@example.com" || msg.Subject != "subject" {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if len(msg.Attachments) != 1 || msg.Attachments[0] != logPath {
		t.Fatalf("unexpected attachments: %v", msg.Attachments)
	}
	if !strings.Contains(msg.Body, "INFO connected") {
		t.Fatalf("body missing log section: %q", msg.Body)
	}
}

func TestDispatcherLogsTransportFailureAfterBody(t *testing.T) {
	rec, err := diagnostics.New(diagnostics.Options{Prefix: "MQTT-", Format: "console"})
	if err != nil {
		t.Fatalf("diagnostics.New: %v", err)
	}
	rec.Logger().Error("broker unreachable")

	transport := &recordingTransport{err: &notifications.TransportError{ExitCode: 1, Stderr: "send-mail: cannot connect"}}
	outcome := notifications.NewDispatcher(transport, rec, rec.Logger(), "", "MQTT-").
		Notify(context.Background(), failedReport(), "subject", "ops@example.com")

	if outcome.Sent || outcome.Err == nil {
		t.Fatalf("expected failed outcome, got %+v", outcome)
	}
	var transportErr *notifications.TransportError
	if !errors.As(outcome.Err, &transportErr) || transportErr.ExitCode != 1 {
		t.Fatalf("expected transport error, got %v", outcome.Err)
	}

	body := transport.sent[0].Body
	if !strings.Contains(body, "broker unreachable") {
		t.Fatalf("body should carry the recorded error: %q", body)
	}
	if strings.Contains(body, "error sending the mail") {
		t.Fatal("dispatch outcome must not appear in its own body")
	}
	if !strings.Contains(rec.Snapshot().Errors, "send-mail: cannot connect") {
		t.Fatalf("transport output should be recorded afterwards: %q", rec.Snapshot().Errors)
	}
	if len(transport.sent[0].Attachments) != 0 {
		t.Fatal("disabled diagnostics must not attach files")
	}
}

func TestSubjectFor(t *testing.T) {
	if got := notifications.SubjectFor(okReport(), " custom "); got != "custom" {
		t.Fatalf("configured subject should win, got %q", got)
	}
	if got := notifications.SubjectFor(okReport(), ""); strings.Contains(got, "Error") {
		t.Fatalf("unexpected success subject %q", got)
	}
	if got := notifications.SubjectFor(failedReport(), ""); !strings.Contains(got, "connect") {
		t.Fatalf("failure subject should name the stage, got %q", got)
	}
}

func TestNewTransportSelection(t *testing.T) {
	cfg := config.Default()
	if err := notifications.NewTransport(&cfg).Send(context.Background(), notifications.Message{}); err != nil {
		t.Fatalf("disabled mail should yield a no-op transport, got %v", err)
	}

	cfg.Mail.Recipient = "ops@example.com"
	if _, ok := notifications.NewTransport(&cfg).(*notifications.CommandTransport); !ok {
		t.Fatal("expected command transport by default")
	}
}

func TestNewestArtifacts(t *testing.T) {
	dir := t.TempDir()
	write := func(name string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(name), 0o644); err != nil {
			t.Fatal(err)
		}
		// ctime has no portable setter, so spacing the writes orders it.
		time.Sleep(20 * time.Millisecond)
		return path
	}
	write("MQTT-1.log")
	write("MQTT-1.err")
	newestLog := write("MQTT-2.log")
	write("MQTT-2.txt")
	write("OTHER-3.log")

	got, err := notifications.NewestArtifacts(dir, "MQTT-")
	if err != nil {
		t.Fatalf("NewestArtifacts: %v", err)
	}
	want := []string{newestLog, filepath.Join(dir, "MQTT-1.err")}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("NewestArtifacts = %v, want %v", got, want)
	}

	if got, _ := notifications.NewestArtifacts("", "MQTT-"); got != nil {
		t.Fatalf("empty dir should yield nothing, got %v", got)
	}
}
