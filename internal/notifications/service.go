package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"mqttha/internal/config"
	"mqttha/internal/diagnostics"
	"mqttha/internal/logging"
	"mqttha/internal/publisher"
)

// Message is one outgoing notification.
type Message struct {
	Subject     string
	Body        string
	Recipient   string
	Attachments []string
}

// Transport delivers a Message.
type Transport interface {
	Send(ctx context.Context, msg Message) error
}

// TransportError reports a failed delivery together with whatever the
// transport printed.
type TransportError struct {
	// ExitCode is the mail binary's exit status, or -1 when no process exit
	// status applies.
	ExitCode int
	Stderr   string
	Err      error
}

func (e *TransportError) Error() string {
	var b strings.Builder
	b.WriteString("mail transport")
	if e.ExitCode >= 0 {
		fmt.Fprintf(&b, ": exit status %d", e.ExitCode)
	}
	if e.Err != nil && e.ExitCode < 0 {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if e.Stderr != "" {
		b.WriteString(": ")
		b.WriteString(e.Stderr)
	}
	return b.String()
}

func (e *TransportError) Unwrap() error { return e.Err }

// NewTransport builds the transport selected by mail.transport. When mail is
// disabled a no-op transport is returned.
func NewTransport(cfg *config.Config) Transport {
	if !cfg.MailEnabled() {
		return noopTransport{}
	}
	if cfg.Mail.Transport == config.TransportSMTP {
		return newSMTPTransport(cfg.Mail)
	}
	return NewCommandTransport(cfg.MailBinary())
}

type noopTransport struct{}

func (noopTransport) Send(context.Context, Message) error { return nil }

// Outcome is the result of one dispatch.
type Outcome struct {
	Attempted bool
	Sent      bool
	Err       error
}

// Snapshotter exposes the diagnostic streams at dispatch time.
type Snapshotter interface {
	Snapshot() diagnostics.Snapshot
}

// Dispatcher composes the notification body from diagnostics and hands it
// to a Transport. It never retries.
type Dispatcher struct {
	transport Transport
	source    Snapshotter
	logger    *slog.Logger
	dir       string
	prefix    string
}

// NewDispatcher constructs a dispatcher. dir and prefix locate the
// artifacts attached to each message.
func NewDispatcher(transport Transport, source Snapshotter, logger *slog.Logger, dir, prefix string) *Dispatcher {
	return &Dispatcher{
		transport: transport,
		source:    source,
		logger:    logging.NewComponentLogger(logger, "notifications"),
		dir:       dir,
		prefix:    prefix,
	}
}

// Notify sends one message describing report. The body is built before the
// send, so the dispatch outcome itself is only logged, never mailed.
func (d *Dispatcher) Notify(ctx context.Context, report publisher.Report, subject, recipient string) Outcome {
	logger := logging.WithContext(ctx, d.logger)
	snap := d.source.Snapshot()
	msg := Message{
		Subject:   subject,
		Body:      BuildBody(snap),
		Recipient: recipient,
	}
	if snap.Enabled {
		attachments, err := NewestArtifacts(d.dir, d.prefix)
		if err != nil {
			logging.WarnWithContext(logger, "attachment lookup failed; sending without attachments", "notification_attachments_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "mail carries the inline body only"),
			)
		}
		msg.Attachments = attachments
	}

	logger.Info("there is an option to send a mail",
		logging.String("recipient", recipient),
		logging.String("subject", subject),
		logging.Bool("run_succeeded", report.Succeeded()),
		logging.Int("attachments", len(msg.Attachments)),
	)

	if err := d.transport.Send(ctx, msg); err != nil {
		attrs := []logging.Attr{
			logging.String("recipient", recipient),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the mail transport configuration"),
		}
		var transportErr *TransportError
		if errors.As(err, &transportErr) && transportErr.Stderr != "" {
			attrs = append(attrs, logging.String("transport_output", transportErr.Stderr))
		}
		logging.ErrorWithContext(logger, "there was an error sending the mail", "notification_failed", attrs...)
		return Outcome{Attempted: true, Err: err}
	}

	logger.Info("mail was sent successfully", logging.String("recipient", recipient))
	return Outcome{Attempted: true, Sent: true}
}

// SubjectFor returns configured when set, otherwise a subject describing the
// report outcome.
func SubjectFor(report publisher.Report, configured string) string {
	if s := strings.TrimSpace(configured); s != "" {
		return s
	}
	if report.Succeeded() {
		return "MQTT message published - attaching logs"
	}
	return fmt.Sprintf("Error publishing MQTT message (%s) - attaching logs", report.FailedStage())
}
