package publisher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"mqttha/internal/config"
	"mqttha/internal/logging"
)

// Options describes what one session publishes.
type Options struct {
	RunID string
	// Broker is the address shown in log records.
	Broker       string
	Primary      Message
	Availability *Message
}

// OptionsFromConfig derives the publish plan from configuration.
func OptionsFromConfig(cfg *config.Config, runID string) Options {
	qos := byte(cfg.Broker.QoS)
	opts := Options{
		RunID:  runID,
		Broker: cfg.BrokerAddress(),
		Primary: Message{
			Topic:    cfg.Publish.Topic,
			Payload:  []byte(cfg.Publish.Message),
			Retained: true,
			QoS:      qos,
		},
	}
	if cfg.Availability.Enabled {
		opts.Availability = &Message{
			Topic:    cfg.Availability.Topic,
			Payload:  []byte(cfg.Availability.Payload),
			Retained: true,
			QoS:      qos,
		}
	}
	return opts
}

// Option configures a Session.
type Option func(*Session)

// WithClock overrides the time source used for report timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// Session runs connect, publish, and disconnect as one blocking unit.
type Session struct {
	dialer Dialer
	opts   Options
	logger *slog.Logger
	now    func() time.Time
}

// NewSession constructs a session over dialer.
func NewSession(dialer Dialer, opts Options, logger *slog.Logger, options ...Option) *Session {
	s := &Session{
		dialer: dialer,
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "publisher"),
		now:    time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Run executes the session and returns its report. Connect and publish
// failures end up in the report and are never returned.
func (s *Session) Run(ctx context.Context) Report {
	report := Report{RunID: s.opts.RunID, Started: s.now()}
	logger := logging.WithContext(ctx, s.logger)

	logger.Info("connecting to broker", logging.String("broker", s.opts.Broker))
	conn, err := s.dialer.Dial(ctx)
	if err != nil {
		if !errors.Is(err, ErrConnect) {
			err = fmt.Errorf("%w: %w", ErrConnect, err)
		}
		reason := Classify(err)
		report.Connection = ConnectionOutcome{Cause: err, Reason: reason}
		logging.ErrorWithContext(logger, connectMessage(reason), "broker_connect_failed",
			logging.String("broker", s.opts.Broker),
			logging.String("reason", string(reason)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, connectHint(reason)),
		)
		report.Finished = s.now()
		return report
	}
	defer conn.Close()

	report.Connection = ConnectionOutcome{Connected: true}
	logger.Info("connected to broker", logging.String("broker", s.opts.Broker))

	plan := make([]Message, 0, 2)
	if s.opts.Availability != nil {
		plan = append(plan, *s.opts.Availability)
	}
	plan = append(plan, s.opts.Primary)

	outcome := &PublishOutcome{Delivered: true}
	start := s.now()
	for _, msg := range plan {
		outcome.Attempts++
		logger.Info("publishing topic and message",
			logging.String("topic", msg.Topic),
			logging.String("payload", string(msg.Payload)),
			logging.Bool("retained", msg.Retained),
			logging.Int("qos", int(msg.QoS)),
		)
		if err := conn.Publish(ctx, msg); err != nil {
			if !errors.Is(err, ErrPublish) {
				err = fmt.Errorf("%w: %s: %w", ErrPublish, msg.Topic, err)
			}
			outcome.Delivered = false
			outcome.Cause = err
			hint := "check broker logs and topic permissions"
			if errors.Is(err, ErrAckTimeout) {
				hint = "broker did not acknowledge; raise broker.ack_timeout or check broker load"
			}
			logging.ErrorWithContext(logger, "publish failed", "publish_failed",
				logging.String("topic", msg.Topic),
				logging.Int("attempt", outcome.Attempts),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, hint),
			)
			break
		}
		logger.Info("message acknowledged", logging.String("topic", msg.Topic))
	}
	outcome.Duration = s.now().Sub(start)
	report.Publish = outcome

	if outcome.Delivered {
		logger.Info("all messages delivered",
			logging.Int("messages", outcome.Attempts),
			logging.Duration("duration", outcome.Duration),
		)
	}
	report.Finished = s.now()
	return report
}
