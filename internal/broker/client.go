package broker

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/eclipse/paho.mqtt.golang/packets"

	"mqttha/internal/config"
	"mqttha/internal/logging"
	"mqttha/internal/publisher"
)

const (
	// disconnectQuiesce is the time, in milliseconds, paho may spend
	// flushing outstanding work before the socket closes.
	disconnectQuiesce = 250
	// protocolMQTT311 pins the handshake to MQTT 3.1.1 so a rejected
	// CONNACK is not retried with 3.1.
	protocolMQTT311 = 4
	// waitMargin lets paho report its own dial or handshake timeout before
	// the outer wait gives up.
	waitMargin = time.Second
)

var errWaitTimeout = errors.New("wait timed out")

// Options configures the paho-backed dialer.
type Options struct {
	URL                string
	ClientID           string
	Username           string
	Password           string
	TLS                bool
	InsecureSkipVerify bool
	ServerName         string
	ConnectTimeout     time.Duration
	AckTimeout         time.Duration
}

// OptionsFromConfig derives dialer options from the broker section.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		URL:                cfg.BrokerURL(),
		ClientID:           cfg.Broker.ClientID,
		Username:           cfg.Broker.Username,
		Password:           cfg.Broker.Password,
		TLS:                cfg.Broker.TLS,
		InsecureSkipVerify: cfg.Broker.InsecureSkipVerify,
		ServerName:         cfg.Broker.Host,
		ConnectTimeout:     cfg.ConnectTimeout(),
		AckTimeout:         cfg.AckTimeout(),
	}
}

// Dialer opens MQTT sessions with the Eclipse Paho client.
type Dialer struct {
	opts   Options
	logger *slog.Logger
}

// NewDialer constructs a Dialer and routes paho's internal logging to the
// debug level of logger.
func NewDialer(opts Options, logger *slog.Logger) *Dialer {
	logger = logging.NewComponentLogger(logger, "broker")
	routeClientLogs(logger)
	return &Dialer{opts: opts, logger: logger}
}

func (d *Dialer) clientOptions() *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions().
		AddBroker(d.opts.URL).
		SetClientID(d.opts.ClientID).
		SetCleanSession(true).
		SetProtocolVersion(protocolMQTT311).
		SetConnectTimeout(d.opts.ConnectTimeout).
		SetWriteTimeout(d.opts.AckTimeout).
		SetAutoReconnect(false).
		SetConnectRetry(false)
	if d.opts.Username != "" {
		opts.SetUsername(d.opts.Username)
		opts.SetPassword(d.opts.Password)
	}
	if d.opts.TLS {
		opts.SetTLSConfig(&tls.Config{
			ServerName:         d.opts.ServerName,
			InsecureSkipVerify: d.opts.InsecureSkipVerify, //nolint:gosec // operator opt-in for self-signed brokers
			MinVersion:         tls.VersionTLS12,
		})
	}
	return opts
}

// Dial connects and waits for the broker to accept the session.
func (d *Dialer) Dial(ctx context.Context) (publisher.Conn, error) {
	logger := logging.WithContext(ctx, d.logger)
	client := mqtt.NewClient(d.clientOptions())
	logger.Debug("dialing broker",
		logging.String("url", d.opts.URL),
		logging.String("client_id", d.opts.ClientID),
		logging.Bool("tls", d.opts.TLS),
	)

	err := waitToken(ctx, client.Connect(), d.opts.ConnectTimeout+waitMargin)
	if err == nil {
		return &conn{client: client, ackTimeout: d.opts.AckTimeout, logger: logger}, nil
	}

	if errors.Is(err, errWaitTimeout) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		client.Disconnect(0)
	}
	return nil, classifyConnectError(d.opts.URL, err)
}

func classifyConnectError(url string, err error) error {
	switch {
	case errors.Is(err, packets.ErrorRefusedBadUsernameOrPassword),
		errors.Is(err, packets.ErrorRefusedNotAuthorised):
		return fmt.Errorf("%w: %w: %w", publisher.ErrConnect, publisher.ErrAuthentication, err)
	case errors.Is(err, errWaitTimeout):
		return fmt.Errorf("%w: %w: %s", publisher.ErrConnect, publisher.ErrConnectTimeout, url)
	default:
		return fmt.Errorf("%w: %s: %w", publisher.ErrConnect, url, err)
	}
}

type conn struct {
	client     mqtt.Client
	ackTimeout time.Duration
	logger     *slog.Logger
}

// Publish sends msg and waits for the broker acknowledgment matching its QoS.
func (c *conn) Publish(ctx context.Context, msg publisher.Message) error {
	token := c.client.Publish(msg.Topic, msg.QoS, msg.Retained, msg.Payload)
	if err := waitToken(ctx, token, c.ackTimeout); err != nil {
		if errors.Is(err, errWaitTimeout) {
			return fmt.Errorf("%w: %w: %s after %s", publisher.ErrPublish, publisher.ErrAckTimeout, msg.Topic, c.ackTimeout)
		}
		return fmt.Errorf("%w: %s: %w", publisher.ErrPublish, msg.Topic, err)
	}
	if pt, ok := token.(*mqtt.PublishToken); ok && msg.QoS > 0 {
		c.logger.Debug("publish acknowledged", logging.Int("message_id", int(pt.MessageID())))
	}
	return nil
}

func (c *conn) Close() {
	c.client.Disconnect(disconnectQuiesce)
	c.logger.Debug("disconnected from broker")
}

// waitToken blocks until token completes, timeout elapses, or ctx ends.
func waitToken(ctx context.Context, token mqtt.Token, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-token.Done():
		return token.Error()
	case <-timer.C:
		return errWaitTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}
