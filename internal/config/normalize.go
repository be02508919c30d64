package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
)

func (c *Config) normalize() error {
	if err := c.normalizeLogging(); err != nil {
		return err
	}
	c.normalizeBroker()
	c.normalizePublish()
	c.normalizeMail()
	c.normalizeFollowup()
	c.normalizeMetrics()
	return nil
}

// disabled reports whether a value carries the legacy "No" sentinel. Older
// configurations used it to switch off log files, mail, and the system action.
func disabled(value string) bool {
	return strings.EqualFold(strings.TrimSpace(value), disabledSentinel)
}

func (c *Config) normalizeLogging() error {
	c.Logging.Dir = strings.TrimSpace(c.Logging.Dir)
	if disabled(c.Logging.Dir) {
		c.Logging.Dir = ""
	}
	var err error
	if c.Logging.Dir, err = expandPath(c.Logging.Dir); err != nil {
		return fmt.Errorf("logging.log_dir: %w", err)
	}
	c.Logging.Prefix = strings.TrimSpace(c.Logging.Prefix)
	if c.Logging.Prefix == "" {
		c.Logging.Prefix = defaultLogPrefix
	}
	if strings.TrimSpace(c.Logging.DateFormat) == "" {
		c.Logging.DateFormat = defaultDateFormat
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
	return nil
}

func (c *Config) normalizeBroker() {
	c.Broker.Host = strings.TrimSpace(c.Broker.Host)
	c.Broker.Username = strings.TrimSpace(c.Broker.Username)
	if c.Broker.Password == "" {
		if value, ok := os.LookupEnv("MQTTHA_BROKER_PASSWORD"); ok {
			c.Broker.Password = value
		}
	}
	c.Broker.ClientID = strings.TrimSpace(c.Broker.ClientID)
	if c.Broker.ClientID == "" {
		c.Broker.ClientID = "mqttha-" + strings.SplitN(uuid.NewString(), "-", 2)[0]
	}
	if c.Broker.Port == 0 {
		c.Broker.Port = defaultBrokerPort
	}
	if c.Broker.ConnectTimeout == 0 {
		c.Broker.ConnectTimeout = defaultConnectTimeout
	}
	if c.Broker.AckTimeout == 0 {
		c.Broker.AckTimeout = defaultAckTimeout
	}
}

func (c *Config) normalizePublish() {
	c.Publish.Topic = strings.TrimSpace(c.Publish.Topic)
	c.Availability.Topic = strings.TrimSpace(c.Availability.Topic)
	if c.Availability.Payload == "" {
		c.Availability.Payload = defaultAvailabilityValue
	}
}

func (c *Config) normalizeMail() {
	c.Mail.Recipient = strings.TrimSpace(c.Mail.Recipient)
	if disabled(c.Mail.Recipient) {
		c.Mail.Recipient = ""
	}
	c.Mail.Subject = strings.TrimSpace(c.Mail.Subject)
	c.Mail.Transport = strings.ToLower(strings.TrimSpace(c.Mail.Transport))
	if c.Mail.Transport == "" {
		c.Mail.Transport = defaultMailTransport
	}
	c.Mail.Command = strings.TrimSpace(c.Mail.Command)
	if c.Mail.Command == "" {
		c.Mail.Command = defaultMailCommand
	}
	c.Mail.SMTPHost = strings.TrimSpace(c.Mail.SMTPHost)
	c.Mail.SMTPUsername = strings.TrimSpace(c.Mail.SMTPUsername)
	c.Mail.SMTPFrom = strings.TrimSpace(c.Mail.SMTPFrom)
	if c.Mail.SMTPPort == 0 {
		c.Mail.SMTPPort = defaultSMTPPort
	}
	if c.Mail.SMTPPassword == "" {
		if value, ok := os.LookupEnv("MQTTHA_SMTP_PASSWORD"); ok {
			c.Mail.SMTPPassword = value
		}
	}
}

func (c *Config) normalizeFollowup() {
	c.Followup.Command = strings.TrimSpace(c.Followup.Command)
	if disabled(c.Followup.Command) {
		c.Followup.Command = ""
	}
}

func (c *Config) normalizeMetrics() {
	c.Metrics.PushgatewayURL = strings.TrimRight(strings.TrimSpace(c.Metrics.PushgatewayURL), "/")
	c.Metrics.Job = strings.TrimSpace(c.Metrics.Job)
	if c.Metrics.Job == "" {
		c.Metrics.Job = defaultMetricsJob
	}
	if c.Metrics.Timeout == 0 {
		c.Metrics.Timeout = defaultMetricsTimeout
	}
}
