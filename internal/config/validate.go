package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateBroker(); err != nil {
		return err
	}
	if err := c.validatePublish(); err != nil {
		return err
	}
	if err := c.validateMail(); err != nil {
		return err
	}
	if err := c.validateFollowup(); err != nil {
		return err
	}
	if err := c.validateMetrics(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateLogging() error {
	if strings.ContainsAny(c.Logging.Prefix, `/\`) {
		return errors.New("logging.prefix must not contain path separators")
	}
	if strings.ContainsAny(c.Logging.Prefix, `*?[]`) {
		return errors.New("logging.prefix must not contain glob metacharacters (* ? [ ])")
	}
	if strings.TrimSpace(c.Logging.DateFormat) == "" {
		return errors.New("logging.date_format must be set")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func (c *Config) validateBroker() error {
	if c.Broker.Host == "" {
		return errors.New("broker.host must be set")
	}
	if c.Broker.Port <= 0 || c.Broker.Port > maxBrokerPort {
		return fmt.Errorf("broker.port must be between 1 and %d", maxBrokerPort)
	}
	if c.Broker.QoS < 0 || c.Broker.QoS > maxQoS {
		return errors.New("broker.qos must be 0, 1, or 2")
	}
	if c.Broker.Password != "" && c.Broker.Username == "" {
		return errors.New("broker.username must be set when broker.password is set")
	}
	return ensurePositiveMap(map[string]int{
		"broker.connect_timeout": c.Broker.ConnectTimeout,
		"broker.ack_timeout":     c.Broker.AckTimeout,
	})
}

func (c *Config) validatePublish() error {
	if err := validateTopic("publish.topic", c.Publish.Topic); err != nil {
		return err
	}
	if !c.Availability.Enabled {
		return nil
	}
	if err := validateTopic("availability.topic", c.Availability.Topic); err != nil {
		return fmt.Errorf("%w (required when availability.enabled is true)", err)
	}
	return nil
}

func validateTopic(key, topic string) error {
	if topic == "" {
		return fmt.Errorf("%s must be set", key)
	}
	if strings.ContainsAny(topic, "+#") {
		return fmt.Errorf("%s must not contain wildcards", key)
	}
	return nil
}

func (c *Config) validateMail() error {
	switch c.Mail.Transport {
	case TransportCommand:
	case TransportSMTP:
		if !c.MailEnabled() {
			return nil
		}
		if c.Mail.SMTPHost == "" {
			return errors.New("mail.smtp_host must be set when mail.transport is smtp")
		}
		if c.Mail.SMTPPort <= 0 || c.Mail.SMTPPort > maxBrokerPort {
			return fmt.Errorf("mail.smtp_port must be between 1 and %d", maxBrokerPort)
		}
		if c.Mail.SMTPFrom == "" {
			return errors.New("mail.smtp_from must be set when mail.transport is smtp")
		}
	default:
		return fmt.Errorf("mail.transport: unsupported value %q", c.Mail.Transport)
	}
	return nil
}

func (c *Config) validateFollowup() error {
	if c.Followup.GraceSeconds < 0 {
		return errors.New("followup.grace_seconds must be >= 0")
	}
	return nil
}

func (c *Config) validateMetrics() error {
	if !c.MetricsEnabled() {
		return nil
	}
	parsed, err := url.Parse(c.Metrics.PushgatewayURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("metrics.pushgateway_url: invalid url %q", c.Metrics.PushgatewayURL)
	}
	if c.Metrics.Timeout <= 0 {
		return errors.New("metrics.timeout must be positive")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
