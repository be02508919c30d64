package config

const (
	defaultLogDir            = "~/.local/share/mqttha/logs"
	defaultLogPrefix         = "MQTT-To-HomeAssistant-Date"
	defaultDateFormat        = "%Y-%m-%d_%H_%M_%S"
	defaultLogLevel          = "debug"
	defaultLogFormat         = "console"
	defaultLogRetentionDays  = 30
	defaultBrokerPort        = 1883
	defaultConnectTimeout    = 10
	defaultAckTimeout        = 10
	defaultQoS               = 1
	defaultAvailabilityTopic = "homeassistant/status"
	defaultAvailabilityValue = "online"
	defaultMailTransport     = TransportCommand
	defaultMailCommand       = "mail"
	defaultSMTPPort          = 25
	defaultFollowupGrace     = 120
	defaultMetricsJob        = "mqttha"
	defaultMetricsTimeout    = 10
	disabledSentinel         = "no"
	maxBrokerPort            = 65535
	maxQoS                   = 2
)

// Mail transports.
const (
	TransportCommand = "command"
	TransportSMTP    = "smtp"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Logging: Logging{
			Dir:           defaultLogDir,
			Prefix:        defaultLogPrefix,
			DateFormat:    defaultDateFormat,
			Level:         defaultLogLevel,
			Format:        defaultLogFormat,
			RetentionDays: defaultLogRetentionDays,
			Console:       true,
		},
		Broker: Broker{
			Port:           defaultBrokerPort,
			ConnectTimeout: defaultConnectTimeout,
			AckTimeout:     defaultAckTimeout,
			QoS:            defaultQoS,
		},
		Availability: Availability{
			Enabled: false,
			Topic:   defaultAvailabilityTopic,
			Payload: defaultAvailabilityValue,
		},
		Mail: Mail{
			Transport: defaultMailTransport,
			Command:   defaultMailCommand,
			SMTPPort:  defaultSMTPPort,
		},
		Followup: Followup{
			GraceSeconds: defaultFollowupGrace,
			OnFailure:    true,
		},
		Metrics: Metrics{
			Job:     defaultMetricsJob,
			Timeout: defaultMetricsTimeout,
		},
	}
}
