package preflight

import (
	"context"

	"mqttha/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Checks are only run when the corresponding feature is enabled.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	if cfg.DiagnosticsEnabled() {
		results = append(results, CheckLogDirectory("Log directory", cfg.Logging.Dir))
	}

	// Broker (always checked)
	results = append(results, CheckBroker(ctx, cfg.BrokerAddress(), cfg.ConnectTimeout()))

	if cfg.MailEnabled() && cfg.Mail.Transport == config.TransportSMTP {
		results = append(results, CheckTCP(ctx, "SMTP server", smtpAddress(cfg), cfg.ConnectTimeout()))
	}

	if cfg.MetricsEnabled() {
		results = append(results, CheckPushgateway(ctx, cfg.Metrics.PushgatewayURL, cfg.MetricsTimeout()))
	}

	return results
}
