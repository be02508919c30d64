package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mqttha/internal/config"
	"mqttha/internal/deps"
	"mqttha/internal/preflight"
)

var errChecksFailed = errors.New("one or more required checks failed")

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Show the configuration summary and verify broker, log directory and tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			rows := configRows(cfg)
			checks := preflight.RunAll(cmd.Context(), cfg)
			rows = append(rows, preflightRows(checks)...)
			statuses := preflight.CheckSystemDeps(cfg)
			rows = append(rows, dependencyRows(statuses)...)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config: %s\n", ctx.configPath)
			fmt.Fprintln(out, renderCheckTable(rows, shouldColorize(out)))

			if failed := countFailures(checks, statuses); failed > 0 {
				return &exitCodeError{code: 1, err: fmt.Errorf("%w (%d)", errChecksFailed, failed)}
			}
			return nil
		},
	}
}

func configRows(cfg *config.Config) []checkRow {
	const section = "Config"
	rows := []checkRow{
		{section, "Broker", statusInfo, fmt.Sprintf("%s (client %s, qos %d)", cfg.BrokerURL(), cfg.Broker.ClientID, cfg.Broker.QoS)},
		{section, "Publish", statusInfo, fmt.Sprintf("%s = %q (retained)", cfg.Publish.Topic, cfg.Publish.Message)},
	}

	availability := "disabled"
	if cfg.Availability.Enabled {
		availability = fmt.Sprintf("%s = %q", cfg.Availability.Topic, cfg.Availability.Payload)
	}
	rows = append(rows, checkRow{section, "Availability", statusInfo, availability})

	diagnostics := "disabled"
	if cfg.DiagnosticsEnabled() {
		diagnostics = fmt.Sprintf("%s (prefix %s, retention %d days)", cfg.Logging.Dir, cfg.Logging.Prefix, cfg.Logging.RetentionDays)
	}
	rows = append(rows, checkRow{section, "Diagnostics", statusInfo, diagnostics})

	mail := "disabled"
	if cfg.MailEnabled() {
		mail = fmt.Sprintf("%s via %s", cfg.Mail.Recipient, cfg.Mail.Transport)
	}
	rows = append(rows, checkRow{section, "Mail", statusInfo, mail})

	followup := "disabled"
	if cfg.FollowupEnabled() {
		followup = fmt.Sprintf("%s (grace %s, on failure: %s)", cfg.Followup.Command, cfg.GracePeriod(), yesNo(cfg.Followup.OnFailure))
	}
	rows = append(rows, checkRow{section, "Follow-up", statusInfo, followup})

	metrics := "disabled"
	if cfg.MetricsEnabled() {
		metrics = fmt.Sprintf("%s (job %s)", cfg.Metrics.PushgatewayURL, cfg.Metrics.Job)
	}
	rows = append(rows, checkRow{section, "Metrics", statusInfo, metrics})
	return rows
}

func preflightRows(results []preflight.Result) []checkRow {
	rows := make([]checkRow, 0, len(results))
	for _, r := range results {
		kind := statusOK
		if !r.Passed {
			kind = statusError
		}
		rows = append(rows, checkRow{"Connectivity", r.Name, kind, r.Detail})
	}
	return rows
}

func dependencyRows(statuses []deps.Status) []checkRow {
	rows := make([]checkRow, 0, len(statuses))
	for _, s := range statuses {
		kind := statusOK
		detail := s.Path
		switch {
		case s.Available:
		case s.Optional:
			kind = statusWarn
			detail = s.Detail
		default:
			kind = statusError
			detail = s.Detail
		}
		if desc := strings.TrimSpace(s.Description); desc != "" {
			detail = fmt.Sprintf("%s (%s)", detail, strings.ToLower(desc))
		}
		rows = append(rows, checkRow{"Tools", s.Name, kind, detail})
	}
	return rows
}

func countFailures(results []preflight.Result, statuses []deps.Status) int {
	failed := 0
	for _, r := range results {
		if !r.Passed {
			failed++
		}
	}
	for _, s := range statuses {
		if !s.Available && !s.Optional {
			failed++
		}
	}
	return failed
}
