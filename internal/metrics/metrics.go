package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"mqttha/internal/config"
	"mqttha/internal/logging"
	"mqttha/internal/publisher"
)

// Run holds the gauges describing one run. Each Run owns its registry, so
// pushes never carry Go runtime or process collectors.
type Run struct {
	registry *prometheus.Registry

	LastRun          prometheus.Gauge
	LastRunSuccess   prometheus.Gauge
	PublishDuration  prometheus.Gauge
	NotificationSent prometheus.Gauge
	ConnectFailure   *prometheus.GaugeVec
}

// NewRun registers the run gauges on a fresh registry.
func NewRun() *Run {
	r := &Run{
		registry: prometheus.NewRegistry(),
		LastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mqttha_last_run_timestamp_seconds",
			Help: "Unix time the last run finished",
		}),
		LastRunSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mqttha_last_run_success",
			Help: "1 when every message of the last run was acknowledged",
		}),
		PublishDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mqttha_publish_duration_seconds",
			Help: "Time spent publishing and waiting for acknowledgments",
		}),
		NotificationSent: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mqttha_notification_sent",
			Help: "1 when the last run's notification was accepted by the mail transport",
		}),
		ConnectFailure: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "mqttha_connect_failure",
			Help: "1 for the reason the last connect attempt failed",
		}, []string{"reason"}),
	}
	r.registry.MustRegister(r.LastRun, r.LastRunSuccess, r.PublishDuration, r.NotificationSent, r.ConnectFailure)
	return r
}

// Observe records report and the notification result.
func (r *Run) Observe(report publisher.Report, notificationSent bool) {
	r.LastRun.Set(float64(report.Finished.Unix()))
	r.LastRunSuccess.Set(boolGauge(report.Succeeded()))
	if report.Publish != nil {
		r.PublishDuration.Set(report.Publish.Duration.Seconds())
	}
	r.NotificationSent.Set(boolGauge(notificationSent))
	if !report.Connection.Connected {
		r.ConnectFailure.WithLabelValues(string(report.Connection.Reason)).Set(1)
	}
}

// Gatherer exposes the run registry.
func (r *Run) Gatherer() prometheus.Gatherer {
	return r.registry
}

func boolGauge(v bool) float64 {
	if v {
		return 1
	}
	return 0
}

// Pusher sends run metrics to a Prometheus Pushgateway.
type Pusher struct {
	url     string
	job     string
	timeout time.Duration
	logger  *slog.Logger
}

// NewPusher returns nil when no Pushgateway is configured.
func NewPusher(cfg *config.Config, logger *slog.Logger) *Pusher {
	if !cfg.MetricsEnabled() {
		return nil
	}
	return &Pusher{
		url:     cfg.Metrics.PushgatewayURL,
		job:     cfg.Metrics.Job,
		timeout: cfg.MetricsTimeout(),
		logger:  logging.NewComponentLogger(logger, "metrics"),
	}
}

// Push replaces the job's metric group with run's gauges. A nil Pusher is a
// no-op. Failures are logged as warnings and returned.
func (p *Pusher) Push(ctx context.Context, run *Run) error {
	if p == nil {
		return nil
	}
	logger := logging.WithContext(ctx, p.logger)
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	pusher := push.New(p.url, p.job).
		Gatherer(run.Gatherer()).
		Client(&http.Client{Timeout: p.timeout})
	if err := pusher.PushContext(ctx); err != nil {
		err = fmt.Errorf("push metrics to %s: %w", p.url, err)
		logging.WarnWithContext(logger, "metrics push failed", "metrics_push_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check metrics.pushgateway_url"),
			logging.String(logging.FieldImpact, "run metrics not recorded"),
		)
		return err
	}
	logger.Debug("metrics pushed", logging.String("url", p.url), logging.String("job", p.job))
	return nil
}
