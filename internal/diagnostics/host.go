package diagnostics

import (
	"context"
	"log/slog"
	"time"

	"github.com/shirou/gopsutil/v3/host"

	"mqttha/internal/logging"
)

// RecordHost writes a one-line host summary at debug level. Lookup failures
// are logged and otherwise ignored.
func RecordHost(ctx context.Context, logger *slog.Logger) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		logger.Debug("host snapshot unavailable", logging.Error(err))
		return
	}
	logger.Debug("host snapshot",
		logging.String(logging.FieldEventType, "host_snapshot"),
		logging.String("hostname", info.Hostname),
		logging.String("os", info.OS),
		logging.String("platform", info.Platform+" "+info.PlatformVersion),
		logging.String("kernel", info.KernelVersion),
		logging.Duration("uptime", time.Duration(info.Uptime)*time.Second),
	)
}
