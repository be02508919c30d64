package broker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

var (
	pahoTarget  atomic.Pointer[slog.Logger]
	installOnce sync.Once
)

// pahoLogger adapts paho's Println/Printf logger to slog.
type pahoLogger struct {
	source string
}

func (l pahoLogger) Println(v ...any) {
	l.log(strings.TrimSpace(fmt.Sprintln(v...)))
}

func (l pahoLogger) Printf(format string, v ...any) {
	l.log(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l pahoLogger) log(msg string) {
	logger := pahoTarget.Load()
	if logger == nil {
		return
	}
	logger.Log(context.Background(), slog.LevelDebug, msg, slog.String("paho_level", l.source))
}

// routeClientLogs points paho's package-level loggers at logger. Every paho
// level lands at debug so library chatter never reaches the error stream;
// paho's own DEBUG output stays discarded. The globals are assigned once and
// later calls only swap the target.
func routeClientLogs(logger *slog.Logger) {
	pahoTarget.Store(logger)
	installOnce.Do(func() {
		mqtt.ERROR = pahoLogger{source: "error"}
		mqtt.CRITICAL = pahoLogger{source: "critical"}
		mqtt.WARN = pahoLogger{source: "warn"}
		mqtt.DEBUG = mqtt.NOOPLogger{}
	})
}
