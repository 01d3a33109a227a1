package middleware

import (
	"go.uber.org/zap"

	"github.com/mbostream/mbobook/pkg/mbo"
)

// MonitorFlags selects which event classes Monitor logs at info level;
// everything else stays quiet so a production run isn't drowned in
// per-event log lines.
type MonitorFlags uint16

const (
	MonitorNone MonitorFlags = 1 << iota
	MonitorAll
	MonitorApply
	MonitorSnapshot
	MonitorControl
)

// Monitor optionally logs individual events as they pass through the
// pipeline, gated by flags. It never drops or alters events.
type Monitor struct {
	logger *zap.Logger
	flags  MonitorFlags
}

func NewMonitor(logger *zap.Logger, flags MonitorFlags) *Monitor {
	return &Monitor{logger: logger, flags: flags}
}

func (m *Monitor) enabled(f MonitorFlags) bool {
	return m.flags&f != 0 || m.flags&MonitorAll != 0
}

// LogApply logs one applied event if MonitorApply or MonitorAll is set.
func (m *Monitor) LogApply(e mbo.Event) {
	if !m.enabled(MonitorApply) {
		return
	}
	m.logger.Info("event",
		zap.String("action", string(e.Action)),
		zap.String("side", string(e.Side)),
		zap.Int64("order_id", e.OrderID),
		zap.Int64("price_ticks", e.Price),
		zap.Int32("size", e.Size))
}

// LogSnapshot logs one published snapshot if MonitorSnapshot or
// MonitorAll is set.
func (m *Monitor) LogSnapshot(symbol string, bookJSON string) {
	if !m.enabled(MonitorSnapshot) {
		return
	}
	m.logger.Info("snapshot", zap.String("symbol", symbol), zap.Int("bytes", len(bookJSON)))
}

// LogControl logs one accepted websocket control message if
// MonitorControl or MonitorAll is set.
func (m *Monitor) LogControl(msgType, symbol string, depth, pushMs int) {
	if !m.enabled(MonitorControl) {
		return
	}
	m.logger.Info("control",
		zap.String("type", msgType), zap.String("symbol", symbol),
		zap.Int("depth", depth), zap.Int("push_ms", pushMs))
}
