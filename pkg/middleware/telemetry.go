package middleware

import (
	"go.uber.org/zap"

	"github.com/mbostream/mbobook/pkg/mbo"
)

// Telemetry counts events by action, separately from Performance's
// latency sampling, so a session summary can report message-mix as well
// as timing.
type Telemetry struct {
	logger *zap.Logger

	addEvents    int64
	cancelEvents int64
	modifyEvents int64
	resetEvents  int64
	tradeEvents  int64
	fillEvents   int64
	noneEvents   int64

	droppedLines int64
	snapshots    int64
}

func NewTelemetry(logger *zap.Logger) *Telemetry {
	return &Telemetry{logger: logger}
}

// CountApply records one applied event by its action code.
func (t *Telemetry) CountApply(action mbo.Action) {
	switch action {
	case mbo.ActionAdd:
		t.addEvents++
	case mbo.ActionCancel:
		t.cancelEvents++
	case mbo.ActionModify:
		t.modifyEvents++
	case mbo.ActionReset:
		t.resetEvents++
	case mbo.ActionTrade:
		t.tradeEvents++
	case mbo.ActionFill:
		t.fillEvents++
	default:
		t.noneEvents++
	}
}

// CountDroppedLine records one line that failed to parse.
func (t *Telemetry) CountDroppedLine() {
	t.droppedLines++
}

// CountSnapshot records one published snapshot.
func (t *Telemetry) CountSnapshot() {
	t.snapshots++
}

func (t *Telemetry) PrintStatistics() {
	t.logger.Info("event statistics",
		zap.Int64("add_events", t.addEvents),
		zap.Int64("cancel_events", t.cancelEvents),
		zap.Int64("modify_events", t.modifyEvents),
		zap.Int64("reset_events", t.resetEvents),
		zap.Int64("trade_events", t.tradeEvents),
		zap.Int64("fill_events", t.fillEvents),
		zap.Int64("none_events", t.noneEvents),
		zap.Int64("dropped_lines", t.droppedLines),
		zap.Int64("snapshots", t.snapshots))
}
