// Package middleware wraps book operations with latency sampling, the
// same WithX-wrapper shape the original event handlers used, generalized
// from per-handler duration counters to histogram sampling so percentile
// estimates (not just an average) survive into the bench record.
package middleware

import (
	"time"

	"go.uber.org/zap"

	"github.com/mbostream/mbobook/pkg/histogram"
)

// Performance accumulates apply/snapshot latency samples across one
// replay session.
type Performance struct {
	logger *zap.Logger

	ApplyHist histogram.Pow2
	SnapHist  histogram.Pow2
}

// NewPerformance creates a Performance that logs via logger.
func NewPerformance(logger *zap.Logger) *Performance {
	return &Performance{logger: logger}
}

// WithApply wraps handler, timing each call into ApplyHist.
func (p *Performance) WithApply(handler func()) func() {
	return func() {
		start := time.Now()
		handler()
		p.ApplyHist.Add(uint64(time.Since(start).Nanoseconds()))
	}
}

// WithSnapshot wraps handler, timing each call into SnapHist.
func (p *Performance) WithSnapshot(handler func()) func() {
	return func() {
		start := time.Now()
		handler()
		p.SnapHist.Add(uint64(time.Since(start).Nanoseconds()))
	}
}

// PrintStatistics logs the p50/p95/p99 estimates for both histograms.
func (p *Performance) PrintStatistics() {
	p.logger.Info("performance statistics",
		zap.Uint64("apply_p50_ns", p.ApplyHist.Percentile(0.50)),
		zap.Uint64("apply_p95_ns", p.ApplyHist.Percentile(0.95)),
		zap.Uint64("apply_p99_ns", p.ApplyHist.Percentile(0.99)),
		zap.Uint64("snap_p50_ns", p.SnapHist.Percentile(0.50)),
		zap.Uint64("snap_p95_ns", p.SnapHist.Percentile(0.95)),
		zap.Uint64("snap_p99_ns", p.SnapHist.Percentile(0.99)),
	)
}
