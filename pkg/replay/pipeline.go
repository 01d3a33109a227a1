// Package replay drives one TCP feed session end to end: connect, frame
// lines, parse, apply to a Book, and fan periodic snapshots out to the
// snapshot store, the database queue, and the feed log.
package replay

import (
	"bufio"
	"context"
	"net"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mbostream/mbobook/pkg/dbqueue"
	"github.com/mbostream/mbobook/pkg/dbwriter"
	"github.com/mbostream/mbobook/pkg/feedlog"
	"github.com/mbostream/mbobook/pkg/mbo"
	"github.com/mbostream/mbobook/pkg/mboutil"
	"github.com/mbostream/mbobook/pkg/middleware"
	"github.com/mbostream/mbobook/pkg/snapstore"
)

const (
	readBufSize   = 1 << 20
	retryDelay    = 2 * time.Second
	fullDumpDepth = 1_000_000
)

var headerPrefixes = []string{"ts_event", "publisher_id", "instrument_id"}

// Config carries the per-process knobs the pipeline needs; it is a subset
// of cfg.Config, kept separate so this package does not depend on
// internal/cfg.
type Config struct {
	Host          string
	Port          int
	Depth         int
	SnapshotEvery int64
	MaxMsgs       int64

	FeedEnabled bool
	FeedPath    string
	OutDir      string

	WSPort    int
	PgEnabled bool

	MonitorFlags uint16
}

// Pipeline owns the shared sinks written by every session: the snapshot
// store, the DB write queue, the process-lifetime bench log/archive, and
// the logger. A fresh Book and feed-log handle are created per session.
type Pipeline struct {
	cfg     Config
	logger  *zap.Logger
	store   *snapstore.Store
	queue   *dbqueue.Queue
	bench   *feedlog.Writer
	archive *dbwriter.ArchiveWriter
}

// New creates a Pipeline that publishes to store and enqueues top-of-book
// writes onto queue. bench and archive may be nil to disable bench
// logging/archival.
func New(cfg Config, logger *zap.Logger, store *snapstore.Store, queue *dbqueue.Queue, bench *feedlog.Writer, archive *dbwriter.ArchiveWriter) *Pipeline {
	return &Pipeline{cfg: cfg, logger: logger, store: store, queue: queue, bench: bench, archive: archive}
}

// Run loops until ctx is cancelled, reconnecting after a fixed backoff
// whenever a session ends, whether in error or at the end of the feed.
func (p *Pipeline) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		if err := p.runSession(ctx); err != nil {
			p.logger.Warn("replay session ended", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(retryDelay):
		}
	}
}

// sessionState is the per-session mutable state that handleLine closes
// over; runSession resets it fresh for every reconnect.
type sessionState struct {
	book       *mbo.Book
	hasSymbol  bool
	symbol     string
	perf       *middleware.Performance
	telemetry  *middleware.Telemetry
	monitor    *middleware.Monitor
	processed  int64
	parsedOK   int64
	linesTotal uint64
	lastTsUS   int64
	feed       *feedlog.Writer
}

func (p *Pipeline) runSession(ctx context.Context) error {
	addr := net.JoinHostPort(p.cfg.Host, strconv.Itoa(p.cfg.Port))
	dialer := net.Dialer{Timeout: 10 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	if tcpConn, ok := conn.(*net.TCPConn); ok {
		_ = tcpConn.SetNoDelay(true)
	}
	p.logger.Info("connected to feed", zap.String("addr", addr))

	st := &sessionState{
		book:      mbo.NewBook(""),
		perf:      middleware.NewPerformance(p.logger),
		telemetry: middleware.NewTelemetry(p.logger),
		monitor:   middleware.NewMonitor(p.logger, middleware.MonitorFlags(p.cfg.MonitorFlags)),
	}

	if p.cfg.FeedEnabled && p.cfg.FeedPath != "" {
		fw, err := feedlog.Open(p.cfg.FeedPath)
		if err != nil {
			p.logger.Warn("feed log disabled", zap.Error(err))
		} else {
			st.feed = fw
			defer fw.Close()
		}
	}

	start := time.Now()

	reader := bufio.NewReaderSize(conn, readBufSize)
	for {
		if p.cfg.MaxMsgs >= 0 && st.processed >= p.cfg.MaxMsgs {
			break
		}
		line, err := reader.ReadString('\n')
		if len(line) > 0 {
			p.handleLine(st, strings.TrimSuffix(line, "\n"))
		}
		if err != nil {
			break
		}
	}

	p.finalizeSession(st, start)
	return nil
}

func (p *Pipeline) handleLine(st *sessionState, line string) {
	line = strings.TrimSuffix(line, "\r")
	if line == "" {
		return
	}
	for _, prefix := range headerPrefixes {
		if strings.HasPrefix(line, prefix) {
			return
		}
	}

	st.linesTotal++

	e, ok := mbo.ParseLine(line)
	if !ok {
		st.telemetry.CountDroppedLine()
		return
	}
	st.parsedOK++

	if e.TsEvent != "" {
		st.lastTsUS = parseEventTimestampUS(e.TsEvent)
	}

	if !st.hasSymbol && e.Symbol != "" {
		st.symbol = e.Symbol
		st.book = mbo.NewBook(e.Symbol)
		st.hasSymbol = true
	}

	st.perf.WithApply(func() { st.book.Apply(e) })()
	st.telemetry.CountApply(e.Action)
	st.monitor.LogApply(e)

	st.processed++

	if p.cfg.SnapshotEvery > 0 && st.processed%p.cfg.SnapshotEvery == 0 {
		p.publishSnapshot(st)
	}
}

// publishSnapshot builds the depth-limited snapshot once and fans it out
// to the three sinks, timing the whole path into the snapshot histogram.
func (p *Pipeline) publishSnapshot(st *sessionState) {
	st.perf.WithSnapshot(func() { p.doPublishSnapshot(st) })()
	st.telemetry.CountSnapshot()
}

func (p *Pipeline) doPublishSnapshot(st *sessionState) {
	bookJSON, err := st.book.ToJSON(p.cfg.Depth)
	if err != nil {
		p.logger.Warn("snapshot marshal failed", zap.Error(err))
		return
	}

	sym := st.symbol
	if sym != "" {
		p.store.PublishSymbol(sym, bookJSON)
	} else {
		p.store.Publish(bookJSON)
	}
	st.monitor.LogSnapshot(sym, bookJSON)

	if sym != "" && st.lastTsUS > 0 {
		tob := st.book.TopOfBook()
		p.queue.Push(dbqueue.Item{
			TsUS: st.lastTsUS, Symbol: sym,
			HasBid: tob.HasBid, BidPx: tob.BidPx, BidSz: tob.BidSz,
			HasAsk: tob.HasAsk, AskPx: tob.AskPx, AskSz: tob.AskSz,
			Mid: tob.Mid, Spread: tob.Spread,
		})
	}

	if st.feed != nil && sym != "" && st.lastTsUS > 0 {
		_ = st.feed.WriteFeed(feedlog.FeedRecord{
			TsUS: st.lastTsUS, Symbol: sym, Processed: st.processed,
			Depth: p.cfg.Depth, Book: []byte(bookJSON),
		})
	}

	p.logger.Debug(st.book.ToPrettyBBO())
}

func (p *Pipeline) finalizeSession(st *sessionState, start time.Time) {
	if st.processed > 0 && (p.cfg.SnapshotEvery <= 0 || st.processed%p.cfg.SnapshotEvery != 0) {
		p.publishSnapshot(st)
	}

	p.logger.Info(st.book.ToPrettyBBO())

	fullJSON, err := st.book.ToJSON(fullDumpDepth)
	if err != nil {
		p.logger.Warn("final book marshal failed", zap.Error(err))
	} else if p.cfg.OutDir != "" {
		if err := writeFinalBooks(p.cfg.OutDir, st.symbol, []byte(fullJSON)); err != nil {
			p.logger.Warn("final book write failed", zap.Error(err))
		}
	}

	if st.feed != nil {
		if err := st.feed.Flush(); err != nil {
			p.logger.Warn("feed log flush failed", zap.Error(err))
		}
	}

	elapsed := time.Since(start).Seconds()
	throughput := 0.0
	if elapsed > 0 {
		throughput = float64(st.processed) / elapsed
	}

	rec := feedlog.BenchRecord{
		RunID:              mboutil.CurrentRunID().String(),
		TsWallUS:           time.Now().UnixMicro(),
		Host:               p.cfg.Host,
		Port:               p.cfg.Port,
		Depth:              p.cfg.Depth,
		SnapshotEvery:      p.cfg.SnapshotEvery,
		FeedEnabled:        p.cfg.FeedEnabled,
		PgEnabled:          p.cfg.PgEnabled,
		Processed:          st.processed,
		ElapsedS:           elapsed,
		ThroughputMsgsPerS: throughput,
		ApplyP50US:         nsToUS(st.perf.ApplyHist.Percentile(0.50)),
		ApplyP95US:         nsToUS(st.perf.ApplyHist.Percentile(0.95)),
		ApplyP99US:         nsToUS(st.perf.ApplyHist.Percentile(0.99)),
		SnapP50MS:          nsToMS(st.perf.SnapHist.Percentile(0.50)),
		SnapP95MS:          nsToMS(st.perf.SnapHist.Percentile(0.95)),
		SnapP99MS:          nsToMS(st.perf.SnapHist.Percentile(0.99)),
	}

	p.logger.Info("replay session done",
		zap.Int64("processed", st.processed),
		zap.Int64("parsed_ok", st.parsedOK),
		zap.Float64("elapsed_s", elapsed),
		zap.Float64("throughput_msgs_per_s", throughput),
	)
	st.telemetry.PrintStatistics()

	if p.bench != nil {
		if err := p.bench.WriteBench(rec); err != nil {
			p.logger.Warn("bench log write failed", zap.Error(err))
		} else if err := p.bench.Flush(); err != nil {
			p.logger.Warn("bench log flush failed", zap.Error(err))
		}
	}
	if p.archive != nil {
		if err := p.archive.WriteBench(context.Background(), rec); err != nil {
			p.logger.Warn("bench archive write failed", zap.Error(err))
		}
	}
}

func nsToUS(ns uint64) float64 { return float64(ns) / 1e3 }
func nsToMS(ns uint64) float64 { return float64(ns) / 1e6 }
