package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"github.com/mbostream/mbobook/internal/cfg"
	"github.com/mbostream/mbobook/pkg/dbqueue"
	"github.com/mbostream/mbobook/pkg/dbwriter"
	"github.com/mbostream/mbobook/pkg/feedlog"
	"github.com/mbostream/mbobook/pkg/middleware"
	"github.com/mbostream/mbobook/pkg/pushserver"
	"github.com/mbostream/mbobook/pkg/replay"
	"github.com/mbostream/mbobook/pkg/snapstore"
)

func main() {
	os.Exit(run())
}

func run() int {
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer func(logger *zap.Logger) {
		_ = logger.Sync()
	}(logger)

	config, err := cfg.Parse(os.Args)
	if err != nil {
		fmt.Fprintln(os.Stderr, cfg.Usage)
		return 1
	}

	logger.Info("mbobook starting",
		zap.String("host", config.Host), zap.Int("port", config.Port),
		zap.Int("ws_port", config.WSPort), zap.Int("depth", config.Depth),
		zap.Bool("feed_enabled", config.FeedEnabled))
	defer logger.Info("mbobook stopped")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store := snapstore.New()
	queue := dbqueue.New(dbqueue.DefaultCapacity)
	defer queue.Stop()

	var bench *feedlog.Writer
	if config.BenchLogPath != "" {
		bench, err = feedlog.Open(config.BenchLogPath)
		if err != nil {
			logger.Warn("bench log disabled", zap.Error(err))
		} else {
			defer bench.Close()
		}
	}

	var archive *dbwriter.ArchiveWriter
	if archivePath := os.Getenv("BENCH_ARCHIVE_PATH"); archivePath != "" {
		archive, err = dbwriter.OpenArchive(ctx, archivePath)
		if err != nil {
			logger.Warn("bench archive disabled", zap.Error(err))
		} else {
			defer archive.Close()
		}
	}

	pushover := pushoverFromEnv()

	var pg *dbwriter.PsqlWriter
	if config.PgConnInfo != "" {
		pg, err = dbwriter.Connect(ctx, config.PgConnInfo)
		if err != nil {
			logger.Warn("postgres writer disabled", zap.Error(err))
			notifyAsync(ctx, logger, pushover, "mbobook: postgres writer disabled", err.Error())
		} else {
			defer pg.Close()
			logger.Info("postgres writer enabled")
			go runDBWriter(ctx, logger, queue, pg)
		}
	}

	srv := pushserver.New(logger, store, middleware.MonitorFlags(config.MonitorFlags))
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", srv.HandleWS)
	httpSrv := &http.Server{Addr: fmt.Sprintf(":%d", config.WSPort), Handler: mux}

	go func() {
		logger.Info("push server listening", zap.Int("port", config.WSPort))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("push server exited", zap.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		_ = httpSrv.Close()
	}()

	pipeline := replay.New(replay.Config{
		Host:          config.Host,
		Port:          config.Port,
		Depth:         config.Depth,
		SnapshotEvery: config.SnapshotEvery,
		MaxMsgs:       config.MaxMsgs,
		FeedEnabled:   config.FeedEnabled,
		FeedPath:      config.FeedPath,
		OutDir:        publicDirFromBenchPath(config.BenchLogPath),
		WSPort:        config.WSPort,
		PgEnabled:     pg != nil && pg.Enabled(),
		MonitorFlags:  config.MonitorFlags,
	}, logger, store, queue, bench, archive)

	pipeline.Run(ctx)
	return 0
}

func runDBWriter(ctx context.Context, logger *zap.Logger, queue *dbqueue.Queue, pg *dbwriter.PsqlWriter) {
	for {
		item, ok := queue.Pop()
		if !ok {
			logger.Info("db writer exiting")
			return
		}
		if !pg.WriteSnapshot(ctx, item) {
			logger.Warn("db write failed", zap.String("symbol", item.Symbol), zap.Int64("ts_us", item.TsUS))
		}
	}
}

func publicDirFromBenchPath(benchPath string) string {
	if benchPath == "" {
		return ""
	}
	return filepath.Dir(benchPath)
}

// pushoverFromEnv returns nil unless both PUSHOVER_USER and PUSHOVER_TOKEN
// are set (PUSHOVER_DEVICE is optional), so operators who don't want
// alerting pay no cost for it.
func pushoverFromEnv() *middleware.Pushover {
	user := os.Getenv("PUSHOVER_USER")
	token := os.Getenv("PUSHOVER_TOKEN")
	device := os.Getenv("PUSHOVER_DEVICE")
	if user == "" || token == "" {
		return nil
	}
	return middleware.NewPushover(user, token, device)
}

func notifyAsync(ctx context.Context, logger *zap.Logger, p *middleware.Pushover, title, message string) {
	if p == nil {
		return
	}
	go func() {
		if err := p.Notify(ctx, title, message); err != nil {
			logger.Warn("pushover notify failed", zap.Error(err))
		}
	}()
}
