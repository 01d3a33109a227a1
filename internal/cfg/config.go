// Package cfg resolves process configuration from positional CLI
// arguments and environment variables, matching the original tool's
// argv/getenv convention rather than the flag package.
package cfg

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config is the fully resolved set of knobs the replay pipeline, push
// server, and database writer need for one process run.
type Config struct {
	Host          string
	Port          int
	WSPort        int
	Depth         int
	SnapshotEvery int64
	MaxMsgs       int64
	// PushMs is parsed from the optional push_ms argument; the push server
	// does not read it and starts every client at its own 50 ms default.
	PushMs int

	FeedEnabled  bool
	FeedPath     string
	BenchLogPath string
	PgConnInfo   string
	MonitorFlags uint16
}

const (
	defaultDepth         = 5
	defaultSnapshotEvery = 200
	defaultMaxMsgs       = -1
	defaultPushMs        = 50
)

// Usage is printed by the caller when argument count is insufficient.
const Usage = `Usage: mbobook <feed_host> <feed_port> <ws_port> [depth=5] [snapshot_every=200] [max_msgs=-1] [push_ms=50]
Example: mbobook 127.0.0.1 9000 8080 50 200 -1 50
Env: PG_CONNINFO="host=127.0.0.1 port=5432 dbname=mbobook user=postgres password=postgres"
Env: FEED_ENABLED=1 (optional)
Env: FEED_PATH=frontend/public/snapshots_feed.jsonl (optional)
Env: BENCH_LOG_PATH=frontend/public/benchmarks.jsonl (optional)
Env: MONITOR_FLAGS=0 (bitmask: 2=all 4=apply 8=snapshot 16=control; optional)
Env: PUSHOVER_USER, PUSHOVER_TOKEN, PUSHOVER_DEVICE (optional, alerts on DB writer failure)`

// Parse resolves a Config from args (normally os.Args) and the process
// environment. It returns an error if fewer than 4 arguments (program
// name plus host/port/ws_port) are given.
func Parse(args []string) (Config, error) {
	var c Config

	if len(args) < 4 {
		return c, fmt.Errorf("cfg: need at least host, port, ws_port")
	}

	c.Host = args[1]
	c.Port = atoiOr(args[2], 0)
	c.WSPort = atoiOr(args[3], 0)

	c.Depth = defaultDepth
	if len(args) >= 5 {
		c.Depth = atoiOr(args[4], defaultDepth)
	}
	c.SnapshotEvery = defaultSnapshotEvery
	if len(args) >= 6 {
		c.SnapshotEvery = atoi64Or(args[5], defaultSnapshotEvery)
	}
	c.MaxMsgs = defaultMaxMsgs
	if len(args) >= 7 {
		c.MaxMsgs = atoi64Or(args[6], defaultMaxMsgs)
	}
	c.PushMs = defaultPushMs
	if len(args) >= 8 {
		c.PushMs = atoiOr(args[7], defaultPushMs)
	}

	c.FeedEnabled = envTruthy("FEED_ENABLED")
	if fp := os.Getenv("FEED_PATH"); fp != "" {
		c.FeedPath = fp
	} else {
		c.FeedPath = filepath.Join(defaultPublicDir(), "snapshots_feed.jsonl")
	}

	if bp := os.Getenv("BENCH_LOG_PATH"); bp != "" {
		c.BenchLogPath = bp
	} else {
		c.BenchLogPath = filepath.Join(defaultPublicDir(), "benchmarks.jsonl")
	}

	c.PgConnInfo = os.Getenv("PG_CONNINFO")
	c.MonitorFlags = uint16(atoiOr(os.Getenv("MONITOR_FLAGS"), 0))

	return c, nil
}

func atoiOr(s string, def int) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func atoi64Or(s string, def int64) int64 {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return def
	}
	return v
}

func envTruthy(name string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(name)))
	switch v {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}

// guessRepoRoot walks up from the working directory looking for a
// "frontend" subdirectory, matching the original tool's best-effort repo
// discovery so default output paths land next to the bundled frontend.
func guessRepoRoot() string {
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	p := wd
	for i := 0; i < 6; i++ {
		fi, err := os.Stat(filepath.Join(p, "frontend"))
		if err == nil && fi.IsDir() {
			return p
		}
		parent := filepath.Dir(p)
		if parent == p {
			break
		}
		p = parent
	}
	return wd
}

func defaultPublicDir() string {
	outdir := filepath.Join(guessRepoRoot(), "frontend", "public")
	_ = os.MkdirAll(outdir, 0o755)
	return outdir
}
