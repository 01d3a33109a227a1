package dbwriter

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/mbostream/mbobook/pkg/feedlog"
)

const createBenchTableSQL = `
CREATE TABLE IF NOT EXISTS bench_runs (
	run_id                VARCHAR,
	ts_wall_us            BIGINT,
	host                  VARCHAR,
	port                  INTEGER,
	depth                 INTEGER,
	snapshot_every        BIGINT,
	feed_enabled          BOOLEAN,
	pg_enabled            BOOLEAN,
	processed             BIGINT,
	elapsed_s             DOUBLE,
	throughput_msgs_per_s DOUBLE,
	apply_p50_us          DOUBLE,
	apply_p95_us          DOUBLE,
	apply_p99_us          DOUBLE,
	snap_p50_ms           DOUBLE,
	snap_p95_ms           DOUBLE,
	snap_p99_ms           DOUBLE
)
`

const insertBenchSQL = `
INSERT INTO bench_runs VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
`

// ArchiveWriter appends every completed session's BenchRecord to an
// embedded DuckDB file, giving operators a queryable history of replay
// runs alongside the append-only feedlog.
type ArchiveWriter struct {
	db *sql.DB
}

// OpenArchive opens (creating if absent) the DuckDB file at path and
// ensures the bench_runs table exists.
func OpenArchive(ctx context.Context, path string) (*ArchiveWriter, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("dbwriter: duckdb open: %w", err)
	}
	if _, err := db.ExecContext(ctx, createBenchTableSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("dbwriter: duckdb create table: %w", err)
	}
	return &ArchiveWriter{db: db}, nil
}

// WriteBench inserts one completed session's summary.
func (a *ArchiveWriter) WriteBench(ctx context.Context, rec feedlog.BenchRecord) error {
	_, err := a.db.ExecContext(ctx, insertBenchSQL,
		rec.RunID, rec.TsWallUS, rec.Host, rec.Port, rec.Depth, rec.SnapshotEvery,
		rec.FeedEnabled, rec.PgEnabled, rec.Processed, rec.ElapsedS,
		rec.ThroughputMsgsPerS, rec.ApplyP50US, rec.ApplyP95US, rec.ApplyP99US,
		rec.SnapP50MS, rec.SnapP95MS, rec.SnapP99MS,
	)
	if err != nil {
		return fmt.Errorf("dbwriter: duckdb insert bench: %w", err)
	}
	return nil
}

// Close closes the underlying DuckDB connection.
func (a *ArchiveWriter) Close() error {
	return a.db.Close()
}
