// Package dbwriter persists top-of-book snapshots to Postgres and archives
// completed sessions' bench records to an embedded DuckDB file.
package dbwriter

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/mbostream/mbobook/pkg/dbqueue"
)

const insertSnapshotSQL = `
INSERT INTO snapshots (ts, symbol, best_bid_px, best_bid_sz,
                        best_ask_px, best_ask_sz, mid, spread)
VALUES (to_timestamp($1 / 1e6), $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (symbol, ts) DO NOTHING
`

// PsqlWriter owns one Postgres connection and one prepared statement for
// the process lifetime. Once construction fails, it stays permanently
// disabled: every WriteSnapshot call returns false without touching the
// network again.
type PsqlWriter struct {
	db       *sql.DB
	stmt     *sql.Stmt
	disabled bool
}

// Connect opens a single connection to connInfo (a libpq connection
// string) and prepares the snapshot insert statement. On any failure the
// returned writer is disabled rather than nil, so callers can treat it
// uniformly.
func Connect(ctx context.Context, connInfo string) (*PsqlWriter, error) {
	db, err := sql.Open("postgres", connInfo)
	if err != nil {
		return &PsqlWriter{disabled: true}, fmt.Errorf("dbwriter: open: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return &PsqlWriter{disabled: true}, fmt.Errorf("dbwriter: ping: %w", err)
	}

	stmt, err := db.PrepareContext(ctx, insertSnapshotSQL)
	if err != nil {
		_ = db.Close()
		return &PsqlWriter{disabled: true}, fmt.Errorf("dbwriter: prepare: %w", err)
	}

	return &PsqlWriter{db: db, stmt: stmt}, nil
}

// WriteSnapshot binds one row of the dbqueue.Item and executes the
// idempotent insert. Absent sides bind NULL for their price/size pair;
// mid and spread are always bound. Returns false on any failure (and on a
// disabled writer) without resetting the connection — the next call tries
// again on the same handle.
func (w *PsqlWriter) WriteSnapshot(ctx context.Context, item dbqueue.Item) bool {
	if w.disabled {
		return false
	}

	var bidPx, bidSz, askPx, askSz any
	if item.HasBid {
		bidPx = item.BidPx.String()
		bidSz = item.BidSz
	}
	if item.HasAsk {
		askPx = item.AskPx.String()
		askSz = item.AskSz
	}

	_, err := w.stmt.ExecContext(ctx,
		item.TsUS,
		item.Symbol,
		bidPx, bidSz,
		askPx, askSz,
		item.Mid.String(),
		item.Spread.String(),
	)
	return err == nil
}

// Close releases the prepared statement and the connection, in that
// order. Safe to call on a disabled writer.
func (w *PsqlWriter) Close() error {
	if w.disabled {
		return nil
	}
	if w.stmt != nil {
		_ = w.stmt.Close()
	}
	if w.db != nil {
		return w.db.Close()
	}
	return nil
}

// Enabled reports whether the writer successfully connected and prepared
// its statement.
func (w *PsqlWriter) Enabled() bool { return !w.disabled }
