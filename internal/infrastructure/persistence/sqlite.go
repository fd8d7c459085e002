package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// NewSQLiteDB opens (creating if needed) the embedded store at path and
// ensures its tables exist
func NewSQLiteDB(ctx context.Context, path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create state directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(FULL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer keeps sqlite from returning SQLITE_BUSY under WAL
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if err := EnsureSQLiteTables(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// EnsureSQLiteTables creates the route and seen-alert tables
func EnsureSQLiteTables(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS route (
			id               TEXT    PRIMARY KEY,
			chat_id          TEXT    NOT NULL,
			origin           TEXT    NOT NULL,
			destination      TEXT    NOT NULL,
			trip_type        TEXT    NOT NULL,
			min_days         INTEGER NOT NULL DEFAULT 0,
			max_days         INTEGER NOT NULL DEFAULT 0,
			horizon_days     INTEGER NOT NULL,
			currency         TEXT    NOT NULL,
			thresholds       TEXT    NOT NULL,
			last_checked_ts  INTEGER NOT NULL DEFAULT 0,
			interval_ns      INTEGER NOT NULL DEFAULT 0,
			burst_active     INTEGER NOT NULL DEFAULT 0,
			burst_started_ts INTEGER NOT NULL DEFAULT 0,
			halted           INTEGER NOT NULL DEFAULT 0,
			halt_reason      TEXT    NOT NULL DEFAULT '',
			created_ts       INTEGER NOT NULL,
			updated_ts       INTEGER NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_route_key
			ON route(chat_id, origin, destination, trip_type, min_days, max_days)`,
		`CREATE TABLE IF NOT EXISTS seen_alert (
			origin      TEXT    NOT NULL,
			destination TEXT    NOT NULL,
			cabin       TEXT    NOT NULL,
			price_minor INTEGER NOT NULL,
			offer_id    TEXT    NOT NULL,
			route_id    TEXT    NOT NULL,
			chat_id     TEXT    NOT NULL,
			seen_ts     INTEGER NOT NULL,
			PRIMARY KEY (chat_id, origin, destination, cabin, price_minor, offer_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_seen_alert_seen_ts ON seen_alert(seen_ts)`,
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("ensure sqlite tables: %w", err)
		}
	}
	return nil
}
