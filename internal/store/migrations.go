package store

import (
	"context"
	"database/sql"
	"strings"
)

// schema contains the DDL for all run archive tables.
// Each statement uses IF NOT EXISTS for idempotency.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL DEFAULT '',
		config     TEXT NOT NULL,
		summary    TEXT NOT NULL DEFAULT '{}',
		job_count  INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS run_processes (
		run_id     TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		seq        INTEGER NOT NULL,
		pid        INTEGER NOT NULL,
		name       TEXT NOT NULL,
		type       TEXT NOT NULL DEFAULT 'user',
		start      INTEGER NOT NULL,
		admitted   INTEGER NOT NULL,
		end_time   INTEGER NOT NULL,
		duration   INTEGER NOT NULL,
		io_time    INTEGER NOT NULL DEFAULT 0,
		turnaround INTEGER NOT NULL,
		waiting    INTEGER NOT NULL,
		dispatches INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (run_id, seq)
	)`,

	`CREATE TABLE IF NOT EXISTS run_events (
		run_id  TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		seq     INTEGER NOT NULL,
		time    INTEGER NOT NULL,
		kind    TEXT NOT NULL,
		pid     INTEGER NOT NULL DEFAULT 0,
		reason  TEXT NOT NULL DEFAULT 'none',
		message TEXT NOT NULL DEFAULT '',
		detail  TEXT NOT NULL DEFAULT '',
		value   INTEGER NOT NULL DEFAULT 0,
		length  INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (run_id, seq)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_runs_name ON runs(name)`,
	`CREATE INDEX IF NOT EXISTS idx_run_events_pid ON run_events(run_id, pid)`,
}

// alterStatements are column additions that need special handling since
// SQLite doesn't support IF NOT EXISTS for ALTER TABLE ADD COLUMN.
var alterStatements = []struct {
	table    string
	column   string
	alterSQL string
	indexSQL string // Optional index to create after column is added
}{
	// The source workload, kept so a run can be replayed.
	{
		table:    "runs",
		column:   "workload",
		alterSQL: "ALTER TABLE runs ADD COLUMN workload TEXT NOT NULL DEFAULT ''",
	},
	{
		table:    "runs",
		column:   "error",
		alterSQL: "ALTER TABLE runs ADD COLUMN error TEXT NOT NULL DEFAULT ''",
	},
}

// migrate executes all schema DDL statements and alter migrations.
func migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	for _, alter := range alterStatements {
		if err := addColumnIfNotExists(ctx, db, alter.table, alter.column, alter.alterSQL); err != nil {
			return err
		}
		if alter.indexSQL != "" {
			if _, err := db.ExecContext(ctx, alter.indexSQL); err != nil {
				return err
			}
		}
	}
	return nil
}

// addColumnIfNotExists adds a column to a table if it doesn't already exist.
func addColumnIfNotExists(ctx context.Context, db *sql.DB, table, column, alterSQL string) error {
	exists, err := columnExists(ctx, db, table, column)
	if err != nil || exists {
		return err
	}
	_, err = db.ExecContext(ctx, alterSQL)
	return err
}

func columnExists(ctx context.Context, db *sql.DB, table, column string) (bool, error) {
	rows, err := db.QueryContext(ctx, "PRAGMA table_info("+table+")")
	if err != nil {
		return false, err
	}
	defer rows.Close()

	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dfltValue *string
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			return false, err
		}
		if strings.EqualFold(name, column) {
			return true, nil
		}
	}
	return false, rows.Err()
}
