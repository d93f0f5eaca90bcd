package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/me/batchsim/pkg/model"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and returns a Store.
// Use ":memory:" for an in-memory database (useful in tests).
func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	// Every pooled connection to ":memory:" would get its own empty database.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma wal: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		logger: logger.With("component", "store"),
	}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Migrate creates all required tables and indexes.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	s.logger.Debug("sql", "op", "migrate")
	return migrate(ctx, s.db)
}

// --- Runs ---

// CreateRun stores run together with its process results and trace events
// in one transaction.
func (s *SQLiteStore) CreateRun(ctx context.Context, run *model.Run) error {
	s.logger.Debug("sql", "op", "insert", "table", "runs", "id", run.ID,
		"processes", len(run.Processes), "events", len(run.Events))

	configJSON, err := json.Marshal(run.Config)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	summary := run.Summary
	if summary == nil {
		summary = &model.RunSummary{}
	}
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, name, config, summary, job_count, workload, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Name, string(configJSON), string(summaryJSON), run.JobCount,
		run.Workload, run.Error, run.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	if len(run.Processes) > 0 {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO run_processes (run_id, seq, pid, name, type, start, admitted, end_time, duration, io_time, turnaround, waiting, dispatches)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare processes: %w", err)
		}
		defer stmt.Close()
		for i, p := range run.Processes {
			if _, err := stmt.ExecContext(ctx, run.ID, i, uint(p.PID), p.Name, string(p.Type),
				int64(p.Start), int64(p.Admitted), int64(p.End), int64(p.Duration), int64(p.IOTime),
				int64(p.Turnaround), int64(p.Waiting), p.Dispatches); err != nil {
				return fmt.Errorf("insert process %d: %w", i, err)
			}
		}
	}

	if len(run.Events) > 0 {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO run_events (run_id, seq, time, kind, pid, reason, message, detail, value, length)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare events: %w", err)
		}
		defer stmt.Close()
		for _, ev := range run.Events {
			if _, err := stmt.ExecContext(ctx, run.ID, ev.Seq, int64(ev.Time), string(ev.Kind), uint(ev.PID),
				ev.Reason.String(), ev.Message, ev.Detail, int64(ev.Value), int64(ev.Length)); err != nil {
				return fmt.Errorf("insert event %d: %w", ev.Seq, err)
			}
		}
	}

	return tx.Commit()
}

// GetRun returns the run with the given id including its process results,
// or nil if it does not exist. Events are loaded separately through
// ListRunEvents since a run can carry thousands of them.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*model.Run, error) {
	s.logger.Debug("sql", "op", "select", "table", "runs", "id", id)

	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, config, summary, job_count, workload, error, created_at
		 FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	run.Processes, err = s.ListRunProcesses(ctx, id)
	if err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns returns runs newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context, opts model.ListOptions) ([]*model.Run, int, error) {
	s.logger.Debug("sql", "op", "list", "table", "runs", "limit", opts.Limit, "offset", opts.Offset)
	opts.Clamp()

	where := ""
	var args []any
	if opts.Name != "" {
		where = " WHERE name = ?"
		args = append(args, opts.Name)
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, config, summary, job_count, workload, error, created_at
		 FROM runs`+where+` ORDER BY created_at DESC, id LIMIT ? OFFSET ?`,
		append(args, opts.Limit, opts.Offset)...,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var runs []*model.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, 0, err
		}
		// Listings do not carry the workload text.
		run.Workload = ""
		runs = append(runs, run)
	}
	return runs, total, rows.Err()
}

// DeleteRun removes a run and, through the cascade, its details.
func (s *SQLiteStore) DeleteRun(ctx context.Context, id string) error {
	s.logger.Debug("sql", "op", "delete", "table", "runs", "id", id)

	result, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("run %s not found", id)
	}
	return nil
}

// --- Run details ---

// ListRunProcesses returns the process results of a run in completion order.
func (s *SQLiteStore) ListRunProcesses(ctx context.Context, runID string) ([]model.ProcessResult, error) {
	s.logger.Debug("sql", "op", "list", "table", "run_processes", "run_id", runID)

	rows, err := s.db.QueryContext(ctx,
		`SELECT pid, name, type, start, admitted, end_time, duration, io_time, turnaround, waiting, dispatches
		 FROM run_processes WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	procs := []model.ProcessResult{}
	for rows.Next() {
		var p model.ProcessResult
		var pid uint
		var typ string
		var start, admitted, end, duration, ioTime, turnaround, waiting int64
		if err := rows.Scan(&pid, &p.Name, &typ, &start, &admitted, &end, &duration,
			&ioTime, &turnaround, &waiting, &p.Dispatches); err != nil {
			return nil, err
		}
		p.PID = model.PID(pid)
		p.Type = model.ProcessType(typ)
		p.Start = model.Tick(start)
		p.Admitted = model.Tick(admitted)
		p.End = model.Tick(end)
		p.Duration = model.Tick(duration)
		p.IOTime = model.Tick(ioTime)
		p.Turnaround = model.Tick(turnaround)
		p.Waiting = model.Tick(waiting)
		procs = append(procs, p)
	}
	return procs, rows.Err()
}

// ListRunEvents returns the trace of a run in emission order. A non-zero pid
// restricts the result to that process.
func (s *SQLiteStore) ListRunEvents(ctx context.Context, runID string, pid model.PID) ([]model.TraceEvent, error) {
	s.logger.Debug("sql", "op", "list", "table", "run_events", "run_id", runID, "pid", pid)

	query := `SELECT seq, time, kind, pid, reason, message, detail, value, length
		FROM run_events WHERE run_id = ?`
	args := []any{runID}
	if pid != model.NoProcess {
		query += ` AND pid = ?`
		args = append(args, uint(pid))
	}
	query += ` ORDER BY seq`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []model.TraceEvent{}
	for rows.Next() {
		var ev model.TraceEvent
		var kind, reason string
		var evPID uint
		var tm, value, length int64
		if err := rows.Scan(&ev.Seq, &tm, &kind, &evPID, &reason, &ev.Message, &ev.Detail, &value, &length); err != nil {
			return nil, err
		}
		ev.Time = model.Tick(tm)
		ev.Kind = model.TraceKind(kind)
		ev.PID = model.PID(evPID)
		ev.Value = uint64(value)
		ev.Length = uint64(length)
		if ev.Reason, err = model.ParseEventReason(reason); err != nil {
			s.logger.Warn("unknown event reason in archive", "run_id", runID, "seq", ev.Seq, "reason", reason)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// --- Helpers ---

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*model.Run, error) {
	var run model.Run
	var configJSON, summaryJSON, createdAt string
	if err := row.Scan(&run.ID, &run.Name, &configJSON, &summaryJSON, &run.JobCount,
		&run.Workload, &run.Error, &createdAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(configJSON), &run.Config); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	var summary model.RunSummary
	if err := json.Unmarshal([]byte(summaryJSON), &summary); err != nil {
		return nil, fmt.Errorf("unmarshal summary: %w", err)
	}
	run.Summary = &summary
	run.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return &run, nil
}
