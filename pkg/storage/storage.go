package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/capscope/capscope/pkg/merge"
	_ "modernc.org/sqlite"
)

// DefaultDBTimeout is the busy timeout applied when none is given.
const DefaultDBTimeout = 5 * time.Second

type DB struct {
	sql *sql.DB
}

func Open(path string, timeout time.Duration) (*DB, error) {
	if timeout <= 0 {
		timeout = DefaultDBTimeout
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)", path, timeout.Milliseconds())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	// Ensure schema exists for convenience.
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS merge_runs (
  id           INTEGER PRIMARY KEY,
  started_at   TEXT NOT NULL,
  source_path  TEXT NOT NULL,
  target_path  TEXT NOT NULL,
  inserted     INTEGER NOT NULL DEFAULT 0,
  skipped      INTEGER NOT NULL DEFAULT 0,
  saved        INTEGER NOT NULL CHECK (saved IN (0,1)),
  error        TEXT
);
CREATE INDEX IF NOT EXISTS idx_runs_target ON merge_runs(target_path, started_at);
CREATE TABLE IF NOT EXISTS merge_changes (
  id           INTEGER PRIMARY KEY,
  run_id       INTEGER NOT NULL REFERENCES merge_runs(id),
  occurred_at  TEXT NOT NULL,
  target_path  TEXT NOT NULL,
  college_key  TEXT NOT NULL,
  change_type  TEXT NOT NULL CHECK (change_type IN ('added','skipped'))
);
CREATE INDEX IF NOT EXISTS idx_changes_time ON merge_changes(occurred_at);
CREATE INDEX IF NOT EXISTS idx_changes_target ON merge_changes(target_path, occurred_at);
    `); err != nil {
		db.Close()
		return nil, err
	}
	return &DB{sql: db}, nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// RecordMerge stores one merge run and a change row per added or skipped key.
// It satisfies merge.Recorder.
func (d *DB) RecordMerge(ctx context.Context, r merge.PairResult) (err error) {
	startedAt := r.StartedAt
	if startedAt.IsZero() {
		startedAt = time.Now()
	}
	ts := startedAt.UTC().Format(time.RFC3339Nano)

	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var errText interface{}
	if r.Err != nil {
		errText = r.Err.Error()
	}

	res, err := tx.ExecContext(ctx, `INSERT INTO merge_runs(started_at, source_path, target_path, inserted, skipped, saved, error) VALUES(?,?,?,?,?,?,?)`,
		ts, r.Pair.Source, r.Pair.Target, len(r.Inserted), len(r.Skipped), boolToInt(r.Saved), errText)
	if err != nil {
		return err
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO merge_changes(run_id, occurred_at, target_path, college_key, change_type) VALUES(?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, k := range r.Inserted {
		if _, err = stmt.ExecContext(ctx, runID, ts, r.Pair.Target, k, ChangeAdded); err != nil {
			return err
		}
	}
	for _, k := range r.Skipped {
		if _, err = stmt.ExecContext(ctx, runID, ts, r.Pair.Target, k, ChangeSkipped); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ListRecentChanges returns the most recent N changes across all targets.
func (d *DB) ListRecentChanges(ctx context.Context, limit int) ([]Change, error) {
	if limit <= 0 {
		limit = 50
	}
	q := `SELECT c.run_id, c.occurred_at, r.source_path, c.target_path, c.college_key, c.change_type
FROM merge_changes c JOIN merge_runs r ON r.id = c.run_id
ORDER BY c.occurred_at DESC, c.id DESC LIMIT ?`
	rows, err := d.sql.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	changes := []Change{}
	for rows.Next() {
		var c Change
		var occurredAtStr string
		if err := rows.Scan(&c.RunID, &occurredAtStr, &c.SourcePath, &c.TargetPath, &c.CollegeKey, &c.ChangeType); err != nil {
			return nil, err
		}
		c.OccurredAt = parseTimestamp(occurredAtStr)
		changes = append(changes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return changes, nil
}

// GetStats summarises merge activity per target store.
func (d *DB) GetStats(ctx context.Context) ([]TargetStats, error) {
	query := `
		SELECT
			target_path,
			COUNT(*),
			COALESCE(SUM(inserted), 0),
			COALESCE(SUM(skipped), 0),
			COALESCE(SUM(CASE WHEN error IS NOT NULL THEN 1 ELSE 0 END), 0),
			MAX(started_at)
		FROM
			merge_runs
		GROUP BY
			target_path
		ORDER BY
			target_path;
	`
	rows, err := d.sql.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := []TargetStats{}
	for rows.Next() {
		var s TargetStats
		var lastRun string
		if err := rows.Scan(&s.TargetPath, &s.Runs, &s.Added, &s.Skipped, &s.Failed, &lastRun); err != nil {
			return nil, err
		}
		s.LastRunAt = parseTimestamp(lastRun)
		stats = append(stats, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}

func parseTimestamp(s string) time.Time {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t
	}
	return time.Time{}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
