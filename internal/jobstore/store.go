package jobstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"subforge/internal/config"
	"subforge/internal/jobs"
)

// timeLayout keeps fixed-width fractions so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// InterruptedReason is recorded for runs left open by a previous process.
const InterruptedReason = "interrupted: process exited while the job was running"

// Store is the SQLite job ledger. It implements jobs.Recorder.
type Store struct {
	db   *sql.DB
	path string
}

var _ jobs.Recorder = (*Store)(nil)

// Open initializes or connects to the ledger configured in cfg.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.DatabasePath())
}

// OpenPath initializes or connects to the ledger at dbPath.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RecordStart inserts a run entry.
func (s *Store) RecordStart(ctx context.Context, rec jobs.Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO job_runs (id, kind, state, subject, reason, started_at, finished_at)
         VALUES (?, ?, ?, ?, ?, ?, NULL)`,
		rec.ID,
		string(rec.Kind),
		string(rec.State),
		rec.Subject,
		rec.Reason,
		formatTime(rec.StartedAt),
	)
	if err != nil {
		return fmt.Errorf("insert job run: %w", err)
	}
	return nil
}

// RecordFinish stores the terminal state of a run, inserting it when the
// start was never recorded.
func (s *Store) RecordFinish(ctx context.Context, rec jobs.Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO job_runs (id, kind, state, subject, reason, started_at, finished_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(id) DO UPDATE SET
            state = excluded.state,
            reason = excluded.reason,
            finished_at = excluded.finished_at`,
		rec.ID,
		string(rec.Kind),
		string(rec.State),
		rec.Subject,
		rec.Reason,
		formatTime(rec.StartedAt),
		formatTime(rec.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("finish job run: %w", err)
	}
	return nil
}

// Filter narrows List results.
type Filter struct {
	Kind  jobs.Kind
	State jobs.State
	Limit int
}

// List returns runs newest first.
func (s *Store) List(ctx context.Context, filter Filter) ([]jobs.Record, error) {
	var (
		where []string
		args  []any
	)
	if filter.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, string(filter.Kind))
	}
	if filter.State != "" {
		where = append(where, "state = ?")
		args = append(args, string(filter.State))
	}
	query := "SELECT id, kind, state, subject, reason, started_at, finished_at FROM job_runs"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY started_at DESC, rowid DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list job runs: %w", err)
	}
	defer rows.Close()

	var out []jobs.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate job runs: %w", err)
	}
	return out, nil
}

// Get fetches one run by ID. A missing run yields nil with no error.
func (s *Store) Get(ctx context.Context, id string) (*jobs.Record, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, kind, state, subject, reason, started_at, finished_at FROM job_runs WHERE id = ?", id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// MarkInterrupted fails every run still marked running. It is called at
// startup, before any job of this process is recorded.
func (s *Store) MarkInterrupted(ctx context.Context, at time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE job_runs SET state = ?, reason = ?, finished_at = ? WHERE state = ?",
		string(jobs.StateFailed), InterruptedReason, formatTime(at), string(jobs.StateRunning),
	)
	if err != nil {
		return 0, fmt.Errorf("mark interrupted runs: %w", err)
	}
	return res.RowsAffected()
}

// Prune removes finished runs that started before cutoff.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM job_runs WHERE finished_at IS NOT NULL AND started_at < ?", formatTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("prune job runs: %w", err)
	}
	return res.RowsAffected()
}

// Clear removes every finished run.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM job_runs WHERE finished_at IS NOT NULL")
	if err != nil {
		return 0, fmt.Errorf("clear job runs: %w", err)
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (jobs.Record, error) {
	var (
		rec      jobs.Record
		kind     string
		state    string
		started  string
		finished sql.NullString
	)
	if err := row.Scan(&rec.ID, &kind, &state, &rec.Subject, &rec.Reason, &started, &finished); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rec, err
		}
		return rec, fmt.Errorf("scan job run: %w", err)
	}
	rec.Kind = jobs.Kind(kind)
	rec.State = jobs.State(state)
	rec.StartedAt = parseTime(started)
	if finished.Valid {
		rec.FinishedAt = parseTime(finished.String)
	}
	return rec, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) time.Time {
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
