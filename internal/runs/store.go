package runs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"seedpipe/internal/config"
)

// Store keeps the local run history backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Open initializes or connects to the run history database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(filepath.Join(cfg.Paths.DataDir, "runs.db"))
}

// OpenPath opens the run history database at an explicit path.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
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

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Begin records the start of a run and returns it with a fresh run id.
func (s *Store) Begin(ctx context.Context, op Operation, tableName string, dryRun bool) (*Run, error) {
	run := &Run{
		RunID:     uuid.NewString(),
		Operation: op,
		TableName: tableName,
		DryRun:    dryRun,
		Status:    StatusRunning,
		StartedAt: time.Now().UTC(),
	}

	res, err := s.execWithRetry(ctx,
		`INSERT INTO runs (run_id, operation, table_name, dry_run, status, started_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		run.RunID, string(run.Operation), nullableString(run.TableName),
		boolToInt(run.DryRun), string(run.Status), run.StartedAt.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	if run.ID, err = res.LastInsertId(); err != nil {
		return nil, fmt.Errorf("run insert id: %w", err)
	}
	return run, nil
}

// Finish persists the final state of a run. The caller sets the status,
// counters, and paths on the run before calling.
func (s *Store) Finish(ctx context.Context, run *Run) error {
	now := time.Now().UTC()
	run.FinishedAt = &now

	res, err := s.execWithRetry(ctx,
		`UPDATE runs SET
			status = ?,
			total_records = ?,
			duplicate_groups = ?,
			duplicates_found = ?,
			duplicates_removed = ?,
			batches_succeeded = ?,
			batches_failed = ?,
			error_count = ?,
			backup_path = ?,
			log_path = ?,
			error_message = ?,
			finished_at = ?
		 WHERE run_id = ?`,
		string(run.Status),
		run.TotalRecords, run.DuplicateGroups, run.DuplicatesFound, run.DuplicatesRemoved,
		run.BatchesSucceeded, run.BatchesFailed, run.ErrorCount,
		nullableString(run.BackupPath), nullableString(run.LogPath), nullableString(run.ErrorMessage),
		now.Format(time.RFC3339Nano), run.RunID)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("finish run: run %s not found", run.RunID)
	}
	return nil
}

const runColumns = "id, run_id, operation, table_name, dry_run, status, total_records, duplicate_groups, duplicates_found, duplicates_removed, batches_succeeded, batches_failed, error_count, backup_path, log_path, error_message, started_at, finished_at"

// Get returns one run by its run id, or nil when absent. Short unique
// prefixes of the id are accepted.
func (s *Store) Get(ctx context.Context, runID string) (*Run, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+runColumns+" FROM runs WHERE run_id LIKE ? ORDER BY started_at DESC LIMIT 2",
		runID+"%")
	if err != nil {
		return nil, fmt.Errorf("query run: %w", err)
	}
	defer rows.Close()

	var matches []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		matches = append(matches, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	switch len(matches) {
	case 0:
		return nil, nil
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("run id %q is ambiguous", runID)
	}
}

// List returns the most recent runs, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]*Run, error) {
	ctx = ensureContext(ctx)
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+runColumns+" FROM runs ORDER BY started_at DESC, id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var result []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		result = append(result, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return result, nil
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		id           int64
		runID        string
		operation    string
		tableName    sql.NullString
		dryRun       sql.NullInt64
		status       string
		totals       [7]int
		backupPath   sql.NullString
		logPath      sql.NullString
		errorMessage sql.NullString
		startedRaw   string
		finishedRaw  sql.NullString
	)

	if err := scanner.Scan(
		&id, &runID, &operation, &tableName, &dryRun, &status,
		&totals[0], &totals[1], &totals[2], &totals[3], &totals[4], &totals[5], &totals[6],
		&backupPath, &logPath, &errorMessage, &startedRaw, &finishedRaw,
	); err != nil {
		return nil, err
	}

	run := &Run{
		ID:                id,
		RunID:             runID,
		Operation:         Operation(operation),
		TableName:         tableName.String,
		DryRun:            dryRun.Valid && dryRun.Int64 != 0,
		Status:            Status(status),
		TotalRecords:      totals[0],
		DuplicateGroups:   totals[1],
		DuplicatesFound:   totals[2],
		DuplicatesRemoved: totals[3],
		BatchesSucceeded:  totals[4],
		BatchesFailed:     totals[5],
		ErrorCount:        totals[6],
		BackupPath:        backupPath.String,
		LogPath:           logPath.String,
		ErrorMessage:      errorMessage.String,
	}

	if started, err := parseTimeString(startedRaw); err == nil {
		run.StartedAt = started
	}
	if finishedRaw.Valid {
		if finished, err := parseTimeString(finishedRaw.String); err == nil {
			run.FinishedAt = &finished
		}
	}
	return run, nil
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx = ensureContext(ctx)
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
