package runlog

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"ratesync/internal/outcome"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema
// changes; users clear the history database after a mismatch.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the
// expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// Run is one recorded sync run.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Source     string
	Library    string
	InputPath  string

	DryRun         bool
	ForceOverwrite bool
	MarkWatched    bool

	Updated          int
	SkippedUnchanged int
	NotFound         int
	TypeMismatch     int
	InvalidInput     int
	RateFailed       int
	Filtered         int
	ExportPath       string
}

// Total returns the number of records that received an outcome in this run.
func (r Run) Total() int {
	return r.Updated + r.SkippedUnchanged + r.NotFound + r.TypeMismatch + r.InvalidInput + r.RateFailed
}

// FillCounts copies a summary's counts into the run record.
func (r *Run) FillCounts(s *outcome.Summary) {
	r.Updated = s.Updated
	r.SkippedUnchanged = s.SkippedUnchanged
	r.NotFound = s.NotFound
	r.TypeMismatch = s.TypeMismatch
	r.InvalidInput = s.InvalidInput
	r.RateFailed = s.RateFailed
	r.Filtered = s.Filtered
	r.ExportPath = s.ExportPath
}

// Store manages run history persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
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

	store := &Store{db: db, path: path}
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

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	err = s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to reset)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

// Record inserts one finished run.
func (s *Store) Record(ctx context.Context, run Run) error {
	if strings.TrimSpace(run.ID) == "" {
		return errors.New("run id is required")
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO runs (
            id, started_at, finished_at, source, library, input_path,
            dry_run, force_overwrite, mark_watched,
            updated, skipped_unchanged, not_found, type_mismatch,
            invalid_input, rate_failed, filtered, export_path
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.FinishedAt.UTC().Format(time.RFC3339Nano),
		run.Source,
		run.Library,
		run.InputPath,
		boolToInt(run.DryRun),
		boolToInt(run.ForceOverwrite),
		boolToInt(run.MarkWatched),
		run.Updated,
		run.SkippedUnchanged,
		run.NotFound,
		run.TypeMismatch,
		run.InvalidInput,
		run.RateFailed,
		run.Filtered,
		nullableString(run.ExportPath),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, started_at, finished_at, source, library, input_path,
                dry_run, force_overwrite, mark_watched,
                updated, skipped_unchanged, not_found, type_mismatch,
                invalid_input, rate_failed, filtered, export_path
           FROM runs
          ORDER BY started_at DESC
          LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

func scanRun(rows *sql.Rows) (Run, error) {
	var (
		run                   Run
		startedAt, finishedAt string
		dryRun, force, watch  int
		exportPath            sql.NullString
	)
	err := rows.Scan(
		&run.ID, &startedAt, &finishedAt, &run.Source, &run.Library, &run.InputPath,
		&dryRun, &force, &watch,
		&run.Updated, &run.SkippedUnchanged, &run.NotFound, &run.TypeMismatch,
		&run.InvalidInput, &run.RateFailed, &run.Filtered, &exportPath,
	)
	if err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	if run.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
		return Run{}, fmt.Errorf("parse started_at: %w", err)
	}
	if run.FinishedAt, err = time.Parse(time.RFC3339Nano, finishedAt); err != nil {
		return Run{}, fmt.Errorf("parse finished_at: %w", err)
	}
	run.DryRun = dryRun != 0
	run.ForceOverwrite = force != 0
	run.MarkWatched = watch != 0
	if exportPath.Valid {
		run.ExportPath = exportPath.String
	}
	return run, nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}
