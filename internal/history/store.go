package history

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is bumped on schema changes. A mismatched database must be
// deleted before the new version can use it.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database was created by a different version.
var ErrSchemaMismatch = errors.New("history schema version mismatch")

const timeLayout = time.RFC3339

// Run is one batch invocation.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Finished   bool
	Succeeded  int
	Failed     int
}

// Outcome is one job result within a run.
type Outcome struct {
	InputFile       string
	Destination     string
	Strategy        string
	Success         bool
	ErrText         string
	TotalSeconds    int
	EncodingSeconds int
	ArchiveSeconds  int
	RecordedAt      time.Time
}

// Store manages history persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
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
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s)",
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

// BeginRun records the start of a batch invocation.
func (s *Store) BeginRun(ctx context.Context, id string, startedAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO batch_runs (id, started_at) VALUES (?, ?)",
		id, startedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("record batch start: %w", err)
	}
	return nil
}

// RecordOutcome appends one job result to a run.
func (s *Store) RecordOutcome(ctx context.Context, runID string, outcome Outcome) error {
	recordedAt := outcome.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO job_outcomes
			(run_id, input_file, destination, strategy, success, err_text,
			 total_seconds, encoding_seconds, archive_seconds, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, outcome.InputFile, outcome.Destination, outcome.Strategy,
		boolToInt(outcome.Success), outcome.ErrText,
		outcome.TotalSeconds, outcome.EncodingSeconds, outcome.ArchiveSeconds,
		recordedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("record job outcome: %w", err)
	}
	return nil
}

// UpdateArchiveSeconds patches a recorded outcome once its deferred archive
// has run.
func (s *Store) UpdateArchiveSeconds(ctx context.Context, runID, inputFile string, seconds int) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE job_outcomes SET archive_seconds = ? WHERE run_id = ? AND input_file = ?",
		seconds, runID, inputFile)
	if err != nil {
		return fmt.Errorf("update archive seconds: %w", err)
	}
	return nil
}

// FinishRun closes out a batch invocation with its final counters.
func (s *Store) FinishRun(ctx context.Context, runID string, finishedAt time.Time, succeeded, failed int) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE batch_runs SET finished_at = ?, succeeded = ?, failed = ? WHERE id = ?",
		finishedAt.UTC().Format(timeLayout), succeeded, failed, runID)
	if err != nil {
		return fmt.Errorf("record batch finish: %w", err)
	}
	return nil
}

// RecentRuns returns up to limit runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, COALESCE(finished_at, ''), succeeded, failed
		FROM batch_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var started, finished string
		if err := rows.Scan(&run.ID, &started, &finished, &run.Succeeded, &run.Failed); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if run.StartedAt, err = time.Parse(timeLayout, started); err != nil {
			return nil, fmt.Errorf("parse run start time: %w", err)
		}
		if finished != "" {
			if run.FinishedAt, err = time.Parse(timeLayout, finished); err != nil {
				return nil, fmt.Errorf("parse run finish time: %w", err)
			}
			run.Finished = true
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// RunOutcomes returns the job results for one run in insertion order.
func (s *Store) RunOutcomes(ctx context.Context, runID string) ([]Outcome, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT input_file, destination, strategy, success, err_text,
		       total_seconds, encoding_seconds, archive_seconds, recorded_at
		FROM job_outcomes WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []Outcome
	for rows.Next() {
		var o Outcome
		var success int
		var recorded string
		if err := rows.Scan(&o.InputFile, &o.Destination, &o.Strategy, &success, &o.ErrText,
			&o.TotalSeconds, &o.EncodingSeconds, &o.ArchiveSeconds, &recorded); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		o.Success = success != 0
		if o.RecordedAt, err = time.Parse(timeLayout, recorded); err != nil {
			return nil, fmt.Errorf("parse outcome time: %w", err)
		}
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
