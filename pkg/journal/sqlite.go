package journal

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteJournal stores the journal in a SQLite database.
type SQLiteJournal struct {
	db *sql.DB
	mu sync.RWMutex
}

// OpenSQLite opens (creating if needed) the database at path and migrates
// its schema.
func OpenSQLite(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	j := &SQLiteJournal{db: db}
	if err := j.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate journal: %w", err)
	}
	return j, nil
}

func (j *SQLiteJournal) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at DATETIME NOT NULL,
		finished_at DATETIME,
		config_hash TEXT NOT NULL,
		seed INTEGER NOT NULL,
		images_dir TEXT NOT NULL DEFAULT '',
		output_dir TEXT NOT NULL DEFAULT '',
		images INTEGER NOT NULL DEFAULT 0,
		kept INTEGER NOT NULL DEFAULT 0,
		dropped INTEGER NOT NULL DEFAULT 0,
		failed INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		file_name TEXT NOT NULL,
		image_id INTEGER NOT NULL,
		seed INTEGER NOT NULL,
		applied TEXT NOT NULL DEFAULT '',
		annotations_in INTEGER NOT NULL DEFAULT 0,
		annotations_out INTEGER NOT NULL DEFAULT 0,
		width INTEGER NOT NULL DEFAULT 0,
		height INTEGER NOT NULL DEFAULT 0,
		cache_hit INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT '',
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	CREATE INDEX IF NOT EXISTS idx_entries_run_id ON entries(run_id);
	`
	_, err := j.db.Exec(schema)
	return err
}

// StartRun implements [Journal].
func (j *SQLiteJournal) StartRun(ctx context.Context, run *Run) error {
	prepareRun(run)
	j.mu.Lock()
	defer j.mu.Unlock()

	_, err := j.db.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, config_hash, seed, images_dir, output_dir)
		VALUES (?, ?, ?, ?, ?, ?)
	`, run.ID, run.StartedAt, run.ConfigHash, int64(run.Seed), run.ImagesDir, run.OutputDir)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// Record implements [Journal].
func (j *SQLiteJournal) Record(ctx context.Context, e Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	_, err := j.db.ExecContext(ctx, `
		INSERT INTO entries (run_id, file_name, image_id, seed, applied,
			annotations_in, annotations_out, width, height, cache_hit, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.RunID, e.FileName, e.ImageID, int64(e.Seed), strings.Join(e.Applied, ","),
		e.AnnotationsIn, e.AnnotationsOut, e.Width, e.Height, e.CacheHit, e.Error)
	if err != nil {
		return fmt.Errorf("failed to insert entry: %w", err)
	}
	return nil
}

// FinishRun implements [Journal].
func (j *SQLiteJournal) FinishRun(ctx context.Context, run *Run) error {
	run.FinishedAt = time.Now().UTC()
	j.mu.Lock()
	defer j.mu.Unlock()

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE runs SET finished_at = ?, images = ?, kept = ?, dropped = ?, failed = ?
		WHERE id = ?
	`, run.FinishedAt, run.Images, run.Kept, run.Dropped, run.Failed, run.ID)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return notFound(run.ID)
	}
	return tx.Commit()
}

const runColumns = `id, started_at, finished_at, config_hash, seed, images_dir, output_dir,
	images, kept, dropped, failed`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (Run, error) {
	var (
		r        Run
		finished sql.NullTime
		seed     int64
	)
	err := s.Scan(&r.ID, &r.StartedAt, &finished, &r.ConfigHash, &seed, &r.ImagesDir, &r.OutputDir,
		&r.Images, &r.Kept, &r.Dropped, &r.Failed)
	if err != nil {
		return Run{}, err
	}
	r.Seed = uint64(seed)
	if finished.Valid {
		r.FinishedAt = finished.Time
	}
	return r, nil
}

// Run implements [Journal].
func (j *SQLiteJournal) Run(ctx context.Context, id string) (*Run, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	r, err := scanRun(j.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &r, nil
}

// Runs implements [Journal].
func (j *SQLiteJournal) Runs(ctx context.Context, limit int) ([]Run, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Entries implements [Journal].
func (j *SQLiteJournal) Entries(ctx context.Context, runID string) ([]Entry, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	rows, err := j.db.QueryContext(ctx, `
		SELECT run_id, file_name, image_id, seed, applied,
			annotations_in, annotations_out, width, height, cache_hit, error
		FROM entries WHERE run_id = ? ORDER BY file_name, id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e       Entry
			seed    int64
			applied string
		)
		if err := rows.Scan(&e.RunID, &e.FileName, &e.ImageID, &seed, &applied,
			&e.AnnotationsIn, &e.AnnotationsOut, &e.Width, &e.Height, &e.CacheHit, &e.Error); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		e.Seed = uint64(seed)
		if applied != "" {
			e.Applied = strings.Split(applied, ",")
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close implements [Journal].
func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}

var _ Journal = (*SQLiteJournal)(nil)
