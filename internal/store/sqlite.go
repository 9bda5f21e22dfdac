package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DefaultPath is where the CLI keeps its ledger.
const DefaultPath = "~/.config/thirdbrain/jobs.db"

// SQLiteStore is a [Store] backed by a SQLite database file.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens (creating if needed) the ledger at path. A leading "~" is
// expanded to the user's home directory and missing parent directories are
// created.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve home directory: %w", err)
		}
		path = filepath.Join(home, path[1:])
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create ledger directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}

	s, err := NewSQLiteStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLiteStore wraps an open database and creates the schema if missing.
// The store takes ownership of db.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db, now: time.Now}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate ledger: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS jobs (
			handle TEXT PRIMARY KEY,
			provider TEXT NOT NULL,
			kind TEXT NOT NULL,
			query TEXT NOT NULL DEFAULT '',
			model TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			output_path TEXT NOT NULL DEFAULT '',
			submitted_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_jobs_submitted ON jobs(submitted_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) Record(ctx context.Context, rec JobRecord) error {
	now := s.now().UTC()
	if rec.SubmittedAt.IsZero() {
		rec.SubmittedAt = now
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = rec.SubmittedAt
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO jobs
			(handle, provider, kind, query, model, status, output_path, submitted_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Handle, rec.Provider, rec.Kind, rec.Query, rec.Model,
		rec.Status, rec.OutputPath, rec.SubmittedAt, rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record job %s: %w", rec.Handle, err)
	}
	return nil
}

func (s *SQLiteStore) UpdateStatus(ctx context.Context, handle, status, outputPath string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE jobs
		SET status = ?,
			output_path = CASE WHEN ? = '' THEN output_path ELSE ? END,
			updated_at = ?
		WHERE handle = ?`,
		status, outputPath, outputPath, s.now().UTC(), handle,
	)
	if err != nil {
		return fmt.Errorf("failed to update job %s: %w", handle, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update job %s: %w", handle, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

const selectColumns = `handle, provider, kind, query, model, status, output_path, submitted_at, updated_at`

func (s *SQLiteStore) Get(ctx context.Context, handle string) (JobRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM jobs WHERE handle = ?`, handle)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return JobRecord{}, ErrNotFound
	}
	if err != nil {
		return JobRecord{}, fmt.Errorf("failed to read job %s: %w", handle, err)
	}
	return rec, nil
}

func (s *SQLiteStore) List(ctx context.Context, limit int) ([]JobRecord, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM jobs ORDER BY submitted_at DESC, handle ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var records []JobRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	return records, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (JobRecord, error) {
	var rec JobRecord
	err := sc.Scan(
		&rec.Handle, &rec.Provider, &rec.Kind, &rec.Query, &rec.Model,
		&rec.Status, &rec.OutputPath, &rec.SubmittedAt, &rec.UpdatedAt,
	)
	return rec, err
}
