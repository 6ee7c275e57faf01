// Package store keeps a small SQLite ledger of pipeline runs and rendered
// images, so a rerun can skip images whose render inputs did not change.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Run statuses.
const (
	StatusRunning = "running"
	StatusDone    = "done"
	StatusFailed  = "failed"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	slug TEXT NOT NULL,
	audio_path TEXT NOT NULL,
	status TEXT NOT NULL,
	started_at REAL NOT NULL,
	finished_at REAL,
	error TEXT
);
CREATE INDEX IF NOT EXISTS runs_slug ON runs(slug, started_at);

CREATE TABLE IF NOT EXISTS images (
	slug TEXT NOT NULL,
	position INTEGER NOT NULL,
	prompt_hash TEXT NOT NULL,
	path TEXT NOT NULL,
	created_at REAL NOT NULL,
	PRIMARY KEY (slug, position)
);
`

type Run struct {
	ID         string
	Slug       string
	AudioPath  string
	Status     string
	StartedAt  time.Time
	FinishedAt *time.Time
	Error      string
}

type Image struct {
	Slug       string
	Position   int
	PromptHash string
	Path       string
	CreatedAt  time.Time
}

// Store is safe for concurrent use.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and applies the schema.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection serialises writers; SQLite would return SQLITE_BUSY otherwise.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// StartRun records a new running run and returns its id.
func (s *Store) StartRun(ctx context.Context, slug, audioPath string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, slug, audio_path, status, started_at)
		VALUES (?, ?, ?, ?, ?)
	`, id, slug, audioPath, StatusRunning, unixFromTime(time.Now()))
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return id, nil
}

// FinishRun marks a run done, or failed when runErr is non-nil.
func (s *Store) FinishRun(ctx context.Context, id string, runErr error) error {
	status, msg := StatusDone, sql.NullString{}
	if runErr != nil {
		status = StatusFailed
		msg = sql.NullString{String: runErr.Error(), Valid: true}
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE runs SET status = ?, finished_at = ?, error = ?
		WHERE id = ?
	`, status, unixFromTime(time.Now()), msg, id)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s not found", id)
	}
	return nil
}

// LatestRun returns the most recent run for slug, or nil if there is none.
func (s *Store) LatestRun(ctx context.Context, slug string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, slug, audio_path, status, started_at, finished_at, error
		FROM runs
		WHERE slug = ?
		ORDER BY started_at DESC
		LIMIT 1
	`, slug)

	var r Run
	var startedAt float64
	var finishedAt sql.NullFloat64
	var msg sql.NullString
	if err := row.Scan(&r.ID, &r.Slug, &r.AudioPath, &r.Status, &startedAt, &finishedAt, &msg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}

	r.StartedAt = timeFromUnix(startedAt)
	if finishedAt.Valid {
		t := timeFromUnix(finishedAt.Float64)
		r.FinishedAt = &t
	}
	r.Error = msg.String
	return &r, nil
}

// Image returns the image recorded for slug at position, or nil.
func (s *Store) Image(ctx context.Context, slug string, position int) (*Image, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT slug, position, prompt_hash, path, created_at
		FROM images
		WHERE slug = ? AND position = ?
	`, slug, position)

	var img Image
	var createdAt float64
	if err := row.Scan(&img.Slug, &img.Position, &img.PromptHash, &img.Path, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan image: %w", err)
	}
	img.CreatedAt = timeFromUnix(createdAt)
	return &img, nil
}

// PutImage records or replaces the image at (slug, position).
func (s *Store) PutImage(ctx context.Context, img Image) error {
	if img.CreatedAt.IsZero() {
		img.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO images (slug, position, prompt_hash, path, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (slug, position) DO UPDATE SET
			prompt_hash = excluded.prompt_hash,
			path = excluded.path,
			created_at = excluded.created_at
	`, img.Slug, img.Position, img.PromptHash, img.Path, unixFromTime(img.CreatedAt))
	if err != nil {
		return fmt.Errorf("upsert image: %w", err)
	}
	return nil
}

// DeleteImage forgets the image at (slug, position).
func (s *Store) DeleteImage(ctx context.Context, slug string, position int) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM images WHERE slug = ? AND position = ?`, slug, position); err != nil {
		return fmt.Errorf("delete image: %w", err)
	}
	return nil
}

func unixFromTime(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

func timeFromUnix(f float64) time.Time {
	sec, frac := math.Modf(f)
	return time.Unix(int64(sec), int64(frac*1e9))
}
