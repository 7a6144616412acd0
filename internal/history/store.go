// Package history keeps a local record of upload attempts.
//
// The record is informational only. Whether a file still needs uploading is
// decided by the gallery's photo list, never by this database.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ccfrost/zenwatch/internal/history/migrations"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

// Entry is one upload attempt.
type Entry struct {
	ID          int64
	CycleID     string
	GalleryID   int64
	FileName    string
	Path        string
	Size        int64
	ContentType string
	// PhotoID is empty when the upload failed.
	PhotoID string
	// Checksum is the xxhash64 of the bytes sent, in hex.
	Checksum   string
	CapturedAt time.Time
	Error      string
	CreatedAt  time.Time
}

// Succeeded reports whether the attempt produced a photo.
func (e Entry) Succeeded() bool {
	return e.Error == "" && e.PhotoID != ""
}

type Store struct {
	db *sql.DB
}

// RunMigrations brings the schema up to date.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return goose.UpContext(ctx, db, ".")
}

// Open opens or creates the history database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create history dir for %s: %w", path, err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history %s: %w", path, err)
	}
	// One writer at a time.
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate history %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Record appends an entry. CreatedAt defaults to now.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	var capturedAt sql.NullInt64
	if !e.CapturedAt.IsZero() {
		capturedAt = sql.NullInt64{Int64: e.CapturedAt.Unix(), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO uploads (cycle_id, gallery_id, file_name, path, size, content_type, photo_id, checksum, captured_at, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.CycleID, e.GalleryID, e.FileName, e.Path, e.Size, e.ContentType, e.PhotoID, e.Checksum, capturedAt, e.Error, e.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to record upload of %s: %w", e.FileName, err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, cycle_id, gallery_id, file_name, path, size, content_type, photo_id, checksum, captured_at, error, created_at
		FROM uploads
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e          Entry
			capturedAt sql.NullInt64
			createdAt  int64
		)
		if err := rows.Scan(&e.ID, &e.CycleID, &e.GalleryID, &e.FileName, &e.Path, &e.Size, &e.ContentType,
			&e.PhotoID, &e.Checksum, &capturedAt, &e.Error, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		if capturedAt.Valid {
			e.CapturedAt = time.Unix(capturedAt.Int64, 0)
		}
		e.CreatedAt = time.UnixMilli(createdAt)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate history rows: %w", err)
	}
	return entries, nil
}
