// Package sqlite implements the store.Store interface backed by a local
// SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/alfredjeanlab/standup/internal/store"
)

var pragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA synchronous = NORMAL",
	"PRAGMA busy_timeout = 5000",
}

const schema = `
CREATE TABLE IF NOT EXISTS entries (
	id        TEXT PRIMARY KEY,
	author    TEXT NOT NULL,
	published INTEGER NOT NULL,
	data      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_entries_author_published ON entries (author, published);
`

// SQLiteStore implements store.Store backed by a SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

var _ store.Store = (*SQLiteStore)(nil)

// Open opens (creating if needed) the database at path and ensures the
// entries table exists.
func Open(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetConnMaxIdleTime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) HasEntry(ctx context.Context, id string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM entries WHERE id = ?`, id).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("has entry %s: %w", id, err)
	}
	return n > 0, nil
}

func (s *SQLiteStore) SaveEntry(ctx context.Context, id, author string, published int64, data string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO entries (id, author, published, data) VALUES (?, ?, ?, ?)`,
		id, author, published, data,
	)
	if err != nil {
		return fmt.Errorf("save entry %s: %w", id, err)
	}
	return nil
}

func (s *SQLiteStore) LastPublished(ctx context.Context, author string) (*int64, error) {
	var published sql.NullInt64
	err := s.db.QueryRowContext(ctx, `SELECT MAX(published) FROM entries WHERE author = ?`, author).Scan(&published)
	if err != nil {
		return nil, fmt.Errorf("last published for %s: %w", author, err)
	}
	if !published.Valid {
		return nil, nil
	}
	return &published.Int64, nil
}

func (s *SQLiteStore) PublishedBetween(ctx context.Context, author string, start, end int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT data FROM entries
		WHERE author = ? AND published >= ? AND published < ?
		ORDER BY published, id`,
		author, start, end,
	)
	if err != nil {
		return nil, fmt.Errorf("published between for %s: %w", author, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		out = append(out, data)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ListEntries(ctx context.Context) ([]store.StoredEntry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, author, published, data FROM entries ORDER BY author, published, id`)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var out []store.StoredEntry
	for rows.Next() {
		var e store.StoredEntry
		if err := rows.Scan(&e.ID, &e.Author, &e.Published, &e.Data); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
