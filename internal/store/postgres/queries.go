package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alfredjeanlab/standup/internal/store"
)

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func queryHasEntry(ctx context.Context, db executor, id string) (bool, error) {
	var exists bool
	err := db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM entries WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("has entry %s: %w", id, err)
	}
	return exists, nil
}

func querySaveEntry(ctx context.Context, db executor, id, author string, published int64, data string) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO entries (id, author, published, data) VALUES ($1, $2, $3, $4)`,
		id, author, published, data,
	)
	if err != nil {
		return fmt.Errorf("save entry %s: %w", id, err)
	}
	return nil
}

func queryLastPublished(ctx context.Context, db executor, author string) (*int64, error) {
	var published sql.NullInt64
	err := db.QueryRowContext(ctx, `SELECT MAX(published) FROM entries WHERE author = $1`, author).Scan(&published)
	if err != nil {
		return nil, fmt.Errorf("last published for %s: %w", author, err)
	}
	return nullInt64Ptr(published), nil
}

func queryPublishedBetween(ctx context.Context, db executor, author string, start, end int64) ([]string, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT data FROM entries
		WHERE author = $1 AND published >= $2 AND published < $3
		ORDER BY published, id`,
		author, start, end,
	)
	if err != nil {
		return nil, fmt.Errorf("published between for %s: %w", author, err)
	}
	return scanStrings(rows)
}

func queryListEntries(ctx context.Context, db executor) ([]store.StoredEntry, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+entryColumns+` FROM entries ORDER BY author, published, id`)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return scanEntries(rows)
}
