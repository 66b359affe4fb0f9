package postgres

import (
	"database/sql"

	"github.com/alfredjeanlab/standup/internal/store"
)

// entryColumns is the column list used for SELECT statements on the entries table.
const entryColumns = `id, author, published, data`

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// scanEntry scans a single row into a store.StoredEntry.
// The row must contain columns in the order defined by entryColumns.
func scanEntry(row scannable) (store.StoredEntry, error) {
	var e store.StoredEntry
	err := row.Scan(&e.ID, &e.Author, &e.Published, &e.Data)
	return e, err
}

func scanEntries(rows *sql.Rows) ([]store.StoredEntry, error) {
	defer rows.Close()
	var entries []store.StoredEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanStrings(rows *sql.Rows) ([]string, error) {
	defer rows.Close()
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// nullInt64Ptr returns nil for a NULL value.
func nullInt64Ptr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}
