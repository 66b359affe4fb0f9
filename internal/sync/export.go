package sync

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/alfredjeanlab/standup/internal/store"
)

// header is the first JSONL record written by ExportJSONL.
type header struct {
	Version    string    `json:"version"`
	Type       string    `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
	EntryCount int       `json:"entry_count"`
	Members    []string  `json:"members"`
}

// record wraps a single JSONL line with a type discriminator.
type record struct {
	Type string    `json:"type"`
	Data entryLine `json:"data"`
}

// entryLine is a stored entry with its serialized form embedded as JSON
// rather than as an escaped string.
type entryLine struct {
	ID        string          `json:"id"`
	Author    string          `json:"author"`
	Published int64           `json:"published"`
	Entry     json.RawMessage `json:"entry"`
}

// ExportJSONL writes every stored entry as JSONL to w, grouped by author and
// oldest first within an author. It returns the number of entries written.
func ExportJSONL(ctx context.Context, s store.Store, w io.Writer) (int, error) {
	entries, err := s.ListEntries(ctx)
	if err != nil {
		return 0, fmt.Errorf("list entries: %w", err)
	}

	slices.SortStableFunc(entries, func(a, b store.StoredEntry) int {
		return cmp.Or(
			cmp.Compare(a.Author, b.Author),
			cmp.Compare(a.Published, b.Published),
			cmp.Compare(a.ID, b.ID),
		)
	})

	var members []string
	for _, e := range entries {
		if len(members) == 0 || members[len(members)-1] != e.Author {
			members = append(members, e.Author)
		}
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(header{
		Version:    "1",
		Type:       "header",
		Timestamp:  time.Now().UTC(),
		EntryCount: len(entries),
		Members:    members,
	}); err != nil {
		return 0, fmt.Errorf("encode header: %w", err)
	}

	for _, e := range entries {
		line := entryLine{ID: e.ID, Author: e.Author, Published: e.Published, Entry: json.RawMessage(e.Data)}
		if !json.Valid(line.Entry) {
			return 0, fmt.Errorf("entry %s: stored data is not valid JSON", e.ID)
		}
		if err := enc.Encode(record{Type: "entry", Data: line}); err != nil {
			return 0, fmt.Errorf("encode entry %s: %w", e.ID, err)
		}
	}

	return len(entries), nil
}
