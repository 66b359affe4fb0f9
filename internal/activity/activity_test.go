package activity

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"

	"github.com/alfredjeanlab/standup/internal/convert"
	"github.com/alfredjeanlab/standup/internal/entity"
	"github.com/alfredjeanlab/standup/internal/store"
)

type rangeCall struct {
	author     string
	start, end int64
}

// mockStore serves canned serialized entries per author.
type mockStore struct {
	data  map[string][]string
	err   error
	calls []rangeCall
}

func (m *mockStore) HasEntry(context.Context, string) (bool, error) { return false, nil }

func (m *mockStore) SaveEntry(context.Context, string, string, int64, string) error { return nil }

func (m *mockStore) LastPublished(context.Context, string) (*int64, error) { return nil, nil }

func (m *mockStore) PublishedBetween(_ context.Context, author string, start, end int64) ([]string, error) {
	m.calls = append(m.calls, rangeCall{author, start, end})
	if m.err != nil {
		return nil, m.err
	}
	return m.data[author], nil
}

func (m *mockStore) ListEntries(context.Context) ([]store.StoredEntry, error) { return nil, nil }

func (m *mockStore) Close() error { return nil }

func storedEntry(t *testing.T, id, target string, verbs ...string) string {
	t.Helper()
	e := entity.Entry{
		Author:         entity.Person{Name: "Alice", Email: "a@x", URI: "u", Photo: "p", Username: "alice"},
		Target:         entity.Issue{ID: "urn:" + target, Title: target, Summary: "s", Alternate: "https://x/" + target},
		Verbs:          verbs,
		Alternate:      "https://x/" + id,
		Application:    "jira",
		ID:             id,
		Published:      "2024-03-01T09:30:00Z",
		TimezoneOffset: "+0000",
		Title:          id,
		Updated:        "2024-03-01T09:30:00Z",
	}
	data, err := entity.Marshal(e)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}

func testConverter() *convert.Converter {
	return convert.New(convert.Rules{
		Activities: []convert.ActivityRule{
			{Key: "commented", Verbs: []string{"post"}, Group: convert.TargetIssue},
			{Key: "updated", Verbs: []string{"update"}, Group: convert.TargetIssue},
		},
		Messages: map[string][]string{
			"commented": {"commented"},
			"updated":   {"updated"},
		},
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestActivity(t *testing.T) {
	ms := &mockStore{data: map[string][]string{
		"alice": {
			storedEntry(t, "e1", "Fix bug", "post"),
			storedEntry(t, "e2", "Fix bug", "update"),
			storedEntry(t, "e3", "Add feature", "update"),
		},
		"bob": {
			storedEntry(t, "e4", "Other", "share"),
		},
	}}
	svc := NewService(ms, testConverter(), []string{"alice", "bob", "carol"})

	got, err := svc.Activity(context.Background(), 1709251200)
	if err != nil {
		t.Fatalf("Activity: %v", err)
	}
	want := map[string][]string{
		"alice": {"commented, updated - Fix bug", "updated - Add feature"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Activity = %v, want %v", got, want)
	}

	for _, c := range ms.calls {
		if c.start != 1709251200 || c.end != 1709251200+86400 {
			t.Errorf("range for %s = [%d, %d)", c.author, c.start, c.end)
		}
	}
	if len(ms.calls) != 3 {
		t.Errorf("got %d range queries, want 3", len(ms.calls))
	}
}

func TestActivity_StoreError(t *testing.T) {
	dbErr := errors.New("database is locked")
	svc := NewService(&mockStore{err: dbErr}, testConverter(), []string{"alice"})

	if _, err := svc.Activity(context.Background(), 0); !errors.Is(err, dbErr) {
		t.Fatalf("error = %v, want %v", err, dbErr)
	}
}

func TestActivity_CorruptEntry(t *testing.T) {
	ms := &mockStore{data: map[string][]string{"alice": {"{not json"}}}
	svc := NewService(ms, testConverter(), []string{"alice"})

	if _, err := svc.Activity(context.Background(), 0); err == nil {
		t.Fatal("expected error for a corrupt stored entry")
	}
}

func TestStatusLine(t *testing.T) {
	got := StatusLine(convert.Group{Name: "PROJ-1", Messages: []string{"a", "b", "c"}})
	if got != "a, b, c - PROJ-1" {
		t.Errorf("StatusLine = %q", got)
	}
}
