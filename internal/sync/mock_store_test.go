package sync

import (
	"context"
	"sync"

	"github.com/alfredjeanlab/standup/internal/store"
)

// mockStore is a minimal in-memory store for sync tests.
type mockStore struct {
	mu      sync.Mutex
	entries []store.StoredEntry
	listErr error
}

func newMockStore(entries ...store.StoredEntry) *mockStore {
	return &mockStore{entries: entries}
}

func (m *mockStore) add(e store.StoredEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
}

func (m *mockStore) HasEntry(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.ID == id {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockStore) SaveEntry(_ context.Context, id, author string, published int64, data string) error {
	m.add(store.StoredEntry{ID: id, Author: author, Published: published, Data: data})
	return nil
}

func (m *mockStore) LastPublished(context.Context, string) (*int64, error) {
	return nil, nil
}

func (m *mockStore) PublishedBetween(context.Context, string, int64, int64) ([]string, error) {
	return nil, nil
}

func (m *mockStore) ListEntries(context.Context) ([]store.StoredEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	return append([]store.StoredEntry(nil), m.entries...), nil
}

func (m *mockStore) Close() error { return nil }
