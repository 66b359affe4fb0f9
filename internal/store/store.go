package store

import (
	"context"
	"sync"
)

// StoredEntry is one persisted entry row. Data is the serialized entry.
type StoredEntry struct {
	ID        string `json:"id"`
	Author    string `json:"author"`
	Published int64  `json:"published"`
	Data      string `json:"data"`
}

// Store defines the persistence interface for feed entries. Timestamps are
// UNIX seconds.
type Store interface {
	HasEntry(ctx context.Context, id string) (bool, error)
	SaveEntry(ctx context.Context, id, author string, published int64, data string) error

	// LastPublished returns the newest published time stored for author, or
	// nil when the author has no entries.
	LastPublished(ctx context.Context, author string) (*int64, error)

	// PublishedBetween returns the serialized entries of author published in
	// [start, end), oldest first.
	PublishedBetween(ctx context.Context, author string, start, end int64) ([]string, error)

	// ListEntries returns every stored entry, for export.
	ListEntries(ctx context.Context) ([]StoredEntry, error)

	Close() error
}

// Synchronized serializes every call to the wrapped Store behind one mutex.
type Synchronized struct {
	mu    sync.Mutex
	inner Store
}

var _ Store = (*Synchronized)(nil)

// NewSynchronized wraps s so that at most one call runs at a time.
func NewSynchronized(s Store) *Synchronized {
	return &Synchronized{inner: s}
}

func (s *Synchronized) HasEntry(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.HasEntry(ctx, id)
}

func (s *Synchronized) SaveEntry(ctx context.Context, id, author string, published int64, data string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.SaveEntry(ctx, id, author, published, data)
}

func (s *Synchronized) LastPublished(ctx context.Context, author string) (*int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.LastPublished(ctx, author)
}

func (s *Synchronized) PublishedBetween(ctx context.Context, author string, start, end int64) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.PublishedBetween(ctx, author, start, end)
}

func (s *Synchronized) ListEntries(ctx context.Context) ([]StoredEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.ListEntries(ctx)
}

func (s *Synchronized) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.Close()
}
