package store

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// probeStore records the maximum number of concurrent calls it observes.
type probeStore struct {
	active  atomic.Int32
	maxSeen atomic.Int32
	calls   atomic.Int32
}

func (p *probeStore) enter() func() {
	n := p.active.Add(1)
	for {
		m := p.maxSeen.Load()
		if n <= m || p.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}
	p.calls.Add(1)
	time.Sleep(time.Millisecond)
	return func() { p.active.Add(-1) }
}

func (p *probeStore) HasEntry(context.Context, string) (bool, error) {
	defer p.enter()()
	return false, nil
}

func (p *probeStore) SaveEntry(context.Context, string, string, int64, string) error {
	defer p.enter()()
	return nil
}

func (p *probeStore) LastPublished(context.Context, string) (*int64, error) {
	defer p.enter()()
	return nil, nil
}

func (p *probeStore) PublishedBetween(context.Context, string, int64, int64) ([]string, error) {
	defer p.enter()()
	return nil, nil
}

func (p *probeStore) ListEntries(context.Context) ([]StoredEntry, error) {
	defer p.enter()()
	return nil, nil
}

func (p *probeStore) Close() error {
	defer p.enter()()
	return nil
}

func TestSynchronized_SerializesCalls(t *testing.T) {
	probe := &probeStore{}
	s := NewSynchronized(probe)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.HasEntry(ctx, "id")
			_ = s.SaveEntry(ctx, "id", "alice", 1, "{}")
			_, _ = s.LastPublished(ctx, "alice")
			_, _ = s.PublishedBetween(ctx, "alice", 0, 10)
			_, _ = s.ListEntries(ctx)
		}()
	}
	wg.Wait()

	if got := probe.calls.Load(); got != 40 {
		t.Errorf("calls = %d, want 40", got)
	}
	if got := probe.maxSeen.Load(); got != 1 {
		t.Errorf("max concurrent calls = %d, want 1", got)
	}
}
