// Package sync periodically exports stored entries as JSONL to backup
// destinations.
package sync

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/alfredjeanlab/standup/internal/store"
)

// Destination is the interface for a sync target (S3, git, etc.).
type Destination interface {
	// Write sends the JSONL payload to the destination.
	Write(ctx context.Context, data []byte) error
}

// Scheduler runs periodic syncs to one or more destinations.
type Scheduler struct {
	store        store.Store
	destinations []Destination
	interval     time.Duration
	logger       *slog.Logger

	// synced is the entry count of the last export every destination
	// accepted, or -1 before the first one. Entries are never updated or
	// deleted, so an unchanged count means an unchanged export.
	synced int

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a scheduler that exports from the store to the given
// destinations at the specified interval.
func NewScheduler(s store.Store, destinations []Destination, interval time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		store:        s,
		destinations: destinations,
		interval:     interval,
		logger:       logger,
		synced:       -1,
	}
}

// Start begins periodic sync. It runs an initial sync immediately, then
// on each tick.
func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx)
	}()
}

// Stop cancels the scheduler and waits for the current sync (if any) to finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Scheduler) run(ctx context.Context) {
	s.SyncOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SyncOnce(ctx)
		}
	}
}

// SyncOnce exports the store and writes it to every destination, unless
// nothing was stored since the last successful sync.
func (s *Scheduler) SyncOnce(ctx context.Context) {
	var buf bytes.Buffer
	n, err := ExportJSONL(ctx, s.store, &buf)
	if err != nil {
		s.logger.Error("sync export failed", "err", err)
		return
	}
	if n == s.synced {
		s.logger.Debug("sync skipped, no new entries", "entries", n)
		return
	}
	data := buf.Bytes()

	failed := 0
	for i, dest := range s.destinations {
		if err := dest.Write(ctx, data); err != nil {
			failed++
			s.logger.Error("sync destination write failed", "destination", i, "err", err)
		}
	}
	if failed == 0 {
		s.synced = n
	}

	s.logger.Info("sync completed",
		"destinations", len(s.destinations),
		"failed", failed,
		"entries", n,
		"bytes", len(data),
	)
}
