// Package worker polls the activity stream for every member and stores
// entries it has not seen before.
package worker

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alfredjeanlab/standup/internal/entity"
	"github.com/alfredjeanlab/standup/internal/events"
	"github.com/alfredjeanlab/standup/internal/idgen"
	"github.com/alfredjeanlab/standup/internal/observability"
	"github.com/alfredjeanlab/standup/internal/store"
)

// PublishedLayout is the part of an entry's published timestamp that is
// parsed; anything after the seconds is ignored and the time is taken as UTC.
const PublishedLayout = "2006-01-02T15:04:05"

// Fetcher queries the remote feed for one member.
type Fetcher interface {
	Query(ctx context.Context, member string) ([]byte, error)
	QueryAfter(ctx context.Context, member string, afterMillis int64) ([]byte, error)
}

// PollRecorder receives the outcome of every member poll.
type PollRecorder interface {
	RecordPoll(member string, stored int, err error)
}

// Config controls what the worker polls and how often.
type Config struct {
	Members  []string
	Interval time.Duration

	// Recorder, if set, is told about each member poll.
	Recorder PollRecorder
}

// RoundResult summarizes one polling round.
type RoundResult struct {
	RoundID string        `json:"round_id"`
	Stored  int           `json:"stored"`
	Failed  []string      `json:"failed,omitempty"`
	Elapsed time.Duration `json:"elapsed_ns"`
}

// Worker runs polling rounds, one at a time.
type Worker struct {
	cfg       Config
	store     store.Store
	fetcher   Fetcher
	publisher events.Publisher
	logger    *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a worker. A nil publisher drops events; a nil logger uses
// slog.Default.
func New(cfg Config, s store.Store, f Fetcher, p events.Publisher, logger *slog.Logger) *Worker {
	if p == nil {
		p = events.NoopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		cfg:       cfg,
		store:     s,
		fetcher:   f,
		publisher: p,
		logger:    logger,
	}
}

// Start runs the polling loop in the background until Stop is called.
func (w *Worker) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.Run(ctx)
	}()
}

// Stop ends the polling loop and waits for a round in progress to finish.
func (w *Worker) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}

// Run polls until ctx is cancelled. After each round it sleeps for what is
// left of the interval; a round that overruns the interval is followed
// immediately by the next one. Cancellation never interrupts a round.
func (w *Worker) Run(ctx context.Context) {
	w.logger.Info("worker started", "members", len(w.cfg.Members), "interval", w.cfg.Interval)
	defer w.logger.Info("worker stopped")

	for {
		result := w.RunOnce(context.WithoutCancel(ctx))

		wait := w.cfg.Interval - result.Elapsed
		if wait <= 0 {
			if ctx.Err() != nil {
				return
			}
			continue
		}
		w.logger.Debug("worker sleeping", "round_id", result.RoundID, "wait", wait)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// RunOnce polls every member once. A failing member is logged and skipped.
func (w *Worker) RunOnce(ctx context.Context) RoundResult {
	start := time.Now()
	result := RoundResult{RoundID: idgen.RoundID()}
	logger := w.logger.With("round_id", result.RoundID)

	for _, member := range w.cfg.Members {
		stored, err := w.pollMember(ctx, logger.With("member", member), result.RoundID, member)
		result.Stored += stored
		if w.cfg.Recorder != nil {
			w.cfg.Recorder.RecordPoll(member, stored, err)
		}
		if err != nil {
			logger.Warn("failed to update activity", "member", member, "err", err)
			result.Failed = append(result.Failed, member)
		}
	}

	result.Elapsed = time.Since(start)
	finished := time.Now()
	observability.RecordRound(finished, result.Elapsed)
	logger.Info("worker round complete", "stored", result.Stored, "failed", len(result.Failed), "elapsed", result.Elapsed)

	w.publish(ctx, logger, events.TopicRoundCompleted, events.RoundCompleted{
		RoundID:    result.RoundID,
		Members:    len(w.cfg.Members),
		Stored:     result.Stored,
		Failed:     result.Failed,
		DurationMS: result.Elapsed.Milliseconds(),
		FinishedAt: finished.UTC(),
	})
	return result
}

func (w *Worker) pollMember(ctx context.Context, logger *slog.Logger, roundID, member string) (int, error) {
	cursor, err := w.store.LastPublished(ctx, member)
	if err != nil {
		observability.RecordMemberFailure(member, observability.StageCursor)
		return 0, fmt.Errorf("read cursor: %w", err)
	}

	var body []byte
	if cursor == nil {
		logger.Debug("query all activity")
		body, err = w.fetcher.Query(ctx, member)
	} else {
		after := (*cursor - int64(w.cfg.Interval/time.Second)) * 1000
		logger.Debug("query activity", "after_ms", after)
		body, err = w.fetcher.QueryAfter(ctx, member, after)
	}
	if err != nil {
		observability.RecordMemberFailure(member, observability.StageQuery)
		return 0, err
	}

	feed, err := entity.Read(bytes.NewReader(body))
	if err != nil {
		observability.RecordMemberFailure(member, observability.StageParse)
		return 0, fmt.Errorf("read feed: %w", err)
	}

	stored := 0
	for i := range feed.Entries {
		e := &feed.Entries[i]
		ok, err := w.storeEntry(ctx, logger, roundID, member, e)
		if err != nil {
			observability.RecordMemberFailure(member, observability.StageEntry)
			logger.Warn("failed to store entry", "entry_id", e.ID, "err", err)
			continue
		}
		if ok {
			stored++
		}
	}
	return stored, nil
}

// storeEntry persists e unless an entry with its ID is already stored. It
// reports whether the entry was new.
func (w *Worker) storeEntry(ctx context.Context, logger *slog.Logger, roundID, member string, e *entity.Entry) (bool, error) {
	exists, err := w.store.HasEntry(ctx, e.ID)
	if err != nil {
		return false, fmt.Errorf("check entry: %w", err)
	}
	if exists {
		return false, nil
	}

	published, err := ParsePublished(e.Published)
	if err != nil {
		return false, err
	}
	data, err := entity.Marshal(*e)
	if err != nil {
		return false, fmt.Errorf("serialize entry: %w", err)
	}
	if err := w.store.SaveEntry(ctx, e.ID, member, published, data); err != nil {
		return false, err
	}

	logger.Debug("entry stored", "entry_id", e.ID, "published", published)
	observability.RecordEntryStored(member)
	w.publish(ctx, logger, events.TopicEntryStored, events.EntryStored{
		RoundID:     roundID,
		Member:      member,
		EntryID:     e.ID,
		Title:       e.Title,
		Application: e.Application,
		Published:   published,
	})
	return true, nil
}

func (w *Worker) publish(ctx context.Context, logger *slog.Logger, topic string, event any) {
	if err := w.publisher.Publish(ctx, topic, event); err != nil {
		logger.Warn("failed to publish event", "topic", topic, "err", err)
	}
}

// ParsePublished converts a published timestamp to UNIX seconds. Only the
// leading date and time are read.
func ParsePublished(s string) (int64, error) {
	if len(s) > len(PublishedLayout) {
		s = s[:len(PublishedLayout)]
	}
	t, err := time.ParseInLocation(PublishedLayout, s, time.UTC)
	if err != nil {
		return 0, fmt.Errorf("parse published: %w", err)
	}
	return t.Unix(), nil
}
