// Package presence keeps an in-memory roster of each member's polling
// state.
//
// The worker reports the outcome of every member poll through RecordPoll.
// A background reaper marks members stale when they have gone without a
// successful poll for longer than a threshold, which usually means the
// remote feed has been rejecting them for a while.
package presence

import (
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"
)

// Status is a snapshot of one member's polling state.
type Status struct {
	Member      string    `json:"member"`
	LastPoll    time.Time `json:"last_poll"`
	LastSuccess time.Time `json:"last_success,omitzero"`
	LastError   string    `json:"last_error,omitempty"`
	Polls       int64     `json:"polls"`
	Failures    int64     `json:"failures"`               // consecutive failed polls
	Stored      int64     `json:"stored"`                 // entries stored since start
	Stale       bool      `json:"stale,omitempty"`        // true if the reaper flagged the member
	StaleSince  time.Time `json:"stale_since,omitzero"`
}

// ReaperConfig configures the background staleness sweep.
type ReaperConfig struct {
	// StaleAfter is how long a member may go without a successful poll.
	// Default: 3 hours.
	StaleAfter time.Duration

	// SweepInterval is how often the reaper scans the roster.
	// Default: 60 seconds.
	SweepInterval time.Duration

	// OnStale is called for each member newly marked stale, outside the lock.
	OnStale func(member string, lastErr string)
}

// Tracker maintains the roster. It is safe for concurrent use.
type Tracker struct {
	mu      sync.RWMutex
	members map[string]*memberState
	started time.Time
	now     func() time.Time

	reaperStop chan struct{}
	reaperDone chan struct{}
}

type memberState struct {
	lastPoll    time.Time
	lastSuccess time.Time
	lastError   string
	polls       int64
	failures    int64
	stored      int64
	stale       bool
	staleSince  time.Time
}

// New creates an empty tracker.
func New() *Tracker {
	return &Tracker{
		members: make(map[string]*memberState),
		started: time.Now(),
		now:     time.Now,
	}
}

// RecordPoll updates member's state with the outcome of one poll.
func (t *Tracker) RecordPoll(member string, stored int, err error) {
	if member == "" {
		return
	}

	now := t.now()
	t.mu.Lock()
	defer t.mu.Unlock()

	state, ok := t.members[member]
	if !ok {
		state = &memberState{}
		t.members[member] = state
	}

	state.lastPoll = now
	state.polls++
	if err != nil {
		state.failures++
		state.lastError = err.Error()
		return
	}

	if state.stale {
		slog.Info("presence: member recovered", "member", member)
		state.stale = false
		state.staleSince = time.Time{}
	}
	state.lastSuccess = now
	state.lastError = ""
	state.failures = 0
	state.stored += int64(stored)
}

// Roster returns a snapshot of every member polled so far, in name order.
func (t *Tracker) Roster() []Status {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Status, 0, len(t.members))
	for member, state := range t.members {
		out = append(out, Status{
			Member:      member,
			LastPoll:    state.lastPoll,
			LastSuccess: state.lastSuccess,
			LastError:   state.lastError,
			Polls:       state.polls,
			Failures:    state.failures,
			Stored:      state.stored,
			Stale:       state.stale,
			StaleSince:  state.staleSince,
		})
	}
	slices.SortFunc(out, func(a, b Status) int { return strings.Compare(a.Member, b.Member) })
	return out
}

// StartReaper launches a goroutine that periodically flags stale members.
// Call Stop to shut it down.
func (t *Tracker) StartReaper(cfg *ReaperConfig) {
	if cfg == nil {
		cfg = &ReaperConfig{}
	}
	if cfg.StaleAfter == 0 {
		cfg.StaleAfter = 3 * time.Hour
	}
	if cfg.SweepInterval == 0 {
		cfg.SweepInterval = 60 * time.Second
	}

	t.reaperStop = make(chan struct{})
	t.reaperDone = make(chan struct{})

	go t.reapLoop(cfg)
	slog.Info("presence: reaper started",
		"stale_after", cfg.StaleAfter,
		"sweep_interval", cfg.SweepInterval)
}

// Stop shuts down the reaper goroutine.
func (t *Tracker) Stop() {
	if t.reaperStop != nil {
		close(t.reaperStop)
		<-t.reaperDone
		t.reaperStop = nil
		t.reaperDone = nil
	}
}

func (t *Tracker) reapLoop(cfg *ReaperConfig) {
	defer close(t.reaperDone)

	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-t.reaperStop:
			return
		case <-ticker.C:
			t.sweep(cfg)
		}
	}
}

func (t *Tracker) sweep(cfg *ReaperConfig) {
	now := t.now()

	type staleMember struct {
		name    string
		lastErr string
	}
	var newlyStale []staleMember

	t.mu.Lock()
	for member, state := range t.members {
		if state.stale {
			continue
		}
		// Members that never succeeded count from tracker start.
		since := state.lastSuccess
		if since.IsZero() {
			since = t.started
		}
		if now.Sub(since) > cfg.StaleAfter {
			state.stale = true
			state.staleSince = now
			newlyStale = append(newlyStale, staleMember{name: member, lastErr: state.lastError})
		}
	}
	t.mu.Unlock()

	for _, m := range newlyStale {
		slog.Warn("presence: member stale",
			"member", m.name,
			"threshold", cfg.StaleAfter,
			"last_error", m.lastErr)
		if cfg.OnStale != nil {
			cfg.OnStale(m.name, m.lastErr)
		}
	}
}
