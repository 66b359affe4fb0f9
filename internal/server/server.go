// Package server exposes the activity query API over HTTP.
package server

import (
	"context"
	"log/slog"

	"github.com/alfredjeanlab/standup/internal/presence"
)

// ActivityQuerier renders stored activity for the window starting at since
// (UNIX seconds).
type ActivityQuerier interface {
	Activity(ctx context.Context, since int64) (map[string][]string, error)
}

// Roster reports the polling state of each member.
type Roster interface {
	Roster() []presence.Status
}

// ActivityServer serves the query API.
type ActivityServer struct {
	activity ActivityQuerier
	roster   Roster
	logger   *slog.Logger
}

// NewActivityServer returns a server answering queries with a.
func NewActivityServer(a ActivityQuerier, logger *slog.Logger) *ActivityServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &ActivityServer{activity: a, logger: logger}
}

// WithRoster enables GET /v1/members, served from r.
func (s *ActivityServer) WithRoster(r Roster) *ActivityServer {
	s.roster = r
	return s
}

// inputError indicates invalid user input.
// The HTTP layer maps this to 400.
type inputError string

func (e inputError) Error() string { return string(e) }
