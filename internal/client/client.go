// Package client provides a transport-agnostic interface for the standup
// query API and an HTTP/JSON implementation of it.
package client

import (
	"context"

	"github.com/alfredjeanlab/standup/internal/presence"
)

// ActivityClient is the interface the CLI uses to query a standup server.
type ActivityClient interface {
	// Activity returns each member's status lines for the 24 hours starting
	// at since (UNIX seconds).
	Activity(ctx context.Context, since int64) (map[string][]string, error)

	// Members returns the server's per-member polling state.
	Members(ctx context.Context) ([]presence.Status, error)

	// Health
	Health(ctx context.Context) (string, error)

	// Lifecycle
	Close() error
}
