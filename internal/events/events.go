// Package events publishes poller activity to NATS so other processes can
// react to newly stored entries.
package events

import (
	"context"
	"time"
)

const (
	TopicEntryStored    = "standup.entry.stored"
	TopicRoundCompleted = "standup.round.completed"
	TopicMemberStale    = "standup.member.stale"

	// TopicAll matches every standup topic.
	TopicAll = "standup.>"
)

// EntryStored is published after a new entry is persisted.
type EntryStored struct {
	RoundID     string `json:"round_id"`
	Member      string `json:"member"`
	EntryID     string `json:"entry_id"`
	Title       string `json:"title"`
	Application string `json:"application"`
	Published   int64  `json:"published"`
}

// RoundCompleted is published at the end of every polling round.
type RoundCompleted struct {
	RoundID    string    `json:"round_id"`
	Members    int       `json:"members"`
	Stored     int       `json:"stored"`
	Failed     []string  `json:"failed,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	FinishedAt time.Time `json:"finished_at"`
}

// MemberStale is published when a member has gone too long without a
// successful poll.
type MemberStale struct {
	Member    string `json:"member"`
	LastError string `json:"last_error,omitempty"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}

// Message is a raw event as received from the bus.
type Message struct {
	Topic string
	Data  []byte
}

// Subscriber receives events from the event bus.
type Subscriber interface {
	// Subscribe delivers messages for topic (wildcards allowed) on the
	// returned channel. Call the returned cancel function to unsubscribe and
	// close the channel.
	Subscribe(topic string) (<-chan Message, func(), error)
	Close() error
}
