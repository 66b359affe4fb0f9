package hooks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/alfredjeanlab/standup/internal/events"
)

// Hook is a command to run for every event on Topic. The command sees the
// topic in STANDUP_TOPIC and the event as JSON in STANDUP_EVENT.
type Hook struct {
	Topic   string `yaml:"topic"`
	Command string `yaml:"command"`
	Timeout int    `yaml:"timeout"` // seconds, 0 = DefaultTimeout
}

// Validate checks that h names a known topic and a command.
func (h Hook) Validate() error {
	switch h.Topic {
	case events.TopicEntryStored, events.TopicRoundCompleted, events.TopicMemberStale:
	default:
		return fmt.Errorf("unknown topic %q", h.Topic)
	}
	if h.Command == "" {
		return fmt.Errorf("%s: command is required", h.Topic)
	}
	if h.Timeout < 0 {
		return fmt.Errorf("%s: timeout must not be negative", h.Topic)
	}
	return nil
}

// Publisher forwards events to another publisher and then runs the hooks
// configured for the event's topic. Hooks run synchronously; a failing hook
// is logged and never fails the publish.
type Publisher struct {
	next   events.Publisher
	hooks  map[string][]Hook
	logger *slog.Logger
}

var _ events.Publisher = (*Publisher)(nil)

// NewPublisher wraps next. A nil next drops events but still runs hooks.
func NewPublisher(next events.Publisher, hooks []Hook, logger *slog.Logger) *Publisher {
	if next == nil {
		next = events.NoopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	byTopic := make(map[string][]Hook)
	for _, h := range hooks {
		byTopic[h.Topic] = append(byTopic[h.Topic], h)
	}
	return &Publisher{next: next, hooks: byTopic, logger: logger}
}

func (p *Publisher) Publish(ctx context.Context, topic string, event any) error {
	err := p.next.Publish(ctx, topic, event)
	p.run(ctx, topic, event)
	return err
}

func (p *Publisher) Close() error {
	return p.next.Close()
}

func (p *Publisher) run(ctx context.Context, topic string, event any) {
	hooks := p.hooks[topic]
	if len(hooks) == 0 {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		p.logger.Warn("hooks: marshal event", "topic", topic, "err", err)
		return
	}
	env := map[string]string{
		"STANDUP_TOPIC": topic,
		"STANDUP_EVENT": string(data),
	}
	for _, h := range hooks {
		res := Execute(ctx, h.Command, h.Timeout, env)
		if res.Err != nil {
			p.logger.Warn("hooks: command failed",
				"topic", topic, "command", h.Command, "exit_code", res.ExitCode, "output", res.Output, "err", res.Err)
			continue
		}
		p.logger.Debug("hooks: command ran", "topic", topic, "command", h.Command, "output", res.Output)
	}
}
