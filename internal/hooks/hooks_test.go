package hooks

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alfredjeanlab/standup/internal/events"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestExecute(t *testing.T) {
	for _, tc := range []struct {
		name       string
		command    string
		env        map[string]string
		wantOutput string
		wantCode   int
		wantErr    bool
	}{
		{"Stdout", "echo hello", nil, "hello", 0, false},
		{"StderrFallback", "echo oops >&2", nil, "oops", 0, false},
		{"Env", `printf '%s' "$STANDUP_TOPIC"`, map[string]string{"STANDUP_TOPIC": "standup.round.completed"}, "standup.round.completed", 0, false},
		{"ExitCode", "echo failing; exit 3", nil, "failing", 3, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			res := Execute(context.Background(), tc.command, 0, tc.env)
			if (res.Err != nil) != tc.wantErr {
				t.Fatalf("err = %v, wantErr %v", res.Err, tc.wantErr)
			}
			if res.Output != tc.wantOutput {
				t.Errorf("output = %q, want %q", res.Output, tc.wantOutput)
			}
			if res.ExitCode != tc.wantCode {
				t.Errorf("exit code = %d, want %d", res.ExitCode, tc.wantCode)
			}
		})
	}
}

func TestExecute_Timeout(t *testing.T) {
	start := time.Now()
	res := Execute(context.Background(), "sleep 10", 1, nil)
	if res.Err == nil {
		t.Fatal("expected timeout error")
	}
	if res.ExitCode != -1 {
		t.Errorf("exit code = %d, want -1", res.ExitCode)
	}
	if elapsed := time.Since(start); elapsed > 8*time.Second {
		t.Errorf("timeout not enforced, took %s", elapsed)
	}
}

func TestHookValidate(t *testing.T) {
	for _, tc := range []struct {
		name    string
		hook    Hook
		wantErr string
	}{
		{"Valid", Hook{Topic: events.TopicRoundCompleted, Command: "true"}, ""},
		{"UnknownTopic", Hook{Topic: "standup.nope", Command: "true"}, "unknown topic"},
		{"Wildcard", Hook{Topic: events.TopicAll, Command: "true"}, "unknown topic"},
		{"NoCommand", Hook{Topic: events.TopicMemberStale}, "command is required"},
		{"NegativeTimeout", Hook{Topic: events.TopicEntryStored, Command: "true", Timeout: -1}, "timeout"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.hook.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("err = %v, want %q", err, tc.wantErr)
			}
		})
	}
}

// recordingPublisher captures forwarded topics.
type recordingPublisher struct {
	topics []string
	err    error
	closed bool
}

func (r *recordingPublisher) Publish(_ context.Context, topic string, _ any) error {
	r.topics = append(r.topics, topic)
	return r.err
}

func (r *recordingPublisher) Close() error {
	r.closed = true
	return nil
}

func TestPublisher_RunsHooksForTopic(t *testing.T) {
	out := filepath.Join(t.TempDir(), "event.json")
	next := &recordingPublisher{}
	p := NewPublisher(next, []Hook{
		{Topic: events.TopicMemberStale, Command: `printf '%s' "$STANDUP_EVENT" > ` + out},
	}, discardLogger())

	ev := events.MemberStale{Member: "carol", LastError: "HTTP 401"}
	if err := p.Publish(context.Background(), events.TopicMemberStale, ev); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("hook did not run: %v", err)
	}
	var got events.MemberStale
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("hook saw %q: %v", data, err)
	}
	if got != ev {
		t.Errorf("hook event = %+v, want %+v", got, ev)
	}
	if len(next.topics) != 1 || next.topics[0] != events.TopicMemberStale {
		t.Errorf("forwarded = %v", next.topics)
	}
}

func TestPublisher_OtherTopicsSkipHooks(t *testing.T) {
	out := filepath.Join(t.TempDir(), "ran")
	p := NewPublisher(&recordingPublisher{}, []Hook{
		{Topic: events.TopicRoundCompleted, Command: "touch " + out},
	}, discardLogger())

	if err := p.Publish(context.Background(), events.TopicEntryStored, events.EntryStored{Member: "alice"}); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(out); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("hook ran for the wrong topic (stat err = %v)", err)
	}
}

func TestPublisher_Errors(t *testing.T) {
	out := filepath.Join(t.TempDir(), "ran")
	next := &recordingPublisher{err: errors.New("nats: connection closed")}
	p := NewPublisher(next, []Hook{
		{Topic: events.TopicRoundCompleted, Command: "exit 1"},
		{Topic: events.TopicRoundCompleted, Command: "touch " + out},
	}, discardLogger())

	err := p.Publish(context.Background(), events.TopicRoundCompleted, events.RoundCompleted{RoundID: "r-1"})
	if err == nil || !strings.Contains(err.Error(), "connection closed") {
		t.Errorf("err = %v, want the forwarding error", err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Errorf("hooks should still run after a forwarding error and a failed hook: %v", err)
	}

	if err := p.Close(); err != nil {
		t.Fatal(err)
	}
	if !next.closed {
		t.Error("Close not forwarded")
	}
}

func TestPublisher_NilNext(t *testing.T) {
	p := NewPublisher(nil, nil, nil)
	if err := p.Publish(context.Background(), events.TopicEntryStored, events.EntryStored{}); err != nil {
		t.Fatal(err)
	}
	if err := p.Close(); err != nil {
		t.Fatal(err)
	}
}
