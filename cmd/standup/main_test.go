package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/alfredjeanlab/standup/internal/events"
	"github.com/alfredjeanlab/standup/internal/presence"
	"github.com/alfredjeanlab/standup/internal/ui"
)

func TestMain(m *testing.M) {
	ui.ForceNoColor()
	os.Exit(m.Run())
}

func TestParseLevel(t *testing.T) {
	for _, tc := range []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"debug", slog.LevelDebug, false},
		{" INFO ", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", 0, true},
	} {
		got, err := parseLevel(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("parseLevel(%q) err = %v, wantErr %v", tc.in, err, tc.wantErr)
			continue
		}
		if got != tc.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseSince(t *testing.T) {
	now := time.Date(2024, 3, 2, 15, 30, 0, 0, time.UTC)

	for _, tc := range []struct {
		name    string
		in      string
		want    int64
		wantErr bool
	}{
		{"Default", "", now.Unix() - 86400, false},
		{"Unix", "1709251200", 1709251200, false},
		{"Date", "2024-03-01", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).Unix(), false},
		{"RFC3339", "2024-03-01T12:00:00+02:00", time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC).Unix(), false},
		{"Garbage", "yesterday", 0, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseSince(tc.in, now)
			if (err != nil) != tc.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tc.wantErr)
			}
			if got != tc.want {
				t.Errorf("parseSince(%q) = %d, want %d", tc.in, got, tc.want)
			}
		})
	}
}

func TestPrintActivity(t *testing.T) {
	var buf bytes.Buffer
	printActivity(&buf, map[string][]string{
		"bob":   {"Created page X - Confluence"},
		"alice": {"Committed to repo, Pushed to repo - repo", "Resolved PROJ-1 - Fix bug"},
	})

	want := "alice\n" +
		"  - Committed to repo, Pushed to repo - repo\n" +
		"  - Resolved PROJ-1 - Fix bug\n" +
		"\n" +
		"bob\n" +
		"  - Created page X - Confluence\n"
	if got := buf.String(); got != want {
		t.Errorf("output:\n%s\nwant:\n%s", got, want)
	}
}

func TestPrintActivity_Empty(t *testing.T) {
	var buf bytes.Buffer
	printActivity(&buf, map[string][]string{})
	if got := buf.String(); got != "no activity\n" {
		t.Errorf("output = %q", got)
	}
}

func mustMarshal(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestFormatEvent(t *testing.T) {
	stored := events.Message{
		Topic: events.TopicEntryStored,
		Data: mustMarshal(t, events.EntryStored{
			Member:      "alice",
			Title:       "alice committed to repo",
			Application: "com.example.git",
			Published:   time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC).Unix(),
		}),
	}
	round := events.Message{
		Topic: events.TopicRoundCompleted,
		Data: mustMarshal(t, events.RoundCompleted{
			RoundID: "r-1", Members: 3, Stored: 5, Failed: []string{"carol"}, DurationMS: 42,
		}),
	}

	for _, tc := range []struct {
		name     string
		msg      events.Message
		members  []string
		want     string
		wantShow bool
	}{
		{"Entry", stored, nil, "2024-03-01 09:00:00 alice alice committed to repo (com.example.git)", true},
		{"EntryFilteredIn", stored, []string{"alice"}, "2024-03-01 09:00:00 alice alice committed to repo (com.example.git)", true},
		{"EntryFilteredOut", stored, []string{"bob"}, "", false},
		{"Round", round, []string{"bob"}, "round r-1: 3 members, 5 stored in 42ms failed: carol", true},
		{"Stale", events.Message{Topic: events.TopicMemberStale, Data: mustMarshal(t, events.MemberStale{Member: "carol", LastError: "HTTP 401"})}, nil, "carol is stale: HTTP 401", true},
		{"StaleFilteredOut", events.Message{Topic: events.TopicMemberStale, Data: mustMarshal(t, events.MemberStale{Member: "carol"})}, []string{"alice"}, "", false},
		{"BadPayload", events.Message{Topic: events.TopicEntryStored, Data: []byte("{")}, nil, "", false},
		{"UnknownTopic", events.Message{Topic: "standup.other", Data: []byte("{}")}, nil, "", false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, show := formatEvent(tc.msg, tc.members)
			if show != tc.wantShow || got != tc.want {
				t.Errorf("formatEvent = (%q, %v), want (%q, %v)", got, show, tc.want, tc.wantShow)
			}
		})
	}
}

type fakeSubscriber struct {
	ch        chan events.Message
	topic     string
	cancelled bool
}

func (f *fakeSubscriber) Subscribe(topic string) (<-chan events.Message, func(), error) {
	f.topic = topic
	return f.ch, func() { f.cancelled = true }, nil
}

func (f *fakeSubscriber) Close() error { return nil }

func TestWatchEvents(t *testing.T) {
	sub := &fakeSubscriber{ch: make(chan events.Message, 3)}
	sub.ch <- events.Message{
		Topic: events.TopicEntryStored,
		Data:  mustMarshal(t, events.EntryStored{Member: "alice", Title: "t1", Application: "app", Published: 0}),
	}
	sub.ch <- events.Message{
		Topic: events.TopicEntryStored,
		Data:  mustMarshal(t, events.EntryStored{Member: "bob", Title: "t2", Application: "app", Published: 0}),
	}
	sub.ch <- events.Message{
		Topic: events.TopicRoundCompleted,
		Data:  mustMarshal(t, events.RoundCompleted{RoundID: "r-2", Members: 2, Stored: 2}),
	}
	close(sub.ch)

	var buf bytes.Buffer
	if err := watchEvents(context.Background(), sub, &buf, []string{"alice"}); err != nil {
		t.Fatal(err)
	}

	if sub.topic != events.TopicAll {
		t.Errorf("subscribed to %q, want %q", sub.topic, events.TopicAll)
	}
	if !sub.cancelled {
		t.Error("subscription was not cancelled")
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2:\n%s", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], "alice t1 (app)") {
		t.Errorf("line 0 = %q", lines[0])
	}
	if lines[1] != "round r-2: 2 members, 2 stored in 0ms" {
		t.Errorf("line 1 = %q", lines[1])
	}
}

func TestWatchEvents_ContextDone(t *testing.T) {
	sub := &fakeSubscriber{ch: make(chan events.Message)}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	if err := watchEvents(ctx, sub, &buf, nil); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 0 {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestPrintMembers(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	err := printMembers(&buf, []presence.Status{
		{Member: "alice", LastPoll: now.Add(-90 * time.Second), Polls: 4, Stored: 12},
		{Member: "bob", LastPoll: now.Add(-time.Hour), Polls: 4, Failures: 2, LastError: "HTTP 503"},
		{Member: "carol", Stale: true, LastError: "HTTP 401"},
	}, now)
	if err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines:\n%s", len(lines), buf.String())
	}
	for i, want := range [][]string{
		{"MEMBER", "STATUS"},
		{"alice", "1m30s ago", "ok"},
		{"bob", "1h0m0s ago", "failing (2): HTTP 503"},
		{"carol", "never", "stale: HTTP 401"},
	} {
		for _, w := range want {
			if !strings.Contains(lines[i], w) {
				t.Errorf("line %d = %q, missing %q", i, lines[i], w)
			}
		}
	}
}

func TestPrintMembers_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := printMembers(&buf, nil, time.Now()); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "no members polled yet\n" {
		t.Errorf("output = %q", got)
	}
}
