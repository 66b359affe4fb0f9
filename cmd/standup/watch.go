package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/standup/internal/events"
	"github.com/alfredjeanlab/standup/internal/ui"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream poller events from NATS",
	Long: `Subscribe to the events a standup server publishes and print them as
they arrive. Requires the server to run with nats_url set.

Examples:
  standup watch --nats nats://localhost:4222
  standup watch --member alice --member bob`,
	GroupID: "query",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		natsURL, _ := cmd.Flags().GetString("nats")
		members := memberFilter(cmd)
		if natsURL == "" {
			return fmt.Errorf("no NATS URL: pass --nats, set STANDUP_NATS_URL, or add one to the active remote")
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		sub, err := events.NewNATSSubscriber(natsURL,
			nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
				slog.Warn("nats: disconnected", "err", err)
			}),
			nats.ReconnectHandler(func(_ *nats.Conn) {
				slog.Info("nats: reconnected")
			}),
		)
		if err != nil {
			return err
		}
		defer sub.Close()

		return watchEvents(ctx, sub, cmd.OutOrStdout(), members)
	},
}

// watchEvents prints every standup event until ctx is done or the
// subscription closes.
func watchEvents(ctx context.Context, sub events.Subscriber, w io.Writer, members []string) error {
	ch, cancel, err := sub.Subscribe(events.TopicAll)
	if err != nil {
		return fmt.Errorf("subscribing to events: %w", err)
	}
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			line, show := formatEvent(msg, members)
			if !show {
				continue
			}
			if jsonOutput {
				fmt.Fprintf(w, "{\"topic\":%q,\"data\":%s}\n", msg.Topic, msg.Data)
				continue
			}
			fmt.Fprintln(w, line)
		}
	}
}

// formatEvent renders msg as one line. It reports false for events of
// members outside the filter and for payloads it cannot decode.
func formatEvent(msg events.Message, members []string) (string, bool) {
	switch msg.Topic {
	case events.TopicEntryStored:
		var e events.EntryStored
		if err := json.Unmarshal(msg.Data, &e); err != nil {
			slog.Debug("undecodable event", "topic", msg.Topic, "err", err)
			return "", false
		}
		if len(members) > 0 && !slices.Contains(members, e.Member) {
			return "", false
		}
		published := time.Unix(e.Published, 0).UTC().Format(time.DateTime)
		return fmt.Sprintf("%s %s %s %s",
			ui.RenderMuted(published), ui.RenderMember(e.Member), e.Title, ui.RenderMuted("("+e.Application+")")), true

	case events.TopicRoundCompleted:
		var r events.RoundCompleted
		if err := json.Unmarshal(msg.Data, &r); err != nil {
			slog.Debug("undecodable event", "topic", msg.Topic, "err", err)
			return "", false
		}
		line := fmt.Sprintf("round %s: %d members, %d stored in %dms", r.RoundID, r.Members, r.Stored, r.DurationMS)
		if len(r.Failed) > 0 {
			line += ui.RenderError(" failed: " + strings.Join(r.Failed, ", "))
		}
		return ui.RenderMuted(line), true

	case events.TopicMemberStale:
		var m events.MemberStale
		if err := json.Unmarshal(msg.Data, &m); err != nil {
			slog.Debug("undecodable event", "topic", msg.Topic, "err", err)
			return "", false
		}
		if len(members) > 0 && !slices.Contains(members, m.Member) {
			return "", false
		}
		return ui.RenderError(fmt.Sprintf("%s is stale: %s", m.Member, m.LastError)), true
	}
	return "", false
}

func init() {
	watchCmd.Flags().String("nats", defaultNATSURL(), "NATS server URL")
	watchCmd.Flags().StringSlice("member", nil, "only show entries of these members (repeatable)")
}

func defaultNATSURL() string {
	if u := os.Getenv("STANDUP_NATS_URL"); u != "" {
		return u
	}
	return activeRemoteNATSURL()
}
