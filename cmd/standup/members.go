package main

import (
	"fmt"
	"io"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/standup/internal/client"
	"github.com/alfredjeanlab/standup/internal/presence"
	"github.com/alfredjeanlab/standup/internal/ui"
)

var membersCmd = &cobra.Command{
	Use:     "members",
	Short:   "Show the polling state of each member",
	GroupID: "query",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.NewHTTPClient(serverURL, authToken)
		defer c.Close()

		members, err := c.Members(cmd.Context())
		if err != nil {
			return err
		}
		if filter := memberFilter(cmd); len(filter) > 0 {
			members = slices.DeleteFunc(members, func(m presence.Status) bool {
				return !slices.Contains(filter, m.Member)
			})
		}
		if jsonOutput {
			printJSON(cmd.OutOrStdout(), members)
			return nil
		}
		return printMembers(cmd.OutOrStdout(), members, time.Now())
	},
}

func printMembers(w io.Writer, members []presence.Status, now time.Time) error {
	if len(members) == 0 {
		fmt.Fprintln(w, ui.RenderMuted("no members polled yet"))
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "MEMBER\tLAST POLL\tPOLLS\tSTORED\tSTATUS")
	for _, m := range members {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n",
			m.Member, ago(now, m.LastPoll), m.Polls, m.Stored, memberState(m))
	}
	return tw.Flush()
}

func memberState(m presence.Status) string {
	switch {
	case m.Stale:
		return ui.RenderError("stale: " + m.LastError)
	case m.Failures > 0:
		return ui.RenderError(fmt.Sprintf("failing (%d): %s", m.Failures, m.LastError))
	}
	return "ok"
}

// ago renders the time since t, rounded to the second.
func ago(now, t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return now.Sub(t).Round(time.Second).String() + " ago"
}

func init() {
	membersCmd.Flags().StringSlice("member", nil, "only show these members (repeatable)")
}
