package main

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/standup/internal/activity"
	"github.com/alfredjeanlab/standup/internal/client"
	"github.com/alfredjeanlab/standup/internal/convert"
)

var activityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Show each member's activity for a 24-hour window",
	Long: `Show each member's activity for the 24 hours starting at --since.

--since accepts a UNIX timestamp, a date (YYYY-MM-DD, local midnight), or an
RFC 3339 time. It defaults to 24 hours ago. --member narrows the output and
defaults to the active remote's member list.

Examples:
  standup activity
  standup activity --since 2024-03-01
  standup activity --member alice
  standup activity --local --config config.yaml`,
	GroupID: "query",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sinceFlag, _ := cmd.Flags().GetString("since")
		local, _ := cmd.Flags().GetBool("local")

		since, err := parseSince(sinceFlag, time.Now())
		if err != nil {
			return err
		}

		var result map[string][]string
		if local {
			result, err = localActivity(cmd.Context(), since)
		} else {
			c := client.NewHTTPClient(serverURL, authToken)
			defer c.Close()
			result, err = c.Activity(cmd.Context(), since)
		}
		if err != nil {
			return err
		}

		result = filterActivity(result, memberFilter(cmd))

		if jsonOutput {
			printJSON(cmd.OutOrStdout(), result)
			return nil
		}
		printActivity(cmd.OutOrStdout(), result)
		return nil
	},
}

// localActivity answers the query from the configured store instead of a
// server.
func localActivity(ctx context.Context, since int64) (map[string][]string, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	st, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	svc := activity.NewService(st, convert.New(cfg.Activity, slog.Default()), cfg.Members)
	return svc.Activity(ctx, since)
}

// parseSince resolves the --since flag relative to now.
func parseSince(s string, now time.Time) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return now.Unix() - activity.Window, nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	if t, err := time.ParseInLocation(time.DateOnly, s, now.Location()); err == nil {
		return t.Unix(), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.Unix(), nil
	}
	return 0, fmt.Errorf("invalid --since %q: want a UNIX timestamp, YYYY-MM-DD, or RFC 3339 time", s)
}

func init() {
	activityCmd.Flags().String("since", "", "start of the window (default 24h ago)")
	activityCmd.Flags().StringSlice("member", nil, "only show these members (repeatable)")
	activityCmd.Flags().Bool("local", false, "read the store named in --config instead of querying a server")
}
