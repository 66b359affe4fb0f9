package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/standup/internal/stream"
	"github.com/alfredjeanlab/standup/internal/worker"
)

var pollCmd = &cobra.Command{
	Use:     "poll",
	Short:   "Run a single polling round and exit",
	GroupID: "system",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		members, _ := cmd.Flags().GetStringSlice("member")
		if len(members) == 0 {
			members = cfg.Members
		}

		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		feed, err := stream.New(cfg.StreamConfig(), slog.Default())
		if err != nil {
			return err
		}

		publisher := newPublisher(cfg, slog.Default())
		defer publisher.Close()

		w := worker.New(worker.Config{Members: members, Interval: cfg.Interval()}, st, feed, publisher, slog.Default())
		result := w.RunOnce(context.Background())

		if jsonOutput {
			printJSON(cmd.OutOrStdout(), result)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "round %s: stored %d new entries in %s\n",
				result.RoundID, result.Stored, result.Elapsed.Round(time.Millisecond))
			if len(result.Failed) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "failed: %s\n", strings.Join(result.Failed, ", "))
			}
		}
		if len(result.Failed) > 0 {
			return fmt.Errorf("%d of %d members failed", len(result.Failed), len(members))
		}
		return nil
	},
}

func init() {
	pollCmd.Flags().StringSlice("member", nil, "poll only these members (repeatable)")
}
