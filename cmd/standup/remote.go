package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/standup/internal/client"
	"github.com/alfredjeanlab/standup/internal/ui"
)

// remoteCheckTimeout bounds the health check run by "remote add".
const remoteCheckTimeout = 5 * time.Second

var remoteCmd = &cobra.Command{
	Use:   "remote",
	Short: "Manage the standup servers the query commands talk to",
	Long: `Manage the standup servers the query commands talk to.

The active remote supplies the defaults for --server, --token, and
watch --nats. Its member list becomes the default --member filter of
activity, members, and watch.`,
	GroupID: "system",
}

var remoteAddCmd = &cobra.Command{
	Use:   "add <name> <url>",
	Short: "Save a server after checking it answers /v1/health",
	Example: `  standup remote add prod https://standup.example.com --token $TOKEN
  standup remote add team http://10.0.0.5:8080 --member alice --member bob --use`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		r := Remote{Name: args[0], URL: strings.TrimRight(args[1], "/")}
		r.Token, _ = cmd.Flags().GetString("token")
		r.NATSURL, _ = cmd.Flags().GetString("nats")
		r.Members, _ = cmd.Flags().GetStringSlice("member")
		skipCheck, _ := cmd.Flags().GetBool("no-check")
		use, _ := cmd.Flags().GetBool("use")

		out := cmd.OutOrStdout()
		if !skipCheck {
			status, err := checkRemote(commandContext(cmd), r)
			if err != nil {
				return fmt.Errorf("remote %q not saved: %w (pass --no-check to save it anyway)", r.Name, err)
			}
			fmt.Fprintf(out, "%s: %s\n", r.URL, status)
		}

		f, err := readRemotes()
		if err != nil {
			return err
		}
		f.put(r)
		if use {
			f.Active = r.Name
		}
		if err := writeRemotes(f); err != nil {
			return err
		}
		fmt.Fprintf(out, "saved remote %q\n", r.Name)
		return nil
	},
}

var remoteRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Forget a saved server",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := readRemotes()
		if err != nil {
			return err
		}
		if !f.drop(args[0]) {
			return fmt.Errorf("no remote named %q", args[0])
		}
		if err := writeRemotes(f); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "removed remote %q\n", args[0])
		return nil
	},
}

var remoteUseCmd = &cobra.Command{
	Use:   "use <name>",
	Short: "Make a saved server the default for query commands",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := readRemotes()
		if err != nil {
			return err
		}
		if _, ok := f.lookup(args[0]); !ok {
			return fmt.Errorf("no remote named %q", args[0])
		}
		f.Active = args[0]
		if err := writeRemotes(f); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "query commands now use %q\n", args[0])
		return nil
	},
}

var remoteListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved servers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := readRemotes()
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(cmd.OutOrStdout(), remoteViews(f))
			return nil
		}
		return printRemotes(cmd.OutOrStdout(), f)
	},
}

// remoteView is the listing form of a remote. Tokens are never printed.
type remoteView struct {
	Name    string   `json:"name"`
	URL     string   `json:"url"`
	Active  bool     `json:"active"`
	Auth    bool     `json:"auth"`
	NATSURL string   `json:"nats_url,omitempty"`
	Members []string `json:"members,omitempty"`
}

func remoteViews(f remoteFile) []remoteView {
	views := make([]remoteView, 0, len(f.Remotes))
	for _, r := range f.Remotes {
		views = append(views, remoteView{
			Name:    r.Name,
			URL:     r.URL,
			Active:  r.Name == f.Active,
			Auth:    r.Token != "",
			NATSURL: r.NATSURL,
			Members: r.Members,
		})
	}
	return views
}

func printRemotes(w io.Writer, f remoteFile) error {
	if len(f.Remotes) == 0 {
		fmt.Fprintln(w, ui.RenderMuted("no remotes saved; add one with 'standup remote add <name> <url>'"))
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tURL\tAUTH\tNATS\tMEMBERS")
	for _, v := range remoteViews(f) {
		name := v.Name
		if v.Active {
			name += " (active)"
		}
		auth := "none"
		if v.Auth {
			auth = "token"
		}
		members := "all"
		if len(v.Members) > 0 {
			members = strings.Join(v.Members, ",")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", name, v.URL, auth, orDash(v.NATSURL), members)
	}
	return tw.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// checkRemote asks the server for its health status.
func checkRemote(ctx context.Context, r Remote) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, remoteCheckTimeout)
	defer cancel()

	c := client.NewHTTPClient(r.URL, r.Token)
	defer c.Close()
	return c.Health(ctx)
}

// commandContext returns the command's context, or Background when the
// command runs outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func init() {
	remoteAddCmd.Flags().String("token", "", "bearer token for the server")
	remoteAddCmd.Flags().String("nats", "", "NATS URL that watch subscribes to")
	remoteAddCmd.Flags().StringSlice("member", nil, "default member filter for query commands (repeatable)")
	remoteAddCmd.Flags().Bool("no-check", false, "save without checking /v1/health")
	remoteAddCmd.Flags().Bool("use", false, "also make it the active remote")

	remoteCmd.AddCommand(remoteAddCmd, remoteRemoveCmd, remoteUseCmd, remoteListCmd)
}
