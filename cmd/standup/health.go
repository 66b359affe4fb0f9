package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/standup/internal/client"
)

var healthCmd = &cobra.Command{
	Use:     "health",
	Short:   "Check that the server is up",
	GroupID: "system",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.NewHTTPClient(serverURL, authToken)
		defer c.Close()

		status, err := c.Health(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", serverURL, status)
		return nil
	},
}
