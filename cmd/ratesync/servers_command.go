package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newServersCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "servers",
		Short: "List the Plex servers available to the configured account",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if strings.TrimSpace(cfg.Plex.URL) != "" {
				client, err := ctx.connect(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Direct server configured: %s\n", client.BaseURL())
				return nil
			}

			cache, err := ctx.connectionCache()
			if err != nil {
				return err
			}
			resources, err := cache.ServerResources(cmd.Context())
			if err != nil {
				return err
			}
			if len(resources) == 0 {
				fmt.Fprintln(out, "No owned servers found on this account.")
				return nil
			}

			rows := make([][]string, 0, len(resources))
			for _, resource := range resources {
				local := "no"
				for _, conn := range resource.Connections {
					if conn.Local {
						local = "yes"
						break
					}
				}
				rows = append(rows, []string{
					resource.Name,
					strconv.Itoa(len(resource.Connections)),
					local,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Name", "Connections", "Local"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}
}
