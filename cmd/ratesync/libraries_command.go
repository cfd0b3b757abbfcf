package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLibrariesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "libraries",
		Short: "List library sections on the configured server",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.connect(cmd.Context())
			if err != nil {
				return err
			}
			sections, err := client.Sections(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(sections) == 0 {
				fmt.Fprintln(out, "No library sections found.")
				return nil
			}

			rows := make([][]string, 0, len(sections))
			for _, section := range sections {
				rows = append(rows, []string{
					section.Key,
					section.Title,
					section.Type,
					yesNo(section.Eligible()),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Key", "Title", "Type", "Syncable"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}
}
