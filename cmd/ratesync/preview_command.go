package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"ratesync/internal/outcome"
)

// preview is sync with dry-run forced on: it never writes to the server and
// never exports a failure CSV. It additionally lists every resolved row.
func newPreviewCommand(ctx *commandContext) *cobra.Command {
	var flags syncFlags

	cmd := &cobra.Command{
		Use:   "preview <ratings.csv>",
		Short: "Show what a sync run would change without writing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.dryRun = true
			summary, err := runSync(ctx, cmd, args[0], flags)
			if err != nil {
				return err
			}
			writePreviewTable(cmd, summary)
			return nil
		},
	}

	flags.register(cmd, false)
	return cmd
}

func writePreviewTable(cmd *cobra.Command, summary *outcome.Summary) {
	rows := make([][]string, 0, len(summary.Planned)+len(summary.Failures))
	for _, o := range summary.Planned {
		rows = append(rows, previewRow(o, "would update"))
	}
	for _, o := range summary.Failures {
		rows = append(rows, previewRow(o, o.Kind.String()))
	}
	if len(rows) == 0 {
		return
	}
	fmt.Fprintln(cmd.OutOrStdout())
	fmt.Fprintln(cmd.OutOrStdout(), renderTable(
		[]string{"Title", "Year", "Rating", "Outcome", "Reason"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft, alignLeft},
	))
}

func previewRow(o outcome.Outcome, status string) []string {
	rating := ""
	if o.Rating > 0 {
		rating = strconv.FormatFloat(o.Rating, 'g', -1, 64)
	}
	reason := o.Reason
	if status == "would update" {
		reason = ""
	}
	return []string{o.Title, o.Year, rating, status, reason}
}
