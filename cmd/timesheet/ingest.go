package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newIngestCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest",
		Short: "Scan the uploads directory once and update the store",
		Long: `Scan the uploads directory once and update the store.

Files without a month in their name, months without a managerial export and
managerial rows that match nobody are reported and skipped. An unreadable
workbook or a corrupt store aborts the run without writing anything.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runIngest(cmd, flags)
		},
	}
}

func runIngest(cmd *cobra.Command, flags *globalFlags) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, cmd, flags)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.pipeline().Run(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, m := range res.Months {
		fmt.Fprintf(out, "%-10s %-8s %5d entries %4d persons\n", m.Label, m.Action, m.Entries, m.Persons)
	}
	fmt.Fprintf(out, "Ingestion %s completed: %d months, %d warnings\n", res.RunID, len(res.Months), len(res.Warnings))
	return nil
}
