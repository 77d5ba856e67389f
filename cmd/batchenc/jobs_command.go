package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "jobs",
		Short: "List the jobs tracked in the current batch ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.store()
			if err != nil {
				return err
			}
			records, err := store.All()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "No jobs tracked; the ledger is empty.")
				return nil
			}

			rows := make([][]string, 0, len(records))
			pending := 0
			for _, rec := range records {
				if !rec.Complete {
					pending++
				}
				rows = append(rows, []string{rec.InputFile, rec.OutputTitle, yesNo(rec.Complete)})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Input", "Output Title", "Complete"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft},
			))
			fmt.Fprintf(out, "%d job(s), %d pending\n", len(records), pending)
			return nil
		},
	}
}
