package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/smsledger/internal/cli"
	"github.com/Veraticus/smsledger/internal/service"
)

func historyCmd() *cobra.Command {
	var (
		status  string
		reports bool
		limit   int
	)

	cmd := &cobra.Command{
		Use:     "history",
		Aliases: []string{"failures"},
		Short:   "List backend submissions and extraction reports",
		Example: `  smsledger history --status failed
  smsledger history --reports --limit 20`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			if reports {
				list, err := a.store.ListExtractionReports(ctx, limit)
				if err != nil {
					return err
				}
				if len(list) == 0 {
					fmt.Fprintln(out, cli.SubtleStyle.Render("No extraction reports"))
					return nil
				}
				for _, r := range list {
					fmt.Fprintf(out, "%s  #%d  %s\n", r.ReportedAt.Format(time.DateTime), r.ID, r.MessageID)
					fmt.Fprintln(out, cli.SubtleStyle.Render("  "+r.RawMessage))
				}
				return nil
			}

			records, err := a.store.ListPersistRecords(ctx, service.PersistStatus(status))
			if err != nil {
				return err
			}
			if limit > 0 && len(records) > limit {
				records = records[:limit]
			}
			fmt.Fprintln(out, cli.RenderPersistRecords(records))

			pending, err := a.store.CountPending(ctx)
			if err != nil {
				return err
			}
			if pending > 0 {
				fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("%d message(s) parked until the backend identity is configured", pending)))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "only show submissions with this status (pending, succeeded, failed)")
	cmd.Flags().BoolVar(&reports, "reports", false, "list incorrect-extraction reports instead")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum entries to show")

	return cmd
}
