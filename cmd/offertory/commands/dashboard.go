package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"offertory/internal/api"
	"offertory/internal/core"
)

func dashboardCmd(a *app) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show collection totals for the recent period",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireUser(cmd.Context()); err != nil {
				return err
			}
			ov, err := a.authed.DashboardOverview(cmd.Context(), days)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			s := ov.Stats
			total, _ := core.AmountInWords(s.Collections.TotalCollectionsAmount, core.RupeeWords)
			fmt.Fprintf(out, "%s to %s (%d days)\n", s.Period.StartDate, s.Period.EndDate, s.Period.Days)
			fmt.Fprintf(out, "Collections: %d, %s\n  %s\n",
				s.Collections.TotalCollections, core.FormatAmountINR(s.Collections.TotalCollectionsAmount), total)
			fmt.Fprintf(out, "Cash %s  Cheques %s  Expenditure %s\n",
				core.FormatAmountINR(s.Collections.TotalCash),
				core.FormatAmountINR(s.Collections.TotalCheques),
				core.FormatAmountINR(s.Collections.TotalExpenditure))
			fmt.Fprintf(out, "Receipts: %d (%d this week)\n", s.Receipts.TotalReceipts, s.Receipts.ReceiptsThisWeek)

			if len(ov.Recent) > 0 {
				fmt.Fprintln(out, "\nRecent collections")
				tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				for _, c := range ov.Recent {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%d receipts\n",
						c.CollectionDate, core.FormatAmountINR(c.TotalCollection), c.Status, c.ReceiptCount)
				}
				if err := tw.Flush(); err != nil {
					return err
				}
			}
			if ov.Verse.Verse != "" {
				fmt.Fprintf(out, "\n%s\n  %s\n", ov.Verse.Verse, ov.Verse.Reference)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", api.DefaultPeriodDays, "period length in days")
	return cmd
}
