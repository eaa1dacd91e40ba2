package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"hackwave/internal/calendar"
	"hackwave/internal/term"
)

func addMonth(topLevel *cobra.Command, a *app) {
	o := &viewOptions{}
	var year, month int
	cmd := &cobra.Command{
		Use:   "month",
		Short: "Print a month grid with event chips.",
		Example: `
hackwave month
hackwave month --year 2024 --month 6
`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := a.openProvider(cmd.Context(), o.remote)
			if err != nil {
				return err
			}
			ref, err := o.referenceDate(p)
			if err != nil {
				return err
			}
			if err := p.SelectDate(calendar.FormatDate(ref)); err != nil {
				return err
			}

			view := p.SelectedMonthView(a.cfg.CellChipLimit)
			if cmd.Flags().Changed("year") || cmd.Flags().Changed("month") {
				y, m := ref.Year(), int(ref.Month())
				if cmd.Flags().Changed("year") {
					y = year
				}
				if cmd.Flags().Changed("month") {
					if month < 1 || month > 12 {
						return fmt.Errorf("--month must be 1-12, got %d", month)
					}
					m = month
				}
				// Flags are 1-based; the grid takes a zero-based month.
				view = p.MonthView(y, m-1, a.cfg.CellChipLimit)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), term.MonthGrid(view))
			return nil
		},
	}
	o.addFlags(cmd)
	cmd.Flags().IntVar(&year, "year", 0, "Year to show (default: the reference date's)")
	cmd.Flags().IntVar(&month, "month", 0, "Month 1-12 to show (default: the reference date's)")
	topLevel.AddCommand(cmd)
}
