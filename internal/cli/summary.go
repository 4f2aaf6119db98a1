package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ecopool-network/ecopool/internal/domain"
)

func init() {
	rootCmd.AddCommand(summaryCmd)
	summaryCmd.Flags().String("month", "", "Month to summarize, YYYY-MM (default current month)")
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show the pooled contributions for one month",
	RunE:  runSummary,
}

func runSummary(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime(nil)
	if err != nil {
		return err
	}
	defer rt.close()

	month, _ := cmd.Flags().GetString("month")
	if month == "" {
		month = domain.MonthOf(time.Now())
	}

	summary, err := rt.ledger.MonthlySummary(month)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Pool %s: %s over %d contributions from %d contributors\n\n",
		summary.Month, formatCents(summary.TotalUsdCents),
		summary.ContributionCount, len(summary.Contributors))

	if len(summary.Contributors) == 0 {
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CONTRIBUTOR\tTOTAL")
	for _, c := range summary.Contributors {
		fmt.Fprintf(w, "%s\t%s\n", c.UserID, formatCents(c.TotalUsdCents))
	}
	return w.Flush()
}

func formatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign, cents = "-", -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}
