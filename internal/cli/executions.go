package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(executionsCmd)
	executionsCmd.Flags().String("month", "", "Filter by month, YYYY-MM")
	executionsCmd.Flags().Bool("json", false, "Print full records as JSON")
}

var executionsCmd = &cobra.Command{
	Use:   "executions",
	Short: "List batch execution records",
	RunE:  runExecutions,
}

func runExecutions(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime(nil)
	if err != nil {
		return err
	}
	defer rt.close()

	month, _ := cmd.Flags().GetString("month")
	recs, err := rt.executions.ListExecutions(month)
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(recs)
	}

	if len(recs) == 0 {
		fmt.Fprintln(os.Stdout, "No executions recorded.")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "MONTH\tTYPE\tSTATUS\tSPENT\tRETIRED (micro)\tTX")
	for _, rec := range recs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
			rec.Month, rec.CreditType, rec.Status,
			formatCents(rec.SpentUsdCents), rec.RetiredQuantityMicro, rec.TxReference)
	}
	return w.Flush()
}
