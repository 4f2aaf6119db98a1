package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ecopool-network/ecopool/internal/app/batch"
	"github.com/ecopool-network/ecopool/internal/domain"
)

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().String("month", "", "Month to execute, YYYY-MM (default current month)")
	runCmd.Flags().String("credit-type", "", "Credit type abbreviation; empty uses the balanced mix")
	runCmd.Flags().Int64("max-budget-cents", 0, "Cap on the gross budget in USD cents (0 = full pool)")
	runCmd.Flags().Bool("dry-run", true, "Plan and record without touching the chain")
	runCmd.Flags().Bool("force", false, "Re-execute even if a successful run exists")
	runCmd.Flags().String("jurisdiction", "", "Retirement jurisdiction (default from config)")
	runCmd.Flags().String("reason", "", "Retirement reason (default from config)")
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute the monthly batch purchase",
	Long: `Execute the monthly batch: aggregate the pool, split the protocol fee,
select the cheapest matching sell orders, attribute fractional credit to
every contributor, and retire the purchase on chain.

Dry run is the default. Pass --dry-run=false to spend real funds.`,
	RunE: runBatch,
}

func runBatch(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime(nil)
	if err != nil {
		return err
	}
	defer rt.close()

	req := batch.RunRequest{}
	req.Month, _ = cmd.Flags().GetString("month")
	if req.Month == "" {
		req.Month = domain.MonthOf(time.Now())
	}
	req.CreditType, _ = cmd.Flags().GetString("credit-type")
	req.MaxBudgetUsdCents, _ = cmd.Flags().GetInt64("max-budget-cents")
	req.DryRun, _ = cmd.Flags().GetBool("dry-run")
	req.Force, _ = cmd.Flags().GetBool("force")
	req.Jurisdiction, _ = cmd.Flags().GetString("jurisdiction")
	req.Reason, _ = cmd.Flags().GetString("reason")

	res, err := rt.runner.Run(context.Background(), req)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Outcome: %s\n%s\n", res.Outcome, res.Message)
	if res.Record != nil {
		fmt.Fprintln(os.Stdout)
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res.Record); err != nil {
			return err
		}
	}
	if res.Outcome == domain.OutcomeFailed {
		return fmt.Errorf("batch run failed")
	}
	return nil
}
