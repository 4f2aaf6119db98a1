package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ecopool-network/ecopool/internal/app/ledger"
)

func init() {
	rootCmd.AddCommand(contributeCmd)
	contributeCmd.Flags().String("user", "", "Contributor user id")
	contributeCmd.Flags().String("customer", "", "Billing customer id (used when no user id)")
	contributeCmd.Flags().String("email", "", "Contributor email (used when no user or customer id)")
	contributeCmd.Flags().Int64("cents", 0, "Contribution amount in USD cents")
	contributeCmd.Flags().Float64("usd", 0, "Contribution amount in USD dollars")
	contributeCmd.Flags().String("tier", "", "Billing tier id from [tiers] in config")
	contributeCmd.Flags().String("at", "", "Contribution timestamp, RFC 3339 (default now)")
	contributeCmd.Flags().String("event-id", "", "External billing event id for webhook dedup")
	contributeCmd.Flags().String("source", "cli", "Origin of the event")
}

var contributeCmd = &cobra.Command{
	Use:   "contribute",
	Short: "Record one contribution in the ledger",
	Long: `Record one USD contribution. Identity resolves from --user, --customer,
or --email in that priority; the amount from --cents, --usd, or --tier.
Repeating an --event-id is safe: the original record is returned unchanged.`,
	RunE: runContribute,
}

func runContribute(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime(nil)
	if err != nil {
		return err
	}
	defer rt.close()

	input := ledger.RecordInput{}
	input.UserID, _ = cmd.Flags().GetString("user")
	input.CustomerID, _ = cmd.Flags().GetString("customer")
	input.Email, _ = cmd.Flags().GetString("email")
	input.AmountUsdCents, _ = cmd.Flags().GetInt64("cents")
	input.AmountUsd, _ = cmd.Flags().GetFloat64("usd")
	input.TierID, _ = cmd.Flags().GetString("tier")
	input.ExternalEventID, _ = cmd.Flags().GetString("event-id")
	input.Source, _ = cmd.Flags().GetString("source")

	if at, _ := cmd.Flags().GetString("at"); at != "" {
		ts, err := time.Parse(time.RFC3339, at)
		if err != nil {
			return fmt.Errorf("parse --at: %w", err)
		}
		input.ContributedAt = ts
	}

	res, err := rt.ledger.RecordContribution(input)
	if err != nil {
		return err
	}

	if res.Duplicate {
		fmt.Fprintf(os.Stdout, "Duplicate event %s — original record kept:\n", input.ExternalEventID)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res.Record)
}
