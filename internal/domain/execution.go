package domain

import "time"

// ─── Batch Execution Types ──────────────────────────────────────────────────
// One BatchExecutionRecord is appended per run attempt — success, failure,
// and dry run alike — and never mutated afterwards. The existence of a
// success record for (month, credit type) is the idempotency key.

// ExecutionStatus is the terminal status persisted on an execution record.
type ExecutionStatus string

const (
	ExecSuccess ExecutionStatus = "success"
	ExecFailed  ExecutionStatus = "failed"
	ExecDryRun  ExecutionStatus = "dry_run"
)

// RunOutcome classifies every orchestrator result, including the terminal
// states that append no execution record.
type RunOutcome string

const (
	OutcomeNoContributions     RunOutcome = "no_contributions"
	OutcomeNoOrders            RunOutcome = "no_orders"
	OutcomeWalletNotConfigured RunOutcome = "wallet_not_configured"
	OutcomeAlreadyExecuted     RunOutcome = "already_executed"
	OutcomeDryRun              RunOutcome = "dry_run"
	OutcomeSuccess             RunOutcome = "success"
	OutcomeFailed              RunOutcome = "failed"
)

// ProviderStatus is the lifecycle status of an acquisition or burn step.
type ProviderStatus string

const (
	ProviderPlanned  ProviderStatus = "planned"
	ProviderExecuted ProviderStatus = "executed"
	ProviderSkipped  ProviderStatus = "skipped"
	ProviderFailed   ProviderStatus = "failed"
)

// RegenAcquisitionRecord documents the fee-skim conversion into the
// secondary token for one run. Immutable once appended.
type RegenAcquisitionRecord struct {
	Status              ProviderStatus `json:"status"`
	FeeUsdCents         int64          `json:"fee_usd_cents"`
	AcquiredAmountMicro int64          `json:"acquired_amount_micro"`
	Denom               string         `json:"denom,omitempty"`
	TxReference         string         `json:"tx_reference,omitempty"`
	Message             string         `json:"message,omitempty"`
}

// RegenBurnRecord documents the burn of an acquired token amount.
type RegenBurnRecord struct {
	Status            ProviderStatus `json:"status"`
	BurnedAmountMicro int64          `json:"burned_amount_micro"`
	Denom             string         `json:"denom,omitempty"`
	BurnAddress       string         `json:"burn_address,omitempty"`
	TxReference       string         `json:"tx_reference,omitempty"`
	Message           string         `json:"message,omitempty"`
}

// BatchExecutionRecord is one row in the append-only execution ledger.
type BatchExecutionRecord struct {
	ID         string          `json:"id"`
	Month      string          `json:"month"`
	CreditType string          `json:"credit_type"`
	DryRun     bool            `json:"dry_run"`
	Status     ExecutionStatus `json:"status"`

	Fee                  ProtocolFeeBreakdown `json:"fee"`
	SpentUsdCents        int64                `json:"spent_usd_cents"`
	TotalCostMicro       int64                `json:"total_cost_micro"`
	RetiredQuantityMicro int64                `json:"retired_quantity_micro"`
	PaymentDenom         string               `json:"payment_denom,omitempty"`
	Strategy             string               `json:"strategy,omitempty"`

	Jurisdiction string `json:"jurisdiction,omitempty"`
	Reason       string `json:"reason,omitempty"`

	Orders       []SelectedOrder          `json:"orders,omitempty"`
	Attributions []ContributorAttribution `json:"attributions,omitempty"`
	Acquisition  *RegenAcquisitionRecord  `json:"acquisition,omitempty"`
	Burn         *RegenBurnRecord         `json:"burn,omitempty"`

	TxReference string    `json:"tx_reference,omitempty"`
	BlockHeight int64     `json:"block_height,omitempty"`
	Error       string    `json:"error,omitempty"`
	Message     string    `json:"message,omitempty"`
	ExecutedAt  time.Time `json:"executed_at"`
}
