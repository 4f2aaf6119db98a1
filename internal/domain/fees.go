package domain

// ─── Protocol Fee ───────────────────────────────────────────────────────────
// Pure integer-cent fee split. Called repeatedly during dry-run previews,
// so it must be deterministic and side-effect free.

// MaxFeeBps bounds the protocol fee at 100%.
const MaxFeeBps = 10_000

// ProtocolFeeBreakdown splits a gross monthly pool into the protocol fee
// skim and the remaining credit purchase budget.
// Invariant: FeeUsdCents + CreditBudgetUsdCents == GrossBudgetUsdCents.
type ProtocolFeeBreakdown struct {
	GrossBudgetUsdCents  int64 `json:"gross_budget_usd_cents"`
	FeeBps               int64 `json:"fee_bps"`
	FeeUsdCents          int64 `json:"fee_usd_cents"`
	CreditBudgetUsdCents int64 `json:"credit_budget_usd_cents"`
}

// ComputeProtocolFee splits grossUsdCents at feeBps basis points.
// The fee rounds down, so the credit budget absorbs the remainder.
func ComputeProtocolFee(grossUsdCents, feeBps int64) (ProtocolFeeBreakdown, error) {
	if feeBps < 0 || feeBps > MaxFeeBps {
		return ProtocolFeeBreakdown{}, NewValidationError("feeBps", "must be between 0 and 10000 basis points")
	}
	if grossUsdCents < 0 {
		return ProtocolFeeBreakdown{}, NewValidationError("grossUsdCents", "must be a non-negative integer")
	}
	fee := grossUsdCents * feeBps / MaxFeeBps
	return ProtocolFeeBreakdown{
		GrossBudgetUsdCents:  grossUsdCents,
		FeeBps:               feeBps,
		FeeUsdCents:          fee,
		CreditBudgetUsdCents: grossUsdCents - fee,
	}, nil
}
