package domain

import (
	"math/big"
	"sort"
)

// ─── Attribution ────────────────────────────────────────────────────────────
// Converts a purchase result into exact per-contributor fractional shares.
// All arithmetic is integer; products go through big.Int so large pools
// cannot overflow. Rounding remainders are distributed by the
// largest-remainder method so the sums match the actual totals exactly.

// ContributorAttribution is one contributor's fractional share of a
// completed (or planned) credit purchase.
type ContributorAttribution struct {
	UserID                   string `json:"user_id"`
	SharePpm                 int64  `json:"share_ppm"`
	AttributedBudgetUsdCents int64  `json:"attributed_budget_usd_cents"`
	AttributedQuantityMicro  int64  `json:"attributed_quantity_micro"`
}

// ComputeAttributions splits the spent budget and retired quantity across
// contributors proportionally to their contributions.
// Invariants: sum(AttributedBudgetUsdCents) == spentUsdCents and
// sum(AttributedQuantityMicro) == retiredQuantityMicro, always.
//
// The remainder left by floor division is handed out one unit at a time in
// descending fractional-remainder order; ties go to the earlier slice
// position. Callers pass contributors sorted by descending total then
// ascending user id (the MonthlySummary order), which makes the result
// deterministic for any input.
func ComputeAttributions(contributors []ContributorTotal, spentUsdCents, retiredQuantityMicro int64) []ContributorAttribution {
	if len(contributors) == 0 {
		return nil
	}

	var totalCents int64
	for _, c := range contributors {
		totalCents += c.TotalUsdCents
	}
	if totalCents <= 0 {
		return nil
	}

	weights := make([]int64, len(contributors))
	for i, c := range contributors {
		weights[i] = c.TotalUsdCents
	}

	budgets := apportion(weights, totalCents, spentUsdCents)
	quantities := apportion(weights, totalCents, retiredQuantityMicro)

	out := make([]ContributorAttribution, len(contributors))
	for i, c := range contributors {
		out[i] = ContributorAttribution{
			UserID:                   c.UserID,
			SharePpm:                 mulDiv(c.TotalUsdCents, 1_000_000, totalCents),
			AttributedBudgetUsdCents: budgets[i],
			AttributedQuantityMicro:  quantities[i],
		}
	}
	// Largest-remainder ties resolved before this point depend on input
	// order, so callers must pass contributors sorted by descending total
	// (the order MonthlySummary produces).
	return out
}

// apportion splits total into len(weights) integer parts proportional to
// weights, whose weights sum to weightSum. The floor shares are assigned
// first; the remainder is distributed by largest fractional remainder.
func apportion(weights []int64, weightSum, total int64) []int64 {
	n := len(weights)
	shares := make([]int64, n)
	if total == 0 {
		return shares
	}

	type slot struct {
		idx int
		rem *big.Int
	}
	rems := make([]slot, n)

	var assigned int64
	bigTotal := big.NewInt(total)
	bigSum := big.NewInt(weightSum)
	for i, w := range weights {
		prod := new(big.Int).Mul(big.NewInt(w), bigTotal)
		q, r := new(big.Int).QuoRem(prod, bigSum, new(big.Int))
		shares[i] = q.Int64()
		assigned += shares[i]
		rems[i] = slot{idx: i, rem: r}
	}

	leftover := total - assigned
	sort.SliceStable(rems, func(a, b int) bool {
		cmp := rems[a].rem.Cmp(rems[b].rem)
		if cmp != 0 {
			return cmp > 0
		}
		// Equal remainders: input order wins (larger contributor first).
		return rems[a].idx < rems[b].idx
	})
	for i := int64(0); i < leftover; i++ {
		shares[rems[i%int64(n)].idx]++
	}
	return shares
}

// mulDiv computes a*b/c with floor rounding through big.Int.
func mulDiv(a, b, c int64) int64 {
	prod := new(big.Int).Mul(big.NewInt(a), big.NewInt(b))
	return prod.Quo(prod, big.NewInt(c)).Int64()
}
