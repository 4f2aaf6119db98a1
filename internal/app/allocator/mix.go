package allocator

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ecopool-network/ecopool/internal/domain"
)

// ─── Balanced Credit Mix ────────────────────────────────────────────────────
// When a run names no credit type, the budget splits across the two
// configured types: probe both with the full budget, then route 70% to the
// cheaper type (50/50 on an exact price tie), or 100% to whichever type has
// supply when the other has none.

// MixPlan is the outcome of the balanced policy, including the audit trail
// of how the budget was allocated.
type MixPlan struct {
	Selection   domain.BudgetOrderSelection
	Strategy    string
	Allocations map[string]int64 // credit type → allocated budget micro
}

// BalancedMix decides how a budget splits across two credit types.
type BalancedMix struct {
	selector *Selector
	typeA    string
	typeB    string
}

// NewBalancedMix creates the policy over the given candidate credit types.
func NewBalancedMix(selector *Selector, typeA, typeB string) *BalancedMix {
	return &BalancedMix{selector: selector, typeA: typeA, typeB: typeB}
}

// Plan probes both credit types with the full budget and allocates.
func (m *BalancedMix) Plan(ctx context.Context, budgetMicro int64, paymentDenom string) (MixPlan, error) {
	probeA, err := m.selector.SelectOrdersForBudget(ctx, m.typeA, budgetMicro, paymentDenom)
	if err != nil {
		return MixPlan{}, err
	}
	probeB, err := m.selector.SelectOrdersForBudget(ctx, m.typeB, budgetMicro, paymentDenom)
	if err != nil {
		return MixPlan{}, err
	}

	switch {
	case probeA.Empty() && probeB.Empty():
		return MixPlan{
			Selection: domain.BudgetOrderSelection{PaymentDenom: paymentDenom},
			Strategy: fmt.Sprintf("balanced: no sell orders available for %s or %s",
				m.typeA, m.typeB),
			Allocations: map[string]int64{m.typeA: 0, m.typeB: 0},
		}, nil

	case probeB.Empty():
		// The full-budget probe already is the 100% selection.
		return MixPlan{
			Selection: probeA,
			Strategy: fmt.Sprintf("balanced: %s unavailable, routing 100%% of budget to %s",
				m.typeB, m.typeA),
			Allocations: map[string]int64{m.typeA: budgetMicro, m.typeB: 0},
		}, nil

	case probeA.Empty():
		return MixPlan{
			Selection: probeB,
			Strategy: fmt.Sprintf("balanced: %s unavailable, routing 100%% of budget to %s",
				m.typeA, m.typeB),
			Allocations: map[string]int64{m.typeA: 0, m.typeB: budgetMicro},
		}, nil
	}

	// Both types have supply: compare effective average cost per unit.
	cheap, dear := m.typeA, m.typeB
	switch cmpAvgPrice(probeA, probeB) {
	case 0:
		return m.split(ctx, budgetMicro, paymentDenom, m.typeA, m.typeB,
			budgetMicro/2,
			fmt.Sprintf("balanced: %s and %s equally priced, splitting 50/50", m.typeA, m.typeB))
	case +1:
		cheap, dear = m.typeB, m.typeA
	}
	return m.split(ctx, budgetMicro, paymentDenom, cheap, dear,
		budgetMicro*70/100,
		fmt.Sprintf("balanced: %s cheaper, routing 70%% to %s and 30%% to %s", cheap, cheap, dear))
}

// split re-selects with firstMicro allocated to first and the remainder to
// second, then merges the two selections exactly.
func (m *BalancedMix) split(ctx context.Context, budgetMicro int64, paymentDenom, first, second string, firstMicro int64, strategy string) (MixPlan, error) {
	secondMicro := budgetMicro - firstMicro

	selFirst, err := m.selector.SelectOrdersForBudget(ctx, first, firstMicro, paymentDenom)
	if err != nil {
		return MixPlan{}, err
	}
	selSecond, err := m.selector.SelectOrdersForBudget(ctx, second, secondMicro, paymentDenom)
	if err != nil {
		return MixPlan{}, err
	}

	merged := domain.BudgetOrderSelection{
		Orders:             append(append([]domain.SelectedOrder{}, selFirst.Orders...), selSecond.Orders...),
		TotalQuantityMicro: selFirst.TotalQuantityMicro + selSecond.TotalQuantityMicro,
		TotalCostMicro:     selFirst.TotalCostMicro + selSecond.TotalCostMicro,
		PaymentDenom:       paymentDenom,
		ExhaustedBudget:    selFirst.ExhaustedBudget && selSecond.ExhaustedBudget,
	}
	return MixPlan{
		Selection:   merged,
		Strategy:    strategy,
		Allocations: map[string]int64{first: firstMicro, second: secondMicro},
	}, nil
}

// cmpAvgPrice compares average cost per unit of two non-empty selections
// without precision loss: costA/qtyA vs costB/qtyB cross-multiplied in
// big.Int. Returns -1 when a is cheaper, +1 when b is cheaper, 0 on a tie.
func cmpAvgPrice(a, b domain.BudgetOrderSelection) int {
	left := new(big.Int).Mul(big.NewInt(a.TotalCostMicro), big.NewInt(b.TotalQuantityMicro))
	right := new(big.Int).Mul(big.NewInt(b.TotalCostMicro), big.NewInt(a.TotalQuantityMicro))
	return left.Cmp(right)
}
