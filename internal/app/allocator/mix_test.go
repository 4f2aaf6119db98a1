package allocator

import (
	"context"
	"strings"
	"testing"
)

// ─── Balanced Mix Tests ─────────────────────────────────────────────────────

func TestBalancedMix_OneTypeUnavailable(t *testing.T) {
	s := newTestSelector(order("bio-1", "BT", 10_000_000, 1_000_000))
	mix := NewBalancedMix(s, "C", "BT")

	plan, err := mix.Plan(context.Background(), 2_000_000, "uusdc")
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if plan.Selection.TotalQuantityMicro != 2_000_000 {
		t.Errorf("TotalQuantityMicro = %d, want 2000000 (full budget to BT)", plan.Selection.TotalQuantityMicro)
	}
	if plan.Allocations["BT"] != 2_000_000 || plan.Allocations["C"] != 0 {
		t.Errorf("Allocations = %v, want all to BT", plan.Allocations)
	}
	if !strings.Contains(plan.Strategy, "C unavailable") {
		t.Errorf("Strategy = %q, want it to name the unavailable type", plan.Strategy)
	}
	if !strings.Contains(plan.Strategy, "100%") {
		t.Errorf("Strategy = %q, want it to state the full routing", plan.Strategy)
	}
}

func TestBalancedMix_BothUnavailable(t *testing.T) {
	s := newTestSelector()
	mix := NewBalancedMix(s, "C", "BT")

	plan, err := mix.Plan(context.Background(), 2_000_000, "uusdc")
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if !plan.Selection.Empty() {
		t.Errorf("selection not empty: %+v", plan.Selection)
	}
	if !strings.Contains(plan.Strategy, "no sell orders") {
		t.Errorf("Strategy = %q, want explanatory string", plan.Strategy)
	}
}

func TestBalancedMix_CheaperTypeGetsSeventyPercent(t *testing.T) {
	s := newTestSelector(
		order("carbon-1", "C", 100_000_000, 2_000_000),
		order("bio-1", "BT", 100_000_000, 1_000_000),
	)
	mix := NewBalancedMix(s, "C", "BT")

	plan, err := mix.Plan(context.Background(), 10_000_000, "uusdc")
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if plan.Allocations["BT"] != 7_000_000 {
		t.Errorf("Allocations[BT] = %d, want 7000000 (cheaper type)", plan.Allocations["BT"])
	}
	if plan.Allocations["C"] != 3_000_000 {
		t.Errorf("Allocations[C] = %d, want 3000000", plan.Allocations["C"])
	}
	// 7.0 at 1.0 = 7.0 credits; 3.0 at 2.0 = 1.5 credits.
	if plan.Selection.TotalQuantityMicro != 8_500_000 {
		t.Errorf("TotalQuantityMicro = %d, want 8500000", plan.Selection.TotalQuantityMicro)
	}
	if plan.Selection.TotalCostMicro != 10_000_000 {
		t.Errorf("TotalCostMicro = %d, want 10000000", plan.Selection.TotalCostMicro)
	}
	if !strings.Contains(plan.Strategy, "BT cheaper") {
		t.Errorf("Strategy = %q, want it to name the cheaper type", plan.Strategy)
	}
}

func TestBalancedMix_EqualPricesSplitEvenly(t *testing.T) {
	s := newTestSelector(
		order("carbon-1", "C", 100_000_000, 1_500_000),
		order("bio-1", "BT", 100_000_000, 1_500_000),
	)
	mix := NewBalancedMix(s, "C", "BT")

	plan, err := mix.Plan(context.Background(), 10_000_000, "uusdc")
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if plan.Allocations["C"] != 5_000_000 || plan.Allocations["BT"] != 5_000_000 {
		t.Errorf("Allocations = %v, want 50/50", plan.Allocations)
	}
	if !strings.Contains(plan.Strategy, "50/50") {
		t.Errorf("Strategy = %q, want 50/50 note", plan.Strategy)
	}
}

func TestBalancedMix_MergeInvariants(t *testing.T) {
	s := newTestSelector(
		order("c-cheap", "C", 1_000_000, 1_000_000),
		order("c-dear", "C", 100_000_000, 3_000_000),
		order("b-1", "BT", 100_000_000, 2_000_000),
	)
	mix := NewBalancedMix(s, "C", "BT")

	budget := int64(9_000_000)
	plan, err := mix.Plan(context.Background(), budget, "uusdc")
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}

	var qty, cost int64
	for _, o := range plan.Selection.Orders {
		qty += o.QuantityMicro
		cost += o.CostMicro
	}
	if qty != plan.Selection.TotalQuantityMicro {
		t.Errorf("sum(QuantityMicro) = %d != TotalQuantityMicro %d", qty, plan.Selection.TotalQuantityMicro)
	}
	if cost != plan.Selection.TotalCostMicro {
		t.Errorf("sum(CostMicro) = %d != TotalCostMicro %d", cost, plan.Selection.TotalCostMicro)
	}
	if plan.Selection.TotalCostMicro > budget {
		t.Errorf("TotalCostMicro %d exceeds budget %d", plan.Selection.TotalCostMicro, budget)
	}

	var alloc int64
	for _, a := range plan.Allocations {
		alloc += a
	}
	if alloc != budget {
		t.Errorf("sum(Allocations) = %d, want full budget %d", alloc, budget)
	}
}
