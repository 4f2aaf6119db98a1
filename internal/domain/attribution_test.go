package domain

import "testing"

// ─── Attribution Tests ──────────────────────────────────────────────────────

func sumAttributions(attrs []ContributorAttribution) (budget, quantity int64) {
	for _, a := range attrs {
		budget += a.AttributedBudgetUsdCents
		quantity += a.AttributedQuantityMicro
	}
	return
}

func TestComputeAttributions_EvenSplit(t *testing.T) {
	contributors := []ContributorTotal{
		{UserID: "alice", TotalUsdCents: 100},
		{UserID: "bob", TotalUsdCents: 100},
	}
	attrs := ComputeAttributions(contributors, 200, 2_000_000)

	if len(attrs) != 2 {
		t.Fatalf("len(attrs) = %d, want 2", len(attrs))
	}
	for i, a := range attrs {
		if a.AttributedBudgetUsdCents != 100 {
			t.Errorf("attrs[%d].AttributedBudgetUsdCents = %d, want 100", i, a.AttributedBudgetUsdCents)
		}
		if a.AttributedQuantityMicro != 1_000_000 {
			t.Errorf("attrs[%d].AttributedQuantityMicro = %d, want 1000000", i, a.AttributedQuantityMicro)
		}
		if a.SharePpm != 500_000 {
			t.Errorf("attrs[%d].SharePpm = %d, want 500000", i, a.SharePpm)
		}
	}
}

func TestComputeAttributions_RemainderGoesToLargestRemainder(t *testing.T) {
	// 3 equal contributors splitting 100 cents: floor gives 33 each,
	// leaving 1 cent. Equal remainders, so input order (largest first,
	// here all equal) decides — the first contributor gets the extra cent.
	contributors := []ContributorTotal{
		{UserID: "alice", TotalUsdCents: 50},
		{UserID: "bob", TotalUsdCents: 50},
		{UserID: "carol", TotalUsdCents: 50},
	}
	attrs := ComputeAttributions(contributors, 100, 100)

	wantBudgets := []int64{34, 33, 33}
	for i, want := range wantBudgets {
		if attrs[i].AttributedBudgetUsdCents != want {
			t.Errorf("attrs[%d].AttributedBudgetUsdCents = %d, want %d",
				i, attrs[i].AttributedBudgetUsdCents, want)
		}
	}
}

func TestComputeAttributions_SumInvariant(t *testing.T) {
	tests := []struct {
		name         string
		contributors []ContributorTotal
		spent        int64
		retired      int64
	}{
		{
			"uneven thirds",
			[]ContributorTotal{
				{UserID: "a", TotalUsdCents: 700},
				{UserID: "b", TotalUsdCents: 200},
				{UserID: "c", TotalUsdCents: 100},
			},
			999, 1_234_567,
		},
		{
			"prime amounts",
			[]ContributorTotal{
				{UserID: "a", TotalUsdCents: 97},
				{UserID: "b", TotalUsdCents: 89},
				{UserID: "c", TotalUsdCents: 83},
				{UserID: "d", TotalUsdCents: 79},
			},
			1013, 999_983,
		},
		{
			"single contributor",
			[]ContributorTotal{{UserID: "solo", TotalUsdCents: 500}},
			471, 3_000_001,
		},
		{
			"spend smaller than contributor count",
			[]ContributorTotal{
				{UserID: "a", TotalUsdCents: 300},
				{UserID: "b", TotalUsdCents: 200},
				{UserID: "c", TotalUsdCents: 100},
			},
			2, 1,
		},
		{
			"large pool",
			[]ContributorTotal{
				{UserID: "a", TotalUsdCents: 12_345_678_901},
				{UserID: "b", TotalUsdCents: 9_876_543_210},
				{UserID: "c", TotalUsdCents: 1},
			},
			7_777_777_777, 5_555_555_555_555,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attrs := ComputeAttributions(tt.contributors, tt.spent, tt.retired)
			budget, quantity := sumAttributions(attrs)
			if budget != tt.spent {
				t.Errorf("sum(AttributedBudgetUsdCents) = %d, want %d", budget, tt.spent)
			}
			if quantity != tt.retired {
				t.Errorf("sum(AttributedQuantityMicro) = %d, want %d", quantity, tt.retired)
			}
			for i, a := range attrs {
				if a.AttributedBudgetUsdCents < 0 || a.AttributedQuantityMicro < 0 {
					t.Errorf("attrs[%d] has negative attribution: %+v", i, a)
				}
			}
		})
	}
}

func TestComputeAttributions_Deterministic(t *testing.T) {
	contributors := []ContributorTotal{
		{UserID: "a", TotalUsdCents: 333},
		{UserID: "b", TotalUsdCents: 333},
		{UserID: "c", TotalUsdCents: 334},
	}
	first := ComputeAttributions(contributors, 1001, 777_777)
	for i := 0; i < 50; i++ {
		again := ComputeAttributions(contributors, 1001, 777_777)
		for j := range first {
			if first[j] != again[j] {
				t.Fatalf("run %d differs at %d: %+v vs %+v", i, j, first[j], again[j])
			}
		}
	}
}

func TestComputeAttributions_Empty(t *testing.T) {
	if got := ComputeAttributions(nil, 100, 100); got != nil {
		t.Errorf("ComputeAttributions(nil) = %v, want nil", got)
	}
	if got := ComputeAttributions([]ContributorTotal{{UserID: "a", TotalUsdCents: 0}}, 100, 100); got != nil {
		t.Errorf("zero-total contributors should yield nil, got %v", got)
	}
}
