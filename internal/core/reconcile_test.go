package core

import (
	"testing"
	"time"
)

func req(project, period string, status Status, amount, taxRate, advance, pct float64) DisbursementRequest {
	return DisbursementRequest{
		Code:             "DN-01",
		ProjectID:        project,
		Period:           period,
		Items:            []DisbursementItem{{ID: "i1", Amount: Amount(amount), TaxRate: Amount(taxRate)}},
		AdvanceDeduction: Amount(advance),
		CompletionPct:    Amount(pct),
		Status:           status,
	}
}

func TestActualByPeriodAt(t *testing.T) {
	requests := []DisbursementRequest{
		// payable 100*1.10 = 110, scaled 50% -> 55
		req("p1", "2025-03", StatusSubmitted, 100, 10, 0, 50),
		// payable 200 - 20 = 180, full completion -> 180, same period
		req("p1", "2025-03-15", StatusApproved, 200, 0, 20, 100),
		// different period
		req("p1", "2025-04", StatusPaid, 300, 0, 0, 100),
	}
	actual := ActualByPeriodAt(refNow, requests)
	if got := actual["2025-03"]; got != 235 {
		t.Fatalf("2025-03: got %v, want 235", got)
	}
	if got := actual["2025-04"]; got != 300 {
		t.Fatalf("2025-04: got %v, want 300", got)
	}
}

func TestActualByPeriodExcludesRejected(t *testing.T) {
	requests := []DisbursementRequest{
		req("p1", "2025-05", StatusRejected, 1_000_000, 0, 0, 100),
	}
	actual := ActualByPeriodAt(refNow, requests)
	if _, ok := actual["2025-05"]; ok {
		t.Fatalf("rejected request must not create an entry, got %v", actual)
	}
	if len(actual) != 0 {
		t.Fatalf("expected empty map, got %v", actual)
	}
}

func TestActualByPeriodAbsenceMeansZero(t *testing.T) {
	actual := ActualByPeriodAt(refNow, nil)
	if len(actual) != 0 {
		t.Fatalf("expected no entries, got %v", actual)
	}
	// Missing key reads as 0 through plain map access.
	if actual["2025-09"] != 0 {
		t.Fatalf("missing key should read 0")
	}
}

func TestEffectivePlanPrefersPersisted(t *testing.T) {
	gen := &SequenceIDGenerator{}
	plans := []DisbursementPlan{{
		ID:        "db-1",
		ProjectID: "p1",
		Items: []PlanItem{
			{ID: "a", Period: "2025-02-01", PlannedAmount: 500},
			{ID: "b", Period: "2025-03", PlannedAmount: 700},
		},
	}}
	// Requests for periods absent from the plan must not leak in.
	requests := []DisbursementRequest{req("p1", "2025-09", StatusSubmitted, 1, 0, 0, 100)}

	got := EffectivePlanAt(refNow, plans, requests, "p1", gen)
	if got == nil || got.ID != "db-1" {
		t.Fatalf("expected persisted plan, got %+v", got)
	}
	if len(got.Items) != 2 {
		t.Fatalf("items: %+v", got.Items)
	}
	if got.Items[0].Period != "2025-02" || got.Items[1].Period != "2025-03" {
		t.Fatalf("periods not normalized: %+v", got.Items)
	}
	// The source plan must not be mutated by normalization.
	if plans[0].Items[0].Period != "2025-02-01" {
		t.Fatalf("persisted plan mutated: %+v", plans[0].Items)
	}
}

func TestEffectivePlanFromRequests(t *testing.T) {
	gen := &SequenceIDGenerator{}
	requests := []DisbursementRequest{
		req("p1", "2025-04", StatusSubmitted, 1, 0, 0, 100),
		req("p1", "2025-02-10", StatusDraft, 1, 0, 0, 100),
		req("p1", "2025-04-01", StatusApproved, 1, 0, 0, 100), // duplicate month
		req("p2", "2025-08", StatusSubmitted, 1, 0, 0, 100),   // other project
	}
	got := EffectivePlanAt(refNow, nil, requests, "p1", gen)
	if got == nil {
		t.Fatalf("expected synthesized plan")
	}
	if got.ID != "p-1" {
		t.Fatalf("id: %q", got.ID)
	}
	if len(got.Items) != 2 {
		t.Fatalf("items: %+v", got.Items)
	}
	if got.Items[0].Period != "2025-02" || got.Items[0].ID != "pl-1" {
		t.Fatalf("first item: %+v", got.Items[0])
	}
	if got.Items[1].Period != "2025-04" || got.Items[1].ID != "pl-2" {
		t.Fatalf("second item: %+v", got.Items[1])
	}
	for _, it := range got.Items {
		if it.PlannedAmount != 0 {
			t.Fatalf("synthesized planned amount must be 0: %+v", it)
		}
	}
}

func TestEffectivePlanFallback(t *testing.T) {
	gen := &SequenceIDGenerator{}
	got := EffectivePlanAt(refNow, nil, nil, "p1", gen)
	if got == nil {
		t.Fatalf("expected fallback plan")
	}
	wantPeriods := []string{"2025-01", "2025-02", "2025-03"}
	wantAmounts := []float64{300_000_000, 400_000_000, 300_000_000}
	if len(got.Items) != 3 {
		t.Fatalf("items: %+v", got.Items)
	}
	for i, it := range got.Items {
		if it.Period != wantPeriods[i] {
			t.Fatalf("item %d period %q, want %q", i, it.Period, wantPeriods[i])
		}
		if it.PlannedAmount.Float() != wantAmounts[i] {
			t.Fatalf("item %d amount %v, want %v", i, it.PlannedAmount, wantAmounts[i])
		}
	}
}

func TestEffectivePlanMissingProject(t *testing.T) {
	gen := &SequenceIDGenerator{}
	if got := EffectivePlanAt(refNow, nil, nil, "", gen); got != nil {
		t.Fatalf("missing project id must yield no plan, got %+v", got)
	}
}

func TestDedupPlanItemsAt(t *testing.T) {
	items := []PlanItem{
		{ID: "a", Period: "2025-05-01", PlannedAmount: 100},
		{ID: "b", Period: "2025-05", PlannedAmount: 999}, // later duplicate, dropped
		{ID: "c", Period: "2025-06", PlannedAmount: 200},
	}
	got := DedupPlanItemsAt(refNow, items)
	if len(got) != 2 {
		t.Fatalf("got %+v", got)
	}
	if got[0].ID != "a" || got[0].Period != "2025-05" || got[0].PlannedAmount != 100 {
		t.Fatalf("first occurrence must win: %+v", got[0])
	}
	if got[1].ID != "c" {
		t.Fatalf("got %+v", got[1])
	}
}

func TestFallbackMonthRollover(t *testing.T) {
	gen := &SequenceIDGenerator{}
	nov := time.Date(2024, 11, 20, 0, 0, 0, 0, time.UTC)
	got := EffectivePlanAt(nov, nil, nil, "p1", gen)
	wantPeriods := []string{"2024-11", "2024-12", "2025-01"}
	for i, it := range got.Items {
		if it.Period != wantPeriods[i] {
			t.Fatalf("item %d period %q, want %q", i, it.Period, wantPeriods[i])
		}
	}
}
