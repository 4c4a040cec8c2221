package core

import (
	"fmt"
	"sort"
	"time"
)

// Placeholder planned amounts for the synthesized fallback plan, in VNĐ.
// Illustrative defaults from the original dashboard, not policy.
var fallbackPlannedAmounts = []float64{300_000_000, 400_000_000, 300_000_000}

// ActualByPeriod reduces a project's requests into real spend per normalized
// period: for each non-rejected request the payable total, scaled by its
// completion percentage, is accumulated under its period key. Periods with no
// contributing request have no entry at all; a missing key means zero.
func ActualByPeriod(requests []DisbursementRequest) map[string]float64 {
	return ActualByPeriodAt(time.Now(), requests)
}

// ActualByPeriodAt is ActualByPeriod with an injected reference time for
// period normalization.
func ActualByPeriodAt(now time.Time, requests []DisbursementRequest) map[string]float64 {
	actual := make(map[string]float64)
	for _, r := range requests {
		if r.Status == StatusRejected {
			continue
		}
		totals := CalcDisbursement(r.Items, r.AdvanceDeduction.Float())
		scaled := totals.Scale(r.CompletionPct.Float())
		period := NormalizePeriodAt(now, r.Period)
		actual[period] += scaled.Payable
	}
	return actual
}

// EffectivePlan resolves the single authoritative plan view for a project.
// Priority order, first match wins:
//
//  1. a persisted plan for the project, re-normalized defensively;
//  2. a plan synthesized from the periods of the project's requests,
//     planned amounts zeroed;
//  3. a fallback three-month plan starting at the current month.
//
// A missing project id yields nil rather than an error. Plans produced by
// steps 2-3 carry a fresh id from gen and are not persisted here; they only
// become authoritative once the user saves an edit.
func EffectivePlan(plans []DisbursementPlan, requests []DisbursementRequest, projectID string, gen IDGenerator) *DisbursementPlan {
	return EffectivePlanAt(time.Now(), plans, requests, projectID, gen)
}

// EffectivePlanAt is EffectivePlan with an injected reference time.
func EffectivePlanAt(now time.Time, plans []DisbursementPlan, requests []DisbursementRequest, projectID string, gen IDGenerator) *DisbursementPlan {
	for _, p := range plans {
		if p.ProjectID == projectID {
			normalized := p
			normalized.Items = make([]PlanItem, len(p.Items))
			for i, it := range p.Items {
				it.Period = NormalizePeriodAt(now, it.Period)
				normalized.Items[i] = it
			}
			return &normalized
		}
	}

	if projectID == "" {
		return nil
	}

	periods := make(map[string]bool)
	for _, r := range requests {
		if r.ProjectID != projectID {
			continue
		}
		periods[NormalizePeriodAt(now, r.Period)] = true
	}
	if len(periods) > 0 {
		return PlanFromRequestPeriods(projectID, periods, gen)
	}

	return fallbackPlan(now, projectID, gen)
}

// PlanFromRequestPeriods synthesizes a plan whose items are the sorted,
// deduplicated periods already normalized by the caller, each with a planned
// amount of 0. Item ids are positional.
func PlanFromRequestPeriods(projectID string, periods map[string]bool, gen IDGenerator) *DisbursementPlan {
	sorted := make([]string, 0, len(periods))
	for p := range periods {
		sorted = append(sorted, p)
	}
	sort.Strings(sorted)

	items := make([]PlanItem, len(sorted))
	for i, p := range sorted {
		items[i] = PlanItem{
			ID:            fmt.Sprintf("pl-%d", i+1),
			Period:        p,
			PlannedAmount: 0,
		}
	}
	return &DisbursementPlan{ID: gen.NewID(), ProjectID: projectID, Items: items}
}

func fallbackPlan(now time.Time, projectID string, gen IDGenerator) *DisbursementPlan {
	items := make([]PlanItem, len(fallbackPlannedAmounts))
	for i, amount := range fallbackPlannedAmounts {
		month := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, i, 0)
		items[i] = PlanItem{
			ID:            fmt.Sprintf("pl%d", i+1),
			Period:        month.Format(PeriodLayout),
			PlannedAmount: Amount(amount),
		}
	}
	return &DisbursementPlan{ID: gen.NewID(), ProjectID: projectID, Items: items}
}

// DedupPlanItems normalizes every item's period and drops later duplicates,
// keeping the first occurrence in iteration order. This save-path dedup is
// the only enforcement of the one-item-per-period invariant; reads and
// storage never enforce it.
func DedupPlanItems(items []PlanItem) []PlanItem {
	return DedupPlanItemsAt(time.Now(), items)
}

// DedupPlanItemsAt is DedupPlanItems with an injected reference time.
func DedupPlanItemsAt(now time.Time, items []PlanItem) []PlanItem {
	seen := make(map[string]bool, len(items))
	out := make([]PlanItem, 0, len(items))
	for _, it := range items {
		it.Period = NormalizePeriodAt(now, it.Period)
		if seen[it.Period] {
			continue
		}
		seen[it.Period] = true
		out = append(out, it)
	}
	return out
}
