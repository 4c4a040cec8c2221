package core

import "math"

// PlanProgress is one plan row joined with its actual spend.
type PlanProgress struct {
	Period  string  `json:"period"`
	Planned float64 `json:"planned"`
	Actual  float64 `json:"actual"`
	Pct     int     `json:"pct"` // actual vs planned, capped at 100
}

// PlanSummary is the compact figure set the dashboard shows for one plan.
type PlanSummary struct {
	TotalPlanned float64        `json:"totalPlanned"`
	TotalActual  float64        `json:"totalActual"`
	Pct          int            `json:"pct"` // overall completion vs plan
	Rows         []PlanProgress `json:"rows"`
}

// Summarize joins a plan with the actual-by-period mapping. A period absent
// from actual counts as 0. Per-row percentages are capped at 100 the way the
// plan card renders them; the overall percentage is not capped.
func Summarize(plan *DisbursementPlan, actual map[string]float64) PlanSummary {
	var s PlanSummary
	if plan == nil {
		return s
	}
	s.Rows = make([]PlanProgress, 0, len(plan.Items))
	for _, it := range plan.Items {
		planned := it.PlannedAmount.Float()
		act := actual[it.Period]
		pct := 0
		if planned != 0 {
			pct = int(math.Round(act / planned * 100))
			if pct > 100 {
				pct = 100
			}
		}
		s.TotalPlanned += planned
		s.TotalActual += act
		s.Rows = append(s.Rows, PlanProgress{Period: it.Period, Planned: planned, Actual: act, Pct: pct})
	}
	if s.TotalPlanned != 0 {
		s.Pct = int(math.Round(s.TotalActual / s.TotalPlanned * 100))
	}
	return s
}
