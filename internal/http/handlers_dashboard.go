package http

import (
	"net/http"
)

// handleEffectivePlan serves the resolved plan for a project, cached per
// project and plan variant.
func (s *Server) handleEffectivePlan(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("id")
	onlyProject := onlyProjectParam(r)

	key := planCacheKey(projectID, onlyProject)
	if plan, ok := s.planCache.Get(key); ok {
		NewResponse().Header("X-Cache", "HIT").JSON(plan).Write(w)
		return
	}

	plan, err := s.disbursements.EffectivePlan(r.Context(), projectID, onlyProject)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if plan == nil {
		ErrorResponse(http.StatusNotFound, "no plan for project").Write(w)
		return
	}
	s.planCache.Set(key, plan)
	NewResponse().JSON(plan).Write(w)
}

func (s *Server) handleActualByPeriod(w http.ResponseWriter, r *http.Request) {
	actual, err := s.disbursements.ActualByPeriod(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	NewResponse().JSON(actual).Write(w)
}

// handleDashboardSummary serves the plan-versus-actual reconciliation that
// drives the dashboard, cached per project and plan variant.
func (s *Server) handleDashboardSummary(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("id")
	onlyProject := onlyProjectParam(r)

	key := planCacheKey(projectID, onlyProject)
	if summary, ok := s.summaryCache.Get(key); ok {
		NewResponse().Header("X-Cache", "HIT").JSON(summary).Write(w)
		return
	}

	summary, err := s.disbursements.Summary(r.Context(), projectID, onlyProject)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.summaryCache.Set(key, summary)
	NewResponse().JSON(summary).Write(w)
}
