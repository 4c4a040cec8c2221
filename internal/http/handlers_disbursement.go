package http

import (
	"context"
	"net/http"
	"strings"

	"giaingan/internal/core"
)

func (s *Server) handleListRequests(w http.ResponseWriter, r *http.Request) {
	var (
		requests []core.DisbursementRequest
		err      error
	)
	if projectID := strings.TrimSpace(r.URL.Query().Get("project")); projectID != "" {
		requests, err = s.disbursements.ListProjectRequests(r.Context(), projectID)
	} else {
		requests, err = s.disbursements.ListRequests(r.Context())
	}
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	NewResponse().JSON(requests).Write(w)
}

func (s *Server) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	var req core.DisbursementRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(http.StatusBadRequest, err.Error()).Write(w)
		return
	}
	created, err := s.disbursements.CreateRequest(r.Context(), req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.invalidateProject(created.ProjectID)
	NewResponse().Status(http.StatusCreated).JSON(created).Write(w)
}

func (s *Server) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	req, err := s.disbursements.GetRequest(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	NewResponse().JSON(req).Write(w)
}

func (s *Server) handleUpdateRequest(w http.ResponseWriter, r *http.Request) {
	var req core.DisbursementRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(http.StatusBadRequest, err.Error()).Write(w)
		return
	}
	req.ID = r.PathValue("id")
	// An update may move the request between projects; the old project's
	// aggregates change too, so resolve its owner before writing.
	prior, err := s.disbursements.GetRequest(r.Context(), req.ID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if err := s.disbursements.UpdateRequest(r.Context(), req); err != nil {
		writeDomainError(w, r, err)
		return
	}
	// Lifecycle fields are preserved server-side; echo the stored version.
	updated, err := s.disbursements.GetRequest(r.Context(), req.ID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.invalidateProject(prior.ProjectID)
	if updated.ProjectID != prior.ProjectID {
		s.invalidateProject(updated.ProjectID)
	}
	NewResponse().JSON(updated).Write(w)
}

// handleDeleteRequest removes a request at any lifecycle state.
func (s *Server) handleDeleteRequest(w http.ResponseWriter, r *http.Request) {
	// Resolve the owning project before the document disappears.
	req, err := s.disbursements.GetRequest(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if err := s.disbursements.DeleteRequest(r.Context(), req.ID); err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.invalidateProject(req.ProjectID)
	NewResponse().Status(http.StatusNoContent).Write(w)
}

// transitionHandler wraps a lifecycle move into a POST handler. Illegal
// transitions surface as 409.
func (s *Server) transitionHandler(move func(ctx context.Context, id string) (core.DisbursementRequest, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := move(r.Context(), r.PathValue("id"))
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		s.invalidateProject(req.ProjectID)
		NewResponse().JSON(req).Write(w)
	}
}

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := s.disbursements.ListPlans(r.Context(), onlyProjectParam(r))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	NewResponse().JSON(plans).Write(w)
}

func (s *Server) handleSavePlan(w http.ResponseWriter, r *http.Request) {
	var plan core.DisbursementPlan
	if err := decodeJSON(r, &plan); err != nil {
		ErrorResponse(http.StatusBadRequest, err.Error()).Write(w)
		return
	}
	saved, err := s.disbursements.SavePlan(r.Context(), plan, onlyProjectParam(r))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.invalidateProject(saved.ProjectID)
	NewResponse().Status(http.StatusCreated).JSON(saved).Write(w)
}

func (s *Server) handleSavePlanByID(w http.ResponseWriter, r *http.Request) {
	var plan core.DisbursementPlan
	if err := decodeJSON(r, &plan); err != nil {
		ErrorResponse(http.StatusBadRequest, err.Error()).Write(w)
		return
	}
	plan.ID = r.PathValue("id")
	onlyProject := onlyProjectParam(r)
	// A save may reassign the plan to another project; invalidate the old
	// owner as well. A missing prior plan just means this PUT creates it.
	prior, priorErr := s.disbursements.GetPlan(r.Context(), plan.ID, onlyProject)
	saved, err := s.disbursements.SavePlan(r.Context(), plan, onlyProject)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if priorErr == nil && prior.ProjectID != saved.ProjectID {
		s.invalidateProject(prior.ProjectID)
	}
	s.invalidateProject(saved.ProjectID)
	NewResponse().JSON(saved).Write(w)
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := s.disbursements.GetPlan(r.Context(), r.PathValue("id"), onlyProjectParam(r))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	NewResponse().JSON(plan).Write(w)
}

func (s *Server) handleDeletePlan(w http.ResponseWriter, r *http.Request) {
	onlyProject := onlyProjectParam(r)
	plan, err := s.disbursements.GetPlan(r.Context(), r.PathValue("id"), onlyProject)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if err := s.disbursements.DeletePlan(r.Context(), plan.ID, onlyProject); err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.invalidateProject(plan.ProjectID)
	NewResponse().Status(http.StatusNoContent).Write(w)
}

// onlyProjectParam selects the per-project-only plan collection.
func onlyProjectParam(r *http.Request) bool {
	return r.URL.Query().Get("only_project") == "true"
}

func planCacheKey(projectID string, onlyProject bool) string {
	if onlyProject {
		return "only|" + projectID
	}
	return "fleet|" + projectID
}

// invalidateProject drops the cached dashboard aggregates for a project,
// both plan variants.
func (s *Server) invalidateProject(projectID string) {
	for _, onlyProject := range []bool{false, true} {
		key := planCacheKey(projectID, onlyProject)
		s.planCache.Delete(key)
		s.summaryCache.Delete(key)
	}
}
