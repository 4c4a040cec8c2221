package http

import (
	"net/http"
	"strings"

	"giaingan/internal/core"
)

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.projects.List(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	NewResponse().JSON(projects).Write(w)
}

// handleCreateProject creates a project, optionally instantiated from a
// template via the "template" query parameter.
func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var p core.Project
	if err := decodeJSON(r, &p); err != nil {
		ErrorResponse(http.StatusBadRequest, err.Error()).Write(w)
		return
	}

	var created core.Project
	var err error
	if templateID := strings.TrimSpace(r.URL.Query().Get("template")); templateID != "" {
		created, err = s.projects.CreateFromTemplate(r.Context(), p, templateID)
	} else {
		created, err = s.projects.Create(r.Context(), p)
	}
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	NewResponse().Status(http.StatusCreated).JSON(created).Write(w)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	p, err := s.projects.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	NewResponse().JSON(p).Write(w)
}

func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	var p core.Project
	if err := decodeJSON(r, &p); err != nil {
		ErrorResponse(http.StatusBadRequest, err.Error()).Write(w)
		return
	}
	p.ID = r.PathValue("id")
	if err := s.projects.Update(r.Context(), p); err != nil {
		writeDomainError(w, r, err)
		return
	}
	NewResponse().JSON(p).Write(w)
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := s.projects.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	NewResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleAddMilestone(w http.ResponseWriter, r *http.Request) {
	var m core.Milestone
	if err := decodeJSON(r, &m); err != nil {
		ErrorResponse(http.StatusBadRequest, err.Error()).Write(w)
		return
	}
	created, err := s.projects.AddMilestone(r.Context(), r.PathValue("id"), m)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	NewResponse().Status(http.StatusCreated).JSON(created).Write(w)
}

func (s *Server) handleUpdateMilestone(w http.ResponseWriter, r *http.Request) {
	var m core.Milestone
	if err := decodeJSON(r, &m); err != nil {
		ErrorResponse(http.StatusBadRequest, err.Error()).Write(w)
		return
	}
	m.ID = r.PathValue("milestoneID")
	if err := s.projects.UpdateMilestone(r.Context(), r.PathValue("id"), m); err != nil {
		writeDomainError(w, r, err)
		return
	}
	NewResponse().JSON(m).Write(w)
}

func (s *Server) handleRemoveMilestone(w http.ResponseWriter, r *http.Request) {
	err := s.projects.RemoveMilestone(r.Context(), r.PathValue("id"), r.PathValue("milestoneID"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	NewResponse().Status(http.StatusNoContent).Write(w)
}
