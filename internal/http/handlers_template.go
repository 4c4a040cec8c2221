package http

import (
	"net/http"

	"giaingan/internal/core"
)

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := s.projects.ListTemplates(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	NewResponse().JSON(templates).Write(w)
}

func (s *Server) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	var t core.ProjectTemplate
	if err := decodeJSON(r, &t); err != nil {
		ErrorResponse(http.StatusBadRequest, err.Error()).Write(w)
		return
	}
	created, err := s.projects.CreateTemplate(r.Context(), t)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	NewResponse().Status(http.StatusCreated).JSON(created).Write(w)
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	t, err := s.projects.GetTemplate(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	NewResponse().JSON(t).Write(w)
}

func (s *Server) handleUpdateTemplate(w http.ResponseWriter, r *http.Request) {
	var t core.ProjectTemplate
	if err := decodeJSON(r, &t); err != nil {
		ErrorResponse(http.StatusBadRequest, err.Error()).Write(w)
		return
	}
	t.ID = r.PathValue("id")
	if err := s.projects.UpdateTemplate(r.Context(), t); err != nil {
		writeDomainError(w, r, err)
		return
	}
	NewResponse().JSON(t).Write(w)
}

func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	if err := s.projects.DeleteTemplate(r.Context(), r.PathValue("id")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	NewResponse().Status(http.StatusNoContent).Write(w)
}
