package http

import (
	"net/http"

	"giaingan/internal/core"
)

func (s *Server) handleListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := s.groups.List(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	NewResponse().JSON(groups).Write(w)
}

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var g core.Group
	if err := decodeJSON(r, &g); err != nil {
		ErrorResponse(http.StatusBadRequest, err.Error()).Write(w)
		return
	}
	created, err := s.groups.Create(r.Context(), g)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	NewResponse().Status(http.StatusCreated).JSON(created).Write(w)
}

func (s *Server) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	g, err := s.groups.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	NewResponse().JSON(g).Write(w)
}

func (s *Server) handleUpdateGroup(w http.ResponseWriter, r *http.Request) {
	var g core.Group
	if err := decodeJSON(r, &g); err != nil {
		ErrorResponse(http.StatusBadRequest, err.Error()).Write(w)
		return
	}
	g.ID = r.PathValue("id")
	if err := s.groups.Update(r.Context(), g); err != nil {
		writeDomainError(w, r, err)
		return
	}
	NewResponse().JSON(g).Write(w)
}

func (s *Server) handleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	if err := s.groups.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	NewResponse().Status(http.StatusNoContent).Write(w)
}
