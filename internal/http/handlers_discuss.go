package http

import (
	"net/http"

	"giaingan/internal/core"
)

func (s *Server) handleListChannels(w http.ResponseWriter, r *http.Request) {
	channels, err := s.discussions.ListChannels(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	NewResponse().JSON(channels).Write(w)
}

func (s *Server) handleCreateChannel(w http.ResponseWriter, r *http.Request) {
	var c core.Channel
	if err := decodeJSON(r, &c); err != nil {
		ErrorResponse(http.StatusBadRequest, err.Error()).Write(w)
		return
	}
	created, err := s.discussions.CreateChannel(r.Context(), r.PathValue("id"), c)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	NewResponse().Status(http.StatusCreated).JSON(created).Write(w)
}

func (s *Server) handleDeleteChannel(w http.ResponseWriter, r *http.Request) {
	err := s.discussions.DeleteChannel(r.Context(), r.PathValue("id"), r.PathValue("channelID"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	NewResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := s.discussions.ListMessages(r.Context(), r.PathValue("id"), r.PathValue("channelID"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	NewResponse().JSON(messages).Write(w)
}

func (s *Server) handlePostMessage(w http.ResponseWriter, r *http.Request) {
	var m core.Message
	if err := decodeJSON(r, &m); err != nil {
		ErrorResponse(http.StatusBadRequest, err.Error()).Write(w)
		return
	}
	created, err := s.discussions.PostMessage(r.Context(), r.PathValue("id"), r.PathValue("channelID"), m)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	NewResponse().Status(http.StatusCreated).JSON(created).Write(w)
}
