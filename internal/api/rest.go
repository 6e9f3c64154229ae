package api

import (
	"net/http"

	"github.com/Kerhoff/todoapi/internal/models"
)

// The REST view exposes the same operations as the RPC surface with bare
// JSON bodies and {"error": "..."} failures.

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, _, msg := s.classify(r, err)
	s.respondError(w, status, msg)
}

func (s *Server) handleGetTodos(w http.ResponseWriter, r *http.Request) {
	todos, err := s.svc.ListTodos(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, todos)
}

func (s *Server) handleCreateTodo(w http.ResponseWriter, r *http.Request) {
	var req models.CreateTodoInput
	if err := decodeJSON(w, r, &req, false); err != nil {
		s.fail(w, r, err)
		return
	}

	created, err := s.svc.CreateTodo(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateTodo(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var req models.UpdateTodoInput
	if err := decodeJSON(w, r, &req, false); err != nil {
		s.fail(w, r, err)
		return
	}
	if req.ID != 0 && req.ID != id {
		s.respondError(w, http.StatusBadRequest, "id in body does not match path")
		return
	}
	req.ID = id

	updated, err := s.svc.UpdateTodo(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, updated)
}

func (s *Server) handleToggleTodo(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	toggled, err := s.svc.ToggleTodo(r.Context(), models.ToggleTodoInput{ID: id})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, toggled)
}

func (s *Server) handleDeleteTodo(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	result, err := s.svc.DeleteTodo(r.Context(), models.DeleteTodoInput{ID: id})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.Stats(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, stats)
}
