package http

import (
	"net/http"

	"timecard/internal/core"
)

type createTodoRequest struct {
	Date  string `json:"date"`
	Title string `json:"title"`
	Notes string `json:"notes,omitempty"`
}

// handleListTodos returns todos grouped by date.
func (s *Server) handleListTodos(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(nonNil(s.tracker.Todos.Grouped(r.Context()))).Write(w)
}

func (s *Server) handleCreateTodo(w http.ResponseWriter, r *http.Request) {
	var req createTodoRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	t, err := s.tracker.Todos.Add(r.Context(), req.Date, sanitizeInput(req.Title), sanitizeInput(req.Notes))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(t).Write(w)
}

func (s *Server) handleToggleTodo(w http.ResponseWriter, r *http.Request) {
	t, found, err := s.tracker.Todos.Toggle(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !found {
		writeError(w, r, core.ErrTodoNotFound)
		return
	}
	NewJSONResponse().Body(t).Write(w)
}

func (s *Server) handleDeleteTodo(w http.ResponseWriter, r *http.Request) {
	found, err := s.tracker.Todos.Delete(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !found {
		writeError(w, r, core.ErrTodoNotFound)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}
