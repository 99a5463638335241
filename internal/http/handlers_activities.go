package http

import (
	"net/http"

	"timecard/internal/core"
	"timecard/internal/services"
)

type createActivityRequest struct {
	Name       string    `json:"name"`
	HourlyWage wageField `json:"hourlyWage"`
}

type updateActivityRequest struct {
	Name       *string    `json:"name,omitempty"`
	HourlyWage *wageField `json:"hourlyWage,omitempty"`
	Active     *bool      `json:"active,omitempty"`
	SortOrder  *int       `json:"sortOrder,omitempty"`
}

type setActiveRequest struct {
	Active bool `json:"active"`
}

// handleListActivities lists every activity, or only active ones with ?active=true.
func (s *Server) handleListActivities(w http.ResponseWriter, r *http.Request) {
	var out []core.Activity
	if r.URL.Query().Get("active") == "true" {
		out = s.tracker.Activities.ListActive(r.Context())
	} else {
		out = s.tracker.Activities.List(r.Context())
	}
	NewJSONResponse().Body(nonNil(out)).Write(w)
}

func (s *Server) handleCreateActivity(w http.ResponseWriter, r *http.Request) {
	var req createActivityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	a, err := s.tracker.Activities.Create(r.Context(), sanitizeInput(req.Name), int64(req.HourlyWage))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(a).Write(w)
}

func (s *Server) handleUpdateActivity(w http.ResponseWriter, r *http.Request) {
	var req updateActivityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	patch := services.ActivityPatch{Active: req.Active, SortOrder: req.SortOrder}
	if req.Name != nil {
		name := sanitizeInput(*req.Name)
		patch.Name = &name
	}
	if req.HourlyWage != nil {
		wage := int64(*req.HourlyWage)
		patch.HourlyWage = &wage
	}

	a, found, err := s.tracker.Activities.Update(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !found {
		writeError(w, r, core.ErrActivityNotFound)
		return
	}
	NewJSONResponse().Body(a).Write(w)
}

func (s *Server) handleSetActivityActive(w http.ResponseWriter, r *http.Request) {
	var req setActiveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	found, err := s.tracker.Activities.SetActive(r.Context(), r.PathValue("id"), req.Active)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !found {
		writeError(w, r, core.ErrActivityNotFound)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

// handleDeleteActivity keeps the sessions recorded against the activity.
func (s *Server) handleDeleteActivity(w http.ResponseWriter, r *http.Request) {
	found, err := s.tracker.Activities.Delete(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !found {
		writeError(w, r, core.ErrActivityNotFound)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

// nonNil makes empty lists encode as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
