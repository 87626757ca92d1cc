/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/friendsincode/observatory/internal/logging"
	"github.com/friendsincode/observatory/internal/planner"
)

// UserHeader carries the caller's user id.
const UserHeader = "X-User-ID"

// API exposes HTTP handlers.
type API struct {
	planner     *planner.Service
	defaultUser string
	logger      zerolog.Logger
}

// New creates the API router wrapper. defaultUser is used when a request
// carries no user header.
func New(p *planner.Service, defaultUser string, logger zerolog.Logger) *API {
	return &API{
		planner:     p,
		defaultUser: defaultUser,
		logger:      logging.Component(logger, "api"),
	}
}

// Routes registers all API routes.
func (a *API) Routes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", a.handleHealth)

		r.Route("/tasks", func(r chi.Router) {
			r.Post("/schedule", a.handleSchedule)
			r.Post("/conflicts", a.handleConflicts)
			r.Get("/schedule.ics", a.handleScheduleICS)
			r.Post("/{taskID}/confirm", a.handleConfirm)
		})

		r.Get("/preferences", a.handlePreferencesGet)
		r.Put("/preferences", a.handlePreferencesUpdate)
	})
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) userID(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(UserHeader)); id != "" {
		return id
	}
	return a.defaultUser
}

func decodeJSON(r *http.Request, dest any) error {
	dec := json.NewDecoder(r.Body)
	return dec.Decode(dest)
}

// writePlannerError maps planner errors onto status codes. Anything not
// recognised is logged and reported as a 500 carrying msg and the
// underlying error text.
func (a *API) writePlannerError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	switch {
	case errors.Is(err, planner.ErrTaskNotFound):
		writeError(w, http.StatusNotFound, "task_not_found", err.Error())
	case errors.Is(err, planner.ErrInvalidInterval),
		errors.Is(err, planner.ErrInvalidDate),
		errors.Is(err, planner.ErrInvalidPreferences):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, planner.ErrVersionConflict):
		writeError(w, http.StatusConflict, "version_conflict", err.Error())
	default:
		a.logger.Error().Err(err).Str("path", r.URL.Path).Msg(msg)
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:   "internal_error",
			Message: msg,
			Details: err.Error(),
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Details string `json:"details,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, errorResponse{Error: code, Details: details})
}
