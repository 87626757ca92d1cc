/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"net/http"

	"github.com/friendsincode/observatory/internal/scheduling"
)

type preferencesPayload struct {
	WorkingHoursStart string `json:"workingHoursStart"`
	WorkingHoursEnd   string `json:"workingHoursEnd"`
	Timezone          string `json:"timezone"`
}

func (a *API) handlePreferencesGet(w http.ResponseWriter, r *http.Request) {
	prefs, err := a.planner.Preferences(r.Context(), a.userID(r))
	if err != nil {
		a.writePlannerError(w, r, err, "failed to load preferences")
		return
	}
	writeJSON(w, http.StatusOK, preferencesPayload{
		WorkingHoursStart: prefs.WorkingHoursStart,
		WorkingHoursEnd:   prefs.WorkingHoursEnd,
		Timezone:          prefs.Timezone,
	})
}

func (a *API) handlePreferencesUpdate(w http.ResponseWriter, r *http.Request) {
	var req preferencesPayload
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}

	prefs := scheduling.Preferences{
		WorkingHoursStart: req.WorkingHoursStart,
		WorkingHoursEnd:   req.WorkingHoursEnd,
		Timezone:          req.Timezone,
	}
	if err := a.planner.UpdatePreferences(r.Context(), a.userID(r), prefs); err != nil {
		a.writePlannerError(w, r, err, "failed to update preferences")
		return
	}
	writeJSON(w, http.StatusOK, req)
}
