/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/friendsincode/observatory/internal/models"
	"github.com/friendsincode/observatory/internal/planner"
	"github.com/friendsincode/observatory/internal/schedule"
	"github.com/friendsincode/observatory/internal/scheduling"
)

type scheduleRequest struct {
	TaskID string `json:"taskId"`
	Date   string `json:"date"`
}

type eventResponse struct {
	ID    string    `json:"id"`
	Title string    `json:"title"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type scheduleResponse struct {
	Success       bool                      `json:"success"`
	SuggestedSlot *scheduling.SuggestedSlot `json:"suggestedSlot,omitempty"`
	Conflicts     []eventResponse           `json:"conflicts"`
	Reasoning     string                    `json:"reasoning,omitempty"`
	Message       string                    `json:"message,omitempty"`
	Alternatives  []string                  `json:"alternatives,omitempty"`
}

// handleSchedule suggests a placement for a task on a day.
func (a *API) handleSchedule(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}
	if req.TaskID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "taskId is required")
		return
	}

	suggestion, err := a.planner.Suggest(r.Context(), a.userID(r), req.TaskID, req.Date)
	if err != nil {
		a.writePlannerError(w, r, err, "failed to schedule task")
		return
	}

	if !suggestion.Found {
		writeJSON(w, http.StatusOK, scheduleResponse{
			Success:      false,
			Message:      suggestion.Message,
			Alternatives: suggestion.Alternatives,
		})
		return
	}

	resp := scheduleResponse{
		Success:       true,
		SuggestedSlot: &suggestion.Slot,
		Reasoning:     suggestion.Reasoning,
	}
	// Conflicts stays null when nothing overlaps.
	for _, e := range suggestion.Conflicts {
		resp.Conflicts = append(resp.Conflicts, eventResponse{ID: e.ID, Title: e.Title, Start: e.Start, End: e.End})
	}
	writeJSON(w, http.StatusOK, resp)
}

type conflictsRequest struct {
	TaskID        string `json:"taskId"`
	ProposedStart string `json:"proposedStart"`
	ProposedEnd   string `json:"proposedEnd"`
}

// handleConflicts checks a proposed placement.
func (a *API) handleConflicts(w http.ResponseWriter, r *http.Request) {
	var req conflictsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}
	if req.TaskID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "taskId is required")
		return
	}
	start, end, err := parseInterval(req.ProposedStart, req.ProposedEnd)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	report, err := a.planner.Check(r.Context(), a.userID(r), req.TaskID, start, end)
	if err != nil {
		a.writePlannerError(w, r, err, "failed to check conflicts")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

type confirmRequest struct {
	ProposedStart string `json:"proposedStart"`
	ProposedEnd   string `json:"proposedEnd"`
	Version       int    `json:"version"`
}

type taskResponse struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Status          string     `json:"status"`
	Priority        string     `json:"priority"`
	DurationMinutes int        `json:"durationMinutes"`
	Deadline        *time.Time `json:"deadline,omitempty"`
	ScheduledStart  *time.Time `json:"scheduledStart"`
	ScheduledEnd    *time.Time `json:"scheduledEnd"`
	CalendarEventID string     `json:"calendarEventId,omitempty"`
	Version         int        `json:"version"`
}

func newTaskResponse(t *models.Task) *taskResponse {
	if t == nil {
		return nil
	}
	return &taskResponse{
		ID:              t.ID,
		Title:           t.Title,
		Status:          t.Status,
		Priority:        t.Priority,
		DurationMinutes: t.DurationMinutes,
		Deadline:        t.Deadline,
		ScheduledStart:  t.ScheduledStart,
		ScheduledEnd:    t.ScheduledEnd,
		CalendarEventID: t.CalendarEventID,
		Version:         t.Version,
	}
}

type confirmResponse struct {
	Task      *taskResponse              `json:"task,omitempty"`
	Conflicts *scheduling.ConflictReport `json:"conflicts"`
}

// handleConfirm commits a placement when nothing blocks it.
func (a *API) handleConfirm(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")

	var req confirmRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}
	start, end, err := parseInterval(req.ProposedStart, req.ProposedEnd)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	result, err := a.planner.Confirm(r.Context(), a.userID(r), taskID, start, end, req.Version)
	if errors.Is(err, planner.ErrBlockingConflicts) {
		writeJSON(w, http.StatusConflict, confirmResponse{Conflicts: result.Report})
		return
	}
	if err != nil {
		a.writePlannerError(w, r, err, "failed to confirm schedule")
		return
	}

	writeJSON(w, http.StatusOK, confirmResponse{
		Task:      newTaskResponse(result.Task),
		Conflicts: result.Report,
	})
}

// handleScheduleICS exports the scheduled tasks in [from, to) as iCalendar.
// The range defaults to the next 7 days.
func (a *API) handleScheduleICS(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)

	if v := r.URL.Query().Get("from"); v != "" {
		t, err := time.Parse(scheduling.DateLayout, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "from must be formatted as YYYY-MM-DD")
			return
		}
		from = t
	}
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := time.Parse(scheduling.DateLayout, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "to must be formatted as YYYY-MM-DD")
			return
		}
		to = t
	}

	tasks, err := a.planner.ScheduledTasks(r.Context(), a.userID(r), from, to)
	if err != nil {
		a.writePlannerError(w, r, err, "failed to export schedule")
		return
	}

	result, err := schedule.ExportTasksFile(tasks, from, to, time.Now())
	if err != nil {
		a.logger.Error().Err(err).Msg("ics export failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:   "export_failed",
			Message: "failed to export schedule",
			Details: err.Error(),
		})
		return
	}

	w.Header().Set("Content-Type", result.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", result.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Data)
}

func parseInterval(startStr, endStr string) (time.Time, time.Time, error) {
	if startStr == "" || endStr == "" {
		return time.Time{}, time.Time{}, errors.New("proposedStart and proposedEnd are required")
	}
	start, err := time.Parse(time.RFC3339, startStr)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("proposedStart must be RFC 3339")
	}
	end, err := time.Parse(time.RFC3339, endStr)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("proposedEnd must be RFC 3339")
	}
	return start, end, nil
}
