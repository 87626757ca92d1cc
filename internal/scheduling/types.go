/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package scheduling holds the slot finder and conflict checker. Everything in
// here is a pure function over already-fetched tasks, events and preferences.
package scheduling

import "time"

// EnergyLevel describes the effort a task requires.
type EnergyLevel string

const (
	EnergyHigh   EnergyLevel = "high"
	EnergyMedium EnergyLevel = "medium"
	EnergyLow    EnergyLevel = "low"
)

// Task statuses the scheduler cares about. The kanban board calls it "done".
const (
	StatusCompleted = "completed"
	StatusDone      = "done"
)

// DefaultDurationMinutes is used when a task has no duration.
const DefaultDurationMinutes = 60

// Task is the scheduling view of a task.
type Task struct {
	ID              string
	Title           string
	DurationMinutes int
	Priority        int // 1-5, see PriorityFromLabel
	EnergyLevel     EnergyLevel
	Deadline        *time.Time
	Dependencies    []string
	ScheduledStart  *time.Time
	ScheduledEnd    *time.Time
	Status          string
}

// Duration returns the task duration, defaulting to one hour.
func (t Task) Duration() time.Duration {
	return time.Duration(t.DurationOrDefault()) * time.Minute
}

// DurationOrDefault returns the duration in minutes, defaulting to 60.
func (t Task) DurationOrDefault() int {
	if t.DurationMinutes <= 0 {
		return DefaultDurationMinutes
	}
	return t.DurationMinutes
}

// Completed reports whether the task has reached a completed state.
func (t Task) Completed() bool {
	return t.Status == StatusCompleted || t.Status == StatusDone
}

// IsScheduled reports whether both scheduled bounds are set.
func (t Task) IsScheduled() bool {
	return t.ScheduledStart != nil && t.ScheduledEnd != nil
}

// Event is a busy interval from the calendar.
type Event struct {
	ID        string
	Title     string
	Start     time.Time
	End       time.Time
	Cancelled bool
	AllDay    bool
}

// Preferences are a user's working-hour settings.
type Preferences struct {
	WorkingHoursStart string // "HH:MM"
	WorkingHoursEnd   string // "HH:MM"
	Timezone          string // IANA name
}

// FreeSlot is a gap in the working day.
type FreeSlot struct {
	Start time.Time
	End   time.Time
}

// DurationMinutes returns the slot width in minutes.
func (s FreeSlot) DurationMinutes() int {
	return int(s.End.Sub(s.Start).Minutes())
}

// SuggestedSlot is the placement proposed for a task.
type SuggestedSlot struct {
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	DurationMinutes int       `json:"durationMinutes"`
	Score           int       `json:"-"`
	Reasoning       string    `json:"-"`
}

func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
