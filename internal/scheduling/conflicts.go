/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package scheduling

import (
	"fmt"
	"sort"
	"time"
)

// ConflictType names the reason a placement is unsafe.
type ConflictType string

const (
	ConflictCalendarEvent  ConflictType = "calendar_event"
	ConflictOtherTask      ConflictType = "other_task"
	ConflictDependency     ConflictType = "dependency_not_met"
	ConflictDeadlineAtRisk ConflictType = "deadline_at_risk"
	ConflictOutsideHours   ConflictType = "outside_working_hours"
)

// Severity defines how serious a conflict is.
type Severity string

const (
	SeverityBlocking Severity = "blocking" // placement must not proceed
	SeverityWarning  Severity = "warning"  // allowed but flagged
)

// ConflictingItem references the event or task a conflict collides with.
type ConflictingItem struct {
	ID    string     `json:"id"`
	Title string     `json:"title"`
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`
}

// Conflict is one reason a proposed placement is unsafe.
type Conflict struct {
	Type            ConflictType     `json:"type"`
	Severity        Severity         `json:"severity"`
	Message         string           `json:"message"`
	ConflictingItem *ConflictingItem `json:"conflictingItem,omitempty"`
	Suggestion      string           `json:"suggestion,omitempty"`
}

// ConflictReport is the outcome of checking a placement.
type ConflictReport struct {
	HasConflicts  bool       `json:"hasConflicts"`
	BlockingCount int        `json:"blockingCount"`
	WarningCount  int        `json:"warningCount"`
	Conflicts     []Conflict `json:"conflicts"`
	CanSchedule   bool       `json:"canSchedule"`
}

// ConflictInput is everything the checker needs, already fetched.
type ConflictInput struct {
	Task         Task
	Start        time.Time
	End          time.Time
	Events       []Event
	OtherTasks   []Task
	Dependencies []Task // resolved tasks for Task.Dependencies
	Preferences  Preferences
}

// CheckConflicts validates a proposed placement. All checks run; the result
// lists blocking conflicts before warnings.
func CheckConflicts(in ConflictInput, tuning Tuning) ConflictReport {
	var conflicts []Conflict
	loc := in.Preferences.Location()

	conflicts = append(conflicts, checkCalendar(in, loc, tuning)...)
	conflicts = append(conflicts, checkOtherTasks(in)...)
	conflicts = append(conflicts, checkDependencies(in, loc)...)
	conflicts = append(conflicts, checkDeadline(in, loc, tuning)...)
	conflicts = append(conflicts, checkOutsideHours(in, loc, tuning)...)

	return NewConflictReport(conflicts)
}

// NewConflictReport orders conflicts blocking-first and derives the counts.
func NewConflictReport(conflicts []Conflict) ConflictReport {
	if conflicts == nil {
		conflicts = []Conflict{}
	}
	sort.SliceStable(conflicts, func(i, j int) bool {
		return conflicts[i].Severity == SeverityBlocking && conflicts[j].Severity != SeverityBlocking
	})

	report := ConflictReport{
		HasConflicts: len(conflicts) > 0,
		Conflicts:    conflicts,
	}
	for _, c := range conflicts {
		switch c.Severity {
		case SeverityBlocking:
			report.BlockingCount++
		case SeverityWarning:
			report.WarningCount++
		}
	}
	report.CanSchedule = report.BlockingCount == 0
	return report
}

func checkCalendar(in ConflictInput, loc *time.Location, tuning Tuning) []Conflict {
	var out []Conflict
	for _, e := range in.Events {
		if e.Cancelled || !overlaps(in.Start, in.End, e.Start, e.End) {
			continue
		}

		overlap := minTime(in.End, e.End).Sub(maxTime(in.Start, e.Start))
		severity := SeverityWarning
		if overlap > tuning.CalendarBlockingOverlap {
			severity = SeverityBlocking
		}

		start, end := e.Start, e.End
		out = append(out, Conflict{
			Type:     ConflictCalendarEvent,
			Severity: severity,
			Message:  fmt.Sprintf("Overlaps with %q for %d minutes", e.Title, int(overlap.Minutes())),
			ConflictingItem: &ConflictingItem{
				ID:    e.ID,
				Title: e.Title,
				Start: &start,
				End:   &end,
			},
			Suggestion: fmt.Sprintf("Reschedule to after %s", e.End.In(loc).Format("3:04 PM")),
		})
	}
	return out
}

func checkOtherTasks(in ConflictInput) []Conflict {
	var out []Conflict
	for _, other := range in.OtherTasks {
		if other.ID == in.Task.ID || other.Completed() || !other.IsScheduled() {
			continue
		}
		if !overlaps(in.Start, in.End, *other.ScheduledStart, *other.ScheduledEnd) {
			continue
		}

		start, end := *other.ScheduledStart, *other.ScheduledEnd
		out = append(out, Conflict{
			Type:     ConflictOtherTask,
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("Overlaps with task %q", other.Title),
			ConflictingItem: &ConflictingItem{
				ID:    other.ID,
				Title: other.Title,
				Start: &start,
				End:   &end,
			},
			Suggestion: "Consider batching these tasks or scheduling them one after the other",
		})
	}
	return out
}

func checkDependencies(in ConflictInput, loc *time.Location) []Conflict {
	resolved := make(map[string]Task, len(in.Dependencies))
	for _, dep := range in.Dependencies {
		resolved[dep.ID] = dep
	}

	var out []Conflict
	for _, depID := range in.Task.Dependencies {
		dep, ok := resolved[depID]
		if !ok {
			out = append(out, Conflict{
				Type:            ConflictDependency,
				Severity:        SeverityBlocking,
				Message:         fmt.Sprintf("Depends on unknown task %s", depID),
				ConflictingItem: &ConflictingItem{ID: depID},
				Suggestion:      "Remove the dependency or restore the missing task",
			})
			continue
		}
		if dep.Completed() {
			continue
		}
		if dep.ScheduledEnd != nil && dep.ScheduledEnd.Before(in.Start) {
			continue
		}

		item := &ConflictingItem{ID: dep.ID, Title: dep.Title}
		suggestion := "Complete dependency task first"
		if dep.ScheduledEnd != nil {
			end := *dep.ScheduledEnd
			item.Start, item.End = &end, &end
			suggestion = fmt.Sprintf("Schedule after %s", end.In(loc).Format("Mon Jan 2 3:04 PM"))
		}

		out = append(out, Conflict{
			Type:            ConflictDependency,
			Severity:        SeverityBlocking,
			Message:         fmt.Sprintf("Depends on incomplete task %q", dep.Title),
			ConflictingItem: item,
			Suggestion:      suggestion,
		})
	}
	return out
}

func checkDeadline(in ConflictInput, loc *time.Location, tuning Tuning) []Conflict {
	if in.Task.Deadline == nil {
		return nil
	}
	deadline := *in.Task.Deadline
	if !in.End.After(deadline.Add(-tuning.DeadlineBuffer)) {
		return nil
	}
	return []Conflict{{
		Type:       ConflictDeadlineAtRisk,
		Severity:   SeverityWarning,
		Message:    fmt.Sprintf("Task ends close to its deadline (%s)", deadline.In(loc).Format(DateLayout)),
		Suggestion: "Consider scheduling earlier or adjusting the deadline",
	}}
}

func checkOutsideHours(in ConflictInput, loc *time.Location, tuning Tuning) []Conflict {
	hour := in.Start.In(loc).Hour()
	if hour >= tuning.EarliestReasonableHour && hour < tuning.LatestReasonableHour {
		return nil
	}
	return []Conflict{{
		Type:       ConflictOutsideHours,
		Severity:   SeverityWarning,
		Message:    fmt.Sprintf("Scheduled outside typical working hours (%02d:00)", hour),
		Suggestion: "Consider if this is intentional or should be moved",
	}}
}
