/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package scheduling

import (
	"math/rand"
	"testing"
	"time"
)

func countType(report ConflictReport, typ ConflictType) int {
	n := 0
	for _, c := range report.Conflicts {
		if c.Type == typ {
			n++
		}
	}
	return n
}

func assertBlockingFirst(t *testing.T, report ConflictReport) {
	t.Helper()
	seenWarning := false
	for i, c := range report.Conflicts {
		if c.Severity == SeverityWarning {
			seenWarning = true
		}
		if c.Severity == SeverityBlocking && seenWarning {
			t.Fatalf("blocking conflict at index %d after a warning: %+v", i, report.Conflicts)
		}
	}
}

func TestCheckConflictsCalendar(t *testing.T) {
	event := Event{ID: "e1", Title: "Design review", Start: at(10, 0), End: at(11, 0)}

	tests := []struct {
		name         string
		start, end   time.Time
		events       []Event
		wantCount    int
		wantSeverity Severity
	}{
		{
			name:         "exact match is blocking",
			start:        at(10, 0),
			end:          at(11, 0),
			events:       []Event{event},
			wantCount:    1,
			wantSeverity: SeverityBlocking,
		},
		{
			name:         "fifteen minute overlap is a warning",
			start:        at(10, 45),
			end:          at(11, 45),
			events:       []Event{event},
			wantCount:    1,
			wantSeverity: SeverityWarning,
		},
		{
			name:         "sixteen minute overlap blocks",
			start:        at(10, 44),
			end:          at(11, 44),
			events:       []Event{event},
			wantCount:    1,
			wantSeverity: SeverityBlocking,
		},
		{
			name:      "touching is not an overlap",
			start:     at(11, 0),
			end:       at(12, 0),
			events:    []Event{event},
			wantCount: 0,
		},
		{
			name:      "cancelled events are ignored",
			start:     at(10, 0),
			end:       at(11, 0),
			events:    []Event{{ID: "e2", Start: at(10, 0), End: at(11, 0), Cancelled: true}},
			wantCount: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := CheckConflicts(ConflictInput{
				Task:   Task{ID: "t1"},
				Start:  tt.start,
				End:    tt.end,
				Events: tt.events,
			}, DefaultTuning())

			if got := countType(report, ConflictCalendarEvent); got != tt.wantCount {
				t.Fatalf("calendar conflicts = %d, want %d", got, tt.wantCount)
			}
			if tt.wantCount == 0 {
				return
			}
			c := report.Conflicts[0]
			if c.Severity != tt.wantSeverity {
				t.Errorf("severity = %s, want %s", c.Severity, tt.wantSeverity)
			}
			if c.ConflictingItem == nil || c.ConflictingItem.ID != "e1" {
				t.Errorf("conflicting item = %+v, want e1", c.ConflictingItem)
			}
			if c.Suggestion != "Reschedule to after 11:00 AM" {
				t.Errorf("suggestion = %q", c.Suggestion)
			}
		})
	}
}

func TestCheckConflictsOtherTasks(t *testing.T) {
	others := []Task{
		{ID: "self", Title: "Self", ScheduledStart: ptr(at(10, 0)), ScheduledEnd: ptr(at(11, 0))},
		{ID: "done", Title: "Done", Status: StatusDone, ScheduledStart: ptr(at(10, 0)), ScheduledEnd: ptr(at(11, 0))},
		{ID: "unscheduled", Title: "Loose"},
		{ID: "half", Title: "Half", ScheduledStart: ptr(at(10, 0))},
		{ID: "o1", Title: "Inbox zero", ScheduledStart: ptr(at(9, 0)), ScheduledEnd: ptr(at(12, 0))},
	}

	report := CheckConflicts(ConflictInput{
		Task:       Task{ID: "self"},
		Start:      at(10, 0),
		End:        at(11, 0),
		OtherTasks: others,
	}, DefaultTuning())

	if got := countType(report, ConflictOtherTask); got != 1 {
		t.Fatalf("other_task conflicts = %d, want 1: %+v", got, report.Conflicts)
	}
	c := report.Conflicts[0]
	if c.Severity != SeverityWarning {
		t.Errorf("severity = %s, want warning even for full overlap", c.Severity)
	}
	if c.ConflictingItem.ID != "o1" {
		t.Errorf("conflicting item = %s, want o1", c.ConflictingItem.ID)
	}
	if !report.CanSchedule {
		t.Error("other task overlap should not prevent scheduling")
	}
}

func TestCheckConflictsDependencies(t *testing.T) {
	start, end := at(14, 0), at(15, 0)

	tests := []struct {
		name           string
		deps           []Task
		wantBlocking   int
		wantSuggestion string
	}{
		{
			name:           "incomplete without end time",
			deps:           []Task{{ID: "d1", Title: "Research"}},
			wantBlocking:   1,
			wantSuggestion: "Complete dependency task first",
		},
		{
			name:           "ends at proposed start",
			deps:           []Task{{ID: "d1", Title: "Research", ScheduledEnd: ptr(at(14, 0))}},
			wantBlocking:   1,
			wantSuggestion: "Schedule after Tue Mar 10 2:00 PM",
		},
		{
			name:         "ends before proposed start",
			deps:         []Task{{ID: "d1", Title: "Research", ScheduledEnd: ptr(at(13, 0))}},
			wantBlocking: 0,
		},
		{
			name:         "completed dependency",
			deps:         []Task{{ID: "d1", Title: "Research", Status: StatusCompleted}},
			wantBlocking: 0,
		},
		{
			name:           "unknown dependency",
			deps:           nil,
			wantBlocking:   1,
			wantSuggestion: "Remove the dependency or restore the missing task",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := CheckConflicts(ConflictInput{
				Task:         Task{ID: "t1", Dependencies: []string{"d1"}},
				Start:        start,
				End:          end,
				Dependencies: tt.deps,
			}, DefaultTuning())

			if report.BlockingCount != tt.wantBlocking {
				t.Fatalf("blocking = %d, want %d: %+v", report.BlockingCount, tt.wantBlocking, report.Conflicts)
			}
			if report.CanSchedule != (tt.wantBlocking == 0) {
				t.Errorf("canSchedule = %v", report.CanSchedule)
			}
			if tt.wantBlocking == 0 {
				return
			}
			c := report.Conflicts[0]
			if c.Type != ConflictDependency {
				t.Errorf("type = %s, want %s", c.Type, ConflictDependency)
			}
			if c.Suggestion != tt.wantSuggestion {
				t.Errorf("suggestion = %q, want %q", c.Suggestion, tt.wantSuggestion)
			}
		})
	}
}

func TestCheckConflictsDeadline(t *testing.T) {
	deadline := time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC)

	report := CheckConflicts(ConflictInput{
		Task:  Task{ID: "t1", Deadline: &deadline},
		Start: at(21, 0),
		End:   at(21, 30),
	}, DefaultTuning())

	if got := countType(report, ConflictDeadlineAtRisk); got != 1 {
		t.Fatalf("deadline conflicts = %d, want 1: %+v", got, report.Conflicts)
	}
	if report.BlockingCount != 0 {
		t.Errorf("deadline proximity should never block")
	}

	report = CheckConflicts(ConflictInput{
		Task:  Task{ID: "t1", Deadline: &deadline},
		Start: at(8, 0),
		End:   at(9, 0),
	}, DefaultTuning())
	if got := countType(report, ConflictDeadlineAtRisk); got != 0 {
		t.Errorf("ending exactly 24h before the deadline should not warn")
	}
}

func TestCheckConflictsLateEvening(t *testing.T) {
	report := CheckConflicts(ConflictInput{
		Task:  Task{ID: "t1"},
		Start: at(23, 0),
		End:   at(23, 30),
	}, DefaultTuning())

	if len(report.Conflicts) != 1 {
		t.Fatalf("conflicts = %+v, want exactly one", report.Conflicts)
	}
	c := report.Conflicts[0]
	if c.Severity != SeverityWarning || c.Type != ConflictOutsideHours {
		t.Errorf("conflict = %+v, want outside-hours warning", c)
	}
	if !report.CanSchedule || !report.HasConflicts || report.WarningCount != 1 {
		t.Errorf("report = %+v", report)
	}
}

func TestCheckConflictsOutsideHoursBoundaries(t *testing.T) {
	tests := []struct {
		hour int
		want int
	}{
		{6, 1},
		{7, 0},
		{21, 0},
		{22, 1},
	}
	for _, tt := range tests {
		report := CheckConflicts(ConflictInput{Start: at(tt.hour, 0), End: at(tt.hour, 30)}, DefaultTuning())
		if got := countType(report, ConflictOutsideHours); got != tt.want {
			t.Errorf("hour %d: outside-hours conflicts = %d, want %d", tt.hour, got, tt.want)
		}
	}
}

func TestCheckConflictsUsesUserTimezone(t *testing.T) {
	if _, err := time.LoadLocation("Asia/Tokyo"); err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	// 01:00 UTC is 10:00 in Tokyo.
	report := CheckConflicts(ConflictInput{
		Start:       at(1, 0),
		End:         at(2, 0),
		Preferences: Preferences{Timezone: "Asia/Tokyo"},
	}, DefaultTuning())
	if report.HasConflicts {
		t.Errorf("conflicts = %+v, want none", report.Conflicts)
	}
}

func TestCheckConflictsClean(t *testing.T) {
	deadline := at(0, 0).Add(7 * 24 * time.Hour)
	report := CheckConflicts(ConflictInput{
		Task:         Task{ID: "t1", Deadline: &deadline, Dependencies: []string{"d1"}},
		Start:        at(13, 0),
		End:          at(14, 0),
		Events:       []Event{{ID: "e1", Start: at(10, 0), End: at(11, 0)}},
		OtherTasks:   []Task{{ID: "o1", ScheduledStart: ptr(at(14, 0)), ScheduledEnd: ptr(at(15, 0))}},
		Dependencies: []Task{{ID: "d1", Status: StatusCompleted}},
	}, DefaultTuning())

	if report.HasConflicts || !report.CanSchedule {
		t.Errorf("report = %+v, want clean", report)
	}
	if report.Conflicts == nil {
		t.Error("conflicts should be an empty list, not nil")
	}
}

func TestCheckConflictsOrdering(t *testing.T) {
	report := CheckConflicts(ConflictInput{
		Task:   Task{ID: "t1", Dependencies: []string{"d1"}},
		Start:  at(23, 0),
		End:    at(23, 45),
		Events: []Event{{ID: "e1", Title: "Late call", Start: at(23, 0), End: at(23, 45)}},
		OtherTasks: []Task{
			{ID: "o1", Title: "Other", ScheduledStart: ptr(at(23, 0)), ScheduledEnd: ptr(at(23, 30))},
		},
		Dependencies: []Task{{ID: "d1", Title: "Prep"}},
	}, DefaultTuning())

	if report.BlockingCount != 2 || report.WarningCount != 2 {
		t.Fatalf("blocking=%d warning=%d, want 2 and 2: %+v", report.BlockingCount, report.WarningCount, report.Conflicts)
	}
	assertBlockingFirst(t, report)
	if report.Conflicts[0].Type != ConflictCalendarEvent || report.Conflicts[1].Type != ConflictDependency {
		t.Errorf("blocking order = %s, %s", report.Conflicts[0].Type, report.Conflicts[1].Type)
	}
	if report.CanSchedule {
		t.Error("canSchedule should be false with blocking conflicts")
	}
}

func TestCheckConflictsProperties(t *testing.T) {
	r := rand.New(rand.NewSource(99))
	tuning := DefaultTuning()

	for i := 0; i < 500; i++ {
		events := randomEvents(r)
		var deps []Task
		var depIDs []string
		if r.Intn(3) == 0 {
			deps = append(deps, Task{ID: "d1"})
			depIDs = append(depIDs, "d1")
		}
		start := at(0, 0).Add(time.Duration(r.Intn(96)) * 15 * time.Minute)
		end := start.Add(time.Duration(1+r.Intn(8)) * 15 * time.Minute)

		report := CheckConflicts(ConflictInput{
			Task:         Task{ID: "t1", Dependencies: depIDs},
			Start:        start,
			End:          end,
			Events:       events,
			Dependencies: deps,
		}, tuning)

		assertBlockingFirst(t, report)
		if report.BlockingCount+report.WarningCount != len(report.Conflicts) {
			t.Fatalf("case %d: counts do not add up: %+v", i, report)
		}
		if report.CanSchedule != (report.BlockingCount == 0) {
			t.Fatalf("case %d: canSchedule inconsistent: %+v", i, report)
		}
		if len(deps) > 0 && report.BlockingCount == 0 {
			t.Fatalf("case %d: unscheduled dependency did not block", i)
		}
		for _, e := range events {
			if !e.Cancelled && e.Start.Equal(start) && e.End.Equal(end) && report.BlockingCount == 0 {
				t.Fatalf("case %d: exact match with %v-%v did not block", i, e.Start, e.End)
			}
		}
	}
}
