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

var testDay = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return time.Date(2026, 3, 10, hour, minute, 0, 0, time.UTC)
}

func ptr(t time.Time) *time.Time { return &t }

func TestWorkingWindow(t *testing.T) {
	tuning := DefaultTuning()

	tests := []struct {
		name      string
		prefs     Preferences
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			name:      "defaults when preferences are empty",
			prefs:     Preferences{},
			wantStart: at(9, 0),
			wantEnd:   at(17, 0),
		},
		{
			name:      "explicit hours",
			prefs:     Preferences{WorkingHoursStart: "08:30", WorkingHoursEnd: "18:00"},
			wantStart: at(8, 30),
			wantEnd:   at(18, 0),
		},
		{
			name:      "seconds are accepted",
			prefs:     Preferences{WorkingHoursStart: "07:00:00", WorkingHoursEnd: "15:00:00"},
			wantStart: at(7, 0),
			wantEnd:   at(15, 0),
		},
		{
			name:      "malformed values fall back",
			prefs:     Preferences{WorkingHoursStart: "morning", WorkingHoursEnd: "25:00"},
			wantStart: at(9, 0),
			wantEnd:   at(17, 0),
		},
		{
			name:      "unknown timezone falls back to UTC",
			prefs:     Preferences{Timezone: "Mars/Olympus_Mons"},
			wantStart: at(9, 0),
			wantEnd:   at(17, 0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := WorkingWindow(testDay, tt.prefs, tuning)
			if !start.Equal(tt.wantStart) {
				t.Errorf("start = %v, want %v", start, tt.wantStart)
			}
			if !end.Equal(tt.wantEnd) {
				t.Errorf("end = %v, want %v", end, tt.wantEnd)
			}
		})
	}
}

func TestWorkingWindowTimezone(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	start, _ := WorkingWindow(testDay, Preferences{Timezone: "America/New_York"}, DefaultTuning())
	want := time.Date(2026, 3, 10, 9, 0, 0, 0, loc)
	if !start.Equal(want) {
		t.Errorf("start = %v, want %v", start, want)
	}
}

func TestBusyPeriods(t *testing.T) {
	events := []Event{
		{ID: "b", Start: at(13, 0), End: at(14, 0)},
		{ID: "cancelled", Start: at(9, 0), End: at(10, 0), Cancelled: true},
		{ID: "allday", Start: testDay, End: testDay.Add(24 * time.Hour), AllDay: true},
		{ID: "a2", Start: at(10, 0), End: at(12, 0)},
		{ID: "a1", Start: at(10, 0), End: at(11, 0)},
		{ID: "empty", Start: at(15, 0), End: at(15, 0)},
	}

	busy := BusyPeriods(events)
	want := []string{"a1", "a2", "b"}
	if len(busy) != len(want) {
		t.Fatalf("BusyPeriods() returned %d events, want %d", len(busy), len(want))
	}
	for i, id := range want {
		if busy[i].ID != id {
			t.Errorf("busy[%d] = %s, want %s", i, busy[i].ID, id)
		}
	}
}

func TestFreeSlots(t *testing.T) {
	tests := []struct {
		name string
		busy []Event
		want []FreeSlot
	}{
		{
			name: "empty day",
			want: []FreeSlot{{Start: at(9, 0), End: at(17, 0)}},
		},
		{
			name: "event in the middle",
			busy: []Event{{Start: at(10, 0), End: at(11, 0)}},
			want: []FreeSlot{
				{Start: at(9, 0), End: at(10, 0)},
				{Start: at(11, 0), End: at(17, 0)},
			},
		},
		{
			name: "overlapping events merge",
			busy: []Event{
				{Start: at(10, 0), End: at(12, 0)},
				{Start: at(11, 0), End: at(11, 30)},
				{Start: at(11, 45), End: at(13, 0)},
			},
			want: []FreeSlot{
				{Start: at(9, 0), End: at(10, 0)},
				{Start: at(13, 0), End: at(17, 0)},
			},
		},
		{
			name: "event before work starts",
			busy: []Event{{Start: at(7, 0), End: at(9, 30)}},
			want: []FreeSlot{{Start: at(9, 30), End: at(17, 0)}},
		},
		{
			name: "event past work end clips the gap",
			busy: []Event{{Start: at(16, 0), End: at(19, 0)}},
			want: []FreeSlot{{Start: at(9, 0), End: at(16, 0)}},
		},
		{
			name: "event after work end is ignored",
			busy: []Event{{Start: at(18, 0), End: at(19, 0)}},
			want: []FreeSlot{{Start: at(9, 0), End: at(17, 0)}},
		},
		{
			name: "fully booked",
			busy: []Event{
				{Start: at(9, 0), End: at(13, 0)},
				{Start: at(13, 0), End: at(17, 0)},
			},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FreeSlots(at(9, 0), at(17, 0), tt.busy)
			if len(got) != len(tt.want) {
				t.Fatalf("FreeSlots() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if !got[i].Start.Equal(tt.want[i].Start) || !got[i].End.Equal(tt.want[i].End) {
					t.Errorf("slot %d = %v-%v, want %v-%v", i, got[i].Start, got[i].End, tt.want[i].Start, tt.want[i].End)
				}
			}
		})
	}
}

func TestFreeSlotsInvertedWindow(t *testing.T) {
	if got := FreeSlots(at(17, 0), at(9, 0), nil); len(got) != 0 {
		t.Errorf("FreeSlots() with end before start = %v, want none", got)
	}
}

func TestScoreSlot(t *testing.T) {
	tuning := DefaultTuning()
	busy := []Event{{Start: at(10, 0), End: at(11, 0)}}

	tests := []struct {
		name string
		slot FreeSlot
		task Task
		want int
	}{
		{
			name: "high energy morning with priority",
			slot: FreeSlot{Start: at(9, 0), End: at(10, 0)},
			task: Task{EnergyLevel: EnergyHigh, Priority: 5},
			want: 30 - 10 + 40,
		},
		{
			name: "high energy right after event",
			slot: FreeSlot{Start: at(11, 0), End: at(17, 0)},
			task: Task{EnergyLevel: EnergyHigh, Priority: 5},
			want: 30 - 10 + 30,
		},
		{
			name: "medium energy afternoon",
			slot: FreeSlot{Start: at(14, 0), End: at(17, 0)},
			task: Task{EnergyLevel: EnergyMedium, Priority: 3},
			want: 20,
		},
		{
			name: "medium energy morning gets nothing",
			slot: FreeSlot{Start: at(8, 0), End: at(9, 0)},
			task: Task{EnergyLevel: EnergyMedium, Priority: 1},
			want: 0,
		},
		{
			name: "low energy is neutral",
			slot: FreeSlot{Start: at(9, 0), End: at(9, 50)},
			task: Task{EnergyLevel: EnergyLow, Priority: 2},
			want: -10,
		},
		{
			name: "priority threshold at 4",
			slot: FreeSlot{Start: at(12, 0), End: at(13, 0)},
			task: Task{Priority: 4},
			want: 25,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ScoreSlot(tt.slot, tt.task, busy, time.UTC, tuning); got != tt.want {
				t.Errorf("ScoreSlot() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestFindSlotWriteReport(t *testing.T) {
	task := Task{ID: "t1", Title: "Write report", DurationMinutes: 60, EnergyLevel: EnergyHigh, Priority: 5}
	events := []Event{{ID: "e1", Title: "Standup", Start: at(10, 0), End: at(11, 0)}}

	search := FindSlotDetailed(task, testDay, events, Preferences{}, DefaultTuning())
	if !search.Found() {
		t.Fatal("expected a slot")
	}
	if !search.Suggested.Start.Equal(at(9, 0)) {
		t.Errorf("start = %v, want 09:00", search.Suggested.Start)
	}
	if !search.Suggested.End.Equal(at(10, 0)) {
		t.Errorf("end = %v, want 10:00", search.Suggested.End)
	}
	if len(search.Ranked) != 2 {
		t.Fatalf("ranked %d slots, want 2", len(search.Ranked))
	}
	if search.Ranked[0].Score <= search.Ranked[1].Score {
		t.Errorf("morning score %d should beat %d", search.Ranked[0].Score, search.Ranked[1].Score)
	}
	if search.Suggested.Reasoning != "Scheduled at 9:00 AM to match your high-energy morning window." {
		t.Errorf("reasoning = %q", search.Suggested.Reasoning)
	}
}

func TestFindSlotDefaultsDuration(t *testing.T) {
	slot, ok := FindSlot(Task{ID: "t"}, testDay, nil, Preferences{}, DefaultTuning())
	if !ok {
		t.Fatal("expected a slot")
	}
	if slot.DurationMinutes != DefaultDurationMinutes {
		t.Errorf("duration = %d, want %d", slot.DurationMinutes, DefaultDurationMinutes)
	}
	if slot.End.Sub(slot.Start) != time.Hour {
		t.Errorf("slot length = %v, want 1h", slot.End.Sub(slot.Start))
	}
	if slot.Reasoning != "Scheduled at 9:00 AM based on your available time." {
		t.Errorf("reasoning = %q", slot.Reasoning)
	}
}

func TestFindSlotNotFound(t *testing.T) {
	tests := []struct {
		name   string
		task   Task
		events []Event
		prefs  Preferences
	}{
		{
			name: "fully booked",
			task: Task{DurationMinutes: 15},
			events: []Event{
				{Start: at(9, 0), End: at(12, 0)},
				{Start: at(12, 0), End: at(17, 0)},
			},
		},
		{
			name:   "gaps too short",
			task:   Task{DurationMinutes: 90},
			events: []Event{{Start: at(10, 0), End: at(16, 0)}},
		},
		{
			name:  "zero working hours",
			task:  Task{DurationMinutes: 30},
			prefs: Preferences{WorkingHoursStart: "17:00", WorkingHoursEnd: "09:00"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := FindSlot(tt.task, testDay, tt.events, tt.prefs, DefaultTuning()); ok {
				t.Error("FindSlot() found a slot, want none")
			}
		})
	}
}

func TestFindSlotIgnoresCancelledAndAllDay(t *testing.T) {
	events := []Event{
		{Start: at(9, 0), End: at(17, 0), Cancelled: true},
		{Start: testDay, End: testDay.Add(24 * time.Hour), AllDay: true},
	}
	slot, ok := FindSlot(Task{DurationMinutes: 480}, testDay, events, Preferences{}, DefaultTuning())
	if !ok {
		t.Fatal("expected a slot")
	}
	if !slot.Start.Equal(at(9, 0)) {
		t.Errorf("start = %v, want 09:00", slot.Start)
	}
}

func TestFindSlotTiesPickEarliest(t *testing.T) {
	// Low energy, low priority: every slot scores the same.
	events := []Event{{Start: at(12, 0), End: at(12, 30)}}
	slot, ok := FindSlot(Task{DurationMinutes: 60, EnergyLevel: EnergyLow, Priority: 1}, testDay, events, Preferences{}, DefaultTuning())
	if !ok {
		t.Fatal("expected a slot")
	}
	// 09:00-12:00 ends right at the event (-10); 12:30-17:00 starts right after it (-10).
	if !slot.Start.Equal(at(9, 0)) {
		t.Errorf("start = %v, want 09:00", slot.Start)
	}
}

func TestAlternativeDates(t *testing.T) {
	got := AlternativeDates(time.Date(2026, 12, 29, 15, 0, 0, 0, time.UTC), 5)
	want := []string{"2026-12-30", "2026-12-31", "2027-01-01", "2027-01-02", "2027-01-03"}
	if len(got) != len(want) {
		t.Fatalf("AlternativeDates() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("date %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func randomEvents(r *rand.Rand) []Event {
	n := r.Intn(6)
	events := make([]Event, 0, n)
	for i := 0; i < n; i++ {
		start := at(6, 0).Add(time.Duration(r.Intn(14*4)) * 15 * time.Minute)
		end := start.Add(time.Duration(1+r.Intn(12)) * 15 * time.Minute)
		events = append(events, Event{Start: start, End: end, Cancelled: r.Intn(5) == 0})
	}
	return events
}

func TestFindSlotProperties(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	tuning := DefaultTuning()
	energies := []EnergyLevel{EnergyHigh, EnergyMedium, EnergyLow, ""}

	for i := 0; i < 500; i++ {
		task := Task{
			DurationMinutes: 15 * (1 + r.Intn(16)),
			EnergyLevel:     energies[r.Intn(len(energies))],
			Priority:        1 + r.Intn(5),
		}
		events := randomEvents(r)

		slot, ok := FindSlot(task, testDay, events, Preferences{}, tuning)
		again, okAgain := FindSlot(task, testDay, events, Preferences{}, tuning)
		if ok != okAgain || slot != again {
			t.Fatalf("case %d: FindSlot() is not deterministic", i)
		}
		if !ok {
			continue
		}

		if slot.End.Sub(slot.Start) != task.Duration() {
			t.Fatalf("case %d: slot length %v, want %v", i, slot.End.Sub(slot.Start), task.Duration())
		}
		if slot.Start.Before(at(9, 0)) || slot.End.After(at(17, 0)) {
			t.Fatalf("case %d: slot %v-%v outside working hours", i, slot.Start, slot.End)
		}
		for _, e := range events {
			if !e.Cancelled && overlaps(slot.Start, slot.End, e.Start, e.End) {
				t.Fatalf("case %d: slot %v-%v overlaps busy event %v-%v", i, slot.Start, slot.End, e.Start, e.End)
			}
		}
	}
}

func TestFindSlotEmptyDayProperty(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		task := Task{DurationMinutes: 1 + r.Intn(480), Priority: 1 + r.Intn(5)}
		slot, ok := FindSlot(task, testDay, nil, Preferences{}, DefaultTuning())
		if !ok {
			t.Fatalf("case %d: no slot for %d minutes on an empty day", i, task.DurationMinutes)
		}
		if slot.DurationMinutes != task.DurationMinutes {
			t.Fatalf("case %d: duration %d, want %d", i, slot.DurationMinutes, task.DurationMinutes)
		}
		if slot.Start.Before(at(9, 0)) {
			t.Fatalf("case %d: start %v before work start", i, slot.Start)
		}
	}
}

func TestFindSlotFullyBookedProperty(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	for i := 0; i < 200; i++ {
		var events []Event
		cursor := at(9, 0)
		for cursor.Before(at(17, 0)) {
			end := cursor.Add(time.Duration(5+r.Intn(120)) * time.Minute)
			events = append(events, Event{Start: cursor, End: end})
			cursor = end
		}
		r.Shuffle(len(events), func(a, b int) { events[a], events[b] = events[b], events[a] })

		if _, ok := FindSlot(Task{DurationMinutes: 1 + r.Intn(60)}, testDay, events, Preferences{}, DefaultTuning()); ok {
			t.Fatalf("case %d: found a slot on a fully booked day", i)
		}
	}
}

func TestBufferScoreUsesWholeFreeSlot(t *testing.T) {
	tuning := DefaultTuning()
	slot := FreeSlot{Start: at(9, 0), End: at(12, 0)}

	tests := []struct {
		name  string
		event Event
		want  int
	}{
		{"ends just before slot", Event{Start: at(8, 0), End: at(8, 50)}, -tuning.AdjacencyPenalty},
		// A one-hour task would end at 10:00; the penalty follows the slot's end.
		{"starts just after slot end", Event{Start: at(12, 10), End: at(13, 0)}, -tuning.AdjacencyPenalty},
		{"starts just after a task-length placement", Event{Start: at(10, 5), End: at(10, 30)}, 0},
		{"far away", Event{Start: at(14, 0), End: at(15, 0)}, 0},
		{"ends exactly at buffer", Event{Start: at(8, 0), End: at(8, 45)}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := bufferScore(slot, []Event{tt.event}, tuning); got != tt.want {
				t.Errorf("bufferScore() = %d, want %d", got, tt.want)
			}
		})
	}
}
