/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package scheduling

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the format of target and alternative dates.
const DateLayout = "2006-01-02"

// ScoredSlot is an eligible free slot with its heuristic score.
type ScoredSlot struct {
	Slot  FreeSlot
	Score int
}

// SlotSearch is the full outcome of a slot search.
type SlotSearch struct {
	WorkStart time.Time
	WorkEnd   time.Time
	FreeSlots []FreeSlot   // every gap in the working window
	Ranked    []ScoredSlot // gaps wide enough for the task, best first
	Suggested *SuggestedSlot
}

// Found reports whether a slot was suggested.
func (s SlotSearch) Found() bool {
	return s.Suggested != nil
}

// Location resolves the preferences' timezone, falling back to UTC.
func (p Preferences) Location() *time.Location {
	if p.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// WorkingWindow returns the working-hour bounds on the given calendar date
// in the user's timezone. Missing or malformed preference strings fall back
// to the tuning defaults.
func WorkingWindow(date time.Time, prefs Preferences, tuning Tuning) (time.Time, time.Time) {
	loc := prefs.Location()
	y, m, d := date.Date()

	sh, sm, ok := parseClock(prefs.WorkingHoursStart)
	if !ok {
		sh, sm, ok = parseClock(tuning.DefaultWorkStart)
		if !ok {
			sh, sm = 9, 0
		}
	}
	eh, em, ok := parseClock(prefs.WorkingHoursEnd)
	if !ok {
		eh, em, ok = parseClock(tuning.DefaultWorkEnd)
		if !ok {
			eh, em = 17, 0
		}
	}

	return time.Date(y, m, d, sh, sm, 0, 0, loc), time.Date(y, m, d, eh, em, 0, 0, loc)
}

// parseClock parses "HH:MM" or "HH:MM:SS".
func parseClock(s string) (int, int, bool) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 24 {
		return 0, 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, 0, false
	}
	if h == 24 && m != 0 {
		return 0, 0, false
	}
	return h, m, true
}

// BusyPeriods returns the non-cancelled timed events sorted by start.
func BusyPeriods(events []Event) []Event {
	busy := make([]Event, 0, len(events))
	for _, e := range events {
		if e.Cancelled || e.AllDay {
			continue
		}
		if !e.End.After(e.Start) {
			continue
		}
		busy = append(busy, e)
	}
	sort.SliceStable(busy, func(i, j int) bool {
		if busy[i].Start.Equal(busy[j].Start) {
			return busy[i].End.Before(busy[j].End)
		}
		return busy[i].Start.Before(busy[j].Start)
	})
	return busy
}

// FreeSlots walks the sorted busy periods and returns the gaps between
// workStart and workEnd.
func FreeSlots(workStart, workEnd time.Time, busy []Event) []FreeSlot {
	var slots []FreeSlot
	if !workEnd.After(workStart) {
		return slots
	}

	cursor := workStart
	for _, b := range busy {
		if b.Start.After(cursor) {
			end := minTime(b.Start, workEnd)
			if end.After(cursor) {
				slots = append(slots, FreeSlot{Start: cursor, End: end})
			}
		}
		cursor = maxTime(b.End, cursor)
		if !cursor.Before(workEnd) {
			break
		}
	}

	if cursor.Before(workEnd) {
		slots = append(slots, FreeSlot{Start: cursor, End: workEnd})
	}
	return slots
}

// ScoreSlot applies the energy, buffer and earliness heuristic to a free slot.
func ScoreSlot(slot FreeSlot, task Task, busy []Event, loc *time.Location, tuning Tuning) int {
	score := 0
	hour := slot.Start.In(loc).Hour()

	switch task.EnergyLevel {
	case EnergyHigh:
		if hour >= tuning.MorningStartHour && hour <= tuning.MorningEndHour {
			score += tuning.HighEnergyBonus
		}
	case EnergyMedium:
		if hour >= tuning.AfternoonStartHour && hour <= tuning.AfternoonEndHour {
			score += tuning.MediumEnergyBonus
		}
	}

	score += bufferScore(slot, busy, tuning)

	if task.Priority >= tuning.HighPriorityThreshold {
		score += (tuning.EarlinessAnchorHour - hour) * tuning.EarlinessWeight
	}

	return score
}

// bufferScore penalises slots that start right after or end right before an event.
func bufferScore(slot FreeSlot, busy []Event, tuning Tuning) int {
	score := 0
	for _, e := range busy {
		gapBefore := slot.Start.Sub(e.End)
		if gapBefore >= 0 && gapBefore < tuning.TransitionBuffer {
			score -= tuning.AdjacencyPenalty
		}
		gapAfter := e.Start.Sub(slot.End)
		if gapAfter >= 0 && gapAfter < tuning.TransitionBuffer {
			score -= tuning.AdjacencyPenalty
		}
	}
	return score
}

// FindSlot proposes a placement for task on date. The second return value is
// false when no free slot is wide enough.
func FindSlot(task Task, date time.Time, events []Event, prefs Preferences, tuning Tuning) (SuggestedSlot, bool) {
	search := FindSlotDetailed(task, date, events, prefs, tuning)
	if search.Suggested == nil {
		return SuggestedSlot{}, false
	}
	return *search.Suggested, true
}

// FindSlotDetailed is FindSlot with the intermediate slots exposed.
func FindSlotDetailed(task Task, date time.Time, events []Event, prefs Preferences, tuning Tuning) SlotSearch {
	loc := prefs.Location()
	workStart, workEnd := WorkingWindow(date, prefs, tuning)
	busy := BusyPeriods(events)

	search := SlotSearch{
		WorkStart: workStart,
		WorkEnd:   workEnd,
		FreeSlots: FreeSlots(workStart, workEnd, busy),
	}

	need := task.DurationOrDefault()
	for _, slot := range search.FreeSlots {
		if slot.DurationMinutes() < need {
			continue
		}
		search.Ranked = append(search.Ranked, ScoredSlot{
			Slot:  slot,
			Score: ScoreSlot(slot, task, busy, loc, tuning),
		})
	}

	// Free slots come out of the walk in start order, so a stable sort on
	// score keeps the earliest slot first among equals.
	sort.SliceStable(search.Ranked, func(i, j int) bool {
		return search.Ranked[i].Score > search.Ranked[j].Score
	})

	if len(search.Ranked) == 0 {
		return search
	}

	best := search.Ranked[0]
	suggested := SuggestedSlot{
		Start:           best.Slot.Start,
		End:             best.Slot.Start.Add(task.Duration()),
		DurationMinutes: need,
		Score:           best.Score,
	}
	suggested.Reasoning = Reasoning(suggested, task, loc, tuning)
	search.Suggested = &suggested
	return search
}

// Reasoning explains a suggestion in one sentence.
func Reasoning(slot SuggestedSlot, task Task, loc *time.Location, tuning Tuning) string {
	local := slot.Start.In(loc)
	timeStr := local.Format("3:04 PM")

	if task.EnergyLevel == EnergyHigh && local.Hour() < 12 {
		return fmt.Sprintf("Scheduled at %s to match your high-energy morning window.", timeStr)
	}
	if task.Priority >= tuning.HighPriorityThreshold {
		return fmt.Sprintf("Scheduled at %s early in the day due to high priority.", timeStr)
	}
	return fmt.Sprintf("Scheduled at %s based on your available time.", timeStr)
}

// AlternativeDates returns the n calendar days following from as YYYY-MM-DD.
func AlternativeDates(from time.Time, n int) []string {
	dates := make([]string, 0, n)
	y, m, d := from.Date()
	for i := 1; i <= n; i++ {
		dates = append(dates, time.Date(y, m, d+i, 12, 0, 0, 0, from.Location()).Format(DateLayout))
	}
	return dates
}
