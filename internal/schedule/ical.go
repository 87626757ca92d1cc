/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package schedule moves busy time and scheduled tasks in and out of
// iCalendar files.
package schedule

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/teambition/rrule-go"

	"github.com/friendsincode/observatory/internal/scheduling"
)

const productID = "-//Friends Incode//Observatory Planner//EN"

// taskUIDSuffix marks events written by ExportTasks.
const taskUIDSuffix = "@observatory"

// ExportICalResult contains the iCal export data.
type ExportICalResult struct {
	Data        []byte
	Filename    string
	ContentType string
}

// ImportEvents parses every VEVENT in r. Recurring events contribute only
// their first occurrence; use ImportEventsBetween to expand them.
func ImportEvents(r io.Reader) ([]scheduling.Event, error) {
	return ImportEventsBetween(r, time.Time{}, time.Time{}, time.UTC)
}

// ImportEventsBetween parses r and expands recurring events into the
// occurrences that intersect [from, to). Floating times are read in loc.
// A zero window disables expansion.
func ImportEventsBetween(r io.Reader, from, to time.Time, loc *time.Location) ([]scheduling.Event, error) {
	if loc == nil {
		loc = time.UTC
	}
	expand := !from.IsZero() && to.After(from)

	var out []scheduling.Event
	dec := ical.NewDecoder(r)
	for {
		cal, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode calendar: %w", err)
		}

		for _, ev := range cal.Events() {
			base, err := toSchedulingEvent(ev, loc)
			if err != nil {
				return nil, err
			}

			if !expand {
				out = append(out, base)
				continue
			}

			set, err := ev.RecurrenceSet(loc)
			if err != nil {
				return nil, fmt.Errorf("event %s: recurrence: %w", base.ID, err)
			}
			if set == nil {
				if base.Start.Before(to) && base.End.After(from) {
					out = append(out, base)
				}
				continue
			}
			out = append(out, expandOccurrences(base, set, from, to)...)
		}
	}
	return out, nil
}

func toSchedulingEvent(ev ical.Event, loc *time.Location) (scheduling.Event, error) {
	uid, _ := ev.Props.Text(ical.PropUID)
	summary, _ := ev.Props.Text(ical.PropSummary)
	status, _ := ev.Props.Text(ical.PropStatus)

	start, err := ev.DateTimeStart(loc)
	if err != nil {
		return scheduling.Event{}, fmt.Errorf("event %s: start: %w", uid, err)
	}
	end, err := ev.DateTimeEnd(loc)
	if err != nil {
		return scheduling.Event{}, fmt.Errorf("event %s: end: %w", uid, err)
	}
	if end.IsZero() {
		end = start
	}

	allDay := false
	if prop := ev.Props.Get(ical.PropDateTimeStart); prop != nil && prop.ValueType() == ical.ValueDate {
		allDay = true
	}

	return scheduling.Event{
		ID:        uid,
		Title:     summary,
		Start:     start,
		End:       end,
		Cancelled: strings.EqualFold(status, "CANCELLED"),
		AllDay:    allDay,
	}, nil
}

// expandOccurrences turns a recurring event into one event per occurrence
// that overlaps [from, to). Occurrence ids are the UID plus the start.
func expandOccurrences(base scheduling.Event, set *rrule.Set, from, to time.Time) []scheduling.Event {
	length := base.End.Sub(base.Start)
	starts := set.Between(from.Add(-length), to, true)

	out := make([]scheduling.Event, 0, len(starts))
	for _, start := range starts {
		end := start.Add(length)
		if !start.Before(to) || !end.After(from) {
			continue
		}
		occ := base
		occ.ID = base.ID + "@" + start.UTC().Format(time.RFC3339)
		occ.Start, occ.End = start, end
		out = append(out, occ)
	}
	return out
}

// ExportTasks renders the scheduled tasks as a VCALENDAR. Unscheduled
// tasks are left out.
func ExportTasks(tasks []scheduling.Task, stamp time.Time) ([]byte, error) {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)
	cal.Props.SetText("X-WR-CALNAME", "Observatory tasks")

	for _, task := range tasks {
		if !task.IsScheduled() {
			continue
		}

		ve := ical.NewComponent(ical.CompEvent)
		ve.Props.SetText(ical.PropUID, task.ID+taskUIDSuffix)
		ve.Props.SetText(ical.PropSummary, task.Title)
		ve.Props.SetDateTime(ical.PropDateTimeStamp, stamp.UTC())
		ve.Props.SetDateTime(ical.PropDateTimeStart, task.ScheduledStart.UTC())
		ve.Props.SetDateTime(ical.PropDateTimeEnd, task.ScheduledEnd.UTC())
		if task.Priority > 0 {
			// RFC 5545 priority: 1 is highest, 9 lowest.
			ve.Props.SetText(ical.PropPriority, fmt.Sprintf("%d", 11-2*task.Priority))
		}
		ve.Props.SetText(ical.PropStatus, "CONFIRMED")
		cal.Children = append(cal.Children, ve)
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("encode calendar: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportTasksFile wraps ExportTasks with a download name for [from, to).
func ExportTasksFile(tasks []scheduling.Task, from, to, stamp time.Time) (*ExportICalResult, error) {
	data, err := ExportTasks(tasks, stamp)
	if err != nil {
		return nil, err
	}
	return &ExportICalResult{
		Data:        data,
		Filename:    fmt.Sprintf("tasks-%s-to-%s.ics", from.Format(scheduling.DateLayout), to.Format(scheduling.DateLayout)),
		ContentType: "text/calendar; charset=utf-8",
	}, nil
}

// FileSource serves the events of an .ics file as a calendar source.
type FileSource struct {
	Path     string
	Location *time.Location
}

// Name identifies the source in logs and metrics.
func (f FileSource) Name() string {
	return "ics"
}

// ListEvents reads the file and returns the occurrences in [from, to).
// Task blocks from a previous export are skipped so a re-imported schedule
// does not count as busy time.
func (f FileSource) ListEvents(_ context.Context, from, to time.Time) ([]scheduling.Event, error) {
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Path, err)
	}
	defer file.Close()

	evs, err := ImportEventsBetween(file, from, to, f.Location)
	if err != nil {
		return nil, err
	}
	out := evs[:0]
	for _, ev := range evs {
		if strings.HasSuffix(ev.ID, taskUIDSuffix) {
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}
