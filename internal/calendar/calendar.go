/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package calendar connects the planner to external calendars: it pulls busy
// time in and pushes confirmed task blocks out.
package calendar

import (
	"context"
	"fmt"
	"time"

	"github.com/friendsincode/observatory/internal/events"
	"github.com/friendsincode/observatory/internal/logging"
	"github.com/friendsincode/observatory/internal/scheduling"
	"github.com/friendsincode/observatory/internal/telemetry"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
)

// Source lists busy time from a calendar.
type Source interface {
	Name() string
	ListEvents(ctx context.Context, from, to time.Time) ([]scheduling.Event, error)
}

// Provider is a calendar that can also hold task blocks.
type Provider interface {
	Source
	UpsertTaskEvent(ctx context.Context, ev TaskEvent) (string, error)
}

// TaskEvent is a confirmed task mirrored into a calendar.
type TaskEvent struct {
	ExternalID  string // empty creates a new event
	TaskID      string
	Title       string
	Description string
	Start       time.Time
	End         time.Time
}

// EventSink stores imported events.
type EventSink interface {
	UpsertEvents(ctx context.Context, userID, calendarID string, evs []scheduling.Event) (int, error)
}

// Publisher announces completed syncs. *events.Bus satisfies it.
type Publisher interface {
	Publish(eventType events.EventType, payload events.Payload)
}

// Sync copies events in [from, to) from src into sink for the user and
// returns the number of events written. pub may be nil.
func Sync(ctx context.Context, src Source, sink EventSink, pub Publisher, userID, calendarID string, from, to time.Time, logger zerolog.Logger) (int, error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.TracerCalendar, "calendar.Sync")
	defer span.End()
	span.SetAttributes(
		attribute.String("calendar.source", src.Name()),
		attribute.String("user.id", userID),
	)

	if !to.After(from) {
		return 0, fmt.Errorf("sync window end must be after start")
	}

	evs, err := src.ListEvents(ctx, from, to)
	if err != nil {
		telemetry.RecordError(span, err)
		return 0, fmt.Errorf("list %s events: %w", src.Name(), err)
	}

	n, err := sink.UpsertEvents(ctx, userID, calendarID, evs)
	if err != nil {
		telemetry.RecordError(span, err)
		return 0, err
	}

	telemetry.CalendarEventsSyncedTotal.WithLabelValues(src.Name()).Add(float64(n))
	span.SetAttributes(attribute.Int("events.synced", n))

	if pub != nil {
		pub.Publish(events.EventCalendarSynced, events.Payload{
			"user_id":     userID,
			"calendar_id": calendarID,
			"source":      src.Name(),
			"from":        from,
			"to":          to,
			"stored":      n,
		})
	}

	clog := logging.Component(logger, "calendar")
	clog.Info().
		Str("source", src.Name()).
		Str("user_id", userID).
		Int("fetched", len(evs)).
		Int("stored", n).
		Msg("calendar synced")

	return n, nil
}
