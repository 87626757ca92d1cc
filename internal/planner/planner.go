/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package planner fetches what the slot finder and conflict checker need,
// runs them, and commits accepted placements.
package planner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/friendsincode/observatory/internal/cache"
	"github.com/friendsincode/observatory/internal/calendar"
	"github.com/friendsincode/observatory/internal/events"
	"github.com/friendsincode/observatory/internal/logging"
	"github.com/friendsincode/observatory/internal/models"
	"github.com/friendsincode/observatory/internal/scheduling"
	"github.com/friendsincode/observatory/internal/store"
	"github.com/friendsincode/observatory/internal/telemetry"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
)

// Store is the read side the planner depends on.
type Store interface {
	GetTask(ctx context.Context, userID, taskID string) (*models.Task, error)
	ListTasks(ctx context.Context, userID string, ids []string) ([]models.Task, error)
	ListScheduledTasks(ctx context.Context, userID string, from, to time.Time, excludeID string) ([]models.Task, error)
	ListEvents(ctx context.Context, userID string, from, to time.Time) ([]models.CalendarEvent, error)
	GetPreferences(ctx context.Context, userID string) (models.UserPreferences, error)
}

// Writer commits accepted placements.
type Writer interface {
	SaveSchedule(ctx context.Context, userID, taskID string, start, end time.Time, expectedVersion int) (*models.Task, error)
	SetCalendarEventID(ctx context.Context, userID, taskID, eventID string) error
	SavePreferences(ctx context.Context, prefs models.UserPreferences) error
}

// CalendarWriter mirrors confirmed tasks into an external calendar.
type CalendarWriter interface {
	UpsertTaskEvent(ctx context.Context, ev calendar.TaskEvent) (string, error)
}

// PreferencesCache holds per-user working hours between requests.
// *cache.Cache satisfies it.
type PreferencesCache interface {
	GetPreferences(ctx context.Context, userID string) (*cache.CachedPreferences, bool)
	SetPreferences(ctx context.Context, userID string, prefs cache.CachedPreferences) error
	InvalidatePreferences(ctx context.Context, userID string) error
}

// Options carries the optional collaborators of a Service.
type Options struct {
	Cache           PreferencesCache
	Calendar        CalendarWriter
	Bus             *events.Bus
	DefaultTimezone string
	Now             func() time.Time
}

// Service runs slot searches, conflict checks and confirmations for a user.
type Service struct {
	store     Store
	writer    Writer
	tuning    scheduling.Tuning
	cache     PreferencesCache
	calendar  CalendarWriter
	bus       *events.Bus
	defaultTZ string
	now       func() time.Time
	logger    zerolog.Logger
}

// New creates a planner service.
func New(st Store, writer Writer, tuning scheduling.Tuning, opts Options, logger zerolog.Logger) *Service {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	if tuning.IsZero() {
		tuning = scheduling.DefaultTuning()
	}
	return &Service{
		store:     st,
		writer:    writer,
		tuning:    tuning,
		cache:     opts.Cache,
		calendar:  opts.Calendar,
		bus:       opts.Bus,
		defaultTZ: opts.DefaultTimezone,
		now:       now,
		logger:    logging.Component(logger, "planner"),
	}
}

// Tuning returns the heuristic constants in use.
func (s *Service) Tuning() scheduling.Tuning {
	return s.tuning
}

// Suggestion is the outcome of a slot search.
type Suggestion struct {
	Found        bool
	Slot         scheduling.SuggestedSlot
	Conflicts    []scheduling.Event // calendar events overlapping Slot
	Reasoning    string
	Message      string
	Alternatives []string
	Date         string
}

// Suggest proposes a placement for the task on date (YYYY-MM-DD). An empty
// date means today in the user's timezone.
func (s *Service) Suggest(ctx context.Context, userID, taskID, date string) (*Suggestion, error) {
	start := time.Now()
	defer func() { telemetry.SlotSearchDuration.Observe(time.Since(start).Seconds()) }()

	ctx, span := telemetry.StartOperation(ctx, "planner.Suggest", userID, taskID)
	defer span.End()

	row, err := s.loadTask(ctx, userID, taskID)
	if err != nil {
		telemetry.SlotSearchesTotal.WithLabelValues("error").Inc()
		telemetry.RecordError(span, err)
		return nil, err
	}

	prefs, err := s.Preferences(ctx, userID)
	if err != nil {
		telemetry.SlotSearchesTotal.WithLabelValues("error").Inc()
		telemetry.RecordError(span, err)
		return nil, err
	}
	loc := prefs.Location()

	day, err := s.resolveDate(date, loc)
	if err != nil {
		telemetry.SlotSearchesTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	rows, err := s.store.ListEvents(ctx, userID, day, day.AddDate(0, 0, 1))
	if err != nil {
		telemetry.SlotSearchesTotal.WithLabelValues("error").Inc()
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("fetch events: %w", err)
	}
	evs := eventsToScheduling(rows)

	task := row.ToScheduling()
	search := scheduling.FindSlotDetailed(task, day, evs, prefs, s.tuning)

	span.SetAttributes(
		attribute.String("date", day.Format(scheduling.DateLayout)),
		attribute.Int("free_slots", len(search.FreeSlots)),
		attribute.Int("eligible_slots", len(search.Ranked)),
		attribute.Bool("found", search.Found()),
	)

	result := &Suggestion{Date: day.Format(scheduling.DateLayout)}
	if !search.Found() {
		telemetry.SlotSearchesTotal.WithLabelValues("not_found").Inc()
		result.Message = "No suitable time slot found for this task"
		result.Alternatives = scheduling.AlternativeDates(day, s.tuning.AlternativeDays)
		s.logger.Debug().Str("user_id", userID).Str("task_id", taskID).Str("date", result.Date).Msg("no slot found")
		return result, nil
	}

	telemetry.SlotSearchesTotal.WithLabelValues("found").Inc()
	result.Found = true
	result.Slot = *search.Suggested
	result.Reasoning = search.Suggested.Reasoning
	result.Conflicts = overlappingEvents(result.Slot, evs)

	s.logger.Debug().
		Str("user_id", userID).
		Str("task_id", taskID).
		Time("start", result.Slot.Start).
		Int("score", result.Slot.Score).
		Msg("slot suggested")

	return result, nil
}

// Check validates a proposed placement for the task.
func (s *Service) Check(ctx context.Context, userID, taskID string, start, end time.Time) (*scheduling.ConflictReport, error) {
	ctx, span := telemetry.StartOperation(ctx, "planner.Check", userID, taskID)
	defer span.End()

	report, _, err := s.check(ctx, userID, taskID, start, end)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("conflicts.blocking", report.BlockingCount),
		attribute.Int("conflicts.warning", report.WarningCount),
	)
	return report, nil
}

func (s *Service) check(ctx context.Context, userID, taskID string, start, end time.Time) (*scheduling.ConflictReport, *models.Task, error) {
	if !end.After(start) {
		return nil, nil, ErrInvalidInterval
	}

	row, err := s.loadTask(ctx, userID, taskID)
	if err != nil {
		return nil, nil, err
	}
	task := row.ToScheduling()

	prefs, err := s.Preferences(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	eventRows, err := s.store.ListEvents(ctx, userID, start, end)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch events: %w", err)
	}

	otherRows, err := s.store.ListScheduledTasks(ctx, userID, start, end, taskID)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch scheduled tasks: %w", err)
	}
	others := make([]scheduling.Task, 0, len(otherRows))
	for _, r := range otherRows {
		others = append(others, r.ToScheduling())
	}

	var deps []scheduling.Task
	if len(task.Dependencies) > 0 {
		depRows, err := s.store.ListTasks(ctx, userID, task.Dependencies)
		if err != nil {
			return nil, nil, fmt.Errorf("fetch dependencies: %w", err)
		}
		for _, r := range depRows {
			deps = append(deps, r.ToScheduling())
		}
	}

	report := scheduling.CheckConflicts(scheduling.ConflictInput{
		Task:         task,
		Start:        start,
		End:          end,
		Events:       eventsToScheduling(eventRows),
		OtherTasks:   others,
		Dependencies: deps,
		Preferences:  prefs,
	}, s.tuning)

	for _, c := range report.Conflicts {
		telemetry.ConflictsDetectedTotal.WithLabelValues(string(c.Type), string(c.Severity)).Inc()
	}
	return &report, row, nil
}

// Confirmation is the outcome of a successful confirm.
type Confirmation struct {
	Task   *models.Task
	Report *scheduling.ConflictReport
}

// Confirm re-checks the placement and writes it when nothing blocks it.
// expectedVersion guards against concurrent writers; the returned report
// is set on ErrBlockingConflicts as well.
func (s *Service) Confirm(ctx context.Context, userID, taskID string, start, end time.Time, expectedVersion int) (*Confirmation, error) {
	ctx, span := telemetry.StartOperation(ctx, "planner.Confirm", userID, taskID)
	defer span.End()

	report, row, err := s.check(ctx, userID, taskID, start, end)
	if err != nil {
		telemetry.ConfirmationsTotal.WithLabelValues("error").Inc()
		telemetry.RecordError(span, err)
		return nil, err
	}
	if !report.CanSchedule {
		telemetry.ConfirmationsTotal.WithLabelValues("blocked").Inc()
		return &Confirmation{Task: row, Report: report}, ErrBlockingConflicts
	}
	if expectedVersion == 0 {
		expectedVersion = row.Version
	}

	saved, err := s.writer.SaveSchedule(ctx, userID, taskID, start, end, expectedVersion)
	switch {
	case errors.Is(err, store.ErrVersionConflict):
		telemetry.ConfirmationsTotal.WithLabelValues("stale").Inc()
		return nil, ErrVersionConflict
	case errors.Is(err, store.ErrNotFound):
		telemetry.ConfirmationsTotal.WithLabelValues("error").Inc()
		return nil, ErrTaskNotFound
	case err != nil:
		telemetry.ConfirmationsTotal.WithLabelValues("error").Inc()
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("save schedule: %w", err)
	}
	telemetry.ConfirmationsTotal.WithLabelValues("accepted").Inc()

	s.pushToCalendar(ctx, userID, saved)

	if s.bus != nil {
		s.bus.Publish(events.EventTaskScheduled, events.Payload{
			"user_id": userID,
			"task_id": taskID,
			"start":   start,
			"end":     end,
			"version": saved.Version,
		})
	}

	s.logger.Info().
		Str("user_id", userID).
		Str("task_id", taskID).
		Time("start", start).
		Time("end", end).
		Int("warnings", report.WarningCount).
		Msg("schedule confirmed")

	return &Confirmation{Task: saved, Report: report}, nil
}

// pushToCalendar mirrors the confirmed block. Failures are logged only.
func (s *Service) pushToCalendar(ctx context.Context, userID string, task *models.Task) {
	if s.calendar == nil || task.ScheduledStart == nil || task.ScheduledEnd == nil {
		return
	}

	eventID, err := s.calendar.UpsertTaskEvent(ctx, calendar.TaskEvent{
		ExternalID:  task.CalendarEventID,
		TaskID:      task.ID,
		Title:       task.Title,
		Description: task.Description,
		Start:       *task.ScheduledStart,
		End:         *task.ScheduledEnd,
	})
	if err != nil {
		telemetry.CalendarPushErrorsTotal.Inc()
		s.logger.Warn().Err(err).Str("task_id", task.ID).Msg("calendar push failed")
		return
	}
	if eventID == task.CalendarEventID {
		return
	}
	if err := s.writer.SetCalendarEventID(ctx, userID, task.ID, eventID); err != nil {
		s.logger.Warn().Err(err).Str("task_id", task.ID).Msg("failed to record calendar event id")
		return
	}
	task.CalendarEventID = eventID
}

// ScheduledTasks returns the user's tasks placed in [from, to).
func (s *Service) ScheduledTasks(ctx context.Context, userID string, from, to time.Time) ([]scheduling.Task, error) {
	if !to.After(from) {
		return nil, ErrInvalidInterval
	}
	rows, err := s.store.ListScheduledTasks(ctx, userID, from, to, "")
	if err != nil {
		return nil, fmt.Errorf("fetch scheduled tasks: %w", err)
	}
	out := make([]scheduling.Task, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ToScheduling())
	}
	return out, nil
}

// Preferences returns the user's preferences, using the cache when present.
func (s *Service) Preferences(ctx context.Context, userID string) (scheduling.Preferences, error) {
	if s.cache != nil {
		if cached, ok := s.cache.GetPreferences(ctx, userID); ok {
			telemetry.CacheLookupsTotal.WithLabelValues("hit").Inc()
			return s.withDefaultTimezone(cached.ToScheduling()), nil
		}
		telemetry.CacheLookupsTotal.WithLabelValues("miss").Inc()
	}

	row, err := s.store.GetPreferences(ctx, userID)
	if err != nil {
		return scheduling.Preferences{}, fmt.Errorf("fetch preferences: %w", err)
	}
	prefs := row.ToScheduling()

	if s.cache != nil {
		if err := s.cache.SetPreferences(ctx, userID, cache.FromScheduling(prefs)); err != nil {
			s.logger.Debug().Err(err).Str("user_id", userID).Msg("failed to cache preferences")
		}
	}
	return s.withDefaultTimezone(prefs), nil
}

func (s *Service) withDefaultTimezone(prefs scheduling.Preferences) scheduling.Preferences {
	if prefs.Timezone == "" {
		prefs.Timezone = s.defaultTZ
	}
	return prefs
}

func (s *Service) loadTask(ctx context.Context, userID, taskID string) (*models.Task, error) {
	row, err := s.store.GetTask(ctx, userID, taskID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetch task: %w", err)
	}
	return row, nil
}

func (s *Service) resolveDate(date string, loc *time.Location) (time.Time, error) {
	if date == "" {
		y, m, d := s.now().In(loc).Date()
		return time.Date(y, m, d, 0, 0, 0, 0, loc), nil
	}
	day, err := time.ParseInLocation(scheduling.DateLayout, date, loc)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return day, nil
}

func eventsToScheduling(rows []models.CalendarEvent) []scheduling.Event {
	out := make([]scheduling.Event, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ToScheduling())
	}
	return out
}

func overlappingEvents(slot scheduling.SuggestedSlot, evs []scheduling.Event) []scheduling.Event {
	var out []scheduling.Event
	for _, e := range evs {
		if e.Cancelled || e.AllDay {
			continue
		}
		if slot.Start.Before(e.End) && slot.End.After(e.Start) {
			out = append(out, e)
		}
	}
	return out
}
