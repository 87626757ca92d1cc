/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package store is the gorm-backed persistence for tasks, calendar events
// and user preferences. Every query is scoped to a user.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/friendsincode/observatory/internal/logging"
	"github.com/friendsincode/observatory/internal/models"
	"github.com/friendsincode/observatory/internal/scheduling"
	"github.com/friendsincode/observatory/internal/telemetry"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrNotFound is returned when a task does not exist for the user.
	ErrNotFound = errors.New("not found")

	// ErrVersionConflict is returned when a task changed since it was read.
	ErrVersionConflict = errors.New("version conflict")
)

var completedStatuses = []string{scheduling.StatusCompleted, scheduling.StatusDone}

// Store reads and writes planner data through gorm.
type Store struct {
	db     *gorm.DB
	logger zerolog.Logger
}

// New creates a store.
func New(db *gorm.DB, logger zerolog.Logger) *Store {
	return &Store{
		db:     db,
		logger: logging.Component(logger, "store"),
	}
}

// GetTask loads a task with its dependency edges.
func (s *Store) GetTask(ctx context.Context, userID, taskID string) (*models.Task, error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.TracerStore, "store.GetTask")
	defer span.End()

	var task models.Task
	err := s.db.WithContext(ctx).
		Preload("Dependencies").
		Where("id = ? AND user_id = ?", taskID, userID).
		First(&task).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("load task %s: %w", taskID, err)
	}
	return &task, nil
}

// ListTasks loads the given tasks. Ids that do not resolve are skipped.
func (s *Store) ListTasks(ctx context.Context, userID string, ids []string) ([]models.Task, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var tasks []models.Task
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND id IN ?", userID, ids).
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	return tasks, nil
}

// ListScheduledTasks returns open tasks whose scheduled interval intersects
// [from, to), leaving out excludeID.
func (s *Store) ListScheduledTasks(ctx context.Context, userID string, from, to time.Time, excludeID string) ([]models.Task, error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.TracerStore, "store.ListScheduledTasks")
	defer span.End()

	q := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where("scheduled_start IS NOT NULL AND scheduled_end IS NOT NULL").
		Where("scheduled_start < ? AND scheduled_end > ?", to.UTC(), from.UTC()).
		Where("status NOT IN ?", completedStatuses)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}

	var tasks []models.Task
	if err := q.Order("scheduled_start ASC").Find(&tasks).Error; err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("load scheduled tasks: %w", err)
	}
	span.SetAttributes(attribute.Int("tasks.count", len(tasks)))
	return tasks, nil
}

// ListEvents returns non-cancelled events intersecting [from, to).
func (s *Store) ListEvents(ctx context.Context, userID string, from, to time.Time) ([]models.CalendarEvent, error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.TracerStore, "store.ListEvents")
	defer span.End()

	var events []models.CalendarEvent
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND status <> ?", userID, models.EventStatusCancelled).
		Where("start_time < ? AND end_time > ?", to.UTC(), from.UTC()).
		Order("start_time ASC").
		Find(&events).Error; err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("load calendar events: %w", err)
	}
	span.SetAttributes(attribute.Int("events.count", len(events)))
	return events, nil
}

// GetPreferences returns the user's preferences. A missing row yields the
// zero value so the scheduler falls back to its defaults.
func (s *Store) GetPreferences(ctx context.Context, userID string) (models.UserPreferences, error) {
	var prefs models.UserPreferences
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&prefs).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.UserPreferences{UserID: userID}, nil
	}
	if err != nil {
		return models.UserPreferences{}, fmt.Errorf("load preferences: %w", err)
	}
	return prefs, nil
}

// SavePreferences creates or replaces the user's preferences.
func (s *Store) SavePreferences(ctx context.Context, prefs models.UserPreferences) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"working_hours_start", "working_hours_end", "timezone", "updated_at"}),
	}).Create(&prefs).Error
	if err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}
	return nil
}

// SaveSchedule writes the scheduled interval if the task is still at
// expectedVersion, and bumps the version.
func (s *Store) SaveSchedule(ctx context.Context, userID, taskID string, start, end time.Time, expectedVersion int) (*models.Task, error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.TracerStore, "store.SaveSchedule")
	defer span.End()

	var saved models.Task
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Task{}).
			Where("id = ? AND user_id = ? AND version = ?", taskID, userID, expectedVersion).
			Updates(map[string]any{
				"scheduled_start": start.UTC(),
				"scheduled_end":   end.UTC(),
				"version":         gorm.Expr("version + 1"),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&models.Task{}).Where("id = ? AND user_id = ?", taskID, userID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return ErrNotFound
			}
			return ErrVersionConflict
		}
		return tx.Preload("Dependencies").Where("id = ?", taskID).First(&saved).Error
	})
	if err != nil {
		if !errors.Is(err, ErrVersionConflict) && !errors.Is(err, ErrNotFound) {
			telemetry.RecordError(span, err)
		}
		return nil, err
	}

	s.logger.Debug().Str("task_id", taskID).Int("version", saved.Version).Msg("schedule saved")
	return &saved, nil
}

// SetCalendarEventID records the provider event that mirrors a task.
func (s *Store) SetCalendarEventID(ctx context.Context, userID, taskID, eventID string) error {
	err := s.db.WithContext(ctx).Model(&models.Task{}).
		Where("id = ? AND user_id = ?", taskID, userID).
		Update("calendar_event_id", eventID).Error
	if err != nil {
		return fmt.Errorf("set calendar event id: %w", err)
	}
	return nil
}

// UpsertEvents stores imported events keyed by their external id and
// returns how many were written.
func (s *Store) UpsertEvents(ctx context.Context, userID, calendarID string, events []scheduling.Event) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}

	rows := make([]models.CalendarEvent, 0, len(events))
	for _, e := range events {
		if e.ID == "" {
			continue
		}
		status := models.EventStatusConfirmed
		if e.Cancelled {
			status = models.EventStatusCancelled
		}
		rows = append(rows, models.CalendarEvent{
			ID:              uuid.NewString(),
			UserID:          userID,
			CalendarID:      calendarID,
			ExternalEventID: e.ID,
			Summary:         e.Title,
			StartTime:       e.Start.UTC(),
			EndTime:         e.End.UTC(),
			IsAllDay:        e.AllDay,
			Status:          status,
		})
	}
	if len(rows) == 0 {
		return 0, nil
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "external_event_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"calendar_id", "summary", "start_time", "end_time", "is_all_day", "status", "updated_at",
		}),
	}).CreateInBatches(rows, 100).Error
	if err != nil {
		return 0, fmt.Errorf("upsert calendar events: %w", err)
	}
	return len(rows), nil
}
