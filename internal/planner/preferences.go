/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package planner

import (
	"context"
	"fmt"
	"time"

	"github.com/friendsincode/observatory/internal/events"
	"github.com/friendsincode/observatory/internal/models"
	"github.com/friendsincode/observatory/internal/scheduling"
)

// UpdatePreferences validates and stores the user's working hours, drops
// the cached copy and announces the change.
func (s *Service) UpdatePreferences(ctx context.Context, userID string, prefs scheduling.Preferences) error {
	if prefs.Timezone != "" {
		if _, err := time.LoadLocation(prefs.Timezone); err != nil {
			return fmt.Errorf("%w: unknown timezone %q", ErrInvalidPreferences, prefs.Timezone)
		}
	}
	start, end := scheduling.WorkingWindow(time.Now(), prefs, s.tuning)
	if !end.After(start) {
		return fmt.Errorf("%w: working hours end must be after start", ErrInvalidPreferences)
	}

	if err := s.writer.SavePreferences(ctx, models.UserPreferences{
		UserID:            userID,
		WorkingHoursStart: prefs.WorkingHoursStart,
		WorkingHoursEnd:   prefs.WorkingHoursEnd,
		Timezone:          prefs.Timezone,
	}); err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}

	// The next request must see the new hours, so the cache is cleared
	// here rather than left to bus subscribers.
	if s.cache != nil {
		if err := s.cache.InvalidatePreferences(ctx, userID); err != nil {
			s.logger.Debug().Err(err).Str("user_id", userID).Msg("failed to invalidate preferences")
		}
	}
	if s.bus != nil {
		s.bus.Publish(events.EventPreferencesUpdated, events.Payload{"user_id": userID})
	}
	return nil
}

// WatchPreferences drops cached preferences whenever an update is
// announced on the bus, covering writers that share the bus but not this
// service. It returns when ctx is cancelled.
func (s *Service) WatchPreferences(ctx context.Context) {
	if s.bus == nil || s.cache == nil {
		return
	}

	sub := s.bus.Subscribe(events.EventPreferencesUpdated)
	defer s.bus.Unsubscribe(events.EventPreferencesUpdated, sub)

	for {
		select {
		case <-ctx.Done():
			return
		case payload, ok := <-sub:
			if !ok {
				return
			}
			userID, _ := payload["user_id"].(string)
			if userID == "" {
				continue
			}
			if err := s.cache.InvalidatePreferences(ctx, userID); err != nil {
				s.logger.Debug().Err(err).Str("user_id", userID).Msg("failed to invalidate preferences")
			}
		}
	}
}
