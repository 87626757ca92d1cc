/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package models

import (
	"time"

	"github.com/friendsincode/observatory/internal/scheduling"
)

// EventStatus mirrors the provider's event status.
type EventStatus string

const (
	EventStatusConfirmed EventStatus = "confirmed"
	EventStatusTentative EventStatus = "tentative"
	EventStatusCancelled EventStatus = "cancelled"
)

// CalendarEvent is a calendar entry imported from a provider or an .ics file.
type CalendarEvent struct {
	ID              string      `gorm:"type:uuid;primaryKey"`
	UserID          string      `gorm:"type:uuid;uniqueIndex:idx_calendar_events_external,priority:1;index:idx_calendar_events_range,priority:1;not null"`
	CalendarID      string      `gorm:"type:varchar(255)"`
	ExternalEventID string      `gorm:"type:varchar(255);uniqueIndex:idx_calendar_events_external,priority:2;not null"`
	Summary         string      `gorm:"type:varchar(512)"`
	StartTime       time.Time   `gorm:"index:idx_calendar_events_range,priority:2;not null"`
	EndTime         time.Time   `gorm:"not null"`
	IsAllDay        bool        `gorm:"not null;default:false"`
	Status          EventStatus `gorm:"type:varchar(16);not null;default:'confirmed'"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TableName returns the table name for GORM.
func (CalendarEvent) TableName() string {
	return "calendar_events"
}

// ToScheduling converts the row into a busy interval.
func (e CalendarEvent) ToScheduling() scheduling.Event {
	return scheduling.Event{
		ID:        e.ID,
		Title:     e.Summary,
		Start:     e.StartTime,
		End:       e.EndTime,
		Cancelled: e.Status == EventStatusCancelled,
		AllDay:    e.IsAllDay,
	}
}

// UserPreferences holds per-user working hours.
type UserPreferences struct {
	UserID            string `gorm:"type:uuid;primaryKey"`
	WorkingHoursStart string `gorm:"type:varchar(8)"`
	WorkingHoursEnd   string `gorm:"type:varchar(8)"`
	Timezone          string `gorm:"type:varchar(64)"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// TableName returns the table name for GORM.
func (UserPreferences) TableName() string {
	return "user_preferences"
}

// ToScheduling converts the row into scheduler preferences.
func (p UserPreferences) ToScheduling() scheduling.Preferences {
	return scheduling.Preferences{
		WorkingHoursStart: p.WorkingHoursStart,
		WorkingHoursEnd:   p.WorkingHoursEnd,
		Timezone:          p.Timezone,
	}
}
