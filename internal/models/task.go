/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package models

import (
	"time"

	"github.com/friendsincode/observatory/internal/scheduling"
)

// Task is a kanban task that can be placed on the calendar.
type Task struct {
	ID              string `gorm:"type:uuid;primaryKey"`
	UserID          string `gorm:"type:uuid;index:idx_tasks_user_schedule,priority:1;not null"`
	Title           string `gorm:"type:varchar(255);not null"`
	Description     string `gorm:"type:text"`
	Status          string `gorm:"type:varchar(32);not null;default:'todo'"`
	Priority        string `gorm:"type:varchar(16);not null;default:'medium'"`
	EnergyLevel     string `gorm:"type:varchar(16)"`
	DurationMinutes int
	Deadline        *time.Time
	ScheduledStart  *time.Time `gorm:"index:idx_tasks_user_schedule,priority:2"`
	ScheduledEnd    *time.Time
	CalendarEventID string `gorm:"type:varchar(255)"`
	Version         int    `gorm:"not null;default:1"`

	// Relationships
	Dependencies []TaskDependency `gorm:"foreignKey:TaskID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName returns the table name for GORM.
func (Task) TableName() string {
	return "tasks"
}

// DependencyIDs returns the ids of the tasks this one waits on.
func (t Task) DependencyIDs() []string {
	ids := make([]string, 0, len(t.Dependencies))
	for _, d := range t.Dependencies {
		ids = append(ids, d.DependsOnTaskID)
	}
	return ids
}

// ToScheduling converts the row into the scheduler's view.
func (t Task) ToScheduling() scheduling.Task {
	return scheduling.Task{
		ID:              t.ID,
		Title:           t.Title,
		DurationMinutes: t.DurationMinutes,
		Priority:        scheduling.PriorityFromLabel(t.Priority),
		EnergyLevel:     scheduling.EnergyLevel(t.EnergyLevel),
		Deadline:        t.Deadline,
		Dependencies:    t.DependencyIDs(),
		ScheduledStart:  t.ScheduledStart,
		ScheduledEnd:    t.ScheduledEnd,
		Status:          t.Status,
	}
}

// TaskDependency is an edge meaning TaskID cannot start before DependsOnTaskID.
type TaskDependency struct {
	TaskID          string `gorm:"type:uuid;primaryKey"`
	DependsOnTaskID string `gorm:"type:uuid;primaryKey"`
	CreatedAt       time.Time
}

// TableName returns the table name for GORM.
func (TaskDependency) TableName() string {
	return "task_dependencies"
}
