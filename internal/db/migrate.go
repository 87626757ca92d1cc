/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package db

import (
	"github.com/friendsincode/observatory/internal/models"
	"gorm.io/gorm"
)

// Migrate applies database schema migrations using GORM auto-migrate.
func Migrate(database *gorm.DB) error {
	if err := database.AutoMigrate(
		&models.Task{},
		&models.TaskDependency{},
		&models.CalendarEvent{},
		&models.UserPreferences{},
	); err != nil {
		return err
	}

	if err := applyPostgresScheduleIntervalCheck(database); err != nil {
		return err
	}
	return normalizeLegacyStatuses(database)
}

// normalizeLegacyStatuses folds the board's "done" column into the
// completed status the scheduler filters on.
func normalizeLegacyStatuses(database *gorm.DB) error {
	return database.Exec(
		"UPDATE tasks SET status = 'completed' WHERE status = 'done'",
	).Error
}

func applyPostgresScheduleIntervalCheck(database *gorm.DB) error {
	if database.Dialector.Name() != "postgres" {
		return nil
	}

	stmt := `
DO $$
BEGIN
  IF NOT EXISTS (
    SELECT 1 FROM pg_constraint WHERE conname = 'tasks_scheduled_interval_check'
  ) THEN
    ALTER TABLE tasks ADD CONSTRAINT tasks_scheduled_interval_check
      CHECK (scheduled_start IS NULL OR scheduled_end IS NULL OR scheduled_end > scheduled_start);
  END IF;
END
$$;`
	return database.Exec(stmt).Error
}
