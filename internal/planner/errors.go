/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package planner

import "errors"

var (
	// ErrTaskNotFound is returned when the task does not exist for the user.
	ErrTaskNotFound = errors.New("task not found")

	// ErrInvalidInterval is returned when the proposed end is not after the start.
	ErrInvalidInterval = errors.New("proposed end must be after proposed start")

	// ErrInvalidDate is returned when the target date is not YYYY-MM-DD.
	ErrInvalidDate = errors.New("date must be formatted as YYYY-MM-DD")

	// ErrBlockingConflicts is returned when a confirmation has blocking conflicts.
	ErrBlockingConflicts = errors.New("placement has blocking conflicts")

	// ErrVersionConflict is returned when the task changed since the caller read it.
	ErrVersionConflict = errors.New("task was modified concurrently")

	// ErrInvalidPreferences is returned for unusable working hours or timezone.
	ErrInvalidPreferences = errors.New("invalid preferences")
)
