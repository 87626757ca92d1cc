/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package scheduling

import (
	"strconv"
	"strings"
)

// Priority labels used by the kanban board.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// PriorityFromLabel projects a priority label onto the 1-5 scale the
// scheduler works with. Numeric strings are accepted and clamped.
func PriorityFromLabel(label string) int {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case PriorityLow:
		return 1
	case PriorityMedium, "":
		return 3
	case PriorityHigh:
		return 4
	case PriorityUrgent:
		return 5
	}
	n, err := strconv.Atoi(strings.TrimSpace(label))
	if err != nil {
		return 3
	}
	if n < 1 {
		return 1
	}
	if n > 5 {
		return 5
	}
	return n
}
