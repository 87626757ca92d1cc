/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package scheduling

import "time"

// Tuning collects the heuristic constants of the slot finder and the
// conflict checker.
type Tuning struct {
	// Defaults for missing preferences.
	DefaultWorkStart string `yaml:"default_work_start"`
	DefaultWorkEnd   string `yaml:"default_work_end"`

	// Energy windows, start hour inclusive on both ends.
	MorningStartHour   int `yaml:"morning_start_hour"`
	MorningEndHour     int `yaml:"morning_end_hour"`
	AfternoonStartHour int `yaml:"afternoon_start_hour"`
	AfternoonEndHour   int `yaml:"afternoon_end_hour"`
	HighEnergyBonus    int `yaml:"high_energy_bonus"`
	MediumEnergyBonus  int `yaml:"medium_energy_bonus"`

	// Back-to-back penalty.
	TransitionBuffer time.Duration `yaml:"transition_buffer"`
	AdjacencyPenalty int           `yaml:"adjacency_penalty"`

	// Earliness term for high-priority tasks: (anchor - hour) * weight.
	HighPriorityThreshold int `yaml:"high_priority_threshold"`
	EarlinessAnchorHour   int `yaml:"earliness_anchor_hour"`
	EarlinessWeight       int `yaml:"earliness_weight"`

	// Days offered when no slot is found.
	AlternativeDays int `yaml:"alternative_days"`

	// Conflict checker.
	CalendarBlockingOverlap time.Duration `yaml:"calendar_blocking_overlap"`
	DeadlineBuffer          time.Duration `yaml:"deadline_buffer"`
	EarliestReasonableHour  int           `yaml:"earliest_reasonable_hour"`
	LatestReasonableHour    int           `yaml:"latest_reasonable_hour"`
}

// DefaultTuning returns the stock heuristic.
func DefaultTuning() Tuning {
	return Tuning{
		DefaultWorkStart:        "09:00",
		DefaultWorkEnd:          "17:00",
		MorningStartHour:        8,
		MorningEndHour:          11,
		AfternoonStartHour:      13,
		AfternoonEndHour:        16,
		HighEnergyBonus:         30,
		MediumEnergyBonus:       20,
		TransitionBuffer:        15 * time.Minute,
		AdjacencyPenalty:        10,
		HighPriorityThreshold:   4,
		EarlinessAnchorHour:     17,
		EarlinessWeight:         5,
		AlternativeDays:         5,
		CalendarBlockingOverlap: 15 * time.Minute,
		DeadlineBuffer:          24 * time.Hour,
		EarliestReasonableHour:  7,
		LatestReasonableHour:    22,
	}
}

// IsZero reports whether t was never set. Callers that receive a zero
// Tuning use DefaultTuning instead; a field set to zero on purpose is kept.
func (t Tuning) IsZero() bool {
	return t == Tuning{}
}
