/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package config

import (
	"fmt"
	"os"

	"github.com/friendsincode/observatory/internal/scheduling"
	"gopkg.in/yaml.v3"
)

// LoadTuning reads scheduling overrides from a YAML file. An empty path
// yields the stock tuning. The file is decoded over the defaults, so
// missing keys keep them and keys set to zero stay zero.
func LoadTuning(path string) (scheduling.Tuning, error) {
	if path == "" {
		return scheduling.DefaultTuning(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return scheduling.Tuning{}, fmt.Errorf("read tuning file: %w", err)
	}

	tuning := scheduling.DefaultTuning()
	if err := yaml.Unmarshal(data, &tuning); err != nil {
		return scheduling.Tuning{}, fmt.Errorf("parse tuning file %s: %w", path, err)
	}

	if err := validateTuning(tuning); err != nil {
		return scheduling.Tuning{}, fmt.Errorf("tuning file %s: %w", path, err)
	}
	return tuning, nil
}

func validateTuning(t scheduling.Tuning) error {
	if t.TransitionBuffer < 0 || t.CalendarBlockingOverlap < 0 || t.DeadlineBuffer < 0 {
		return fmt.Errorf("durations must not be negative")
	}
	if t.EarliestReasonableHour < 0 || t.LatestReasonableHour > 24 || t.EarliestReasonableHour >= t.LatestReasonableHour {
		return fmt.Errorf("reasonable hours %d-%d are invalid", t.EarliestReasonableHour, t.LatestReasonableHour)
	}
	if t.AlternativeDays < 0 {
		return fmt.Errorf("alternative_days must not be negative")
	}
	return nil
}
