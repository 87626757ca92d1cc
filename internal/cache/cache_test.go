/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/friendsincode/observatory/internal/scheduling"
	"github.com/rs/zerolog"
)

func TestNewFallsBackWhenRedisUnavailable(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RedisAddr = "127.0.0.1:1"

	c, err := New(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer c.Close()

	if c.IsAvailable() {
		t.Fatal("cache should be disabled without redis")
	}

	ctx := context.Background()
	if err := c.SetPreferences(ctx, "u1", CachedPreferences{Timezone: "UTC"}); err != nil {
		t.Fatalf("SetPreferences() on disabled cache = %v", err)
	}
	if _, ok := c.GetPreferences(ctx, "u1"); ok {
		t.Fatal("disabled cache should always miss")
	}
	if err := c.InvalidatePreferences(ctx, "u1"); err != nil {
		t.Fatalf("InvalidatePreferences() on disabled cache = %v", err)
	}
}

func TestHandleErrorTripsBreaker(t *testing.T) {
	c := &Cache{logger: zerolog.Nop(), config: DefaultConfig()}
	c.handleError(errors.New("connection reset"), "get")

	c.mu.RLock()
	disabled := c.disabled
	c.mu.RUnlock()
	if !disabled {
		t.Fatal("expected breaker to open after an error")
	}
}

func TestCachedPreferencesRoundTrip(t *testing.T) {
	prefs := scheduling.Preferences{WorkingHoursStart: "08:00", WorkingHoursEnd: "16:00", Timezone: "Europe/Berlin"}
	if got := FromScheduling(prefs).ToScheduling(); got != prefs {
		t.Fatalf("round trip = %+v, want %+v", got, prefs)
	}
}
