/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package cache provides a Redis-based caching layer for per-user preferences.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/friendsincode/observatory/internal/logging"
	"github.com/friendsincode/observatory/internal/scheduling"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// DefaultPreferencesTTL bounds how stale cached working hours may get.
const DefaultPreferencesTTL = 5 * time.Minute

// Key prefixes for Redis cache
const (
	KeyPrefix      = "observatory:cache:"
	KeyPreferences = KeyPrefix + "preferences:" // + user_id
)

// Config contains cache configuration.
type Config struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	PreferencesTTL time.Duration

	// Fallback behavior
	DisableOnError bool // If true, disable caching on Redis errors
}

// DefaultConfig returns default cache configuration.
func DefaultConfig() Config {
	return Config{
		RedisAddr:      "localhost:6379",
		PreferencesTTL: DefaultPreferencesTTL,
		DisableOnError: true,
	}
}

// Cache provides Redis-backed caching with graceful fallback.
type Cache struct {
	client *redis.Client
	logger zerolog.Logger
	config Config

	mu       sync.RWMutex
	disabled bool // Circuit breaker state
}

// New creates a new cache instance.
func New(cfg Config, logger zerolog.Logger) (*Cache, error) {
	if cfg.PreferencesTTL <= 0 {
		cfg.PreferencesTTL = DefaultPreferencesTTL
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn().Err(err).Msg("Redis cache unavailable, running without caching")
		return &Cache{
			logger:   logging.Component(logger, "cache"),
			config:   cfg,
			disabled: true,
		}, nil
	}

	logger.Info().Str("addr", cfg.RedisAddr).Msg("Redis cache initialized")

	return &Cache{
		client: client,
		logger: logging.Component(logger, "cache"),
		config: cfg,
	}, nil
}

// NewDisabled returns a cache that always misses.
func NewDisabled(logger zerolog.Logger) *Cache {
	return &Cache{
		logger:   logging.Component(logger, "cache"),
		config:   DefaultConfig(),
		disabled: true,
	}
}

// Close closes the Redis connection.
func (c *Cache) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// IsAvailable returns true if the cache is operational.
func (c *Cache) IsAvailable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.disabled && c.client != nil
}

// handleError handles Redis errors with circuit breaker logic.
func (c *Cache) handleError(err error, operation string) {
	if err == nil || err == redis.Nil {
		return
	}

	c.logger.Debug().Err(err).Str("operation", operation).Msg("cache operation failed")

	if c.config.DisableOnError {
		c.mu.Lock()
		c.disabled = true
		c.mu.Unlock()
		c.logger.Warn().Msg("disabling cache due to Redis error")
	}
}

// get retrieves a value from cache and unmarshals it.
func (c *Cache) get(ctx context.Context, key string, dest any) (bool, error) {
	if !c.IsAvailable() {
		return false, nil
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		c.handleError(err, "get")
		return false, err
	}

	if err := json.Unmarshal(data, dest); err != nil {
		c.logger.Debug().Err(err).Str("key", key).Msg("failed to unmarshal cached value")
		return false, nil
	}

	return true, nil
}

// set stores a value in cache with TTL.
func (c *Cache) set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if !c.IsAvailable() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value: %w", err)
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		c.handleError(err, "set")
		return err
	}

	return nil
}

// delete removes a key from cache.
func (c *Cache) delete(ctx context.Context, key string) error {
	if !c.IsAvailable() {
		return nil
	}

	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.handleError(err, "delete")
		return err
	}

	return nil
}

// Preferences caching methods

// CachedPreferences is the cached form of a user's working hours.
type CachedPreferences struct {
	WorkingHoursStart string `json:"working_hours_start"`
	WorkingHoursEnd   string `json:"working_hours_end"`
	Timezone          string `json:"timezone"`
}

// ToScheduling converts the cached value into scheduler preferences.
func (p CachedPreferences) ToScheduling() scheduling.Preferences {
	return scheduling.Preferences{
		WorkingHoursStart: p.WorkingHoursStart,
		WorkingHoursEnd:   p.WorkingHoursEnd,
		Timezone:          p.Timezone,
	}
}

// FromScheduling builds the cached form of prefs.
func FromScheduling(prefs scheduling.Preferences) CachedPreferences {
	return CachedPreferences{
		WorkingHoursStart: prefs.WorkingHoursStart,
		WorkingHoursEnd:   prefs.WorkingHoursEnd,
		Timezone:          prefs.Timezone,
	}
}

// GetPreferences retrieves cached preferences for a user.
func (c *Cache) GetPreferences(ctx context.Context, userID string) (*CachedPreferences, bool) {
	var prefs CachedPreferences
	found, err := c.get(ctx, KeyPreferences+userID, &prefs)
	if err != nil || !found {
		return nil, false
	}
	c.logger.Debug().Str("user_id", userID).Msg("preferences cache hit")
	return &prefs, true
}

// SetPreferences caches preferences for a user.
func (c *Cache) SetPreferences(ctx context.Context, userID string, prefs CachedPreferences) error {
	c.logger.Debug().Str("user_id", userID).Msg("caching preferences")
	return c.set(ctx, KeyPreferences+userID, prefs, c.config.PreferencesTTL)
}

// InvalidatePreferences removes a user's preferences from cache.
func (c *Cache) InvalidatePreferences(ctx context.Context, userID string) error {
	c.logger.Debug().Str("user_id", userID).Msg("invalidating preferences cache")
	return c.delete(ctx, KeyPreferences+userID)
}
