/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Database backend selection.
type DatabaseBackend string

const (
	DatabasePostgres DatabaseBackend = "postgres"
	DatabaseMySQL    DatabaseBackend = "mysql"
	DatabaseSQLite   DatabaseBackend = "sqlite"
)

// Config covers process level configuration read from environment variables.
type Config struct {
	Environment string
	HTTPBind    string
	HTTPPort    int
	DBBackend   DatabaseBackend
	DBDSN       string
	MetricsBind string

	// Requests without an X-User-ID header act as this user.
	DefaultUserID   string
	DefaultTimezone string
	RequestTimeout  time.Duration

	// Scheduling heuristic overrides (YAML).
	TuningFile string

	// Tracing configuration
	TracingEnabled    bool
	OTLPEndpoint      string
	TracingSampleRate float64

	// Preferences cache
	CacheEnabled  bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	// Google Calendar
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRefreshToken string
	GoogleCalendarID   string

	LegacyEnvWarnings []string
}

// GoogleCalendarEnabled reports whether enough credentials are present to
// talk to Google Calendar.
func (c *Config) GoogleCalendarEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != "" && c.GoogleRefreshToken != ""
}

// Load reads environment variables, applies defaults, and validates the result.
func Load() (*Config, error) {
	cfg := &Config{
		Environment: getEnvAny([]string{"OBSERVATORY_ENV"}, "development"),
		HTTPBind:    getEnvAny([]string{"OBSERVATORY_HTTP_BIND"}, "0.0.0.0"),
		HTTPPort:    getEnvIntAny([]string{"OBSERVATORY_HTTP_PORT", "PORT"}, 8080),
		DBBackend:   DatabaseBackend(getEnvAny([]string{"OBSERVATORY_DB_BACKEND"}, string(DatabasePostgres))),
		DBDSN:       getEnvAny([]string{"OBSERVATORY_DB_DSN", "DATABASE_URL"}, ""),
		MetricsBind: getEnvAny([]string{"OBSERVATORY_METRICS_BIND"}, "127.0.0.1:9000"),

		DefaultUserID:   getEnvAny([]string{"OBSERVATORY_DEFAULT_USER_ID"}, ""),
		DefaultTimezone: getEnvAny([]string{"OBSERVATORY_DEFAULT_TIMEZONE"}, "UTC"),
		RequestTimeout:  time.Duration(getEnvIntAny([]string{"OBSERVATORY_REQUEST_TIMEOUT_SECONDS"}, 30)) * time.Second,

		TuningFile: getEnvAny([]string{"OBSERVATORY_TUNING_FILE"}, ""),

		// Tracing configuration
		TracingEnabled:    getEnvBoolAny([]string{"OBSERVATORY_TRACING_ENABLED"}, false),
		OTLPEndpoint:      getEnvAny([]string{"OBSERVATORY_OTLP_ENDPOINT"}, "localhost:4317"),
		TracingSampleRate: getEnvFloatAny([]string{"OBSERVATORY_TRACING_SAMPLE_RATE"}, 1.0),

		// Preferences cache
		CacheEnabled:  getEnvBoolAny([]string{"OBSERVATORY_CACHE_ENABLED"}, false),
		RedisAddr:     getEnvAny([]string{"OBSERVATORY_REDIS_ADDR", "REDIS_ADDR"}, "localhost:6379"),
		RedisPassword: getEnvAny([]string{"OBSERVATORY_REDIS_PASSWORD", "REDIS_PASSWORD"}, ""),
		RedisDB:       getEnvIntAny([]string{"OBSERVATORY_REDIS_DB"}, 0),
		CacheTTL:      time.Duration(getEnvIntAny([]string{"OBSERVATORY_CACHE_TTL_SECONDS"}, 300)) * time.Second,

		// Google Calendar
		GoogleClientID:     getEnvAny([]string{"OBSERVATORY_GOOGLE_CLIENT_ID", "GOOGLE_CLIENT_ID"}, ""),
		GoogleClientSecret: getEnvAny([]string{"OBSERVATORY_GOOGLE_CLIENT_SECRET", "GOOGLE_CLIENT_SECRET"}, ""),
		GoogleRefreshToken: getEnvAny([]string{"OBSERVATORY_GOOGLE_REFRESH_TOKEN", "GOOGLE_REFRESH_TOKEN"}, ""),
		GoogleCalendarID:   getEnvAny([]string{"OBSERVATORY_GOOGLE_CALENDAR_ID"}, "primary"),
	}

	if cfg.DBBackend != DatabasePostgres && cfg.DBBackend != DatabaseMySQL && cfg.DBBackend != DatabaseSQLite {
		return nil, fmt.Errorf("unsupported database backend %q", cfg.DBBackend)
	}

	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("OBSERVATORY_DB_DSN or DATABASE_URL must be provided")
	}

	if _, err := time.LoadLocation(cfg.DefaultTimezone); err != nil {
		return nil, fmt.Errorf("invalid OBSERVATORY_DEFAULT_TIMEZONE %q: %w", cfg.DefaultTimezone, err)
	}

	if cfg.TracingSampleRate < 0 || cfg.TracingSampleRate > 1 {
		return nil, fmt.Errorf("OBSERVATORY_TRACING_SAMPLE_RATE must be between 0 and 1, got %v", cfg.TracingSampleRate)
	}

	if strings.EqualFold(cfg.Environment, "production") && cfg.DefaultUserID == "" {
		return nil, fmt.Errorf("OBSERVATORY_DEFAULT_USER_ID must be set in production")
	}
	cfg.LegacyEnvWarnings = detectLegacyEnvWarnings()

	return cfg, nil
}

func detectLegacyEnvWarnings() []string {
	legacy := map[string]string{
		"GOOGLE_CLIENT_ID":     "use OBSERVATORY_GOOGLE_CLIENT_ID",
		"GOOGLE_CLIENT_SECRET": "use OBSERVATORY_GOOGLE_CLIENT_SECRET",
		"GOOGLE_REFRESH_TOKEN": "use OBSERVATORY_GOOGLE_REFRESH_TOKEN",
		"DATABASE_URL":         "use OBSERVATORY_DB_DSN",
	}

	warnings := make([]string, 0, len(legacy))
	for key, recommendation := range legacy {
		if os.Getenv(key) != "" {
			warnings = append(warnings, fmt.Sprintf("legacy env key %s is set; %s", key, recommendation))
		}
	}
	return warnings
}

// getEnvAny returns the first non-empty environment variable value from keys, or def if none set.
func getEnvAny(keys []string, def string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return def
}

// getEnvIntAny returns the first set integer environment variable value from keys, or def.
func getEnvIntAny(keys []string, def int) int {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			if parsed, err := strconv.Atoi(v); err == nil {
				return parsed
			}
		}
	}
	return def
}

// getEnvBoolAny returns the first set boolean environment variable value from keys, or def.
func getEnvBoolAny(keys []string, def bool) bool {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			v = strings.ToLower(strings.TrimSpace(v))
			if v == "true" || v == "1" || v == "yes" {
				return true
			}
			if v == "false" || v == "0" || v == "no" {
				return false
			}
		}
	}
	return def
}

// getEnvFloatAny returns the first set float environment variable value from keys, or def.
func getEnvFloatAny(keys []string, def float64) float64 {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			if parsed, err := strconv.ParseFloat(v, 64); err == nil {
				return parsed
			}
		}
	}
	return def
}
