/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/friendsincode/observatory/internal/api"
	"github.com/friendsincode/observatory/internal/cache"
	"github.com/friendsincode/observatory/internal/calendar"
	"github.com/friendsincode/observatory/internal/config"
	"github.com/friendsincode/observatory/internal/db"
	"github.com/friendsincode/observatory/internal/events"
	"github.com/friendsincode/observatory/internal/planner"
	"github.com/friendsincode/observatory/internal/store"
	"github.com/friendsincode/observatory/internal/telemetry"
)

// Server bundles HTTP and supporting services.
type Server struct {
	cfg           *config.Config
	logger        zerolog.Logger
	router        chi.Router
	httpServer    *http.Server
	metricsServer *http.Server
	closers       []func() error

	db      *gorm.DB
	cache   *cache.Cache
	bus     *events.Bus
	planner *planner.Service
	api     *api.API

	bgCancel context.CancelFunc
	bgWG     sync.WaitGroup
}

// New constructs the server and wires dependencies.
func New(cfg *config.Config, logger zerolog.Logger) (*Server, error) {
	for _, warn := range cfg.LegacyEnvWarnings {
		logger.Warn().Msg(warn)
	}

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(securityHeadersMiddleware)
	router.Use(telemetry.TracingMiddleware("observatory-api")) // Add OpenTelemetry tracing
	router.Use(telemetry.MetricsMiddleware)                    // Add Prometheus metrics
	if cfg.RequestTimeout > 0 {
		router.Use(middleware.Timeout(cfg.RequestTimeout))
	}

	srv := &Server{
		cfg:    cfg,
		logger: logger,
		router: router,
		bus:    events.NewBus(),
	}

	if err := srv.initDependencies(); err != nil {
		_ = srv.Close()
		return nil, err
	}

	srv.configureRoutes()
	srv.startBackgroundWorkers()

	addr := fmt.Sprintf("%s:%d", cfg.HTTPBind, cfg.HTTPPort)
	srv.httpServer = &http.Server{
		Addr:              addr,
		Handler:           srv.router,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	if cfg.MetricsBind != "" {
		srv.metricsServer = &http.Server{
			Addr:              cfg.MetricsBind,
			Handler:           telemetry.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
	}

	return srv, nil
}

func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")

		// Only advertise HSTS for requests served over HTTPS.
		if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
			w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) initDependencies() error {
	database, err := db.Connect(s.cfg)
	if err != nil {
		return err
	}
	s.DeferClose(func() error { return db.Close(database) })
	if err := db.Migrate(database); err != nil {
		return err
	}
	s.db = database

	tuning, err := config.LoadTuning(s.cfg.TuningFile)
	if err != nil {
		return err
	}

	if s.cfg.CacheEnabled {
		c, err := cache.New(cache.Config{
			RedisAddr:      s.cfg.RedisAddr,
			RedisPassword:  s.cfg.RedisPassword,
			RedisDB:        s.cfg.RedisDB,
			PreferencesTTL: s.cfg.CacheTTL,
			DisableOnError: true,
		}, s.logger)
		if err != nil {
			return fmt.Errorf("init cache: %w", err)
		}
		s.cache = c
		s.DeferClose(c.Close)
	}

	opts := planner.Options{
		Bus:             s.bus,
		DefaultTimezone: s.cfg.DefaultTimezone,
	}
	if s.cache != nil {
		opts.Cache = s.cache
	}

	if s.cfg.GoogleCalendarEnabled() {
		provider, err := calendar.NewGoogleProvider(context.Background(), calendar.GoogleConfig{
			ClientID:     s.cfg.GoogleClientID,
			ClientSecret: s.cfg.GoogleClientSecret,
			RefreshToken: s.cfg.GoogleRefreshToken,
			CalendarID:   s.cfg.GoogleCalendarID,
		}, s.logger)
		if err != nil {
			return fmt.Errorf("init google calendar: %w", err)
		}
		opts.Calendar = provider
	} else {
		s.logger.Info().Msg("google calendar not configured, confirmed tasks stay local")
	}

	st := store.New(database, s.logger)
	s.planner = planner.New(st, st, tuning, opts, s.logger)
	s.api = api.New(s.planner, s.cfg.DefaultUserID, s.logger)
	return nil
}

// HTTPServer exposes the underlying net/http server.
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// MetricsServer exposes the metrics listener, nil when metrics share the API port.
func (s *Server) MetricsServer() *http.Server {
	return s.metricsServer
}

// Handler returns the root router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases owned resources in reverse order.
func (s *Server) Close() error {
	s.stopBackgroundWorkers()

	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

// DeferClose registers a function to run on Close.
func (s *Server) DeferClose(fn func() error) {
	s.closers = append(s.closers, fn)
}

func (s *Server) startBackgroundWorkers() {
	ctx, cancel := context.WithCancel(context.Background())
	s.bgCancel = cancel

	// Start database metrics updater
	if s.db != nil {
		s.bgWG.Add(1)
		go func() {
			defer s.bgWG.Done()
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()

			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					db.UpdateConnectionMetrics(s.db)
				}
			}
		}()
	}

	// Start cache invalidation listener
	if s.cache != nil {
		s.bgWG.Add(1)
		go func() {
			defer s.bgWG.Done()
			s.logger.Info().Msg("cache invalidation listener started")
			s.planner.WatchPreferences(ctx)
			s.logger.Info().Msg("cache invalidation listener stopped")
		}()
	}
}

func (s *Server) stopBackgroundWorkers() {
	if s.bgCancel == nil {
		return
	}
	s.bgCancel()
	s.bgWG.Wait()
	s.bgCancel = nil
}

func (s *Server) configureRoutes() {
	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if s.cfg.MetricsBind == "" {
		s.router.Handle("/metrics", telemetry.Handler())
	}

	s.api.Routes(s.router)
}
