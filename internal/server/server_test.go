package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/observatory/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Environment:     "test",
		DBBackend:       config.DatabaseSQLite,
		DBDSN:           ":memory:",
		DefaultUserID:   "9f1c2a4e-0000-4000-8000-000000000001",
		DefaultTimezone: "UTC",
		RequestTimeout:  5 * time.Second,
	}
}

func TestSecurityHeadersMiddleware_BaselineHeaders(t *testing.T) {
	h := securityHeadersMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if got := rr.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("X-Content-Type-Options=%q, want nosniff", got)
	}
	if got := rr.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Fatalf("X-Frame-Options=%q, want DENY", got)
	}
	if got := rr.Header().Get("Strict-Transport-Security"); got != "" {
		t.Fatalf("expected no HSTS on non-HTTPS request, got %q", got)
	}
}

func TestSecurityHeadersMiddleware_SetsHSTSOnHTTPS(t *testing.T) {
	h := securityHeadersMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if got := rr.Header().Get("Strict-Transport-Security"); got != "max-age=31536000; includeSubDomains" {
		t.Fatalf("Strict-Transport-Security=%q, want max-age=31536000; includeSubDomains", got)
	}
}

func TestNewServesAPIAndMetrics(t *testing.T) {
	srv, err := New(testConfig(), zerolog.Nop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		if err := srv.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})

	if srv.MetricsServer() != nil {
		t.Error("metrics should share the API router when no bind is set")
	}
	if srv.HTTPServer().Addr != ":0" {
		t.Errorf("addr = %q", srv.HTTPServer().Addr)
	}

	for _, path := range []string{"/healthz", "/api/v1/health", "/metrics"} {
		rr := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusOK {
			t.Errorf("GET %s status = %d", path, rr.Code)
		}
	}

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/tasks/schedule", strings.NewReader(`{"taskId":"missing"}`))
	srv.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Errorf("schedule for missing task status = %d, want 404", rr.Code)
	}
}

func TestNewSeparateMetricsListener(t *testing.T) {
	cfg := testConfig()
	cfg.MetricsBind = "127.0.0.1:0"

	srv, err := New(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer srv.Close()

	if srv.MetricsServer() == nil || srv.MetricsServer().Addr != "127.0.0.1:0" {
		t.Fatalf("metrics server = %+v", srv.MetricsServer())
	}
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusNotFound {
		t.Errorf("GET /metrics on API router status = %d, want 404", rr.Code)
	}
}
