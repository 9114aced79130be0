package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vango-dev/autoroute/internal/config"
	"github.com/vango-dev/autoroute/pkg/fsys"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewServer(t *testing.T) {
	app := newServer(testConfig(), fsys.NewFSLister(tree), "routes", quietLogger(), prometheus.NewRegistry(), nil)
	if err := app.Boot(context.Background()); err != nil {
		t.Fatalf("Boot() error = %v", err)
	}

	t.Run("health", func(t *testing.T) {
		rec := httptest.NewRecorder()
		app.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var body struct {
			Status string `json:"status"`
			Routes int    `json:"routes"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatal(err)
		}
		if body.Status != "ok" || body.Routes != 4 {
			t.Errorf("body = %+v", body)
		}
	})

	t.Run("group middleware", func(t *testing.T) {
		rec := httptest.NewRecorder()
		app.ServeHTTP(rec, httptest.NewRequest("GET", "/api/routes", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		if !strings.Contains(rec.Header().Get("Cache-Control"), "no-cache") {
			t.Errorf("nocache group not applied: %v", rec.Header())
		}
		if !strings.Contains(rec.Body.String(), "api.routes.index") {
			t.Errorf("route listing missing its own route: %s", rec.Body.String())
		}
	})

	t.Run("redirect", func(t *testing.T) {
		rec := httptest.NewRecorder()
		app.ServeHTTP(rec, httptest.NewRequest("GET", "/docs/old", nil))
		if rec.Code != http.StatusMovedPermanently || rec.Header().Get("Location") != "/docs" {
			t.Errorf("redirect = %d %q", rec.Code, rec.Header().Get("Location"))
		}
	})

	t.Run("metrics", func(t *testing.T) {
		rec := httptest.NewRecorder()
		app.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `autoroute_http_requests_total{method="GET",route="/health",status="200"} 1`) {
			t.Errorf("request counter missing:\n%s", rec.Body.String())
		}
	})
}

func TestNewServerMetricsDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Server.MetricsPath = "-"

	app := newServer(cfg, fsys.NewFSLister(tree), "routes", quietLogger(), prometheus.NewRegistry(), nil)
	if err := app.Boot(context.Background()); err != nil {
		t.Fatal(err)
	}

	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("metrics status = %d, want 404", rec.Code)
	}
}

func TestRequestLogger(t *testing.T) {
	var buf strings.Builder
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	h := requestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/tea", nil))

	out := buf.String()
	if !strings.Contains(out, "status=418") || !strings.Contains(out, "path=/tea") {
		t.Errorf("log line = %q", out)
	}
}

func TestNewServerTracing(t *testing.T) {
	var buf bytes.Buffer
	tp, err := newTracerProvider(&buf)
	if err != nil {
		t.Fatal(err)
	}

	cfg := testConfig()
	cfg.Server.Tracing = config.Bool(true)
	app := newServer(cfg, fsys.NewFSLister(tree), "routes", quietLogger(), prometheus.NewRegistry(), tp)
	if err := app.Boot(context.Background()); err != nil {
		t.Fatal(err)
	}
	app.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/health", nil))

	if err := tp.Shutdown(context.Background()); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{`"autoroute.boot"`, `"GET /health"`, `"autoroute"`} {
		if !strings.Contains(out, want) {
			t.Errorf("exported spans missing %s:\n%s", want, out)
		}
	}
}
