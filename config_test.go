package autoroute

import (
	"net/http"
	"testing"
)

func TestConfigHelpers(t *testing.T) {
	var cfg Config
	cfg.HandleFunc("ping", func(w http.ResponseWriter, r *http.Request) {})
	cfg.Handle("health", http.NotFoundHandler())
	cfg.Group("api", header("X-Group", "api"), header("X-Api", "1"))
	cfg.Group("empty")

	if len(cfg.Handlers) != 2 {
		t.Errorf("Handlers = %d, want 2", len(cfg.Handlers))
	}
	if len(cfg.MiddlewareGroups["api"]) != 2 {
		t.Errorf("api group = %d middleware, want 2", len(cfg.MiddlewareGroups["api"]))
	}
	if _, ok := cfg.MiddlewareGroups["empty"]; !ok {
		t.Error("an empty group should still be defined")
	}
}

func TestNewAppliesDefaults(t *testing.T) {
	app := New(nil, Config{})

	if app.Config().ShutdownTimeout != DefaultShutdownTimeout {
		t.Errorf("ShutdownTimeout = %v, want %v", app.Config().ShutdownTimeout, DefaultShutdownTimeout)
	}
	if app.Router() == nil {
		t.Error("Router() = nil, want a new chi router")
	}
	if app.Booted() {
		t.Error("new app should not be booted")
	}
}
