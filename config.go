package autoroute

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/autoroute/pkg/discover"
	"github.com/vango-dev/autoroute/pkg/middleware"
	"github.com/vango-dev/autoroute/pkg/registrar"
)

// =============================================================================
// Configuration Types
// =============================================================================

// Config is the application configuration.
type Config struct {
	// Discovery configures the route tree walk: root, root file name,
	// flattened directories, namespace and middleware matcher.
	Discovery discover.Config

	// Handlers are the handlers route files refer to by name.
	Handlers map[string]http.Handler

	// MiddlewareGroups are the named middleware groups directories and
	// routes refer to.
	MiddlewareGroups map[string][]registrar.Middleware

	// Middleware is applied to every request, before routing.
	Middleware []registrar.Middleware

	// NotFound replaces chi's default 404 handler.
	NotFound http.Handler

	// Router is the chi router routes are mounted on.
	// If nil, a new chi.Mux is created.
	Router *chi.Mux

	// Logger is the structured logger for the application.
	// If nil, slog.Default() is used.
	Logger *slog.Logger

	// Metrics records registrations and request metrics when set.
	Metrics *middleware.Metrics

	// Tracing enables the per-request OpenTelemetry middleware.
	Tracing bool

	// TracingOptions configure the request middleware when Tracing is set.
	TracingOptions []middleware.TracingOption

	// TracerProvider is used for the boot span.
	// If nil, the global provider is used.
	TracerProvider trace.TracerProvider

	// ShutdownTimeout bounds graceful shutdown in Run.
	// Default: 10 seconds
	ShutdownTimeout time.Duration
}

// DefaultShutdownTimeout is used when Config.ShutdownTimeout is zero.
const DefaultShutdownTimeout = 10 * time.Second

// Handle registers h under name in Handlers.
func (c *Config) Handle(name string, h http.Handler) {
	if c.Handlers == nil {
		c.Handlers = make(map[string]http.Handler)
	}
	c.Handlers[name] = h
}

// HandleFunc registers fn under name in Handlers.
func (c *Config) HandleFunc(name string, fn http.HandlerFunc) {
	c.Handle(name, fn)
}

// Group defines a named middleware group.
func (c *Config) Group(name string, mw ...registrar.Middleware) {
	if c.MiddlewareGroups == nil {
		c.MiddlewareGroups = make(map[string][]registrar.Middleware)
	}
	c.MiddlewareGroups[name] = mw
}
