package autoroute

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/autoroute/pkg/discover"
	"github.com/vango-dev/autoroute/pkg/middleware"
	"github.com/vango-dev/autoroute/pkg/registrar"
)

// ErrAlreadyBooted is returned by Boot after the first call.
var ErrAlreadyBooted = errors.New("autoroute: already booted")

const tracerName = "github.com/vango-dev/autoroute"

// Lister lists a route tree and reads its files. Every lister in
// pkg/fsys satisfies it.
type Lister interface {
	discover.FileLister
	registrar.Source
}

// =============================================================================
// App Type
// =============================================================================

// App discovers a route tree once and serves it through chi.
//
//	app := autoroute.New(fsys.NewOSLister(), autoroute.Config{
//	    Discovery: discover.Config{Root: "routes", Match: discover.MiddlewareMap(groups)},
//	    Handlers:  handlers,
//	})
//	if err := app.Boot(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	http.ListenAndServe(":8080", app)
type App struct {
	lister     Lister
	discoverer *discover.Discoverer
	router     *chi.Mux
	registrar  *registrar.Chi

	config  Config
	logger  *slog.Logger
	metrics *middleware.Metrics
	tracer  trace.Tracer

	mu            sync.Mutex
	booted        bool
	registrations []discover.Registration
}

// New creates an application reading its route tree through lister.
// Root middleware is installed on the router immediately; routes are only
// mounted by Boot.
func New(lister Lister, cfg Config) *App {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
	router := cfg.Router
	if router == nil {
		router = chi.NewRouter()
	}
	tp := cfg.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}

	// chi rejects Use after the first route, so root middleware goes first.
	router.Use(cfg.Middleware...)
	if cfg.Metrics != nil {
		router.Use(cfg.Metrics.Handler)
	}
	if cfg.Tracing {
		opts := cfg.TracingOptions
		if cfg.TracerProvider != nil {
			opts = append([]middleware.TracingOption{middleware.WithTracerProvider(tp)}, opts...)
		}
		router.Use(middleware.Tracing(opts...))
	}
	if cfg.NotFound != nil {
		router.NotFound(cfg.NotFound.ServeHTTP)
	}

	opts := []registrar.Option{
		registrar.WithLogger(logger),
		registrar.WithHandlers(cfg.Handlers),
	}
	for name, mw := range cfg.MiddlewareGroups {
		opts = append(opts, registrar.WithMiddlewareGroup(name, mw...))
	}

	d := discover.New(lister, cfg.Discovery)

	return &App{
		lister:     lister,
		discoverer: d,
		router:     router,
		registrar:  registrar.NewChi(router, lister, opts...),
		config:     cfg,
		logger:     logger,
		metrics:    cfg.Metrics,
		tracer:     tp.Tracer(tracerName),
	}
}

// =============================================================================
// Boot
// =============================================================================

// Boot walks the route tree and mounts every route file. It runs once;
// later calls return ErrAlreadyBooted. Lister and registrar errors are
// returned unchanged and leave the files registered before them mounted.
func (a *App) Boot(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.booted {
		return ErrAlreadyBooted
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	a.booted = true

	root := a.discoverer.Config().Root
	_, span := a.tracer.Start(ctx, "autoroute.boot",
		trace.WithAttributes(attribute.String("autoroute.root", root)),
	)
	defer span.End()

	start := time.Now()
	err := a.discoverer.Discover(&observer{app: a, next: a.registrar, span: span})

	routes := a.registrar.Routes()
	a.metrics.SetRoutes(len(routes))
	span.SetAttributes(
		attribute.Int("autoroute.files", len(a.registrations)),
		attribute.Int("autoroute.routes", len(routes)),
	)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		a.logger.Error("route discovery failed",
			"root", root,
			"files", len(a.registrations),
			"error", err,
		)
		return err
	}

	a.logger.Info("routes discovered",
		"root", root,
		"files", len(a.registrations),
		"routes", len(routes),
		"duration", time.Since(start),
	)
	return nil
}

// observer forwards registrations to the chi registrar and records the
// successful ones.
type observer struct {
	app  *App
	next discover.Registrar
	span trace.Span
}

func (o *observer) Group(reg discover.Registration) error {
	if err := o.next.Group(reg); err != nil {
		return err
	}
	o.record("group", reg)
	return nil
}

func (o *observer) Include(file string) error {
	if err := o.next.Include(file); err != nil {
		return err
	}
	o.record("bare", discover.Registration{File: file, Bare: true})
	return nil
}

func (o *observer) record(kind string, reg discover.Registration) {
	o.app.registrations = append(o.app.registrations, reg)
	o.app.metrics.RecordRegistration(kind, reg.Middleware)
	o.span.AddEvent("route file registered", trace.WithAttributes(
		attribute.String("autoroute.file", reg.File),
		attribute.String("autoroute.kind", kind),
		attribute.String("autoroute.prefix", reg.URLPrefix),
		attribute.String("autoroute.middleware", reg.Middleware),
	))
}

// =============================================================================
// http.Handler Implementation
// =============================================================================

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

// Handler returns the App as an http.Handler.
func (a *App) Handler() http.Handler {
	return a
}

// =============================================================================
// Accessors
// =============================================================================

// Booted reports whether Boot has run.
func (a *App) Booted() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.booted
}

// Routes returns the mounted routes in registration order.
func (a *App) Routes() []registrar.Route {
	return a.registrar.Routes()
}

// Registrations returns the route files registered by Boot, in walk order.
func (a *App) Registrations() []discover.Registration {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]discover.Registration(nil), a.registrations...)
}

// URL builds the path of a named route.
func (a *App) URL(name string, params map[string]string) (string, error) {
	return a.registrar.URL(name, params)
}

// MustURL is URL that panics on error, for use in templates and tests.
func (a *App) MustURL(name string, params map[string]string) string {
	u, err := a.URL(name, params)
	if err != nil {
		panic(fmt.Sprintf("autoroute: %v", err))
	}
	return u
}

// Router returns the underlying chi router.
func (a *App) Router() chi.Router {
	return a.router
}

// Config returns the app configuration with defaults applied.
func (a *App) Config() Config {
	return a.config
}
