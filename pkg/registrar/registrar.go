// Package registrar mounts discovered route files on a chi router.
//
// Each route file is read through a Source, parsed with routefile, and its
// routes are registered under the scope the discoverer derived for it:
//
//	routes/api/users.toml  (prefix api/users, names api.users., group "api")
//	  GET /      name=index   → GET /api/users       named api.users.index
//	  GET /{id}  name=show    → GET /api/users/{id}  named api.users.show
//
// Handlers are looked up by name in a registry filled at construction.
// Middleware groups are named lists of chi middleware.
package registrar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/autoroute/pkg/discover"
	"github.com/vango-dev/autoroute/pkg/routefile"
)

var (
	// ErrUnknownHandler is returned when a route names an unregistered handler.
	ErrUnknownHandler = errors.New("registrar: unknown handler")

	// ErrUnknownMiddleware is returned for an unregistered middleware group.
	ErrUnknownMiddleware = errors.New("registrar: unknown middleware group")

	// ErrDuplicateName is returned when two routes share a full name.
	ErrDuplicateName = errors.New("registrar: duplicate route name")

	// ErrUnknownRoute is returned by URL for a name that was never registered.
	ErrUnknownRoute = errors.New("registrar: unknown route")

	// ErrMissingParam is returned by URL when a pattern parameter has no value.
	ErrMissingParam = errors.New("registrar: missing route parameter")

	// ErrInvalidPattern is returned when chi rejects a route pattern.
	ErrInvalidPattern = errors.New("registrar: invalid route pattern")
)

// Source reads route file contents. Every fsys lister is a Source.
type Source interface {
	ReadFile(name string) ([]byte, error)
}

// Middleware is a standard net/http middleware, as used by chi.
type Middleware = func(http.Handler) http.Handler

// Route is a mounted route.
type Route struct {
	// Name is the full route name, empty for unnamed routes.
	Name string

	// Method is the HTTP method or routefile.MethodAny.
	Method string

	// Pattern is the chi pattern the route is served at.
	Pattern string

	// Middleware lists the group names applied, outermost first.
	Middleware []string

	// File is the route file the route came from.
	File string
}

// Chi registers route files on a chi router. It implements discover.Registrar.
type Chi struct {
	router   chi.Router
	source   Source
	handlers map[string]http.Handler
	groups   map[string][]Middleware
	logger   *slog.Logger

	routes []Route
	names  map[string]int
}

var _ discover.Registrar = (*Chi)(nil)

// Option configures a Chi registrar.
type Option func(*Chi)

// WithHandler registers a handler under name.
func WithHandler(name string, h http.Handler) Option {
	return func(c *Chi) {
		c.handlers[name] = h
	}
}

// WithHandlerFunc registers a handler function under name.
func WithHandlerFunc(name string, fn http.HandlerFunc) Option {
	return WithHandler(name, fn)
}

// WithHandlers registers every handler in the map.
func WithHandlers(handlers map[string]http.Handler) Option {
	return func(c *Chi) {
		for name, h := range handlers {
			c.handlers[name] = h
		}
	}
}

// WithMiddlewareGroup defines a named middleware group.
// Registering the same name twice replaces the group.
func WithMiddlewareGroup(name string, mw ...Middleware) Option {
	return func(c *Chi) {
		c.groups[name] = mw
	}
}

// WithLogger sets the logger used for registration messages.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Chi) {
		c.logger = logger
	}
}

// NewChi creates a registrar mounting routes on router and reading
// route files from src.
func NewChi(router chi.Router, src Source, opts ...Option) *Chi {
	c := &Chi{
		router:   router,
		source:   src,
		handlers: make(map[string]http.Handler),
		groups:   make(map[string][]Middleware),
		names:    make(map[string]int),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Group implements discover.Registrar.
func (c *Chi) Group(reg discover.Registration) error {
	return c.load(reg)
}

// Include implements discover.Registrar.
func (c *Chi) Include(file string) error {
	return c.load(discover.Registration{File: file, Bare: true})
}

// Routes returns the mounted routes in registration order.
func (c *Chi) Routes() []Route {
	out := make([]Route, len(c.routes))
	copy(out, c.routes)
	return out
}

// Names returns every registered route name, sorted.
func (c *Chi) Names() []string {
	names := make([]string, 0, len(c.names))
	for name := range c.names {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Route returns the route registered under name.
func (c *Chi) Route(name string) (Route, bool) {
	i, ok := c.names[name]
	if !ok {
		return Route{}, false
	}
	return c.routes[i], true
}

func (c *Chi) load(reg discover.Registration) error {
	data, err := c.source.ReadFile(reg.File)
	if err != nil {
		return fmt.Errorf("read route file %s: %w", reg.File, err)
	}

	file, err := routefile.Parse(reg.File, data)
	if err != nil {
		return err
	}

	var groupNames []string
	if reg.Middleware != "" {
		groupNames = append(groupNames, reg.Middleware)
	}
	groupMW, err := c.resolveGroups(groupNames)
	if err != nil {
		return fmt.Errorf("%s: %w", reg.File, err)
	}

	// Resolve everything before touching the router; mount then checks the
	// patterns on a scratch router so a bad file mounts nothing.
	batch := make([]pending, 0, len(file.Routes))
	batchNames := make(map[string]bool)

	for _, def := range file.Routes {
		h, err := c.handlerFor(def, reg.Namespace)
		if err != nil {
			return fmt.Errorf("%s: %w", reg.File, err)
		}

		routeMW, err := c.resolveGroups(def.Middleware)
		if err != nil {
			return fmt.Errorf("%s: %w", reg.File, err)
		}

		name := ""
		if def.Name != "" {
			name = reg.NamePrefix + def.Name
			if _, dup := c.names[name]; dup || batchNames[name] {
				return fmt.Errorf("%s: %w: %s", reg.File, ErrDuplicateName, name)
			}
			batchNames[name] = true
		}

		batch = append(batch, pending{
			route: Route{
				Name:       name,
				Method:     def.Method,
				Pattern:    JoinPattern(reg.URLPrefix, def.Path),
				Middleware: append(append([]string(nil), groupNames...), def.Middleware...),
				File:       reg.File,
			},
			mw:      routeMW,
			handler: h,
		})
	}

	if err := c.mount(groupMW, batch); err != nil {
		return fmt.Errorf("%s: %w", reg.File, err)
	}

	c.logger.Debug("route file registered",
		"file", reg.File,
		"prefix", reg.URLPrefix,
		"name_prefix", reg.NamePrefix,
		"middleware", reg.Middleware,
		"routes", len(batch),
	)

	return nil
}

type pending struct {
	route   Route
	mw      []Middleware
	handler http.Handler
}

// mount registers a resolved batch on the router. The batch is first
// mounted on a scratch router so a pattern chi rejects fails the whole
// file before anything reaches the real one.
func (c *Chi) mount(groupMW []Middleware, batch []pending) error {
	if err := register(chi.NewRouter(), groupMW, batch); err != nil {
		return err
	}
	if err := register(c.router, groupMW, batch); err != nil {
		return err
	}

	for _, p := range batch {
		if p.route.Name != "" {
			c.names[p.route.Name] = len(c.routes)
		}
		c.routes = append(c.routes, p.route)
	}
	return nil
}

// register adds batch to router as one group. chi reports malformed
// patterns by panicking; that panic is turned into ErrInvalidPattern.
func register(router chi.Router, groupMW []Middleware, batch []pending) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v", ErrInvalidPattern, rec)
		}
	}()

	router.Group(func(r chi.Router) {
		r.Use(groupMW...)
		for _, p := range batch {
			h := nameRoute(p.route.Name, p.handler)
			if len(p.mw) > 0 {
				h = chi.Chain(p.mw...).Handler(h)
			}
			if p.route.Method == routefile.MethodAny {
				r.Handle(p.route.Pattern, h)
			} else {
				r.Method(p.route.Method, p.route.Pattern, h)
			}
		}
	})
	return nil
}

func (c *Chi) resolveGroups(names []string) ([]Middleware, error) {
	var out []Middleware
	for _, name := range names {
		mw, ok := c.groups[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownMiddleware, name)
		}
		out = append(out, mw...)
	}
	return out, nil
}

// handlerFor builds the handler of one route definition. Named handlers
// are looked up as namespace.handler first, then as handler.
func (c *Chi) handlerFor(def routefile.Route, namespace string) (http.Handler, error) {
	switch {
	case def.Handler != "":
		if namespace != "" {
			if h, ok := c.handlers[namespace+"."+def.Handler]; ok {
				return h, nil
			}
		}
		if h, ok := c.handlers[def.Handler]; ok {
			return h, nil
		}
		return nil, fmt.Errorf("%w: %s", ErrUnknownHandler, def.Handler)

	case def.Redirect != "":
		return http.RedirectHandler(def.Redirect, def.Status), nil

	default:
		return staticHandler(def.Status, def.ContentType, def.Body), nil
	}
}

func staticHandler(status int, contentType, body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		w.WriteHeader(status)
		if r.Method != http.MethodHead {
			_, _ = w.Write([]byte(body))
		}
	})
}

type routeNameKey struct{}

// RouteName returns the name of the route serving the request, if any.
func RouteName(ctx context.Context) string {
	name, _ := ctx.Value(routeNameKey{}).(string)
	return name
}

// nameRoute stores the route name in the request context and on the
// active span.
func nameRoute(name string, next http.Handler) http.Handler {
	if name == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		trace.SpanFromContext(ctx).SetAttributes(attribute.String("autoroute.route_name", name))
		next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, routeNameKey{}, name)))
	})
}

// JoinPattern joins a URL prefix and a route path into a chi pattern.
//
//	JoinPattern("api/users", "/")     → "/api/users"
//	JoinPattern("api/users", "/{id}") → "/api/users/{id}"
//	JoinPattern("", "/")              → "/"
func JoinPattern(prefix, path string) string {
	prefix = strings.Trim(prefix, "/")
	if path == "" || path == "/" {
		return "/" + prefix
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if prefix == "" {
		return path
	}
	return "/" + prefix + path
}
