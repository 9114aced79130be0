// Package routefile parses route definition files.
//
// A route file lists the routes of one scope. The scope (URL prefix, name
// prefix and middleware group) comes from where the file sits in the route
// tree; the file itself only holds paths relative to that scope.
//
//	# routes/api/users.toml
//	[[route]]
//	method  = "GET"
//	path    = "/"
//	name    = "index"
//	handler = "users.index"
//
//	[[route]]
//	method  = "GET"
//	path    = "/{id}"
//	name    = "show"
//	handler = "users.show"
//
//	[[route]]
//	path   = "/ping"
//	status = 200
//	body   = "pong"
//
// The same document can be written as YAML (.yaml, .yml) or JSON (.json).
package routefile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/vango-dev/autoroute/pkg/routepath"
)

var (
	// ErrUnsupportedFormat is returned for file extensions without a codec.
	ErrUnsupportedFormat = errors.New("routefile: unsupported format")

	// ErrInvalidRoute is returned when a route definition is incomplete or
	// contradictory.
	ErrInvalidRoute = errors.New("routefile: invalid route")

	// ErrSyntax wraps decoder errors for malformed documents.
	ErrSyntax = errors.New("routefile: syntax error")
)

// MethodAny matches every HTTP method.
const MethodAny = "ANY"

// File is a parsed route file.
type File struct {
	Routes []Route `toml:"route" yaml:"route" json:"route"`
}

// Route is one route definition.
type Route struct {
	// Method is the HTTP method (default: GET). ANY or * matches all methods.
	Method string `toml:"method" yaml:"method" json:"method"`

	// Path is relative to the file's URL prefix (default: "/").
	// chi patterns are allowed: "/{id}", "/{slug:[a-z-]+}", "/*".
	Path string `toml:"path" yaml:"path" json:"path"`

	// Name is appended to the file's route-name prefix. Optional.
	Name string `toml:"name" yaml:"name" json:"name"`

	// Handler names a handler in the registrar's handler registry.
	Handler string `toml:"handler" yaml:"handler" json:"handler"`

	// Middleware lists extra middleware groups for this route only.
	Middleware []string `toml:"middleware" yaml:"middleware" json:"middleware"`

	// Status, Body and ContentType describe a static response.
	Status      int    `toml:"status" yaml:"status" json:"status"`
	Body        string `toml:"body" yaml:"body" json:"body"`
	ContentType string `toml:"content_type" yaml:"content_type" json:"content_type"`

	// Redirect sends the client elsewhere (status default: 302).
	Redirect string `toml:"redirect" yaml:"redirect" json:"redirect"`
}

// IsStatic reports whether the route answers with a fixed response.
func (r Route) IsStatic() bool {
	return r.Handler == "" && r.Redirect == ""
}

// Extensions returns the file extensions Parse understands.
func Extensions() []string {
	return []string{".toml", ".yaml", ".yml", ".json"}
}

// Parse decodes data using the codec matching filename's extension,
// then normalizes and validates every route.
func Parse(filename string, data []byte) (*File, error) {
	var f File
	var err error

	switch strings.ToLower(path.Ext(filename)) {
	case ".toml":
		err = toml.Unmarshal(data, &f)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &f)
	case ".json":
		if len(bytes.TrimSpace(data)) > 0 {
			err = json.Unmarshal(data, &f)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filename)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSyntax, filename, err)
	}

	for i := range f.Routes {
		if err := f.Routes[i].normalize(); err != nil {
			return nil, fmt.Errorf("%s: route %d: %w", filename, i, err)
		}
	}

	return &f, nil
}

// normalize applies defaults and validates the route.
func (r *Route) normalize() error {
	r.Method = strings.ToUpper(strings.TrimSpace(r.Method))
	switch r.Method {
	case "":
		r.Method = http.MethodGet
	case "*":
		r.Method = MethodAny
	case MethodAny, http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut,
		http.MethodPatch, http.MethodDelete, http.MethodConnect, http.MethodOptions, http.MethodTrace:
	default:
		return fmt.Errorf("%w: unknown method %q", ErrInvalidRoute, r.Method)
	}

	clean, err := routepath.Clean(strings.TrimSpace(r.Path))
	if err != nil {
		return fmt.Errorf("%w: path %q: %w", ErrInvalidRoute, r.Path, err)
	}
	r.Path = clean

	kinds := 0
	if r.Handler != "" {
		kinds++
	}
	if r.Redirect != "" {
		kinds++
	}
	if r.Body != "" || (r.Status != 0 && r.Redirect == "") {
		kinds++
	}
	switch {
	case kinds == 0:
		return fmt.Errorf("%w: %s %s needs a handler, a redirect or a static response", ErrInvalidRoute, r.Method, r.Path)
	case kinds > 1:
		return fmt.Errorf("%w: %s %s mixes handler, redirect and static response", ErrInvalidRoute, r.Method, r.Path)
	}

	if r.Status != 0 && (r.Status < 100 || r.Status > 599) {
		return fmt.Errorf("%w: status %d out of range", ErrInvalidRoute, r.Status)
	}
	if r.Redirect != "" && r.Status != 0 && (r.Status < 300 || r.Status > 399) {
		return fmt.Errorf("%w: redirect status %d is not 3xx", ErrInvalidRoute, r.Status)
	}
	if r.Redirect != "" && r.Status == 0 {
		r.Status = http.StatusFound
	}
	if r.IsStatic() && r.Status == 0 {
		r.Status = http.StatusOK
	}
	if r.IsStatic() && r.ContentType == "" && r.Body != "" {
		r.ContentType = "text/plain; charset=utf-8"
	}

	return nil
}
