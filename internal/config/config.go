package config

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/vango-dev/autoroute/internal/errors"
	"github.com/vango-dev/autoroute/internal/logging"
	"github.com/vango-dev/autoroute/pkg/discover"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "autoroute.toml"

	// OverlayConfigPattern is the file name pattern for environment overlays.
	OverlayConfigPattern = "autoroute.%s.toml"

	// DefaultAddr is the default listen address of the serve command.
	DefaultAddr = ":8080"

	// DefaultMetricsPath is where serve exposes Prometheus metrics.
	DefaultMetricsPath = "/metrics"

	// Route sources.
	SourceDir = "dir"
	SourceS3  = "s3"
)

// Environment variables read by Finalize.
const (
	EnvEnvironment     = "AUTOROUTE_ENV"
	EnvRoutesDir       = "AUTOROUTE_ROUTES_DIR"
	EnvRootFile        = "AUTOROUTE_ROOT_FILE"
	EnvFlatten         = "AUTOROUTE_FLATTEN"
	EnvNamespace       = "AUTOROUTE_NAMESPACE"
	EnvSource          = "AUTOROUTE_SOURCE"
	EnvS3Bucket        = "AUTOROUTE_S3_BUCKET"
	EnvS3Region        = "AUTOROUTE_S3_REGION"
	EnvS3Endpoint      = "AUTOROUTE_S3_ENDPOINT"
	EnvAddr            = "AUTOROUTE_ADDR"
	EnvShutdownTimeout = "AUTOROUTE_SHUTDOWN_TIMEOUT"
)

// Config represents autoroute.toml.
type Config struct {
	// Routes configures discovery.
	Routes RoutesConfig `toml:"routes"`

	// Source selects where the route tree is read from.
	Source SourceConfig `toml:"source"`

	// Server configures the serve command.
	Server ServerConfig `toml:"server"`

	// Logging configures the CLI logger.
	Logging logging.Config `toml:"logging"`

	// configPath stores the path where the config was loaded from.
	configPath string

	// dir is the directory relative paths resolve against.
	dir string
}

// RoutesConfig contains discovery settings.
type RoutesConfig struct {
	// Dir is the route root (default: "routes").
	Dir string `toml:"dir"`

	// RootFile is the basename of directory root files (default: "root").
	RootFile string `toml:"root_file"`

	// Flatten lists leading directories omitted from URL prefixes.
	Flatten []string `toml:"flatten"`

	// Namespace prefixes handler lookups of grouped files.
	Namespace string `toml:"namespace"`

	// Middleware maps dotted directories to middleware group names.
	Middleware map[string]string `toml:"middleware"`

	// Inherit lets subdirectories inherit the group of their closest
	// mapped parent instead of requiring an exact match.
	Inherit *bool `toml:"inherit"`
}

// SourceConfig selects the route tree location.
type SourceConfig struct {
	// Kind is "dir" (default) or "s3".
	Kind string `toml:"kind"`

	// Bucket is the S3 bucket holding the tree. Routes.Dir is the key prefix.
	Bucket string `toml:"bucket"`

	// Region overrides the AWS region from the environment.
	Region string `toml:"region"`

	// Endpoint points the S3 client at a compatible service.
	Endpoint string `toml:"endpoint"`

	// PathStyle forces path-style S3 addressing.
	PathStyle *bool `toml:"path_style"`

	// Timeout bounds each S3 request (default: "30s").
	Timeout string `toml:"timeout"`
}

// ServerConfig contains serve settings.
type ServerConfig struct {
	// Addr is the listen address (default: ":8080").
	Addr string `toml:"addr"`

	// ShutdownTimeout bounds graceful shutdown (default: "10s").
	ShutdownTimeout string `toml:"shutdown_timeout"`

	// RequestTimeout is used by the built-in "timeout" middleware group
	// (default: "60s").
	RequestTimeout string `toml:"request_timeout"`

	// MetricsPath exposes Prometheus metrics. "-" disables metrics.
	MetricsPath string `toml:"metrics_path"`

	// Tracing enables the OpenTelemetry request middleware.
	Tracing *bool `toml:"tracing"`
}

// Bool returns a pointer to v, for setting the optional switches.
func Bool(v bool) *bool {
	return &v
}

func enabled(v *bool) bool {
	return v != nil && *v
}

// InheritMiddleware reports whether routes.inherit is on.
func (r RoutesConfig) InheritMiddleware() bool { return enabled(r.Inherit) }

// UsePathStyle reports whether source.path_style is on.
func (s SourceConfig) UsePathStyle() bool { return enabled(s.PathStyle) }

// TracingEnabled reports whether server.tracing is on.
func (s ServerConfig) TracingEnabled() bool { return enabled(s.Tracing) }

// New creates a Config with default values.
func New() *Config {
	c := &Config{}
	c.loadDefaults()
	return c
}

// Load reads autoroute.toml from dir. A missing file yields the defaults.
// The overlay and environment overrides are applied in both cases.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, ConfigFileName)
	if !Exists(dir) {
		cfg := New()
		cfg.dir = dir
		if err := cfg.applyOverlay(); err != nil {
			return nil, err
		}
		if err := cfg.Finalize(); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return LoadFile(path)
}

// LoadFile reads configuration from the specified file path, applies the
// overlay selected by AUTOROUTE_ENV and finalizes the result.
func LoadFile(path string) (*Config, error) {
	cfg, err := parse(path)
	if err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			return nil, errors.New("E151").
				WithDetail("No " + filepath.Base(path) + " found in " + filepath.Dir(path)).
				Wrap(err)
		}
		return nil, err
	}

	cfg.configPath = path
	cfg.dir = filepath.Dir(path)
	if err := cfg.applyOverlay(); err != nil {
		return nil, err
	}
	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parse(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		e := errors.New("E152").Wrap(err)
		var de *toml.DecodeError
		if stderrors.As(err, &de) {
			row, col := de.Position()
			e.WithLocation(path, row, col)
		}
		return nil, e
	}
	return &cfg, nil
}

func (c *Config) applyOverlay() error {
	path := c.overlayPath()
	if path == "" {
		return nil
	}
	overlay, err := parse(path)
	if err != nil {
		return err
	}
	c.Merge(overlay)
	return nil
}

func (c *Config) overlayPath() string {
	env := os.Getenv(EnvEnvironment)
	if env == "" {
		return ""
	}
	path := filepath.Join(c.Dir(), fmt.Sprintf(OverlayConfigPattern, env))
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// Finalize applies defaults, loads environment overrides, and validates.
func (c *Config) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Logging.Finalize(); err != nil {
		return c.invalid("logging", err.Error())
	}
	return nil
}

// Merge applies the values an overlay sets. Strings apply when non-empty;
// the switches apply whenever the overlay names them, so an overlay can
// turn one off.
func (c *Config) Merge(overlay *Config) {
	r, o := &c.Routes, &overlay.Routes
	if o.Dir != "" {
		r.Dir = o.Dir
	}
	if o.RootFile != "" {
		r.RootFile = o.RootFile
	}
	if o.Flatten != nil {
		r.Flatten = o.Flatten
	}
	if o.Namespace != "" {
		r.Namespace = o.Namespace
	}
	if len(o.Middleware) > 0 {
		if r.Middleware == nil {
			r.Middleware = make(map[string]string, len(o.Middleware))
		}
		for dir, group := range o.Middleware {
			r.Middleware[dir] = group
		}
	}
	if o.Inherit != nil {
		r.Inherit = o.Inherit
	}

	s, so := &c.Source, &overlay.Source
	if so.Kind != "" {
		s.Kind = so.Kind
	}
	if so.Bucket != "" {
		s.Bucket = so.Bucket
	}
	if so.Region != "" {
		s.Region = so.Region
	}
	if so.Endpoint != "" {
		s.Endpoint = so.Endpoint
	}
	if so.PathStyle != nil {
		s.PathStyle = so.PathStyle
	}
	if so.Timeout != "" {
		s.Timeout = so.Timeout
	}

	v, ov := &c.Server, &overlay.Server
	if ov.Addr != "" {
		v.Addr = ov.Addr
	}
	if ov.ShutdownTimeout != "" {
		v.ShutdownTimeout = ov.ShutdownTimeout
	}
	if ov.RequestTimeout != "" {
		v.RequestTimeout = ov.RequestTimeout
	}
	if ov.MetricsPath != "" {
		v.MetricsPath = ov.MetricsPath
	}
	if ov.Tracing != nil {
		v.Tracing = ov.Tracing
	}

	c.Logging.Merge(&overlay.Logging)
}

func (c *Config) loadDefaults() {
	if c.Routes.Dir == "" {
		c.Routes.Dir = discover.DefaultRoot
	}
	if c.Routes.RootFile == "" {
		c.Routes.RootFile = discover.DefaultRootFile
	}
	if c.Source.Kind == "" {
		c.Source.Kind = SourceDir
	}
	if c.Source.Timeout == "" {
		c.Source.Timeout = "30s"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = "10s"
	}
	if c.Server.RequestTimeout == "" {
		c.Server.RequestTimeout = "60s"
	}
	if c.Server.MetricsPath == "" {
		c.Server.MetricsPath = DefaultMetricsPath
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvRoutesDir); v != "" {
		c.Routes.Dir = v
	}
	if v := os.Getenv(EnvRootFile); v != "" {
		c.Routes.RootFile = v
	}
	if v := os.Getenv(EnvFlatten); v != "" {
		c.Routes.Flatten = splitList(v)
	}
	if v := os.Getenv(EnvNamespace); v != "" {
		c.Routes.Namespace = v
	}
	if v := os.Getenv(EnvSource); v != "" {
		c.Source.Kind = v
	}
	if v := os.Getenv(EnvS3Bucket); v != "" {
		c.Source.Bucket = v
	}
	if v := os.Getenv(EnvS3Region); v != "" {
		c.Source.Region = v
	}
	if v := os.Getenv(EnvS3Endpoint); v != "" {
		c.Source.Endpoint = v
	}
	if v := os.Getenv(EnvAddr); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv(EnvShutdownTimeout); v != "" {
		c.Server.ShutdownTimeout = v
	}
}

func (c *Config) validate() error {
	switch c.Source.Kind {
	case SourceDir:
	case SourceS3:
		if c.Source.Bucket == "" {
			return c.invalid("source.bucket", "required when source.kind is s3")
		}
	default:
		return c.invalid("source.kind", fmt.Sprintf("%q (must be dir or s3)", c.Source.Kind))
	}

	durations := []struct{ key, value string }{
		{"source.timeout", c.Source.Timeout},
		{"server.shutdown_timeout", c.Server.ShutdownTimeout},
		{"server.request_timeout", c.Server.RequestTimeout},
	}
	for _, d := range durations {
		if v, err := time.ParseDuration(d.value); err != nil || v <= 0 {
			return c.invalid(d.key, fmt.Sprintf("%q is not a positive duration", d.value))
		}
	}

	if c.Server.MetricsPath != "-" && !strings.HasPrefix(c.Server.MetricsPath, "/") {
		return c.invalid("server.metrics_path", "must start with / or be -")
	}
	return nil
}

func (c *Config) invalid(key, detail string) *errors.Error {
	e := errors.New("E150").WithDetail(key + ": " + detail)
	if c.configPath != "" {
		e.Location = &errors.Location{File: c.configPath}
	}
	return e
}

// Path returns the path where the config was loaded from, empty when
// running on defaults.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file, or the directory
// Load was called with when there was none.
func (c *Config) Dir() string {
	if c.dir == "" {
		return "."
	}
	return c.dir
}

// RoutesPath returns the route root. For the dir source a relative root is
// resolved against the config directory; for S3 it is the key prefix.
func (c *Config) RoutesPath() string {
	if c.Source.Kind == SourceS3 || filepath.IsAbs(c.Routes.Dir) {
		return c.Routes.Dir
	}
	return filepath.Join(c.Dir(), c.Routes.Dir)
}

// Discovery returns the discoverer configuration rooted at root.
func (c *Config) Discovery(root string) discover.Config {
	match := discover.NoMiddleware
	if len(c.Routes.Middleware) > 0 {
		if c.Routes.InheritMiddleware() {
			match = discover.MiddlewareTree(c.Routes.Middleware)
		} else {
			match = discover.MiddlewareMap(c.Routes.Middleware)
		}
	}
	return discover.Config{
		Root:      root,
		RootFile:  c.Routes.RootFile,
		Flatten:   c.Routes.Flatten,
		Namespace: c.Routes.Namespace,
		Match:     match,
	}
}

// MetricsEnabled reports whether serve exposes metrics.
func (c *Config) MetricsEnabled() bool {
	return c.Server.MetricsPath != "-"
}

// SourceTimeout returns the S3 request timeout.
func (c *Config) SourceTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Source.Timeout)
	return d
}

// ShutdownTimeout returns the graceful shutdown timeout.
func (c *Config) ShutdownTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Server.ShutdownTimeout)
	return d
}

// RequestTimeout returns the timeout used by the "timeout" group.
func (c *Config) RequestTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Server.RequestTimeout)
	return d
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}

// FindProjectRoot walks up directories to find the directory containing
// autoroute.toml.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("E151").
				WithDetail("No " + ConfigFileName + " found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
