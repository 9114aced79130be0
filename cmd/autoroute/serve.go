package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/autoroute"
	"github.com/vango-dev/autoroute/internal/config"
	"github.com/vango-dev/autoroute/internal/errors"
	"github.com/vango-dev/autoroute/pkg/middleware"
)

// Built-in handler names route files can point at.
const (
	HealthHandler = "autoroute.health"
	RoutesHandler = "autoroute.routes"
)

func serveCmd(c *cli) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the route tree",
		Long: `Discover the route tree and serve it until interrupted.

Route files can use the built-in handlers autoroute.health and
autoroute.routes, static responses and redirects. The built-in
middleware groups are request_id, real_ip, recoverer, nocache,
compress, timeout and log.`,
		Example: `  autoroute serve
  autoroute serve --addr :3000
  AUTOROUTE_SOURCE=s3 AUTOROUTE_S3_BUCKET=my-routes autoroute serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				c.cfg.Server.Addr = addr
			}
			return runServe(cmd.Context(), c)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default: server.addr)")

	return cmd
}

func runServe(ctx context.Context, c *cli) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	lister, root, err := openSource(ctx, c.cfg)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	var tp trace.TracerProvider
	if c.cfg.Server.TracingEnabled() {
		sdk, err := newTracerProvider(os.Stderr)
		if err != nil {
			return err
		}
		defer func() {
			// Flush whatever the batcher still holds.
			if err := sdk.Shutdown(context.WithoutCancel(ctx)); err != nil {
				c.logger.Warn("tracer shutdown failed", "error", err)
			}
		}()
		tp = sdk
	}

	app := newServer(c.cfg, lister, root, c.logger, reg, tp)

	printBanner()
	if err := app.Boot(ctx); err != nil {
		return err
	}
	success("Discovered %d routes from %d files", len(app.Routes()), len(app.Registrations()))
	info("Listening on %s", c.cfg.Server.Addr)
	if c.cfg.MetricsEnabled() {
		info("Metrics at %s", c.cfg.Server.MetricsPath)
	}
	fmt.Println()

	if err := app.Run(ctx, c.cfg.Server.Addr); err != nil {
		return errors.New("E161").WithDetail(c.cfg.Server.Addr).Wrap(err)
	}
	return nil
}

// newServer builds the application served by the serve command.
func newServer(cfg *config.Config, lister autoroute.Lister, root string, logger *slog.Logger, reg *prometheus.Registry, tp trace.TracerProvider) *autoroute.App {
	router := chi.NewRouter()

	acfg := autoroute.Config{
		Discovery:       cfg.Discovery(root),
		Router:          router,
		Logger:          logger,
		Tracing:         cfg.Server.TracingEnabled(),
		TracerProvider:  tp,
		ShutdownTimeout: cfg.ShutdownTimeout(),
	}

	if cfg.MetricsEnabled() {
		acfg.Metrics = middleware.NewMetrics(middleware.WithRegistry(reg))
	}

	acfg.Group("request_id", chimw.RequestID)
	acfg.Group("real_ip", chimw.RealIP)
	acfg.Group("recoverer", chimw.Recoverer)
	acfg.Group("nocache", chimw.NoCache)
	acfg.Group("compress", chimw.Compress(5))
	acfg.Group("timeout", chimw.Timeout(cfg.RequestTimeout()))
	acfg.Group("log", requestLogger(logger))

	var app *autoroute.App
	acfg.HandleFunc(HealthHandler, func(w http.ResponseWriter, r *http.Request) {
		writeJSONResponse(w, http.StatusOK, map[string]any{"status": "ok", "routes": len(app.Routes())})
	})
	acfg.HandleFunc(RoutesHandler, func(w http.ResponseWriter, r *http.Request) {
		writeJSONResponse(w, http.StatusOK, app.Routes())
	})

	app = autoroute.New(lister, acfg)

	// After New, which installs the root middleware, and before Boot.
	if cfg.MetricsEnabled() {
		router.Handle(cfg.Server.MetricsPath, promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	}
	return app
}

// requestLogger logs one line per request.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", chimw.GetReqID(r.Context()),
			)
		})
	}
}

func writeJSONResponse(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
