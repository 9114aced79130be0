// Package middleware provides observability for autoroute applications.
//
// This package includes:
//   - Prometheus metrics for discovery and for served requests
//   - OpenTelemetry tracing middleware for served requests
//
// # Prometheus Metrics
//
// Metrics collects:
//   - autoroute_registrations_total: Route files registered, by kind and middleware group
//   - autoroute_routes: Routes currently mounted
//   - autoroute_http_requests_total: Requests served, by method, route pattern and status
//   - autoroute_http_request_duration_seconds: Request duration histogram
//
//	m := middleware.NewMetrics(middleware.WithNamespace("myapp"))
//	r := chi.NewRouter()
//	r.Use(m.Handler)
//	r.Handle("/metrics", promhttp.Handler())
//
// # OpenTelemetry Middleware
//
// Tracing starts one server span per request. The span is named after the
// chi route pattern once routing has happened, so "/users/42" and
// "/users/7" share the span name "GET /users/{id}".
//
//	r.Use(middleware.Tracing(middleware.WithTracerName("my-app")))
//
// Both middlewares must be installed on the root router before any route
// is mounted; chi refuses middleware added after routes.
package middleware
