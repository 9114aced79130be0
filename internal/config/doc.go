// Package config loads autoroute.toml.
//
// Settings are resolved in order: defaults, autoroute.toml, the overlay
// autoroute.<env>.toml selected by AUTOROUTE_ENV, then AUTOROUTE_*
// environment variables.
//
// # Configuration File Structure
//
//	[routes]
//	dir = "routes"
//	root_file = "web"
//	flatten = ["web"]
//	namespace = "app"
//	inherit = true
//
//	[routes.middleware]
//	web = "web"
//	api = "api"
//	"api.admin" = "admin"
//
//	[source]
//	kind = "s3"
//	bucket = "my-routes"
//	region = "eu-west-1"
//
//	[server]
//	addr = ":8080"
//	shutdown_timeout = "10s"
//	metrics_path = "/metrics"
//	tracing = true
//
//	[logging]
//	level = "debug"
//	format = "json"
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	d := discover.New(lister, cfg.Discovery(cfg.RoutesPath()))
package config
