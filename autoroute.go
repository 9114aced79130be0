// Package autoroute mounts a directory tree of route files on a chi router.
//
// Each file's place in the tree decides its URL prefix, its route-name
// prefix and its middleware group:
//
//	routes/
//	├── root.toml          → included as is
//	├── about.toml         → /about,            names about.*
//	└── api/
//	    ├── root.toml      → /api,              names api.*,       group "api"
//	    └── users.toml     → /api/users,        names api.users.*, group "api"
//
// Route files list routes by method and path and name a handler from the
// application's handler registry:
//
//	[[route]]
//	path = "/{id}"
//	name = "show"
//	handler = "users.show"
//
// Usage:
//
//	cfg := autoroute.Config{
//	    Discovery: discover.Config{Match: discover.MiddlewareMap(map[string]string{"api": "api"})},
//	}
//	cfg.HandleFunc("users.show", showUser)
//	cfg.Group("api", middleware.RequestID)
//
//	app := autoroute.New(fsys.NewOSLister(), cfg)
//	if err := app.Boot(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	app.URL("api.users.show", map[string]string{"id": "42"}) // "/api/users/42"
package autoroute
