// Package discover maps a tree of route files to route registrations.
//
// The discoverer walks a route directory depth-first. For every file it
// derives a URL prefix, a route-name prefix and an optional middleware
// group from the file's position in the tree, then hands the result to a
// Registrar. It never reads file contents and never touches HTTP.
//
// # Conventions
//
// Given the root "routes", root file "web" and flatten directory "web":
//
//	routes/
//	├── web.toml                 → bare include (no prefix, no name)
//	├── api/
//	│   └── users.toml           → prefix api/users, names api.users.*
//	├── admin/settings/
//	│   └── web.toml             → prefix admin/settings, names admin.settings.*
//	└── web/
//	    └── contact.toml         → prefix contact, names contact.*
//
// Middleware is chosen per directory. The matcher receives the dotted
// directory ("api", "admin.settings", "web") before flattening.
//
// # Usage
//
//	d := discover.New(fsys.NewOSLister(), discover.Config{
//	    Root:     "routes",
//	    RootFile: "web",
//	    Flatten:  []string{"web"},
//	    Match:    discover.MiddlewareMap(map[string]string{"api": "api"}),
//	})
//	if err := d.Discover(registrar); err != nil {
//	    log.Fatal(err)
//	}
package discover
