package discover

import (
	"path"
	"strings"
)

const (
	// DefaultRoot is the route directory used when Config.Root is empty.
	DefaultRoot = "routes"

	// DefaultRootFile is the root file name used when Config.RootFile is empty.
	DefaultRootFile = "root"
)

// Config configures a Discoverer.
type Config struct {
	// Root is the route directory to walk (default: "routes").
	Root string

	// RootFile is the base name of files that do not add their own name
	// to the prefix (default: "root").
	RootFile string

	// Flatten lists leading directory paths that are dropped from the
	// prefix, as if their files lived one level up.
	Flatten []string

	// Namespace is attached to every scoped registration.
	Namespace string

	// Match picks the middleware group for a dotted directory.
	// Default: NoMiddleware.
	Match MiddlewareMatcher
}

// Discoverer walks a route directory and registers every file in it.
type Discoverer struct {
	lister  FileLister
	root    string
	rootDir string
	config  Config
}

// New creates a Discoverer reading directories through lister.
func New(lister FileLister, config Config) *Discoverer {
	if config.Root == "" {
		config.Root = DefaultRoot
	}
	if config.RootFile == "" {
		config.RootFile = DefaultRootFile
	}
	if config.Match == nil {
		config.Match = NoMiddleware
	}

	flatten := make([]string, 0, len(config.Flatten))
	for _, f := range config.Flatten {
		f = strings.Trim(normalize(f), "/")
		if f != "" {
			flatten = append(flatten, f)
		}
	}
	config.Flatten = flatten

	return &Discoverer{
		lister:  lister,
		root:    config.Root,
		rootDir: path.Clean(normalize(config.Root)),
		config:  config,
	}
}

// Config returns the effective configuration with defaults applied.
func (d *Discoverer) Config() Config {
	return d.config
}

// Discover walks the route directory and calls r once per route file.
// Files of a directory are registered before its subdirectories are
// visited. The first lister or registrar error stops the walk and is
// returned unchanged.
func (d *Discoverer) Discover(r Registrar) error {
	return d.walk(d.root, r)
}

// Collect runs Discover into a Recorder and returns what it saw.
func (d *Discoverer) Collect() ([]Registration, error) {
	rec := &Recorder{}
	if err := d.Discover(rec); err != nil {
		return nil, err
	}
	return rec.Registrations, nil
}

func (d *Discoverer) walk(dir string, r Registrar) error {
	files, err := d.lister.ListFiles(dir)
	if err != nil {
		return err
	}

	for _, f := range files {
		reg := d.Resolve(dir, f)
		if reg.Bare {
			err = r.Include(reg.File)
		} else {
			err = r.Group(reg)
		}
		if err != nil {
			return err
		}
	}

	dirs, err := d.lister.ListDirectories(dir)
	if err != nil {
		return err
	}

	for _, sub := range dirs {
		if err := d.walk(sub, r); err != nil {
			return err
		}
	}

	return nil
}

// Resolve computes the registration for file f found in directory dir.
func (d *Discoverer) Resolve(dir string, f File) Registration {
	rel := d.relative(dir)
	dotted := strings.ReplaceAll(rel, "/", ".")
	isRoot := f.Name == d.config.RootFile

	// A root file at the top of the tree is loaded as is.
	if isRoot && rel == "" {
		return Registration{File: f.Path, Bare: true}
	}

	prefix := d.flatten(rel)
	if !isRoot {
		if prefix == "" {
			prefix = f.Name
		} else {
			prefix = prefix + "/" + f.Name
		}
	}

	reg := Registration{
		NamePrefix: NamePrefix(prefix),
		URLPrefix:  prefix,
		Namespace:  d.config.Namespace,
		Directory:  dotted,
		File:       f.Path,
	}
	if mw, ok := d.config.Match(dotted); ok {
		reg.Middleware = mw
	}

	return reg
}

// relative strips the route root from dir.
func (d *Discoverer) relative(dir string) string {
	dir = path.Clean(normalize(dir))
	if dir == d.rootDir {
		return ""
	}
	if d.rootDir != "." && strings.HasPrefix(dir, d.rootDir+"/") {
		dir = dir[len(d.rootDir):]
	}
	return strings.Trim(dir, "/")
}

// flatten drops the first configured leading directory that rel starts with.
// Only whole leading segments match: "web" flattens "web/contact" but not
// "website" or "admin/web".
func (d *Discoverer) flatten(rel string) string {
	for _, f := range d.config.Flatten {
		if rel == f {
			return ""
		}
		if strings.HasPrefix(rel, f+"/") {
			return rel[len(f)+1:]
		}
	}
	return rel
}

// NamePrefix converts a URL prefix to a route-name prefix:
// "api/users" becomes "api.users." and "" stays "".
func NamePrefix(urlPrefix string) string {
	dotted := strings.Trim(strings.ReplaceAll(urlPrefix, "/", "."), ".")
	if dotted == "" {
		return ""
	}
	return dotted + "."
}

// normalize converts Windows separators to forward slashes.
func normalize(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}
