package discover

// File is a route file as reported by a FileLister.
type File struct {
	// Path is the file location in the lister's namespace. It is passed
	// to the registrar unchanged.
	Path string

	// Name is the base name without extension (e.g., "users").
	Name string
}

// Registration is the scope a route file is loaded under.
type Registration struct {
	// NamePrefix is prepended to every route name in the file
	// (e.g., "api.users."). Empty for files at the top of the tree.
	NamePrefix string

	// URLPrefix is prepended to every route path in the file
	// (e.g., "api/users"). No leading or trailing slash.
	URLPrefix string

	// Middleware is the middleware group name, empty for none.
	Middleware string

	// Namespace is the handler resolution context.
	Namespace string

	// Directory is the dotted directory the middleware was matched on.
	Directory string

	// File is the route file path.
	File string

	// Bare marks a root file registered without any scoping.
	Bare bool
}

// FileLister lists the immediate children of a directory.
// Listings should be stable across calls for discovery to be repeatable.
type FileLister interface {
	// ListFiles returns the files directly inside dir.
	ListFiles(dir string) ([]File, error)

	// ListDirectories returns the paths of the directories directly inside dir.
	ListDirectories(dir string) ([]string, error)
}

// Registrar receives one call per discovered route file.
type Registrar interface {
	// Group loads file under the prefix, name prefix, middleware and
	// namespace carried by reg.
	Group(reg Registration) error

	// Include loads file with no scoping at all.
	Include(file string) error
}

// MiddlewareMatcher returns the middleware group for a dotted directory.
type MiddlewareMatcher func(dir string) (string, bool)

// Recorder is a Registrar that keeps every call in order.
type Recorder struct {
	Registrations []Registration
}

// Group implements Registrar.
func (r *Recorder) Group(reg Registration) error {
	r.Registrations = append(r.Registrations, reg)
	return nil
}

// Include implements Registrar.
func (r *Recorder) Include(file string) error {
	r.Registrations = append(r.Registrations, Registration{File: file, Bare: true})
	return nil
}
