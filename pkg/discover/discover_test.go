package discover

import (
	"errors"
	"io/fs"
	"path"
	"reflect"
	"sort"
	"strings"
	"testing"
)

// memLister serves listings from a flat list of file paths.
type memLister struct {
	files []string
	fail  map[string]error
	calls []string
}

func newMemLister(files ...string) *memLister {
	return &memLister{files: files, fail: map[string]error{}}
}

func (m *memLister) ListFiles(dir string) ([]File, error) {
	m.calls = append(m.calls, "files:"+dir)
	if err := m.fail[dir]; err != nil {
		return nil, err
	}
	if !m.exists(dir) {
		return nil, &fs.PathError{Op: "readdir", Path: dir, Err: fs.ErrNotExist}
	}
	var out []File
	for _, f := range m.files {
		if path.Dir(f) == dir {
			base := path.Base(f)
			out = append(out, File{Path: f, Name: strings.TrimSuffix(base, path.Ext(base))})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func (m *memLister) ListDirectories(dir string) ([]string, error) {
	m.calls = append(m.calls, "dirs:"+dir)
	seen := map[string]bool{}
	var out []string
	for _, f := range m.files {
		if !strings.HasPrefix(f, dir+"/") {
			continue
		}
		rest := strings.TrimPrefix(f, dir+"/")
		i := strings.Index(rest, "/")
		if i < 0 {
			continue
		}
		sub := dir + "/" + rest[:i]
		if !seen[sub] {
			seen[sub] = true
			out = append(out, sub)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *memLister) exists(dir string) bool {
	for _, f := range m.files {
		if strings.HasPrefix(f, dir+"/") {
			return true
		}
	}
	return false
}

func TestResolveScenarios(t *testing.T) {
	d := New(newMemLister(), Config{
		Root:     "/app/routes",
		RootFile: "web",
		Flatten:  []string{"web"},
		Match:    MiddlewareMap(map[string]string{"api": "api"}),
	})

	tests := []struct {
		name string
		dir  string
		file File
		want Registration
	}{
		{
			name: "top-level root file is bare",
			dir:  "/app/routes",
			file: File{Path: "/app/routes/web.php", Name: "web"},
			want: Registration{File: "/app/routes/web.php", Bare: true},
		},
		{
			name: "nested file",
			dir:  "/app/routes/api",
			file: File{Path: "/app/routes/api/users.php", Name: "users"},
			want: Registration{
				NamePrefix: "api.users.",
				URLPrefix:  "api/users",
				Middleware: "api",
				Directory:  "api",
				File:       "/app/routes/api/users.php",
			},
		},
		{
			name: "root file in subdirectory",
			dir:  "/app/routes/admin/settings",
			file: File{Path: "/app/routes/admin/settings/web.php", Name: "web"},
			want: Registration{
				NamePrefix: "admin.settings.",
				URLPrefix:  "admin/settings",
				Directory:  "admin.settings",
				File:       "/app/routes/admin/settings/web.php",
			},
		},
		{
			name: "flattened directory",
			dir:  "/app/routes/web",
			file: File{Path: "/app/routes/web/contact.php", Name: "contact"},
			want: Registration{
				NamePrefix: "contact.",
				URLPrefix:  "contact",
				Directory:  "web",
				File:       "/app/routes/web/contact.php",
			},
		},
		{
			name: "top-level file",
			dir:  "/app/routes",
			file: File{Path: "/app/routes/about.php", Name: "about"},
			want: Registration{
				NamePrefix: "about.",
				URLPrefix:  "about",
				File:       "/app/routes/about.php",
			},
		},
		{
			name: "flatten only anchors on the leading segment",
			dir:  "/app/routes/admin/web",
			file: File{Path: "/app/routes/admin/web/logs.php", Name: "logs"},
			want: Registration{
				NamePrefix: "admin.web.logs.",
				URLPrefix:  "admin/web/logs",
				Directory:  "admin.web",
				File:       "/app/routes/admin/web/logs.php",
			},
		},
		{
			name: "flatten does not match a longer segment",
			dir:  "/app/routes/website",
			file: File{Path: "/app/routes/website/home.php", Name: "home"},
			want: Registration{
				NamePrefix: "website.home.",
				URLPrefix:  "website/home",
				Directory:  "website",
				File:       "/app/routes/website/home.php",
			},
		},
		{
			name: "root file in flattened directory keeps an empty scope",
			dir:  "/app/routes/web",
			file: File{Path: "/app/routes/web/web.php", Name: "web"},
			want: Registration{
				Directory: "web",
				File:      "/app/routes/web/web.php",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := d.Resolve(tt.dir, tt.file)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Resolve(%q, %q) =\n  %+v\nwant\n  %+v", tt.dir, tt.file.Path, got, tt.want)
			}
		})
	}
}

func TestResolveWindowsSeparators(t *testing.T) {
	d := New(newMemLister(), Config{Root: `C:\app\routes`})

	got := d.Resolve(`C:\app\routes\api\v1`, File{Path: `C:\app\routes\api\v1\users.php`, Name: "users"})
	if got.URLPrefix != "api/v1/users" {
		t.Errorf("URLPrefix = %q, want %q", got.URLPrefix, "api/v1/users")
	}
	if got.NamePrefix != "api.v1.users." {
		t.Errorf("NamePrefix = %q, want %q", got.NamePrefix, "api.v1.users.")
	}
}

func TestNamePrefix(t *testing.T) {
	tests := []struct {
		prefix string
		want   string
	}{
		{"", ""},
		{"users", "users."},
		{"api/users", "api.users."},
		{"/api/users/", "api.users."},
		{"admin/settings", "admin.settings."},
	}

	for _, tt := range tests {
		if got := NamePrefix(tt.prefix); got != tt.want {
			t.Errorf("NamePrefix(%q) = %q, want %q", tt.prefix, got, tt.want)
		}
	}
}

func TestDiscoverOrder(t *testing.T) {
	lister := newMemLister(
		"routes/web.toml",
		"routes/about.toml",
		"routes/api/users.toml",
		"routes/api/v1/orders.toml",
		"routes/admin/settings/web.toml",
		"routes/web/contact.toml",
	)
	d := New(lister, Config{RootFile: "web", Flatten: []string{"web"}})

	regs, err := d.Collect()
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	var got []string
	for _, r := range regs {
		if r.Bare {
			got = append(got, "bare "+r.File)
			continue
		}
		got = append(got, r.URLPrefix+" "+r.NamePrefix)
	}

	want := []string{
		"about about.",
		"bare routes/web.toml",
		"admin/settings admin.settings.",
		"api/users api.users.",
		"api/v1/orders api.v1.orders.",
		"contact contact.",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("registrations =\n  %v\nwant\n  %v", got, want)
	}
}

func TestDiscoverRegistersEveryFileOnce(t *testing.T) {
	files := []string{
		"routes/a.toml",
		"routes/b/c.toml",
		"routes/b/d/e.toml",
		"routes/b/d/f.toml",
		"routes/web/web/g.toml",
	}
	d := New(newMemLister(files...), Config{Flatten: []string{"web"}})

	regs, err := d.Collect()
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	seen := map[string]int{}
	for _, r := range regs {
		seen[r.File]++
	}
	for _, f := range files {
		if seen[f] != 1 {
			t.Errorf("%s registered %d times, want 1", f, seen[f])
		}
	}
	if len(regs) != len(files) {
		t.Errorf("got %d registrations, want %d", len(regs), len(files))
	}
}

func TestDiscoverIsRepeatable(t *testing.T) {
	lister := newMemLister(
		"routes/root.toml",
		"routes/api/users.toml",
		"routes/api/root.toml",
		"routes/docs/guide.toml",
	)
	d := New(lister, Config{Match: MiddlewareTree(map[string]string{"api": "api"})})

	first, err := d.Collect()
	if err != nil {
		t.Fatalf("first Collect() error = %v", err)
	}
	second, err := d.Collect()
	if err != nil {
		t.Fatalf("second Collect() error = %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("discovery not repeatable:\n  %+v\n  %+v", first, second)
	}
}

func TestDiscoverMiddlewareIgnoresBasename(t *testing.T) {
	var asked []string
	match := func(dir string) (string, bool) {
		asked = append(asked, dir)
		if dir == "api" {
			return "api", true
		}
		return "", false
	}
	lister := newMemLister("routes/api/users.toml", "routes/api/root.toml", "routes/api/zeta.toml")
	d := New(lister, Config{Match: match})

	regs, err := d.Collect()
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	for _, r := range regs {
		if r.Middleware != "api" {
			t.Errorf("%s middleware = %q, want %q", r.File, r.Middleware, "api")
		}
	}
	for _, dir := range asked {
		if dir != "api" {
			t.Errorf("matcher called with %q, want the dotted directory only", dir)
		}
	}
}

func TestDiscoverNamespace(t *testing.T) {
	lister := newMemLister("routes/root.toml", "routes/users.toml")
	d := New(lister, Config{Namespace: "app.http"})

	regs, err := d.Collect()
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if len(regs) != 2 {
		t.Fatalf("got %d registrations, want 2", len(regs))
	}
	if regs[0].Namespace != "" || !regs[0].Bare {
		t.Errorf("root file = %+v, want bare without namespace", regs[0])
	}
	if regs[1].Namespace != "app.http" {
		t.Errorf("Namespace = %q, want %q", regs[1].Namespace, "app.http")
	}
}

func TestDiscoverMissingRoot(t *testing.T) {
	d := New(newMemLister("elsewhere/a.toml"), Config{})

	err := d.Discover(&Recorder{})
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("Discover() error = %v, want fs.ErrNotExist", err)
	}
	var pathErr *fs.PathError
	if !errors.As(err, &pathErr) || pathErr.Path != "routes" {
		t.Errorf("error = %#v, want the lister's *fs.PathError unchanged", err)
	}
}

func TestDiscoverStopsOnListerError(t *testing.T) {
	lister := newMemLister("routes/a.toml", "routes/locked/b.toml", "routes/z/c.toml")
	lister.fail["routes/locked"] = fs.ErrPermission

	rec := &Recorder{}
	err := New(lister, Config{}).Discover(rec)
	if !errors.Is(err, fs.ErrPermission) {
		t.Fatalf("Discover() error = %v, want fs.ErrPermission", err)
	}
	if len(rec.Registrations) != 1 {
		t.Errorf("got %d registrations before the error, want 1", len(rec.Registrations))
	}
}

type failingRegistrar struct {
	Recorder
	err error
}

func (f *failingRegistrar) Group(reg Registration) error {
	if reg.URLPrefix == "bad" {
		return f.err
	}
	return f.Recorder.Group(reg)
}

func TestDiscoverStopsOnRegistrarError(t *testing.T) {
	boom := errors.New("boom")
	lister := newMemLister("routes/bad.toml", "routes/good/x.toml")

	r := &failingRegistrar{err: boom}
	err := New(lister, Config{}).Discover(r)
	if err != boom {
		t.Fatalf("Discover() error = %v, want the registrar error unchanged", err)
	}
	if len(r.Registrations) != 0 {
		t.Errorf("walk continued after error: %+v", r.Registrations)
	}
}

func TestNewDefaults(t *testing.T) {
	d := New(newMemLister(), Config{Flatten: []string{"/web/", "", `admin\web`}})
	cfg := d.Config()

	if cfg.Root != DefaultRoot {
		t.Errorf("Root = %q, want %q", cfg.Root, DefaultRoot)
	}
	if cfg.RootFile != DefaultRootFile {
		t.Errorf("RootFile = %q, want %q", cfg.RootFile, DefaultRootFile)
	}
	if !reflect.DeepEqual(cfg.Flatten, []string{"web", "admin/web"}) {
		t.Errorf("Flatten = %v", cfg.Flatten)
	}
	if mw, ok := cfg.Match("api"); ok || mw != "" {
		t.Errorf("default matcher returned (%q, %v)", mw, ok)
	}
}
