// Package fsys provides the directory listers route discovery runs on.
//
// Every lister lists one directory level at a time and returns entries in
// lexical order, so repeated discovery over an unchanged tree yields the
// same registrations. Every lister can also read the files it lists.
package fsys

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/vango-dev/autoroute/pkg/discover"
)

// Option configures a local lister.
type Option func(*options)

type options struct {
	extensions map[string]bool
}

// WithExtensions limits file listings to the given extensions (e.g., ".toml").
// Directories are always listed.
func WithExtensions(exts ...string) Option {
	return func(o *options) {
		if o.extensions == nil {
			o.extensions = make(map[string]bool, len(exts))
		}
		for _, ext := range exts {
			if ext == "" {
				continue
			}
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			o.extensions[strings.ToLower(ext)] = true
		}
	}
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) accept(name string) bool {
	if len(o.extensions) == 0 {
		return true
	}
	return o.extensions[strings.ToLower(path.Ext(name))]
}

// OSLister lists directories on the local filesystem.
type OSLister struct {
	opts options
}

// NewOSLister creates a lister backed by os.ReadDir.
func NewOSLister(opts ...Option) *OSLister {
	return &OSLister{opts: buildOptions(opts)}
}

// ListFiles implements discover.FileLister.
func (l *OSLister) ListFiles(dir string) ([]discover.File, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	return files(entries, l.opts, l.join(dir), os.Stat), nil
}

// ListDirectories implements discover.FileLister.
func (l *OSLister) ListDirectories(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	return dirs(entries, l.join(dir), os.Stat), nil
}

func (l *OSLister) join(dir string) func(string) string {
	return func(name string) string { return filepath.Join(dir, name) }
}

// ReadFile returns the contents of a listed file.
func (l *OSLister) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name)
}

// FSLister lists directories of an fs.FS, such as an embed.FS.
type FSLister struct {
	fsys fs.FS
	opts options
}

// NewFSLister creates a lister over fsys. Paths use fs.FS rules:
// slash-separated and unrooted.
func NewFSLister(fsys fs.FS, opts ...Option) *FSLister {
	return &FSLister{fsys: fsys, opts: buildOptions(opts)}
}

// ListFiles implements discover.FileLister.
func (l *FSLister) ListFiles(dir string) ([]discover.File, error) {
	entries, err := fs.ReadDir(l.fsys, dir)
	if err != nil {
		return nil, err
	}
	return files(entries, l.opts, l.join(dir), l.stat), nil
}

// ListDirectories implements discover.FileLister.
func (l *FSLister) ListDirectories(dir string) ([]string, error) {
	entries, err := fs.ReadDir(l.fsys, dir)
	if err != nil {
		return nil, err
	}
	return dirs(entries, l.join(dir), l.stat), nil
}

func (l *FSLister) join(dir string) func(string) string {
	return func(name string) string { return path.Join(dir, name) }
}

func (l *FSLister) stat(name string) (fs.FileInfo, error) {
	return fs.Stat(l.fsys, name)
}

// ReadFile returns the contents of a listed file.
func (l *FSLister) ReadFile(name string) ([]byte, error) {
	return fs.ReadFile(l.fsys, name)
}

// statFunc follows symlinks.
type statFunc func(name string) (fs.FileInfo, error)

// kind classifies an entry, following a symlink to its target. A link
// that cannot be resolved is neither.
func kind(e fs.DirEntry, full string, stat statFunc) (isDir, ok bool) {
	if e.Type()&fs.ModeSymlink == 0 {
		return e.IsDir(), true
	}
	info, err := stat(full)
	if err != nil {
		return false, false
	}
	return info.IsDir(), true
}

// files keeps the visible, non-directory entries accepted by opts.
// Entries come sorted by name from os.ReadDir and fs.ReadDir.
func files(entries []fs.DirEntry, opts options, join func(string) string, stat statFunc) []discover.File {
	var out []discover.File
	for _, e := range entries {
		name := e.Name()
		if hidden(name) || !opts.accept(name) {
			continue
		}
		if isDir, ok := kind(e, join(name), stat); !ok || isDir {
			continue
		}
		out = append(out, discover.File{
			Path: join(name),
			Name: BaseName(name),
		})
	}
	return out
}

func dirs(entries []fs.DirEntry, join func(string) string, stat statFunc) []string {
	var out []string
	for _, e := range entries {
		if hidden(e.Name()) {
			continue
		}
		full := join(e.Name())
		if isDir, ok := kind(e, full, stat); !ok || !isDir {
			continue
		}
		out = append(out, full)
	}
	return out
}

// BaseName strips the directory and the last extension from name.
func BaseName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	return strings.TrimSuffix(name, path.Ext(name))
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
