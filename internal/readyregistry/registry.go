// Package readyregistry persists the set of resources whose creation
// pipeline has completed at least once. Existence of a marker
// file, not its content, is the signal. Names are compound
// ("scope/leaf"), so a marker naturally lives at a nested path; Write
// creates the scope directory if needed, and Delete removes only the
// marker file, leaving the scope directory in place even when it is empty.
package readyregistry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// Registry is a directory tree of empty marker files, one per ready
// resource name. It is safe for concurrent use; each call touches only
// its own file.
type Registry struct {
	fs  afero.Fs
	dir string
}

// New returns a Registry rooted at dir, creating it if missing.
func New(fs afero.Fs, dir string) (*Registry, error) {
	if err := fs.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("ready registry: create directory %q: %w", dir, err)
	}
	return &Registry{fs: fs, dir: dir}, nil
}

// Write marks name ready via an atomic create-then-rename so a crash
// mid-write never leaves a zero-length marker mistaken for a real one.
func (r *Registry) Write(name string) error {
	final := r.path(name)
	parent := filepath.Dir(final)
	if err := r.fs.MkdirAll(parent, 0o750); err != nil {
		return fmt.Errorf("ready registry: create directory %q: %w", parent, err)
	}
	tmp, err := afero.TempFile(r.fs, parent, ".tmp-*")
	if err != nil {
		return fmt.Errorf("ready registry: create temp file for %q: %w", name, err)
	}
	tmpName := tmp.Name()
	if err := tmp.Close(); err != nil {
		_ = r.fs.Remove(tmpName)
		return fmt.Errorf("ready registry: close temp file for %q: %w", name, err)
	}
	if err := r.fs.Rename(tmpName, final); err != nil {
		_ = r.fs.Remove(tmpName)
		return fmt.Errorf("ready registry: rename to %q: %w", name, err)
	}
	return nil
}

// Delete removes name's marker. A missing marker is not an error.
func (r *Registry) Delete(name string) error {
	err := r.fs.Remove(r.path(name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("ready registry: delete %q: %w", name, err)
	}
	return nil
}

// GetAll returns every ready compound name, in no particular order.
func (r *Registry) GetAll() ([]string, error) {
	var names []string
	err := afero.Walk(r.fs, r.dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}
			return err
		}
		if info.IsDir() || strings.HasPrefix(info.Name(), ".tmp-") {
			return nil
		}
		rel, relErr := filepath.Rel(r.dir, path)
		if relErr != nil {
			return relErr
		}
		names = append(names, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ready registry: walk %q: %w", r.dir, err)
	}
	return names, nil
}

func (r *Registry) path(name string) string {
	return filepath.Join(r.dir, filepath.FromSlash(name))
}
