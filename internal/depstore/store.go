// Package depstore persists each resource's dependency edges to JSON:
// dependencies/<name>.json lists what a resource depends on,
// dependents/<name>.json lists what it created as children. Both files
// share the same on-disk shape, so one Store serves both with a kind tag
// selecting the subdirectory.
package depstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/otusforge/resourced/pkg/resource"
)

// Kind selects which edge list a Store call reads or writes.
type Kind string

const (
	Dependencies Kind = "dependencies"
	Dependents   Kind = "dependents"
)

// Store reads and writes dependency/dependents files under a manager's
// dataPath. A missing file reads back as an empty slice, never an error;
// all other I/O and decode errors propagate.
type Store struct {
	fs      afero.Fs
	dataRoot string
}

// New returns a Store rooted at dataRoot, the manager's dataPath.
func New(fs afero.Fs, dataRoot string) *Store {
	return &Store{fs: fs, dataRoot: dataRoot}
}

// Load returns the persisted edge list for name, or nil if no file exists.
func (s *Store) Load(kind Kind, name string) ([]resource.Dependency, error) {
	path := s.path(kind, name)
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("depstore: read %q: %w", path, err)
	}
	var deps []resource.Dependency
	if err := json.Unmarshal(data, &deps); err != nil {
		return nil, fmt.Errorf("depstore: decode %q: %w", path, err)
	}
	return deps, nil
}

// Save overwrites name's edge list via create-then-rename.
func (s *Store) Save(kind Kind, name string, deps []resource.Dependency) error {
	if deps == nil {
		deps = []resource.Dependency{}
	}
	data, err := json.Marshal(deps)
	if err != nil {
		return fmt.Errorf("depstore: encode %q: %w", name, err)
	}

	final := s.path(kind, name)
	parent := filepath.Dir(final)
	if err := s.fs.MkdirAll(parent, 0o750); err != nil {
		return fmt.Errorf("depstore: create directory %q: %w", parent, err)
	}
	tmp, err := afero.TempFile(s.fs, parent, ".tmp-*")
	if err != nil {
		return fmt.Errorf("depstore: create temp file for %q: %w", name, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("depstore: write temp file for %q: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("depstore: close temp file for %q: %w", name, err)
	}
	if err := s.fs.Rename(tmpName, final); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("depstore: rename to %q: %w", name, err)
	}
	return nil
}

// Delete removes name's edge file. A missing file is not an error.
func (s *Store) Delete(kind Kind, name string) error {
	err := s.fs.Remove(s.path(kind, name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("depstore: delete %q: %w", name, err)
	}
	return nil
}

func (s *Store) path(kind Kind, name string) string {
	return filepath.Join(s.dataRoot, string(kind), filepath.FromSlash(name)+".json")
}
