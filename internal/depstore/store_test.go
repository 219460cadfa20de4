package depstore

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otusforge/resourced/pkg/resource"
)

func newTestStore() *Store {
	return New(afero.NewMemMapFs(), "/data")
}

func TestLoadMissingFileReturnsEmpty(t *testing.T) {
	s := newTestStore()
	deps, err := s.Load(Dependencies, "alice")
	require.NoError(t, err)
	assert.Empty(t, deps)
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	s := newTestStore()
	want := []resource.Dependency{{Plugin: "p", ResourceType: "wallet", Name: "parent/w1"}}
	require.NoError(t, s.Save(Dependents, "parent", want))

	got, err := s.Load(Dependents, "parent")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDeleteThenLoadReturnsEmpty(t *testing.T) {
	s := newTestStore()
	require.NoError(t, s.Save(Dependencies, "alice", []resource.Dependency{{Name: "d"}}))
	require.NoError(t, s.Delete(Dependencies, "alice"))

	deps, err := s.Load(Dependencies, "alice")
	require.NoError(t, err)
	assert.Empty(t, deps)
}

func TestDeleteMissingFileIsNotError(t *testing.T) {
	s := newTestStore()
	require.NoError(t, s.Delete(Dependencies, "ghost"))
}

func TestCorruptFilePropagatesError(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := New(fs, "/data")
	require.NoError(t, afero.WriteFile(fs, "/data/dependencies/bad.json", []byte("{not json"), 0o644))

	_, err := s.Load(Dependencies, "bad")
	assert.Error(t, err)
}
