package readyregistry

import (
	"sort"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	fs := afero.NewMemMapFs()
	reg, err := New(fs, "/data/ready")
	require.NoError(t, err)
	return reg
}

func TestWriteThenGetAll(t *testing.T) {
	reg := newTestRegistry(t)
	require.NoError(t, reg.Write("alice"))
	require.NoError(t, reg.Write("parent/w1"))

	names, err := reg.GetAll()
	require.NoError(t, err)
	sort.Strings(names)
	assert.Equal(t, []string{"alice", "parent/w1"}, names)
}

func TestDeleteIsIdempotent(t *testing.T) {
	reg := newTestRegistry(t)
	require.NoError(t, reg.Write("alice"))
	require.NoError(t, reg.Delete("alice"))
	require.NoError(t, reg.Delete("alice"))

	names, err := reg.GetAll()
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestGetAllOnEmptyRegistry(t *testing.T) {
	reg := newTestRegistry(t)
	names, err := reg.GetAll()
	require.NoError(t, err)
	assert.Empty(t, names)
}
