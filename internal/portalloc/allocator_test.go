package portalloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otusforge/resourced/pkg/resource"
)

func TestAllocateIsStableForSameKey(t *testing.T) {
	a, err := New(9000, 9010)
	require.NoError(t, err)

	k := resource.PortKey{Plugin: "p", ResourceType: "node", Name: "alice"}
	p1, err := a.AllocatePort(k)
	require.NoError(t, err)
	p2, err := a.AllocatePort(k)
	require.NoError(t, err)
	assert.Equal(t, p1, p2)
}

func TestReleaseThenReallocateMayReuse(t *testing.T) {
	a, err := New(9000, 9001)
	require.NoError(t, err)

	k1 := resource.PortKey{Plugin: "p", ResourceType: "node", Name: "alice"}
	k2 := resource.PortKey{Plugin: "p", ResourceType: "node", Name: "bob"}

	_, err = a.AllocatePort(k1)
	require.NoError(t, err)
	_, err = a.AllocatePort(k2)
	require.NoError(t, err)

	_, err = a.AllocatePort(resource.PortKey{Plugin: "p", ResourceType: "node", Name: "carol"})
	assert.Error(t, err)

	require.NoError(t, a.ReleasePort(k1))
	_, err = a.AllocatePort(resource.PortKey{Plugin: "p", ResourceType: "node", Name: "carol"})
	assert.NoError(t, err)
}

func TestReleaseUnknownKeyIsNotError(t *testing.T) {
	a, err := New(9000, 9001)
	require.NoError(t, err)
	assert.NoError(t, a.ReleasePort(resource.PortKey{Name: "ghost"}))
}

func TestReleaseTwiceIsNotError(t *testing.T) {
	a, err := New(9000, 9001)
	require.NoError(t, err)
	k := resource.PortKey{Name: "alice"}
	_, err = a.AllocatePort(k)
	require.NoError(t, err)
	require.NoError(t, a.ReleasePort(k))
	assert.NoError(t, a.ReleasePort(k))
}
