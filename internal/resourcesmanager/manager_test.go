package resourcesmanager

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otusforge/resourced/internal/pluginmanager"
	"github.com/otusforge/resourced/internal/plugins/node"
	"github.com/otusforge/resourced/internal/plugins/wallet"
	"github.com/otusforge/resourced/internal/readyregistry"
	"github.com/otusforge/resourced/pkg/resource"
)

func newNodeManager(t *testing.T, fs afero.Fs, reg *pluginmanager.Registry, root string) *ResourcesManager {
	t.Helper()
	mgr, err := New(Config{
		DataPath: filepath.Join(root, "node"),
		Fs:       fs,
		Plugins:  reg,
		ResourceType: resource.ResourceType{
			Plugin:        node.Plugin,
			ResourceType:  node.ResourceType,
			Names:         resource.Names{Upper: "NODE", Lower: "node", Ed: "created", Ing: "creating", Capital: "Node"},
			Master:        &node.Master{Fs: fs},
			SupportsStart: true,
			SupportsStop:  true,
		},
	})
	require.NoError(t, err)
	return mgr
}

func newWalletManager(t *testing.T, fs afero.Fs, reg *pluginmanager.Registry, root string) *ResourcesManager {
	t.Helper()
	mgr, err := New(Config{
		DataPath: filepath.Join(root, "wallet"),
		Fs:       fs,
		Plugins:  reg,
		ResourceType: resource.ResourceType{
			Plugin:        wallet.Plugin,
			ResourceType:  wallet.ResourceType,
			Names:         resource.Names{Upper: "WALLET", Lower: "wallet", Ed: "created", Ing: "creating", Capital: "Wallet"},
			Master:        &wallet.Master{Fs: fs},
			SupportsStart: true,
			SupportsStop:  true,
		},
	})
	require.NoError(t, err)
	return mgr
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	assert.Eventually(t, cond, 2*time.Second, 5*time.Millisecond)
}

func TestCreateInstallsAdapterAndPersistsReadyMarker(t *testing.T) {
	fs := afero.NewMemMapFs()
	root := "/data"
	mgr := newNodeManager(t, fs, pluginmanager.NewRegistry(), root)

	tl := mgr.Create(context.Background(), "n1", nil)
	require.NoError(t, tl.Wait())

	eventually(t, func() bool { return len(mgr.GetResources(nil)) == 1 })
	rs := mgr.GetResources(nil)
	assert.Equal(t, "n1", rs[0].Name)
	assert.Equal(t, resource.StateStopped, rs[0].State)

	exists, err := afero.Exists(fs, filepath.Join(root, "node", "ready", "n1"))
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCreateIsReentrantForInFlightOperation(t *testing.T) {
	fs := afero.NewMemMapFs()
	mgr := newNodeManager(t, fs, pluginmanager.NewRegistry(), "/data")

	ctx := context.Background()
	tl1 := mgr.Create(ctx, "n1", nil)
	tl2 := mgr.Create(ctx, "n1", nil)
	assert.Same(t, tl1, tl2)
	require.NoError(t, tl1.Wait())
}

func TestCreateSkipsWhenAlreadyExists(t *testing.T) {
	fs := afero.NewMemMapFs()
	mgr := newNodeManager(t, fs, pluginmanager.NewRegistry(), "/data")
	ctx := context.Background()

	require.NoError(t, mgr.Create(ctx, "n1", nil).Wait())
	require.NoError(t, mgr.Create(ctx, "n1", nil).Wait())

	eventually(t, func() bool { return len(mgr.GetResources(nil)) == 1 })
}

func TestStartThenStopTogglesState(t *testing.T) {
	fs := afero.NewMemMapFs()
	mgr := newNodeManager(t, fs, pluginmanager.NewRegistry(), "/data")
	ctx := context.Background()

	require.NoError(t, mgr.Create(ctx, "n1", nil).Wait())
	require.NoError(t, mgr.Start(ctx, "n1", nil).Wait())

	eventually(t, func() bool {
		r, err := mgr.GetResource("n1", nil)
		return err == nil && r.State == resource.StateStarted
	})

	require.NoError(t, mgr.Stop(ctx, "n1", nil).Wait())
	eventually(t, func() bool {
		r, err := mgr.GetResource("n1", nil)
		return err == nil && r.State == resource.StateStopped
	})
}

func TestStartOnUnsupportedTypeFailsWithoutAbortingCaller(t *testing.T) {
	fs := afero.NewMemMapFs()
	mgr, err := New(Config{
		DataPath: "/data/node",
		Fs:       fs,
		Plugins:  pluginmanager.NewRegistry(),
		ResourceType: resource.ResourceType{
			Plugin:       node.Plugin,
			ResourceType: node.ResourceType,
			Names:        resource.Names{Capital: "Node"},
			Master:       &node.Master{Fs: fs},
		},
	})
	require.NoError(t, err)

	err = mgr.Start(context.Background(), "n1", nil).Wait()
	require.Error(t, err)
	var noStart *resource.NoStartError
	assert.True(t, errors.As(err, &noStart))
}

func TestGetResourceReturnsNotFoundForUnknownName(t *testing.T) {
	fs := afero.NewMemMapFs()
	mgr := newNodeManager(t, fs, pluginmanager.NewRegistry(), "/data")
	_, err := mgr.GetResource("ghost", nil)
	var nf *resource.NotFoundError
	assert.True(t, errors.As(err, &nf))
}

func TestDeleteCascadesToDependents(t *testing.T) {
	fs := afero.NewMemMapFs()
	reg := pluginmanager.NewRegistry()
	root := "/data"
	nodeMgr := newNodeManager(t, fs, reg, root)
	walletMgr := newWalletManager(t, fs, reg, root)
	ctx := context.Background()

	require.NoError(t, nodeMgr.Create(ctx, "n1", nil).Wait())
	require.NoError(t, walletMgr.Create(ctx, "w1", resource.Options{"node": "n1"}).Wait())

	eventually(t, func() bool { return len(walletMgr.GetResources(nil)) == 1 })

	require.NoError(t, nodeMgr.Delete(ctx, "n1", nil).Wait())

	eventually(t, func() bool { return len(nodeMgr.GetResources(nil)) == 0 })
	eventually(t, func() bool { return len(walletMgr.GetResources(nil)) == 0 })
}

func TestInitRehydratesInstalledResources(t *testing.T) {
	fs := afero.NewMemMapFs()
	root := "/data"
	reg := pluginmanager.NewRegistry()
	first := newNodeManager(t, fs, reg, root)
	require.NoError(t, first.Create(context.Background(), "n1", nil).Wait())

	reg2 := pluginmanager.NewRegistry()
	second := newNodeManager(t, fs, reg2, root)
	initErrs, err := second.Init(context.Background())
	require.NoError(t, err)
	assert.Empty(t, initErrs)

	eventually(t, func() bool { return len(second.GetResources(nil)) == 1 })
}

func TestInitCollectsPerResourceInitErrorsWithoutFailing(t *testing.T) {
	fs := afero.NewMemMapFs()
	root := "/data"
	ready, err := readyregistry.New(fs, filepath.Join(root, "node", "ready"))
	require.NoError(t, err)
	require.NoError(t, ready.Write("ghost"))

	mgr := newNodeManager(t, fs, pluginmanager.NewRegistry(), root)
	initErrs, err := mgr.Init(context.Background())
	require.NoError(t, err)
	require.Len(t, initErrs, 1)
	assert.Equal(t, "ghost", initErrs[0].Name)
}

func TestStopOnUnknownNameSkipsWithoutPanicking(t *testing.T) {
	fs := afero.NewMemMapFs()
	mgr := newNodeManager(t, fs, pluginmanager.NewRegistry(), "/data")

	assert.NotPanics(t, func() {
		require.NoError(t, mgr.Stop(context.Background(), "ghost", nil).Wait())
	})
}

func TestDeleteRemovesResourceDataDirectory(t *testing.T) {
	fs := afero.NewMemMapFs()
	root := "/data"
	mgr := newNodeManager(t, fs, pluginmanager.NewRegistry(), root)
	ctx := context.Background()

	require.NoError(t, mgr.Create(ctx, "n1", nil).Wait())
	dir := filepath.Join(root, "node", "resources", "n1")
	exists, err := afero.DirExists(fs, dir)
	require.NoError(t, err)
	require.True(t, exists)

	require.NoError(t, mgr.Delete(ctx, "n1", nil).Wait())

	exists, err = afero.DirExists(fs, dir)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestDebugReturnsDescribeTablePerAdapter(t *testing.T) {
	fs := afero.NewMemMapFs()
	mgr := newNodeManager(t, fs, pluginmanager.NewRegistry(), "/data")
	require.NoError(t, mgr.Create(context.Background(), "n1", nil).Wait())

	tables := mgr.Debug()
	require.Contains(t, tables, "n1")
	assert.NotEmpty(t, tables["n1"])
}
