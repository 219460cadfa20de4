package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/otusforge/resourced/internal/config"
	"github.com/otusforge/resourced/internal/log"
	"github.com/otusforge/resourced/internal/pluginmanager"
	"github.com/otusforge/resourced/internal/plugins/node"
	"github.com/otusforge/resourced/internal/plugins/wallet"
	"github.com/otusforge/resourced/internal/portalloc"
	"github.com/otusforge/resourced/internal/resourcesmanager"
	"github.com/otusforge/resourced/pkg/resource"
	"github.com/spf13/afero"
)

// runtime wires every ResourcesManager the CLI can address. Exactly one is
// built per process invocation, by loadRuntime when a leaf command runs,
// never reused across processes.
type runtime struct {
	registry *pluginmanager.Registry
	managers map[string]*resourcesmanager.ResourcesManager
}

func newRuntime(cfg *config.ServerConfig) (*runtime, error) {
	log.Init(&log.LoggerConfig{
		Level:   cfg.Log.Level,
		Console: cfg.Log.Console,
		Pattern: cfg.Log.Pattern,
		Time:    cfg.Log.Time,
	})
	logger := log.GetLogger()

	fs := afero.NewOsFs()
	reg := pluginmanager.NewRegistry()
	ports, err := portalloc.New(20000, 29999)
	if err != nil {
		return nil, err
	}

	nodeMgr, err := resourcesmanager.New(resourcesmanager.Config{
		DataPath: filepath.Join(cfg.DataRoot, node.Plugin, node.ResourceType),
		Fs:       fs,
		Plugins:  reg,
		Logger:   logger,
		PortAllocator: ports,
		ResourceType: resource.ResourceType{
			Plugin:        node.Plugin,
			ResourceType:  node.ResourceType,
			Names:         resource.Names{Upper: "NODE", Lower: "node", Ed: "created", Ing: "creating", Capital: "Node"},
			Master:        &node.Master{Fs: fs},
			SupportsStart: true,
			SupportsStop:  true,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("build node manager: %w", err)
	}

	walletMgr, err := resourcesmanager.New(resourcesmanager.Config{
		DataPath: filepath.Join(cfg.DataRoot, wallet.Plugin, wallet.ResourceType),
		Fs:       fs,
		Plugins:  reg,
		Logger:   logger,
		PortAllocator: ports,
		ResourceType: resource.ResourceType{
			Plugin:        wallet.Plugin,
			ResourceType:  wallet.ResourceType,
			Names:         resource.Names{Upper: "WALLET", Lower: "wallet", Ed: "created", Ing: "creating", Capital: "Wallet"},
			Master:        &wallet.Master{Fs: fs},
			SupportsStart: true,
			SupportsStop:  true,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("build wallet manager: %w", err)
	}

	rt := &runtime{
		registry: reg,
		managers: map[string]*resourcesmanager.ResourcesManager{
			node.ResourceType:   nodeMgr,
			wallet.ResourceType: walletMgr,
		},
	}

	for name, mgr := range rt.managers {
		if _, err := mgr.Init(context.Background()); err != nil {
			return nil, fmt.Errorf("init %s manager: %w", name, err)
		}
	}
	return rt, nil
}

func (rt *runtime) manager(resourceType string) (*resourcesmanager.ResourcesManager, error) {
	mgr, ok := rt.managers[resourceType]
	if !ok {
		return nil, fmt.Errorf("unknown resource type %q", resourceType)
	}
	return mgr, nil
}
