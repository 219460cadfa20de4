// Package pluginmanager resolves a (plugin, resourceType) pair to the
// ResourcesManager that owns it. It sits below
// internal/resourcesmanager so managers can look up siblings to cascade
// delete/start/stop without the two packages importing each other: this
// package only knows the slice of operations a manager must expose to be
// delegated to, not the manager's own type.
package pluginmanager

import (
	"context"
	"fmt"
	"sync"

	"github.com/otusforge/resourced/pkg/resource"
	"github.com/otusforge/resourced/pkg/tasklist"
)

// Manager is the subset of a ResourcesManager's API that cross-manager
// cascades call through. internal/resourcesmanager.ResourcesManager
// satisfies this.
type Manager interface {
	Create(ctx context.Context, name string, options resource.Options) *tasklist.TaskList
	Delete(ctx context.Context, name string, options resource.Options) *tasklist.TaskList
	Start(ctx context.Context, name string, options resource.Options) *tasklist.TaskList
	Stop(ctx context.Context, name string, options resource.Options) *tasklist.TaskList
	AddDependent(name string, dep resource.Dependency)
	SupportsStart() bool
	SupportsStop() bool
}

// Key identifies a registered manager.
type Key struct {
	Plugin       string
	ResourceType string
}

// Registry is the total lookup table from Key to Manager. Every manager a
// plugin constructs must be registered before any cross-manager operation
// that might reference it runs.
type Registry struct {
	mu       sync.RWMutex
	managers map[Key]Manager
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{managers: make(map[Key]Manager)}
}

// Register installs mgr under key, failing if the slot is already taken.
func (r *Registry) Register(key Key, mgr Manager) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.managers[key]; exists {
		return fmt.Errorf("pluginmanager: manager for %s/%s already registered", key.Plugin, key.ResourceType)
	}
	r.managers[key] = mgr
	return nil
}

// GetResourcesManager returns the manager for key. It is total: an unknown
// key is a programming error, surfaced loudly rather than as a recoverable
// miss, since every manager must register at construction.
func (r *Registry) GetResourcesManager(key Key) (Manager, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	mgr, ok := r.managers[key]
	if !ok {
		return nil, fmt.Errorf("pluginmanager: no resources manager registered for %s/%s", key.Plugin, key.ResourceType)
	}
	return mgr, nil
}
