package resource

import "github.com/otusforge/resourced/pkg/tasklist"

// Options is the free-form bag a caller attaches to an operation; adapters
// interpret their own keys and ignore the rest.
type Options map[string]any

// Location is the pair a manager hands to its MasterResourceAdapter: the
// resource's compound name and the private directory under the manager's
// dataPath reserved for it.
type Location struct {
	Name     string
	DataPath string
}

// DescribeRow is one line of a getDebug table.
type DescribeRow struct {
	Key   string
	Value string
}

// DescribeTable is the human-oriented introspection a ResourceAdapter
// contributes to ResourcesManager.Debug.
type DescribeTable []DescribeRow

// ResourceAdapter is the per-instance driver a MasterResourceAdapter
// produces. Exactly one manager owns an adapter at a time; every lifecycle
// transition after create goes through one of these methods, each
// returning a TaskList the manager starts and waits on.
type ResourceAdapter interface {
	// Start brings the resource from stopped to started.
	Start(options Options) *tasklist.TaskList
	// Stop brings the resource from started to stopped.
	Stop(options Options) *tasklist.TaskList
	// Delete performs destructive cleanup of the resource's underlying
	// storage. Must tolerate being called on an adapter that never
	// finished construction.
	Delete(options Options) *tasklist.TaskList
	// Destroy tears down in-memory state only — subscriptions, mirrored
	// child processes — and is idempotent. It does not touch disk.
	Destroy() error
	// Resource returns a channel of state snapshots that emits at least
	// once to every subscriber and closes when Destroy runs.
	Resource() <-chan Resource
	// Describe returns this adapter's contribution to a debug table.
	Describe() DescribeTable
}

// MasterResourceAdapter is the per-(plugin, resourceType) factory a plugin
// registers with a ResourcesManager.
type MasterResourceAdapter interface {
	// CreateResourceAdapter builds the adapter for loc. The returned
	// TaskList's Context carries the adapter (via SetAdapter) plus
	// whatever dependencies/dependents it resolved (via SetDependencies/
	// SetDependents) regardless of whether the list ultimately succeeds.
	CreateResourceAdapter(loc Location, options Options) *tasklist.TaskList
	// InitResourceAdapter rehydrates the adapter for loc during manager
	// init, without re-running create side effects.
	InitResourceAdapter(loc Location) (ResourceAdapter, error)
}
