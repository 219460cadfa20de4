// Package resource defines the types and interfaces shared by every
// ResourcesManager: the runtime Resource view, the cross-manager
// ResourceDependency key, the CRUD descriptor a plugin supplies for a
// resource type, and the ResourceAdapter/MasterResourceAdapter contracts
// an adapter author implements.
package resource

import "strings"

// State is a resource's observed lifecycle state.
type State string

const (
	StateStarted State = "started"
	StateStopped State = "stopped"
)

// Resource is the runtime snapshot an adapter publishes on the channel its
// Resource method returns.
// Extra is adapter-specific data (e.g. a node's listen address); the core
// never inspects it.
type Resource struct {
	Plugin       string
	ResourceType string
	Name         string
	BaseName     string
	State        State
	Extra        map[string]any
}

// Dependency is a structural key identifying a resource across plugins and
// types. Equality is over all three fields, so two Dependency values with
// the same fields are interchangeable regardless of where they came from.
type Dependency struct {
	Plugin       string `json:"plugin"`
	ResourceType string `json:"resourceType"`
	Name         string `json:"name"`
}

// Equal reports structural equality over all three fields.
func (d Dependency) Equal(o Dependency) bool {
	return d.Plugin == o.Plugin && d.ResourceType == o.ResourceType && d.Name == o.Name
}

// UniqueDependencies returns deps deduplicated by (plugin, resourceType,
// name), preserving the order of first occurrence. Append-time edges
// (resourceDependents) are never deduplicated eagerly; this
// is applied wherever the list is consumed instead.
func UniqueDependencies(deps []Dependency) []Dependency {
	seen := make(map[Dependency]struct{}, len(deps))
	out := make([]Dependency, 0, len(deps))
	for _, d := range deps {
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	return out
}

// ExtractBaseName returns the leaf segment of a compound name of the form
// "scope/leaf". A name with no "/" is its own leaf.
func ExtractBaseName(name string) string {
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		return name[idx+1:]
	}
	return name
}
