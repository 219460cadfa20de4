package resource

import "github.com/otusforge/resourced/pkg/tasklist"

// Typed accessors over tasklist.Context's untyped bag. pkg/tasklist has no
// knowledge of ResourceAdapter or Dependency; every Task a ResourcesManager
// schedules reads and writes through these functions instead of touching
// the bag directly, so the key type stays private to this package.

type ctxKey int

const (
	keyAdapter ctxKey = iota
	keyDependencies
	keyDependents
)

// SetAdapter stores the adapter a running operation is working against.
func SetAdapter(tc *tasklist.Context, a ResourceAdapter) {
	tc.Set(keyAdapter, a)
}

// Adapter returns the adapter set by SetAdapter, if any.
func Adapter(tc *tasklist.Context) (ResourceAdapter, bool) {
	v, ok := tc.Get(keyAdapter)
	if !ok {
		return nil, false
	}
	a, ok := v.(ResourceAdapter)
	return a, ok
}

// SetDependencies stores the resolved dependency list for a create
// operation in progress.
func SetDependencies(tc *tasklist.Context, deps []Dependency) {
	tc.Set(keyDependencies, deps)
}

// Dependencies returns the list set by SetDependencies.
func Dependencies(tc *tasklist.Context) []Dependency {
	v, ok := tc.Get(keyDependencies)
	if !ok {
		return nil
	}
	deps, _ := v.([]Dependency)
	return deps
}

// SetDependents stores the resources a create operation in progress made
// as children of the new resource (its direct dependents).
func SetDependents(tc *tasklist.Context, deps []Dependency) {
	tc.Set(keyDependents, deps)
}

// Dependents returns the list set by SetDependents.
func Dependents(tc *tasklist.Context) []Dependency {
	v, ok := tc.Get(keyDependents)
	if !ok {
		return nil
	}
	deps, _ := v.([]Dependency)
	return deps
}
