// Package node is a reference resource type: a standalone resource with no
// dependencies of its own, persisted as a small JSON descriptor under its
// Location's DataPath. It exists to exercise internal/resourcesmanager end
// to end and to give internal/plugins/wallet something to depend on.
package node

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"

	"github.com/otusforge/resourced/pkg/resource"
	"github.com/otusforge/resourced/pkg/tasklist"
)

const (
	Plugin       = "demo"
	ResourceType = "node"
)

type descriptor struct {
	Name string `json:"name"`
}

// Master builds and rehydrates node adapters.
type Master struct {
	Fs afero.Fs
}

func (m *Master) descriptorPath(loc resource.Location) string {
	return filepath.Join(loc.DataPath, "node.json")
}

// CreateResourceAdapter persists a descriptor file and installs the
// adapter, regardless of whether any later step in the owning create
// TaskList fails.
func (m *Master) CreateResourceAdapter(loc resource.Location, options resource.Options) *tasklist.TaskList {
	task := &tasklist.Task{
		Title: fmt.Sprintf("create node %s", loc.Name),
		Run: func(ctx context.Context, tc *tasklist.Context) (*tasklist.TaskList, error) {
			if err := m.Fs.MkdirAll(loc.DataPath, 0o750); err != nil {
				return nil, err
			}
			d := descriptor{Name: loc.Name}
			b, err := json.Marshal(d)
			if err != nil {
				return nil, err
			}
			if err := afero.WriteFile(m.Fs, m.descriptorPath(loc), b, 0o640); err != nil {
				return nil, err
			}

			a := newAdapter(m.Fs, loc.Name, loc.DataPath)
			resource.SetAdapter(tc, a)
			resource.SetDependencies(tc, nil)
			resource.SetDependents(tc, nil)
			return nil, nil
		},
	}
	return tasklist.New([]*tasklist.Task{task}, tasklist.Options{})
}

// InitResourceAdapter reconstructs the adapter for loc from its descriptor
// file, without re-running create side effects.
func (m *Master) InitResourceAdapter(loc resource.Location) (resource.ResourceAdapter, error) {
	b, err := afero.ReadFile(m.Fs, m.descriptorPath(loc))
	if err != nil {
		return nil, err
	}
	var d descriptor
	if err := json.Unmarshal(b, &d); err != nil {
		return nil, err
	}
	return newAdapter(m.Fs, d.Name, loc.DataPath), nil
}

// Adapter is an in-memory node: no real process, just a started/stopped
// state machine that publishes snapshots to every live subscriber.
type Adapter struct {
	fs       afero.Fs
	name     string
	dataPath string

	mu        sync.Mutex
	state     resource.State
	destroyed bool
	subs      map[int]chan resource.Resource
	nextID    int
}

func newAdapter(fs afero.Fs, name, dataPath string) *Adapter {
	return &Adapter{
		fs:       fs,
		name:     name,
		dataPath: dataPath,
		state:    resource.StateStopped,
		subs:     make(map[int]chan resource.Resource),
	}
}

func (a *Adapter) snapshot() resource.Resource {
	return resource.Resource{
		Plugin:       Plugin,
		ResourceType: ResourceType,
		Name:         a.name,
		BaseName:     resource.ExtractBaseName(a.name),
		State:        a.state,
	}
}

func (a *Adapter) publish() {
	snap := a.snapshot()
	for _, ch := range a.subs {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}

func (a *Adapter) Start(options resource.Options) *tasklist.TaskList {
	task := &tasklist.Task{Title: fmt.Sprintf("start node %s", a.name), Run: func(ctx context.Context, tc *tasklist.Context) (*tasklist.TaskList, error) {
		a.mu.Lock()
		a.state = resource.StateStarted
		a.publish()
		a.mu.Unlock()
		return nil, nil
	}}
	return tasklist.New([]*tasklist.Task{task}, tasklist.Options{})
}

func (a *Adapter) Stop(options resource.Options) *tasklist.TaskList {
	task := &tasklist.Task{Title: fmt.Sprintf("stop node %s", a.name), Run: func(ctx context.Context, tc *tasklist.Context) (*tasklist.TaskList, error) {
		a.mu.Lock()
		a.state = resource.StateStopped
		a.publish()
		a.mu.Unlock()
		return nil, nil
	}}
	return tasklist.New([]*tasklist.Task{task}, tasklist.Options{})
}

func (a *Adapter) Delete(options resource.Options) *tasklist.TaskList {
	task := &tasklist.Task{Title: fmt.Sprintf("delete node %s", a.name), Run: func(ctx context.Context, tc *tasklist.Context) (*tasklist.TaskList, error) {
		return nil, a.fs.RemoveAll(a.dataPath)
	}}
	return tasklist.New([]*tasklist.Task{task}, tasklist.Options{})
}

// Destroy closes every live subscriber channel. Idempotent.
func (a *Adapter) Destroy() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.destroyed {
		return nil
	}
	a.destroyed = true
	for id, ch := range a.subs {
		close(ch)
		delete(a.subs, id)
	}
	return nil
}

// Resource returns a fresh channel seeded with the current snapshot. The
// channel is closed when Destroy runs.
func (a *Adapter) Resource() <-chan resource.Resource {
	a.mu.Lock()
	defer a.mu.Unlock()

	ch := make(chan resource.Resource, 1)
	if a.destroyed {
		ch <- a.snapshot()
		close(ch)
		return ch
	}
	id := a.nextID
	a.nextID++
	a.subs[id] = ch
	ch <- a.snapshot()
	return ch
}

func (a *Adapter) Describe() resource.DescribeTable {
	a.mu.Lock()
	defer a.mu.Unlock()
	return resource.DescribeTable{
		{Key: "name", Value: a.name},
		{Key: "state", Value: string(a.state)},
	}
}
