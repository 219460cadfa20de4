// Package wallet is a second reference resource type: every wallet depends
// on exactly one node (named via options["node"]), so creating a wallet
// and deleting its node exercise internal/resourcesmanager's cross-manager
// dependency registration and cascade against a concrete sibling.
package wallet

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"

	"github.com/otusforge/resourced/internal/plugins/node"
	"github.com/otusforge/resourced/pkg/resource"
	"github.com/otusforge/resourced/pkg/tasklist"
)

const (
	Plugin       = "demo"
	ResourceType = "wallet"
)

type descriptor struct {
	Name string `json:"name"`
	Node string `json:"node"`
}

// Master builds and rehydrates wallet adapters.
type Master struct {
	Fs afero.Fs
}

func (m *Master) descriptorPath(loc resource.Location) string {
	return filepath.Join(loc.DataPath, "wallet.json")
}

// CreateResourceAdapter requires options["node"] naming the node this
// wallet belongs to; that dependency is recorded so the owning manager
// registers this wallet as the node's resourceDependent.
func (m *Master) CreateResourceAdapter(loc resource.Location, options resource.Options) *tasklist.TaskList {
	task := &tasklist.Task{
		Title: fmt.Sprintf("create wallet %s", loc.Name),
		Run: func(ctx context.Context, tc *tasklist.Context) (*tasklist.TaskList, error) {
			nodeName, _ := options["node"].(string)
			if nodeName == "" {
				return nil, fmt.Errorf("wallet %q: options[\"node\"] is required", loc.Name)
			}

			if err := m.Fs.MkdirAll(loc.DataPath, 0o750); err != nil {
				return nil, err
			}
			d := descriptor{Name: loc.Name, Node: nodeName}
			b, err := json.Marshal(d)
			if err != nil {
				return nil, err
			}
			if err := afero.WriteFile(m.Fs, m.descriptorPath(loc), b, 0o640); err != nil {
				return nil, err
			}

			a := newAdapter(m.Fs, loc.Name, loc.DataPath, nodeName)
			resource.SetAdapter(tc, a)
			resource.SetDependencies(tc, []resource.Dependency{
				{Plugin: node.Plugin, ResourceType: node.ResourceType, Name: nodeName},
			})
			resource.SetDependents(tc, nil)
			return nil, nil
		},
	}
	return tasklist.New([]*tasklist.Task{task}, tasklist.Options{})
}

// InitResourceAdapter reconstructs the adapter for loc from its descriptor
// file.
func (m *Master) InitResourceAdapter(loc resource.Location) (resource.ResourceAdapter, error) {
	b, err := afero.ReadFile(m.Fs, m.descriptorPath(loc))
	if err != nil {
		return nil, err
	}
	var d descriptor
	if err := json.Unmarshal(b, &d); err != nil {
		return nil, err
	}
	return newAdapter(m.Fs, d.Name, loc.DataPath, d.Node), nil
}

// Adapter is an in-memory wallet tied to one node.
type Adapter struct {
	fs       afero.Fs
	name     string
	node     string
	dataPath string

	mu        sync.Mutex
	state     resource.State
	destroyed bool
	subs      map[int]chan resource.Resource
	nextID    int
}

func newAdapter(fs afero.Fs, name, dataPath, nodeName string) *Adapter {
	return &Adapter{
		fs:       fs,
		name:     name,
		node:     nodeName,
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
		Extra:        map[string]any{"node": a.node},
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
	task := &tasklist.Task{Title: fmt.Sprintf("start wallet %s", a.name), Run: func(ctx context.Context, tc *tasklist.Context) (*tasklist.TaskList, error) {
		a.mu.Lock()
		a.state = resource.StateStarted
		a.publish()
		a.mu.Unlock()
		return nil, nil
	}}
	return tasklist.New([]*tasklist.Task{task}, tasklist.Options{})
}

func (a *Adapter) Stop(options resource.Options) *tasklist.TaskList {
	task := &tasklist.Task{Title: fmt.Sprintf("stop wallet %s", a.name), Run: func(ctx context.Context, tc *tasklist.Context) (*tasklist.TaskList, error) {
		a.mu.Lock()
		a.state = resource.StateStopped
		a.publish()
		a.mu.Unlock()
		return nil, nil
	}}
	return tasklist.New([]*tasklist.Task{task}, tasklist.Options{})
}

func (a *Adapter) Delete(options resource.Options) *tasklist.TaskList {
	task := &tasklist.Task{Title: fmt.Sprintf("delete wallet %s", a.name), Run: func(ctx context.Context, tc *tasklist.Context) (*tasklist.TaskList, error) {
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

// Resource returns a fresh channel seeded with the current snapshot.
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
		{Key: "node", Value: a.node},
		{Key: "state", Value: string(a.state)},
	}
}
