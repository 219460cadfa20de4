package resourcesmanager

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/afero"
	"github.com/sourcegraph/conc"
	"go.uber.org/multierr"

	"github.com/otusforge/resourced/internal/compensation"
	"github.com/otusforge/resourced/internal/depstore"
	"github.com/otusforge/resourced/internal/log"
	"github.com/otusforge/resourced/internal/pluginmanager"
	"github.com/otusforge/resourced/internal/readyregistry"
	"github.com/otusforge/resourced/internal/stream"
	"github.com/otusforge/resourced/pkg/resource"
	"github.com/otusforge/resourced/pkg/tasklist"
)

// CreateHook runs concurrently with every other registered hook as the
// last step of a successful create.
type CreateHook func(ctx context.Context, name string, tc *tasklist.Context) error

// Config binds a ResourcesManager to its collaborators. Fs defaults to
// the OS filesystem when nil; tests pass an in-memory afero.Fs instead.
type Config struct {
	DataPath      string
	Fs            afero.Fs
	ResourceType  resource.ResourceType
	PortAllocator resource.PortAllocator
	Plugins       *pluginmanager.Registry
	Logger        log.Logger
}

// ResourcesManager owns the lifecycle of every named instance of one
// (plugin, resourceType) pair.
type ResourcesManager struct {
	dataPath string
	rtype    resource.ResourceType
	portAlloc resource.PortAllocator
	plugins  *pluginmanager.Registry
	logger   log.Logger
	comp     *compensation.Supervisor

	ready *readyregistry.Registry
	deps  *depstore.Store
	agg   *stream.Aggregator

	mu                 sync.Mutex
	adapters           map[string]resource.ResourceAdapter
	started            map[string]bool
	directDependents   map[string][]resource.Dependency
	resourceDependents map[string][]resource.Dependency
	createTasks        map[string]*tasklist.TaskList
	deleteTasks        map[string]*tasklist.TaskList
	startTasks         map[string]*tasklist.TaskList
	stopTasks          map[string]*tasklist.TaskList
	hooks              []CreateHook
}

// New constructs a manager, ensures its four on-disk subdirectories exist,
// and registers it with cfg.Plugins under (Plugin, ResourceType).
func New(cfg Config) (*ResourcesManager, error) {
	fs := cfg.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	for _, sub := range []string{"resources", "ready", "dependents", "dependencies"} {
		if err := fs.MkdirAll(filepath.Join(cfg.DataPath, sub), 0o750); err != nil {
			return nil, fmt.Errorf("resourcesmanager: create %q: %w", sub, err)
		}
	}

	ready, err := readyregistry.New(fs, filepath.Join(cfg.DataPath, "ready"))
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		log.Init(&log.LoggerConfig{})
		logger = log.GetLogger()
	}

	m := &ResourcesManager{
		dataPath:           cfg.DataPath,
		rtype:              cfg.ResourceType,
		portAlloc:          cfg.PortAllocator,
		plugins:            cfg.Plugins,
		logger:             logger,
		comp:               compensation.New(logger),
		ready:              ready,
		deps:               depstore.New(fs, cfg.DataPath),
		adapters:           make(map[string]resource.ResourceAdapter),
		started:            make(map[string]bool),
		directDependents:   make(map[string][]resource.Dependency),
		resourceDependents: make(map[string][]resource.Dependency),
		createTasks:        make(map[string]*tasklist.TaskList),
		deleteTasks:        make(map[string]*tasklist.TaskList),
		startTasks:         make(map[string]*tasklist.TaskList),
		stopTasks:          make(map[string]*tasklist.TaskList),
	}
	m.agg = stream.NewAggregator(m.snapshotAdapters)

	if cfg.Plugins != nil {
		key := pluginmanager.Key{Plugin: cfg.ResourceType.Plugin, ResourceType: cfg.ResourceType.ResourceType}
		if err := cfg.Plugins.Register(key, m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *ResourcesManager) snapshotAdapters() map[string]resource.ResourceAdapter {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]resource.ResourceAdapter, len(m.adapters))
	for k, v := range m.adapters {
		out[k] = v
	}
	return out
}

// SupportsStart reports whether this resource type declares a start
// operation (used by sibling managers filtering dependency cascades).
func (m *ResourcesManager) SupportsStart() bool { return m.rtype.SupportsStart }

// SupportsStop mirrors SupportsStart for stop.
func (m *ResourcesManager) SupportsStop() bool { return m.rtype.SupportsStop }

// Init rehydrates every ready resource. The returned error
// is non-nil only for the whole-init-fatal case (duplicate ready markers
// or an unreadable ready directory); per-resource failures are reported
// as InitErrors instead and never abort the rest of init.
func (m *ResourcesManager) Init(ctx context.Context) ([]*resource.InitError, error) {
	names, err := m.ready.GetAll()
	if err != nil {
		return nil, fmt.Errorf("resourcesmanager: enumerate ready markers: %w", err)
	}

	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		if _, dup := seen[n]; dup {
			return nil, &resource.DuplicateNameError{Name: n}
		}
		seen[n] = struct{}{}
	}

	type outcome struct {
		name       string
		adapter    resource.ResourceAdapter
		deps       []resource.Dependency
		dependents []resource.Dependency
		err        *resource.InitError
	}

	var mu sync.Mutex
	var results []outcome
	var wg conc.WaitGroup

	for _, name := range names {
		name := name
		wg.Go(func() {
			loc := resource.Location{Name: name, DataPath: filepath.Join(m.dataPath, "resources", name)}
			adapter, err := m.rtype.Master.InitResourceAdapter(loc)
			if err != nil {
				mu.Lock()
				results = append(results, outcome{name: name, err: &resource.InitError{Name: name, Err: err}})
				mu.Unlock()
				return
			}
			deps, err := m.deps.Load(depstore.Dependencies, name)
			if err != nil {
				mu.Lock()
				results = append(results, outcome{name: name, err: &resource.InitError{Name: name, Err: err}})
				mu.Unlock()
				return
			}
			dependents, err := m.deps.Load(depstore.Dependents, name)
			if err != nil {
				mu.Lock()
				results = append(results, outcome{name: name, err: &resource.InitError{Name: name, Err: err}})
				mu.Unlock()
				return
			}
			mu.Lock()
			results = append(results, outcome{name: name, adapter: adapter, deps: deps, dependents: dependents})
			mu.Unlock()
		})
	}
	wg.Wait()

	var initErrs []*resource.InitError
	m.mu.Lock()
	for _, r := range results {
		if r.err != nil {
			initErrs = append(initErrs, r.err)
			continue
		}
		m.adapters[r.name] = r.adapter
		m.directDependents[r.name] = r.dependents
		m.started[r.name] = false
	}
	m.mu.Unlock()

	// Second pass: every manager's own adapter map is populated above
	// before any cross-manager edge registration.
	for _, r := range results {
		if r.err != nil {
			continue
		}
		m.addDependents(r.name, r.deps)
	}

	if len(initErrs) > 0 {
		initErrorsTotal.WithLabelValues(m.rtype.Plugin, m.rtype.ResourceType).Add(float64(len(initErrs)))
		var combined error
		for _, e := range initErrs {
			combined = multierr.Append(combined, e)
		}
		m.logger.WithError(combined).Warnf("resourcesmanager: %d/%d ready resources failed to rehydrate", len(initErrs), len(names))
	}
	adaptersGauge.WithLabelValues(m.rtype.Plugin, m.rtype.ResourceType).Set(float64(len(m.adapters)))
	m.agg.Notify()
	return initErrs, nil
}

// addDependents registers self as a dependent of every dependency it
// declared, on the owning sibling manager.
func (m *ResourcesManager) addDependents(self string, dependencies []resource.Dependency) {
	for _, d := range dependencies {
		mgr, err := m.plugins.GetResourcesManager(pluginmanager.Key{Plugin: d.Plugin, ResourceType: d.ResourceType})
		if err != nil {
			m.logger.WithError(err).Warnf("resourcesmanager: dependency %s/%s/%s for %s unresolved", d.Plugin, d.ResourceType, d.Name, self)
			continue
		}
		mgr.AddDependent(d.Name, resource.Dependency{
			Plugin:       m.rtype.Plugin,
			ResourceType: m.rtype.ResourceType,
			Name:         self,
		})
	}
}

// AddDependent appends dep to resourceDependents[name] with no
// deduplication at append time; dedup is applied by every consumer
// instead.
func (m *ResourcesManager) AddDependent(name string, dep resource.Dependency) {
	m.mu.Lock()
	m.resourceDependents[name] = append(m.resourceDependents[name], dep)
	m.mu.Unlock()
	m.agg.Notify()
}

// Create builds name via the configured MasterResourceAdapter.
// Re-entering with a create already in flight for name returns that
// same TaskList.
func (m *ResourcesManager) Create(ctx context.Context, name string, options resource.Options) *tasklist.TaskList {
	m.mu.Lock()
	if tl, ok := m.createTasks[name]; ok {
		m.mu.Unlock()
		return tl
	}
	_, exists := m.adapters[name]
	m.mu.Unlock()

	if exists {
		return m.skipList(fmt.Sprintf("%s %s already exists", m.rtype.Names.Capital, name))
	}

	start := time.Now()
	tl := tasklist.New(m.createSteps(name, options), tasklist.Options{
		FreshContext: true,
		OnError: func(err error, tc *tasklist.Context) {
			m.comp.Run(fmt.Sprintf("rollback create %s", name), func(rctx context.Context) error {
				return m.Delete(rctx, name, options).Wait()
			})
		},
		OnDone: func(failed bool) {
			m.mu.Lock()
			delete(m.createTasks, name)
			m.mu.Unlock()
			m.recordOp("create", failed, start)
			m.agg.Notify()
		},
	})

	m.mu.Lock()
	m.createTasks[name] = tl
	m.mu.Unlock()
	tl.Start(ctx, nil)
	return tl
}

func (m *ResourcesManager) createSteps(name string, options resource.Options) []*tasklist.Task {
	createAndFinalize := &tasklist.Task{
		Title: fmt.Sprintf("%s %s", m.rtype.Names.Ing, name),
		Run: func(ctx context.Context, tc *tasklist.Context) (*tasklist.TaskList, error) {
			loc := resource.Location{Name: name, DataPath: filepath.Join(m.dataPath, "resources", name)}
			nested := m.rtype.Master.CreateResourceAdapter(loc, options)
			nested.Start(ctx, tc)
			createErr := nested.Wait()

			adapter, _ := resource.Adapter(nested.Context())
			dependents := resource.Dependents(nested.Context())
			dependencies := resource.Dependencies(nested.Context())

			m.mu.Lock()
			if adapter != nil {
				m.adapters[name] = adapter
			}
			m.directDependents[name] = dependents
			m.mu.Unlock()
			m.addDependents(name, dependencies)
			m.agg.Notify()

			if createErr != nil {
				return nil, createErr
			}
			if adapter == nil {
				return nil, fmt.Errorf("create %q: master produced no adapter", name)
			}

			select {
			case <-adapter.Resource():
			case <-ctx.Done():
				return nil, ctx.Err()
			}

			if err := m.ready.Write(name); err != nil {
				return nil, err
			}
			if err := m.deps.Save(depstore.Dependents, name, dependents); err != nil {
				return nil, err
			}
			if err := m.deps.Save(depstore.Dependencies, name, dependencies); err != nil {
				return nil, err
			}
			return nil, nil
		},
	}

	startOnCreate := &tasklist.Task{
		Title:   fmt.Sprintf("start %s", name),
		Enabled: func() bool { return m.rtype.StartOnCreate && m.rtype.SupportsStart },
		Run: func(ctx context.Context, tc *tasklist.Context) (*tasklist.TaskList, error) {
			return m.Start(ctx, name, options), nil
		},
	}

	hooks := &tasklist.Task{
		Title: "create hooks",
		Enabled: func() bool {
			m.mu.Lock()
			defer m.mu.Unlock()
			return len(m.hooks) > 0
		},
		Run: func(ctx context.Context, tc *tasklist.Context) (*tasklist.TaskList, error) {
			m.mu.Lock()
			hooks := append([]CreateHook(nil), m.hooks...)
			m.mu.Unlock()

			tasks := make([]*tasklist.Task, len(hooks))
			for i, h := range hooks {
				h := h
				tasks[i] = &tasklist.Task{Title: "hook", Run: func(ctx context.Context, tc *tasklist.Context) (*tasklist.TaskList, error) {
					return nil, h(ctx, name, tc)
				}}
			}
			return tasklist.New(tasks, tasklist.Options{Concurrent: true}), nil
		},
	}

	return []*tasklist.Task{createAndFinalize, startOnCreate, hooks}
}

// Delete tears down name, cascading to its dependents first.
func (m *ResourcesManager) Delete(ctx context.Context, name string, options resource.Options) *tasklist.TaskList {
	m.mu.Lock()
	if tl, ok := m.deleteTasks[name]; ok {
		m.mu.Unlock()
		return tl
	}
	_, exists := m.adapters[name]
	m.mu.Unlock()

	start := time.Now()
	tl := tasklist.New(m.deleteSteps(name, options, exists), tasklist.Options{
		FreshContext: true,
		OnDone: func(failed bool) {
			m.mu.Lock()
			delete(m.deleteTasks, name)
			m.mu.Unlock()
			m.recordOp("delete", failed, start)
			m.agg.Notify()
		},
	})

	m.mu.Lock()
	m.deleteTasks[name] = tl
	m.mu.Unlock()
	tl.Start(ctx, nil)
	return tl
}

func (m *ResourcesManager) deleteSteps(name string, options resource.Options, exists bool) []*tasklist.Task {
	abortCreate := &tasklist.Task{
		Title: "abort pending create",
		Run: func(ctx context.Context, tc *tasklist.Context) (*tasklist.TaskList, error) {
			m.mu.Lock()
			ct, ok := m.createTasks[name]
			m.mu.Unlock()
			if ok {
				ct.Abort()
			}
			return nil, nil
		},
	}

	cancelStartOrStop := &tasklist.Task{
		Title: "cancel start / stop running",
		Run: func(ctx context.Context, tc *tasklist.Context) (*tasklist.TaskList, error) {
			m.mu.Lock()
			st, startInFlight := m.startTasks[name]
			started := m.started[name]
			m.mu.Unlock()
			if startInFlight && m.rtype.SupportsStart {
				st.Abort()
			}
			if m.rtype.SupportsStop && started {
				return m.Stop(ctx, name, options), nil
			}
			return nil, nil
		},
	}

	deleteDependents := &tasklist.Task{
		Title: "delete dependents",
		Run: func(ctx context.Context, tc *tasklist.Context) (*tasklist.TaskList, error) {
			m.mu.Lock()
			all := append(append([]resource.Dependency{}, m.resourceDependents[name]...), m.directDependents[name]...)
			m.mu.Unlock()
			all = resource.UniqueDependencies(all)
			if len(all) == 0 {
				return nil, nil
			}
			tasks := make([]*tasklist.Task, len(all))
			for i, d := range all {
				d := d
				tasks[i] = &tasklist.Task{Title: fmt.Sprintf("delete %s", d.Name), Run: func(ctx context.Context, tc *tasklist.Context) (*tasklist.TaskList, error) {
					mgr, err := m.plugins.GetResourcesManager(pluginmanager.Key{Plugin: d.Plugin, ResourceType: d.ResourceType})
					if err != nil {
						return nil, err
					}
					return mgr.Delete(ctx, d.Name, options), nil
				}}
			}
			return tasklist.New(tasks, tasklist.Options{Concurrent: true}), nil
		},
	}

	deleteAndCleanup := &tasklist.Task{
		Title:   fmt.Sprintf("%s %s", m.rtype.Names.Ing, name),
		Enabled: func() bool { return exists },
		Run: func(ctx context.Context, tc *tasklist.Context) (*tasklist.TaskList, error) {
			m.mu.Lock()
			adapter := m.adapters[name]
			m.mu.Unlock()

			var deleteErr error
			if adapter != nil {
				nested := adapter.Delete(options)
				nested.Start(ctx, tc)
				deleteErr = nested.Wait()
			}

			m.mu.Lock()
			delete(m.adapters, name)
			delete(m.started, name)
			delete(m.directDependents, name)
			delete(m.resourceDependents, name)
			m.mu.Unlock()

			if adapter != nil {
				if err := adapter.Destroy(); err != nil {
					m.logger.WithError(err).Warnf("destroy %s: in-memory teardown failed", name)
				}
			}
			if m.portAlloc != nil {
				_ = m.portAlloc.ReleasePort(resource.PortKey{Plugin: m.rtype.Plugin, ResourceType: m.rtype.ResourceType, Name: name})
			}
			_ = m.ready.Delete(name)
			_ = m.deps.Delete(depstore.Dependencies, name)
			_ = m.deps.Delete(depstore.Dependents, name)
			return nil, deleteErr
		},
	}

	return []*tasklist.Task{abortCreate, cancelStartOrStop, deleteDependents, deleteAndCleanup}
}

// Start brings name from stopped to started, bringing its created
// children up first.
func (m *ResourcesManager) Start(ctx context.Context, name string, options resource.Options) *tasklist.TaskList {
	if !m.rtype.SupportsStart || !m.rtype.SupportsStop {
		return m.failList(&resource.NoStartError{ResourceType: m.rtype.ResourceType})
	}

	m.mu.Lock()
	if tl, ok := m.startTasks[name]; ok {
		m.mu.Unlock()
		return tl
	}
	_, exists := m.adapters[name]
	already := m.started[name]
	m.mu.Unlock()

	if !exists {
		return m.skipList(fmt.Sprintf("%s %s does not exist; create it first", m.rtype.Names.Capital, name))
	}
	if already {
		return m.skipList(fmt.Sprintf("%s %s already started", m.rtype.Names.Capital, name))
	}

	start := time.Now()
	tl := tasklist.New(m.startSteps(name, options), tasklist.Options{
		FreshContext: true,
		OnDone: func(failed bool) {
			m.mu.Lock()
			if !failed {
				m.started[name] = true
			}
			delete(m.startTasks, name)
			m.mu.Unlock()
			if failed {
				m.comp.Run(fmt.Sprintf("rollback start %s", name), func(rctx context.Context) error {
					return m.Stop(rctx, name, options).Wait()
				})
			}
			m.recordOp("start", failed, start)
			m.agg.Notify()
		},
	})

	m.mu.Lock()
	m.startTasks[name] = tl
	m.mu.Unlock()
	tl.Start(ctx, nil)
	return tl
}

func (m *ResourcesManager) startSteps(name string, options resource.Options) []*tasklist.Task {
	abortStop := &tasklist.Task{
		Title: "abort pending stop",
		Run: func(ctx context.Context, tc *tasklist.Context) (*tasklist.TaskList, error) {
			m.mu.Lock()
			st, ok := m.stopTasks[name]
			m.mu.Unlock()
			if ok {
				st.Abort()
			}
			return nil, nil
		},
	}

	startChildren := &tasklist.Task{
		Title: "start created children",
		Run: func(ctx context.Context, tc *tasklist.Context) (*tasklist.TaskList, error) {
			m.mu.Lock()
			children := append([]resource.Dependency(nil), m.directDependents[name]...)
			m.mu.Unlock()

			var tasks []*tasklist.Task
			for _, d := range children {
				d := d
				tasks = append(tasks, &tasklist.Task{
					Title: fmt.Sprintf("start %s", d.Name),
					Skip: func() string {
						mgr, err := m.plugins.GetResourcesManager(pluginmanager.Key{Plugin: d.Plugin, ResourceType: d.ResourceType})
						if err != nil || !mgr.SupportsStart() {
							return fmt.Sprintf("%s does not support start", d.Name)
						}
						return ""
					},
					Run: func(ctx context.Context, tc *tasklist.Context) (*tasklist.TaskList, error) {
						mgr, err := m.plugins.GetResourcesManager(pluginmanager.Key{Plugin: d.Plugin, ResourceType: d.ResourceType})
						if err != nil {
							return nil, err
						}
						return mgr.Start(ctx, d.Name, options), nil
					},
				})
			}
			if len(tasks) == 0 {
				return nil, nil
			}
			// Sequential: ordering matters, dependencies before dependents.
			return tasklist.New(tasks, tasklist.Options{}), nil
		},
	}

	adapterStart := &tasklist.Task{
		Title: fmt.Sprintf("start %s", name),
		Run: func(ctx context.Context, tc *tasklist.Context) (*tasklist.TaskList, error) {
			m.mu.Lock()
			adapter := m.adapters[name]
			m.mu.Unlock()
			return adapter.Start(options), nil
		},
	}

	return []*tasklist.Task{abortStop, startChildren, adapterStart}
}

// Stop brings name from started to stopped, stopping its dependents first
// and its created children last.
func (m *ResourcesManager) Stop(ctx context.Context, name string, options resource.Options) *tasklist.TaskList {
	if !m.rtype.SupportsStart || !m.rtype.SupportsStop {
		return m.failList(&resource.NoStopError{ResourceType: m.rtype.ResourceType})
	}

	m.mu.Lock()
	if tl, ok := m.stopTasks[name]; ok {
		m.mu.Unlock()
		return tl
	}
	_, exists := m.adapters[name]
	m.mu.Unlock()

	if !exists {
		return m.skipList(fmt.Sprintf("%s %s does not exist", m.rtype.Names.Capital, name))
	}

	start := time.Now()
	tl := tasklist.New(m.stopSteps(name, options), tasklist.Options{
		FreshContext: true,
		OnComplete: func() {
			m.mu.Lock()
			m.started[name] = false
			m.mu.Unlock()
		},
		OnDone: func(failed bool) {
			m.mu.Lock()
			delete(m.stopTasks, name)
			m.mu.Unlock()
			m.recordOp("stop", failed, start)
			m.agg.Notify()
		},
	})

	m.mu.Lock()
	m.stopTasks[name] = tl
	m.mu.Unlock()
	tl.Start(ctx, nil)
	return tl
}

func (m *ResourcesManager) stopSteps(name string, options resource.Options) []*tasklist.Task {
	abortStart := &tasklist.Task{
		Title: "abort pending start",
		Run: func(ctx context.Context, tc *tasklist.Context) (*tasklist.TaskList, error) {
			m.mu.Lock()
			st, ok := m.startTasks[name]
			m.mu.Unlock()
			if ok {
				st.Abort()
			}
			return nil, nil
		},
	}

	stopDependents := &tasklist.Task{
		Title: "stop dependents",
		Run: func(ctx context.Context, tc *tasklist.Context) (*tasklist.TaskList, error) {
			return m.stopCascade(name, "resourceDependents", options), nil
		},
	}

	adapterStop := &tasklist.Task{
		Title: fmt.Sprintf("stop %s", name),
		Run: func(ctx context.Context, tc *tasklist.Context) (*tasklist.TaskList, error) {
			m.mu.Lock()
			adapter := m.adapters[name]
			m.mu.Unlock()
			return adapter.Stop(options), nil
		},
	}

	stopChildren := &tasklist.Task{
		Title: "stop created children",
		Run: func(ctx context.Context, tc *tasklist.Context) (*tasklist.TaskList, error) {
			return m.stopCascade(name, "directDependents", options), nil
		},
	}

	return []*tasklist.Task{abortStart, stopDependents, adapterStop, stopChildren}
}

func (m *ResourcesManager) stopCascade(name, which string, options resource.Options) *tasklist.TaskList {
	m.mu.Lock()
	var deps []resource.Dependency
	if which == "resourceDependents" {
		deps = append([]resource.Dependency(nil), m.resourceDependents[name]...)
	} else {
		deps = append([]resource.Dependency(nil), m.directDependents[name]...)
	}
	m.mu.Unlock()

	var tasks []*tasklist.Task
	for _, d := range deps {
		d := d
		tasks = append(tasks, &tasklist.Task{
			Title: fmt.Sprintf("stop %s", d.Name),
			Skip: func() string {
				mgr, err := m.plugins.GetResourcesManager(pluginmanager.Key{Plugin: d.Plugin, ResourceType: d.ResourceType})
				if err != nil || !mgr.SupportsStop() {
					return fmt.Sprintf("%s does not support stop", d.Name)
				}
				return ""
			},
			Run: func(ctx context.Context, tc *tasklist.Context) (*tasklist.TaskList, error) {
				mgr, err := m.plugins.GetResourcesManager(pluginmanager.Key{Plugin: d.Plugin, ResourceType: d.ResourceType})
				if err != nil {
					return nil, err
				}
				return mgr.Stop(ctx, d.Name, options), nil
			},
		})
	}
	if len(tasks) == 0 {
		return nil
	}
	return tasklist.New(tasks, tasklist.Options{Concurrent: true})
}

// Resources returns the most recently published combined snapshot.
func (m *ResourcesManager) Resources() []resource.Resource { return m.agg.Latest() }

// SubscribeResources mirrors the manager's live resource set as a
// channel of full snapshots.
func (m *ResourcesManager) SubscribeResources() (<-chan []resource.Resource, func()) {
	return m.agg.Subscribe()
}

// GetResources applies the resource type's FilterResources, if any.
func (m *ResourcesManager) GetResources(options resource.Options) []resource.Resource {
	all := m.agg.Latest()
	if m.rtype.FilterResources != nil {
		return m.rtype.FilterResources(options, all)
	}
	return all
}

// GetResource further selects GetResources by name.
func (m *ResourcesManager) GetResource(name string, options resource.Options) (resource.Resource, error) {
	for _, r := range m.GetResources(options) {
		if r.Name == name {
			return r, nil
		}
	}
	return resource.Resource{}, &resource.NotFoundError{Name: name}
}

// AddCreateHook registers hook to run concurrently at the end of every
// successful create.
func (m *ResourcesManager) AddCreateHook(hook CreateHook) {
	m.mu.Lock()
	m.hooks = append(m.hooks, hook)
	m.mu.Unlock()
}

// GetResourceAdapter returns name's installed adapter.
func (m *ResourcesManager) GetResourceAdapter(name string) (resource.ResourceAdapter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.adapters[name]
	if !ok {
		return nil, &resource.NotFoundError{Name: name}
	}
	return a, nil
}

// Debug returns every installed adapter's describe table, keyed by name.
func (m *ResourcesManager) Debug() map[string]resource.DescribeTable {
	adapters := m.snapshotAdapters()
	out := make(map[string]resource.DescribeTable, len(adapters))
	for name, a := range adapters {
		out[name] = a.Describe()
	}
	return out
}

// SimpleName extracts the human-visible leaf segment of a compound name.
func (m *ResourcesManager) SimpleName(name string) string {
	return resource.ExtractBaseName(name)
}

func (m *ResourcesManager) skipList(reason string) *tasklist.TaskList {
	tl := tasklist.New([]*tasklist.Task{{Title: reason, Skip: func() string { return reason }}}, tasklist.Options{FreshContext: true})
	tl.Start(context.Background(), nil)
	return tl
}

func (m *ResourcesManager) failList(err error) *tasklist.TaskList {
	tl := tasklist.New([]*tasklist.Task{{Title: "precondition", Run: func(ctx context.Context, tc *tasklist.Context) (*tasklist.TaskList, error) {
		return nil, err
	}}}, tasklist.Options{FreshContext: true})
	tl.Start(context.Background(), nil)
	return tl
}

func (m *ResourcesManager) recordOp(op string, failed bool, start time.Time) {
	outcome := "success"
	if failed {
		outcome = "failure"
	}
	operationsTotal.WithLabelValues(m.rtype.Plugin, m.rtype.ResourceType, op, outcome).Inc()
	operationDuration.WithLabelValues(m.rtype.Plugin, m.rtype.ResourceType, op).Observe(time.Since(start).Seconds())
	adaptersGauge.WithLabelValues(m.rtype.Plugin, m.rtype.ResourceType).Set(float64(len(m.snapshotAdapters())))
}
