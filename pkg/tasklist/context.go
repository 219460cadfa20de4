package tasklist

import "sync"

// Context is the mutable key/value bag shared by every Task in one
// TaskList, and — unless a nested TaskList sets FreshContext — by the
// nested lists a task returns. The engine itself only needs safe
// concurrent get/set; domain packages (see pkg/resource) layer typed
// accessors on top of unexported keys so callers never touch a raw map.
type Context struct {
	mu     sync.Mutex
	values map[any]any
}

// NewContext returns an empty Context.
func NewContext() *Context {
	return &Context{values: make(map[any]any)}
}

// Set stores value under key, overwriting any previous value.
func (c *Context) Set(key, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
}

// Get returns the value stored under key, if any.
func (c *Context) Get(key any) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	return v, ok
}
