// Package portalloc is a reference implementation of
// pkg/resource.PortAllocator: a fixed range of ports handed out in a
// stable, rebalancing-friendly order via consistent hashing, so that
// restarts tend to hand the same resource the same port even as the range
// or resource set changes slightly.
package portalloc

import (
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/serialx/hashring"

	"github.com/otusforge/resourced/pkg/resource"
)

// Allocator reserves ports from [min, max] and releases them idempotently.
type Allocator struct {
	mu        sync.Mutex
	min, max  int
	ring      *hashring.HashRing
	reserved  map[string]int // key string -> port
	byPort    map[int]string // port -> key string, for free-list maintenance
	available []int
}

// New returns an Allocator over the inclusive port range [min, max].
func New(min, max int) (*Allocator, error) {
	if max < min {
		return nil, fmt.Errorf("portalloc: invalid range [%d, %d]", min, max)
	}
	ports := make([]string, 0, max-min+1)
	available := make([]int, 0, max-min+1)
	for p := min; p <= max; p++ {
		ports = append(ports, strconv.Itoa(p))
		available = append(available, p)
	}
	return &Allocator{
		min:       min,
		max:       max,
		ring:      hashring.New(ports),
		reserved:  make(map[string]int),
		byPort:    make(map[int]string),
		available: available,
	}, nil
}

// AllocatePort reserves a port for key, returning the previously reserved
// port if key is already held.
func (a *Allocator) AllocatePort(key resource.PortKey) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	k := keyString(key)
	if p, ok := a.reserved[k]; ok {
		return p, nil
	}
	if len(a.available) == 0 {
		return 0, fmt.Errorf("portalloc: no ports available in range [%d, %d]", a.min, a.max)
	}

	port, ok := a.pickPort(k)
	if !ok {
		return 0, fmt.Errorf("portalloc: no ports available in range [%d, %d]", a.min, a.max)
	}
	a.reserved[k] = port
	a.byPort[port] = k
	a.removeAvailable(port)
	return port, nil
}

// ReleasePort frees key's port. Releasing a key with no reservation, or
// releasing twice, is not an error.
func (a *Allocator) ReleasePort(key resource.PortKey) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	k := keyString(key)
	port, ok := a.reserved[k]
	if !ok {
		return nil
	}
	delete(a.reserved, k)
	delete(a.byPort, port)
	a.available = append(a.available, port)
	sort.Ints(a.available)
	return nil
}

// pickPort consults the hash ring for key's preferred node, falling back
// to the lowest free port if the ring's suggestion is already taken. The
// ring always holds every port in the range, reserved or not, so
// available is the source of truth for what is free.
func (a *Allocator) pickPort(k string) (int, bool) {
	if node, ok := a.ring.GetNode(k); ok {
		if p, err := strconv.Atoi(node); err == nil {
			if a.isAvailable(p) {
				return p, true
			}
		}
	}
	return a.available[0], true
}

func (a *Allocator) isAvailable(port int) bool {
	for _, p := range a.available {
		if p == port {
			return true
		}
	}
	return false
}

func (a *Allocator) removeAvailable(port int) {
	for i, p := range a.available {
		if p == port {
			a.available = append(a.available[:i], a.available[i+1:]...)
			return
		}
	}
}

func keyString(k resource.PortKey) string {
	return k.Plugin + "/" + k.ResourceType + "/" + k.Resource + "/" + k.Name
}
