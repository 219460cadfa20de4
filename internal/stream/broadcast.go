package stream

import (
	"sync"

	"github.com/otusforge/resourced/pkg/resource"
)

// latestBroadcaster is a shareReplay(1)-style fan-out: a late subscriber
// immediately receives whatever was last published, then every value
// published after.
type latestBroadcaster struct {
	mu     sync.Mutex
	has    bool
	last   []resource.Resource
	subs   map[int]chan []resource.Resource
	nextID int
}

func newLatestBroadcaster() *latestBroadcaster {
	return &latestBroadcaster{subs: make(map[int]chan []resource.Resource)}
}

func (b *latestBroadcaster) publish(v []resource.Resource) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.has = true
	b.last = v
	for _, ch := range b.subs {
		select {
		case ch <- v:
		default:
		}
	}
}

func (b *latestBroadcaster) snapshot() []resource.Resource {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.last
}

func (b *latestBroadcaster) subscribe() (<-chan []resource.Resource, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan []resource.Resource, 1)
	if b.has {
		ch <- b.last
	}
	id := b.nextID
	b.nextID++
	b.subs[id] = ch

	unsub := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if c, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(c)
		}
	}
	return ch, unsub
}
