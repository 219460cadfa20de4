// Package stream implements the reactive resource-set aggregation a
// ResourcesManager exposes as resources$. Every time the manager's
// adapter set changes it calls Notify;
// the aggregator then behaves like switchMap-of-combineLatest: it drops
// its previous per-adapter subscriptions, resubscribes to the adapters
// current at that instant, and republishes the combined snapshot on every
// single adapter update until the next Notify.
package stream

import (
	"context"
	"sync"

	"github.com/otusforge/resourced/pkg/resource"
)

// Aggregator holds the live combined view of one manager's adapters.
type Aggregator struct {
	adapters func() map[string]resource.ResourceAdapter

	trigger chan struct{}
	done    chan struct{}
	once    sync.Once

	broadcast *latestBroadcaster
}

// NewAggregator starts an Aggregator backed by adapters, a snapshot getter
// the owning manager supplies (never mutated by this package).
func NewAggregator(adapters func() map[string]resource.ResourceAdapter) *Aggregator {
	a := &Aggregator{
		adapters:  adapters,
		trigger:   make(chan struct{}, 1),
		done:      make(chan struct{}),
		broadcast: newLatestBroadcaster(),
	}
	go a.loop()
	a.Notify()
	return a
}

// Notify schedules a rebuild against the current adapter set. Multiple
// notifications before the loop picks one up coalesce into a single
// rebuild, matching update$'s "ticks, doesn't carry a payload" contract.
func (a *Aggregator) Notify() {
	select {
	case a.trigger <- struct{}{}:
	default:
	}
}

// Subscribe returns a channel replaying the latest snapshot immediately
// (if one exists) and every snapshot published after, plus an unsubscribe
// function.
func (a *Aggregator) Subscribe() (<-chan []resource.Resource, func()) {
	return a.broadcast.subscribe()
}

// Latest returns the most recently published snapshot, or nil if none has
// been published yet.
func (a *Aggregator) Latest() []resource.Resource {
	return a.broadcast.snapshot()
}

// Close stops the aggregator's background generations. Safe to call more
// than once.
func (a *Aggregator) Close() {
	a.once.Do(func() { close(a.done) })
}

func (a *Aggregator) loop() {
	var cancelPrev context.CancelFunc
	for {
		select {
		case <-a.done:
			if cancelPrev != nil {
				cancelPrev()
			}
			return
		case <-a.trigger:
			if cancelPrev != nil {
				cancelPrev()
			}
			ctx, cancel := context.WithCancel(context.Background())
			cancelPrev = cancel
			a.startGeneration(ctx)
		}
	}
}

// startGeneration subscribes to every adapter's Resource() stream as of
// this instant and republishes the combined map as a slice on every
// member update, until ctx is canceled by the next trigger.
func (a *Aggregator) startGeneration(ctx context.Context) {
	adapters := a.adapters()
	if len(adapters) == 0 {
		a.broadcast.publish(nil)
		return
	}

	var mu sync.Mutex
	values := make(map[string]resource.Resource, len(adapters))

	for name, ad := range adapters {
		name, ad := name, ad
		go func() {
			ch := ad.Resource()
			for {
				select {
				case <-ctx.Done():
					return
				case v, ok := <-ch:
					if !ok {
						return
					}
					mu.Lock()
					values[name] = v
					snapshot := make([]resource.Resource, 0, len(values))
					for _, r := range values {
						snapshot = append(snapshot, r)
					}
					mu.Unlock()
					a.broadcast.publish(snapshot)
				case <-a.done:
					return
				}
			}
		}()
	}
}
