// Package cell provides a subscribable state container. A Cell holds a
// single value; updates are serialized through a pure transition
// function, and subscribers receive an ordered stream of the states a
// cell moves through, starting with the state at subscription time.
package cell

import (
	"sync"

	"github.com/pscheid92/deckpulse/internal/fanout"
	"github.com/pscheid92/deckpulse/internal/metrics"
)

// Cell is a concurrency-safe state container with change streams.
// Update calls are serialized, so concurrent updates behave as if
// applied one after another, and the published stream reflects exactly
// that order.
type Cell[T any] struct {
	name string

	mu    sync.RWMutex
	value T
	out   *fanout.Broadcaster[T]
}

// New creates a cell holding initial. The name labels metrics; buffer
// is the per-subscriber buffer of the change stream. State streams use
// the drop-oldest policy: a slow subscriber loses intermediate states
// but always converges on the latest one.
func New[T any](name string, initial T, buffer int) *Cell[T] {
	return &Cell[T]{
		name:  name,
		value: initial,
		out:   fanout.New[T](name, buffer, fanout.DropOldest),
	}
}

// Get returns the current state.
func (c *Cell[T]) Get() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value
}

// Update applies f to the current state, stores the result, publishes
// it to all subscribers, and returns it. f must be pure: it runs under
// the cell's lock and may be invoked at most once per Update call.
func (c *Cell[T]) Update(f func(T) T) T {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.value = f(c.value)
	metrics.CellUpdates.WithLabelValues(c.name).Inc()
	c.out.Publish(c.value)
	return c.value
}

// Subscribe returns a subscription whose first element is the state at
// subscription time, followed by every subsequent state in update
// order. Taking the snapshot and registering the subscription happen
// atomically with respect to Update, so no transition is missed or
// duplicated around the seed.
func (c *Cell[T]) Subscribe() *fanout.Subscription[T] {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.out.SubscribeSeeded(c.value)
}

// Close completes all subscriptions gracefully. Further updates still
// mutate the stored value but reach no subscribers.
func (c *Cell[T]) Close() {
	c.out.Close()
}
