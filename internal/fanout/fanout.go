// Package fanout implements dynamic one-to-many broadcast over buffered
// channels. A Broadcaster delivers every published element to every
// current subscription; each subscription owns a bounded buffer and a
// policy deciding what happens when that buffer is full.
package fanout

import (
	"log/slog"
	"sync"

	"github.com/pscheid92/deckpulse/internal/metrics"
)

// DefaultBuffer is the per-subscription buffer size used by callers
// that do not configure their own.
const DefaultBuffer = 128

// Policy selects the overflow behavior of a full subscription buffer.
type Policy int

const (
	// DropOldest evicts the oldest buffered element so the newest one
	// always fits. Slow subscribers lose intermediate elements but keep
	// receiving and always converge on the latest published value.
	DropOldest Policy = iota

	// Terminate closes the subscription with ErrSubscriberOverflow
	// instead of dropping data. Consumers that must not miss elements
	// learn that they fell behind rather than silently losing some.
	Terminate
)

// Broadcaster fans published elements out to a dynamic set of
// subscriptions. All methods are safe for concurrent use. A zero
// Broadcaster is not usable; construct with New.
type Broadcaster[T any] struct {
	name   string
	buffer int
	policy Policy

	mu     sync.RWMutex
	subs   map[uint64]*Subscription[T]
	nextID uint64
	closed bool
}

// New creates a broadcaster. The name labels metrics and logs, buffer
// is the per-subscription capacity (values below 1 are raised to
// DefaultBuffer), and policy applies to all subscriptions.
func New[T any](name string, buffer int, policy Policy) *Broadcaster[T] {
	if buffer < 1 {
		buffer = DefaultBuffer
	}
	return &Broadcaster[T]{
		name:   name,
		buffer: buffer,
		policy: policy,
		subs:   make(map[uint64]*Subscription[T]),
	}
}

// Subscribe registers a new subscription receiving all elements
// published from now on. Subscribing to a closed broadcaster returns
// an already-completed subscription.
func (b *Broadcaster[T]) Subscribe() *Subscription[T] {
	return b.subscribe(nil)
}

// SubscribeSeeded registers a new subscription whose first element is
// initial, followed by all elements published after the subscription
// was registered. Registration and seeding happen atomically with
// respect to Publish, so no published element can slip between the
// seed and the live stream.
func (b *Broadcaster[T]) SubscribeSeeded(initial T) *Subscription[T] {
	return b.subscribe(&initial)
}

func (b *Broadcaster[T]) subscribe(seed *T) *Subscription[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := &Subscription[T]{ch: make(chan T, b.buffer)}
	if b.closed {
		sub.closed = true
		close(sub.ch)
		sub.cancel = func() {}
		return sub
	}

	id := b.nextID
	b.nextID++
	sub.cancel = func() {
		if s := b.remove(id); s != nil {
			s.close(nil)
		}
	}

	if seed != nil {
		sub.ch <- *seed
	}

	b.subs[id] = sub
	metrics.FanoutSubscribers.WithLabelValues(b.name).Inc()
	return sub
}

// Publish delivers v to every current subscription. It never blocks on
// slow subscribers: full buffers are handled per the broadcaster's
// policy. Publishing to a closed broadcaster is a no-op.
func (b *Broadcaster[T]) Publish(v T) {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return
	}

	var overflowed []uint64
	dropped := 0
	for id, sub := range b.subs {
		switch sub.push(v, b.policy) {
		case pushDropped:
			dropped++
		case pushOverflowed:
			overflowed = append(overflowed, id)
		}
	}
	b.mu.RUnlock()

	if dropped > 0 {
		metrics.FanoutDroppedElements.WithLabelValues(b.name).Add(float64(dropped))
	}

	// Overflowed subscriptions already closed themselves; removing them
	// from the map needs the write lock, so it happens after unlocking.
	for _, id := range overflowed {
		slog.Warn("Terminating slow subscriber", "stream", b.name)
		metrics.FanoutOverflowTerminations.WithLabelValues(b.name).Inc()
		b.remove(id)
	}
}

// Len returns the number of active subscriptions.
func (b *Broadcaster[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close completes all subscriptions gracefully: their channels drain
// any buffered elements, then close with a nil Err. Close is
// idempotent.
func (b *Broadcaster[T]) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	subs := b.subs
	b.subs = make(map[uint64]*Subscription[T])
	b.mu.Unlock()

	for _, sub := range subs {
		sub.close(nil)
	}
	metrics.FanoutSubscribers.WithLabelValues(b.name).Set(0)
}

// remove unregisters a subscription and returns it, or nil if it was
// already gone.
func (b *Broadcaster[T]) remove(id uint64) *Subscription[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub, ok := b.subs[id]
	if !ok {
		return nil
	}
	delete(b.subs, id)
	metrics.FanoutSubscribers.WithLabelValues(b.name).Dec()
	return sub
}
