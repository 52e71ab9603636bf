// Package queue provides a bounded FIFO queue with blocking offers.
// Producers feel backpressure when the queue is full instead of having
// elements rejected or dropped.
package queue

import (
	"context"
	"errors"
	"sync"

	"github.com/pscheid92/deckpulse/internal/metrics"
)

// DefaultCapacity is used by callers that do not configure their own.
const DefaultCapacity = 256

var (
	// ErrFull reports a non-blocking offer against a full queue.
	ErrFull = errors.New("queue full")
	// ErrClosed reports an offer against a closed queue.
	ErrClosed = errors.New("queue closed")
)

// Bounded is a fixed-capacity FIFO queue. Offers block while the queue
// is full; a single consumer drains via Drain. Close stops new offers
// but leaves already-buffered elements drainable.
type Bounded[T any] struct {
	name     string
	ch       chan T
	done     chan struct{}
	stopOnce sync.Once
}

// New creates a queue with the given capacity. Values below 1 are
// raised to DefaultCapacity.
func New[T any](name string, capacity int) *Bounded[T] {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Bounded[T]{
		name: name,
		ch:   make(chan T, capacity),
		done: make(chan struct{}),
	}
}

// Offer enqueues v, blocking while the queue is full. It returns
// ErrClosed if the queue is or becomes closed, and the context error
// if ctx ends while waiting. On success the element is queued FIFO.
func (q *Bounded[T]) Offer(ctx context.Context, v T) error {
	select {
	case <-q.done:
		q.countOffer("rejected")
		return ErrClosed
	default:
	}

	select {
	case q.ch <- v:
		q.accepted()
		return nil
	default:
	}

	// Full: wait for the consumer, cancellation, or close.
	q.countOffer("blocked")
	select {
	case q.ch <- v:
		q.accepted()
		return nil
	case <-ctx.Done():
		q.countOffer("canceled")
		return ctx.Err()
	case <-q.done:
		q.countOffer("rejected")
		return ErrClosed
	}
}

// TryOffer enqueues v without blocking. It returns ErrFull when the
// queue is full and ErrClosed when it is closed.
func (q *Bounded[T]) TryOffer(v T) error {
	select {
	case <-q.done:
		q.countOffer("rejected")
		return ErrClosed
	default:
	}

	select {
	case q.ch <- v:
		q.accepted()
		return nil
	default:
		q.countOffer("rejected")
		return ErrFull
	}
}

// Drain returns the receive side of the queue. The channel is never
// closed; consumers combine it with Done to learn about shutdown while
// still draining buffered elements.
func (q *Bounded[T]) Drain() <-chan T {
	return q.ch
}

// Done is closed when the queue has been closed.
func (q *Bounded[T]) Done() <-chan struct{} {
	return q.done
}

// Len returns the number of currently buffered elements.
func (q *Bounded[T]) Len() int {
	return len(q.ch)
}

// Cap returns the queue capacity.
func (q *Bounded[T]) Cap() int {
	return cap(q.ch)
}

// Close rejects all future offers and unblocks waiting ones with
// ErrClosed. The data channel stays open so the consumer can drain
// whatever is buffered. Idempotent.
func (q *Bounded[T]) Close() {
	q.stopOnce.Do(func() { close(q.done) })
}

func (q *Bounded[T]) accepted() {
	q.countOffer("accepted")
	metrics.QueueDepth.WithLabelValues(q.name).Set(float64(len(q.ch)))
}

func (q *Bounded[T]) countOffer(result string) {
	metrics.QueueOffered.WithLabelValues(q.name, result).Inc()
}
