package fanout

import (
	"errors"
	"sync"
)

// ErrSubscriberOverflow reports that a subscription on a Terminate
// stream was closed because its buffer was full when a new element
// arrived.
var ErrSubscriberOverflow = errors.New("subscriber buffer overflow")

type pushResult int

const (
	pushOK pushResult = iota
	pushDropped
	pushOverflowed
	pushClosed
)

// Subscription is one receiver of a Broadcaster. Elements arrive on C
// in publish order. When C is closed, Err reports why: nil for a
// graceful close (Broadcaster.Close or Subscription.Close) and
// ErrSubscriberOverflow for a Terminate-policy overflow.
type Subscription[T any] struct {
	ch     chan T
	cancel func()

	mu     sync.Mutex
	closed bool
	err    error
}

// C returns the receive channel. It is closed when the subscription
// ends; buffered elements remain readable until drained.
func (s *Subscription[T]) C() <-chan T {
	return s.ch
}

// Err returns the terminal error of the subscription. It is meaningful
// once C has been closed and nil for a graceful close.
func (s *Subscription[T]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close unsubscribes and closes C with a nil Err. Safe to call more
// than once and safe to call concurrently with Publish.
func (s *Subscription[T]) Close() {
	s.cancel()
}

// push delivers v into the buffer, applying policy on overflow. The
// per-subscription mutex serializes pushes, so within one subscription
// buffered elements always appear in publish order.
func (s *Subscription[T]) push(v T, policy Policy) pushResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return pushClosed
	}

	select {
	case s.ch <- v:
		return pushOK
	default:
	}

	if policy == Terminate {
		s.err = ErrSubscriberOverflow
		s.closed = true
		close(s.ch)
		return pushOverflowed
	}

	// DropOldest: evict one element and resend. Only the consumer can
	// remove elements concurrently, so after the eviction the buffer
	// has room and the send cannot block.
	select {
	case <-s.ch:
	default:
	}
	s.ch <- v
	return pushDropped
}

// close ends the subscription. A nil err means graceful completion; a
// previously recorded error is preserved. Idempotent.
func (s *Subscription[T]) close(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	if err != nil {
		s.err = err
	}
	close(s.ch)
}
