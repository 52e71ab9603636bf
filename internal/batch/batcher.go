// Package batch groups elements from a channel into bounded batches.
// A batch closes when it reaches a size threshold or when a window
// duration has passed since its first element, whichever comes first.
// Idle input produces no output: the window timer only runs while a
// batch is forming, so an empty batch is never emitted.
package batch

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/pscheid92/deckpulse/internal/metrics"
)

// Defaults for callers that do not configure their own thresholds.
const (
	DefaultMaxSize = 100
	DefaultWindow  = 300 * time.Millisecond
)

// Batcher consumes a source channel and emits non-empty batches on C
// in window-close order. Element order within a batch matches arrival
// order on the source.
type Batcher[T any] struct {
	name    string
	source  <-chan T
	out     chan []T
	maxSize int
	window  time.Duration
	clock   clockwork.Clock

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New starts a batcher reading from source. maxSize below 1 and
// non-positive windows fall back to the package defaults. The clock is
// injected so tests can drive the window deterministically.
func New[T any](name string, source <-chan T, maxSize int, window time.Duration, clock clockwork.Clock) *Batcher[T] {
	if maxSize < 1 {
		maxSize = DefaultMaxSize
	}
	if window <= 0 {
		window = DefaultWindow
	}

	b := &Batcher[T]{
		name:    name,
		source:  source,
		out:     make(chan []T),
		maxSize: maxSize,
		window:  window,
		clock:   clock,
		done:    make(chan struct{}),
	}
	b.wg.Add(1)
	go b.run()
	return b
}

// C returns the batch stream. It is closed after Stop or after the
// source channel closes. The owner must keep receiving from C until it
// closes; emission blocks on the consumer.
func (b *Batcher[T]) C() <-chan []T {
	return b.out
}

// Stop drains whatever is still buffered on the source, flushes the
// final partial batch, and closes C. It blocks until the batcher
// goroutine has exited. Idempotent.
func (b *Batcher[T]) Stop() {
	b.stopOnce.Do(func() { close(b.done) })
	b.wg.Wait()
}

func (b *Batcher[T]) run() {
	defer b.wg.Done()
	defer close(b.out)

	var pending []T
	var timer clockwork.Timer
	var timerC <-chan time.Time

	// stopTimer cancels the window timer and clears a fired-but-unread
	// tick so a stale tick can never close the next batch early.
	stopTimer := func() {
		if timer == nil {
			return
		}
		if !timer.Stop() {
			select {
			case <-timer.Chan():
			default:
			}
		}
		timer = nil
		timerC = nil
	}

	flush := func(reason string) {
		if len(pending) == 0 {
			return
		}
		batch := pending
		pending = nil
		stopTimer()

		metrics.BatchesEmitted.WithLabelValues(b.name, reason).Inc()
		metrics.BatchSize.WithLabelValues(b.name).Observe(float64(len(batch)))
		b.out <- batch
	}

	for {
		select {
		case v, ok := <-b.source:
			if !ok {
				flush("stop")
				return
			}
			pending = append(pending, v)
			if len(pending) == 1 {
				timer = b.clock.NewTimer(b.window)
				timerC = timer.Chan()
			}
			if len(pending) >= b.maxSize {
				flush("size")
			}

		case <-timerC:
			flush("window")

		case <-b.done:
			// Take what is already buffered on the source, then flush.
			for drained := false; !drained; {
				select {
				case v := <-b.source:
					pending = append(pending, v)
					if len(pending) >= b.maxSize {
						flush("size")
					}
				default:
					drained = true
				}
			}
			flush("stop")
			return
		}
	}
}
