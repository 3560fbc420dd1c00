// Package loop provides the single logical UI thread of the row cache and the
// job runners that move provider work off it.
//
// All mutations of view state happen on the goroutine that drains a Loop.
// Runners execute blocking provider calls elsewhere and post continuations
// back, never touching view state from a worker.
package loop

import (
	"context"
	"errors"
)

// DefaultQueueSize is the continuation buffer used by New when size <= 0.
const DefaultQueueSize = 256

// ErrStopped is returned by Run when the loop was stopped with Stop.
var ErrStopped = errors.New("loop: stopped")

// Loop is a FIFO of continuations executed on the goroutine that calls Run or
// Drain.
type Loop struct {
	queue chan func()
	stop  chan struct{}
}

// New creates a loop with the given queue capacity.
func New(size int) *Loop {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Loop{
		queue: make(chan func(), size),
		stop:  make(chan struct{}),
	}
}

// Post enqueues fn. Safe from any goroutine; blocks while the queue is full
// so slow consumers apply backpressure to workers instead of dropping results.
func (l *Loop) Post(fn func()) {
	if fn == nil {
		return
	}
	select {
	case l.queue <- fn:
	case <-l.stop:
	}
}

// C exposes the queue for integration with a foreign event loop. Whoever
// receives from C must execute the function on the UI goroutine.
func (l *Loop) C() <-chan func() {
	return l.queue
}

// Len returns the number of queued continuations.
func (l *Loop) Len() int {
	return len(l.queue)
}

// Drain runs every queued continuation, including ones queued while draining,
// and returns how many ran. It never blocks.
func (l *Loop) Drain() int {
	n := 0
	for {
		select {
		case fn := <-l.queue:
			fn()
			n++
		default:
			return n
		}
	}
}

// Run executes continuations until ctx is done or Stop is called.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.stop:
			return ErrStopped
		case fn := <-l.queue:
			fn()
		}
	}
}

// RunUntilIdle executes continuations until busy reports false with an empty
// queue. busy is evaluated on the loop goroutine between continuations.
func (l *Loop) RunUntilIdle(ctx context.Context, busy func() bool) error {
	for {
		l.Drain()
		if !busy() && l.Len() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.stop:
			return ErrStopped
		case fn := <-l.queue:
			fn()
		}
	}
}

// Stop releases Run and any blocked Post. Stop is not reversible.
func (l *Loop) Stop() {
	select {
	case <-l.stop:
	default:
		close(l.stop)
	}
}
