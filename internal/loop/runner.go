package loop

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// Runner moves blocking work off the UI goroutine.
type Runner interface {
	// Go runs work on a worker. The continuation it returns (may be nil) runs
	// on the UI goroutine.
	Go(work func(ctx context.Context) func())

	// After runs fn on the UI goroutine once d has elapsed. The returned stop
	// function cancels the timer and reports whether it was still armed.
	After(d time.Duration, fn func()) (stop func() bool)
}

// DefaultWorkers bounds concurrent provider jobs when NewAsync gets workers <= 0.
const DefaultWorkers = 4

// Async is the production Runner: goroutines bounded by a weighted semaphore,
// continuations posted to a Loop.
type Async struct {
	loop     *Loop
	sem      *semaphore.Weighted
	ctx      context.Context
	cancel   context.CancelFunc
	inflight atomic.Int64
	wg       sync.WaitGroup
}

// NewAsync creates a runner posting to l with at most workers concurrent jobs.
func NewAsync(l *Loop, workers int) *Async {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Async{
		loop:   l,
		sem:    semaphore.NewWeighted(int64(workers)),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Go implements Runner.
func (a *Async) Go(work func(ctx context.Context) func()) {
	a.inflight.Add(1)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.sem.Acquire(a.ctx, 1); err != nil {
			a.loop.Post(func() { a.inflight.Add(-1) })
			return
		}
		cont := work(a.ctx)
		a.sem.Release(1)
		a.loop.Post(func() {
			a.inflight.Add(-1)
			if cont != nil {
				cont()
			}
		})
	}()
}

// After implements Runner.
func (a *Async) After(d time.Duration, fn func()) func() bool {
	t := time.AfterFunc(d, func() { a.loop.Post(fn) })
	return t.Stop
}

// Busy reports whether jobs are still running or waiting for their
// continuation to be executed.
func (a *Async) Busy() bool {
	return a.inflight.Load() > 0
}

// Close cancels the context handed to running jobs. Continuations of jobs
// that still complete are posted to the loop as usual.
func (a *Async) Close() {
	a.cancel()
}

// Wait blocks until every worker goroutine has returned. Workers blocked in
// Post need the loop to be drained or stopped.
func (a *Async) Wait() {
	a.wg.Wait()
}
