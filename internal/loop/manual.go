package loop

import (
	"context"
	"time"
)

// Manual is a deterministic Runner for tests. Jobs and timers queue up until
// the test runs them; work and continuation both execute on the caller's
// goroutine, which plays the UI thread.
type Manual struct {
	ctx    context.Context
	jobs   []*ManualJob
	timers []*manualTimer
	ran    int
}

// ManualJob is a queued unit of work.
type ManualJob struct {
	work func(ctx context.Context) func()
	done bool
}

type manualTimer struct {
	d       time.Duration
	fn      func()
	stopped bool
	fired   bool
}

// NewManual creates an empty manual runner.
func NewManual() *Manual {
	return &Manual{ctx: context.Background()}
}

// Go implements Runner.
func (m *Manual) Go(work func(ctx context.Context) func()) {
	m.jobs = append(m.jobs, &ManualJob{work: work})
}

// After implements Runner.
func (m *Manual) After(d time.Duration, fn func()) func() bool {
	t := &manualTimer{d: d, fn: fn}
	m.timers = append(m.timers, t)
	return func() bool {
		if t.stopped || t.fired {
			return false
		}
		t.stopped = true
		return true
	}
}

// Pending returns the number of jobs not yet run.
func (m *Manual) Pending() int {
	n := 0
	for _, j := range m.jobs {
		if !j.done {
			n++
		}
	}
	return n
}

// Ran returns the number of jobs run so far.
func (m *Manual) Ran() int {
	return m.ran
}

// RunNext runs the oldest pending job and its continuation. It returns false
// when nothing is pending.
func (m *Manual) RunNext() bool {
	for i, j := range m.jobs {
		if !j.done {
			return m.RunAt(i)
		}
	}
	return false
}

// RunLast runs the newest pending job, which lets tests deliver results out
// of submission order.
func (m *Manual) RunLast() bool {
	for i := len(m.jobs) - 1; i >= 0; i-- {
		if !m.jobs[i].done {
			return m.RunAt(i)
		}
	}
	return false
}

// RunAt runs the i-th submitted job if it is still pending.
func (m *Manual) RunAt(i int) bool {
	if i < 0 || i >= len(m.jobs) || m.jobs[i].done {
		return false
	}
	j := m.jobs[i]
	j.done = true
	m.ran++
	if cont := j.work(m.ctx); cont != nil {
		cont()
	}
	return true
}

// RunAll runs jobs, including jobs submitted by continuations, until none is
// pending. It returns how many ran.
func (m *Manual) RunAll() int {
	n := 0
	for m.RunNext() {
		n++
	}
	return n
}

// Timers returns the number of armed timers.
func (m *Manual) Timers() int {
	n := 0
	for _, t := range m.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// FireTimers fires every armed timer regardless of its duration.
func (m *Manual) FireTimers() int {
	n := 0
	for _, t := range m.timers {
		if t.stopped || t.fired {
			continue
		}
		t.fired = true
		t.fn()
		n++
	}
	return n
}
