package fsprovider

import (
	"time"

	"github.com/joshuapare/dualview/pkg/types"
)

// DefaultDebounce is the quiet period after the last filesystem event before
// a burst is delivered.
const DefaultDebounce = 100 * time.Millisecond

// maxHold bounds how many debounce periods a steady stream of events can
// delay delivery.
const maxHold = 10

// WithDebounce sets the quiet period that coalesces bursts of events, such
// as a checkout rewriting a tree. Zero delivers every event at once.
func WithDebounce(d time.Duration) Option {
	return func(p *Provider) { p.debounce = max(d, 0) }
}

// burst collects the events of one debounce window, one per path in order
// of first appearance. A later event for a path replaces the earlier one,
// except that an update never hides a pending creation or deletion.
type burst struct {
	order  []string
	events map[string]types.Event
	since  time.Time
}

func (b *burst) add(path string, ev types.Event, now time.Time) {
	if b.events == nil {
		b.events = make(map[string]types.Event)
	}
	prev, seen := b.events[path]
	switch {
	case !seen:
		if len(b.order) == 0 {
			b.since = now
		}
		b.order = append(b.order, path)
	case ev.Kind == types.EventUpdated && prev.Kind != types.EventUpdated:
		return
	}
	b.events[path] = ev
}

func (b *burst) empty() bool { return len(b.order) == 0 }

// overdue reports whether the burst has been held for maxHold periods.
func (b *burst) overdue(now time.Time, period time.Duration) bool {
	return !b.empty() && now.Sub(b.since) >= maxHold*period
}

// flush hands every collected event to emit and resets the burst.
func (b *burst) flush(emit func(types.Event)) {
	for _, path := range b.order {
		emit(b.events[path])
	}
	b.order = b.order[:0]
	clear(b.events)
}
