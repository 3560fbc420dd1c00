// Package roots keeps the ordered list of tree roots. The order is the source
// of truth for root display order and for sync tie-breaks, independent of
// the row store's own top-level sibling order.
package roots

import "github.com/joshuapare/dualview/view/rowstore"

// List is an ordered set of root handles.
type List struct {
	rows []rowstore.Handle
}

// New creates an empty list.
func New() *List { return &List{} }

// Add inserts h at index (out of range appends). Adding a present handle
// does nothing.
func (l *List) Add(h rowstore.Handle, index int) {
	if h.IsNil() || l.Contains(h) {
		return
	}
	if index < 0 || index >= len(l.rows) {
		l.rows = append(l.rows, h)
		return
	}
	l.rows = append(l.rows, rowstore.Nil)
	copy(l.rows[index+1:], l.rows[index:])
	l.rows[index] = h
}

// Remove detaches h and reports whether it was present.
func (l *List) Remove(h rowstore.Handle) bool {
	i := l.Index(h)
	if i < 0 {
		return false
	}
	l.rows = append(l.rows[:i], l.rows[i+1:]...)
	return true
}

// Index returns the position of h, or -1.
func (l *List) Index(h rowstore.Handle) int {
	for i, r := range l.rows {
		if r == h {
			return i
		}
	}
	return -1
}

// Contains reports whether h is a root.
func (l *List) Contains(h rowstore.Handle) bool { return l.Index(h) >= 0 }

// Move repositions h to index; out of range moves it last.
func (l *List) Move(h rowstore.Handle, index int) bool {
	if !l.Remove(h) {
		return false
	}
	l.Add(h, index)
	return true
}

// At returns the i-th root, or Nil.
func (l *List) At(i int) rowstore.Handle {
	if i < 0 || i >= len(l.rows) {
		return rowstore.Nil
	}
	return l.rows[i]
}

// All returns a copy of the roots in order.
func (l *List) All() []rowstore.Handle {
	return append([]rowstore.Handle(nil), l.rows...)
}

// Len returns the number of roots.
func (l *List) Len() int { return len(l.rows) }

// Clear drops every root.
func (l *List) Clear() { l.rows = nil }
