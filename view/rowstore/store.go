// Package rowstore is the physical ordered forest behind a view: row identity,
// sibling order and natural-order navigation.
//
// Rows live in a generational arena. A Handle names a slot and the generation
// the slot had when the row was inserted; removing the row bumps the
// generation so every copy of the old handle stops being Valid. Continuations
// of asynchronous jobs hold handles and check them before touching a row.
//
// The store has no fallible operations. Passing an invalid handle is a caller
// bug: queries return zero values and mutations do nothing.
package rowstore

import (
	"fmt"
	"iter"
	"math"
)

// Handle identifies a row. The zero Handle is Nil and never valid.
type Handle struct {
	index uint32
	gen   uint32
}

// Nil is the invalid handle. As a parent argument it means "top level".
var Nil Handle

// IsNil reports whether h is the zero handle.
func (h Handle) IsNil() bool { return h.gen == 0 }

func (h Handle) String() string {
	if h.IsNil() {
		return "row(nil)"
	}
	return fmt.Sprintf("row(%d.%d)", h.index, h.gen)
}

type slot[T any] struct {
	gen  uint32
	live bool

	parent Handle
	first  Handle
	last   Handle
	next   Handle
	prev   Handle
	nkids  int

	val T
}

// Store is a forest of rows carrying a payload of type T.
type Store[T any] struct {
	slots []slot[T]
	free  []uint32
	count int

	topFirst Handle
	topLast  Handle
	ntop     int
}

// New creates an empty store.
func New[T any]() *Store[T] {
	return &Store[T]{}
}

// Valid reports whether h names a live row of this store.
func (s *Store[T]) Valid(h Handle) bool {
	if h.gen == 0 || int(h.index) >= len(s.slots) {
		return false
	}
	sl := &s.slots[h.index]
	return sl.live && sl.gen == h.gen
}

func (s *Store[T]) slot(h Handle) *slot[T] {
	if !s.Valid(h) {
		return nil
	}
	return &s.slots[h.index]
}

// Get returns the payload of h, or nil for an invalid handle. The pointer is
// valid until the next Insert.
func (s *Store[T]) Get(h Handle) *T {
	sl := s.slot(h)
	if sl == nil {
		return nil
	}
	return &sl.val
}

// Count returns the number of live rows.
func (s *Store[T]) Count() int { return s.count }

// CountAtLeast reports whether the store holds at least n rows.
func (s *Store[T]) CountAtLeast(n int) bool { return s.count >= n }

// Empty reports whether the store holds no rows.
func (s *Store[T]) Empty() bool { return s.count == 0 }

// Reset drops every row. Outstanding handles become invalid.
func (s *Store[T]) Reset() {
	for i := range s.slots {
		if s.slots[i].live {
			s.release(uint32(i))
		}
	}
	s.topFirst, s.topLast, s.ntop = Nil, Nil, 0
}

// childList returns pointers to the first/last/count fields for the children
// of parent, where Nil means the top level.
func (s *Store[T]) childList(parent Handle) (first, last *Handle, n *int) {
	if parent.IsNil() {
		return &s.topFirst, &s.topLast, &s.ntop
	}
	sl := &s.slots[parent.index]
	return &sl.first, &sl.last, &sl.nkids
}

func (s *Store[T]) alloc(v T) Handle {
	var idx uint32
	if n := len(s.free); n > 0 {
		idx = s.free[n-1]
		s.free = s.free[:n-1]
	} else {
		s.slots = append(s.slots, slot[T]{})
		idx = uint32(len(s.slots) - 1)
	}
	sl := &s.slots[idx]
	if sl.gen == 0 {
		sl.gen = 1
	}
	sl.live = true
	sl.val = v
	s.count++
	return Handle{index: idx, gen: sl.gen}
}

func (s *Store[T]) release(idx uint32) {
	gen := s.slots[idx].gen + 1
	if gen == 0 {
		gen = 1
	}
	s.slots[idx] = slot[T]{gen: gen}
	s.free = append(s.free, idx)
	s.count--
}

// Insert adds a row under parent at child position index. A negative index or
// one past the child count appends. A Nil parent inserts at the top level.
// Inserting under an invalid non-Nil parent returns Nil.
func (s *Store[T]) Insert(parent Handle, index int, v T) Handle {
	if !parent.IsNil() && !s.Valid(parent) {
		return Nil
	}
	h := s.alloc(v)
	s.link(parent, h, index)
	return h
}

func (s *Store[T]) link(parent, h Handle, index int) {
	first, last, n := s.childList(parent)
	sl := &s.slots[h.index]
	sl.parent = parent

	if index < 0 || index >= *n {
		sl.prev = *last
		sl.next = Nil
		if last.IsNil() {
			*first = h
		} else {
			s.slots[last.index].next = h
		}
		*last = h
		*n++
		return
	}

	at := *first
	for i := 0; i < index; i++ {
		at = s.slots[at.index].next
	}
	before := s.slots[at.index].prev
	sl.next = at
	sl.prev = before
	s.slots[at.index].prev = h
	if before.IsNil() {
		*first = h
	} else {
		s.slots[before.index].next = h
	}
	*n++
}

func (s *Store[T]) unlink(h Handle) {
	sl := &s.slots[h.index]
	first, last, n := s.childList(sl.parent)
	if sl.prev.IsNil() {
		*first = sl.next
	} else {
		s.slots[sl.prev.index].next = sl.next
	}
	if sl.next.IsNil() {
		*last = sl.prev
	} else {
		s.slots[sl.next.index].prev = sl.prev
	}
	*n--
	sl.prev, sl.next = Nil, Nil
}

// Remove deletes h and its whole subtree. It returns the row that follows the
// subtree in natural order, or Nil when nothing follows.
func (s *Store[T]) Remove(h Handle) Handle {
	if !s.Valid(h) {
		return Nil
	}
	follow := s.NextSkip(h)
	s.unlink(h)

	stack := []Handle{h}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for c := s.slots[cur.index].first; !c.IsNil(); c = s.slots[c.index].next {
			stack = append(stack, c)
		}
		s.release(cur.index)
	}
	return follow
}

// Move repositions h among its siblings so that it ends up at index. An
// out-of-range index moves it last.
func (s *Store[T]) Move(h Handle, index int) {
	if !s.Valid(h) {
		return
	}
	parent := s.slots[h.index].parent
	s.unlink(h)
	s.link(parent, h, index)
}

// Parent returns the parent of h, or Nil for a top-level row.
func (s *Store[T]) Parent(h Handle) Handle {
	if sl := s.slot(h); sl != nil {
		return sl.parent
	}
	return Nil
}

// FirstChild returns the first child of h. A Nil h yields the first top-level row.
func (s *Store[T]) FirstChild(h Handle) Handle {
	if h.IsNil() {
		return s.topFirst
	}
	if sl := s.slot(h); sl != nil {
		return sl.first
	}
	return Nil
}

// LastChild returns the last child of h. A Nil h yields the last top-level row.
func (s *Store[T]) LastChild(h Handle) Handle {
	if h.IsNil() {
		return s.topLast
	}
	if sl := s.slot(h); sl != nil {
		return sl.last
	}
	return Nil
}

// NextSibling returns the sibling after h.
func (s *Store[T]) NextSibling(h Handle) Handle {
	if sl := s.slot(h); sl != nil {
		return sl.next
	}
	return Nil
}

// PrevSibling returns the sibling before h.
func (s *Store[T]) PrevSibling(h Handle) Handle {
	if sl := s.slot(h); sl != nil {
		return sl.prev
	}
	return Nil
}

// ChildCount returns the number of children of h. A Nil h counts top-level rows.
func (s *Store[T]) ChildCount(h Handle) int {
	if h.IsNil() {
		return s.ntop
	}
	if sl := s.slot(h); sl != nil {
		return sl.nkids
	}
	return 0
}

// Children returns the children of h in sibling order.
func (s *Store[T]) Children(h Handle) []Handle {
	n := s.ChildCount(h)
	if n == 0 {
		return nil
	}
	out := make([]Handle, 0, n)
	for c := s.FirstChild(h); !c.IsNil(); c = s.slots[c.index].next {
		out = append(out, c)
	}
	return out
}

// Top returns the top-level rows in sibling order.
func (s *Store[T]) Top() []Handle { return s.Children(Nil) }

// IndexInParent returns the position of h among its siblings, or -1.
func (s *Store[T]) IndexInParent(h Handle) int {
	if !s.Valid(h) {
		return -1
	}
	i := 0
	for c := s.slots[h.index].prev; !c.IsNil(); c = s.slots[c.index].prev {
		i++
	}
	return i
}

// Depth returns the number of ancestors of h: 0 for a top-level row.
func (s *Store[T]) Depth(h Handle) int {
	if !s.Valid(h) {
		return -1
	}
	d := 0
	for p := s.slots[h.index].parent; !p.IsNil(); p = s.slots[p.index].parent {
		d++
	}
	return d
}

// IsAncestor reports whether a is a strict ancestor of h.
func (s *Store[T]) IsAncestor(a, h Handle) bool {
	if !s.Valid(a) || !s.Valid(h) {
		return false
	}
	for p := s.slots[h.index].parent; !p.IsNil(); p = s.slots[p.index].parent {
		if p == a {
			return true
		}
	}
	return false
}

// TopOf returns the top-level ancestor of h (h itself for a top-level row).
func (s *Store[T]) TopOf(h Handle) Handle {
	if !s.Valid(h) {
		return Nil
	}
	for {
		p := s.slots[h.index].parent
		if p.IsNil() {
			return h
		}
		h = p
	}
}

// First returns the first row in natural order.
func (s *Store[T]) First() Handle { return s.topFirst }

// Last returns the last row in natural order: the deepest last descendant of
// the last top-level row.
func (s *Store[T]) Last() Handle {
	return s.deepestLast(s.topLast)
}

func (s *Store[T]) deepestLast(h Handle) Handle {
	for !h.IsNil() {
		l := s.slots[h.index].last
		if l.IsNil() {
			return h
		}
		h = l
	}
	return h
}

// Next returns the row after h in natural order: first child, else next
// sibling, else the next sibling of the nearest ancestor that has one.
func (s *Store[T]) Next(h Handle) Handle {
	sl := s.slot(h)
	if sl == nil {
		return Nil
	}
	if !sl.first.IsNil() {
		return sl.first
	}
	return s.NextSkip(h)
}

// NextSkip returns the row after the subtree of h in natural order.
func (s *Store[T]) NextSkip(h Handle) Handle {
	if !s.Valid(h) {
		return Nil
	}
	for cur := h; !cur.IsNil(); cur = s.slots[cur.index].parent {
		if n := s.slots[cur.index].next; !n.IsNil() {
			return n
		}
	}
	return Nil
}

// Prev returns the row before h in natural order, mirroring Next.
func (s *Store[T]) Prev(h Handle) Handle {
	sl := s.slot(h)
	if sl == nil {
		return Nil
	}
	if !sl.prev.IsNil() {
		return s.deepestLast(sl.prev)
	}
	return sl.parent
}

// Walk iterates rows in natural order starting at from (inclusive). A Nil
// from starts at the first row. The walk stops early if the row it was about
// to visit disappears.
func (s *Store[T]) Walk(from Handle) iter.Seq[Handle] {
	return func(yield func(Handle) bool) {
		h := from
		if h.IsNil() {
			h = s.topFirst
		}
		for s.Valid(h) {
			next := s.Next(h)
			if !yield(h) {
				return
			}
			// The yielded row may have gained children or been removed.
			if s.Valid(h) {
				next = s.Next(h)
			}
			h = next
		}
	}
}

// All iterates every row in natural order.
func (s *Store[T]) All() iter.Seq[Handle] { return s.Walk(Nil) }

// Subtree iterates h and its descendants in natural order.
func (s *Store[T]) Subtree(h Handle) iter.Seq[Handle] {
	return func(yield func(Handle) bool) {
		if !s.Valid(h) {
			return
		}
		end := s.NextSkip(h)
		for cur := h; s.Valid(cur) && cur != end; cur = s.Next(cur) {
			if !yield(cur) {
				return
			}
		}
	}
}

// Nth returns the row at natural-order position n, or Nil.
func (s *Store[T]) Nth(n int) Handle {
	if n < 0 || n >= s.count {
		return Nil
	}
	i := 0
	for h := s.topFirst; !h.IsNil(); h = s.Next(h) {
		if i == n {
			return h
		}
		i++
	}
	return Nil
}

// Ordinal returns the natural-order position of h, or -1.
func (s *Store[T]) Ordinal(h Handle) int {
	if !s.Valid(h) {
		return -1
	}
	i := 0
	for cur := s.topFirst; !cur.IsNil(); cur = s.Next(cur) {
		if cur == h {
			return i
		}
		i++
	}
	return -1
}

// AtPercent returns the row at fraction p (0..1) of the natural order.
// Values outside the range are clamped.
func (s *Store[T]) AtPercent(p float64) Handle {
	if s.count == 0 {
		return Nil
	}
	p = math.Max(0, math.Min(1, p))
	return s.Nth(int(math.Round(p * float64(s.count-1))))
}
