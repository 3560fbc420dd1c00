package nodeindex

import (
	"github.com/joshuapare/dualview/pkg/types"
	"github.com/joshuapare/dualview/view/rowstore"
)

// Parenter resolves row parents; *rowstore.Store satisfies it.
type Parenter interface {
	Parent(h rowstore.Handle) rowstore.Handle
}

type entry struct {
	node types.Node
	rows []rowstore.Handle
}

// Index is the node -> rows mapping of one view.
type Index struct {
	entries map[types.Key]*entry
	single  bool
	nrows   int
}

// New creates a set-valued index for tree views.
func New() *Index {
	return &Index{entries: make(map[types.Key]*entry)}
}

// NewSingle creates an index that allows one row per node (list views).
func NewSingle() *Index {
	idx := New()
	idx.single = true
	return idx
}

// Bind records that row shows n. It returns false when the binding is
// refused: a nil node, a row already bound to n, or a second row in single
// mode.
func (x *Index) Bind(n types.Node, row rowstore.Handle) bool {
	if n == nil || row.IsNil() {
		return false
	}
	k := n.Key()
	e, ok := x.entries[k]
	if !ok {
		if r, ok := n.(types.Retainer); ok {
			r.Retain()
		}
		x.entries[k] = &entry{node: n, rows: []rowstore.Handle{row}}
		x.nrows++
		return true
	}
	if x.single {
		return false
	}
	for _, r := range e.rows {
		if r == row {
			return false
		}
	}
	e.rows = append(e.rows, row)
	x.nrows++
	return true
}

// Unbind removes row from the set of k. It reports whether the set became
// empty, in which case the node was released and forgotten. Unbinding a row
// that is not in the set returns false and changes nothing.
func (x *Index) Unbind(k types.Key, row rowstore.Handle) (emptied bool) {
	e, ok := x.entries[k]
	if !ok {
		return false
	}
	i := -1
	for j, r := range e.rows {
		if r == row {
			i = j
			break
		}
	}
	if i < 0 {
		return false
	}
	e.rows = append(e.rows[:i], e.rows[i+1:]...)
	x.nrows--
	if len(e.rows) > 0 {
		return false
	}
	delete(x.entries, k)
	if r, ok := e.node.(types.Retainer); ok {
		r.Release()
	}
	return true
}

// Rows returns the rows showing k in bind order. The slice is shared; callers
// that mutate the view while iterating must copy it.
func (x *Index) Rows(k types.Key) []rowstore.Handle {
	if e, ok := x.entries[k]; ok {
		return e.rows
	}
	return nil
}

// Node returns the retained node for k.
func (x *Index) Node(k types.Key) (types.Node, bool) {
	if e, ok := x.entries[k]; ok {
		return e.node, true
	}
	return nil, false
}

// Has reports whether k has at least one row.
func (x *Index) Has(k types.Key) bool {
	_, ok := x.entries[k]
	return ok
}

// Contains reports whether row is bound to k.
func (x *Index) Contains(k types.Key, row rowstore.Handle) bool {
	for _, r := range x.Rows(k) {
		if r == row {
			return true
		}
	}
	return false
}

// Len returns the number of distinct nodes.
func (x *Index) Len() int { return len(x.entries) }

// RowCount returns the number of bindings.
func (x *Index) RowCount() int { return x.nrows }

// Each calls fn for every node and its rows until fn returns false. Map order.
func (x *Index) Each(fn func(n types.Node, rows []rowstore.Handle) bool) {
	for _, e := range x.entries {
		if !fn(e.node, e.rows) {
			return
		}
	}
}

// ChildRowUnder returns the row of k whose parent is parent.
func (x *Index) ChildRowUnder(parent rowstore.Handle, k types.Key, p Parenter) (rowstore.Handle, bool) {
	for _, r := range x.Rows(k) {
		if p.Parent(r) == parent {
			return r, true
		}
	}
	return rowstore.Nil, false
}
