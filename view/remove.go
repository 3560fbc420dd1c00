package view

import (
	"slices"

	"github.com/joshuapare/dualview/pkg/types"
	"github.com/joshuapare/dualview/view/pending"
	"github.com/joshuapare/dualview/view/rowstore"
)

// RemoveRow destroys h and its subtree.
//
// A root is detached from the root list first. Descendants are released
// before their ancestors; when h is a root they are released as
// RemoveNodeDeleted so the branch leaves no retained overrides. Each row's
// pending jobs are dropped before it is unbound, which invalidates queued
// continuations. Afterwards the parent's state is recomputed and a selection
// inside the subtree moves to the next row, else the previous row, else the
// parent.
func (v *View) RemoveRow(h Row, mode types.RemoveMode) {
	if v.check(h, "remove") == nil {
		return
	}
	v.removeRow(h, mode, true)
}

func (v *View) removeRow(h Row, mode types.RemoveMode, recompute bool) {
	r := v.store.Get(h)
	if r == nil {
		return
	}
	if r.node == nil {
		v.removePlaceholder(h)
		return
	}

	parent := v.store.Parent(h)
	rootKey := v.rootKey(h)
	childMode := mode
	if v.roots.Remove(h) {
		childMode = types.RemoveNodeDeleted
	}

	moveSel := v.selection == h || v.store.IsAncestor(h, v.selection)
	var pred Row
	if moveSel {
		pred = v.realPrev(h)
	}

	sub := slices.Collect(v.store.Subtree(h))
	for i := len(sub) - 1; i > 0; i-- {
		v.release(sub[i], childMode, rootKey)
	}
	v.release(h, mode, rootKey)
	follow := v.store.Remove(h)

	v.log.Debug("row removed", "row", h, "mode", mode, "rows", len(sub))

	if recompute && !parent.IsNil() {
		v.afterChildRemoved(parent, mode)
	}
	if moveSel {
		switch {
		case v.isReal(follow):
			v.setSelection(follow)
		case v.isReal(pred):
			v.setSelection(pred)
		case v.store.Valid(parent):
			v.setSelection(parent)
		default:
			v.setSelection(rowstore.Nil)
		}
	}
}

// release drops the bookkeeping of one row ahead of its physical removal.
func (v *View) release(h Row, mode types.RemoveMode, rootKey types.Key) {
	if v.pending.HasKind(h, pending.KindSync) {
		v.log.Debug("sync anchor removed", "row", h)
		v.abandonSync()
	}
	v.pending.DropRow(h)
	r := v.store.Get(h)
	if r.node == nil {
		return
	}
	k := r.node.Key()
	if !v.index.Contains(k, h) {
		v.inconsistent("remove", "row %v of %s missing from node index", h, k)
	} else {
		v.index.Unbind(k, h)
	}

	rk := retainKey{root: rootKey, node: k}
	switch {
	case mode == types.RemoveNodeDeleted:
		delete(v.retained, rk)
	case r.expanded || !r.visuals.IsZero():
		v.retained[rk] = Retained{Visuals: r.visuals, Expanded: r.expanded}
	}
}

// afterChildRemoved recomputes the parent's state after a child left.
func (v *View) afterChildRemoved(parent Row, mode types.RemoveMode) {
	pr := v.store.Get(parent)
	if pr == nil || pr.node == nil {
		return
	}
	if v.realChildCount(parent) == 0 {
		if pr.state == types.ExpandPending {
			return
		}
		if mode == types.RemovePlain {
			v.setState(parent, types.ExpandUnknown)
		} else {
			v.setState(parent, types.ExpandNone)
		}
		return
	}
	if mode == types.RemovePlain && v.opts.Minitree && pr.state == types.ExpandFull {
		pr.state = types.ExpandPartial
	}
}

// realPrev returns the previous row in natural order that is not a
// placeholder.
func (v *View) realPrev(h Row) Row {
	p := v.store.Prev(h)
	for !p.IsNil() && !v.isReal(p) {
		p = v.store.Prev(p)
	}
	return p
}
