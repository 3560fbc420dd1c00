package view

import (
	"context"

	"github.com/joshuapare/dualview/pkg/types"
	"github.com/joshuapare/dualview/view/pending"
	"github.com/joshuapare/dualview/view/rowstore"
)

// spawn registers a job for h and runs work off the loop. The continuation
// returned by work runs only if the (h, job) pair is still registered and h
// is still live; a Nil h is used for list listings. parent, when non-nil,
// cancels the job's context in addition to the view's.
func (v *View) spawn(h Row, kind pending.Kind, parent context.Context, work func(ctx context.Context) func()) pending.JobID {
	id := v.pending.Add(h, kind)
	if parent == nil {
		parent = v.ctx
	}
	v.runner.Go(func(ctx context.Context) func() {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		stop := context.AfterFunc(parent, cancel)
		defer stop()

		cont := work(ctx)
		return func() {
			if !v.pending.Take(h, id) {
				v.log.Debug("stale job dropped", "job", id, "kind", kind)
				return
			}
			if !h.IsNil() && !v.store.Valid(h) {
				return
			}
			cont()
		}
	})
	return id
}

// fetch lists the children of n for row h. done runs on the loop; it is
// called synchronously when no provider serves n, in which case the returned
// id is zero.
func (v *View) fetch(h Row, n types.Node, kind pending.Kind, parent context.Context, done func([]types.Node, error)) pending.JobID {
	p, err := v.providerFor(n)
	if err != nil {
		done(nil, err)
		return 0
	}
	mask := v.opts.Mask
	return v.spawn(h, kind, parent, func(ctx context.Context) func() {
		nodes, err := p.FetchChildren(ctx, n, mask)
		return func() { done(nodes, err) }
	})
}

// RequestExpand asks for the children of h. Materialized and pending rows
// only get their expanded flag set. Unknown and Never rows become Pending and
// are filled from another full row of the same node, from the companion
// list's listing, or from a provider fetch, in that order.
func (v *View) RequestExpand(h Row) {
	r := v.check(h, "expand")
	if r == nil || r.node == nil || !v.isTree() {
		return
	}
	r.expanded = true
	switch r.state {
	case types.ExpandUnknown, types.ExpandNever:
		v.beginExpand(h)
	}
}

func (v *View) beginExpand(h Row) {
	r := v.store.Get(h)
	n := r.node
	r.expanded = true
	if !n.Type().Has(types.TypeContainer) {
		v.setState(h, types.ExpandNone)
		return
	}
	v.setState(h, types.ExpandPending)

	if twin := v.fullTwin(h); !twin.IsNil() {
		v.log.Debug("expand cloned", "node", n.Key(), "from", twin)
		v.finishExpand(h, v.childNodes(twin))
		return
	}
	if nodes, ok := v.companionChildren(n); ok {
		v.log.Debug("expand from companion", "node", n.Key())
		v.finishExpand(h, nodes)
		return
	}

	id := v.fetch(h, n, pending.KindFetch, nil, func(nodes []types.Node, err error) {
		if err != nil {
			v.failExpand(h, err)
			return
		}
		v.finishExpand(h, nodes)
	})
	if id != 0 {
		v.armWatchdog(h, id)
	}
}

// fullTwin returns another row of the same node whose children are fully
// materialized.
func (v *View) fullTwin(h Row) Row {
	k := v.store.Get(h).node.Key()
	for _, o := range v.index.Rows(k) {
		if o != h && v.store.Get(o).state == types.ExpandFull {
			return o
		}
	}
	return rowstore.Nil
}

// companionChildren returns the companion list's resolved listing of n when
// it covers this view's type mask.
func (v *View) companionChildren(n types.Node) ([]types.Node, bool) {
	c := v.companion
	if c == nil || c.opts.Mask&v.opts.Mask != v.opts.Mask {
		return nil, false
	}
	return c.ResolvedChildren(n)
}

func (v *View) armWatchdog(h Row, id pending.JobID) {
	v.runner.After(v.opts.WatchdogDelay, func() {
		if !v.pending.Registered(id) {
			return
		}
		if r := v.store.Get(h); r != nil && r.state == types.ExpandPending {
			r.waiting = true
			v.log.Debug("expand still pending", "row", h)
		}
	})
}

func (v *View) finishExpand(h Row, nodes []types.Node) {
	reopen := v.reconcile(h, nodes)
	v.settle(h)
	v.reopen(reopen)
}

// settle sets a freshly reconciled row to Full, or None when nothing
// survived the filters.
func (v *View) settle(h Row) {
	if v.realChildCount(h) == 0 {
		v.setState(h, types.ExpandNone)
		return
	}
	v.setState(h, types.ExpandFull)
}

func (v *View) failExpand(h Row, err error) {
	r := v.store.Get(h)
	key := r.node.Key()
	if r.state == types.ExpandPending {
		r.expanded = false
		v.setState(h, types.ExpandUnknown)
	}
	v.report("expand", types.ErrKindFetchFailed, "expand "+key.String(), err)
}

// reconcile patches the children of parent to match nodes: rows for nodes
// still present are kept, new nodes get rows, rows for vanished nodes are
// removed with RemovePlainKeepFull. Child order follows nodes. It returns the
// new rows that came back with a sticky expanded flag. A Nil parent
// reconciles the top level of a list view.
func (v *View) reconcile(parent Row, nodes []types.Node) (reopen []Row) {
	if ph := v.placeholder(parent); !ph.IsNil() {
		v.removePlaceholder(ph)
	}

	before := v.store.Children(parent)
	keep := make(map[Row]bool, len(before))
	seen := make(map[types.Key]bool, len(nodes))
	order := make([]Row, 0, len(nodes))
	added := 0

	for _, n := range nodes {
		if !v.accepts(n) {
			continue
		}
		k := n.Key()
		if seen[k] {
			continue
		}
		seen[k] = true
		if c, ok := v.index.ChildRowUnder(parent, k, v.store); ok {
			keep[c] = true
			order = append(order, c)
			continue
		}
		c := v.insertRow(parent, -1, n)
		if c.IsNil() {
			continue
		}
		added++
		order = append(order, c)
		if v.store.Get(c).expanded {
			reopen = append(reopen, c)
		}
	}

	removed := 0
	for _, c := range before {
		if !keep[c] && v.store.Valid(c) {
			v.removeRow(c, types.RemovePlainKeepFull, false)
			removed++
		}
	}

	for i, c := range order {
		if v.store.IndexInParent(c) != i {
			v.store.Move(c, i)
		}
	}

	if added > 0 || removed > 0 {
		v.log.Debug("reconciled", "parent", parent, "added", added, "removed", removed)
	}
	return reopen
}

// Collapse clears the expanded flag of h. Outside minitree mode the
// children of a materialized row are dropped and the row returns to Never.
// A pending fetch is left running.
func (v *View) Collapse(h Row) {
	r := v.check(h, "collapse")
	if r == nil || r.node == nil || !v.isTree() {
		return
	}
	r.expanded = false
	if v.opts.Minitree || !r.state.Materialized() {
		return
	}
	if v.store.IsAncestor(h, v.selection) {
		v.setSelection(h)
	}
	v.dropChildren(h, types.RemovePlain)
	v.setState(h, types.ExpandNever)
}

func (v *View) dropChildren(h Row, mode types.RemoveMode) {
	for _, c := range v.store.Children(h) {
		v.removeRow(c, mode, false)
	}
}

// Refresh re-fetches a materialized row and reconciles its children.
func (v *View) Refresh(h Row) {
	r := v.check(h, "refresh")
	if r == nil || r.node == nil || !v.isTree() {
		return
	}
	if !r.state.Materialized() || v.pending.HasKind(h, pending.KindRefresh) {
		return
	}
	v.refetch(h)
}

func (v *View) refetch(h Row) {
	n := v.store.Get(h).node
	v.fetch(h, n, pending.KindRefresh, nil, func(nodes []types.Node, err error) {
		if err != nil {
			v.report("refresh", types.ErrKindFetchFailed, "refresh "+n.Key().String(), err)
			return
		}
		if !v.store.Get(h).state.Materialized() {
			return
		}
		v.finishExpand(h, nodes)
	})
}

// SetMinitree switches minitree mode. Turning it off refetches every
// expanded Partial row to Full and returns the others to Never.
func (v *View) SetMinitree(enabled bool) {
	was := v.opts.Minitree
	v.opts.Minitree = enabled
	if enabled || !was || !v.isTree() {
		return
	}

	var partial []Row
	for h := range v.store.All() {
		if r := v.store.Get(h); r.node != nil && r.state == types.ExpandPartial {
			partial = append(partial, h)
		}
	}
	for _, h := range partial {
		r := v.store.Get(h)
		if r == nil || r.state != types.ExpandPartial {
			continue
		}
		if r.expanded {
			v.refetch(h)
			continue
		}
		if v.store.IsAncestor(h, v.selection) {
			v.setSelection(h)
		}
		v.dropChildren(h, types.RemovePlain)
		v.setState(h, types.ExpandNever)
	}
}

// ProbeHasChildren asks the provider whether an Unknown row has children
// and settles it to Never or None.
func (v *View) ProbeHasChildren(h Row) {
	r := v.check(h, "probe")
	if r == nil || r.node == nil || r.state != types.ExpandUnknown || !v.isTree() {
		return
	}
	if v.pending.HasKind(h, pending.KindProbe) {
		return
	}
	n := r.node
	p, err := v.providerFor(n)
	if err != nil {
		v.report("probe", types.ErrKindProbeFailed, "probe "+n.Key().String(), err)
		return
	}
	mask := v.opts.Mask
	v.spawn(h, pending.KindProbe, nil, func(ctx context.Context) func() {
		has, err := p.HasChildren(ctx, n, mask)
		return func() {
			if err != nil {
				v.report("probe", types.ErrKindProbeFailed, "probe "+n.Key().String(), err)
				return
			}
			if v.store.Get(h).state != types.ExpandUnknown {
				return
			}
			if has {
				v.setState(h, types.ExpandNever)
			} else {
				v.setState(h, types.ExpandNone)
			}
		}
	})
}

// AddRoot adds a root row for n at index (out of range appends) and returns
// it; an existing root for n is returned as is. Container roots start
// Unknown and are probed unless a retained record reopens them.
func (v *View) AddRoot(n types.Node, index int) Row {
	return v.addRoot(n, index, true)
}

func (v *View) addRoot(n types.Node, index int, probe bool) Row {
	if n == nil || !v.isTree() {
		return rowstore.Nil
	}
	if h, ok := v.index.ChildRowUnder(rowstore.Nil, n.Key(), v.store); ok {
		return h
	}
	h := v.insertRow(rowstore.Nil, index, n)
	if h.IsNil() {
		return h
	}
	v.roots.Add(h, index)
	v.log.Debug("root added", "node", n.Key(), "row", h)

	r := v.store.Get(h)
	switch {
	case r.expanded && r.state.HasPlaceholder():
		v.beginExpand(h)
	case probe && r.state == types.ExpandUnknown:
		v.ProbeHasChildren(h)
	}
	return h
}

// MoveRoot reorders a root.
func (v *View) MoveRoot(h Row, index int) {
	if v.check(h, "move root") == nil {
		return
	}
	if !v.roots.Move(h, index) {
		debugAssert(false, "move root: %v is not a root", h)
		return
	}
	v.store.Move(h, v.roots.Index(h))
}

// Forget removes h and its subtree, keeping retained overrides.
func (v *View) Forget(h Row) {
	v.RemoveRow(h, types.RemovePlain)
}
