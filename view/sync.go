package view

import (
	"context"

	"github.com/joshuapare/dualview/pkg/provider"
	"github.com/joshuapare/dualview/pkg/types"
	"github.com/joshuapare/dualview/view/pending"
	"github.com/joshuapare/dualview/view/rowstore"
)

// syncState is the one resolution a tree may have in flight.
type syncState struct {
	token  uint64
	target types.Node
	root   Row
	ctx    context.Context
	cancel context.CancelFunc
	jobs   []pending.JobID
}

// SyncPolicy returns the current policy.
func (v *View) SyncPolicy() types.SyncPolicy { return v.opts.SyncPolicy }

// SetSyncPolicy changes the policy for future location changes.
func (v *View) SetSyncPolicy(p types.SyncPolicy) { v.opts.SyncPolicy = p }

// Syncing reports whether a resolution is in flight.
func (v *View) Syncing() bool { return v.sync.target != nil }

// Follow resolves the tree's selection to n according to the sync policy.
// A resolution still in flight is abandoned first: its jobs are forgotten
// and their context cancelled. Follow is what a companion list's location
// changes call.
func (v *View) Follow(n types.Node) {
	if !v.isTree() || v.closed {
		return
	}
	v.abandonSync()
	if n == nil || v.opts.SyncPolicy == types.SyncNone {
		return
	}

	v.sync.token++
	v.sync.target = n
	v.sync.root = v.store.TopOf(v.selection)
	v.sync.ctx, v.sync.cancel = context.WithCancel(v.ctx)
	v.log.Debug("sync started", "target", n.Key(), "policy", v.opts.SyncPolicy)

	v.resolve(v.sync.token, n)
}

// abandonSync forgets the live resolution's jobs and ends it.
func (v *View) abandonSync() {
	for _, id := range v.sync.jobs {
		v.pending.Forget(id)
	}
	v.endSync()
}

func (v *View) endSync() {
	if v.sync.cancel != nil {
		v.sync.cancel()
	}
	v.sync = syncState{token: v.sync.token}
}

// current reports whether the resolution identified by tok and target is
// still the live one.
func (v *View) current(tok uint64, target types.Node) bool {
	return v.sync.token == tok && v.sync.target != nil && types.SameNode(v.sync.target, target)
}

func (v *View) resolve(tok uint64, n types.Node) {
	policy := v.opts.SyncPolicy
	rows := v.index.Rows(n.Key())

	if policy == types.SyncExistingAccessible {
		acc := v.filter(rows, v.IsAccessible)
		if len(acc) == 0 {
			v.setSelection(rowstore.Nil)
		} else {
			v.setSelection(v.best(acc, v.sync.root))
		}
		v.endSync()
		return
	}

	if len(rows) > 0 {
		h := v.best(rows, v.sync.root)
		v.reveal(h)
		v.setSelection(h)
		v.endSync()
		return
	}
	if policy == types.SyncExistingExpandable {
		v.setSelection(rowstore.Nil)
		v.endSync()
		return
	}

	p, err := v.providerFor(n)
	if err != nil {
		v.report("sync", types.ErrKindNotFound, "sync "+n.Key().String(), err)
		v.endSync()
		return
	}
	path := provider.Path(p, n)
	for i := len(path) - 2; i >= 0; i-- {
		if anchors := v.index.Rows(path[i].Key()); len(anchors) > 0 {
			v.descend(tok, n, v.best(anchors, v.sync.root), path[i+1:])
			return
		}
	}

	if policy == types.SyncFull {
		root := v.addRoot(path[0], -1, len(path) == 1)
		if root.IsNil() {
			v.endSync()
			return
		}
		v.descend(tok, n, root, path[1:])
		return
	}

	v.setSelection(rowstore.Nil)
	v.endSync()
}

// descend materializes rest below at, one level per provider listing, then
// selects the last row.
func (v *View) descend(tok uint64, target types.Node, at Row, rest []types.Node) {
	for len(rest) > 0 {
		next := rest[0]
		if c, ok := v.index.ChildRowUnder(at, next.Key(), v.store); ok {
			v.store.Get(at).expanded = true
			at, rest = c, rest[1:]
			continue
		}

		anchor, remaining := at, rest[1:]
		id := v.fetch(anchor, v.store.Get(anchor).node, pending.KindSync, v.sync.ctx, func(nodes []types.Node, err error) {
			if !v.current(tok, target) {
				return
			}
			if err != nil {
				v.report("sync", types.ErrKindFetchFailed, "sync "+target.Key().String(), err)
				v.endSync()
				return
			}
			child, ok := v.materialize(anchor, next, nodes)
			if !ok {
				v.report("sync", types.ErrKindNotFound, "sync: "+next.Key().String()+" not listed", nil)
				v.endSync()
				return
			}
			v.descend(tok, target, child, remaining)
		})
		if id != 0 {
			v.sync.jobs = append(v.sync.jobs, id)
		}
		return
	}

	v.reveal(at)
	v.setSelection(at)
	v.log.Debug("sync resolved", "target", target.Key(), "row", at)
	v.endSync()
}

// materialize makes a row for want under at from a fresh listing. In minitree
// mode only that row is inserted and at becomes Partial; otherwise at is
// fully reconciled.
func (v *View) materialize(at Row, want types.Node, nodes []types.Node) (Row, bool) {
	var found types.Node
	for _, n := range nodes {
		if n.Key() == want.Key() {
			found = n
			break
		}
	}
	if found == nil || !v.accepts(found) {
		return rowstore.Nil, false
	}

	if !v.opts.Minitree {
		reopen := v.reconcile(at, nodes)
		v.settle(at)
		v.store.Get(at).expanded = true
		v.reopen(reopen)
		return v.index.ChildRowUnder(at, found.Key(), v.store)
	}

	if c, ok := v.index.ChildRowUnder(at, found.Key(), v.store); ok {
		v.store.Get(at).expanded = true
		return c, true
	}
	if ph := v.placeholder(at); !ph.IsNil() {
		v.removePlaceholder(ph)
	}
	c := v.insertRow(at, -1, found)
	r := v.store.Get(at)
	r.expanded = true
	r.waiting = false
	if r.state != types.ExpandFull {
		r.state = types.ExpandPartial
	}
	if c.IsNil() {
		return c, false
	}
	v.reopen([]Row{c})
	return c, true
}

// reveal sets the expanded flag on every ancestor of h.
func (v *View) reveal(h Row) {
	for p := v.store.Parent(h); !p.IsNil(); p = v.store.Parent(p) {
		v.store.Get(p).expanded = true
	}
}

func (v *View) filter(rows []Row, keep func(Row) bool) []Row {
	var out []Row
	for _, h := range rows {
		if keep(h) {
			out = append(out, h)
		}
	}
	return out
}

// best applies the tie-break among candidate rows: rows under currentRoot,
// then accessible rows, then the row whose root comes first in root order.
func (v *View) best(cands []Row, currentRoot Row) Row {
	pool := cands
	if v.store.Valid(currentRoot) {
		if under := v.filter(pool, func(h Row) bool { return v.store.TopOf(h) == currentRoot }); len(under) > 0 {
			pool = under
		}
	}
	if vis := v.filter(pool, v.IsAccessible); len(vis) > 0 {
		pool = vis
	}
	best, bi := pool[0], v.roots.Index(v.store.TopOf(pool[0]))
	for _, h := range pool[1:] {
		if i := v.roots.Index(v.store.TopOf(h)); i < bi {
			best, bi = h, i
		}
	}
	return best
}

// BestRowFor resolves n to a row without fetching. It returns the best
// existing row of n. When nothing on n's path has a row and allowNewRoot is
// set, the top of the path becomes a new root, which is returned only if it
// is n itself; reaching a deeper n from there takes a sync.
func (v *View) BestRowFor(n types.Node, allowNewRoot bool) Row {
	if n == nil {
		return rowstore.Nil
	}
	if rows := v.index.Rows(n.Key()); len(rows) > 0 {
		return v.best(rows, v.store.TopOf(v.selection))
	}
	if !allowNewRoot || !v.isTree() {
		return rowstore.Nil
	}
	p, err := v.providerFor(n)
	if err != nil {
		return rowstore.Nil
	}
	path := provider.Path(p, n)
	for _, a := range path[:len(path)-1] {
		if len(v.index.Rows(a.Key())) > 0 {
			return rowstore.Nil
		}
	}
	root := v.AddRoot(path[0], -1)
	if len(path) > 1 {
		return rowstore.Nil
	}
	return root
}
