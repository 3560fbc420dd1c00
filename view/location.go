package view

import (
	"github.com/joshuapare/dualview/pkg/provider"
	"github.com/joshuapare/dualview/pkg/types"
	"github.com/joshuapare/dualview/view/pending"
	"github.com/joshuapare/dualview/view/rowstore"
)

// Selection returns the selected row, or Nil.
func (v *View) Selection() Row { return v.selection }

// Select selects h. Nil clears the selection.
func (v *View) Select(h Row) {
	if !h.IsNil() && v.check(h, "select") == nil {
		return
	}
	v.setSelection(h)
}

// Location is the list's current location, or the selected node of a tree.
func (v *View) Location() types.Node {
	if !v.isTree() {
		return v.location
	}
	if r := v.store.Get(v.selection); r != nil {
		return r.node
	}
	return nil
}

// SetLocation points a list view at n: its rows are replaced by the children
// of n once the listing arrives. Observers are notified immediately. Setting
// the current location again refreshes it.
func (v *View) SetLocation(n types.Node) {
	if v.isTree() {
		debugAssert(false, "set location on a tree view")
		return
	}
	if n != nil && types.SameNode(v.location, n) {
		v.RefreshLocation()
		return
	}

	v.abandonListing()
	v.setSelection(rowstore.Nil)
	for _, h := range v.store.Top() {
		v.removeRow(h, types.RemovePlain, false)
	}
	v.location = n
	v.trail = nil
	if n != nil {
		v.trail = v.ancestors(n)
	}
	v.known = nil
	v.resolved = false
	v.log.Debug("location changed", "location", keyOf(n))

	v.locationObs.notify(n)
	if n != nil {
		v.list(n)
	}
}

// RefreshLocation re-lists the current location.
func (v *View) RefreshLocation() {
	if v.isTree() || v.location == nil {
		return
	}
	v.abandonListing()
	v.list(v.location)
}

func (v *View) abandonListing() {
	if v.listJob != 0 {
		v.pending.Forget(v.listJob)
		v.listJob = 0
	}
}

func (v *View) list(n types.Node) {
	var id pending.JobID
	id = v.fetch(rowstore.Nil, n, pending.KindList, nil, func(nodes []types.Node, err error) {
		if v.listJob == id {
			v.listJob = 0
		}
		if !types.SameNode(v.location, n) {
			return
		}
		if err != nil {
			v.report("location", types.ErrKindFetchFailed, "list "+n.Key().String(), err)
			return
		}
		v.known = nodes
		v.resolved = true
		v.reconcile(rowstore.Nil, nodes)
	})
	v.listJob = id
}

// ResolvedChildren returns the unfiltered listing of n if n is the list's
// current location and its listing has arrived.
func (v *View) ResolvedChildren(n types.Node) ([]types.Node, bool) {
	if v.isTree() || !v.resolved || !types.SameNode(v.location, n) {
		return nil, false
	}
	return append([]types.Node(nil), v.known...), true
}

// Resolved reports whether the current location's listing has arrived.
func (v *View) Resolved() bool { return v.resolved }

// locationGone moves a list whose location (or an ancestor of it) was
// deleted to the nearest ancestor above the deleted node. Without one the
// location is cleared and the failure reported.
func (v *View) locationGone(deleted types.Node) {
	i := len(v.trail)
	for j, a := range v.trail {
		if types.SameNode(a, deleted) {
			i = j
			break
		}
	}
	if i > 0 {
		up := v.trail[i-1]
		v.log.Info("location deleted, moving up", "deleted", deleted.Key(), "to", up.Key())
		v.SetLocation(up)
		return
	}
	v.report("location", types.ErrKindInconsistent, "node-deletion fallback: no ancestor of "+deleted.Key().String(), nil)
	v.SetLocation(nil)
}

// locationWithin reports whether the list location is n or lies below it.
func (v *View) locationWithin(n types.Node) bool {
	if v.location == nil {
		return false
	}
	if types.SameNode(v.location, n) {
		return true
	}
	for _, a := range v.trail {
		if types.SameNode(a, n) {
			return true
		}
	}
	return false
}

// ancestors returns the ancestors of n, outermost first. Flat providers
// have none.
func (v *View) ancestors(n types.Node) []types.Node {
	p, err := v.providerFor(n)
	if err != nil || !p.Capabilities().Has(provider.CapHierarchical) {
		return nil
	}
	path := provider.Path(p, n)
	return path[:len(path)-1]
}

// SetCompanion makes v follow list's location. Nil detaches.
func (v *View) SetCompanion(list *View) {
	if v.unfollow != nil {
		v.unfollow()
		v.unfollow = nil
	}
	v.companion = list
	if list == nil {
		return
	}
	debugAssert(!list.isTree(), "companion must be a list view")
	v.unfollow = list.OnLocationChange(v.Follow)
}

// Companion returns the list this tree follows.
func (v *View) Companion() *View { return v.companion }

func keyOf(n types.Node) string {
	if n == nil {
		return ""
	}
	return n.Key().String()
}
