package view

import (
	"errors"
	"fmt"

	"github.com/joshuapare/dualview/pkg/types"
	"github.com/joshuapare/dualview/view/rowstore"
)

// CheckInvariants verifies the bookkeeping of the view and returns every
// violation found, each as an ErrKindInconsistent error:
//
//   - every row with a node is in the node index, and every indexed row
//     shows that node;
//   - a tree row has a placeholder child iff it is Unknown or Never, and a
//     placeholder is childless;
//   - no two siblings show the same node;
//   - the root list matches the top level of the store;
//   - pending jobs only reference live rows.
func (v *View) CheckInvariants() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, types.Wrap(types.ErrKindInconsistent, fmt.Sprintf(format, args...), nil))
	}

	for h := range v.store.All() {
		r := v.store.Get(h)
		if r.node == nil {
			if v.store.ChildCount(h) > 0 {
				fail("placeholder %v has children", h)
			}
			if v.store.Parent(h).IsNil() {
				fail("placeholder %v at top level", h)
			}
			continue
		}
		if !v.index.Contains(r.node.Key(), h) {
			fail("row %v of %s missing from index", h, r.node.Key())
		}

		seen := make(map[types.Key]bool)
		placeholders, real := 0, 0
		for _, c := range v.store.Children(h) {
			cr := v.store.Get(c)
			if cr.node == nil {
				placeholders++
				continue
			}
			real++
			if seen[cr.node.Key()] {
				fail("row %v has duplicate children for %s", h, cr.node.Key())
			}
			seen[cr.node.Key()] = true
		}

		if !v.isTree() {
			if placeholders+real > 0 {
				fail("list row %v has children", h)
			}
			continue
		}
		want := r.state.HasPlaceholder()
		switch {
		case want && (placeholders != 1 || real != 0):
			fail("row %v in state %s has %d placeholders and %d children", h, r.state, placeholders, real)
		case !want && placeholders != 0:
			fail("row %v in state %s has a placeholder", h, r.state)
		case (r.state == types.ExpandNone || r.state == types.ExpandPending) && real != 0:
			fail("row %v in state %s has children", h, r.state)
		}
	}

	topSeen := make(map[types.Key]bool)
	for _, h := range v.store.Top() {
		if r := v.store.Get(h); r.node != nil {
			if topSeen[r.node.Key()] {
				fail("top level shows %s twice", r.node.Key())
			}
			topSeen[r.node.Key()] = true
		}
	}

	v.index.Each(func(n types.Node, rows []rowstore.Handle) bool {
		for _, h := range rows {
			r := v.store.Get(h)
			if r == nil {
				fail("index holds dead row %v for %s", h, n.Key())
				continue
			}
			if r.node == nil || r.node.Key() != n.Key() {
				fail("index maps %s to row %v showing %s", n.Key(), h, keyOf(r.node))
			}
		}
		return true
	})

	if v.isTree() {
		top := v.store.Top()
		all := v.roots.All()
		if len(top) != len(all) {
			fail("root list has %d rows, store top level %d", len(all), len(top))
		} else {
			for i := range top {
				if top[i] != all[i] {
					fail("root %d is %v in root list but %v in store", i, all[i], top[i])
				}
			}
		}
	}

	for _, e := range v.pending.Entries() {
		if !e.Row.IsNil() && !v.store.Valid(e.Row) {
			fail("pending %s job %d references dead row %v", e.Kind, e.ID, e.Row)
		}
	}

	if len(errs) > 0 {
		v.reporter.Report("invariants", errors.Join(errs...))
	}
	return errors.Join(errs...)
}
