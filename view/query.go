package view

import (
	"iter"

	"github.com/joshuapare/dualview/pkg/types"
	"github.com/joshuapare/dualview/view/rowstore"
)

// PlaceholderLabel is the label of placeholder rows.
const PlaceholderLabel = "..."

// WaitingLabel replaces a row's label once its fetch outlived the watchdog.
const WaitingLabel = "please wait..."

// Rows iterates every row, placeholders included, in natural order.
func (v *View) Rows() iter.Seq[Row] { return v.store.All() }

// Walk iterates rows in natural order starting at from.
func (v *View) Walk(from Row) iter.Seq[Row] { return v.store.Walk(from) }

// Next returns the row after h in natural order.
func (v *View) Next(h Row) Row { return v.store.Next(h) }

// Prev returns the row before h in natural order.
func (v *View) Prev(h Row) Row { return v.store.Prev(h) }

// First returns the first row.
func (v *View) First() Row { return v.store.First() }

// Last returns the last row in natural order.
func (v *View) Last() Row { return v.store.Last() }

// Count returns the number of rows, placeholders included.
func (v *View) Count() int { return v.store.Count() }

// CountAtLeast reports whether the view holds at least n rows.
func (v *View) CountAtLeast(n int) bool { return v.store.CountAtLeast(n) }

// AtPercent returns the row at fraction p of the natural order.
func (v *View) AtPercent(p float64) Row { return v.store.AtPercent(p) }

// Valid reports whether h is a live row of this view.
func (v *View) Valid(h Row) bool { return v.store.Valid(h) }

// IsPlaceholder reports whether h is a placeholder row.
func (v *View) IsPlaceholder(h Row) bool {
	r := v.store.Get(h)
	return r != nil && r.node == nil
}

// Node returns the node shown by h; nil for placeholders.
func (v *View) Node(h Row) types.Node {
	if r := v.check(h, "node"); r != nil {
		return r.node
	}
	return nil
}

// ExpandState returns the expansion state of h.
func (v *View) ExpandState(h Row) types.ExpandState {
	if r := v.check(h, "expand state"); r != nil {
		return r.state
	}
	return types.ExpandUnknown
}

// IsExpanded reports the sticky expanded flag of h.
func (v *View) IsExpanded(h Row) bool {
	if r := v.check(h, "is expanded"); r != nil {
		return r.expanded
	}
	return false
}

// IsWaiting reports whether the fetch of h outlived the watchdog delay.
func (v *View) IsWaiting(h Row) bool {
	if r := v.check(h, "is waiting"); r != nil {
		return r.waiting
	}
	return false
}

// IsAccessible reports whether every ancestor of h is expanded, i.e. the row
// would be on screen without scrolling limits.
func (v *View) IsAccessible(h Row) bool {
	if !v.store.Valid(h) {
		return false
	}
	for p := v.store.Parent(h); !p.IsNil(); p = v.store.Parent(p) {
		if !v.store.Get(p).expanded {
			return false
		}
	}
	return true
}

// Visuals returns the overrides of h.
func (v *View) Visuals(h Row) types.Visuals {
	if r := v.check(h, "visuals"); r != nil {
		return r.visuals
	}
	return types.Visuals{}
}

// SetVisuals replaces the overrides of h.
func (v *View) SetVisuals(h Row, vis types.Visuals) {
	if r := v.check(h, "set visuals"); r != nil && r.node != nil {
		r.visuals = vis
	}
}

// Label is the display name of h: the name override, the node name, or the
// placeholder label (the waiting label when the parent's fetch is slow).
func (v *View) Label(h Row) string {
	r := v.store.Get(h)
	switch {
	case r == nil:
		return ""
	case r.node == nil:
		return PlaceholderLabel
	case r.visuals.Name != "":
		return r.visuals.Name
	case r.waiting:
		return r.node.Name() + " (" + WaitingLabel + ")"
	default:
		return r.node.Name()
	}
}

// Depth returns the number of ancestors of h.
func (v *View) Depth(h Row) int { return v.store.Depth(h) }

// Parent returns the parent of h.
func (v *View) Parent(h Row) Row { return v.store.Parent(h) }

// Children returns the children of h; Nil gives the top level.
func (v *View) Children(h Row) []Row { return v.store.Children(h) }

// Roots returns the roots in order.
func (v *View) Roots() []Row { return v.roots.All() }

// RootOf returns the root above h.
func (v *View) RootOf(h Row) Row { return v.store.TopOf(h) }

// RowsFor returns the rows showing n, in creation order.
func (v *View) RowsFor(n types.Node) []Row {
	if n == nil {
		return nil
	}
	return append([]Row(nil), v.index.Rows(n.Key())...)
}

// Pending returns the number of outstanding jobs.
func (v *View) Pending() int { return v.pending.Len() }

// Minitree reports whether minitree mode is on.
func (v *View) Minitree() bool { return v.opts.Minitree }

// ShowHidden reports whether hidden nodes are shown.
func (v *View) ShowHidden() bool { return v.opts.ShowHidden }

// SetShowHidden toggles the hidden filter. Hiding removes hidden rows at
// once, and a tree row left without children becomes Never. Showing
// refetches full tree rows and asks empty containers again whether they have
// children. A list re-filters its listing.
func (v *View) SetShowHidden(show bool) {
	if show == v.opts.ShowHidden {
		return
	}
	v.opts.ShowHidden = show

	if !v.isTree() {
		if v.resolved {
			v.reconcile(rowstore.Nil, v.known)
		}
		return
	}

	if !show {
		var hidden []Row
		for h := range v.store.All() {
			if r := v.store.Get(h); r.node != nil && types.IsHidden(r.node) {
				hidden = append(hidden, h)
			}
		}
		var parents []Row
		for _, h := range hidden {
			if v.store.Valid(h) && !v.roots.Contains(h) {
				parents = append(parents, v.store.Parent(h))
				v.removeRow(h, types.RemovePlainKeepFull, true)
			}
		}
		// A branch emptied by the filter still has children; it must stay
		// expandable for when they are shown again.
		for _, p := range parents {
			if r := v.store.Get(p); r != nil && r.state == types.ExpandNone && v.realChildCount(p) == 0 {
				r.expanded = false
				v.setState(p, types.ExpandNever)
			}
		}
		return
	}

	var full, empty []Row
	for h := range v.store.All() {
		r := v.store.Get(h)
		switch {
		case r.node == nil:
		case r.state == types.ExpandFull:
			full = append(full, h)
		case r.state == types.ExpandNone && r.node.Type().Has(types.TypeContainer):
			empty = append(empty, h)
		}
	}
	for _, h := range full {
		if v.store.Valid(h) {
			v.Refresh(h)
		}
	}
	// Containers found empty may have held only hidden children.
	for _, h := range empty {
		if r := v.store.Get(h); r != nil && r.state == types.ExpandNone {
			v.setState(h, types.ExpandUnknown)
			v.ProbeHasChildren(h)
		}
	}
}
