package view

import (
	"slices"

	"github.com/joshuapare/dualview/pkg/types"
	"github.com/joshuapare/dualview/view/rowstore"
)

// HandleEvent applies a provider change notification. It must run on the
// loop goroutine; watchers post their events there.
func (v *View) HandleEvent(ev types.Event) {
	if v.closed {
		return
	}
	v.log.Debug("provider event", "kind", ev.Kind, "node", keyOf(ev.Node), "parent", keyOf(ev.Parent))
	switch ev.Kind {
	case types.EventUpdated:
		v.onUpdated(ev)
	case types.EventDeleted:
		v.onDeleted(ev.Node)
	case types.EventRemovedFrom:
		v.onRemovedFrom(ev.Node, ev.Parent)
	case types.EventNewChild:
		v.onNewChild(ev.Parent, ev.Node)
	case types.EventChildrenReplaced:
		v.onChildrenReplaced(ev.Parent, ev.Mask, ev.Children)
	default:
		v.inconsistent("event", "unknown event kind %v", ev.Kind)
	}
}

func (v *View) onUpdated(ev types.Event) {
	if ev.Node == nil {
		return
	}
	if v.index.Has(ev.Node.Key()) || types.SameNode(v.location, ev.Node) {
		v.updateObs.notify(Update{Node: ev.Node, Property: ev.Property})
	}
}

func (v *View) onDeleted(n types.Node) {
	if n == nil {
		return
	}
	for _, h := range slices.Clone(v.index.Rows(n.Key())) {
		v.removeRow(h, types.RemoveNodeDeleted, true)
	}
	for k := range v.retained {
		if k.node == n.Key() {
			delete(v.retained, k)
		}
	}
	if !v.isTree() {
		v.known = slices.DeleteFunc(v.known, func(c types.Node) bool { return types.SameNode(c, n) })
		if v.locationWithin(n) {
			v.locationGone(n)
		}
	}
}

func (v *View) onRemovedFrom(n, parent types.Node) {
	if n == nil || parent == nil {
		return
	}
	for _, h := range slices.Clone(v.index.Rows(n.Key())) {
		if p := v.store.Get(v.store.Parent(h)); p != nil && types.SameNode(p.node, parent) {
			v.removeRow(h, types.RemovePlainKeepFull, true)
		}
	}
	if !v.isTree() && types.SameNode(v.location, parent) {
		v.known = slices.DeleteFunc(v.known, func(c types.Node) bool { return types.SameNode(c, n) })
		for _, h := range slices.Clone(v.index.Rows(n.Key())) {
			v.removeRow(h, types.RemovePlainKeepFull, true)
		}
	}
}

func (v *View) onNewChild(parent, child types.Node) {
	if parent == nil || child == nil {
		return
	}
	if !v.isTree() {
		if !types.SameNode(v.location, parent) || !v.resolved {
			return
		}
		if !slices.ContainsFunc(v.known, func(c types.Node) bool { return types.SameNode(c, child) }) {
			v.known = append(v.known, child)
		}
		if v.accepts(child) && !v.index.Has(child.Key()) {
			v.insertRow(rowstore.Nil, -1, child)
		}
		return
	}
	if !v.accepts(child) {
		return
	}
	for _, h := range slices.Clone(v.index.Rows(parent.Key())) {
		switch v.store.Get(h).state {
		case types.ExpandFull:
			if _, ok := v.index.ChildRowUnder(h, child.Key(), v.store); !ok {
				c := v.insertRow(h, -1, child)
				v.reopen([]Row{c})
			}
		case types.ExpandUnknown, types.ExpandNone:
			v.setState(h, types.ExpandNever)
		}
	}
}

func (v *View) onChildrenReplaced(parent types.Node, mask types.TypeMask, children []types.Node) {
	if parent == nil {
		return
	}
	if mask == 0 {
		mask = types.TypeAll
	}
	if !v.isTree() {
		if types.SameNode(v.location, parent) && mask&v.opts.Mask == v.opts.Mask {
			v.known = slices.Clone(children)
			v.resolved = true
			v.reconcile(rowstore.Nil, children)
		}
		return
	}
	if mask&v.opts.Mask != v.opts.Mask {
		// A partial listing cannot prove any of our rows stale.
		return
	}

	present := make(map[types.Key]bool, len(children))
	accepted := 0
	for _, c := range children {
		present[c.Key()] = true
		if v.accepts(c) {
			accepted++
		}
	}
	for _, h := range slices.Clone(v.index.Rows(parent.Key())) {
		if !v.store.Valid(h) {
			continue
		}
		switch v.store.Get(h).state {
		case types.ExpandFull:
			v.finishExpand(h, children)
		case types.ExpandPartial:
			for _, c := range v.store.Children(h) {
				if r := v.store.Get(c); r.node != nil && !present[r.node.Key()] {
					v.removeRow(c, types.RemovePlainKeepFull, true)
				}
			}
		case types.ExpandUnknown, types.ExpandNone, types.ExpandNever:
			if accepted > 0 {
				v.setState(h, types.ExpandNever)
			} else {
				v.setState(h, types.ExpandNone)
			}
		}
	}
}
