package view

import (
	"cmp"
	"errors"
	"slices"

	"github.com/joshuapare/dualview/pkg/layout"
	"github.com/joshuapare/dualview/pkg/types"
)

// Snapshot captures what a layout needs to rebuild the view: roots,
// per-row expanded flags, Partial/Full states, overrides, and the retained
// records of nodes that are not materialized.
func (v *View) Snapshot() *layout.Layout {
	l := &layout.Layout{
		Version:  layout.Version,
		Mode:     v.opts.Mode.String(),
		Minitree: v.opts.Minitree,
	}
	if v.isTree() {
		l.Policy = v.opts.SyncPolicy.String()
		for _, h := range v.roots.All() {
			l.Roots = append(l.Roots, v.snapRow(h))
		}
	} else {
		if v.location != nil {
			ref := layout.Ref(v.location.Key())
			l.Location = &ref
		}
		for _, h := range v.store.Top() {
			l.Roots = append(l.Roots, v.snapRow(h))
		}
	}

	for k, rec := range v.retained {
		l.Retained = append(l.Retained, layout.Record{
			Root:     layout.Ref(k.root),
			Node:     layout.Ref(k.node),
			Expanded: rec.Expanded,
			Visuals:  rec.Visuals,
		})
	}
	slices.SortFunc(l.Retained, func(a, b layout.Record) int {
		return cmp.Or(
			cmp.Compare(a.Root.Domain, b.Root.Domain),
			cmp.Compare(a.Root.Location, b.Root.Location),
			cmp.Compare(a.Node.Domain, b.Node.Domain),
			cmp.Compare(a.Node.Location, b.Node.Location),
		)
	})
	return l
}

func (v *View) snapRow(h Row) layout.Row {
	r := v.store.Get(h)
	out := layout.Row{Node: layout.Ref(r.node.Key()), Expanded: r.expanded}
	if r.state.Materialized() {
		out.State = r.state.String()
	}
	if !r.visuals.IsZero() {
		vis := r.visuals
		out.Visuals = &vis
	}
	for _, c := range v.store.Children(h) {
		if v.isReal(c) {
			out.Children = append(out.Children, v.snapRow(c))
		}
	}
	return out
}

// Retained returns the override records of nodes that are not materialized.
func (v *View) Retained() []layout.Record {
	return v.Snapshot().Retained
}

// ApplyRetained seeds override records. Rows materialized later under the
// matching root pick them up.
func (v *View) ApplyRetained(recs []layout.Record) {
	for _, rec := range recs {
		v.retained[retainKey{root: rec.Root.Key(), node: rec.Node.Key()}] = Retained{
			Visuals:  rec.Visuals,
			Expanded: rec.Expanded,
		}
	}
}

// Restore rebuilds a tree from a layout: every saved row becomes a retained
// record, then the roots are re-added, which reopens expanded branches as
// their listings arrive. Roots whose nodes cannot be resolved are skipped and
// returned as errors.
func (v *View) Restore(l *layout.Layout) error {
	if !v.isTree() {
		return types.Wrap(types.ErrKindUnsupported, "restore: not a tree view", nil)
	}
	if p, err := types.ParseSyncPolicy(l.Policy); err == nil && l.Policy != "" {
		v.opts.SyncPolicy = p
	}
	v.ApplyRetained(l.Retained)
	l.Walk(func(root layout.NodeRef, r *layout.Row) {
		if !r.Expanded && r.Visuals == nil {
			return
		}
		rec := Retained{Expanded: r.Expanded}
		if r.Visuals != nil {
			rec.Visuals = *r.Visuals
		}
		v.retained[retainKey{root: root.Key(), node: r.Node.Key()}] = rec
	})

	var errs []error
	for _, saved := range l.Roots {
		n, err := v.registry.Resolve(saved.Node.Key())
		if err != nil {
			errs = append(errs, err)
			continue
		}
		v.AddRoot(n, -1)
	}
	return errors.Join(errs...)
}
