package view

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/dualview/pkg/types"
	"github.com/joshuapare/dualview/view/rowstore"
)

func TestRemoveLastChildParentState(t *testing.T) {
	tests := []struct {
		mode types.RemoveMode
		want types.ExpandState
	}{
		{types.RemovePlain, types.ExpandUnknown},
		{types.RemoveNodeDeleted, types.ExpandNone},
		{types.RemovePlainKeepFull, types.ExpandNone},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			f := newFixture(t)
			f.mem.AddChildren("/p", "only")
			tv := f.tree()
			p := f.root(tv, "/p")
			f.expand(tv, p)

			tv.RemoveRow(child(t, tv, p, "only"), tt.mode)
			assert.Equal(t, tt.want, tv.ExpandState(p))
			assert.Equal(t, tt.want.HasPlaceholder(), len(tv.Children(p)) == 1)
			f.checkInvariants(tv)
		})
	}
}

func TestRemoveChildMinitreeDowngradesFull(t *testing.T) {
	for _, mini := range []bool{false, true} {
		f := newFixture(t)
		f.mem.AddChildren("/p", "a", "b")
		var tv *View
		if mini {
			tv = f.tree(minitree)
		} else {
			tv = f.tree()
		}
		p := f.root(tv, "/p")
		f.expand(tv, p)

		tv.Forget(child(t, tv, p, "a"))
		if mini {
			assert.Equal(t, types.ExpandPartial, tv.ExpandState(p))
		} else {
			assert.Equal(t, types.ExpandFull, tv.ExpandState(p))
		}

		tv.RemoveRow(child(t, tv, p, "b"), types.RemovePlainKeepFull)
		assert.Equal(t, types.ExpandNone, tv.ExpandState(p))
		f.checkInvariants(tv)
	}
}

func TestRemoveRootDiscardsDescendantOverrides(t *testing.T) {
	f := newFixture(t)
	f.mem.Add("/r/a/x")
	tv := f.tree()
	r := f.root(tv, "/r")
	f.expand(tv, r)
	a := child(t, tv, r, "a")
	tv.SetVisuals(a, types.Visuals{Highlight: "red"})
	tv.SetVisuals(r, types.Visuals{Icon: "disk"})

	tv.RemoveRow(r, types.RemovePlain)
	assert.Empty(t, tv.Roots())
	assert.Zero(t, tv.Count())

	recs := tv.Retained()
	require.Len(t, recs, 1, "only the root keeps a record")
	assert.Equal(t, "/r", recs[0].Node.Location)
	assert.True(t, recs[0].Expanded)

	r = f.root(tv, "/r")
	assert.Equal(t, "disk", tv.Visuals(r).Icon)
	assert.Equal(t, types.ExpandFull, tv.ExpandState(r), "reopened from the record")
	assert.True(t, tv.Visuals(child(t, tv, r, "a")).IsZero())
	f.checkInvariants(tv)
}

func TestRemovePlainKeepsVisualsForRematerialization(t *testing.T) {
	f := newFixture(t)
	f.mem.AddChildren("/r", "a", "b")
	tv := f.tree()
	r := f.root(tv, "/r")
	f.expand(tv, r)
	tv.SetVisuals(child(t, tv, r, "a"), types.Visuals{Name: "Alpha"})

	tv.Forget(child(t, tv, r, "a"))
	assert.Equal(t, []string{"b"}, childNames(tv, r))

	tv.Refresh(r)
	f.run.RunAll()
	a := child(t, tv, r, "a")
	assert.Equal(t, "Alpha", tv.Label(a))
	assert.Empty(t, tv.Retained(), "records are consumed")
	f.checkInvariants(tv)
}

func TestRemoveNodeDeletedDropsRecord(t *testing.T) {
	f := newFixture(t)
	f.mem.AddChildren("/r", "a", "b")
	tv := f.tree()
	r := f.root(tv, "/r")
	f.expand(tv, r)
	tv.SetVisuals(child(t, tv, r, "a"), types.Visuals{Name: "Alpha"})

	tv.RemoveRow(child(t, tv, r, "a"), types.RemoveNodeDeleted)
	tv.Refresh(r)
	f.run.RunAll()
	assert.Equal(t, "a", tv.Label(child(t, tv, r, "a")))
}

func TestRemoveRelocatesSelection(t *testing.T) {
	f := newFixture(t)
	f.mem.AddChildren("/p", "a", "b", "c")
	tv := f.tree()
	p := f.root(tv, "/p")
	f.expand(tv, p)

	tv.Select(child(t, tv, p, "b"))
	tv.Forget(child(t, tv, p, "b"))
	assert.Equal(t, "c", selectedName(tv), "next row first")

	tv.Forget(child(t, tv, p, "c"))
	assert.Equal(t, "a", selectedName(tv), "then the previous real row")

	tv.Forget(child(t, tv, p, "a"))
	assert.Equal(t, p, tv.Selection(), "then the parent")

	tv.Forget(p)
	assert.Equal(t, rowstore.Nil, tv.Selection())
	f.checkInvariants(tv)
}

func TestRemoveSubtreeWithSelectionInside(t *testing.T) {
	f := newFixture(t)
	f.mem.Add("/p/a/deep")
	f.mem.Add("/p/b")
	tv := f.tree()
	p := f.root(tv, "/p")
	f.expand(tv, p)
	a := child(t, tv, p, "a")
	f.expand(tv, a)
	tv.Select(child(t, tv, a, "deep"))

	tv.Forget(a)
	assert.Equal(t, "b", selectedName(tv))
	f.checkInvariants(tv)
}

func TestRemoveInvalidatesPendingJobs(t *testing.T) {
	f := newFixture(t)
	f.mem.AddChildren("/p", "a", "b")
	f.mem.AddChildren("/p/a", "x", "y")
	tv := f.tree()
	p := f.root(tv, "/p")
	f.expand(tv, p)
	a := child(t, tv, p, "a")

	tv.RequestExpand(a)
	require.Equal(t, 1, tv.Pending())
	tv.Forget(a)
	assert.Zero(t, tv.Pending())
	assert.False(t, tv.Valid(a))

	count := tv.Count()
	f.run.RunAll()
	assert.Equal(t, count, tv.Count(), "the late listing is dropped")
	assert.Empty(t, tv.RowsFor(f.node("/p/a/x")))

	// A fresh row may reuse the slot, but never the handle.
	tv.Refresh(p)
	f.run.RunAll()
	a2 := child(t, tv, p, "a")
	assert.NotEqual(t, a, a2)
	assert.False(t, tv.Valid(a))
	f.checkInvariants(tv)
}

func TestPlaceholderRow(t *testing.T) {
	f := newFixture(t)
	f.mem.Add("/p/a")
	tv := f.tree()
	p := f.root(tv, "/p")
	ph := tv.Children(p)[0]
	require.True(t, tv.IsPlaceholder(ph))
	assert.Equal(t, PlaceholderLabel, tv.Label(ph))
	assert.Nil(t, tv.Node(ph))
	assert.Equal(t, 1, tv.Depth(ph))
}
