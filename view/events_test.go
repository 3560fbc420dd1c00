package view

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/dualview/pkg/types"
)

func TestEventNewChild(t *testing.T) {
	f := newFixture(t)
	f.mem.AddChildren("/full", "a")
	f.mem.Add("/empty")
	f.mem.AddChildren("/never", "n")
	tv := f.tree()
	full := f.root(tv, "/full")
	f.expand(tv, full)
	empty := f.root(tv, "/empty")
	never := f.root(tv, "/never")
	require.Equal(t, types.ExpandNone, tv.ExpandState(empty))

	tv.HandleEvent(types.NewChild(f.node("/full"), f.mem.Add("/full/b")))
	assert.Equal(t, []string{"a", "b"}, childNames(tv, full))

	tv.HandleEvent(types.NewChild(f.node("/full"), f.node("/full/b")))
	assert.Equal(t, []string{"a", "b"}, childNames(tv, full), "known children are not duplicated")

	tv.HandleEvent(types.NewChild(f.node("/empty"), f.mem.Add("/empty/e")))
	assert.Equal(t, types.ExpandNever, tv.ExpandState(empty))
	assert.True(t, tv.IsPlaceholder(tv.Children(empty)[0]))

	tv.HandleEvent(types.NewChild(f.node("/never"), f.mem.Add("/never/m")))
	assert.Equal(t, types.ExpandNever, tv.ExpandState(never))
	assert.Len(t, tv.Children(never), 1)

	tv.HandleEvent(types.NewChild(f.node("/full"), f.mem.Add("/full/.hidden")))
	assert.Equal(t, []string{"a", "b"}, childNames(tv, full))
	f.checkInvariants(tv)
}

func TestEventDeletedRemovesEveryRow(t *testing.T) {
	f := newFixture(t)
	f.mem.AddChildren("/x", "y")
	tv := f.tree()
	rootA := f.root(tv, "/")
	f.expand(tv, rootA)
	xA := child(t, tv, rootA, "x")
	f.expand(tv, xA)
	rootB := f.root(tv, "/x")
	f.expand(tv, rootB)
	require.Len(t, tv.RowsFor(f.node("/x/y")), 2)

	tv.SetVisuals(child(t, tv, xA, "y"), types.Visuals{Name: "why"})
	tv.Forget(child(t, tv, xA, "y"))
	require.Len(t, tv.Retained(), 1)

	tv.HandleEvent(types.Deleted(f.node("/x/y")))
	assert.Empty(t, tv.RowsFor(f.node("/x/y")))
	assert.Equal(t, types.ExpandNone, tv.ExpandState(rootB))
	assert.Empty(t, tv.Retained(), "records of a deleted node are purged")
	f.checkInvariants(tv)
}

func TestEventRemovedFrom(t *testing.T) {
	f := newFixture(t)
	f.mem.AddChildren("/a", "shared", "keep")
	f.mem.AddChildren("/b", "other")
	tv := f.tree()
	a := f.root(tv, "/a")
	f.expand(tv, a)
	shared := f.node("/a/shared")
	b := f.root(tv, "/b")
	f.expand(tv, b)

	tv.HandleEvent(types.RemovedFrom(shared, f.node("/b")))
	assert.Equal(t, []string{"shared", "keep"}, childNames(tv, a), "other parents are untouched")

	tv.HandleEvent(types.RemovedFrom(shared, f.node("/a")))
	assert.Equal(t, []string{"keep"}, childNames(tv, a))
	assert.Equal(t, types.ExpandFull, tv.ExpandState(a))
	assert.Equal(t, []string{"other"}, childNames(tv, b))
	f.checkInvariants(tv)
}

func TestEventChildrenReplaced(t *testing.T) {
	f := newFixture(t)
	f.mem.AddChildren("/r", "a", "b")
	f.mem.AddChildren("/r/a", "a1")
	tv := f.tree()
	r := f.root(tv, "/r")
	f.expand(tv, r)
	a := child(t, tv, r, "a")
	c := f.mem.Add("/r/c")

	tv.HandleEvent(types.ChildrenReplaced(f.node("/r"), types.TypeContainer, []types.Node{c}))
	assert.Equal(t, []string{"a", "b"}, childNames(tv, r), "a partial mask proves nothing")

	tv.HandleEvent(types.ChildrenReplaced(f.node("/r"), 0, []types.Node{c, f.node("/r/a")}))
	assert.Equal(t, []string{"c", "a"}, childNames(tv, r))
	assert.Equal(t, a, child(t, tv, r, "a"))

	tv.HandleEvent(types.ChildrenReplaced(f.node("/r/a"), types.TypeAll, nil))
	assert.Equal(t, types.ExpandNone, tv.ExpandState(a), "an unexpanded row with no children settles")
	f.checkInvariants(tv)
}

func TestEventChildrenReplacedPartial(t *testing.T) {
	f := newFixture(t)
	f.mem.AddChildren("/r", "a", "b")
	tv := f.tree(minitree, policy(types.SyncExpandableWithFetch))
	r := f.root(tv, "/r")
	tv.Follow(f.node("/r/a"))
	f.run.RunAll()
	require.Equal(t, types.ExpandPartial, tv.ExpandState(r))

	tv.HandleEvent(types.ChildrenReplaced(f.node("/r"), types.TypeAll, []types.Node{f.node("/r/a"), f.node("/r/b")}))
	assert.Equal(t, []string{"a"}, childNames(tv, r), "partial rows do not grow")

	tv.HandleEvent(types.ChildrenReplaced(f.node("/r"), types.TypeAll, []types.Node{f.node("/r/b")}))
	assert.Empty(t, childNames(tv, r))
	assert.Equal(t, types.ExpandNone, tv.ExpandState(r))
	f.checkInvariants(tv)
}

func TestEventUpdated(t *testing.T) {
	f := newFixture(t)
	f.mem.AddChildren("/r", "a")
	f.mem.Add("/elsewhere")
	tv := f.tree()
	r := f.root(tv, "/r")
	f.expand(tv, r)

	var got []Update
	tv.OnUpdate(func(u Update) { got = append(got, u) })
	tv.HandleEvent(types.Updated(f.node("/r/a"), "size"))
	tv.HandleEvent(types.Updated(f.node("/elsewhere"), "size"))

	require.Len(t, got, 1)
	assert.Equal(t, "size", got[0].Property)
	assert.Equal(t, "a", got[0].Node.Name())
}

func TestEventsInListView(t *testing.T) {
	f := newFixture(t)
	f.mem.AddChildren("/d", "x", "y")
	lv := f.list()
	lv.SetLocation(f.node("/d"))
	f.run.RunAll()

	lv.HandleEvent(types.NewChild(f.node("/d"), f.mem.Add("/d/z")))
	assert.Equal(t, []string{"x", "y", "z"}, listNames(lv))

	lv.HandleEvent(types.RemovedFrom(f.node("/d/x"), f.node("/d")))
	assert.Equal(t, []string{"y", "z"}, listNames(lv))
	kids, _ := lv.ResolvedChildren(f.node("/d"))
	assert.Len(t, kids, 2)

	lv.HandleEvent(types.ChildrenReplaced(f.node("/d"), types.TypeAll, []types.Node{f.node("/d/z")}))
	assert.Equal(t, []string{"z"}, listNames(lv))
	f.checkInvariants(lv)
}

func TestEventsAfterCloseAreIgnored(t *testing.T) {
	f := newFixture(t)
	f.mem.AddChildren("/r", "a")
	tv := f.tree()
	r := f.root(tv, "/r")
	f.expand(tv, r)
	tv.Close()

	tv.HandleEvent(types.Deleted(f.node("/r/a")))
	assert.Equal(t, []string{"a"}, childNames(tv, r))
}

func TestWatchFeedsEvents(t *testing.T) {
	f := newFixture(t)
	f.mem.AddChildren("/srv", "www")
	tv := f.tree()
	srv := f.root(tv, "/srv")
	f.expand(tv, srv)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, f.mem.Watch(ctx, f.node("/srv"), tv.HandleEvent))

	f.mem.Add("/srv/git")
	assert.Equal(t, []string{"www", "git"}, childNames(tv, srv))

	f.mem.Remove("/srv/www")
	assert.Equal(t, []string{"git"}, childNames(tv, srv))

	cancel()
	f.mem.Add("/srv/ftp")
	assert.Equal(t, []string{"git"}, childNames(tv, srv), "cancelled watches stop delivering")
	f.checkInvariants(tv)
}
