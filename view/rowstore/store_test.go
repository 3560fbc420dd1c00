package rowstore

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildSample creates:
//
//	a
//	  a1
//	    a1x
//	  a2
//	b
//	c
//	  c1
func buildSample(t *testing.T) (*Store[string], map[string]Handle) {
	t.Helper()
	s := New[string]()
	h := map[string]Handle{}
	h["a"] = s.Insert(Nil, -1, "a")
	h["b"] = s.Insert(Nil, -1, "b")
	h["c"] = s.Insert(Nil, -1, "c")
	h["a1"] = s.Insert(h["a"], -1, "a1")
	h["a2"] = s.Insert(h["a"], -1, "a2")
	h["a1x"] = s.Insert(h["a1"], -1, "a1x")
	h["c1"] = s.Insert(h["c"], -1, "c1")
	require.Equal(t, 7, s.Count())
	return s, h
}

func names(s *Store[string], hs []Handle) []string {
	out := make([]string, 0, len(hs))
	for _, h := range hs {
		out = append(out, *s.Get(h))
	}
	return out
}

func TestNaturalOrder(t *testing.T) {
	s, _ := buildSample(t)

	got := names(s, slices.Collect(s.All()))
	assert.Equal(t, []string{"a", "a1", "a1x", "a2", "b", "c", "c1"}, got)

	var back []Handle
	for h := s.Last(); !h.IsNil(); h = s.Prev(h) {
		back = append(back, h)
	}
	assert.Equal(t, []string{"c1", "c", "b", "a2", "a1x", "a1", "a"}, names(s, back))
}

func TestWalkRestartsFromAnyRow(t *testing.T) {
	s, h := buildSample(t)

	got := names(s, slices.Collect(s.Walk(h["a2"])))
	assert.Equal(t, []string{"a2", "b", "c", "c1"}, got)

	sub := names(s, slices.Collect(s.Subtree(h["a"])))
	assert.Equal(t, []string{"a", "a1", "a1x", "a2"}, sub)
}

func TestNextSkip(t *testing.T) {
	s, h := buildSample(t)
	assert.Equal(t, h["b"], s.NextSkip(h["a"]))
	assert.Equal(t, h["a2"], s.NextSkip(h["a1"]))
	assert.Equal(t, h["b"], s.NextSkip(h["a1x"]), "climbs past exhausted ancestors")
	assert.Equal(t, Nil, s.NextSkip(h["c1"]))
}

func TestInsertAtIndex(t *testing.T) {
	s := New[string]()
	p := s.Insert(Nil, -1, "p")
	s.Insert(p, -1, "x")
	s.Insert(p, -1, "z")
	s.Insert(p, 1, "y")
	s.Insert(p, 0, "w")
	s.Insert(p, 99, "end")

	assert.Equal(t, []string{"w", "x", "y", "z", "end"}, names(s, s.Children(p)))
	assert.Equal(t, 5, s.ChildCount(p))
	assert.Equal(t, 2, s.IndexInParent(s.Children(p)[2]))
}

func TestInsertUnderInvalidParent(t *testing.T) {
	s, h := buildSample(t)
	s.Remove(h["a"])
	assert.Equal(t, Nil, s.Insert(h["a"], -1, "orphan"))
	assert.Equal(t, 3, s.Count())
}

func TestRemoveSubtree(t *testing.T) {
	s, h := buildSample(t)

	follow := s.Remove(h["a1"])
	assert.Equal(t, h["a2"], follow)
	assert.False(t, s.Valid(h["a1"]))
	assert.False(t, s.Valid(h["a1x"]), "descendants go with the row")
	assert.Equal(t, 5, s.Count())
	assert.Equal(t, []string{"a", "a2", "b", "c", "c1"}, names(s, slices.Collect(s.All())))

	assert.Equal(t, Nil, s.Remove(h["c"]), "nothing follows the last subtree")
	assert.Equal(t, []string{"a", "b"}, names(s, s.Top()))
}

func TestRemoveDeepChain(t *testing.T) {
	s := New[int]()
	root := s.Insert(Nil, -1, 0)
	cur := root
	for i := 1; i < 100000; i++ {
		cur = s.Insert(cur, -1, i)
	}
	assert.Equal(t, 99999, s.Depth(cur))
	s.Remove(root)
	assert.True(t, s.Empty())
}

func TestStaleHandleAfterReuse(t *testing.T) {
	s := New[string]()
	a := s.Insert(Nil, -1, "a")
	s.Remove(a)
	b := s.Insert(Nil, -1, "b")

	assert.Equal(t, a.index, b.index, "slot is recycled")
	assert.False(t, s.Valid(a))
	assert.True(t, s.Valid(b))
	assert.Nil(t, s.Get(a))
	assert.Equal(t, Nil, s.Parent(a))
	assert.Equal(t, -1, s.Depth(a))
	assert.Equal(t, Nil, s.Remove(a), "removing a stale handle is a no-op")
	assert.Equal(t, 1, s.Count())
}

func TestMove(t *testing.T) {
	s, h := buildSample(t)
	s.Move(h["c"], 0)
	assert.Equal(t, []string{"c", "a", "b"}, names(s, s.Top()))
	s.Move(h["c"], -1)
	assert.Equal(t, []string{"a", "b", "c"}, names(s, s.Top()))
	s.Move(h["a2"], 0)
	assert.Equal(t, []string{"a2", "a1"}, names(s, s.Children(h["a"])))
}

func TestNthOrdinalPercent(t *testing.T) {
	s, h := buildSample(t)

	assert.Equal(t, h["a1x"], s.Nth(2))
	assert.Equal(t, Nil, s.Nth(7))
	assert.Equal(t, 5, s.Ordinal(h["c"]))
	assert.Equal(t, h["a"], s.AtPercent(0))
	assert.Equal(t, h["c1"], s.AtPercent(1))
	assert.Equal(t, h["a2"], s.AtPercent(0.5))
	assert.Equal(t, h["c1"], s.AtPercent(7))
	assert.True(t, s.CountAtLeast(7))
	assert.False(t, s.CountAtLeast(8))
}

func TestAncestry(t *testing.T) {
	s, h := buildSample(t)
	assert.True(t, s.IsAncestor(h["a"], h["a1x"]))
	assert.False(t, s.IsAncestor(h["a1x"], h["a"]))
	assert.False(t, s.IsAncestor(h["a"], h["a"]))
	assert.Equal(t, h["a"], s.TopOf(h["a1x"]))
	assert.Equal(t, h["b"], s.TopOf(h["b"]))
	assert.Equal(t, 2, s.Depth(h["a1x"]))
}

func TestWalkToleratesRemovalOfYieldedRow(t *testing.T) {
	s, h := buildSample(t)
	var seen []string
	for r := range s.All() {
		seen = append(seen, *s.Get(r))
		if r == h["b"] {
			s.Remove(r)
		}
	}
	assert.Equal(t, []string{"a", "a1", "a1x", "a2", "b", "c", "c1"}, seen)
}

func TestReset(t *testing.T) {
	s, h := buildSample(t)
	s.Reset()
	assert.True(t, s.Empty())
	assert.False(t, s.Valid(h["a"]))
	assert.Nil(t, s.Top())
	n := s.Insert(Nil, -1, "fresh")
	assert.True(t, s.Valid(n))
}
