package pending

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/dualview/view/rowstore"
)

func rows(t *testing.T, n int) []rowstore.Handle {
	t.Helper()
	s := rowstore.New[int]()
	out := make([]rowstore.Handle, n)
	for i := range out {
		out[i] = s.Insert(rowstore.Nil, -1, i)
	}
	return out
}

func TestTakeOnlyOnce(t *testing.T) {
	r := rows(t, 1)[0]
	reg := New()
	id := reg.Add(r, KindFetch)

	require.True(t, reg.Has(r))
	assert.True(t, reg.Take(r, id))
	assert.False(t, reg.Take(r, id), "second take observes invalidation")
	assert.Equal(t, 0, reg.Len())
}

func TestTakeChecksRow(t *testing.T) {
	rs := rows(t, 2)
	reg := New()
	id := reg.Add(rs[0], KindProbe)
	assert.False(t, reg.Take(rs[1], id))
	assert.True(t, reg.Registered(id))
}

// TestDropRowInvalidates verifies that dropping a row turns every queued
// continuation for it into a no-op while leaving other rows alone.
func TestDropRowInvalidates(t *testing.T) {
	rs := rows(t, 2)
	reg := New()
	a := reg.Add(rs[0], KindFetch)
	b := reg.Add(rs[0], KindRefresh)
	c := reg.Add(rs[1], KindFetch)

	assert.Equal(t, 2, reg.DropRow(rs[0]))
	assert.False(t, reg.Take(rs[0], a))
	assert.False(t, reg.Take(rs[0], b))
	assert.True(t, reg.Take(rs[1], c))
	assert.Equal(t, 0, reg.Len())
}

func TestForgetAndKinds(t *testing.T) {
	r := rows(t, 1)[0]
	reg := New()
	sync := reg.Add(r, KindSync)
	reg.Add(r, KindFetch)

	assert.True(t, reg.HasKind(r, KindSync))
	assert.True(t, reg.Forget(sync))
	assert.False(t, reg.Forget(sync))
	assert.False(t, reg.HasKind(r, KindSync))
	assert.True(t, reg.HasKind(r, KindFetch))

	entries := reg.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, KindFetch, entries[0].Kind)
	assert.Equal(t, "fetch", entries[0].Kind.String())
}

func TestIDsAreNotReused(t *testing.T) {
	r := rows(t, 1)[0]
	reg := New()
	a := reg.Add(r, KindFetch)
	reg.Take(r, a)
	b := reg.Add(r, KindFetch)
	assert.NotEqual(t, a, b)
}
