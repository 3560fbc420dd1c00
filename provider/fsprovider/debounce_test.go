package fsprovider

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/dualview/pkg/types"
)

func TestBurstCoalesces(t *testing.T) {
	dir := dirNode("/r")
	a := &Node{path: "/r/a", name: "a", typ: types.TypeItem}
	b := &Node{path: "/r/b", name: "b", typ: types.TypeItem}
	c := &Node{path: "/r/c", name: "c", typ: types.TypeItem}
	now := time.Now()

	var bu burst
	bu.add(a.path, types.NewChild(dir, a), now)
	bu.add(b.path, types.Updated(b, "content"), now)
	bu.add(a.path, types.Updated(a, "content"), now) // keeps the creation
	bu.add(c.path, types.NewChild(dir, c), now)
	bu.add(b.path, types.Updated(b, "mode"), now)
	bu.add(c.path, types.Deleted(c), now)

	var got []types.Event
	bu.flush(func(ev types.Event) { got = append(got, ev) })
	require.Len(t, got, 3)
	assert.Equal(t, types.EventNewChild, got[0].Kind)
	assert.Equal(t, "/r/a", got[0].Node.Key().Location)
	assert.Equal(t, types.EventUpdated, got[1].Kind)
	assert.Equal(t, "mode", got[1].Property)
	assert.Equal(t, types.EventDeleted, got[2].Kind)
	assert.Equal(t, "/r/c", got[2].Node.Key().Location)
	assert.True(t, bu.empty())

	got = got[:0]
	bu.flush(func(ev types.Event) { got = append(got, ev) })
	assert.Empty(t, got)
}

func TestBurstOverdue(t *testing.T) {
	var bu burst
	start := time.Now()
	assert.False(t, bu.overdue(start, time.Millisecond))
	bu.add("/r/a", types.Deleted(dirNode("/r/a")), start)
	assert.False(t, bu.overdue(start.Add(9*time.Millisecond), time.Millisecond))
	bu.add("/r/b", types.Deleted(dirNode("/r/b")), start.Add(9*time.Millisecond))
	assert.True(t, bu.overdue(start.Add(10*time.Millisecond), time.Millisecond))
}

func TestWatchDebouncesBursts(t *testing.T) {
	root := t.TempDir()
	p := New(WithDebounce(50 * time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan types.Event, 64)
	require.NoError(t, p.Watch(ctx, dirNode(root), func(ev types.Event) { events <- ev }))

	path := filepath.Join(root, "busy.txt")
	f, err := os.Create(path)
	require.NoError(t, err)
	for range 5 {
		_, err = f.WriteString("line\n")
		require.NoError(t, err)
	}
	require.NoError(t, f.Close())

	select {
	case ev := <-events:
		assert.Equal(t, types.EventNewChild, ev.Kind)
		assert.Equal(t, path, ev.Node.Key().Location)
	case <-time.After(5 * time.Second):
		t.Fatal("no event for the burst")
	}
	select {
	case ev := <-events:
		t.Fatalf("burst delivered more than once: %v", ev.Kind)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWithDebounceZero(t *testing.T) {
	assert.Equal(t, DefaultDebounce, New().debounce)
	assert.Zero(t, New(WithDebounce(0)).debounce)
	assert.Zero(t, New(WithDebounce(-time.Second)).debounce)
}
