package main

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/joshuapare/dualview/internal/loop"
	"github.com/joshuapare/dualview/pkg/config"
	"github.com/joshuapare/dualview/pkg/provider"
	"github.com/joshuapare/dualview/pkg/types"
	"github.com/joshuapare/dualview/provider/memprovider"
	"github.com/joshuapare/dualview/view"
	"github.com/joshuapare/dualview/view/rowstore"
)

// TestHelper drives a Model backed by an in-memory provider. Provider jobs
// only complete when Settle is called.
type TestHelper struct {
	t     *testing.T
	model Model
	mem   *memprovider.Provider
	run   *loop.Manual
}

// NewTestHelper builds a model over this tree, with "/" as the only root
// and the list at /home:
//
//	/home/ann/docs/a.txt
//	/home/ann/music
//	/home/bob
//	/etc/.hidden
func NewTestHelper(t *testing.T) *TestHelper {
	t.Helper()
	mem := memprovider.New("mem")
	mem.AddItem("/home/ann/docs/a.txt", types.TypeItem)
	mem.Add("/home/ann/music")
	mem.Add("/home/bob")
	mem.AddItem("/etc/.hidden", types.TypeItem)

	run := loop.NewManual()
	m, err := NewModel(Options{
		Config:   config.DefaultConfig(),
		Registry: provider.NewRegistry(mem),
		Runner:   run,
		Roots:    []types.Node{mem.MustNode("/")},
		Location: mem.MustNode("/home"),
	})
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}
	h := &TestHelper{t: t, model: m, mem: mem, run: run}
	t.Cleanup(func() { h.model.Close() })
	return h.Settle()
}

// Settle runs every queued provider job.
func (h *TestHelper) Settle() *TestHelper {
	h.run.RunAll()
	return h
}

func (h *TestHelper) update(msg tea.Msg) tea.Cmd {
	updated, cmd := h.model.Update(msg)
	h.model = updated.(Model)
	return cmd
}

// SendKey simulates a key press and settles the resulting jobs
func (h *TestHelper) SendKey(keyType tea.KeyType) *TestHelper {
	h.update(tea.KeyMsg{Type: keyType})
	return h.Settle()
}

// SendKeyRune simulates a character key press and settles the resulting jobs
func (h *TestHelper) SendKeyRune(r rune) *TestHelper {
	h.update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	return h.Settle()
}

// SendWindowSize simulates a window resize
func (h *TestHelper) SendWindowSize(width, height int) *TestHelper {
	h.update(tea.WindowSizeMsg{Width: width, Height: height})
	return h
}

// TreeSelection returns the label of the tree's selected row.
func (h *TestHelper) TreeSelection() string {
	v := h.model.tree
	if v.Selection().IsNil() {
		return ""
	}
	return v.Label(v.Selection())
}

// ListLabels returns the labels of the list rows in order.
func (h *TestHelper) ListLabels() []string {
	return labels(h.model.list, h.model.list.Children(rowstore.Nil))
}

// TreeLabels returns the labels of the visible tree rows in order.
func (h *TestHelper) TreeLabels() []string {
	return labels(h.model.tree, visibleRows(h.model.tree))
}

func labels(v *view.View, rows []view.Row) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, v.Label(r))
	}
	return out
}
