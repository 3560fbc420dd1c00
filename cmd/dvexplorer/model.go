package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/joshuapare/dualview/internal/logger"
	"github.com/joshuapare/dualview/internal/loop"
	"github.com/joshuapare/dualview/pkg/config"
	"github.com/joshuapare/dualview/pkg/layout"
	"github.com/joshuapare/dualview/pkg/provider"
	"github.com/joshuapare/dualview/pkg/types"
	"github.com/joshuapare/dualview/view"

	"github.com/joshuapare/dualview/cmd/dvexplorer/virtuallist"
)

// Pane represents which pane is focused
type Pane int

const (
	TreePane Pane = iota
	ListPane
)

// Layout constants
const (
	HeaderHeight = 3 // title, location and mode line
	StatusHeight = 2
	PaneChrome   = 3 // border and title line of a pane
)

// Options configures NewModel.
type Options struct {
	Config   config.Config
	Registry *provider.Registry
	Runner   loop.Runner

	// Loop receives the continuations of Runner. Nil means the caller drives
	// the runner by hand and events are applied synchronously.
	Loop *loop.Loop

	Roots    []types.Node
	Location types.Node

	// Layout, when set, replaces Roots.
	Layout *layout.Layout
	// LayoutPath is where Close saves the tree layout. Empty disables saving.
	LayoutPath string
}

// reportLog collects errors the views recovered from. It is shared by every
// copy of the Model.
type reportLog struct {
	msgs []string
}

func (r *reportLog) last() string {
	if len(r.msgs) == 0 {
		return ""
	}
	return r.msgs[len(r.msgs)-1]
}

// Model is the main application model
type Model struct {
	tree *view.View
	list *view.View
	reg  *provider.Registry
	loop *loop.Loop
	keys KeyMap

	// Scroll state of each pane survives across frames.
	treePane *virtuallist.Renderer
	listPane *virtuallist.Renderer

	focusedPane Pane
	width       int
	height      int

	showHelp      bool
	statusMessage string
	reports       *reportLog

	layoutPath string
	cancel     context.CancelFunc

	err error
}

// NewModel builds both views, restores or adds the tree roots, starts
// watching them and points the list at the start location.
func NewModel(opts Options) (Model, error) {
	m := Model{
		reg:        opts.Registry,
		loop:       opts.Loop,
		keys:       DefaultKeyMap(),
		reports:    &reportLog{},
		layoutPath: opts.LayoutPath,
		treePane:   virtuallist.New(nil),
		listPane:   virtuallist.New(nil),
	}
	reports := m.reports
	rep := view.ReporterFunc(func(ctx string, err error) {
		logger.Warn("view error", "context", ctx, "err", err)
		reports.msgs = append(reports.msgs, fmt.Sprintf("%s: %v", ctx, err))
	})

	treeOpts := opts.Config.TreeOptions(opts.Runner, opts.Registry)
	treeOpts.Reporter = rep
	tree, err := view.New(treeOpts)
	if err != nil {
		return Model{}, err
	}
	listOpts := opts.Config.ListOptions(opts.Runner, opts.Registry)
	listOpts.Reporter = rep
	list, err := view.New(listOpts)
	if err != nil {
		tree.Close()
		return Model{}, err
	}
	tree.SetCompanion(list)
	m.tree, m.list = tree, list

	if opts.Layout != nil {
		if err := tree.Restore(opts.Layout); err != nil {
			m.statusMessage = "Layout partially restored: " + err.Error()
		}
	}
	if len(tree.Roots()) == 0 {
		for _, n := range opts.Roots {
			tree.AddRoot(n, -1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	for _, h := range tree.Roots() {
		m.watch(ctx, tree.Node(h))
	}

	if opts.Location != nil {
		list.SetLocation(opts.Location)
	}
	return m, nil
}

// watch forwards provider events below n to both views.
func (m Model) watch(ctx context.Context, n types.Node) {
	p, err := m.reg.For(n)
	if err != nil || !p.Capabilities().Has(provider.CapWatch) {
		return
	}
	w, ok := p.(provider.Watcher)
	if !ok {
		return
	}
	tree, list := m.tree, m.list
	apply := func(ev types.Event) {
		tree.HandleEvent(ev)
		list.HandleEvent(ev)
	}
	emit := apply
	if m.loop != nil {
		l := m.loop
		emit = func(ev types.Event) { l.Post(func() { apply(ev) }) }
	}
	if err := w.Watch(ctx, n, emit); err != nil {
		logger.Warn("watch failed", "node", n.Key(), "err", err)
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	if m.loop == nil {
		return nil
	}
	return waitForLoop(m.loop)
}

// Close saves the layout and stops watching. Should be called when the TUI
// exits.
func (m *Model) Close() error {
	if m.cancel != nil {
		m.cancel()
	}
	var err error
	if m.layoutPath != "" && m.tree != nil {
		if err = os.MkdirAll(filepath.Dir(m.layoutPath), 0o755); err == nil {
			err = layout.Save(m.layoutPath, m.tree.Snapshot())
		}
	}
	if m.tree != nil {
		m.tree.Close()
		m.list.Close()
	}
	m.layoutPath = ""
	return err
}

// Messages

// loopMsg carries one continuation from the row cache loop.
type loopMsg struct{ fn func() }

type clearStatusMsg struct{}

// waitForLoop blocks until the loop has a continuation for the UI goroutine.
func waitForLoop(l *loop.Loop) tea.Cmd {
	return func() tea.Msg {
		return loopMsg{fn: <-l.C()}
	}
}
