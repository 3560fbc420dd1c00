package main

import (
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/joshuapare/dualview/internal/logger"
	"github.com/joshuapare/dualview/pkg/types"
	"github.com/joshuapare/dualview/view"
	"github.com/joshuapare/dualview/view/rowstore"
)

// writeClipboard is replaced in tests.
var writeClipboard = clipboard.WriteAll

// Update handles all messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loopMsg:
		if msg.fn != nil {
			msg.fn()
		}
		m.loop.Drain()
		return m, waitForLoop(m.loop)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case clearStatusMsg:
		m.statusMessage = ""
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		if key.Matches(msg, m.keys.Esc) || key.Matches(msg, m.keys.Help) || key.Matches(msg, m.keys.Quit) {
			m.showHelp = false
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, m.keys.Tab):
		if m.focusedPane == TreePane {
			m.focusedPane = ListPane
		} else {
			m.focusedPane = TreePane
		}
		return m, nil
	case key.Matches(msg, m.keys.ToggleMinitree):
		m.tree.SetMinitree(!m.tree.Minitree())
		return m.status("Minitree " + onOff(m.tree.Minitree()))
	case key.Matches(msg, m.keys.ToggleHidden):
		show := !m.tree.ShowHidden()
		m.tree.SetShowHidden(show)
		m.list.SetShowHidden(show)
		return m.status("Hidden entries " + onOff(show))
	case key.Matches(msg, m.keys.CyclePolicy):
		p := nextPolicy(m.tree.SyncPolicy())
		m.tree.SetSyncPolicy(p)
		return m.status("Sync policy: " + p.String())
	case key.Matches(msg, m.keys.Copy):
		return m.copyPath()
	}

	if m.focusedPane == TreePane {
		return m.handleTreeKey(msg)
	}
	return m.handleListKey(msg)
}

func (m Model) handleTreeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	t := m.tree
	sel := t.Selection()
	rows := visibleRows(t)

	switch {
	case key.Matches(msg, m.keys.Up):
		m.selectTree(step(rows, sel, -1))
	case key.Matches(msg, m.keys.Down):
		m.selectTree(step(rows, sel, 1))
	case key.Matches(msg, m.keys.PageUp):
		m.selectTree(step(rows, sel, -m.pageSize()))
	case key.Matches(msg, m.keys.PageDown):
		m.selectTree(step(rows, sel, m.pageSize()))
	case key.Matches(msg, m.keys.Home):
		if len(rows) > 0 {
			m.selectTree(rows[0])
		}
	case key.Matches(msg, m.keys.End):
		if len(rows) > 0 {
			m.selectTree(rows[len(rows)-1])
		}
	case key.Matches(msg, m.keys.Right):
		if sel.IsNil() {
			break
		}
		if !t.IsExpanded(sel) {
			t.RequestExpand(sel)
		} else if kids := t.Children(sel); len(kids) > 0 && !t.IsPlaceholder(kids[0]) {
			m.selectTree(kids[0])
		}
	case key.Matches(msg, m.keys.Left):
		if sel.IsNil() {
			break
		}
		if t.IsExpanded(sel) {
			t.Collapse(sel)
		} else if p := t.Parent(sel); !p.IsNil() {
			m.selectTree(p)
		}
	case key.Matches(msg, m.keys.Enter):
		if sel.IsNil() {
			break
		}
		if t.IsExpanded(sel) {
			t.Collapse(sel)
		} else {
			t.RequestExpand(sel)
		}
	case key.Matches(msg, m.keys.Refresh):
		if !sel.IsNil() {
			t.Refresh(sel)
			return m.status("Refreshing " + t.Label(sel))
		}
	case key.Matches(msg, m.keys.Forget):
		if !sel.IsNil() {
			label := t.Label(sel)
			t.Forget(sel)
			return m.status("Forgot " + label)
		}
	case key.Matches(msg, m.keys.AddRoot):
		if loc := m.list.Location(); loc != nil {
			h := t.AddRoot(loc, -1)
			t.Select(h)
			return m.status("Added root " + loc.Name())
		}
	}
	return m, nil
}

// selectTree moves the tree cursor and points the list at the selected
// container.
func (m Model) selectTree(h view.Row) {
	if h.IsNil() {
		return
	}
	m.tree.Select(h)
	if n := m.tree.Node(h); n != nil && n.Type().Has(types.TypeContainer) {
		if !types.SameNode(m.list.Location(), n) {
			m.list.SetLocation(n)
		}
	}
}

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	l := m.list
	sel := l.Selection()
	rows := l.Children(rowstore.Nil)

	switch {
	case key.Matches(msg, m.keys.Up):
		l.Select(step(rows, sel, -1))
	case key.Matches(msg, m.keys.Down):
		l.Select(step(rows, sel, 1))
	case key.Matches(msg, m.keys.PageUp):
		l.Select(step(rows, sel, -m.pageSize()))
	case key.Matches(msg, m.keys.PageDown):
		l.Select(step(rows, sel, m.pageSize()))
	case key.Matches(msg, m.keys.Home):
		if len(rows) > 0 {
			l.Select(rows[0])
		}
	case key.Matches(msg, m.keys.End):
		if len(rows) > 0 {
			l.Select(rows[len(rows)-1])
		}
	case key.Matches(msg, m.keys.Right), key.Matches(msg, m.keys.Enter):
		if n := nodeOf(l, sel); n != nil && n.Type().Has(types.TypeContainer) {
			logger.Debug("open location", "node", n.Key())
			l.SetLocation(n)
		}
	case key.Matches(msg, m.keys.Left), key.Matches(msg, m.keys.Back):
		m.listUp()
	case key.Matches(msg, m.keys.Refresh):
		l.RefreshLocation()
		return m.status("Refreshing list")
	}
	return m, nil
}

// listUp moves the list to the parent of its location.
func (m Model) listUp() {
	loc := m.list.Location()
	if loc == nil {
		return
	}
	p, err := m.reg.For(loc)
	if err != nil {
		return
	}
	if parent, ok := p.Parent(loc); ok {
		m.list.SetLocation(parent)
	}
}

func (m Model) copyPath() (tea.Model, tea.Cmd) {
	var n types.Node
	if m.focusedPane == TreePane {
		n = nodeOf(m.tree, m.tree.Selection())
	} else if n = nodeOf(m.list, m.list.Selection()); n == nil {
		n = m.list.Location()
	}
	if n == nil {
		return m.status("Nothing to copy")
	}
	path := n.Key().Location
	if err := writeClipboard(path); err != nil {
		return m.status("Copy failed: " + err.Error())
	}
	return m.status("Copied " + path)
}

// status shows msg and clears it after a while.
func (m Model) status(msg string) (tea.Model, tea.Cmd) {
	m.statusMessage = msg
	return m, tea.Tick(2*time.Second, func(time.Time) tea.Msg {
		return clearStatusMsg{}
	})
}

func (m Model) pageSize() int {
	return max(m.paneHeight()-1, 1)
}

// visibleRows returns the tree rows whose ancestors are all expanded, in
// display order.
func visibleRows(v *view.View) []view.Row {
	var out []view.Row
	var walk func(h view.Row)
	walk = func(h view.Row) {
		for _, c := range v.Children(h) {
			out = append(out, c)
			if v.IsExpanded(c) {
				walk(c)
			}
		}
	}
	walk(rowstore.Nil)
	return out
}

// step returns the row delta positions away from cur, clamped to rows. A
// missing cursor starts at the first row.
func step(rows []view.Row, cur view.Row, delta int) view.Row {
	if len(rows) == 0 {
		return rowstore.Nil
	}
	i := index(rows, cur)
	if i < 0 {
		return rows[0]
	}
	i = min(max(i+delta, 0), len(rows)-1)
	return rows[i]
}

func nodeOf(v *view.View, h view.Row) types.Node {
	if h.IsNil() {
		return nil
	}
	return v.Node(h)
}

func index(rows []view.Row, h view.Row) int {
	for i, r := range rows {
		if r == h {
			return i
		}
	}
	return -1
}

var policies = []types.SyncPolicy{
	types.SyncNone,
	types.SyncExistingAccessible,
	types.SyncExistingExpandable,
	types.SyncExpandableWithFetch,
	types.SyncFull,
}

func nextPolicy(p types.SyncPolicy) types.SyncPolicy {
	for i, q := range policies {
		if q == p {
			return policies[(i+1)%len(policies)]
		}
	}
	return types.SyncExpandableWithFetch
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
