package main

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	overlay "github.com/rmhubbert/bubbletea-overlay"

	"github.com/joshuapare/dualview/pkg/types"
	"github.com/joshuapare/dualview/view"
	"github.com/joshuapare/dualview/view/rowstore"

	"github.com/joshuapare/dualview/cmd/dvexplorer/virtuallist"
)

// View renders the entire UI
func (m Model) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}
	if m.showHelp {
		help := overlay.New(
			helpModel{keys: m.keys},
			mainView{model: &m},
			overlay.Center,
			overlay.Center,
			0,
			0,
		)
		return help.View()
	}
	return m.renderMain()
}

func (m Model) renderMain() string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.renderHeader(),
		m.renderContent(),
		m.renderStatus(),
	)
}

func (m Model) renderHeader() string {
	location := "(no location)"
	if loc := m.list.Location(); loc != nil {
		location = loc.Key().String()
	}
	title := lipgloss.JoinHorizontal(
		lipgloss.Top,
		headerStyle.Render("Dual View Explorer"),
		"  ",
		pathStyle.Render(location),
	)
	mode := fmt.Sprintf("sync: %s  minitree: %s  hidden: %s",
		m.tree.SyncPolicy(), onOff(m.tree.Minitree()), onOff(m.tree.ShowHidden()))
	return lipgloss.JoinVertical(lipgloss.Left, title, modeStyle.Render(mode))
}

func (m Model) paneHeight() int {
	return max(m.height-HeaderHeight-StatusHeight-PaneChrome, 3)
}

func (m Model) renderContent() string {
	width := max(m.width, 40)
	treeWidth := width / 2
	listWidth := width - treeWidth
	height := m.paneHeight()

	treeLines := renderTreeRows(m.tree, treeWidth-4)
	listLines := renderListRows(m.list, listWidth-4)

	treeBox := m.renderPane("Tree", m.treePane, treeLines, index(visibleRows(m.tree), m.tree.Selection()),
		treeWidth, height, m.focusedPane == TreePane)
	listBox := m.renderPane("List", m.listPane, listLines, index(m.list.Children(rowstore.Nil), m.list.Selection()),
		listWidth, height, m.focusedPane == ListPane)
	return lipgloss.JoinHorizontal(lipgloss.Top, treeBox, listBox)
}

// renderPane draws the window of lines that keeps the cursor visible.
func (m Model) renderPane(title string, r *virtuallist.Renderer, lines []string, cursor, width, height int, active bool) string {
	r.SetSource(virtuallist.Lines(lines))
	r.SetSize(width-4, height)
	r.SetCursor(cursor)

	style := paneStyle
	if active {
		style = activePaneStyle
	}
	return style.
		Width(width - 2).
		Height(height + 1).
		Render(paneTitleStyle.Render(title) + "\n" + r.View())
}

func renderTreeRows(v *view.View, width int) []string {
	rows := visibleRows(v)
	lines := make([]string, 0, len(rows))
	for _, h := range rows {
		line := strings.Repeat("  ", v.Depth(h)) + expander(v, h) + " " + v.Label(h)
		lines = append(lines, styleRow(v, h, truncate(line, width)))
	}
	return lines
}

func renderListRows(v *view.View, width int) []string {
	rows := v.Children(rowstore.Nil)
	lines := make([]string, 0, len(rows))
	for _, h := range rows {
		label := v.Label(h)
		if n := v.Node(h); n != nil && n.Type().Has(types.TypeContainer) {
			label += "/"
		}
		lines = append(lines, styleRow(v, h, truncate(label, width)))
	}
	return lines
}

func styleRow(v *view.View, h view.Row, line string) string {
	switch {
	case h == v.Selection():
		return selectedStyle.Render(line)
	case v.IsWaiting(h) || v.IsPlaceholder(h):
		return waitingStyle.Render(line)
	}
	if n := v.Node(h); n != nil && n.Type().Has(types.TypeContainer) {
		return containerStyle.Render(line)
	}
	return line
}

// expander is ▾ for an open row, ▸ for a row that can be opened and a
// blank otherwise.
func expander(v *view.View, h view.Row) string {
	if v.IsPlaceholder(h) {
		return " "
	}
	switch v.ExpandState(h) {
	case types.ExpandNone:
		return " "
	case types.ExpandUnknown, types.ExpandNever:
		return "▸"
	}
	if v.IsExpanded(h) {
		return "▾"
	}
	return "▸"
}

func (m Model) renderStatus() string {
	line := m.statusMessage
	if line == "" {
		line = m.reports.last()
	}
	if line == "" {
		var hints []string
		for _, b := range m.keys.ShortHelp() {
			hints = append(hints, b.Help().Key+" "+b.Help().Desc)
		}
		line = strings.Join(hints, " • ")
	}
	if n := m.tree.Pending() + m.list.Pending(); n > 0 {
		line = fmt.Sprintf("[%d loading] %s", n, line)
	}
	return statusStyle.Width(max(m.width, 40)).Render(line)
}

// helpModel is the foreground of the help overlay.
type helpModel struct {
	keys KeyMap
}

func (h helpModel) Init() tea.Cmd { return nil }

func (h helpModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) { return h, nil }

func (h helpModel) View() string {
	var b strings.Builder
	b.WriteString(helpTitleStyle.Render("Keyboard Shortcuts"))
	b.WriteString("\n")
	const keyWidth = 12
	for _, group := range h.keys.FullHelp() {
		for _, k := range group {
			b.WriteString(helpKeyStyle.Width(keyWidth).Render(k.Help().Key))
			b.WriteString("  ")
			b.WriteString(helpDescStyle.Render(k.Help().Desc))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	return modalStyle.Render(strings.TrimRight(b.String(), "\n"))
}

// mainView wraps the main UI for use as overlay background.
type mainView struct {
	model *Model
}

func (v mainView) Init() tea.Cmd { return nil }

func (v mainView) Update(msg tea.Msg) (tea.Model, tea.Cmd) { return v, nil }

func (v mainView) View() string { return v.model.renderMain() }
