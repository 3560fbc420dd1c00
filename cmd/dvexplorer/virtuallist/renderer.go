// Package virtuallist renders the visible window of a long list of rows and
// keeps the cursor row on screen between renders.
package virtuallist

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// Source provides the rows of a pane.
type Source interface {
	// Len returns the total number of rows.
	Len() int
	// Line renders row i for the given width.
	Line(i int, width int) string
}

// Lines is a Source over pre-rendered lines.
type Lines []string

func (l Lines) Len() int { return len(l) }

func (l Lines) Line(i, _ int) string { return l[i] }

// Renderer only renders the rows inside the window, so the cost of a frame
// does not grow with the number of rows.
type Renderer struct {
	src      Source
	viewport viewport.Model
	cursor   int
	width    int
	height   int
	offset   int // first visible row; viewport.YOffset is not used for this

	// Empty is shown when the source has no rows.
	Empty string
}

// New creates a renderer over src.
func New(src Source) *Renderer {
	return &Renderer{src: src, viewport: viewport.New(0, 0), Empty: "(empty)"}
}

// SetSource replaces the rows. The cursor and offset are clamped to the new
// length.
func (r *Renderer) SetSource(src Source) {
	r.src = src
	r.clamp()
}

// SetSize updates the window size.
func (r *Renderer) SetSize(width, height int) {
	r.width, r.height = width, height
	r.viewport.Width, r.viewport.Height = width, height
	r.clamp()
}

// SetCursor moves the cursor and scrolls just enough to show it. A negative
// cursor means no row is selected and leaves the offset alone.
func (r *Renderer) SetCursor(cursor int) {
	r.cursor = cursor
	if cursor < 0 || r.height <= 0 {
		return
	}
	if cursor < r.offset {
		r.offset = cursor
	}
	if cursor >= r.offset+r.height {
		r.offset = cursor - r.height + 1
	}
	r.clamp()
}

// Cursor returns the cursor row.
func (r *Renderer) Cursor() int { return r.cursor }

// Offset returns the first visible row.
func (r *Renderer) Offset() int { return r.offset }

// Update forwards window size changes to the viewport. Keys are handled by
// the caller through SetCursor; forwarding them would scroll twice.
func (r *Renderer) Update(msg tea.Msg) tea.Cmd {
	if _, ok := msg.(tea.WindowSizeMsg); !ok {
		return nil
	}
	var cmd tea.Cmd
	r.viewport, cmd = r.viewport.Update(msg)
	return cmd
}

// View renders the visible rows.
func (r *Renderer) View() string {
	n := r.length()
	if n == 0 {
		return r.Empty
	}
	height := r.height
	if height <= 0 {
		height = 20
	}
	end := min(r.offset+height, n)

	lines := make([]string, 0, end-r.offset)
	for i := r.offset; i < end; i++ {
		lines = append(lines, r.src.Line(i, r.width))
	}
	r.viewport.SetContent(strings.Join(lines, "\n"))
	r.viewport.YOffset = 0
	return r.viewport.View()
}

func (r *Renderer) length() int {
	if r.src == nil {
		return 0
	}
	return r.src.Len()
}

// clamp keeps the window full when the list is long enough, so the last
// page never shrinks.
func (r *Renderer) clamp() {
	if r.height <= 0 {
		return
	}
	r.offset = min(r.offset, max(r.length()-r.height, 0))
	r.offset = max(r.offset, 0)
}
