package printer

import (
	"fmt"
	"strings"

	"github.com/joshuapare/dualview/pkg/types"
	"github.com/joshuapare/dualview/view"
)

// printRowText prints one row and recurses into its children.
func (p *Printer) printRowText(h view.Row, depth int) error {
	v := p.view
	if v.IsPlaceholder(h) && !p.opts.ShowPlaceholders {
		return nil
	}

	indent := strings.Repeat(" ", depth*p.opts.IndentSize)
	var b strings.Builder
	b.WriteString(indent)
	b.WriteString(expander(v, h))
	b.WriteByte(' ')
	b.WriteString(v.Label(h))
	if p.opts.ShowState && v.Mode() == types.ModeTree && !v.IsPlaceholder(h) {
		fmt.Fprintf(&b, " [%s]", v.ExpandState(h))
	}
	if h == v.Selection() {
		b.WriteString(" *")
	}
	if _, err := fmt.Fprintln(p.writer, b.String()); err != nil {
		return err
	}

	if !p.descend(h, depth) {
		return nil
	}
	for _, c := range v.Children(h) {
		if err := p.printRowText(c, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// expander is "-" for an open row, "+" for a row that can be opened and a
// blank otherwise.
func expander(v *view.View, h view.Row) string {
	if v.IsPlaceholder(h) || v.Mode() != types.ModeTree {
		return " "
	}
	switch v.ExpandState(h) {
	case types.ExpandNone:
		return " "
	case types.ExpandUnknown, types.ExpandNever:
		return "+"
	}
	if v.IsExpanded(h) {
		return "-"
	}
	return "+"
}
