// Package printer renders the rows of a view as indented text or JSON. It
// prints what the view currently holds and never triggers a fetch.
package printer

import (
	"fmt"
	"io"

	"github.com/joshuapare/dualview/view"
	"github.com/joshuapare/dualview/view/rowstore"
)

const (
	DefaultIndentSize = 2
	DefaultMaxDepth   = 0
)

// Format specifies the output format for printing.
type Format string

const (
	// FormatText outputs an indented outline.
	FormatText Format = "text"

	// FormatJSON outputs nested JSON objects.
	FormatJSON Format = "json"
)

// ParseFormat accepts "text" and "json".
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatText, "":
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown format %q", s)
	}
}

// Options controls printing behavior.
type Options struct {
	// Format specifies output format (text, json).
	// Default: FormatText
	Format Format

	// IndentSize is the number of spaces per indent level (text format only).
	// Default: 2
	IndentSize int

	// MaxDepth limits recursion depth (0 = unlimited).
	// Default: 0 (unlimited)
	MaxDepth int

	// ShowState appends the expand state of tree rows.
	// Default: true
	ShowState bool

	// ShowPlaceholders prints placeholder rows.
	// Default: false
	ShowPlaceholders bool

	// CollapsedChildren prints the children of rows whose expanded flag is
	// off. A minitree keeps those rows materialized.
	// Default: false
	CollapsedChildren bool
}

// DefaultOptions returns sensible defaults for printing.
func DefaultOptions() Options {
	return Options{
		Format:     FormatText,
		IndentSize: DefaultIndentSize,
		MaxDepth:   DefaultMaxDepth,
		ShowState:  true,
	}
}

// Printer writes the rows of one view.
type Printer struct {
	opts   Options
	writer io.Writer
	view   *view.View
}

// New creates a new Printer.
//
// Example:
//
//	p := printer.New(tv, os.Stdout, printer.DefaultOptions())
//	p.PrintAll()
func New(v *view.View, w io.Writer, opts Options) *Printer {
	return &Printer{view: v, writer: w, opts: opts}
}

// PrintAll prints every top-level row and its visible descendants.
func (p *Printer) PrintAll() error {
	top := p.view.Children(rowstore.Nil)
	switch p.opts.Format {
	case FormatJSON:
		return p.printJSON(top)
	default:
		for _, h := range top {
			if err := p.printRowText(h, 0); err != nil {
				return err
			}
		}
		return nil
	}
}

// PrintRow prints h and its visible descendants.
func (p *Printer) PrintRow(h view.Row) error {
	if !p.view.Valid(h) {
		return fmt.Errorf("print row %v: row is not live", h)
	}
	switch p.opts.Format {
	case FormatJSON:
		return p.printJSON([]view.Row{h})
	default:
		return p.printRowText(h, 0)
	}
}

// descend reports whether the children of h are printed at depth.
func (p *Printer) descend(h view.Row, depth int) bool {
	if p.opts.MaxDepth > 0 && depth+1 >= p.opts.MaxDepth {
		return false
	}
	return p.opts.CollapsedChildren || p.view.IsExpanded(h)
}
