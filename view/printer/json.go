package printer

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/joshuapare/dualview/pkg/types"
	"github.com/joshuapare/dualview/view"
)

// jsonRow represents one row in JSON format.
type jsonRow struct {
	Name     string         `json:"name"`
	Domain   string         `json:"domain,omitempty"`
	Location string         `json:"location,omitempty"`
	State    string         `json:"state,omitempty"`
	Expanded bool           `json:"expanded,omitempty"`
	Waiting  bool           `json:"waiting,omitempty"`
	Selected bool           `json:"selected,omitempty"`
	Visuals  *types.Visuals `json:"visuals,omitempty"`
	Children []jsonRow      `json:"children,omitempty"`
}

func (p *Printer) printJSON(rows []view.Row) error {
	out := make([]jsonRow, 0, len(rows))
	for _, h := range rows {
		if r, ok := p.jsonRow(h, 0); ok {
			out = append(out, r)
		}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(p.writer, "%s\n", data)
	return err
}

func (p *Printer) jsonRow(h view.Row, depth int) (jsonRow, bool) {
	v := p.view
	if v.IsPlaceholder(h) && !p.opts.ShowPlaceholders {
		return jsonRow{}, false
	}
	r := jsonRow{
		Name:     v.Label(h),
		Selected: h == v.Selection(),
	}
	if n := v.Node(h); n != nil {
		r.Domain = n.Key().Domain
		r.Location = n.Key().Location
		if v.Mode() == types.ModeTree {
			r.State = v.ExpandState(h).String()
			r.Expanded = v.IsExpanded(h)
			r.Waiting = v.IsWaiting(h)
		}
		if vis := v.Visuals(h); !vis.IsZero() {
			r.Visuals = &vis
		}
	}
	if p.descend(h, depth) {
		for _, c := range v.Children(h) {
			if cr, ok := p.jsonRow(c, depth+1); ok {
				r.Children = append(r.Children, cr)
			}
		}
	}
	return r, true
}
