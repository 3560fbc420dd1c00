// Package layout is the persisted form of a view: roots, per-row expansion
// flags and visual overrides, plus override records for nodes that are not
// currently materialized. It is encoded as versioned JSON.
package layout

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/natefinch/atomic"

	"github.com/joshuapare/dualview/pkg/types"
)

// Version is the current layout format version.
const Version = 1

// Layout is the saved state of one view.
type Layout struct {
	Version  int      `json:"version"`
	Mode     string   `json:"mode"`
	Policy   string   `json:"sync_policy,omitempty"`
	Minitree bool     `json:"minitree,omitempty"`
	Location *NodeRef `json:"location,omitempty"`
	Roots    []Row    `json:"roots,omitempty"`
	Retained []Record `json:"retained,omitempty"`
}

// NodeRef names a node by key.
type NodeRef struct {
	Domain   string `json:"domain"`
	Location string `json:"location"`
}

// Ref converts a key.
func Ref(k types.Key) NodeRef { return NodeRef{Domain: k.Domain, Location: k.Location} }

// Key converts back to a key.
func (r NodeRef) Key() types.Key { return types.Key{Domain: r.Domain, Location: r.Location} }

// Row is one materialized row and its materialized descendants. State is
// only recorded for partial and full rows.
type Row struct {
	Node     NodeRef        `json:"node"`
	Expanded bool           `json:"expanded,omitempty"`
	State    string         `json:"state,omitempty"`
	Visuals  *types.Visuals `json:"visuals,omitempty"`
	Children []Row          `json:"children,omitempty"`
}

// Record is an override for a node that is not materialized, keyed by the
// root it was shown under.
type Record struct {
	Root     NodeRef       `json:"root"`
	Node     NodeRef       `json:"node"`
	Expanded bool          `json:"expanded,omitempty"`
	Visuals  types.Visuals `json:"visuals"`
}

// Walk calls fn for every row in depth-first order with its root.
func (l *Layout) Walk(fn func(root NodeRef, r *Row)) {
	for i := range l.Roots {
		root := l.Roots[i].Node
		stack := []*Row{&l.Roots[i]}
		for len(stack) > 0 {
			r := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			fn(root, r)
			for j := len(r.Children) - 1; j >= 0; j-- {
				stack = append(stack, &r.Children[j])
			}
		}
	}
}

// Encode writes l as indented JSON.
func Encode(w io.Writer, l *Layout) error {
	if l.Version == 0 {
		l.Version = Version
	}
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return fmt.Errorf("encode layout: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// Decode reads a layout and rejects unknown versions.
func Decode(r io.Reader) (*Layout, error) {
	var l Layout
	if err := json.NewDecoder(r).Decode(&l); err != nil {
		return nil, fmt.Errorf("decode layout: %w", err)
	}
	if l.Version == 0 || l.Version > Version {
		return nil, types.Wrap(types.ErrKindUnsupported, fmt.Sprintf("layout version %d", l.Version), nil)
	}
	return &l, nil
}

// Save writes l to path atomically.
func Save(path string, l *Layout) error {
	var buf bytes.Buffer
	if err := Encode(&buf, l); err != nil {
		return err
	}
	if err := atomic.WriteFile(path, &buf); err != nil {
		return fmt.Errorf("save layout %s: %w", path, err)
	}
	return nil
}

// Load reads a layout file.
func Load(path string) (*Layout, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load layout: %w", err)
	}
	defer f.Close()
	return Decode(f)
}
