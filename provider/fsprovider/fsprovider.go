// Package fsprovider serves the local filesystem as a hierarchical node
// provider. Locations are cleaned absolute paths in the "file" domain.
package fsprovider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/joshuapare/dualview/pkg/provider"
	"github.com/joshuapare/dualview/pkg/types"
)

// Domain is the key domain of filesystem nodes.
const Domain = "file"

// probeBatch is how many entries HasChildren reads per call.
const probeBatch = 64

// Node is a filesystem entry.
type Node struct {
	path   string
	name   string
	typ    types.TypeMask
	hidden bool
}

func (n *Node) Key() types.Key { return types.Key{Domain: Domain, Location: n.path} }

func (n *Node) Name() string { return n.name }

func (n *Node) Type() types.TypeMask { return n.typ }

// Hidden reports the platform hidden attribute. Dotted names are handled by
// types.IsHidden.
func (n *Node) Hidden() bool { return n.hidden }

// Path returns the absolute path of the entry.
func (n *Node) Path() string { return n.path }

func (n *Node) String() string { return n.path }

// Option configures a Provider.
type Option func(*Provider)

// WithLanguage orders children by the collation rules of tag.
func WithLanguage(tag language.Tag) Option {
	return func(p *Provider) { p.lang = tag }
}

// WithDirsFirst lists directories before other entries. It is on by default.
func WithDirsFirst(on bool) Option {
	return func(p *Provider) { p.dirsFirst = on }
}

// Provider lists directories with os.ReadDir. Concurrent listings of one
// directory share a single read.
type Provider struct {
	lang      language.Tag
	dirsFirst bool
	debounce  time.Duration

	group singleflight.Group

	collMu   sync.Mutex
	collator *collate.Collator

	mu      sync.Mutex
	watches []*watchSet
}

var (
	_ provider.Provider = (*Provider)(nil)
	_ provider.Watcher  = (*Provider)(nil)
	_ provider.Resolver = (*Provider)(nil)
)

// New creates a filesystem provider.
func New(opts ...Option) *Provider {
	p := &Provider{lang: language.Und, dirsFirst: true, debounce: DefaultDebounce}
	for _, o := range opts {
		o(p)
	}
	p.collator = collate.New(p.lang, collate.IgnoreCase, collate.Numeric)
	return p
}

// Domain implements provider.Provider.
func (p *Provider) Domain() string { return Domain }

// Capabilities implements provider.Provider.
func (p *Provider) Capabilities() provider.Capability {
	return provider.CapHierarchical | provider.CapWatch
}

// Parent implements provider.Provider. The parent of an existing entry is
// always a directory, so no stat is needed.
func (p *Provider) Parent(n types.Node) (types.Node, bool) {
	if n == nil {
		return nil, false
	}
	loc := n.Key().Location
	dir := filepath.Dir(loc)
	if dir == loc {
		return nil, false
	}
	return dirNode(dir), true
}

// Resolve implements provider.Resolver. Relative paths are made absolute.
func (p *Provider) Resolve(location string) (types.Node, error) {
	abs, err := filepath.Abs(location)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", location, err)
	}
	return stat(abs)
}

// FetchChildren implements provider.Provider.
func (p *Provider) FetchChildren(ctx context.Context, n types.Node, mask types.TypeMask) ([]types.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	loc := n.Key().Location
	ch := p.group.DoChan(loc, func() (any, error) {
		return p.readDir(loc)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, res.Err
	}

	all := res.Val.([]*Node)
	out := make([]types.Node, 0, len(all))
	for _, c := range all {
		if mask.Has(c.typ) {
			out = append(out, c)
		}
	}
	p.track(loc)
	return out, nil
}

// HasChildren implements provider.Provider. It stops reading at the first
// matching entry.
func (p *Provider) HasChildren(ctx context.Context, n types.Node, mask types.TypeMask) (bool, error) {
	loc := n.Key().Location
	f, err := os.Open(loc)
	if err != nil {
		return false, wrap("probe", loc, err)
	}
	defer f.Close()

	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		entries, err := f.ReadDir(probeBatch)
		for _, e := range entries {
			if mask.Has(entryType(filepath.Join(loc, e.Name()), e)) {
				return true, nil
			}
		}
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		if err != nil {
			return false, wrap("probe", loc, err)
		}
	}
}

func (p *Provider) readDir(loc string) ([]*Node, error) {
	entries, err := os.ReadDir(loc)
	if err != nil {
		return nil, wrap("list", loc, err)
	}
	out := make([]*Node, 0, len(entries))
	for _, e := range entries {
		path := filepath.Join(loc, e.Name())
		out = append(out, &Node{
			path:   path,
			name:   e.Name(),
			typ:    entryType(path, e),
			hidden: hiddenAttr(path),
		})
	}
	p.sort(out)
	return out, nil
}

func (p *Provider) sort(nodes []*Node) {
	p.collMu.Lock()
	defer p.collMu.Unlock()
	slices.SortStableFunc(nodes, func(a, b *Node) int {
		if p.dirsFirst {
			ad, bd := a.typ == types.TypeContainer, b.typ == types.TypeContainer
			switch {
			case ad && !bd:
				return -1
			case bd && !ad:
				return 1
			}
		}
		return p.collator.CompareString(a.name, b.name)
	})
}

func entryType(path string, e fs.DirEntry) types.TypeMask {
	return modeType(path, e.Type())
}

// modeType maps a file mode to a node type. Symlinks to directories count
// as containers.
func modeType(path string, m fs.FileMode) types.TypeMask {
	switch {
	case m.IsDir():
		return types.TypeContainer
	case m&fs.ModeSymlink != 0:
		if fi, err := os.Stat(path); err == nil && fi.IsDir() {
			return types.TypeContainer
		}
		return types.TypeLink
	case m.IsRegular():
		return types.TypeItem
	default:
		return types.TypeOther
	}
}

func stat(path string) (*Node, error) {
	fi, err := os.Lstat(path)
	if err != nil {
		return nil, wrap("stat", path, err)
	}
	return &Node{
		path:   path,
		name:   filepath.Base(path),
		typ:    modeType(path, fi.Mode()),
		hidden: hiddenAttr(path),
	}, nil
}

func dirNode(path string) *Node {
	return &Node{path: path, name: filepath.Base(path), typ: types.TypeContainer, hidden: hiddenAttr(path)}
}

// wrap maps missing paths to ErrKindNotFound and keeps other errors as they
// are.
func wrap(op, path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return types.Wrap(types.ErrKindNotFound, op+" "+path, err)
	}
	return fmt.Errorf("%s %s: %w", op, path, err)
}
