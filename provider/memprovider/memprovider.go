// Package memprovider is an in-memory hierarchical provider. Nodes are
// addressed by slash paths ("/", "/etc", "/etc/nginx"); adding a path creates
// its missing ancestors as containers. Per-node errors, a global delay and
// call counters make it the fixture of choice for view tests and demos.
package memprovider

import (
	"context"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/joshuapare/dualview/pkg/provider"
	"github.com/joshuapare/dualview/pkg/types"
)

// DefaultDomain is used when New gets an empty domain.
const DefaultDomain = "mem"

type entry struct {
	node     *types.BasicNode
	children []string
}

type watch struct {
	ctx  context.Context
	root string
	emit func(types.Event)
}

// Provider is a mutable in-memory tree.
type Provider struct {
	mu       sync.Mutex
	domain   string
	flat     bool
	delay    time.Duration
	entries  map[string]*entry
	fetchErr map[string]error
	probeErr map[string]error
	fetches  map[string]int
	probes   map[string]int
	watches  []*watch
}

// Option configures a Provider.
type Option func(*Provider)

// WithDelay makes every job sleep d (or until its context is done).
func WithDelay(d time.Duration) Option {
	return func(p *Provider) { p.delay = d }
}

// WithFlat drops CapHierarchical: Parent always fails.
func WithFlat() Option {
	return func(p *Provider) { p.flat = true }
}

// New creates a provider holding only the root "/".
func New(domain string, opts ...Option) *Provider {
	if domain == "" {
		domain = DefaultDomain
	}
	p := &Provider{
		domain:   domain,
		entries:  make(map[string]*entry),
		fetchErr: make(map[string]error),
		probeErr: make(map[string]error),
		fetches:  make(map[string]int),
		probes:   make(map[string]int),
	}
	for _, o := range opts {
		o(p)
	}
	p.entries["/"] = &entry{node: p.newNode("/", types.TypeContainer)}
	return p
}

func clean(loc string) string {
	if !strings.HasPrefix(loc, "/") {
		loc = "/" + loc
	}
	return path.Clean(loc)
}

func (p *Provider) newNode(loc string, t types.TypeMask) *types.BasicNode {
	name := path.Base(loc)
	return &types.BasicNode{
		K: types.Key{Domain: p.domain, Location: loc},
		N: name,
		T: t,
	}
}

// Add creates loc as a container along with any missing ancestors and
// returns its node.
func (p *Provider) Add(loc string) types.Node {
	return p.add(clean(loc), types.TypeContainer, true)
}

// AddItem creates loc as a leaf of type t (TypeItem when zero).
func (p *Provider) AddItem(loc string, t types.TypeMask) types.Node {
	if t == 0 {
		t = types.TypeItem
	}
	return p.add(clean(loc), t, true)
}

// AddChildren adds every name under parent as a container and returns the
// created nodes in order.
func (p *Provider) AddChildren(parent string, names ...string) []types.Node {
	out := make([]types.Node, 0, len(names))
	for _, n := range names {
		out = append(out, p.Add(path.Join(clean(parent), n)))
	}
	return out
}

func (p *Provider) add(loc string, t types.TypeMask, notify bool) types.Node {
	p.mu.Lock()
	var events []types.Event
	n := p.ensure(loc, t, &events)
	watches := p.liveWatches()
	p.mu.Unlock()
	if notify {
		p.dispatch(watches, events)
	}
	return n
}

// ensure must be called with mu held.
func (p *Provider) ensure(loc string, t types.TypeMask, events *[]types.Event) *types.BasicNode {
	if e, ok := p.entries[loc]; ok {
		return e.node
	}
	parentLoc := path.Dir(loc)
	parent := p.ensure(parentLoc, types.TypeContainer, events)
	n := p.newNode(loc, t)
	p.entries[loc] = &entry{node: n}
	pe := p.entries[parentLoc]
	pe.children = append(pe.children, loc)
	*events = append(*events, types.NewChild(parent, n))
	return n
}

// Remove deletes loc and its subtree and emits a Deleted event for loc.
func (p *Provider) Remove(loc string) {
	loc = clean(loc)
	p.mu.Lock()
	e, ok := p.entries[loc]
	if !ok || loc == "/" {
		p.mu.Unlock()
		return
	}
	stack := []string{loc}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if ce, ok := p.entries[cur]; ok {
			stack = append(stack, ce.children...)
		}
		delete(p.entries, cur)
	}
	if pe, ok := p.entries[path.Dir(loc)]; ok {
		for i, c := range pe.children {
			if c == loc {
				pe.children = append(pe.children[:i], pe.children[i+1:]...)
				break
			}
		}
	}
	watches := p.liveWatches()
	p.mu.Unlock()
	p.dispatch(watches, []types.Event{types.Deleted(e.node)})
}

// Node returns the node at loc.
func (p *Provider) Node(loc string) (types.Node, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.entries[clean(loc)]
	if !ok {
		return nil, false
	}
	return e.node, true
}

// MustNode returns the node at loc and panics if it does not exist.
func (p *Provider) MustNode(loc string) types.Node {
	n, ok := p.Node(loc)
	if !ok {
		panic(fmt.Sprintf("memprovider: no node at %q", loc))
	}
	return n
}

// Resolve implements provider.Resolver.
func (p *Provider) Resolve(loc string) (types.Node, error) {
	n, ok := p.Node(loc)
	if !ok {
		return nil, types.Wrap(types.ErrKindNotFound, fmt.Sprintf("%s:%s", p.domain, loc), nil)
	}
	return n, nil
}

// FailFetch makes FetchChildren of loc fail with err; nil clears it.
func (p *Provider) FailFetch(loc string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err == nil {
		delete(p.fetchErr, clean(loc))
		return
	}
	p.fetchErr[clean(loc)] = err
}

// FailProbe makes HasChildren of loc fail with err; nil clears it.
func (p *Provider) FailProbe(loc string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err == nil {
		delete(p.probeErr, clean(loc))
		return
	}
	p.probeErr[clean(loc)] = err
}

// Fetches returns how many times the children of loc were listed.
func (p *Provider) Fetches(loc string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fetches[clean(loc)]
}

// TotalFetches returns the number of FetchChildren calls.
func (p *Provider) TotalFetches() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, c := range p.fetches {
		n += c
	}
	return n
}

// Probes returns how many times loc was probed for children.
func (p *Provider) Probes(loc string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.probes[clean(loc)]
}

// Domain implements provider.Provider.
func (p *Provider) Domain() string { return p.domain }

// Capabilities implements provider.Provider.
func (p *Provider) Capabilities() provider.Capability {
	if p.flat {
		return provider.CapWatch
	}
	return provider.CapHierarchical | provider.CapWatch
}

// Parent implements provider.Provider.
func (p *Provider) Parent(n types.Node) (types.Node, bool) {
	if p.flat || n == nil {
		return nil, false
	}
	loc := n.Key().Location
	if loc == "/" {
		return nil, false
	}
	return p.Node(path.Dir(loc))
}

func (p *Provider) wait(ctx context.Context) error {
	if p.delay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(p.delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// FetchChildren implements provider.Provider. Children come back in insertion
// order.
func (p *Provider) FetchChildren(ctx context.Context, n types.Node, mask types.TypeMask) ([]types.Node, error) {
	loc := n.Key().Location
	p.mu.Lock()
	p.fetches[loc]++
	p.mu.Unlock()

	if err := p.wait(ctx); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.fetchErr[loc]; err != nil {
		return nil, fmt.Errorf("list %s: %w", loc, err)
	}
	e, ok := p.entries[loc]
	if !ok {
		return nil, types.Wrap(types.ErrKindNotFound, "list "+loc, nil)
	}
	out := make([]types.Node, 0, len(e.children))
	for _, c := range e.children {
		cn := p.entries[c].node
		if mask.Has(cn.Type()) {
			out = append(out, cn)
		}
	}
	return out, nil
}

// HasChildren implements provider.Provider.
func (p *Provider) HasChildren(ctx context.Context, n types.Node, mask types.TypeMask) (bool, error) {
	loc := n.Key().Location
	p.mu.Lock()
	p.probes[loc]++
	p.mu.Unlock()

	if err := p.wait(ctx); err != nil {
		return false, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.probeErr[loc]; err != nil {
		return false, fmt.Errorf("probe %s: %w", loc, err)
	}
	e, ok := p.entries[loc]
	if !ok {
		return false, types.Wrap(types.ErrKindNotFound, "probe "+loc, nil)
	}
	for _, c := range e.children {
		if mask.Has(p.entries[c].node.Type()) {
			return true, nil
		}
	}
	return false, nil
}

// Watch implements provider.Watcher. Events for nodes below n are delivered
// synchronously from the mutating call until ctx is done.
func (p *Provider) Watch(ctx context.Context, n types.Node, emit func(types.Event)) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.watches = append(p.watches, &watch{ctx: ctx, root: n.Key().Location, emit: emit})
	return nil
}

// Emit delivers ev to every live watcher regardless of location.
func (p *Provider) Emit(ev types.Event) {
	p.mu.Lock()
	watches := p.liveWatches()
	p.mu.Unlock()
	for _, w := range watches {
		w.emit(ev)
	}
}

// liveWatches prunes cancelled watches. Must be called with mu held.
func (p *Provider) liveWatches() []*watch {
	live := p.watches[:0]
	for _, w := range p.watches {
		if w.ctx.Err() == nil {
			live = append(live, w)
		}
	}
	p.watches = live
	return append([]*watch(nil), live...)
}

func (p *Provider) dispatch(watches []*watch, events []types.Event) {
	for _, ev := range events {
		subject := ev.Node
		if ev.Parent != nil {
			subject = ev.Parent
		}
		loc := subject.Key().Location
		for _, w := range watches {
			if within(loc, w.root) {
				w.emit(ev)
			}
		}
	}
}

func within(loc, root string) bool {
	if root == "/" || loc == root {
		return true
	}
	return strings.HasPrefix(loc, root+"/")
}

var (
	_ provider.Provider = (*Provider)(nil)
	_ provider.Watcher  = (*Provider)(nil)
	_ provider.Resolver = (*Provider)(nil)
)
