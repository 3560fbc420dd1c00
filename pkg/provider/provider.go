package provider

import (
	"context"
	"fmt"
	"sync"

	"github.com/joshuapare/dualview/pkg/types"
)

// Capability flags advertise optional provider behavior. Views check them once
// per operation instead of probing node types.
type Capability uint8

const (
	// CapHierarchical means Parent is meaningful: nodes form a tree and the
	// ancestors of any node can be computed without a job.
	CapHierarchical Capability = 1 << iota
	// CapWatch means the provider implements Watcher.
	CapWatch
)

// Has reports whether c includes all bits of o.
func (c Capability) Has(o Capability) bool { return c&o == o }

// Provider is an asynchronous source of node metadata and children. The
// blocking methods run on worker goroutines; implementations must be safe for
// concurrent calls and must honor ctx cancellation.
type Provider interface {
	// Domain is the Key.Domain of every node the provider returns.
	Domain() string

	// Capabilities reports optional behavior.
	Capabilities() Capability

	// Parent returns the parent of n, or false for a top-level node or a flat
	// provider. It must not block.
	Parent(n types.Node) (types.Node, bool)

	// FetchChildren lists the children of n whose type is in mask.
	FetchChildren(ctx context.Context, n types.Node, mask types.TypeMask) ([]types.Node, error)

	// HasChildren reports whether n has at least one child whose type is in mask.
	HasChildren(ctx context.Context, n types.Node, mask types.TypeMask) (bool, error)
}

// Watcher is implemented by providers that deliver change notifications.
// Watch starts reporting changes below n through emit until ctx is done. emit
// may be called from any goroutine.
type Watcher interface {
	Watch(ctx context.Context, n types.Node, emit func(types.Event)) error
}

// Path returns the chain of nodes from the top-level ancestor of n down to n
// itself. Flat providers yield just n.
func Path(p Provider, n types.Node) []types.Node {
	if n == nil {
		return nil
	}
	path := []types.Node{n}
	if !p.Capabilities().Has(CapHierarchical) {
		return path
	}
	for cur := n; ; {
		parent, ok := p.Parent(cur)
		if !ok || parent == nil {
			break
		}
		path = append(path, parent)
		cur = parent
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// Registry maps domains to providers. A view spanning several roots may hold
// nodes from more than one domain.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry creates a registry holding the given providers.
func NewRegistry(ps ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider, len(ps))}
	for _, p := range ps {
		r.Register(p)
	}
	return r
}

// Register adds or replaces the provider for p.Domain().
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Domain()] = p
}

// Lookup returns the provider registered for domain.
func (r *Registry) Lookup(domain string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[domain]
	if !ok {
		return nil, types.Wrap(types.ErrKindNotFound, fmt.Sprintf("no provider for domain %q", domain), nil)
	}
	return p, nil
}

// For returns the provider owning n.
func (r *Registry) For(n types.Node) (Provider, error) {
	if n == nil {
		return nil, types.Wrap(types.ErrKindNotFound, "nil node", nil)
	}
	return r.Lookup(n.Key().Domain)
}

// Domains lists the registered domains.
func (r *Registry) Domains() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.providers))
	for d := range r.providers {
		out = append(out, d)
	}
	return out
}

// Resolver is implemented by providers that can build a node from its
// location alone, which is what restoring saved layouts and CLI arguments
// need.
type Resolver interface {
	Resolve(location string) (types.Node, error)
}

// Resolve looks up the provider for k.Domain and resolves k.Location.
func (r *Registry) Resolve(k types.Key) (types.Node, error) {
	p, err := r.Lookup(k.Domain)
	if err != nil {
		return nil, err
	}
	res, ok := p.(Resolver)
	if !ok {
		return nil, types.Wrap(types.ErrKindUnsupported, fmt.Sprintf("provider %q cannot resolve locations", k.Domain), nil)
	}
	return res.Resolve(k.Location)
}
