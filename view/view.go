package view

import (
	"context"
	"fmt"
	"time"

	"github.com/joshuapare/dualview/internal/logger"
	"github.com/joshuapare/dualview/internal/loop"
	"github.com/joshuapare/dualview/pkg/provider"
	"github.com/joshuapare/dualview/pkg/types"
	"github.com/joshuapare/dualview/view/nodeindex"
	"github.com/joshuapare/dualview/view/pending"
	"github.com/joshuapare/dualview/view/roots"
	"github.com/joshuapare/dualview/view/rowstore"
)

// DefaultWatchdogDelay is how long a fetch may run before its row is
// flagged as waiting.
const DefaultWatchdogDelay = 300 * time.Millisecond

// Row is the handle type of a view's rows.
type Row = rowstore.Handle

// row is the payload stored per handle. A nil node marks a placeholder.
type row struct {
	node     types.Node
	state    types.ExpandState
	expanded bool
	waiting  bool
	visuals  types.Visuals
}

type retainKey struct {
	root types.Key
	node types.Key
}

// Retained is an override kept for a node that is not currently
// materialized under a root.
type Retained struct {
	Visuals  types.Visuals
	Expanded bool
}

// Options configures a View.
type Options struct {
	// Name identifies the view in log lines and reports.
	Name string

	Mode types.Mode

	// Mask selects the node types shown. Zero means types.TypeAll.
	Mask types.TypeMask

	// Minitree keeps only visited branches materialized.
	Minitree bool

	// ShowHidden disables the hidden-node filter.
	ShowHidden bool

	// SyncPolicy controls how a tree follows its companion list.
	SyncPolicy types.SyncPolicy

	// WatchdogDelay defaults to DefaultWatchdogDelay.
	WatchdogDelay time.Duration

	// Runner executes provider jobs. Required.
	Runner loop.Runner

	// Registry resolves node domains to providers. Required.
	Registry *provider.Registry

	// Reporter receives recovered errors. Defaults to a LogReporter.
	Reporter Reporter
}

// Reporter receives errors the view recovered from.
type Reporter interface {
	Report(context string, err error)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(context string, err error)

// Report implements Reporter.
func (f ReporterFunc) Report(context string, err error) { f(context, err) }

// LogReporter writes reports to the global logger at error level.
type LogReporter struct {
	Name string
}

// Report implements Reporter.
func (r LogReporter) Report(context string, err error) {
	logger.With("view", r.Name).Error("view error", "context", context, "err", err)
}

// Update is delivered to OnUpdate observers when a provider reports a
// property change on a node the view shows.
type Update struct {
	Node     types.Node
	Property string
}

type observers[T any] struct {
	next int
	subs []observer[T]
}

type observer[T any] struct {
	id int
	fn func(T)
}

func (o *observers[T]) add(fn func(T)) func() {
	o.next++
	id := o.next
	o.subs = append(o.subs, observer[T]{id: id, fn: fn})
	return func() {
		for i, s := range o.subs {
			if s.id == id {
				o.subs = append(o.subs[:i:i], o.subs[i+1:]...)
				return
			}
		}
	}
}

func (o *observers[T]) notify(v T) {
	for _, s := range append([]observer[T](nil), o.subs...) {
		s.fn(v)
	}
}

// View is one tree or list widget's row cache.
type View struct {
	opts     Options
	runner   loop.Runner
	registry *provider.Registry
	reporter Reporter
	log      logger.Scope

	store    *rowstore.Store[row]
	index    *nodeindex.Index
	pending  *pending.Registry
	roots    *roots.List
	retained map[retainKey]Retained

	selection Row

	// list mode
	location types.Node
	trail    []types.Node // ancestors of location, outermost first
	known    []types.Node
	resolved bool
	listJob  pending.JobID

	companion *View
	unfollow  func()
	sync      syncState

	selectObs   observers[Row]
	locationObs observers[types.Node]
	updateObs   observers[Update]

	ctx    context.Context
	cancel context.CancelFunc
	closed bool
}

// New creates an empty view.
func New(opts Options) (*View, error) {
	if opts.Runner == nil {
		return nil, types.Wrap(types.ErrKindUnsupported, "view: runner is required", nil)
	}
	if opts.Registry == nil {
		return nil, types.Wrap(types.ErrKindUnsupported, "view: provider registry is required", nil)
	}
	if opts.Mask == 0 {
		opts.Mask = types.TypeAll
	}
	if opts.WatchdogDelay <= 0 {
		opts.WatchdogDelay = DefaultWatchdogDelay
	}
	if opts.Name == "" {
		opts.Name = opts.Mode.String()
	}
	if opts.Reporter == nil {
		opts.Reporter = LogReporter{Name: opts.Name}
	}

	idx := nodeindex.New()
	if opts.Mode == types.ModeList {
		idx = nodeindex.NewSingle()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &View{
		opts:     opts,
		runner:   opts.Runner,
		registry: opts.Registry,
		reporter: opts.Reporter,
		log:      logger.With("view", opts.Name),
		store:    rowstore.New[row](),
		index:    idx,
		pending:  pending.New(),
		roots:    roots.New(),
		retained: make(map[retainKey]Retained),
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Close abandons every outstanding job and detaches from the companion.
// Continuations that still arrive are dropped.
func (v *View) Close() {
	if v.closed {
		return
	}
	v.closed = true
	v.abandonSync()
	if v.unfollow != nil {
		v.unfollow()
		v.unfollow = nil
	}
	for _, e := range v.pending.Entries() {
		v.pending.Forget(e.ID)
	}
	v.cancel()
}

// Mode returns the view's layout mode.
func (v *View) Mode() types.Mode { return v.opts.Mode }

// Name returns the view name used in logs.
func (v *View) Name() string { return v.opts.Name }

// Options returns the current options.
func (v *View) Options() Options { return v.opts }

// check resolves a caller-supplied handle.
func (v *View) check(h Row, op string) *row {
	r := v.store.Get(h)
	debugAssert(r != nil, "%s: invalid row %v", op, h)
	return r
}

func (v *View) isTree() bool { return v.opts.Mode == types.ModeTree }

// accepts applies the type mask and hidden filter.
func (v *View) accepts(n types.Node) bool {
	if n == nil || !v.opts.Mask.Has(n.Type()) {
		return false
	}
	return v.opts.ShowHidden || !types.IsHidden(n)
}

func (v *View) providerFor(n types.Node) (provider.Provider, error) {
	return v.registry.For(n)
}

func (v *View) report(context string, kind types.ErrKind, msg string, cause error) {
	err := types.Wrap(kind, msg, cause)
	v.log.Debug("view report", "context", context, "err", err)
	v.reporter.Report(context, err)
}

func (v *View) inconsistent(context, format string, args ...any) {
	v.report(context, types.ErrKindInconsistent, fmt.Sprintf(format, args...), nil)
}

// setSelection moves the selection and notifies observers on change.
func (v *View) setSelection(h Row) {
	if h == v.selection {
		return
	}
	v.selection = h
	v.selectObs.notify(h)
}

// rootKey returns the node key of the root above h.
func (v *View) rootKey(h Row) types.Key {
	top := v.store.Get(v.store.TopOf(h))
	if top == nil || top.node == nil {
		return types.Key{}
	}
	return top.node.Key()
}

func (v *View) isReal(h Row) bool {
	r := v.store.Get(h)
	return r != nil && r.node != nil
}

func (v *View) placeholder(h Row) Row {
	for c := v.store.FirstChild(h); !c.IsNil(); c = v.store.NextSibling(c) {
		if r := v.store.Get(c); r.node == nil {
			return c
		}
	}
	return rowstore.Nil
}

func (v *View) realChildCount(h Row) int {
	n := 0
	for c := v.store.FirstChild(h); !c.IsNil(); c = v.store.NextSibling(c) {
		if v.store.Get(c).node != nil {
			n++
		}
	}
	return n
}

func (v *View) childNodes(h Row) []types.Node {
	var out []types.Node
	for c := v.store.FirstChild(h); !c.IsNil(); c = v.store.NextSibling(c) {
		if n := v.store.Get(c).node; n != nil {
			out = append(out, n)
		}
	}
	return out
}

// setState changes the expand state of h and keeps the placeholder in step:
// present for Unknown and Never, absent otherwise.
func (v *View) setState(h Row, st types.ExpandState) {
	r := v.store.Get(h)
	if r == nil || r.node == nil {
		return
	}
	r.state = st
	if st != types.ExpandPending {
		r.waiting = false
	}
	ph := v.placeholder(h)
	switch {
	case st.HasPlaceholder() && ph.IsNil():
		v.store.Insert(h, 0, row{state: types.ExpandNone})
	case !st.HasPlaceholder() && !ph.IsNil():
		v.removePlaceholder(ph)
	}
}

func (v *View) removePlaceholder(ph Row) {
	parent := v.store.Parent(ph)
	v.pending.DropRow(ph)
	v.store.Remove(ph)
	if v.selection == ph {
		v.setSelection(parent)
	}
}

// initialState picks the state of a new row for n, inheriting hints from
// other rows of the same node.
func (v *View) initialState(n types.Node) types.ExpandState {
	if !v.isTree() || !n.Type().Has(types.TypeContainer) {
		return types.ExpandNone
	}
	st := types.ExpandUnknown
	for _, o := range v.index.Rows(n.Key()) {
		switch v.store.Get(o).state {
		case types.ExpandNever, types.ExpandPartial, types.ExpandFull:
			return types.ExpandNever
		case types.ExpandNone:
			st = types.ExpandNone
		}
	}
	return st
}

// insertRow creates and binds a row for n under parent. It returns Nil when
// the index refuses the binding.
func (v *View) insertRow(parent Row, index int, n types.Node) Row {
	st := v.initialState(n)
	h := v.store.Insert(parent, index, row{node: n, state: st})
	if h.IsNil() {
		return h
	}
	if !v.index.Bind(n, h) {
		v.store.Remove(h)
		v.inconsistent("insert", "node %s already has a row", n.Key())
		return rowstore.Nil
	}
	if st.HasPlaceholder() {
		v.store.Insert(h, 0, row{state: types.ExpandNone})
	}
	v.applyRetained(h)
	return h
}

// applyRetained moves a retained record for h's node under its root onto
// the row.
func (v *View) applyRetained(h Row) {
	r := v.store.Get(h)
	k := retainKey{root: v.rootKey(h), node: r.node.Key()}
	rec, ok := v.retained[k]
	if !ok {
		return
	}
	delete(v.retained, k)
	r.visuals = rec.Visuals.Merge(r.visuals)
	if v.isTree() {
		r.expanded = rec.Expanded
	}
}

// reopen expands rows whose sticky expanded flag survived a collapse.
func (v *View) reopen(rows []Row) {
	for _, h := range rows {
		r := v.store.Get(h)
		if r == nil || !r.expanded || r.node == nil {
			continue
		}
		if r.state == types.ExpandUnknown || r.state == types.ExpandNever {
			v.beginExpand(h)
		}
	}
}

// OnSelect registers fn for selection changes and returns its cancel func.
func (v *View) OnSelect(fn func(Row)) func() { return v.selectObs.add(fn) }

// OnLocationChange registers fn for list location changes.
func (v *View) OnLocationChange(fn func(types.Node)) func() { return v.locationObs.add(fn) }

// OnUpdate registers fn for provider property updates of shown nodes.
func (v *View) OnUpdate(fn func(Update)) func() { return v.updateObs.add(fn) }
