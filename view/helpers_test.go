package view

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/dualview/internal/loop"
	"github.com/joshuapare/dualview/pkg/provider"
	"github.com/joshuapare/dualview/pkg/types"
	"github.com/joshuapare/dualview/provider/memprovider"
	"github.com/joshuapare/dualview/view/rowstore"
)

type report struct {
	context string
	err     error
}

// fixture wires views to an in-memory provider and a manual runner so tests
// decide when jobs complete.
type fixture struct {
	t       *testing.T
	mem     *memprovider.Provider
	run     *loop.Manual
	reg     *provider.Registry
	reports []report
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := memprovider.New("mem")
	return &fixture{
		t:   t,
		mem: mem,
		run: loop.NewManual(),
		reg: provider.NewRegistry(mem),
	}
}

func (f *fixture) newView(mode types.Mode, tweak ...func(*Options)) *View {
	f.t.Helper()
	opts := Options{
		Mode:     mode,
		Runner:   f.run,
		Registry: f.reg,
		Reporter: ReporterFunc(func(ctx string, err error) {
			f.reports = append(f.reports, report{context: ctx, err: err})
		}),
	}
	for _, fn := range tweak {
		fn(&opts)
	}
	v, err := New(opts)
	require.NoError(f.t, err)
	f.t.Cleanup(v.Close)
	return v
}

func (f *fixture) tree(tweak ...func(*Options)) *View {
	return f.newView(types.ModeTree, tweak...)
}

func (f *fixture) list(tweak ...func(*Options)) *View {
	return f.newView(types.ModeList, tweak...)
}

func minitree(o *Options) { o.Minitree = true }

func policy(p types.SyncPolicy) func(*Options) {
	return func(o *Options) { o.SyncPolicy = p }
}

func (f *fixture) node(loc string) types.Node {
	return f.mem.MustNode(loc)
}

// root adds loc as a root and settles its probe.
func (f *fixture) root(v *View, loc string) Row {
	f.t.Helper()
	h := v.AddRoot(f.node(loc), -1)
	require.False(f.t, h.IsNil())
	f.run.RunAll()
	return h
}

// expand expands h and runs every resulting job.
func (f *fixture) expand(v *View, h Row) {
	f.t.Helper()
	v.RequestExpand(h)
	f.run.RunAll()
}

func (f *fixture) checkInvariants(v *View) {
	f.t.Helper()
	require.NoError(f.t, v.CheckInvariants())
}

func (f *fixture) reportedKinds() []types.ErrKind {
	var out []types.ErrKind
	for _, r := range f.reports {
		var te *types.Error
		if errors.As(r.err, &te) {
			out = append(out, te.Kind)
		}
	}
	return out
}

// child returns the child of parent whose node is named name.
func child(t *testing.T, v *View, parent Row, name string) Row {
	t.Helper()
	for _, c := range v.Children(parent) {
		if n := v.Node(c); n != nil && n.Name() == name {
			return c
		}
	}
	t.Fatalf("no child %q under %v", name, parent)
	return rowstore.Nil
}

// childNames lists the node names of the real children of parent.
func childNames(v *View, parent Row) []string {
	var out []string
	for _, c := range v.Children(parent) {
		if n := v.Node(c); n != nil {
			out = append(out, n.Name())
		}
	}
	return out
}

func realRows(v *View) int {
	n := 0
	for h := range v.Rows() {
		if !v.IsPlaceholder(h) {
			n++
		}
	}
	return n
}

func selectedName(v *View) string {
	if n := v.Location(); n != nil {
		return n.Name()
	}
	return ""
}
