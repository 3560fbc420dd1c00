package provider_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/dualview/pkg/provider"
	"github.com/joshuapare/dualview/pkg/types"
	"github.com/joshuapare/dualview/provider/memprovider"
)

func TestRegistryLookup(t *testing.T) {
	a := memprovider.New("a")
	b := memprovider.New("b")
	reg := provider.NewRegistry(a, b)

	got, err := reg.Lookup("b")
	require.NoError(t, err)
	assert.Same(t, b, got)

	_, err = reg.Lookup("c")
	assert.ErrorIs(t, err, types.ErrNotFound)

	got, err = reg.For(a.Add("/x"))
	require.NoError(t, err)
	assert.Same(t, a, got)

	_, err = reg.For(nil)
	assert.True(t, types.IsKind(err, types.ErrKindNotFound))

	assert.ElementsMatch(t, []string{"a", "b"}, reg.Domains())
}

func TestRegistryResolve(t *testing.T) {
	p := memprovider.New("mem")
	p.Add("/etc/nginx")
	reg := provider.NewRegistry(p)

	n, err := reg.Resolve(types.Key{Domain: "mem", Location: "/etc/nginx"})
	require.NoError(t, err)
	assert.Equal(t, "nginx", n.Name())

	_, err = reg.Resolve(types.Key{Domain: "nope", Location: "/"})
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestPathFlat(t *testing.T) {
	flat := memprovider.New("flat", memprovider.WithFlat())
	n := flat.Add("/a/b")
	assert.False(t, flat.Capabilities().Has(provider.CapHierarchical))
	assert.Equal(t, []types.Node{n}, provider.Path(flat, n))
	assert.Nil(t, provider.Path(flat, nil))
}

func TestCapabilityHas(t *testing.T) {
	c := provider.CapHierarchical | provider.CapWatch
	assert.True(t, c.Has(provider.CapWatch))
	assert.False(t, provider.CapWatch.Has(c))
}
