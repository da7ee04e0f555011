package charvar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRegistryOrderedSortsByOrderThenName(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	reg.Register(&Var{Name: "zeta", Order: 1})
	reg.Register(&Var{Name: "alpha", Order: 2})
	reg.Register(&Var{Name: "beta", Order: 1})

	var names []string
	for _, v := range reg.Ordered() {
		names = append(names, v.Name)
	}
	assert.Equal(t, []string{"beta", "zeta", "alpha"}, names)
}

func TestRegistrySealIgnoresLateRegistration(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	reg.Register(&Var{Name: "name"})
	reg.Seal()

	reg.Register(&Var{Name: "late"})
	assert.Nil(t, reg.Get("late"))
	assert.Equal(t, 1, reg.Len())
	assert.True(t, reg.Sealed())
}

func TestRegistryOverrideCarriesHooks(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	reg.Register(&Var{Name: "model"})

	fired := false
	require.NoError(t, reg.Hook("model", "OnSet", func(_ Entity, _ any) {
		fired = true
	}))

	// Re-registering replaces the descriptor but keeps attached hooks.
	reg.Register(&Var{Name: "model", Default: "other"})
	v := reg.Get("model")
	require.NotNil(t, v)
	assert.Equal(t, "other", v.Default)

	v.FireHooks("OnSet", nil, "x")
	assert.True(t, fired)
}

func TestRegistryPersistedSortedByField(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	reg.Register(&Var{Name: "b", Field: "zz"})
	reg.Register(&Var{Name: "a", Field: "aa"})
	reg.Register(&Var{Name: "c"})                                    // never persisted
	reg.Register(&Var{Name: "d", Field: "mm", Flags: SaveLoadInitialOnly}) // creation-only

	var fields []string
	for _, v := range reg.Persisted() {
		fields = append(fields, v.Field)
	}
	assert.Equal(t, []string{"aa", "zz"}, fields)
}
