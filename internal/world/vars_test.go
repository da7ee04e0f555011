package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/chronicle-rp/server/internal/charvar"
	"github.com/chronicle-rp/server/internal/config"
	"github.com/chronicle-rp/server/internal/data"
)

func coreRegistry(t *testing.T) *charvar.Registry {
	t.Helper()
	factions := data.NewFactionTable()
	factions.Add(&data.Faction{UniqueID: "citizen", IsDefault: true})
	factions.Add(&data.Faction{UniqueID: "police"})
	classes := data.NewClassTable()
	classes.Add(&data.Class{UniqueID: "police_officer", Faction: "police"})

	reg := charvar.NewRegistry(zap.NewNop())
	RegisterCoreVars(reg, config.Defaults(), factions, classes)
	reg.Seal()
	return reg
}

func TestCoreVarsCreationPayload(t *testing.T) {
	reg := coreRegistry(t)
	actor := &fakeConn{account: "alice"}

	p := charvar.NewPayload()
	p.Set("name", "  Ada　Lovelace ") // fullwidth space collapses too
	p.Set("model", "MODELS/Citizen.mdl")

	out, _, err := reg.ValidatePayload(actor, p)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", out.Get("name"))
	assert.Equal(t, "models/citizen.mdl", out.Get("model"))
	assert.Equal(t, "citizen", out.Get("faction"), "absent faction falls back to the default")
	assert.Equal(t, "", out.Get("description"))
}

func TestCoreVarsNameRules(t *testing.T) {
	reg := coreRegistry(t)
	actor := &fakeConn{account: "alice"}

	p := charvar.NewPayload()
	p.Set("name", "Ab")
	p.Set("model", "m.mdl")

	_, _, err := reg.ValidatePayload(actor, p)
	var verr *charvar.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "name_length", verr.Code)
	assert.Equal(t, "name", verr.Var)
	assert.Equal(t, []any{4, 32}, verr.Args)

	p.Delete("name")
	_, _, err = reg.ValidatePayload(actor, p)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "name_required", verr.Code)
}

func TestCoreVarsRejections(t *testing.T) {
	reg := coreRegistry(t)
	actor := &fakeConn{account: "alice"}

	p := charvar.NewPayload()
	p.Set("name", "Ada Lovelace")
	p.Set("model", "m.mdl")
	p.Set("faction", "pirates")

	_, _, err := reg.ValidatePayload(actor, p)
	var verr *charvar.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "invalid_faction", verr.Code)

	p.Set("faction", "police")
	p.Delete("model")
	_, _, err = reg.ValidatePayload(actor, p)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "model_required", verr.Code)
}

func TestCoreVarsStripInjectedHiddenFields(t *testing.T) {
	reg := coreRegistry(t)
	actor := &fakeConn{account: "alice"}

	p := charvar.NewPayload()
	p.Set("name", "Ada Lovelace")
	p.Set("model", "m.mdl")
	p.Set("money", 100000.0)
	p.Set("class", "police_officer")
	p.Set("owner", "mallory")

	out, _, err := reg.ValidatePayload(actor, p)
	require.NoError(t, err)
	assert.False(t, out.Has("money"), "hidden server-stamped var stripped")
	assert.False(t, out.Has("class"))
	assert.False(t, out.Has("owner"))
}
