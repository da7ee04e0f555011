package scripting

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/chronicle-rp/server/internal/charvar"
	"github.com/chronicle-rp/server/internal/data"
	"github.com/chronicle-rp/server/internal/hooks"
)

type testActor struct{ account string }

func (a *testActor) Account() string { return a.account }
func (a *testActor) IsClosed() bool  { return false }

func engineWithScript(t *testing.T, script string) (*Engine, *charvar.Registry, *hooks.Bus) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ruleset.lua"), []byte(script), 0o644))

	reg := charvar.NewRegistry(zap.NewNop())
	bus := hooks.NewBus()
	e := NewEngine(reg, data.NewFactionTable(), data.NewClassTable(), bus, zap.NewNop())
	t.Cleanup(e.Close)
	require.NoError(t, e.LoadRuleset(dir))
	return e, reg, bus
}

func TestRulesetRegistersVar(t *testing.T) {
	_, reg, _ := engineWithScript(t, `
chronicle.register_var({
	name = "accent",
	field = "accent",
	type = "string",
	default = "neutral",
	order = 10,
	no_display = true,
})
`)

	v := reg.Get("accent")
	require.NotNil(t, v)
	assert.Equal(t, "accent", v.Field)
	assert.Equal(t, charvar.TypeString, v.Type)
	assert.Equal(t, "neutral", v.Default)
	assert.Equal(t, 10, v.Order)
	assert.True(t, v.Flags.Has(charvar.NoDisplay))
	assert.True(t, v.Persisted())
}

func TestRulesetValidateBridge(t *testing.T) {
	_, reg, _ := engineWithScript(t, `
chronicle.register_var({
	name = "accent",
	type = "string",
	validate = function(value, account)
		if value == nil then return "neutral" end
		if value == "forbidden" then return false, "invalid_accent" end
		return string.lower(value)
	end,
})
`)

	v := reg.Get("accent")
	require.NotNil(t, v)
	require.NotNil(t, v.Validate)
	actor := &testActor{account: "alice"}

	got, err := v.Validate("NORTHERN", nil, actor)
	require.NoError(t, err)
	assert.Equal(t, "northern", got, "script may transform the value")

	got, err = v.Validate(nil, nil, actor)
	require.NoError(t, err)
	assert.Equal(t, "neutral", got)

	_, err = v.Validate("forbidden", nil, actor)
	var verr *charvar.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "invalid_accent", verr.Code)
}

func TestRulesetValidateRuntimeError(t *testing.T) {
	_, reg, _ := engineWithScript(t, `
chronicle.register_var({
	name = "accent",
	type = "string",
	validate = function(value, account)
		error("boom")
	end,
})
`)

	_, err := reg.Get("accent").Validate("x", nil, &testActor{})
	var verr *charvar.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "script_error", verr.Code)
}

func TestRulesetAdjustBridge(t *testing.T) {
	_, reg, _ := engineWithScript(t, `
chronicle.register_var({
	name = "model",
	type = "string",
	adjust = function(value)
		return { skin = "pale" }
	end,
})
`)

	out := make(map[string]any)
	reg.Get("model").Adjust(nil, nil, "models/citizen.mdl", out)
	assert.Equal(t, map[string]any{"skin": "pale"}, out)
}

func TestRulesetRegistersFactionAndClass(t *testing.T) {
	factions := data.NewFactionTable()
	classes := data.NewClassTable()

	dir := t.TempDir()
	script := `
chronicle.register_faction({ unique_id = "syndicate", name = "Syndicate", pay = 10 })
chronicle.register_class({ unique_id = "enforcer", faction = "syndicate" })
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ruleset.lua"), []byte(script), 0o644))

	reg := charvar.NewRegistry(zap.NewNop())
	e := NewEngine(reg, factions, classes, hooks.NewBus(), zap.NewNop())
	defer e.Close()
	require.NoError(t, e.LoadRuleset(dir))

	require.NotNil(t, factions.Get("syndicate"))
	assert.Equal(t, 10, factions.Get("syndicate").Pay)
	require.NotNil(t, classes.Get("enforcer"))
	assert.Equal(t, "syndicate", classes.Get("enforcer").Faction)
}

func TestRulesetCreateCheck(t *testing.T) {
	_, _, bus := engineWithScript(t, `
chronicle.on_create_check(function(account, payload)
	if payload.name == "john doe" then
		return false, "name_taken"
	end
	return true
end)
`)

	p := charvar.NewPayload()
	p.Set("name", "john doe")
	ok, reason, _ := bus.Check(hooks.CanCreateCharacter, "alice", p)
	assert.False(t, ok)
	assert.Equal(t, "name_taken", reason)

	p.Set("name", "ada")
	ok, _, _ = bus.Check(hooks.CanCreateCharacter, "alice", p)
	assert.True(t, ok)
}

func TestRulesetMissingDirIsFine(t *testing.T) {
	reg := charvar.NewRegistry(zap.NewNop())
	e := NewEngine(reg, data.NewFactionTable(), data.NewClassTable(), hooks.NewBus(), zap.NewNop())
	defer e.Close()
	assert.NoError(t, e.LoadRuleset(filepath.Join(t.TempDir(), "absent")))
}
