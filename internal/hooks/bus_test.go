package hooks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckFirstRejectionWins(t *testing.T) {
	b := NewBus()

	var calls []string
	b.OnVeto(CanCreateCharacter, func(args ...any) (bool, string, []any) {
		calls = append(calls, "first")
		return true, "", nil
	})
	b.OnVeto(CanCreateCharacter, func(args ...any) (bool, string, []any) {
		calls = append(calls, "second")
		return false, "char_limit", []any{5}
	})
	b.OnVeto(CanCreateCharacter, func(args ...any) (bool, string, []any) {
		calls = append(calls, "third")
		return false, "never_seen", nil
	})

	ok, reason, reasonArgs := b.Check(CanCreateCharacter, "alice")
	assert.False(t, ok)
	assert.Equal(t, "char_limit", reason)
	assert.Equal(t, []any{5}, reasonArgs)
	assert.Equal(t, []string{"first", "second"}, calls, "rejection stops the chain")
}

func TestCheckNoHooksPasses(t *testing.T) {
	b := NewBus()
	ok, reason, _ := b.Check(CanRestoreInventory, int32(1), int32(2), "bag_small")
	assert.True(t, ok)
	assert.Empty(t, reason)
}

func TestNotifyRunsInRegistrationOrder(t *testing.T) {
	b := NewBus()

	var order []int
	b.OnNotify(OnCharacterDeleted, func(args ...any) { order = append(order, 1) })
	b.OnNotify(OnCharacterDeleted, func(args ...any) { order = append(order, 2) })

	b.Notify(OnCharacterDeleted, int32(3), "alice")
	assert.Equal(t, []int{1, 2}, order)

	// Unknown names are a no-op.
	b.Notify("NoSuchEvent")
}

func TestNotifyMayMutateReferenceArgs(t *testing.T) {
	b := NewBus()
	b.OnNotify(AdjustCreationPayload, func(args ...any) {
		m := args[1].(map[string]any)
		m["stamped"] = true
	})

	payload := map[string]any{}
	b.Notify(AdjustCreationPayload, "alice", payload)
	require.Contains(t, payload, "stamped")
}
