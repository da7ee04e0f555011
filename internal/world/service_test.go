package world

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/chronicle-rp/server/internal/charvar"
	"github.com/chronicle-rp/server/internal/config"
	"github.com/chronicle-rp/server/internal/data"
	"github.com/chronicle-rp/server/internal/hooks"
)

type fakeCharStore struct {
	rows      []CharacterRow
	selects   int
	inserts   []map[string]any
	updates   map[int32]map[string]any
	deleted   []int32
	nextID    int32
	selectErr error
}

func (f *fakeCharStore) SelectByOwner(ctx context.Context, owner string, specificID int32) ([]CharacterRow, error) {
	f.selects++
	if f.selectErr != nil {
		return nil, f.selectErr
	}
	if specificID == 0 {
		return f.rows, nil
	}
	for _, row := range f.rows {
		if id, ok := row["id"].(int32); ok && id == specificID {
			return []CharacterRow{row}, nil
		}
	}
	return nil, nil
}

func (f *fakeCharStore) Insert(ctx context.Context, fields map[string]any) (int32, error) {
	f.nextID++
	f.inserts = append(f.inserts, fields)
	return f.nextID, nil
}

func (f *fakeCharStore) Update(ctx context.Context, id int32, fields map[string]any) error {
	if f.updates == nil {
		f.updates = make(map[int32]map[string]any)
	}
	f.updates[id] = fields
	return nil
}

func (f *fakeCharStore) Delete(ctx context.Context, id int32) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeCharStore) CountByOwner(ctx context.Context, owner string) (int, error) {
	return len(f.rows), nil
}

type fakeInvStore struct {
	metas   map[int32][]InventoryMeta
	inserts int
	deleted []int32
	nextID  int32
}

func (f *fakeInvStore) SelectByChar(ctx context.Context, charID int32) ([]InventoryMeta, error) {
	return f.metas[charID], nil
}

func (f *fakeInvStore) Insert(ctx context.Context, charID int32, subType string) (int32, error) {
	f.inserts++
	f.nextID++
	return 100 + f.nextID, nil
}

func (f *fakeInvStore) DeleteByChar(ctx context.Context, charID int32) error {
	f.deleted = append(f.deleted, charID)
	return nil
}

func serviceUnderTest(t *testing.T, chars *fakeCharStore, invs *fakeInvStore, bus *hooks.Bus) *Service {
	t.Helper()
	reg := charvar.NewRegistry(zap.NewNop())
	reg.Register(&charvar.Var{
		Name:  "owner",
		Field: "steamid",
		Type:  charvar.TypeString,
		Flags: charvar.NoDisplay | charvar.NoNetworking | charvar.NotModifiable | charvar.SaveLoadInitialOnly,
	})
	reg.Register(&charvar.Var{
		Name:    "name",
		Field:   "name",
		Type:    charvar.TypeString,
		Default: "John Doe",
		Order:   1,
	})
	reg.Register(&charvar.Var{
		Name:    "money",
		Field:   "money",
		Type:    charvar.TypeNumber,
		Default: 150.0,
		Flags:   charvar.Local | charvar.NoDisplay,
		Order:   5,
	})
	reg.Seal()

	invTypes := data.NewInvTypeTable()
	invTypes.Add(&data.InvType{SubType: "bag_small", Width: 2, Height: 2})

	if bus == nil {
		bus = hooks.NewBus()
	}
	cfg := config.Defaults()
	cfg.Character.DefaultInvWidth = 6
	cfg.Character.DefaultInvHeight = 4
	cfg.Character.DefaultMoney = 150

	return NewService(NewState(zap.NewNop()), reg, chars, invs, invTypes, bus, cfg, zap.NewNop())
}

func TestRestoreBuildsCharactersAndCache(t *testing.T) {
	chars := &fakeCharStore{rows: []CharacterRow{
		{"id": int32(3), "name": "Ada", "money": 20.0},
		{"id": int32(5), "name": "Bel", "money": nil},
	}}
	invs := &fakeInvStore{}
	svc := serviceUnderTest(t, chars, invs, nil)

	sess := &fakeConn{account: "alice"}
	ids, err := svc.Restore(context.Background(), "alice", sess, false, 0)
	require.NoError(t, err)
	assert.Equal(t, []int32{3, 5}, ids)

	c := svc.State().Character(3)
	require.NotNil(t, c)
	assert.Equal(t, "Ada", c.Value("name"))
	assert.Same(t, sess, c.Session.(*fakeConn))

	// NULL column falls back to the descriptor default.
	assert.Equal(t, 150.0, svc.State().Character(5).Value("money"))

	// No stored inventories means exactly one default primary each.
	assert.Equal(t, 2, invs.inserts)
	require.NotNil(t, c.Primary())
	assert.Equal(t, 6, c.Primary().Width)

	cached, ok := svc.State().CachedIDs("alice")
	require.True(t, ok)
	assert.Equal(t, []int32{3, 5}, cached)
}

func TestRestoreCacheHitSkipsStore(t *testing.T) {
	chars := &fakeCharStore{rows: []CharacterRow{{"id": int32(3), "name": "Ada"}}}
	svc := serviceUnderTest(t, chars, &fakeInvStore{}, nil)

	_, err := svc.Restore(context.Background(), "alice", nil, false, 0)
	require.NoError(t, err)
	require.Equal(t, 1, chars.selects)

	// Second restore for the same owner is served from the cache and
	// reattaches the new session.
	sess := &fakeConn{account: "alice"}
	ids, err := svc.Restore(context.Background(), "alice", sess, false, 0)
	require.NoError(t, err)
	assert.Equal(t, []int32{3}, ids)
	assert.Equal(t, 1, chars.selects)
	assert.Same(t, sess, svc.State().Character(3).Session.(*fakeConn))

	// force bypasses the cache.
	_, err = svc.Restore(context.Background(), "alice", nil, true, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, chars.selects)
}

func TestRestoreSpecificIDLeavesCacheUntouched(t *testing.T) {
	chars := &fakeCharStore{rows: []CharacterRow{
		{"id": int32(3), "name": "Ada"},
		{"id": int32(5), "name": "Bel"},
	}}
	svc := serviceUnderTest(t, chars, &fakeInvStore{}, nil)

	ids, err := svc.Restore(context.Background(), "alice", nil, false, 5)
	require.NoError(t, err)
	assert.Equal(t, []int32{5}, ids)

	_, ok := svc.State().CachedIDs("alice")
	assert.False(t, ok, "a one-row restore must not seed the roster cache")
}

func TestRestoreSkipsMalformedIDRow(t *testing.T) {
	chars := &fakeCharStore{rows: []CharacterRow{
		{"id": "garbage", "name": "Bad"},
		{"id": int32(5), "name": "Bel"},
	}}
	svc := serviceUnderTest(t, chars, &fakeInvStore{}, nil)

	ids, err := svc.Restore(context.Background(), "alice", nil, false, 0)
	require.NoError(t, err)
	assert.Equal(t, []int32{5}, ids)
}

func TestRestoreInventoryVetoAndDimensions(t *testing.T) {
	chars := &fakeCharStore{rows: []CharacterRow{{"id": int32(3), "name": "Ada"}}}
	invs := &fakeInvStore{metas: map[int32][]InventoryMeta{
		3: {
			{ID: 40, SubType: ""},
			{ID: 41, SubType: "bag_small"},
			{ID: 42, SubType: "contraband"},
		},
	}}

	bus := hooks.NewBus()
	bus.OnVeto(hooks.CanRestoreInventory, func(args ...any) (bool, string, []any) {
		if args[2].(string) == "contraband" {
			return false, "confiscated", nil
		}
		return true, "", nil
	})

	svc := serviceUnderTest(t, chars, invs, bus)
	_, err := svc.Restore(context.Background(), "alice", nil, false, 0)
	require.NoError(t, err)

	c := svc.State().Character(3)
	require.NotNil(t, c)
	require.Len(t, c.Inventories, 2)
	assert.Equal(t, 2, c.Inventories[1].Width, "typed bag uses table dimensions")
	assert.Zero(t, invs.inserts, "stored inventories suppress the default primary")
}

func TestCreatePersistsAndRegisters(t *testing.T) {
	chars := &fakeCharStore{}
	invs := &fakeInvStore{}
	svc := serviceUnderTest(t, chars, invs, nil)

	p := charvar.NewPayload()
	p.Set("owner", "alice")
	p.Set("name", "Ada Lovelace")

	c, err := svc.Create(context.Background(), p)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Positive(t, c.ID)
	assert.Equal(t, "alice", c.Owner)
	assert.Equal(t, "Ada Lovelace", c.Value("name"))
	assert.Equal(t, 150.0, c.Value("money"), "default money stamped when absent")

	require.Len(t, chars.inserts, 1)
	assert.Equal(t, "alice", chars.inserts[0]["steamid"])
	assert.Equal(t, "Ada Lovelace", chars.inserts[0]["name"])

	require.NotNil(t, c.Primary())
	assert.Same(t, c, svc.State().Character(c.ID))
	cached, ok := svc.State().CachedIDs("alice")
	require.True(t, ok)
	assert.Equal(t, []int32{c.ID}, cached)
}

func TestCreateRequiresOwner(t *testing.T) {
	svc := serviceUnderTest(t, &fakeCharStore{}, &fakeInvStore{}, nil)
	_, err := svc.Create(context.Background(), charvar.NewPayload())
	assert.Error(t, err)
}

func TestSaveWritesPersistedFields(t *testing.T) {
	chars := &fakeCharStore{}
	svc := serviceUnderTest(t, chars, &fakeInvStore{}, nil)

	c := NewCharacter(3, "alice", svc.Registry(), svc.State())
	c.SetRawValue("name", "Ada")
	c.Dirty = true

	require.NoError(t, svc.Save(context.Background(), c))
	assert.False(t, c.Dirty)

	fields := chars.updates[3]
	require.NotNil(t, fields)
	assert.Equal(t, "Ada", fields["name"])
	assert.Contains(t, fields, "money")
	assert.NotContains(t, fields, "steamid", "initial-only vars never rewrite")
}

func TestDeleteEnforcesOwnership(t *testing.T) {
	chars := &fakeCharStore{}
	invs := &fakeInvStore{}
	svc := serviceUnderTest(t, chars, invs, nil)

	c := NewCharacter(3, "alice", svc.Registry(), svc.State())
	svc.State().AddCharacter(c)
	svc.State().SetCachedIDs("alice", []int32{3})

	err := svc.Delete(context.Background(), 3, &fakeConn{account: "mallory"})
	assert.ErrorIs(t, err, charvar.ErrUnauthorized)

	err = svc.Delete(context.Background(), 99, nil)
	assert.ErrorIs(t, err, charvar.ErrNotFound)

	var gone []any
	bus := hooks.NewBus()
	bus.OnNotify(hooks.OnCharacterDeleted, func(args ...any) {
		gone = args
	})
	svc.bus = bus

	require.NoError(t, svc.Delete(context.Background(), 3, &fakeConn{account: "alice"}))
	assert.Equal(t, []int32{3}, chars.deleted)
	assert.Equal(t, []int32{3}, invs.deleted)
	assert.Nil(t, svc.State().Character(3))
	require.Len(t, gone, 2)
	assert.Equal(t, int32(3), gone[0])
	assert.Equal(t, "alice", gone[1])
}
