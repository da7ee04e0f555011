package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestOwnerCacheLifecycle(t *testing.T) {
	st := NewState(zap.NewNop())

	_, ok := st.CachedIDs("alice")
	assert.False(t, ok, "no entry before the first restore")

	// An empty entry is a valid "no characters" result.
	st.SetCachedIDs("alice", nil)
	ids, ok := st.CachedIDs("alice")
	assert.True(t, ok)
	assert.Empty(t, ids)

	st.SetCachedIDs("alice", []int32{3, 5})
	st.AppendCachedID("alice", 9)
	ids, ok = st.CachedIDs("alice")
	require.True(t, ok)
	assert.Equal(t, []int32{3, 5, 9}, ids)

	// Callers get a copy, not the cache slice.
	ids[0] = 99
	again, _ := st.CachedIDs("alice")
	assert.Equal(t, []int32{3, 5, 9}, again)

	st.InvalidateOwner("alice")
	_, ok = st.CachedIDs("alice")
	assert.False(t, ok)
}

func TestRemoveCharacterPrunesOwnerCache(t *testing.T) {
	st := NewState(zap.NewNop())
	reg := replicationRegistry(t)

	st.AddCharacter(NewCharacter(3, "alice", reg, st))
	st.AddCharacter(NewCharacter(5, "alice", reg, st))
	st.SetCachedIDs("alice", []int32{3, 5})

	st.RemoveCharacter(3)
	assert.Nil(t, st.Character(3))
	require.NotNil(t, st.Character(5))

	ids, ok := st.CachedIDs("alice")
	require.True(t, ok)
	assert.Equal(t, []int32{5}, ids)

	// Removing an unknown ID is a no-op.
	st.RemoveCharacter(77)
}

func TestRemoveSessionDetachesCharacters(t *testing.T) {
	st := NewState(zap.NewNop())
	reg := replicationRegistry(t)

	conn := &fakeConn{account: "alice"}
	st.AddSession(conn)
	c := NewCharacter(3, "alice", reg, st)
	c.Session = conn
	st.AddCharacter(c)

	st.RemoveSession(conn)
	assert.Zero(t, st.SessionCount())
	assert.Nil(t, c.Session, "disconnect detaches but never evicts")
	assert.NotNil(t, st.Character(3))
}

func TestBroadcastSkipsClosedSessions(t *testing.T) {
	st := NewState(zap.NewNop())

	live := &fakeConn{account: "alice"}
	dead := &fakeConn{account: "bob", closed: true}
	st.AddSession(live)
	st.AddSession(dead)

	st.BroadcastVar(1, "title", "Baron")
	assert.Len(t, live.sent, 1)
	assert.Empty(t, dead.sent)
}

func TestSendVarDropsNilAndClosedTargets(t *testing.T) {
	st := NewState(zap.NewNop())

	st.SendVar(nil, 1, "title", "x")
	st.SendData(nil, 1, "k", "v")

	dead := &fakeConn{closed: true}
	st.SendVar(dead, 1, "title", "x")
	st.SendData(dead, 1, "k", "v")
	assert.Empty(t, dead.sent)
}
