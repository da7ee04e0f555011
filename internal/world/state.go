package world

import (
	"sync"

	"github.com/chronicle-rp/server/internal/netio/packet"
	"go.uber.org/zap"
)

// State owns the process-wide character registries: loaded characters keyed
// by ID, the per-owner ID cache, and the set of live sessions used for
// broadcast replication. It is a service-owned handle passed to every
// component that needs it, with its lifetime tied to the server run.
//
// Handlers run on the game loop, but the mutex keeps the state safe for the
// service layer's restore flights and for tests that drive it directly.
type State struct {
	mu         sync.Mutex
	loaded     map[int32]*Character
	ownerCache map[string][]int32
	sessions   map[Conn]struct{}
	log        *zap.Logger
}

func NewState(log *zap.Logger) *State {
	return &State{
		loaded:     make(map[int32]*Character),
		ownerCache: make(map[string][]int32),
		sessions:   make(map[Conn]struct{}),
		log:        log,
	}
}

// AddSession subscribes a connection to broadcast replication.
func (s *State) AddSession(c Conn) {
	s.mu.Lock()
	s.sessions[c] = struct{}{}
	s.mu.Unlock()
}

// RemoveSession unsubscribes a connection and detaches it from any character
// it controls.
func (s *State) RemoveSession(c Conn) {
	s.mu.Lock()
	delete(s.sessions, c)
	for _, ch := range s.loaded {
		if ch.Session == c {
			ch.Session = nil
		}
	}
	s.mu.Unlock()
}

// AddCharacter inserts a character into the loaded registry.
func (s *State) AddCharacter(c *Character) {
	s.mu.Lock()
	s.loaded[c.ID] = c
	s.mu.Unlock()
}

// Character returns the loaded character with the given ID, or nil.
func (s *State) Character(id int32) *Character {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded[id]
}

// RemoveCharacter drops a character from the loaded registry and from its
// owner's cache entry. Only explicit deletion calls this; disconnects never
// evict.
func (s *State) RemoveCharacter(id int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.loaded[id]
	if !ok {
		return
	}
	delete(s.loaded, id)
	ids := s.ownerCache[c.Owner]
	for i, cached := range ids {
		if cached == id {
			s.ownerCache[c.Owner] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
}

// CachedIDs returns a copy of the owner's cached character IDs and whether a
// cache entry exists at all (an empty entry is a valid "no characters" hit).
func (s *State) CachedIDs(owner string) ([]int32, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids, ok := s.ownerCache[owner]
	if !ok {
		return nil, false
	}
	out := make([]int32, len(ids))
	copy(out, ids)
	return out, true
}

// SetCachedIDs replaces the owner's cache entry with the full ID set.
func (s *State) SetCachedIDs(owner string, ids []int32) {
	cp := make([]int32, len(ids))
	copy(cp, ids)
	s.mu.Lock()
	s.ownerCache[owner] = cp
	s.mu.Unlock()
}

// AppendCachedID registers a newly created character in the owner cache.
func (s *State) AppendCachedID(owner string, id int32) {
	s.mu.Lock()
	s.ownerCache[owner] = append(s.ownerCache[owner], id)
	s.mu.Unlock()
}

// InvalidateOwner drops the owner's cache entry; the next restore rebuilds it
// from the database.
func (s *State) InvalidateOwner(owner string) {
	s.mu.Lock()
	delete(s.ownerCache, owner)
	s.mu.Unlock()
}

// AllCharacters iterates the loaded registry.
func (s *State) AllCharacters(fn func(*Character)) {
	s.mu.Lock()
	chars := make([]*Character, 0, len(s.loaded))
	for _, c := range s.loaded {
		chars = append(chars, c)
	}
	s.mu.Unlock()
	for _, c := range chars {
		fn(c)
	}
}

// SessionCount returns the number of subscribed sessions.
func (s *State) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// BroadcastVar replicates a var change to every live session.
func (s *State) BroadcastVar(id int32, name string, v any) {
	w := packet.NewWriterWithOpcode(packet.S_OPCODE_CHAR_VAR_BCAST)
	w.WriteD(id)
	w.WriteS(name)
	w.WriteTagged(v)
	s.broadcast(w.Bytes())
}

// SendVar replicates a var change to a single session. Dropped silently when
// the target is nil or mid-disconnect — at-most-once, no retry.
func (s *State) SendVar(to Conn, id int32, name string, v any) {
	if to == nil || to.IsClosed() {
		return
	}
	w := packet.NewWriterWithOpcode(packet.S_OPCODE_CHAR_VAR)
	w.WriteD(id)
	w.WriteS(name)
	w.WriteTagged(v)
	to.Send(w.Bytes())
}

// SendData replicates one changed key of a character's data bag to a single
// session.
func (s *State) SendData(to Conn, id int32, key string, v any) {
	if to == nil || to.IsClosed() {
		return
	}
	w := packet.NewWriterWithOpcode(packet.S_OPCODE_CHAR_DATA)
	w.WriteD(id)
	w.WriteS(key)
	w.WriteTagged(v)
	to.Send(w.Bytes())
}

func (s *State) broadcast(data []byte) {
	s.mu.Lock()
	conns := make([]Conn, 0, len(s.sessions))
	for c := range s.sessions {
		conns = append(conns, c)
	}
	s.mu.Unlock()
	for _, c := range conns {
		if !c.IsClosed() {
			c.Send(data)
		}
	}
}
