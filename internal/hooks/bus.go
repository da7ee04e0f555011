package hooks

import "sync"

// Extension-point names fired by the character subsystem. Plugins (Lua or Go)
// subscribe to these to veto or observe lifecycle events.
const (
	CanCreateCharacter     = "CanCreateCharacter"     // veto: (owner string, payload)
	AdjustCreationPayload  = "AdjustCreationPayload"  // notify: (owner string, payload) — may mutate payload
	OnCharacterRestored    = "OnCharacterRestored"    // notify: (character)
	CanRestoreInventory    = "CanRestoreInventory"    // veto: (charID int32, invID int32, subType string)
	OnCharacterDeleted     = "OnCharacterDeleted"     // notify: (charID int32, owner string)
	OnCharacterDisconnect  = "OnCharacterDisconnect"  // notify: (character)
)

// VetoFunc inspects an event and may reject it with a reason code plus
// arguments for client display. ok=true lets the event proceed.
type VetoFunc func(args ...any) (ok bool, reason string, reasonArgs []any)

// NotifyFunc observes an event. Mutating reference arguments is allowed.
type NotifyFunc func(args ...any)

// Bus is a named extension-point registry. Registration happens at boot;
// firing happens on the game loop, so the lock is only contested at startup.
type Bus struct {
	mu       sync.RWMutex
	vetoes   map[string][]VetoFunc
	notifies map[string][]NotifyFunc
}

func NewBus() *Bus {
	return &Bus{
		vetoes:   make(map[string][]VetoFunc),
		notifies: make(map[string][]NotifyFunc),
	}
}

// OnVeto registers a veto hook for the named extension point.
func (b *Bus) OnVeto(name string, fn VetoFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.vetoes[name] = append(b.vetoes[name], fn)
}

// OnNotify registers an observer for the named extension point.
func (b *Bus) OnNotify(name string, fn NotifyFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.notifies[name] = append(b.notifies[name], fn)
}

// Check runs all veto hooks for the named point. The first rejection wins.
func (b *Bus) Check(name string, args ...any) (bool, string, []any) {
	b.mu.RLock()
	fns := b.vetoes[name]
	b.mu.RUnlock()
	for _, fn := range fns {
		if ok, reason, reasonArgs := fn(args...); !ok {
			return false, reason, reasonArgs
		}
	}
	return true, "", nil
}

// Notify fans the event out to all observers in registration order.
func (b *Bus) Notify(name string, args ...any) {
	b.mu.RLock()
	fns := b.notifies[name]
	b.mu.RUnlock()
	for _, fn := range fns {
		fn(args...)
	}
}
