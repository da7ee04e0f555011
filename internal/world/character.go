package world

import (
	"github.com/chronicle-rp/server/internal/charvar"
)

// Conn is the slice of a network session the world layer needs: buffered
// sends, liveness, and the owner identity. netio.Session satisfies it;
// tests substitute fakes.
type Conn interface {
	Send(data []byte)
	IsClosed() bool
	Account() string
}

// Character is the in-memory representation of a loaded character. It is
// constructed empty, populated from a creation payload or a database row,
// and lives in the State registry until explicitly deleted — it survives
// owner disconnects because other systems may still read last-known data.
type Character struct {
	ID    int32
	Owner string // stable external identity of the owning account

	// Session is the currently-attached live connection, or nil while the
	// owner is offline. Not ownership: the character outlives it.
	Session Conn

	// Dirty marks unsaved var changes for the autosave system.
	Dirty bool

	vars        map[string]any
	Inventories []*Inventory

	reg   *charvar.Registry
	state *State
}

func NewCharacter(id int32, owner string, reg *charvar.Registry, state *State) *Character {
	return &Character{
		ID:    id,
		Owner: owner,
		vars:  make(map[string]any),
		reg:   reg,
		state: state,
	}
}

// RawValue reads the var map directly, reporting presence.
func (c *Character) RawValue(name string) (any, bool) {
	v, ok := c.vars[name]
	return v, ok
}

// SetRawValue writes the var map directly, without replication or dirty
// tracking. Used by the load path and by descriptor set overrides.
func (c *Character) SetRawValue(name string, v any) {
	c.vars[name] = v
}

// Value returns the current var value, the descriptor default when unset, or
// nil for an unregistered name. Descriptors may override the read entirely.
func (c *Character) Value(name string) any {
	v := c.reg.Get(name)
	if v == nil {
		return nil
	}
	if v.OnGet != nil {
		return v.OnGet(c, v.Default)
	}
	if val, ok := c.vars[name]; ok {
		return val
	}
	return v.Default
}

// SetValue stores a var value and replicates the change per the descriptor's
// flags. The server is the sole writer of truth; receivers apply updates
// last-write-wins.
func (c *Character) SetValue(name string, val any) error {
	v := c.reg.Get(name)
	if v == nil {
		return charvar.ErrUnknownVar
	}
	if v.Flags.Has(charvar.NotModifiable) {
		return charvar.ErrNotModifiable
	}
	if v.OnSet != nil {
		if err := v.OnSet(c, val); err != nil {
			return err
		}
	} else {
		c.vars[name] = val
		if !v.Flags.Has(charvar.NoNetworking) {
			c.ReplicateVar(name, val, v.Flags.Has(charvar.Local))
		}
	}
	if v.Persisted() || v.Field != "" {
		c.Dirty = true
	}
	v.FireHooks("OnSet", c, val)
	return nil
}

// SubValue reads one key of a keyed-bag var via its descriptor override.
func (c *Character) SubValue(name, key string) any {
	v := c.reg.Get(name)
	if v == nil || v.OnGet == nil {
		return nil
	}
	return v.OnGet(c, v.Default, key)
}

// SetSubValue writes one key of a keyed-bag var via its descriptor override;
// only the changed key/value pair replicates, not the whole mapping.
func (c *Character) SetSubValue(name, key string, val any) error {
	v := c.reg.Get(name)
	if v == nil {
		return charvar.ErrUnknownVar
	}
	if v.Flags.Has(charvar.NotModifiable) {
		return charvar.ErrNotModifiable
	}
	if v.OnSet == nil {
		return charvar.ErrUnknownVar
	}
	if err := v.OnSet(c, val, key); err != nil {
		return err
	}
	if v.Field != "" {
		c.Dirty = true
	}
	v.FireHooks("OnSet", c, val)
	return nil
}

// ReplicateVar pushes a var change to subscribers: every live session for
// broadcast vars, the owning session only for local ones.
func (c *Character) ReplicateVar(name string, v any, local bool) {
	if c.state == nil {
		return
	}
	if local {
		c.state.SendVar(c.Session, c.ID, name, v)
		return
	}
	c.state.BroadcastVar(c.ID, name, v)
}

// ReplicateSubValue pushes a single changed key of a keyed-bag var to the
// owning session.
func (c *Character) ReplicateSubValue(name, key string, v any) {
	if c.state == nil {
		return
	}
	c.state.SendData(c.Session, c.ID, key, v)
}

// Snapshot returns the displayable vars (current value or default) for the
// character-info message.
func (c *Character) Snapshot() map[string]any {
	out := make(map[string]any)
	for _, v := range c.reg.Ordered() {
		if v.Flags.Has(charvar.NoDisplay) {
			continue
		}
		out[v.Name] = c.Value(v.Name)
	}
	return out
}

// AttachInventory places an inventory on the character: an untyped inventory
// becomes the primary at slot 1, tagged bags append after it.
func (c *Character) AttachInventory(inv *Inventory) {
	if inv.SubType == "" {
		if len(c.Inventories) > 0 && c.Inventories[0].SubType == "" {
			c.Inventories[0] = inv
			return
		}
		c.Inventories = append([]*Inventory{inv}, c.Inventories...)
		return
	}
	c.Inventories = append(c.Inventories, inv)
}

// Primary returns the slot-1 inventory, or nil before attachment completes.
func (c *Character) Primary() *Inventory {
	if len(c.Inventories) == 0 || c.Inventories[0].SubType != "" {
		return nil
	}
	return c.Inventories[0]
}

// HasLiveSession reports whether a connected, non-closing session is
// attached. Every continuation that touches the session must check this.
func (c *Character) HasLiveSession() bool {
	return c.Session != nil && !c.Session.IsClosed()
}
