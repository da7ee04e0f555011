package world

import (
	"context"
	"fmt"

	"github.com/chronicle-rp/server/internal/charvar"
	"github.com/chronicle-rp/server/internal/config"
	"github.com/chronicle-rp/server/internal/data"
	"github.com/chronicle-rp/server/internal/hooks"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Service coordinates the var registry, the persistence gateway, and the
// world state for character restore, creation, save, and deletion.
type Service struct {
	state    *State
	reg      *charvar.Registry
	chars    CharacterStore
	invs     InventoryStore
	invTypes *data.InvTypeTable
	bus      *hooks.Bus
	cfg      *config.Config

	// flight coalesces concurrent restores per owner so a second request
	// issued before the first's queries complete reuses the same result
	// instead of issuing a duplicate query.
	flight singleflight.Group

	log *zap.Logger
}

func NewService(
	state *State,
	reg *charvar.Registry,
	chars CharacterStore,
	invs InventoryStore,
	invTypes *data.InvTypeTable,
	bus *hooks.Bus,
	cfg *config.Config,
	log *zap.Logger,
) *Service {
	return &Service{
		state:    state,
		reg:      reg,
		chars:    chars,
		invs:     invs,
		invTypes: invTypes,
		bus:      bus,
		cfg:      cfg,
		log:      log,
	}
}

// Restore loads all of an owner's characters, returning their IDs in row
// order.
//
// The cached fast path serves returning players without any database access:
// every cached character that has no live session is reattached to sess.
// force bypasses and rebuilds the cache; specificID narrows the query to one
// row and leaves the cache untouched (a partial set must not poison it).
//
// Rows whose var values fall outside a declared allow-list are excluded by
// the store's query — strict filtering, not coercion. Rows with an
// unparseable ID are logged and skipped without aborting the batch.
func (s *Service) Restore(ctx context.Context, owner string, sess Conn, force bool, specificID int32) ([]int32, error) {
	if !force && specificID == 0 {
		if ids, ok := s.state.CachedIDs(owner); ok {
			s.reattach(ids, sess)
			return ids, nil
		}
	}

	key := fmt.Sprintf("%s/%d", owner, specificID)
	result, err, _ := s.flight.Do(key, func() (any, error) {
		return s.restoreFromStore(ctx, owner, specificID)
	})
	if err != nil {
		return nil, err
	}

	ids := result.([]int32)
	s.reattach(ids, sess)
	return ids, nil
}

func (s *Service) restoreFromStore(ctx context.Context, owner string, specificID int32) ([]int32, error) {
	rows, err := s.chars.SelectByOwner(ctx, owner, specificID)
	if err != nil {
		return nil, fmt.Errorf("select characters for %s: %w", owner, err)
	}

	ids := make([]int32, 0, len(rows))
	for _, row := range rows {
		id, err := charvar.TypeID.Decode(row["id"], nil)
		if err != nil {
			s.log.Error("dropping character row with bad identifier",
				zap.String("owner", owner),
				zap.Error(err),
			)
			continue
		}
		charID := id.(int32)

		c := NewCharacter(charID, owner, s.reg, s.state)
		for _, v := range s.reg.Persisted() {
			val, err := v.Type.Decode(row[v.Field], v.Default)
			if err != nil {
				s.log.Warn("var column decode failed, using default",
					zap.Int32("char", charID),
					zap.String("var", v.Name),
					zap.Error(err),
				)
				val = v.Default
			}
			c.SetRawValue(v.Name, val)
		}

		s.state.AddCharacter(c)
		s.bus.Notify(hooks.OnCharacterRestored, c)

		if err := s.restoreInventories(ctx, c); err != nil {
			return nil, fmt.Errorf("restore inventories for char %d: %w", charID, err)
		}

		ids = append(ids, charID)
	}

	if specificID == 0 {
		s.state.SetCachedIDs(owner, ids)
	}
	return ids, nil
}

// restoreInventories fetches inventory metadata for a character and attaches
// each surviving inventory; a character with no stored inventories gets
// exactly one default-dimension primary.
func (s *Service) restoreInventories(ctx context.Context, c *Character) error {
	metas, err := s.invs.SelectByChar(ctx, c.ID)
	if err != nil {
		return err
	}

	if len(metas) == 0 {
		invID, err := s.invs.Insert(ctx, c.ID, "")
		if err != nil {
			return err
		}
		c.AttachInventory(NewInventory(invID, c.ID, "",
			s.cfg.Character.DefaultInvWidth, s.cfg.Character.DefaultInvHeight))
		return nil
	}

	for _, meta := range metas {
		if ok, _, _ := s.bus.Check(hooks.CanRestoreInventory, c.ID, meta.ID, meta.SubType); !ok {
			continue
		}
		w, h := s.cfg.Character.DefaultInvWidth, s.cfg.Character.DefaultInvHeight
		if it := s.invTypes.Get(meta.SubType); it != nil {
			w, h = it.Width, it.Height
		}
		c.AttachInventory(NewInventory(meta.ID, c.ID, meta.SubType, w, h))
	}
	return nil
}

func (s *Service) reattach(ids []int32, sess Conn) {
	if sess == nil || sess.IsClosed() {
		return
	}
	for _, id := range ids {
		if c := s.state.Character(id); c != nil && !c.HasLiveSession() {
			c.Session = sess
		}
	}
}

// Create persists a validated payload as a new character row plus one linked
// primary inventory, constructs the in-memory character, and registers it in
// the loaded registry and the owner cache. This is the minimal bootstrap
// path: fields missing from the payload fall back to hard-coded per-type
// defaults, not descriptor defaults — the richer defaulting belongs to the
// validation pipeline that ran before.
func (s *Service) Create(ctx context.Context, p *charvar.Payload) (*Character, error) {
	owner, _ := p.Get("owner").(string)
	if owner == "" {
		return nil, fmt.Errorf("creation payload missing owner identity")
	}

	if !p.Has("money") {
		p.Set("money", float64(s.cfg.Character.DefaultMoney))
	}

	fields := make(map[string]any)
	for _, v := range s.reg.Ordered() {
		if v.Field == "" {
			continue
		}
		var raw any
		if p.Has(v.Name) {
			raw = p.Get(v.Name)
		} else {
			raw = v.Type.BootstrapDefault()
		}
		enc, err := v.Type.EncodeSQL(raw)
		if err != nil {
			return nil, fmt.Errorf("encode field %q: %w", v.Name, err)
		}
		fields[v.Field] = enc
	}

	id, err := s.chars.Insert(ctx, fields)
	if err != nil {
		return nil, fmt.Errorf("insert character: %w", err)
	}

	invID, err := s.invs.Insert(ctx, id, "")
	if err != nil {
		return nil, fmt.Errorf("create default inventory: %w", err)
	}

	c := NewCharacter(id, owner, s.reg, s.state)
	for _, v := range s.reg.Ordered() {
		if v.Field == "" {
			continue
		}
		var raw any
		if p.Has(v.Name) {
			raw = p.Get(v.Name)
		}
		val, err := v.Type.Decode(raw, v.Default)
		if err != nil {
			val = v.Default
		}
		c.SetRawValue(v.Name, val)
	}
	c.AttachInventory(NewInventory(invID, id, "",
		s.cfg.Character.DefaultInvWidth, s.cfg.Character.DefaultInvHeight))

	s.state.AddCharacter(c)
	s.state.AppendCachedID(owner, id)

	s.log.Info("character created",
		zap.Int32("char", id),
		zap.String("owner", owner),
	)
	return c, nil
}

// Save writes every persisted var of a loaded character back to its row and
// clears the dirty mark.
func (s *Service) Save(ctx context.Context, c *Character) error {
	fields := make(map[string]any)
	for _, v := range s.reg.Persisted() {
		val, ok := c.RawValue(v.Name)
		if !ok {
			val = v.Default
		}
		enc, err := v.Type.EncodeSQL(val)
		if err != nil {
			return fmt.Errorf("encode field %q: %w", v.Name, err)
		}
		fields[v.Field] = enc
	}
	if err := s.chars.Update(ctx, c.ID, fields); err != nil {
		return fmt.Errorf("save character %d: %w", c.ID, err)
	}
	c.Dirty = false
	return nil
}

// Delete removes a character row, its inventories, and its registry entries.
// A nil requester is a server-side delete; otherwise the requester must own
// the character.
func (s *Service) Delete(ctx context.Context, id int32, requester Conn) error {
	c := s.state.Character(id)
	if c == nil {
		return charvar.ErrNotFound
	}
	if requester != nil && c.Owner != requester.Account() {
		return charvar.ErrUnauthorized
	}

	if err := s.chars.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete character %d: %w", id, err)
	}
	if err := s.invs.DeleteByChar(ctx, id); err != nil {
		return fmt.Errorf("delete inventories for %d: %w", id, err)
	}

	s.state.RemoveCharacter(id)
	s.bus.Notify(hooks.OnCharacterDeleted, id, c.Owner)
	return nil
}

// CountByOwner reports the number of persisted characters for policy checks.
func (s *Service) CountByOwner(ctx context.Context, owner string) (int, error) {
	return s.chars.CountByOwner(ctx, owner)
}

// State exposes the world state handle.
func (s *Service) State() *State {
	return s.state
}

// Registry exposes the var registry handle.
func (s *Service) Registry() *charvar.Registry {
	return s.reg
}
