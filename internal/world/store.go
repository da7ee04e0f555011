package world

import "context"

// CharacterRow is one raw database row: column name → driver value. The
// service coerces values through the var registry's storage types; the store
// performs no interpretation beyond strict allow-list filtering in SQL.
type CharacterRow map[string]any

// CharacterStore is the persistence gateway for character rows. Implemented
// by persist.CharacterRepo; tests substitute in-memory fakes.
type CharacterStore interface {
	// SelectByOwner returns the persisted var columns for every row in the
	// schema namespace belonging to owner, optionally narrowed to one ID.
	// Vars declaring an allow-list exclude out-of-list rows at the query
	// level.
	SelectByOwner(ctx context.Context, owner string, specificID int32) ([]CharacterRow, error)
	// Insert persists a new row and returns the assigned ID.
	Insert(ctx context.Context, fields map[string]any) (int32, error)
	// Update rewrites the given persisted columns for one character.
	Update(ctx context.Context, id int32, fields map[string]any) error
	// Delete removes the row.
	Delete(ctx context.Context, id int32) error
	// CountByOwner returns the number of rows belonging to owner in the
	// schema namespace.
	CountByOwner(ctx context.Context, owner string) (int, error)
}

// InventoryMeta is the stored metadata of one attached inventory.
type InventoryMeta struct {
	ID      int32
	SubType string
}

// InventoryStore is the persistence gateway for inventory metadata.
type InventoryStore interface {
	SelectByChar(ctx context.Context, charID int32) ([]InventoryMeta, error)
	Insert(ctx context.Context, charID int32, subType string) (int32, error)
	DeleteByChar(ctx context.Context, charID int32) error
}
