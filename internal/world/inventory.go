package world

// Inventory is the metadata handle for one attached inventory: its database
// identity, grid dimensions, and optional bag sub-type. Item contents are
// owned by the inventory subsystem, not this package.
type Inventory struct {
	ID      int32
	CharID  int32
	SubType string // "" = primary inventory
	Width   int
	Height  int
}

func NewInventory(id, charID int32, subType string, width, height int) *Inventory {
	return &Inventory{
		ID:      id,
		CharID:  charID,
		SubType: subType,
		Width:   width,
		Height:  height,
	}
}

// IsBag reports whether this is a tagged secondary inventory.
func (inv *Inventory) IsBag() bool {
	return inv.SubType != ""
}
