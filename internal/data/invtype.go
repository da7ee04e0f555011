package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// InvType describes a bag inventory sub-type and its grid dimensions.
type InvType struct {
	SubType string `yaml:"sub_type"`
	Width   int    `yaml:"width"`
	Height  int    `yaml:"height"`
}

type invTypeListFile struct {
	InvTypes []InvType `yaml:"inventory_types"`
}

// InvTypeTable resolves a bag sub-type tag into effective dimensions.
type InvTypeTable struct {
	byType map[string]*InvType
}

func NewInvTypeTable() *InvTypeTable {
	return &InvTypeTable{byType: make(map[string]*InvType)}
}

// LoadInvTypeTable reads the YAML seed file; missing file yields an empty table.
func LoadInvTypeTable(path string) (*InvTypeTable, error) {
	t := NewInvTypeTable()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return t, nil
		}
		return nil, fmt.Errorf("read inventory type list %s: %w", path, err)
	}
	var file invTypeListFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse inventory type list %s: %w", path, err)
	}
	for i := range file.InvTypes {
		t.Add(&file.InvTypes[i])
	}
	return t, nil
}

// Add registers or overrides an inventory type. Last writer wins.
func (t *InvTypeTable) Add(it *InvType) {
	t.byType[it.SubType] = it
}

// Get returns the descriptor for a sub-type, or nil when the sub-type has no
// declared dimensions (callers fall back to character defaults).
func (t *InvTypeTable) Get(subType string) *InvType {
	return t.byType[subType]
}

func (t *InvTypeTable) Count() int {
	return len(t.byType)
}
