package data

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Faction holds static data for one faction, loaded from YAML or registered
// from ruleset Lua.
type Faction struct {
	UniqueID    string `yaml:"unique_id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Color       string `yaml:"color"`
	IsDefault   bool   `yaml:"is_default"` // joinable without a whitelist
	Pay         int    `yaml:"pay"`        // periodic salary, 0 = none
}

type factionListFile struct {
	Factions []Faction `yaml:"factions"`
}

// FactionTable is a lookup-by-identifier-or-index service over factions.
type FactionTable struct {
	byID  map[string]*Faction
	order []string
}

func NewFactionTable() *FactionTable {
	return &FactionTable{byID: make(map[string]*Faction)}
}

// LoadFactionTable reads the YAML seed file. A missing file yields an empty
// table; rulesets may register everything from Lua.
func LoadFactionTable(path string) (*FactionTable, error) {
	t := NewFactionTable()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return t, nil
		}
		return nil, fmt.Errorf("read faction list %s: %w", path, err)
	}
	var file factionListFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse faction list %s: %w", path, err)
	}
	for i := range file.Factions {
		t.Add(&file.Factions[i])
	}
	return t, nil
}

// Add registers or overrides a faction. Last writer wins.
func (t *FactionTable) Add(f *Faction) {
	if _, ok := t.byID[f.UniqueID]; !ok {
		t.order = append(t.order, f.UniqueID)
	}
	t.byID[f.UniqueID] = f
}

// Get returns the faction by unique ID, or nil.
func (t *FactionTable) Get(uniqueID string) *Faction {
	return t.byID[uniqueID]
}

// ByIndex returns the faction at registration index (1-based), or nil.
func (t *FactionTable) ByIndex(idx int) *Faction {
	if idx < 1 || idx > len(t.order) {
		return nil
	}
	return t.byID[t.order[idx-1]]
}

// IDs returns all unique IDs sorted; used as a restore allow-list.
func (t *FactionTable) IDs() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	sort.Strings(out)
	return out
}

// Default returns the first faction flagged joinable-by-default, or nil.
func (t *FactionTable) Default() *Faction {
	for _, id := range t.order {
		if t.byID[id].IsDefault {
			return t.byID[id]
		}
	}
	return nil
}

func (t *FactionTable) Count() int {
	return len(t.byID)
}
