package data

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Class holds static data for one character class within a faction.
type Class struct {
	UniqueID  string `yaml:"unique_id"`
	Name      string `yaml:"name"`
	Faction   string `yaml:"faction"` // owning faction unique ID, "" = any
	IsDefault bool   `yaml:"is_default"`
	Pay       int    `yaml:"pay"`
	Limit     int    `yaml:"limit"` // max concurrent members, 0 = unlimited
}

type classListFile struct {
	Classes []Class `yaml:"classes"`
}

// ClassTable is a lookup-by-identifier-or-index service over classes.
type ClassTable struct {
	byID  map[string]*Class
	order []string
}

func NewClassTable() *ClassTable {
	return &ClassTable{byID: make(map[string]*Class)}
}

// LoadClassTable reads the YAML seed file; missing file yields an empty table.
func LoadClassTable(path string) (*ClassTable, error) {
	t := NewClassTable()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return t, nil
		}
		return nil, fmt.Errorf("read class list %s: %w", path, err)
	}
	var file classListFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse class list %s: %w", path, err)
	}
	for i := range file.Classes {
		t.Add(&file.Classes[i])
	}
	return t, nil
}

// Add registers or overrides a class. Last writer wins.
func (t *ClassTable) Add(c *Class) {
	if _, ok := t.byID[c.UniqueID]; !ok {
		t.order = append(t.order, c.UniqueID)
	}
	t.byID[c.UniqueID] = c
}

// Get returns the class by unique ID, or nil.
func (t *ClassTable) Get(uniqueID string) *Class {
	return t.byID[uniqueID]
}

// ByIndex returns the class at registration index (1-based), or nil.
func (t *ClassTable) ByIndex(idx int) *Class {
	if idx < 1 || idx > len(t.order) {
		return nil
	}
	return t.byID[t.order[idx-1]]
}

// ForFaction returns the classes available to a faction.
func (t *ClassTable) ForFaction(factionID string) []*Class {
	var out []*Class
	for _, id := range t.order {
		c := t.byID[id]
		if c.Faction == "" || c.Faction == factionID {
			out = append(out, c)
		}
	}
	return out
}

// IDs returns all unique IDs sorted; used as a restore allow-list.
func (t *ClassTable) IDs() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	sort.Strings(out)
	return out
}

func (t *ClassTable) Count() int {
	return len(t.byID)
}
