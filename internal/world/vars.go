package world

import (
	"strings"

	"github.com/chronicle-rp/server/internal/charvar"
	"github.com/chronicle-rp/server/internal/config"
	"github.com/chronicle-rp/server/internal/data"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// RegisterCoreVars declares the built-in character vars. Rulesets extend this
// set from scripts before the registry seals.
func RegisterCoreVars(reg *charvar.Registry, cfg *config.Config, factions *data.FactionTable, classes *data.ClassTable) {
	reg.Register(&charvar.Var{
		Name:  "owner",
		Field: "steamid",
		Type:  charvar.TypeString,
		Flags: charvar.NoDisplay | charvar.NoNetworking | charvar.NotModifiable | charvar.SaveLoadInitialOnly,
	})

	reg.Register(&charvar.Var{
		Name:    "name",
		Field:   "name",
		Type:    charvar.TypeString,
		Default: "John Doe",
		Order:   1,
		Validate: func(value any, _ *charvar.Payload, _ charvar.Actor) (any, error) {
			s, ok := value.(string)
			if !ok {
				return nil, charvar.Reject("name_required")
			}
			s = normalizeName(s)
			if n := len([]rune(s)); n < cfg.Character.MinNameLength || n > cfg.Character.MaxNameLength {
				return nil, charvar.Reject("name_length",
					cfg.Character.MinNameLength, cfg.Character.MaxNameLength)
			}
			return s, nil
		},
	})

	reg.Register(&charvar.Var{
		Name:    "description",
		Field:   "description",
		Type:    charvar.TypeString,
		Default: "",
		Order:   2,
		Validate: func(value any, _ *charvar.Payload, _ charvar.Actor) (any, error) {
			s, _ := value.(string)
			s = strings.TrimSpace(s)
			if len([]rune(s)) > cfg.Character.MaxDescLength {
				return nil, charvar.Reject("desc_length", cfg.Character.MaxDescLength)
			}
			return s, nil
		},
	})

	reg.Register(&charvar.Var{
		Name:    "model",
		Field:   "model",
		Type:    charvar.TypeString,
		Default: "models/citizen.mdl",
		Order:   3,
		Validate: func(value any, _ *charvar.Payload, _ charvar.Actor) (any, error) {
			s, ok := value.(string)
			if !ok || s == "" {
				return nil, charvar.Reject("model_required")
			}
			return strings.ToLower(s), nil
		},
	})

	reg.Register(&charvar.Var{
		Name:    "faction",
		Field:   "faction",
		Type:    charvar.TypeString,
		Default: defaultFactionID(factions),
		Order:   4,
		FilterValues: func() []string {
			return factions.IDs()
		},
		Validate: func(value any, _ *charvar.Payload, _ charvar.Actor) (any, error) {
			if value == nil {
				if f := factions.Default(); f != nil {
					return f.UniqueID, nil
				}
				return nil, charvar.Reject("invalid_faction")
			}
			s, _ := value.(string)
			if factions.Get(s) == nil {
				return nil, charvar.Reject("invalid_faction")
			}
			return s, nil
		},
	})

	// Class carries no validate hook: assignment happens in-game, not at
	// creation. The filter still excludes rows whose stored class no longer
	// exists in the loaded tables; the empty string stays in the allow-list
	// so unassigned rows remain loadable.
	reg.Register(&charvar.Var{
		Name:    "class",
		Field:   "class",
		Type:    charvar.TypeString,
		Default: "",
		Order:   5,
		Flags:   charvar.NoDisplay,
		FilterValues: func() []string {
			return append(classes.IDs(), "")
		},
	})

	reg.Register(&charvar.Var{
		Name:    "money",
		Field:   "money",
		Type:    charvar.TypeNumber,
		Default: float64(cfg.Character.DefaultMoney),
		Flags:   charvar.Local | charvar.NoDisplay,
	})

	// The data var is a keyed bag: SetSubValue/SubValue address individual
	// keys, and only the changed pair replicates to the owning session.
	reg.Register(&charvar.Var{
		Name:    "data",
		Field:   "data",
		Type:    charvar.TypeText,
		Default: map[string]any{},
		Flags:   charvar.Local | charvar.NoDisplay,
		OnSet: func(e charvar.Entity, value any, extra ...any) error {
			if len(extra) == 0 {
				m, ok := value.(map[string]any)
				if !ok {
					m = map[string]any{}
				}
				e.SetRawValue("data", m)
				return nil
			}
			key := extra[0].(string)
			m := bagCopy(e)
			m[key] = value
			e.SetRawValue("data", m)
			e.ReplicateSubValue("data", key, value)
			return nil
		},
		OnGet: func(e charvar.Entity, def any, extra ...any) any {
			raw, ok := e.RawValue("data")
			m, isMap := raw.(map[string]any)
			if !ok || !isMap {
				m, _ = def.(map[string]any)
			}
			if len(extra) == 0 {
				return m
			}
			if m == nil {
				return nil
			}
			return m[extra[0].(string)]
		},
	})
}

// normalizeName folds width variants, applies NFC, and collapses interior
// whitespace so visually identical names compare equal.
func normalizeName(s string) string {
	s = width.Fold.String(s)
	s = norm.NFC.String(s)
	return strings.Join(strings.Fields(s), " ")
}

func defaultFactionID(factions *data.FactionTable) string {
	if f := factions.Default(); f != nil {
		return f.UniqueID
	}
	return ""
}

func bagCopy(e charvar.Entity) map[string]any {
	raw, _ := e.RawValue("data")
	src, _ := raw.(map[string]any)
	m := make(map[string]any, len(src)+1)
	for k, v := range src {
		m[k] = v
	}
	return m
}
