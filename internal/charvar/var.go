package charvar

// StorageType tags how a var's value is serialized, coerced on load, and
// defaulted at creation. One Decode function exists per tag; the same
// functions serve load-time decoding and creation-time defaulting.
type StorageType int

const (
	TypeString StorageType = iota
	TypeText               // long text / serialized structured data
	TypeNumber
	TypeBool
	TypeID // positive integer identifier
)

func (t StorageType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeText:
		return "text"
	case TypeNumber:
		return "number"
	case TypeBool:
		return "bool"
	case TypeID:
		return "id"
	default:
		return "invalid"
	}
}

// Flags control display, networking, mutability and persistence of a var.
type Flags uint8

const (
	// NoDisplay hides the var from creation menus; combined with a missing
	// validate hook it causes the field to be stripped from client payloads.
	NoDisplay Flags = 1 << iota
	// NoNetworking suppresses replication on set.
	NoNetworking
	// NotModifiable rejects all setter calls.
	NotModifiable
	// SaveLoadInitialOnly excludes the var from periodic save/load queries;
	// its column is written once at creation only.
	SaveLoadInitialOnly
	// Local replicates only to the owning session instead of broadcasting.
	Local
)

func (f Flags) Has(x Flags) bool { return f&x != 0 }

// Actor identifies the session driving a creation or mutation. Kept minimal
// so the registry stays independent of the network layer.
type Actor interface {
	Account() string
	IsClosed() bool
}

// Entity is the var storage a descriptor's get/set overrides operate on.
// Implemented by world.Character.
type Entity interface {
	// RawValue reads the var map directly, reporting presence.
	RawValue(name string) (any, bool)
	// SetRawValue writes the var map directly, without replication.
	SetRawValue(name string, v any)
	// ReplicateVar pushes a var change to subscribers. local restricts the
	// delivery to the owning session.
	ReplicateVar(name string, v any, local bool)
	// ReplicateSubValue pushes a single changed key of a keyed-bag var to the
	// owning session.
	ReplicateSubValue(name, key string, v any)
}

// ValidateFunc normalizes or rejects a candidate creation value. Returning a
// non-nil value replaces the payload field; returning (nil, nil) keeps it
// unchanged; returning a *ValidationError aborts the whole creation.
type ValidateFunc func(value any, payload *Payload, actor Actor) (any, error)

// AdjustFunc derives additional persisted fields from an accepted value into
// out. The pipeline merges out into the payload only after every var has
// validated successfully.
type AdjustFunc func(actor Actor, payload *Payload, value any, out map[string]any)

// SetOverride replaces the default "store and replicate" setter. extra carries
// sub-arguments such as the key of a keyed-bag var.
type SetOverride func(e Entity, value any, extra ...any) error

// GetOverride replaces the default "read or default" getter.
type GetOverride func(e Entity, def any, extra ...any) any

// HookFunc is a named secondary callback attached to a var; fired after the
// var's setter runs.
type HookFunc func(e Entity, value any)

// Var describes one registered character var. Immutable once the registry is
// sealed.
type Var struct {
	Name    string
	Field   string // storage column; "" means never persisted
	Type    StorageType
	Default any
	Flags   Flags
	// Order fixes the validation position during creation; vars sharing an
	// order validate in name order.
	Order int

	// FilterValues returns the allow-list for restore queries. Rows whose
	// stored value falls outside the list are excluded entirely — strict
	// filtering, not coercion.
	FilterValues func() []string

	Validate ValidateFunc
	Adjust   AdjustFunc
	OnSet    SetOverride
	OnGet    GetOverride

	hooks map[string][]HookFunc
}

// Persisted reports whether the var participates in save/load queries.
func (v *Var) Persisted() bool {
	return v.Field != "" && !v.Flags.Has(SaveLoadInitialOnly)
}

// FireHooks invokes the named secondary callbacks attached to this var.
func (v *Var) FireHooks(hookName string, e Entity, value any) {
	for _, fn := range v.hooks[hookName] {
		fn(e, value)
	}
}
