package charvar

import (
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Registry is the process-wide var table. It is populated during boot (Go
// core vars first, then ruleset Lua scripts), sealed before the server
// accepts connections, and read-only afterwards.
type Registry struct {
	mu     sync.RWMutex
	vars   map[string]*Var
	sealed bool
	log    *zap.Logger
}

func NewRegistry(log *zap.Logger) *Registry {
	return &Registry{
		vars: make(map[string]*Var),
		log:  log,
	}
}

// Register stores a descriptor. Re-registration overwrites silently — last
// writer wins, which is the supported override pattern for rulesets that
// replace a core var. After Seal it becomes a logged no-op.
func (r *Registry) Register(v *Var) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		r.log.Warn("var registration after seal ignored", zap.String("var", v.Name))
		return
	}
	if v.hooks == nil {
		v.hooks = make(map[string][]HookFunc)
	}
	if prev, ok := r.vars[v.Name]; ok {
		// Carry secondary hooks across an override.
		for name, fns := range prev.hooks {
			v.hooks[name] = append(fns, v.hooks[name]...)
		}
	}
	r.vars[v.Name] = v
}

// Hook attaches a named secondary callback to an already-registered var.
func (r *Registry) Hook(varName, hookName string, fn HookFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		return ErrSealed
	}
	v, ok := r.vars[varName]
	if !ok {
		return ErrUnknownVar
	}
	v.hooks[hookName] = append(v.hooks[hookName], fn)
	return nil
}

// Seal freezes the registry. Called once after boot scripts have run.
func (r *Registry) Seal() {
	r.mu.Lock()
	r.sealed = true
	r.mu.Unlock()
}

func (r *Registry) Sealed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sealed
}

// Get returns the descriptor for name, or nil.
func (r *Registry) Get(name string) *Var {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.vars[name]
}

// Persisted returns the vars that participate in save/load queries, sorted by
// column name so generated SQL is deterministic.
func (r *Registry) Persisted() []*Var {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Var, 0, len(r.vars))
	for _, v := range r.vars {
		if v.Persisted() {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out
}

// Ordered returns every var ascending by (order, name) — the creation
// validation order.
func (r *Registry) Ordered() []*Var {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Var, 0, len(r.vars))
	for _, v := range r.vars {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Len returns the number of registered vars.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.vars)
}
