package charvar

import (
	"errors"
	"fmt"
)

// ValidatePayload runs the creation validation pipeline over a client
// payload:
//
//  1. strip fields with no descriptor, and fields whose descriptor has no
//     validate hook and is flagged NoDisplay (internal-only columns a client
//     must not inject),
//  2. run each var's validate hook in ascending order — a rejection aborts
//     the whole pass, a returned value overwrites the field, nil keeps it,
//  3. collect adjust-derived fields into a side buffer.
//
// The side buffer is returned unmerged: the caller stamps ownership and runs
// its final extension point first, then merges the buffer so adjusters keep
// the last word. The input payload is never mutated.
func (r *Registry) ValidatePayload(actor Actor, in *Payload) (*Payload, map[string]any, error) {
	p := in.Clone()

	for _, name := range p.Names() {
		v := r.Get(name)
		if v == nil || (v.Validate == nil && v.Flags.Has(NoDisplay)) {
			p.Delete(name)
		}
	}

	adjusted := make(map[string]any)
	for _, v := range r.Ordered() {
		if v.Validate != nil {
			out, err := v.Validate(p.Get(v.Name), p, actor)
			if err != nil {
				var verr *ValidationError
				if errors.As(err, &verr) {
					verr.Var = v.Name
					return nil, nil, verr
				}
				return nil, nil, fmt.Errorf("validate %q: %w", v.Name, err)
			}
			if out != nil {
				p.Set(v.Name, out)
			}
		}
		if v.Adjust != nil {
			v.Adjust(actor, p, p.Get(v.Name), adjusted)
		}
	}

	return p, adjusted, nil
}
