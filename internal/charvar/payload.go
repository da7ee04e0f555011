package charvar

import (
	"fmt"

	"github.com/chronicle-rp/server/internal/netio/packet"
)

// Payload is the candidate field map submitted by a client during character
// creation. Field order is preserved so wire round-trips and validation
// passes are deterministic. Values are the tagged runtime kinds: string,
// float64, bool, or a JSON container.
type Payload struct {
	names  []string
	fields map[string]any
}

func NewPayload() *Payload {
	return &Payload{fields: make(map[string]any)}
}

// Set stores a field, appending to the order on first insert.
func (p *Payload) Set(name string, v any) {
	if _, ok := p.fields[name]; !ok {
		p.names = append(p.names, name)
	}
	p.fields[name] = v
}

// Get returns the field value or nil.
func (p *Payload) Get(name string) any {
	return p.fields[name]
}

// Has reports whether the field is present.
func (p *Payload) Has(name string) bool {
	_, ok := p.fields[name]
	return ok
}

// Delete removes a field, preserving the order of the rest.
func (p *Payload) Delete(name string) {
	if _, ok := p.fields[name]; !ok {
		return
	}
	delete(p.fields, name)
	for i, n := range p.names {
		if n == name {
			p.names = append(p.names[:i], p.names[i+1:]...)
			break
		}
	}
}

// Names returns the field names in insertion order.
func (p *Payload) Names() []string {
	out := make([]string, len(p.names))
	copy(out, p.names)
	return out
}

func (p *Payload) Len() int {
	return len(p.names)
}

// Clone returns a shallow copy; the provisional builder the validation
// pipeline mutates without touching the caller's payload.
func (p *Payload) Clone() *Payload {
	out := NewPayload()
	for _, n := range p.names {
		out.Set(n, p.fields[n])
	}
	return out
}

// Merge applies every entry of m onto the payload.
func (p *Payload) Merge(m map[string]any) {
	for k, v := range m {
		p.Set(k, v)
	}
}

// EncodeTo writes the payload as a field count followed by name + tagged
// value pairs.
func (p *Payload) EncodeTo(w *packet.Writer) {
	w.WriteH(uint16(len(p.names)))
	for _, n := range p.names {
		w.WriteS(n)
		w.WriteTagged(p.fields[n])
	}
}

// DecodePayload reads a payload written by EncodeTo. Field count is capped to
// keep a hostile client from forcing large allocations.
func DecodePayload(r *packet.Reader) (*Payload, error) {
	count := int(r.ReadH())
	if count > 64 {
		return nil, fmt.Errorf("payload field count %d exceeds limit", count)
	}
	p := NewPayload()
	for i := 0; i < count; i++ {
		name := r.ReadS()
		if name == "" {
			return nil, fmt.Errorf("payload field %d has empty name", i)
		}
		v, err := r.ReadTagged()
		if err != nil {
			return nil, fmt.Errorf("payload field %q: %w", name, err)
		}
		p.Set(name, v)
	}
	return p, nil
}
