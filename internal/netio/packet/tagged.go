package packet

import (
	"encoding/json"
	"fmt"
)

// Wire tags for typed values carried in var/data replication and creation
// payloads. Structured values travel as JSON text.
const (
	TagNil    byte = 0
	TagString byte = 1
	TagNumber byte = 2
	TagBool   byte = 3
	TagStruct byte = 4
)

// WriteTagged writes a type-tagged value. Integers are normalized to float64
// on the wire; anything that is not a scalar is JSON-encoded.
func (w *Writer) WriteTagged(v any) {
	switch t := v.(type) {
	case nil:
		w.WriteC(TagNil)
	case string:
		w.WriteC(TagString)
		w.WriteS(t)
	case bool:
		w.WriteC(TagBool)
		if t {
			w.WriteC(1)
		} else {
			w.WriteC(0)
		}
	case float64:
		w.WriteC(TagNumber)
		w.WriteF(t)
	case float32:
		w.WriteC(TagNumber)
		w.WriteF(float64(t))
	case int:
		w.WriteC(TagNumber)
		w.WriteF(float64(t))
	case int32:
		w.WriteC(TagNumber)
		w.WriteF(float64(t))
	case int64:
		w.WriteC(TagNumber)
		w.WriteF(float64(t))
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			w.WriteC(TagNil)
			return
		}
		w.WriteC(TagStruct)
		w.WriteS(string(raw))
	}
}

// ReadTagged reads a type-tagged value written by WriteTagged.
func (r *Reader) ReadTagged() (any, error) {
	tag := r.ReadC()
	switch tag {
	case TagNil:
		return nil, nil
	case TagString:
		return r.ReadS(), nil
	case TagNumber:
		return r.ReadF(), nil
	case TagBool:
		return r.ReadC() != 0, nil
	case TagStruct:
		var v any
		if err := json.Unmarshal([]byte(r.ReadS()), &v); err != nil {
			return nil, fmt.Errorf("decode structured value: %w", err)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("unknown value tag %d", tag)
	}
}
