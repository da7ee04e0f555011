package charvar

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// nullSentinel is the literal some upstream exporters store for absent
// values. Decoding maps it to the var's default.
const nullSentinel = "NULL"

// Decode coerces a raw stored value into the var's runtime representation,
// substituting def for absent or sentinel-marked values. One behavior per
// storage tag; used for both load-time decoding and creation-time defaulting.
func (t StorageType) Decode(raw any, def any) (any, error) {
	if raw == nil {
		return def, nil
	}
	switch t {
	case TypeString:
		s := rawString(raw)
		if s == nullSentinel {
			return def, nil
		}
		return s, nil

	case TypeText:
		// Drivers that decode structured columns hand us containers directly.
		switch raw.(type) {
		case map[string]any, []any:
			return raw, nil
		}
		s := rawString(raw)
		if s == nullSentinel || s == "" {
			return def, nil
		}
		// Structured text parses as a JSON container; anything else stays a
		// raw string.
		trimmed := strings.TrimSpace(s)
		if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
			var v any
			if err := json.Unmarshal([]byte(trimmed), &v); err == nil {
				return v, nil
			}
		}
		return s, nil

	case TypeNumber:
		switch n := raw.(type) {
		case float64:
			return n, nil
		case float32:
			return float64(n), nil
		case int:
			return float64(n), nil
		case int16:
			return float64(n), nil
		case int32:
			return float64(n), nil
		case int64:
			return float64(n), nil
		}
		s := rawString(raw)
		if s == nullSentinel {
			return def, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return def, nil
		}
		return f, nil

	case TypeBool:
		switch b := raw.(type) {
		case bool:
			return b, nil
		case int, int16, int32, int64:
			return fmt.Sprint(b) != "0", nil
		case float64:
			return b != 0, nil
		}
		s := rawString(raw)
		if s == nullSentinel {
			return def, nil
		}
		switch strings.ToLower(s) {
		case "", "0", "f", "false", "no":
			return false, nil
		default:
			return true, nil
		}

	case TypeID:
		var id int64
		switch n := raw.(type) {
		case int:
			id = int64(n)
		case int16:
			id = int64(n)
		case int32:
			id = int64(n)
		case int64:
			id = n
		case float64:
			id = int64(n)
		default:
			parsed, err := strconv.ParseInt(rawString(raw), 10, 32)
			if err != nil {
				return nil, fmt.Errorf("%w: identifier %q: %v", ErrMalformedRow, rawString(raw), err)
			}
			id = parsed
		}
		if id <= 0 {
			return nil, fmt.Errorf("%w: non-positive identifier %d", ErrMalformedRow, id)
		}
		return int32(id), nil
	}
	return def, nil
}

// BootstrapDefault is the hard-coded creation fallback per storage tag,
// deliberately independent of descriptor defaults: Create is a minimal
// bootstrap path, the richer defaults belong to the validation pipeline.
func (t StorageType) BootstrapDefault() any {
	switch t {
	case TypeString:
		return ""
	case TypeText:
		return map[string]any{}
	case TypeNumber:
		return float64(0)
	case TypeBool:
		return false
	case TypeID:
		return int32(0)
	}
	return nil
}

// EncodeSQL converts a runtime value into a driver-friendly parameter.
// Containers serialize to JSON text.
func (t StorageType) EncodeSQL(v any) (any, error) {
	if v == nil {
		v = t.BootstrapDefault()
	}
	switch t {
	case TypeText:
		switch s := v.(type) {
		case string:
			return s, nil
		default:
			raw, err := json.Marshal(v)
			if err != nil {
				return nil, fmt.Errorf("encode structured value: %w", err)
			}
			return string(raw), nil
		}
	case TypeNumber:
		switch n := v.(type) {
		case float64:
			return n, nil
		case int:
			return float64(n), nil
		case int32:
			return float64(n), nil
		case int64:
			return float64(n), nil
		}
		return v, nil
	default:
		return v, nil
	}
}

func rawString(raw any) string {
	switch s := raw.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	default:
		return fmt.Sprint(raw)
	}
}
