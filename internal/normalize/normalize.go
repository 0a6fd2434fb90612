// Package normalize converts provider payloads into the value types every
// storage backend accepts.
package normalize

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Payload converts v into a tree of map[string]any, []any, string,
// json.Number, bool and nil.
//
//   - floating point numbers keep their exact decimal text (json.Number)
//   - time.Time values become RFC 3339 text
//   - empty strings become nil, since indexable strings may not be empty
//
// v may be a map or any struct the encoding/json package can marshal.
// A nil v yields an empty map.
func Payload(v any) (map[string]any, error) {
	if v == nil {
		return map[string]any{}, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("normalize payload: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("normalize payload: %w", err)
	}
	if out == nil {
		return map[string]any{}, nil
	}
	m, ok := out.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("normalize payload: expected an object, got %T", out)
	}
	return clean(m).(map[string]any), nil
}

// clean replaces empty strings with nil, recursively.
func clean(v any) any {
	switch t := v.(type) {
	case string:
		if t == "" {
			return nil
		}
		return t
	case map[string]any:
		for k, item := range t {
			t[k] = clean(item)
		}
		return t
	case []any:
		for i, item := range t {
			t[i] = clean(item)
		}
		return t
	}
	return v
}
