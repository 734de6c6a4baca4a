package gateway

import (
	"bytes"
	"encoding/json"
	"strconv"
)

type object map[string]json.RawMessage

// scopes returns the top-level object followed by every nested object found
// under the given keys, in order.
func scopes(top object, nested ...string) []object {
	out := []object{top}
	for _, key := range nested {
		raw, ok := top[key]
		if !ok {
			continue
		}
		var inner object
		if err := json.Unmarshal(raw, &inner); err == nil && inner != nil {
			out = append(out, inner)
		}
	}
	return out
}

// lookup returns the text of the first alias holding a scalar, searching
// scopes in order. Strings contribute their contents, numbers and booleans
// their literal spelling.
func lookup(in []object, aliases ...string) string {
	for _, scope := range in {
		for _, alias := range aliases {
			raw, ok := scope[alias]
			if !ok {
				continue
			}
			if text, ok := scalarText(raw); ok && text != "" {
				return text
			}
		}
	}
	return ""
}

func scalarText(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", false
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false
		}
		return s, true
	case 't', 'f':
		b, err := strconv.ParseBool(string(raw))
		if err != nil {
			return "", false
		}
		return strconv.FormatBool(b), true
	case '{', '[', 'n':
		return "", false
	default:
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return "", false
		}
		return string(raw), true
	}
}
