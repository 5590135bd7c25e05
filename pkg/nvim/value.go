package nvim

import "fmt"

// Normalize rewrites every byte string inside an eval result to text so the
// printing layer never branches on types. Untyped msgpack decoding produces a
// small closed set of shapes (nil, bool, int64/uint64, float64, string,
// []byte, []any and string-keyed maps); anything else passes through
// untouched.
func Normalize(v any) any {
	switch value := v.(type) {
	case []byte:
		return string(value)
	case []any:
		out := make([]any, len(value))
		for i, item := range value {
			out[i] = Normalize(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(value))
		for k, item := range value {
			out[k] = Normalize(item)
		}
		return out
	case map[any]any:
		// Some decoders key untyped maps loosely; re-key to strings so one
		// rendering path covers both.
		out := make(map[string]any, len(value))
		for k, item := range value {
			out[normalizeKey(k)] = Normalize(item)
		}
		return out
	}
	return v
}

func normalizeKey(k any) string {
	if key, ok := k.(string); ok {
		return key
	}
	return fmt.Sprintf("%v", k)
}

// Render formats a normalized result for stdout: scalars and strings print
// bare, sequences and mappings keep fmt's structural rendering (map keys come
// out sorted, which keeps output stable).
func Render(v any) string {
	return fmt.Sprintf("%v", Normalize(v))
}
