// Package jsontree provides small accessors over the untyped JSON tree
// produced by encoding/json (map[string]any / []any / string / float64 /
// bool / nil), which the dialect translators operate on directly rather
// than through strongly-typed request/response structs — the upstream wire
// shapes are too permissive and varied to justify the combinatorial
// explosion of typed models that would require.
package jsontree

// M is a convenience alias for a JSON object as decoded by encoding/json.
type M = map[string]any

func AsMap(v any) (M, bool) {
	m, ok := v.(M)
	return m, ok
}

func AsSlice(v any) ([]any, bool) {
	s, ok := v.([]any)
	return s, ok
}

func AsString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func AsFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}

func AsBool(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

// Get returns m[key], or nil if m is nil or key is absent.
func Get(m M, key string) any {
	if m == nil {
		return nil
	}
	return m[key]
}

func GetString(m M, key string) string {
	s, _ := AsString(Get(m, key))
	return s
}

func GetMap(m M, key string) M {
	v, _ := AsMap(Get(m, key))
	return v
}

func GetSlice(m M, key string) []any {
	v, _ := AsSlice(Get(m, key))
	return v
}

func GetFloat(m M, key string) (float64, bool) {
	return AsFloat(Get(m, key))
}

func GetInt(m M, key string, fallback int) int {
	f, ok := AsFloat(Get(m, key))
	if !ok {
		return fallback
	}
	return int(f)
}

// DeepMerge merges patch into dst in place and returns dst: object keys in
// patch override or add into dst's object; a null value in patch deletes
// the corresponding key from dst; any other non-object value in patch
// replaces dst's value outright. Applying the same patch twice is
// idempotent since the second application produces the identical result.
func DeepMerge(dst M, patch M) M {
	if dst == nil {
		dst = M{}
	}
	for k, pv := range patch {
		if pv == nil {
			delete(dst, k)
			continue
		}
		pm, pIsMap := pv.(M)
		dv, exists := dst[k]
		dm, dIsMap := dv.(M)
		if pIsMap && exists && dIsMap {
			dst[k] = DeepMerge(dm, pm)
			continue
		}
		dst[k] = pv
	}
	return dst
}
