package deep

import "time"

// Merge folds source into target and returns the result. Maps are merged key
// by key and two slices are merged element-wise, which is what dirty-tree
// reconciliation relies on. Whenever either side is not a container the
// source value wins.
func Merge(target, source any) any {
	switch s := source.(type) {
	case map[string]any:
		t, ok := target.(map[string]any)
		if !ok {
			return source
		}
		for k, sv := range s {
			tv, exists := t[k]
			if exists && bothContainers(tv, sv) {
				t[k] = Merge(tv, sv)
				continue
			}
			t[k] = sv
		}
		return t
	case []any:
		t, ok := target.([]any)
		if !ok {
			return source
		}
		for i, sv := range s {
			if i >= len(t) {
				t = append(t, sv)
				continue
			}
			if bothContainers(t[i], sv) {
				t[i] = Merge(t[i], sv)
				continue
			}
			t[i] = sv
		}
		return t
	}
	return source
}

func bothContainers(a, b any) bool {
	switch a.(type) {
	case map[string]any:
		_, ok := b.(map[string]any)
		return ok
	case []any:
		_, ok := b.([]any)
		return ok
	}
	return false
}

// Clone returns a deep copy of map[string]any and []any containers. Leaves
// (including typed slices and time.Time) are copied by value.
func Clone(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, x := range t {
			out[k] = Clone(x)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, x := range t {
			out[i] = Clone(x)
		}
		return out
	}
	return v
}

// CloneMap is Clone for the top-level value tree; nil yields an empty map.
func CloneMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return Clone(m).(map[string]any)
}

// IsPrimitive reports whether v is not a container.
func IsPrimitive(v any) bool {
	switch v.(type) {
	case map[string]any, []any:
		return false
	}
	return true
}

// IsEmpty reports whether v is nil, an empty string, or an empty container.
func IsEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case map[string]any:
		return len(t) == 0
	case []any:
		return len(t) == 0
	case time.Time:
		return false
	}
	return false
}
