// Package dirty computes boolean-mirror trees describing which leaves of a
// value tree differ from their defaults.
//
// Output trees are sparse: a leaf is present (and true) only when it is dirty.
// Clean leaves and containers left without dirty leaves are dropped; inside
// lists a clean position is a nil hole and trailing holes are truncated.
package dirty

import (
	"github.com/reoring/formstate/internal/deep"
)

// Fields diffs values against defaults. Every non-nil leaf reachable from
// values is first marked dirty, which covers leaves missing from defaults;
// defaults is then walked against that provisional tree and each leaf is
// overwritten with the result of comparing the two sides.
func Fields(defaults, values map[string]any) map[string]any {
	marked := markFields(values)
	out, _ := compact(fromDefaults(defaults, values, marked)).(map[string]any)
	if out == nil {
		return map[string]any{}
	}
	return out
}

// IsEmpty reports whether a dirty tree carries no dirty leaf.
func IsEmpty(tree map[string]any) bool { return len(tree) == 0 }

func markFields(data any) any {
	switch d := data.(type) {
	case map[string]any:
		out := make(map[string]any, len(d))
		for k, v := range d {
			if !deep.IsPrimitive(v) {
				out[k] = markFields(v)
			} else if v != nil {
				out[k] = true
			}
		}
		return out
	case []any:
		out := make([]any, len(d))
		for i, v := range d {
			if !deep.IsPrimitive(v) {
				out[i] = markFields(v)
			} else if v != nil {
				out[i] = true
			}
		}
		return out
	}
	return nil
}

// fromDefaults walks defaults against the provisional tree built from values.
func fromDefaults(defaults any, values any, marked any) any {
	switch d := defaults.(type) {
	case map[string]any:
		m, ok := marked.(map[string]any)
		if !ok {
			m = map[string]any{}
		}
		for k, dv := range d {
			cv, present := child(values, k)
			m[k] = diffChild(dv, cv, present, m[k])
		}
		return m
	case []any:
		l, ok := marked.([]any)
		if !ok {
			l = []any{}
		}
		for len(l) < len(d) {
			l = append(l, nil)
		}
		for i, dv := range d {
			cv, present := childAt(values, i)
			l[i] = diffChild(dv, cv, present, l[i])
		}
		return l
	}
	return marked
}

func diffChild(defaultValue, current any, present bool, marked any) any {
	if !deep.IsPrimitive(defaultValue) {
		if !present || deep.IsPrimitive(marked) {
			// The current side has no container here: every default leaf is dirty.
			return markFields(defaultValue)
		}
		return fromDefaults(defaultValue, current, marked)
	}
	return !deep.Equal(defaultValue, current)
}

func child(container any, key string) (any, bool) {
	m, ok := container.(map[string]any)
	if !ok {
		return nil, false
	}
	v, ok := m[key]
	return v, ok
}

func childAt(container any, i int) (any, bool) {
	l, ok := container.([]any)
	if !ok || i >= len(l) {
		return nil, false
	}
	return l[i], true
}

// compact drops false leaves and empty containers; it returns nil when
// nothing dirty remains.
func compact(tree any) any {
	switch t := tree.(type) {
	case map[string]any:
		for k, v := range t {
			if c := compact(v); c == nil {
				delete(t, k)
			} else {
				t[k] = c
			}
		}
		if len(t) == 0 {
			return nil
		}
		return t
	case []any:
		n := 0
		for i, v := range t {
			t[i] = compact(v)
			if t[i] != nil {
				n = i + 1
			}
		}
		if n == 0 {
			return nil
		}
		return t[:n]
	case bool:
		if !t {
			return nil
		}
		return true
	}
	return nil
}
