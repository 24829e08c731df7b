package dirty

import (
	"github.com/reoring/formstate/internal/deep"
)

// FieldArray recomputes the dirty flags of a list after a structural change
// (append, remove, swap, move, ...). The positional diff runs twice, once with
// values as the current side and once with defaults, and the two results are
// merged so that an entry present on only one side is still flagged. The
// result replaces the list's previous dirty tree wholesale, so positions that
// match their default again lose their stale flags. A nil result means the
// list is clean.
func FieldArray(values, defaults []any) []any {
	forward := positional(values, defaults, nil)
	backward := positional(defaults, values, nil)
	merged, _ := deep.Merge(forward, backward).([]any)
	out, _ := compact(merged).([]any)
	return out
}

func positional(values, defaults, flags []any) []any {
	for len(flags) < len(values) {
		flags = append(flags, nil)
	}
	for i, v := range values {
		var dv any
		if i < len(defaults) {
			dv = defaults[i]
		}
		item, ok := v.(map[string]any)
		if !ok {
			if deep.Equal(dv, v) {
				flags[i] = nil
			} else {
				flags[i] = true
			}
			continue
		}
		entry, _ := flags[i].(map[string]any)
		if entry == nil {
			entry = map[string]any{}
		}
		defaultItem, _ := dv.(map[string]any)
		for key, x := range item {
			if nested, ok := x.([]any); ok {
				defaultNested, _ := defaultItem[key].([]any)
				sub, _ := compact(positional(nested, defaultNested, nil)).([]any)
				if len(sub) == 0 {
					delete(entry, key)
				} else {
					entry[key] = sub
				}
				continue
			}
			if deep.Equal(defaultItem[key], x) {
				delete(entry, key)
			} else {
				entry[key] = true
			}
		}
		flags[i] = entry
	}
	return flags
}
