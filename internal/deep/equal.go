// Package deep implements structural equality, merge and cloning for the
// value trees handled by the form engine.
package deep

import (
	"math"
	"reflect"
	"time"
)

// Equaler is implemented by value objects that define their own equality.
type Equaler interface {
	Equal(other any) bool
}

type visit struct {
	a, b uintptr
	kind reflect.Kind
}

// Equal reports whether a and b are structurally equal.
//
// Rules are applied in order: identical references, Equaler on either side,
// NaN, time.Time (by instant; two zero times are equal), numbers across Go
// numeric kinds, slices (length then pairwise), maps (key set then
// pairwise). Cyclic
// structures terminate: a pair of containers already under comparison is
// treated as equal.
func Equal(a, b any) bool {
	return equal(a, b, map[visit]bool{})
}

func equal(a, b any, seen map[visit]bool) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if e, ok := a.(Equaler); ok {
		return e.Equal(b)
	}
	if e, ok := b.(Equaler); ok {
		return e.Equal(a)
	}
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		if !ok {
			return false
		}
		return fa == fb || (math.IsNaN(fa) && math.IsNaN(fb))
	}
	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		if !ok {
			return false
		}
		return ta.IsZero() && tb.IsZero() || ta.Equal(tb)
	}

	switch va := a.(type) {
	case string:
		vb, ok := b.(string)
		return ok && va == vb
	case bool:
		vb, ok := b.(bool)
		return ok && va == vb
	case map[string]any:
		vb, ok := b.(map[string]any)
		if !ok {
			return false
		}
		if len(va) != len(vb) {
			return false
		}
		if guard(reflect.ValueOf(va), reflect.ValueOf(vb), seen) {
			return true
		}
		for k, x := range va {
			y, ok := vb[k]
			if !ok || !equal(x, y, seen) {
				return false
			}
		}
		return true
	case []any:
		vb, ok := b.([]any)
		if !ok {
			return false
		}
		if len(va) != len(vb) {
			return false
		}
		if len(va) == 0 {
			return true
		}
		if guard(reflect.ValueOf(va), reflect.ValueOf(vb), seen) {
			return true
		}
		for i := range va {
			if !equal(va[i], vb[i], seen) {
				return false
			}
		}
		return true
	}
	return reflectEqual(reflect.ValueOf(a), reflect.ValueOf(b), seen)
}

// guard records the container pair and reports whether it was already being
// compared further up the stack.
func guard(a, b reflect.Value, seen map[visit]bool) bool {
	v := visit{a: a.Pointer(), b: b.Pointer(), kind: a.Kind()}
	if seen[v] {
		return true
	}
	seen[v] = true
	return false
}

func reflectEqual(a, b reflect.Value, seen map[visit]bool) bool {
	for a.Kind() == reflect.Interface && !a.IsNil() {
		a = a.Elem()
	}
	for b.Kind() == reflect.Interface && !b.IsNil() {
		b = b.Elem()
	}
	if !a.IsValid() || !b.IsValid() {
		return a.IsValid() == b.IsValid()
	}
	if a.CanInterface() && b.CanInterface() {
		ai, bi := a.Interface(), b.Interface()
		if _, ok := toFloat(ai); ok {
			return equal(ai, bi, seen)
		}
		if _, ok := ai.(Equaler); ok {
			return equal(ai, bi, seen)
		}
		if _, ok := bi.(Equaler); ok {
			return equal(ai, bi, seen)
		}
		if _, ok := ai.(time.Time); ok {
			return equal(ai, bi, seen)
		}
	}
	if a.Type() != b.Type() {
		// []string vs []any and similar: compare element-wise when both are lists.
		if isList(a) && isList(b) {
			return listEqual(a, b, seen)
		}
		return false
	}
	switch a.Kind() {
	case reflect.Pointer:
		if a.IsNil() || b.IsNil() {
			return a.IsNil() && b.IsNil()
		}
		if a.Pointer() == b.Pointer() {
			return true
		}
		if guard(a, b, seen) {
			return true
		}
		return reflectEqual(a.Elem(), b.Elem(), seen)
	case reflect.Slice, reflect.Array:
		return listEqual(a, b, seen)
	case reflect.Map:
		if a.IsNil() || b.IsNil() {
			return a.Len() == 0 && b.Len() == 0
		}
		if a.Len() != b.Len() {
			return false
		}
		if a.Pointer() == b.Pointer() || guard(a, b, seen) {
			return true
		}
		iter := a.MapRange()
		for iter.Next() {
			bv := b.MapIndex(iter.Key())
			if !bv.IsValid() || !reflectEqual(iter.Value(), bv, seen) {
				return false
			}
		}
		return true
	case reflect.Struct:
		for i := 0; i < a.NumField(); i++ {
			if !reflectEqual(a.Field(i), b.Field(i), seen) {
				return false
			}
		}
		return true
	case reflect.Func:
		return a.IsNil() && b.IsNil()
	}
	return a.Equal(b)
}

func isList(v reflect.Value) bool {
	return v.Kind() == reflect.Slice || v.Kind() == reflect.Array
}

func listEqual(a, b reflect.Value, seen map[visit]bool) bool {
	if a.Len() != b.Len() {
		return false
	}
	if a.Kind() == reflect.Slice && b.Kind() == reflect.Slice && a.Len() > 0 && a.Type() == b.Type() {
		if a.Pointer() == b.Pointer() {
			return true
		}
		if guard(a, b, seen) {
			return true
		}
	}
	for i := 0; i < a.Len(); i++ {
		if !reflectEqual(a.Index(i), b.Index(i), seen) {
			return false
		}
	}
	return true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}
