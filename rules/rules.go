// Package rules builds reusable formstate validators.
package rules

import (
	"context"
	"fmt"
	"strings"

	"github.com/reoring/formstate"
	"github.com/reoring/formstate/codec"
	"github.com/reoring/formstate/fieldpath"
	"github.com/reoring/formstate/internal/deep"
)

// Op defines simple comparison operators for If(...).Then(...)
type Op int

const (
	Eq Op = iota
	Ne
	Lt
	Le
	Gt
	Ge
)

// Conditional composes conditional execution of validators.
type Conditional struct {
	path string
	op   Op
	want any
	all  []Conditional // composite AND
	any  []Conditional // composite OR
}

// If builds a conditional that compares the form value at path with want.
// path is a field path ("items.0.kind") or a JSON Pointer ("/items/0/kind").
func If(path string, op Op, want any) Conditional {
	return Conditional{path: normalizePath(path), op: op, want: want}
}

// IfAll builds a conditional that requires all conditions to hold.
func IfAll(conds ...Conditional) Conditional { return Conditional{all: conds} }

// IfAny builds a conditional that requires any condition to hold.
func IfAny(conds ...Conditional) Conditional { return Conditional{any: conds} }

// And combines the receiver with additional conditions using logical AND.
func (c Conditional) And(others ...Conditional) Conditional {
	return IfAll(append([]Conditional{c}, others...)...)
}

// Or combines the receiver with additional conditions using logical OR.
func (c Conditional) Or(others ...Conditional) Conditional {
	return IfAny(append([]Conditional{c}, others...)...)
}

// Holds evaluates the condition against the form values.
func (c Conditional) Holds(values map[string]any) bool {
	if len(c.all) > 0 {
		for _, it := range c.all {
			if !it.Holds(values) {
				return false
			}
		}
		return true
	}
	if len(c.any) > 0 {
		for _, it := range c.any {
			if it.Holds(values) {
				return true
			}
		}
		return false
	}
	cur, ok := fieldpath.Get(values, c.path)
	if !ok {
		return false
	}
	return compare(cur, c.op, c.want)
}

// Then runs validators, in order, only while the condition holds.
func (c Conditional) Then(validators ...formstate.Validator) formstate.Validator {
	inner := And(validators...)
	return func(ctx context.Context, value any, values map[string]any) (formstate.Result, error) {
		if !c.Holds(values) {
			return formstate.Result{}, nil
		}
		return inner(ctx, value, values)
	}
}

// And runs validators in order and returns the first failure.
func And(validators ...formstate.Validator) formstate.Validator {
	return func(ctx context.Context, value any, values map[string]any) (formstate.Result, error) {
		for _, v := range validators {
			if v == nil {
				continue
			}
			res, err := v(ctx, value, values)
			if err != nil || res.Failed {
				return res, err
			}
		}
		return formstate.Result{}, nil
	}
}

// Or passes when any validator passes. When all fail the last failure is
// returned.
func Or(validators ...formstate.Validator) formstate.Validator {
	return func(ctx context.Context, value any, values map[string]any) (formstate.Result, error) {
		var last formstate.Result
		for _, v := range validators {
			if v == nil {
				continue
			}
			res, err := v(ctx, value, values)
			if err != nil {
				return res, err
			}
			if !res.Failed {
				return res, nil
			}
			last = res
		}
		return last, nil
	}
}

// Predicate adapts a plain function over the field value.
func Predicate(fn func(value any) bool, message string) formstate.Validator {
	return func(_ context.Context, value any, _ map[string]any) (formstate.Result, error) {
		return formstate.Check(fn(value), message), nil
	}
}

// EqualTo requires the field value to equal the form value at path, as in a
// password confirmation.
func EqualTo(path, message string) formstate.Validator {
	p := normalizePath(path)
	return func(_ context.Context, value any, values map[string]any) (formstate.Result, error) {
		other, _ := fieldpath.Get(values, p)
		return formstate.Check(deep.Equal(value, other), message), nil
	}
}

// AtLeastOne requires the list at path (the field value itself when path is
// empty) to hold at least one entry. Values that are not lists pass.
func AtLeastOne(path, message string) formstate.Validator {
	p := normalizePath(path)
	return func(_ context.Context, value any, values map[string]any) (formstate.Result, error) {
		if p != "" {
			value, _ = fieldpath.Get(values, p)
		}
		l, ok := value.([]any)
		if !ok {
			return formstate.Result{}, nil
		}
		return formstate.Check(len(l) > 0, message), nil
	}
}

// UniqueBy requires the entries of a list value to have distinct values at
// keyPath (relative to each entry). Keys are compared by their printed form,
// so prefer a single key type.
func UniqueBy(keyPath, message string) formstate.Validator {
	kp := normalizePath(keyPath)
	return func(_ context.Context, value any, _ map[string]any) (formstate.Result, error) {
		l, ok := value.([]any)
		if !ok {
			return formstate.Result{}, nil
		}
		seen := map[string]int{}
		for i, item := range l {
			kv := item
			if kp != "" {
				if kv, ok = fieldpath.Get(item, kp); !ok {
					continue
				}
			}
			key := fmt.Sprint(kv)
			if j, dup := seen[key]; dup {
				msg := message
				if msg == "" {
					msg = fmt.Sprintf("entries %d and %d share %q", j, i, key)
				}
				return formstate.Fail(msg), nil
			}
			seen[key] = i
		}
		return formstate.Result{}, nil
	}
}

// ------- helpers -------

func normalizePath(p string) string {
	if strings.HasPrefix(p, "/") {
		return fieldpath.FromPointer(p)
	}
	return fieldpath.Normalize(p)
}

func compare(cur any, op Op, want any) bool {
	switch op {
	case Eq:
		return deep.Equal(cur, want)
	case Ne:
		return !deep.Equal(cur, want)
	case Lt, Le, Gt, Ge:
		return compareOrdered(cur, op, want)
	default:
		return false
	}
}

func compareOrdered(cur any, op Op, want any) bool {
	var c int
	a, aok := codec.ToFloat(cur)
	b, bok := codec.ToFloat(want)
	as, asok := cur.(string)
	bs, bsok := want.(string)
	switch {
	case aok && bok:
		c = cmpOrdered(a, b)
	case asok && bsok:
		c = strings.Compare(as, bs)
	default:
		return false
	}
	switch op {
	case Lt:
		return c < 0
	case Le:
		return c <= 0
	case Gt:
		return c > 0
	case Ge:
		return c >= 0
	}
	return false
}

func cmpOrdered(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
