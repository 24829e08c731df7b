package widget

import (
	"time"

	"github.com/reoring/formstate/codec"
)

// Coercion converts the raw text of a widget into the field value.
type Coercion struct {
	AsNumber   bool
	AsDate     bool
	SetValueAs func(any) any
}

// Coerce applies c to a raw value. AsNumber wins over AsDate, which wins over
// SetValueAs.
func (c Coercion) Coerce(raw any) any {
	if raw == nil {
		return nil
	}
	s, isString := raw.(string)
	switch {
	case c.AsNumber:
		if isString {
			return codec.Number(s)
		}
		return raw
	case c.AsDate && isString:
		return codec.Date(s)
	case c.SetValueAs != nil:
		return c.SetValueAs(raw)
	}
	return raw
}

// Value extracts the logical value of a binding. The boolean is false when
// the value is undefined: nothing bound, or every bound element disabled.
func Value(ref Ref, c Coercion) (any, bool) {
	els := ref.Elements()
	if len(els) == 0 || allDisabled(els) {
		return nil, false
	}
	first := els[0]
	switch KindOf(first.Type()) {
	case KindFile:
		if f, ok := first.(FileInput); ok {
			return f.Files(), true
		}
		return []File(nil), true
	case KindRadio:
		v, _ := RadioValue(els)
		return v, true
	case KindSelectMultiple:
		return selectedValues(first), true
	case KindCheckbox:
		v, _ := CheckboxValue(els)
		return v, true
	}
	return c.Coerce(first.Value()), true
}

// CheckboxValue reads a checkbox group. More than one element yields the
// values of the checked, enabled members as []any. A single element yields
// true or false, or its value attribute when checked and the attribute is
// present and non-empty. valid reports whether anything is checked.
func CheckboxValue(els []Element) (value any, valid bool) {
	if len(els) > 1 {
		values := []any{}
		for _, el := range els {
			if el != nil && checked(el) && !el.Disabled() {
				values = append(values, el.Value())
			}
		}
		return values, len(values) > 0
	}
	if len(els) == 0 || els[0] == nil {
		return false, false
	}
	el := els[0]
	if !checked(el) || el.Disabled() {
		return false, false
	}
	if c, ok := el.(Checkable); ok && c.HasValueAttr() && el.Value() != "" {
		return el.Value(), true
	}
	return true, true
}

// RadioValue reads a radio group: the value of the checked, enabled member
// (the last one if several claim to be checked), or nil.
func RadioValue(els []Element) (value any, valid bool) {
	for _, el := range els {
		if el != nil && checked(el) && !el.Disabled() {
			value, valid = el.Value(), true
		}
	}
	return value, valid
}

// GroupValid reports whether a checkbox or radio binding has a selection.
func GroupValid(ref Ref) bool {
	els := ref.Elements()
	switch ref.Kind() {
	case KindCheckbox:
		_, ok := CheckboxValue(els)
		return ok
	case KindRadio:
		_, ok := RadioValue(els)
		return ok
	}
	return false
}

// Apply writes value into the bound element(s).
func Apply(ref Ref, value any) {
	els := ref.Elements()
	if len(els) == 0 {
		return
	}
	first := els[0]
	switch KindOf(first.Type()) {
	case KindSelectMultiple:
		if s, ok := first.(Selector); ok {
			s.SetSelected(toStrings(value))
		}
	case KindCheckbox:
		if len(els) > 1 {
			want := toStrings(value)
			single, isScalar := value.(string)
			for _, el := range els {
				c, ok := el.(Checkable)
				if !ok || (el.Disabled() && c.Checked()) {
					continue
				}
				if isScalar {
					c.SetChecked(el.Value() == single)
				} else {
					c.SetChecked(contains(want, el.Value()))
				}
			}
			return
		}
		if c, ok := first.(Checkable); ok {
			c.SetChecked(truthy(value))
		}
	case KindRadio:
		s := Format(value, "radio")
		for _, el := range els {
			if c, ok := el.(Checkable); ok {
				c.SetChecked(value != nil && el.Value() == s)
			}
		}
	case KindFile:
		if f, ok := first.(FileInput); ok {
			files, _ := value.([]File)
			f.SetFiles(files)
		}
	default:
		first.SetValue(Format(value, first.Type()))
	}
}

// Format renders a field value as widget text.
func Format(value any, inputType string) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case time.Time:
		return codec.FormatDate(v, inputType)
	case bool:
		if v {
			return "true"
		}
		return "false"
	}
	if f, ok := codec.ToFloat(value); ok {
		return codec.FormatNumber(f)
	}
	return ""
}

func checked(el Element) bool {
	c, ok := el.(Checkable)
	return ok && c.Checked()
}

func allDisabled(els []Element) bool {
	for _, el := range els {
		if el != nil && !el.Disabled() {
			return false
		}
	}
	return true
}

func selectedValues(el Element) []any {
	out := []any{}
	s, ok := el.(Selector)
	if !ok {
		return out
	}
	for _, o := range s.Options() {
		if o.Selected {
			out = append(out, o.Value)
		}
	}
	return out
}

func toStrings(value any) []string {
	switch v := value.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, x := range v {
			out = append(out, Format(x, ""))
		}
		return out
	case nil:
		return nil
	}
	return []string{Format(value, "")}
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case []any:
		return true
	}
	if f, ok := codec.ToFloat(v); ok {
		return f != 0 && f == f
	}
	return true
}
