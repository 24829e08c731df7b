package formstate

import (
	"context"
	"math"
	"time"
	"unicode/utf8"

	"github.com/reoring/formstate/codec"
	"github.com/reoring/formstate/widget"
)

// fieldJob is an immutable copy of a field taken under the lock so the rules
// can run without it.
type fieldJob struct {
	name      string
	opts      RegisterOptions
	ref       widget.Ref
	mounted   bool
	disabled  bool
	arrayRoot bool
}

func (f *field) job() fieldJob {
	return fieldJob{
		name:      f.name,
		opts:      f.opts,
		ref:       f.ref,
		mounted:   f.mounted,
		disabled:  f.disabled(),
		arrayRoot: f.arrayRoot,
	}
}

// errorPath is where the job's error lives in the errors tree; list-level
// errors of a field array sit under "<name>.root".
func (j fieldJob) errorPath() string {
	if j.arrayRoot {
		return j.name + "." + RootErrorKey
	}
	return j.name
}

// validateField evaluates one field's rules against values in the order
// required, min/max, maxLength/minLength, pattern, validate. It returns at the
// first failure unless collectAll is set, in which case every rule runs and
// FieldError.Types lists each failure. A nil error pointer means the field is
// valid.
func validateField(ctx context.Context, f fieldJob, values map[string]any, collectAll, native bool) (*FieldError, error) {
	if !f.mounted || f.disabled {
		return nil, nil
	}
	value, present := getPath(values, f.name)
	el := f.ref.First()
	kind := f.ref.Kind()
	group := kind.IsGroupKind() && len(f.ref.Elements()) > 0
	empty := isEmptyValue(f, value, present, el)
	s, isString := value.(string)

	var fe *FieldError
	// fail records a failure and reports whether validation stops here.
	fail := func(typ, msg string) bool {
		if fe == nil {
			fe = &FieldError{Ref: el}
		}
		fe.Type, fe.Message = typ, msg
		if collectAll {
			if fe.Types == nil {
				fe.Types = map[string]string{}
			}
			fe.Types[typ] = msg
		}
		setCustomValidity(native, el, msg)
		return !collectAll
	}

	if r := f.opts.Required; r != nil && r.Value {
		var missing bool
		if f.arrayRoot {
			l, _ := value.([]any)
			missing = len(l) == 0
		} else {
			missing = (!group && (empty || value == nil)) ||
				value == false ||
				(group && !widget.GroupValid(f.ref))
		}
		if missing && fail(TypeRequired, r.Message) {
			return fe, nil
		}
	}

	if !empty && (f.opts.Min != nil || f.opts.Max != nil) {
		inputType := ""
		if el != nil {
			inputType = el.Type()
		}
		exceedMax, exceedMin := exceedsBounds(value, f.opts.Min, f.opts.Max, inputType)
		if exceedMax || exceedMin {
			typ, msg := TypeMin, constraintMessage(f.opts.Min)
			if exceedMax {
				typ, msg = TypeMax, constraintMessage(f.opts.Max)
			}
			if fail(typ, msg) {
				return fe, nil
			}
		}
	}

	if (f.opts.MaxLength != nil || f.opts.MinLength != nil) && !empty {
		n, measurable := 0, false
		if isString {
			n, measurable = utf8.RuneCountInString(s), true
		} else if l, ok := value.([]any); ok && f.arrayRoot {
			n, measurable = len(l), true
		}
		if measurable {
			exceedMax := f.opts.MaxLength != nil && n > f.opts.MaxLength.Value
			exceedMin := f.opts.MinLength != nil && n < f.opts.MinLength.Value
			if exceedMax || exceedMin {
				typ, msg := TypeMinLength, constraintMessage(f.opts.MinLength)
				if exceedMax {
					typ, msg = TypeMaxLength, constraintMessage(f.opts.MaxLength)
				}
				if fail(typ, msg) {
					return fe, nil
				}
			}
		}
	}

	if p := f.opts.Pattern; p != nil && p.Value != nil && !empty && isString {
		if !p.Value.MatchString(s) && fail(TypePattern, p.Message) {
			return fe, nil
		}
	}

	if f.opts.Validate != nil {
		res, err := f.opts.Validate(ctx, value, values)
		if err != nil {
			return nil, err
		}
		if res.Failed && fail(TypeValidate, res.Message) {
			return fe, nil
		}
	}
	for _, nv := range f.opts.ValidateMap {
		if nv.Fn == nil {
			continue
		}
		res, err := nv.Fn(ctx, value, values)
		if err != nil {
			return nil, err
		}
		if res.Failed && fail(nv.Name, res.Message) {
			return fe, nil
		}
	}

	if fe == nil {
		setCustomValidity(native, el, "")
	}
	return fe, nil
}

func constraintMessage[T any](c *Constraint[T]) string {
	if c == nil {
		return ""
	}
	return c.Message
}

func isEmptyValue(f fieldJob, value any, present bool, el widget.Element) bool {
	kind := f.ref.Kind()
	if (f.opts.ValueAsNumber || kind == widget.KindFile) && (!present || value == nil) && el == nil {
		return true
	}
	if el != nil && el.Value() == "" {
		switch kind {
		case widget.KindText, widget.KindNumber, widget.KindDate, widget.KindSelectOne:
			return true
		}
	}
	switch v := value.(type) {
	case string:
		return v == ""
	case []any:
		return len(v) == 0
	case []widget.File:
		return len(v) == 0
	case float64:
		return f.opts.ValueAsNumber && math.IsNaN(v)
	}
	return false
}

// exceedsBounds compares value with the min and max bounds: numerically when
// value has a numeric reading, otherwise as dates. Week inputs compare their
// text.
func exceedsBounds(value any, min, max *Constraint[any], inputType string) (exceedMax, exceedMin bool) {
	if n, ok := codec.ToFloat(value); ok && !math.IsNaN(n) {
		if max != nil {
			if b, ok := codec.ToFloat(max.Value); ok {
				exceedMax = n > b
			}
		}
		if min != nil {
			if b, ok := codec.ToFloat(min.Value); ok {
				exceedMin = n < b
			}
		}
		return exceedMax, exceedMin
	}
	if inputType == "week" {
		s, _ := value.(string)
		if max != nil {
			if b, ok := max.Value.(string); ok && s != "" {
				exceedMax = s > b
			}
		}
		if min != nil {
			if b, ok := min.Value.(string); ok && s != "" {
				exceedMin = s < b
			}
		}
		return exceedMax, exceedMin
	}
	v, ok := asDate(value)
	if !ok {
		return false, false
	}
	if max != nil {
		if b, ok := asDate(max.Value); ok {
			exceedMax = v.After(b)
		}
	}
	if min != nil {
		if b, ok := asDate(min.Value); ok {
			exceedMin = v.Before(b)
		}
	}
	return exceedMax, exceedMin
}

func asDate(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, !t.IsZero()
	case string:
		d, err := codec.ParseDate(t)
		return d, err == nil
	}
	return time.Time{}, false
}

func setCustomValidity(native bool, el widget.Element, msg string) {
	if !native || el == nil {
		return
	}
	if nv, ok := el.(widget.NativeValidator); ok {
		nv.SetCustomValidity(msg)
		nv.ReportValidity()
	}
}
