package jsonschema

import (
	"context"
	"fmt"
	"math"
	"net/mail"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/dlclark/regexp2"

	"github.com/reoring/formstate"
	"github.com/reoring/formstate/codec"
	"github.com/reoring/formstate/fieldpath"
	"github.com/reoring/formstate/i18n"
	"github.com/reoring/formstate/internal/deep"
)

// Option configures Resolver.
type Option func(*resolver)

// WithTranslator sets the messages used for failures; i18n.T by default.
func WithTranslator(tr i18n.Translator) Option {
	return func(r *resolver) { r.tr = tr }
}

// WithDefaults fills absent properties that declare a default into the
// submission payload.
func WithDefaults() Option {
	return func(r *resolver) { r.defaults = true }
}

type resolver struct {
	schema   *Schema
	tr       i18n.Translator
	defaults bool

	mu       sync.Mutex
	patterns map[string]*regexp2.Regexp
}

// Resolver returns a formstate.Resolver validating the whole value tree
// against s. Errors are keyed by field path; list-level failures (minItems,
// maxItems) sit under "<list>.root". A required property counts as missing
// when it is absent, nil or the empty string.
func Resolver(s *Schema, opts ...Option) formstate.Resolver {
	r := &resolver{schema: s, patterns: map[string]*regexp2.Regexp{}}
	for _, o := range opts {
		o(r)
	}
	return r.resolve
}

func (r *resolver) resolve(ctx context.Context, values map[string]any, _ any, opts formstate.ResolverOptions) (formstate.ResolverResult, error) {
	w := walk{r: r, collectAll: opts.CriteriaMode == formstate.CriteriaAll, errs: formstate.FieldErrors{}}
	if err := w.node(ctx, r.schema, values, true, fieldpath.Path{}); err != nil {
		return formstate.ResolverResult{}, err
	}
	out := values
	if r.defaults {
		out = deep.CloneMap(values)
		applyDefaults(r.schema, out)
	}
	return formstate.ResolverResult{Values: out, Errors: w.errs}, nil
}

func (r *resolver) message(code string, data map[string]string) string {
	if r.tr != nil {
		return r.tr.Message(code, data)
	}
	return i18n.T(code, data)
}

func (r *resolver) pattern(p string) (*regexp2.Regexp, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if re, ok := r.patterns[p]; ok {
		return re, nil
	}
	re, err := regexp2.Compile(p, regexp2.ECMAScript)
	if err != nil {
		return nil, fmt.Errorf("jsonschema: pattern %q: %w", p, err)
	}
	r.patterns[p] = re
	return re, nil
}

type walk struct {
	r          *resolver
	collectAll bool
	errs       formstate.FieldErrors
}

// fail records a failure at path. It reports whether the node's remaining
// checks should be skipped.
func (w *walk) fail(path fieldpath.Path, typ, code string, data map[string]string) bool {
	name := path.String()
	msg := w.r.message(code, data)
	fe, exists := w.errs.Get(name)
	if exists && !w.collectAll {
		return true
	}
	fe.Type, fe.Message = typ, msg
	if w.collectAll {
		if fe.Types == nil {
			fe.Types = map[string]string{}
		}
		fe.Types[typ] = msg
	}
	_ = fieldpath.Set(w.errs, name, fe)
	return !w.collectAll
}

func (w *walk) node(ctx context.Context, s *Schema, v any, present bool, path fieldpath.Path) error {
	if s == nil || !present || v == nil {
		return nil
	}
	if v == "" && s.Type != "" && s.Type != "string" {
		// An emptied non-text input holds "": only required can fail.
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(s.OneOf) > 0 {
		return w.oneOf(ctx, s, v, path)
	}
	if s.Type != "" && !typeMatches(s.Type, v) {
		w.fail(path, "type", "type", map[string]string{"type": s.Type})
		return nil
	}
	if len(s.Enum) > 0 && !slices.ContainsFunc(s.Enum, func(e any) bool { return deep.Equal(e, v) }) {
		if w.fail(path, "enum", "enum", map[string]string{"values": enumList(s.Enum)}) {
			return nil
		}
	}

	switch t := v.(type) {
	case string:
		return w.str(s, t, path)
	case map[string]any:
		return w.object(ctx, s, t, path)
	case []any:
		return w.array(ctx, s, t, path)
	}
	if n, ok := codec.ToFloat(v); ok {
		w.number(s, n, path)
	}
	return nil
}

func (w *walk) str(s *Schema, v string, path fieldpath.Path) error {
	n := len([]rune(v))
	if s.MinLength != nil && n < *s.MinLength {
		if w.fail(path, formstate.TypeMinLength, "minLength", limit(*s.MinLength)) {
			return nil
		}
	}
	if s.MaxLength != nil && n > *s.MaxLength {
		if w.fail(path, formstate.TypeMaxLength, "maxLength", limit(*s.MaxLength)) {
			return nil
		}
	}
	if s.Pattern != "" && v != "" {
		re, err := w.r.pattern(s.Pattern)
		if err != nil {
			return err
		}
		ok, err := re.MatchString(v)
		if err != nil {
			return fmt.Errorf("jsonschema: pattern %q: %w", s.Pattern, err)
		}
		if !ok && w.fail(path, formstate.TypePattern, "pattern", nil) {
			return nil
		}
	}
	if s.Format != "" && v != "" && !formatMatches(s.Format, v) {
		w.fail(path, "format", "format", map[string]string{"format": s.Format})
	}
	return nil
}

func (w *walk) number(s *Schema, n float64, path fieldpath.Path) {
	if math.IsNaN(n) {
		return
	}
	if s.Minimum != nil && n < *s.Minimum {
		if w.fail(path, formstate.TypeMin, "min", map[string]string{"limit": formatFloat(*s.Minimum)}) {
			return
		}
	}
	if s.Maximum != nil && n > *s.Maximum {
		w.fail(path, formstate.TypeMax, "max", map[string]string{"limit": formatFloat(*s.Maximum)})
	}
}

func (w *walk) object(ctx context.Context, s *Schema, v map[string]any, path fieldpath.Path) error {
	for _, req := range s.Required {
		x, ok := v[req]
		if !ok || x == nil || x == "" {
			w.fail(path.Field(req), formstate.TypeRequired, "required", nil)
		}
	}
	keys := make([]string, 0, len(s.Properties))
	for k := range s.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		x, ok := v[k]
		if err := w.node(ctx, s.Properties[k], x, ok, path.Field(k)); err != nil {
			return err
		}
	}
	return nil
}

func (w *walk) array(ctx context.Context, s *Schema, v []any, path fieldpath.Path) error {
	root := path.Field(formstate.RootErrorKey)
	if s.MinItems != nil && len(v) < *s.MinItems {
		w.fail(root, formstate.TypeMinLength, "minItems", limit(*s.MinItems))
	} else if s.MaxItems != nil && len(v) > *s.MaxItems {
		w.fail(root, formstate.TypeMaxLength, "maxItems", limit(*s.MaxItems))
	}
	for i, x := range v {
		if err := w.node(ctx, s.Items, x, true, path.Index(i)); err != nil {
			return err
		}
	}
	return nil
}

// oneOf passes when exactly one branch validates cleanly; otherwise the
// errors of the first branch are kept.
func (w *walk) oneOf(ctx context.Context, s *Schema, v any, path fieldpath.Path) error {
	var first formstate.FieldErrors
	matched := 0
	for _, branch := range s.OneOf {
		bw := walk{r: w.r, collectAll: w.collectAll, errs: formstate.FieldErrors{}}
		if err := bw.node(ctx, branch, v, true, path); err != nil {
			return err
		}
		if bw.errs.Len() == 0 {
			matched++
		} else if first == nil {
			first = bw.errs
		}
	}
	if matched == 1 {
		return nil
	}
	if matched > 1 || first == nil {
		w.fail(path, "oneOf", "validate", nil)
		return nil
	}
	for name, fe := range first.Flatten() {
		_ = fieldpath.Set(w.errs, name, fe)
	}
	return nil
}

func typeMatches(typ string, v any) bool {
	switch typ {
	case "string":
		_, ok := v.(string)
		return ok
	case "boolean":
		_, ok := v.(bool)
		return ok
	case "object":
		_, ok := v.(map[string]any)
		return ok
	case "array":
		_, ok := v.([]any)
		return ok
	case "number":
		_, ok := codec.ToFloat(v)
		return ok
	case "integer":
		n, ok := codec.ToFloat(v)
		return ok && n == math.Trunc(n)
	}
	return true
}

func formatMatches(format, v string) bool {
	switch format {
	case "email":
		addr, err := mail.ParseAddress(v)
		return err == nil && addr.Address == v
	case "date":
		_, err := codec.ParseDate(v)
		return err == nil && len(v) == len(codec.LayoutDate)
	case "date-time":
		_, err := codec.ParseDate(v)
		return err == nil
	}
	return true
}

// applyDefaults must only see a cloned tree.
func applyDefaults(s *Schema, v map[string]any) {
	if s == nil {
		return
	}
	for k, p := range s.Properties {
		x, ok := v[k]
		if !ok && p.Default != nil {
			v[k] = deep.Clone(p.Default)
			continue
		}
		if m, isMap := x.(map[string]any); isMap {
			applyDefaults(p, m)
		}
	}
}

func limit(n int) map[string]string { return map[string]string{"limit": strconv.Itoa(n)} }

func formatFloat(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

func enumList(vals []any) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ", ")
}
