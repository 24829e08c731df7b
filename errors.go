package formstate

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	gojson "github.com/goccy/go-json"

	"github.com/reoring/formstate/fieldpath"
	"github.com/reoring/formstate/widget"
)

// Rule kinds reported in FieldError.Type. A named validator reports its own
// name instead of TypeValidate.
const (
	TypeRequired  = "required"
	TypeMin       = "min"
	TypeMax       = "max"
	TypeMinLength = "minLength"
	TypeMaxLength = "maxLength"
	TypePattern   = "pattern"
	TypeValidate  = "validate"
)

// RootErrorKey is the errors-tree segment reserved for errors that do not
// belong to a single field: form-level errors under "root.*" and list-level
// errors of a field array under "<array>.root".
const RootErrorKey = "root"

var (
	// ErrUnknownField is returned when a name addresses neither a registered
	// field, a field array, nor a "root.*" error path.
	ErrUnknownField = errors.New("formstate: unknown field")
	// ErrNotArray is returned when a field array operation finds a value that
	// is not a list.
	ErrNotArray = errors.New("formstate: value is not a list")
	// ErrIndexOutOfRange is returned by field array operations given an index
	// outside the list.
	ErrIndexOutOfRange = errors.New("formstate: index out of range")
	// ErrInvalidOptions is returned by New for contradictory options.
	ErrInvalidOptions = errors.New("formstate: invalid options")
)

// FieldError is the validation failure recorded for one field.
type FieldError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	// Ref is the governing widget (the first widget of a group).
	Ref widget.Element `json:"-"`
	// Types holds every failing rule and its message in collect-all mode.
	Types map[string]string `json:"types,omitempty"`
}

func (e FieldError) Error() string {
	if e.Message == "" {
		return e.Type
	}
	return e.Type + ": " + e.Message
}

// Equal compares errors by content, ignoring the widget reference.
func (e FieldError) Equal(other any) bool {
	o, ok := other.(FieldError)
	if !ok || o.Type != e.Type || o.Message != e.Message || len(o.Types) != len(e.Types) {
		return false
	}
	for k, v := range e.Types {
		if ov, ok := o.Types[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// FieldErrors is the errors tree. It mirrors the shape of the form values;
// leaves are FieldError values.
type FieldErrors map[string]any

// Get returns the error recorded at name.
func (fe FieldErrors) Get(name string) (FieldError, bool) {
	v, ok := fieldpath.Get(fe.plain(), name)
	if !ok {
		return FieldError{}, false
	}
	e, ok := v.(FieldError)
	return e, ok
}

// Has reports whether name or anything underneath it carries an error.
func (fe FieldErrors) Has(name string) bool {
	_, ok := fieldpath.Get(fe.plain(), name)
	return ok
}

// Len returns the number of error leaves.
func (fe FieldErrors) Len() int { return len(fe.Flatten()) }

// Flatten returns every error leaf keyed by its dot path.
func (fe FieldErrors) Flatten() map[string]FieldError {
	out := map[string]FieldError{}
	flattenErrors("", map[string]any(fe), out)
	return out
}

func flattenErrors(prefix string, node any, out map[string]FieldError) {
	switch n := node.(type) {
	case FieldError:
		out[prefix] = n
	case map[string]any:
		for k, v := range n {
			flattenErrors(fieldpath.Join(prefix, k), v, out)
		}
	case FieldErrors:
		flattenErrors(prefix, map[string]any(n), out)
	case []any:
		for i, v := range n {
			if v != nil {
				flattenErrors(fieldpath.Join(prefix, fmt.Sprint(i)), v, out)
			}
		}
	}
}

func (fe FieldErrors) plain() map[string]any {
	return plainErrors(map[string]any(fe)).(map[string]any)
}

// plainErrors converts nested FieldErrors nodes to map[string]any so the
// tree can be walked with fieldpath.
func plainErrors(node any) any {
	switch n := node.(type) {
	case FieldErrors:
		return plainErrors(map[string]any(n))
	case map[string]any:
		out := make(map[string]any, len(n))
		for k, v := range n {
			out[k] = plainErrors(v)
		}
		return out
	case []any:
		out := make([]any, len(n))
		for i, v := range n {
			out[i] = plainErrors(v)
		}
		return out
	}
	return node
}

// Issues lists the errors sorted by path.
func (fe FieldErrors) Issues() Issues {
	flat := fe.Flatten()
	if len(flat) == 0 {
		return nil
	}
	paths := make([]string, 0, len(flat))
	for p := range flat {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	iss := make(Issues, 0, len(paths))
	for _, p := range paths {
		e := flat[p]
		iss = append(iss, Issue{Path: p, Code: e.Type, Message: e.Message, Types: e.Types})
	}
	return iss
}

// Err returns the errors as Issues, or nil when the tree is empty.
func (fe FieldErrors) Err() error {
	if iss := fe.Issues(); len(iss) > 0 {
		return iss
	}
	return nil
}

// MarshalJSON encodes the tree with its FieldError leaves.
func (fe FieldErrors) MarshalJSON() ([]byte, error) {
	return gojson.Marshal(map[string]any(fe))
}

// Issue is one flattened validation failure.
type Issue struct {
	Path    string            `json:"path"` // dot path, e.g. items.2.price
	Code    string            `json:"code"` // rule kind or validator name
	Message string            `json:"message,omitempty"`
	Types   map[string]string `json:"types,omitempty"`
}

// Pointer returns the issue path as a JSON Pointer.
func (it Issue) Pointer() string { return fieldpath.Pointer(it.Path) }

// Issues is a collection of validation failures that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	lim := len(iss)
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		fmt.Fprintf(b, "%s at %s", iss[i].Code, iss[i].Path)
	}
	if len(iss) > lim {
		fmt.Fprintf(b, "; ... (total %d)", len(iss))
	}
	return b.String()
}

// AsIssues extracts Issues from an error using errors.As.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}
