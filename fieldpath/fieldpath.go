// Package fieldpath addresses locations inside nested value trees built from
// map[string]any and []any.
//
// Paths are dot separated. Array indices may be written as bare numeric
// segments ("items.0.name") or bracketed ("items[0].name"); both forms address
// the same location. Quotes inside brackets are ignored, so `a["b"]` is "a.b".
package fieldpath

import (
	"errors"
	"strconv"
	"strings"
)

// ErrUnsafeSegment is returned by Set when a path contains a segment that
// would address a prototype-like slot (__proto__, constructor, prototype).
var ErrUnsafeSegment = errors.New("fieldpath: unsafe path segment")

// ErrEmptyPath is returned by Set when the path has no segments.
var ErrEmptyPath = errors.New("fieldpath: empty path")

var segmentCleaner = strings.NewReplacer(`"`, "", `'`, "", "]", "")

// Parse splits a path into its segments. Empty segments are dropped.
func Parse(path string) []string {
	if path == "" {
		return nil
	}
	return strings.FieldsFunc(segmentCleaner.Replace(path), func(r rune) bool {
		return r == '.' || r == '['
	})
}

// Normalize returns the canonical dot form of path ("a[0].b" -> "a.0.b").
func Normalize(path string) string { return strings.Join(Parse(path), ".") }

// IsKey reports whether path is a single top-level key.
func IsKey(path string) bool { return !strings.ContainsAny(path, ".[") }

// Join appends child to parent using dot notation.
func Join(parent, child string) string {
	switch {
	case parent == "":
		return child
	case child == "":
		return parent
	}
	return parent + "." + child
}

// Parent returns the path without its last segment ("" for top-level keys).
func Parent(path string) string {
	segs := Parse(path)
	if len(segs) <= 1 {
		return ""
	}
	return strings.Join(segs[:len(segs)-1], ".")
}

// HasPrefix reports whether path equals prefix or lies underneath it.
func HasPrefix(path, prefix string) bool {
	path, prefix = Normalize(path), Normalize(prefix)
	if prefix == "" {
		return true
	}
	return path == prefix || strings.HasPrefix(path, prefix+".")
}

// Index parses seg as a non-negative array index.
func Index(seg string) (int, bool) {
	if seg == "" {
		return 0, false
	}
	for i := 0; i < len(seg); i++ {
		if seg[i] < '0' || seg[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(seg)
	if err != nil {
		return 0, false
	}
	return n, true
}

func unsafeSegment(seg string) bool {
	return seg == "__proto__" || seg == "constructor" || seg == "prototype"
}

// Get returns the value stored at path. The second result is false when any
// segment along the way is missing, when an intermediate value is not a
// container, or when the addressed array slot is a hole.
func Get(tree any, path string) (any, bool) {
	segs := Parse(path)
	if len(segs) == 0 {
		return nil, false
	}
	cur := tree
	for _, seg := range segs {
		v, ok := lookup(cur, seg)
		if !ok {
			return nil, false
		}
		cur = v
	}
	return cur, true
}

// GetOr returns the value at path, or fallback when the path is absent.
func GetOr(tree any, path string, fallback any) any {
	if v, ok := Get(tree, path); ok {
		return v
	}
	return fallback
}

// Set stores value at path, creating intermediate containers as needed. A
// missing container becomes []any when the following segment is numeric and
// map[string]any otherwise.
func Set(tree map[string]any, path string, value any) error {
	segs := Parse(path)
	if len(segs) == 0 {
		return ErrEmptyPath
	}
	for _, seg := range segs {
		if unsafeSegment(seg) {
			return ErrUnsafeSegment
		}
	}
	setIn(tree, segs, value)
	return nil
}

// Unset removes the value at path and prunes containers that became empty.
// Clearing an array element leaves a hole (nil); trailing holes are truncated
// and an array left with no elements is removed from its parent. It reports
// whether anything was removed.
func Unset(tree map[string]any, path string) bool {
	segs := Parse(path)
	if len(segs) == 0 || tree == nil {
		return false
	}
	_, removed := unsetIn(tree, segs)
	return removed
}

func lookup(container any, seg string) (any, bool) {
	switch c := container.(type) {
	case map[string]any:
		v, ok := c[seg]
		return v, ok
	case []any:
		i, ok := Index(seg)
		if !ok || i >= len(c) || c[i] == nil {
			return nil, false
		}
		return c[i], true
	}
	return nil, false
}

func isContainer(v any) bool {
	switch v.(type) {
	case map[string]any, []any:
		return true
	}
	return false
}

func newContainer(next string) any {
	if _, ok := Index(next); ok {
		return []any{}
	}
	return map[string]any{}
}

func setIn(container any, segs []string, value any) any {
	seg := segs[0]
	if len(segs) == 1 {
		return assign(container, seg, value)
	}
	child, _ := lookup(container, seg)
	if !isContainer(child) {
		child = newContainer(segs[1])
	}
	return assign(container, seg, setIn(child, segs[1:], value))
}

func assign(container any, seg string, v any) any {
	switch c := container.(type) {
	case map[string]any:
		c[seg] = v
		return c
	case []any:
		i, ok := Index(seg)
		if !ok {
			m := make(map[string]any, len(c)+1)
			for idx, el := range c {
				if el != nil {
					m[strconv.Itoa(idx)] = el
				}
			}
			m[seg] = v
			return m
		}
		for len(c) <= i {
			c = append(c, nil)
		}
		c[i] = v
		return c
	}
	return container
}

func unsetIn(container any, segs []string) (any, bool) {
	seg := segs[0]
	if len(segs) == 1 {
		return remove(container, seg)
	}
	child, ok := lookup(container, seg)
	if !ok {
		return container, false
	}
	child, removed := unsetIn(child, segs[1:])
	if !removed {
		return container, false
	}
	if emptyContainer(child) {
		return remove(container, seg)
	}
	return assign(container, seg, child), true
}

func remove(container any, seg string) (any, bool) {
	switch c := container.(type) {
	case map[string]any:
		if _, ok := c[seg]; !ok {
			return c, false
		}
		delete(c, seg)
		return c, true
	case []any:
		i, ok := Index(seg)
		if !ok || i >= len(c) || c[i] == nil {
			return c, false
		}
		c[i] = nil
		return trimHoles(c), true
	}
	return container, false
}

func trimHoles(s []any) []any {
	n := len(s)
	for n > 0 && s[n-1] == nil {
		n--
	}
	return s[:n]
}

func emptyContainer(v any) bool {
	switch c := v.(type) {
	case map[string]any:
		return len(c) == 0
	case []any:
		return len(trimHoles(c)) == 0
	}
	return false
}
