package fieldpath

import (
	"strconv"
	"strings"
)

// Path is a parsed path. It builds child paths without mutating the receiver,
// which keeps it safe to share while walking a tree.
type Path []string

// Of parses a dot/bracket path into a Path.
func Of(path string) Path { return Path(Parse(path)) }

// Field returns the path extended with a key.
func (p Path) Field(name string) Path {
	if name == "" {
		return p
	}
	return append(append(Path{}, p...), name)
}

// Index returns the path extended with an array index.
func (p Path) Index(i int) Path {
	return append(append(Path{}, p...), strconv.Itoa(i))
}

// String renders the path in dot notation.
func (p Path) String() string { return strings.Join(p, ".") }

// Pointer renders the path as an RFC 6901 JSON Pointer.
func (p Path) Pointer() string {
	if len(p) == 0 {
		return "/"
	}
	b := &strings.Builder{}
	for _, seg := range p {
		b.WriteByte('/')
		b.WriteString(strings.ReplaceAll(strings.ReplaceAll(seg, "~", "~0"), "/", "~1"))
	}
	return b.String()
}

// Pointer converts a dot/bracket path into a JSON Pointer.
func Pointer(path string) string { return Of(path).Pointer() }

// FromPointer converts a JSON Pointer ("/items/0/name") into dot notation.
func FromPointer(ptr string) string {
	if ptr == "" || ptr == "/" {
		return ""
	}
	parts := strings.Split(strings.TrimPrefix(ptr, "/"), "/")
	for i, part := range parts {
		parts[i] = strings.ReplaceAll(strings.ReplaceAll(part, "~1", "/"), "~0", "~")
	}
	return strings.Join(parts, ".")
}
