package formdef

import (
	"github.com/reoring/formstate/codec"
	"github.com/reoring/formstate/fieldpath"
	"github.com/reoring/formstate/jsonschema"
	"github.com/reoring/formstate/widget"
)

// JSONSchema returns the schema block when the definition has one, and
// otherwise derives an equivalent schema from the field and array rules.
// Rules with no schema counterpart (equalTo, maxFileSize, deps) are left out.
func (d *Definition) JSONSchema() *jsonschema.Schema {
	if d.Schema != nil {
		return d.Schema
	}
	root := &jsonschema.Schema{Type: "object", Title: d.Name}
	for _, a := range d.Arrays {
		s, parent, key := descend(root, a.Name)
		s.Type = "array"
		if s.Items == nil {
			s.Items = &jsonschema.Schema{}
		}
		if on, _ := a.Required.flag(); on {
			addRequired(parent, key)
			if s.MinItems == nil {
				s.MinItems = intPtr(1)
			}
		}
		if n, err := a.MinLength.intValue(); a.MinLength != nil && err == nil {
			s.MinItems = intPtr(n)
		}
		if n, err := a.MaxLength.intValue(); a.MaxLength != nil && err == nil {
			s.MaxItems = intPtr(n)
		}
	}
	for _, f := range d.Fields {
		s, parent, key := descend(root, f.Name)
		f.describe(s)
		if on, _ := f.Required.flag(); on {
			addRequired(parent, key)
		}
	}
	return root
}

func (f Field) describe(s *jsonschema.Schema) {
	kind := widget.KindOf(f.Type)
	switch {
	case f.ValueAsNumber || kind == widget.KindNumber:
		s.Type = "number"
	case f.ValueAsDate || kind == widget.KindDate:
		s.Type = "string"
		s.Format = "date"
	case kind == widget.KindCheckbox && len(f.Options) <= 1,
		kind == widget.KindFile:
		// a lone checkbox is boolean; files have no JSON reading
		if kind == widget.KindCheckbox {
			s.Type = "boolean"
		}
		return
	case kind == widget.KindCheckbox || kind == widget.KindSelectMultiple:
		s.Type = "array"
		s.Items = &jsonschema.Schema{Type: "string", Enum: enum(f.Options)}
		return
	default:
		s.Type = "string"
		s.Enum = enum(f.Options)
	}
	if f.Min != nil {
		if n, ok := codec.ToFloat(normalize(f.Min.Value)); ok && s.Type == "number" {
			s.Minimum = &n
		}
	}
	if f.Max != nil {
		if n, ok := codec.ToFloat(normalize(f.Max.Value)); ok && s.Type == "number" {
			s.Maximum = &n
		}
	}
	if s.Type != "string" {
		return
	}
	if n, err := f.MinLength.intValue(); f.MinLength != nil && err == nil {
		s.MinLength = intPtr(n)
	}
	if n, err := f.MaxLength.intValue(); f.MaxLength != nil && err == nil {
		s.MaxLength = intPtr(n)
	}
	if p, err := f.Pattern.stringValue(); f.Pattern != nil && err == nil {
		s.Pattern = p
	}
}

// descend walks (creating as needed) the schema node for a field path and
// returns it with the object that holds it and its key there. Index
// segments step into the items schema.
func descend(root *jsonschema.Schema, path string) (node, parent *jsonschema.Schema, key string) {
	node = root
	for _, seg := range fieldpath.Parse(path) {
		if _, ok := fieldpath.Index(seg); ok {
			node.Type = "array"
			if node.Items == nil {
				node.Items = &jsonschema.Schema{}
			}
			node = node.Items
			continue
		}
		if node.Type == "" {
			node.Type = "object"
		}
		if node.Properties == nil {
			node.Properties = map[string]*jsonschema.Schema{}
		}
		child, ok := node.Properties[seg]
		if !ok {
			child = &jsonschema.Schema{}
			node.Properties[seg] = child
		}
		parent, key, node = node, seg, child
	}
	return node, parent, key
}

func addRequired(parent *jsonschema.Schema, key string) {
	if parent == nil {
		return
	}
	for _, r := range parent.Required {
		if r == key {
			return
		}
	}
	parent.Required = append(parent.Required, key)
}

func enum(options []string) []any {
	if len(options) == 0 {
		return nil
	}
	out := make([]any, len(options))
	for i, o := range options {
		out[i] = o
	}
	return out
}

func intPtr(n int) *int { return &n }
