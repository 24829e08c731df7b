// Package jsonschema validates form values against a JSON Schema subset and
// plugs into formstate as a Resolver.
package jsonschema

import (
	"fmt"

	gojson "github.com/goccy/go-json"
)

// Schema is the JSON Schema subset understood by the resolver.
type Schema struct {
	// Core
	Type    string `json:"type,omitempty" yaml:"type,omitempty"`
	Title   string `json:"title,omitempty" yaml:"title,omitempty"`
	Format  string `json:"format,omitempty" yaml:"format,omitempty"`
	Default any    `json:"default,omitempty" yaml:"default,omitempty"`
	Enum    []any  `json:"enum,omitempty" yaml:"enum,omitempty"`

	// String
	MinLength *int   `json:"minLength,omitempty" yaml:"minLength,omitempty"`
	MaxLength *int   `json:"maxLength,omitempty" yaml:"maxLength,omitempty"`
	Pattern   string `json:"pattern,omitempty" yaml:"pattern,omitempty"`

	// Number
	Minimum *float64 `json:"minimum,omitempty" yaml:"minimum,omitempty"`
	Maximum *float64 `json:"maximum,omitempty" yaml:"maximum,omitempty"`

	// Object
	Properties           map[string]*Schema `json:"properties,omitempty" yaml:"properties,omitempty"`
	Required             []string           `json:"required,omitempty" yaml:"required,omitempty"`
	AdditionalProperties any                `json:"additionalProperties,omitempty" yaml:"additionalProperties,omitempty"`

	// Array
	Items    *Schema `json:"items,omitempty" yaml:"items,omitempty"`
	MinItems *int    `json:"minItems,omitempty" yaml:"minItems,omitempty"`
	MaxItems *int    `json:"maxItems,omitempty" yaml:"maxItems,omitempty"`

	// Union
	OneOf []*Schema `json:"oneOf,omitempty" yaml:"oneOf,omitempty"`
}

// Parse decodes a JSON schema document.
func Parse(data []byte) (*Schema, error) {
	var s Schema
	if err := gojson.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("jsonschema: %w", err)
	}
	return &s, nil
}

// MarshalIndent renders the schema as indented JSON.
func (s *Schema) MarshalIndent() ([]byte, error) {
	return gojson.MarshalIndent(s, "", "  ")
}
