// Package formdef loads declarative form definitions and turns them into
// headless formstate controllers.
//
// Definitions are authored as YAML, JSON, or JSONC (JSON with comments and
// trailing commas):
//
//	name: signup
//	mode: onBlur
//	defaultValues: {plan: free}
//	fields:
//	  - name: email
//	    required: "Email is required"
//	    pattern: {value: "^\\S+@\\S+$", message: "Invalid email"}
//	  - name: age
//	    type: number
//	    valueAsNumber: true
//	    min: 18
//	arrays:
//	  - name: tags
//	    minLength: {value: 1, message: "Add a tag"}
//
// A schema block switches the form to resolver validation through the
// jsonschema package; field rules are then ignored.
package formdef

import (
	"errors"
	"fmt"
	"time"

	gojson "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/reoring/formstate"
	"github.com/reoring/formstate/jsonschema"
)

// Definition is one form.
type Definition struct {
	Name           string `json:"name" yaml:"name"`
	Mode           string `json:"mode,omitempty" yaml:"mode,omitempty"`
	ReValidateMode string `json:"reValidateMode,omitempty" yaml:"reValidateMode,omitempty"`
	// CriteriaMode is "firstError" (default) or "all".
	CriteriaMode string `json:"criteriaMode,omitempty" yaml:"criteriaMode,omitempty"`
	// DelayError is a duration such as "300ms".
	DelayError       string `json:"delayError,omitempty" yaml:"delayError,omitempty"`
	ShouldUnregister bool   `json:"shouldUnregister,omitempty" yaml:"shouldUnregister,omitempty"`

	DefaultValues map[string]any     `json:"defaultValues,omitempty" yaml:"defaultValues,omitempty"`
	Fields        []Field            `json:"fields" yaml:"fields"`
	Arrays        []Array            `json:"arrays,omitempty" yaml:"arrays,omitempty"`
	Schema        *jsonschema.Schema `json:"schema,omitempty" yaml:"schema,omitempty"`
}

// Field is one input.
type Field struct {
	Name string `json:"name" yaml:"name"`
	// Type is the input type ("text", "number", "checkbox", ...).
	Type    string   `json:"type,omitempty" yaml:"type,omitempty"`
	Options []string `json:"options,omitempty" yaml:"options,omitempty"`

	Required  *Rule `json:"required,omitempty" yaml:"required,omitempty"`
	Min       *Rule `json:"min,omitempty" yaml:"min,omitempty"`
	Max       *Rule `json:"max,omitempty" yaml:"max,omitempty"`
	MinLength *Rule `json:"minLength,omitempty" yaml:"minLength,omitempty"`
	MaxLength *Rule `json:"maxLength,omitempty" yaml:"maxLength,omitempty"`
	// Pattern uses ECMAScript syntax, like the browser's pattern attribute.
	Pattern *Rule `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	// EqualTo names another field this one must match.
	EqualTo *Rule `json:"equalTo,omitempty" yaml:"equalTo,omitempty"`
	// MaxFileSize is a size such as "2 MB" for file inputs.
	MaxFileSize *Rule `json:"maxFileSize,omitempty" yaml:"maxFileSize,omitempty"`

	ValueAsNumber bool     `json:"valueAsNumber,omitempty" yaml:"valueAsNumber,omitempty"`
	ValueAsDate   bool     `json:"valueAsDate,omitempty" yaml:"valueAsDate,omitempty"`
	Disabled      bool     `json:"disabled,omitempty" yaml:"disabled,omitempty"`
	Deps          []string `json:"deps,omitempty" yaml:"deps,omitempty"`
}

// Array is a field array with optional list rules.
type Array struct {
	Name      string `json:"name" yaml:"name"`
	Required  *Rule  `json:"required,omitempty" yaml:"required,omitempty"`
	MinLength *Rule  `json:"minLength,omitempty" yaml:"minLength,omitempty"`
	MaxLength *Rule  `json:"maxLength,omitempty" yaml:"maxLength,omitempty"`
}

// Rule is a rule value with an optional message. It is written either as a
// bare value or as {value, message}; a bare string on a boolean rule such as
// required is the message.
type Rule struct {
	Value   any    `json:"value" yaml:"value"`
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
}

var errNoRule = errors.New("rule not set")

type ruleAlias Rule

func (r *Rule) UnmarshalJSON(data []byte) error {
	var obj ruleAlias
	if err := gojson.Unmarshal(data, &obj); err == nil && obj.Value != nil {
		*r = Rule(obj)
		return nil
	}
	return gojson.Unmarshal(data, &r.Value)
}

func (r *Rule) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.MappingNode {
		var obj ruleAlias
		if err := node.Decode(&obj); err != nil {
			return err
		}
		*r = Rule(obj)
		return nil
	}
	return node.Decode(&r.Value)
}

// flag reads a boolean rule: true, or a non-empty string taken as the
// message.
func (r *Rule) flag() (on bool, message string) {
	if r == nil {
		return false, ""
	}
	switch v := r.Value.(type) {
	case bool:
		return v, r.Message
	case string:
		if r.Message != "" {
			return v != "", r.Message
		}
		return v != "", v
	}
	return r.Value != nil, r.Message
}

func (r *Rule) intValue() (int, error) {
	if r == nil {
		return 0, errNoRule
	}
	switch v := r.Value.(type) {
	case int:
		return v, nil
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("%v is not an integer", v)
		}
		return int(v), nil
	}
	return 0, fmt.Errorf("%v is not an integer", r.Value)
}

func (r *Rule) stringValue() (string, error) {
	if r == nil {
		return "", errNoRule
	}
	s, ok := r.Value.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("%v is not a string", r.Value)
	}
	return s, nil
}

// Options converts the form-level settings. Unset settings keep the
// formstate defaults.
func (d *Definition) Options() (formstate.Options, error) {
	var opts formstate.Options
	var errs []error
	if d.Mode != "" {
		m, err := formstate.ParseMode(d.Mode)
		errs = append(errs, err)
		opts.Mode = m
	}
	if d.ReValidateMode != "" {
		m, err := formstate.ParseMode(d.ReValidateMode)
		errs = append(errs, err)
		opts.ReValidateMode = m
	}
	switch d.CriteriaMode {
	case "", "firstError":
	case "all":
		opts.CriteriaMode = formstate.CriteriaAll
	default:
		errs = append(errs, fmt.Errorf("criteriaMode %q", d.CriteriaMode))
	}
	if d.DelayError != "" {
		delay, err := time.ParseDuration(d.DelayError)
		errs = append(errs, err)
		opts.DelayError = delay
	}
	opts.ShouldUnregister = d.ShouldUnregister
	opts.DefaultValues = d.DefaultValues
	if d.Schema != nil {
		opts.Resolver = jsonschema.Resolver(d.Schema, jsonschema.WithDefaults())
	}
	if err := errors.Join(errs...); err != nil {
		return formstate.Options{}, fmt.Errorf("form %q: %w", d.Name, err)
	}
	return opts, nil
}

// Validate checks the definition for structural mistakes: unnamed or
// duplicate fields and rules that cannot be converted.
func (d *Definition) Validate() error {
	var errs []error
	if _, err := d.Options(); err != nil {
		errs = append(errs, err)
	}
	seen := map[string]bool{}
	for i, f := range d.Fields {
		if f.Name == "" {
			errs = append(errs, fmt.Errorf("fields[%d]: name is required", i))
			continue
		}
		if seen[f.Name] {
			errs = append(errs, fmt.Errorf("fields[%d]: duplicate name %q", i, f.Name))
		}
		seen[f.Name] = true
		if _, err := f.registerOptions(); err != nil {
			errs = append(errs, fmt.Errorf("field %q: %w", f.Name, err))
		}
	}
	for i, a := range d.Arrays {
		if a.Name == "" {
			errs = append(errs, fmt.Errorf("arrays[%d]: name is required", i))
			continue
		}
		if _, err := a.rules(); err != nil {
			errs = append(errs, fmt.Errorf("array %q: %w", a.Name, err))
		}
	}
	return errors.Join(errs...)
}
