package formdef

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gojson "github.com/goccy/go-json"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Format is a definition or values file encoding.
type Format int

const (
	FormatYAML Format = iota + 1
	FormatJSON
	// FormatJSONC is JSON extended with // and /* */ comments and trailing
	// commas.
	FormatJSONC
)

// ErrUnknownFormat is returned for file extensions with no known encoding.
var ErrUnknownFormat = errors.New("formdef: unknown format")

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".jsonc":
		return FormatJSONC, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
}

// Parse decodes a definition.
func Parse(data []byte, format Format) (*Definition, error) {
	var def Definition
	if err := decode(data, format, &def); err != nil {
		return nil, fmt.Errorf("parsing form: %w", err)
	}
	def.DefaultValues = normalizeTree(def.DefaultValues)
	return &def, nil
}

// ReadFile reads and parses a definition file; the format follows the
// extension.
func ReadFile(path string) (*Definition, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	def, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if def.Name == "" {
		def.Name = NameFromPath(path)
	}
	return def, nil
}

// ParseValues decodes a values document into a value tree.
func ParseValues(data []byte, format Format) (map[string]any, error) {
	var values map[string]any
	if err := decode(data, format, &values); err != nil {
		return nil, fmt.Errorf("parsing values: %w", err)
	}
	return normalizeTree(values), nil
}

// ReadValues reads a values file; the format follows the extension.
func ReadValues(path string) (map[string]any, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	values, err := ParseValues(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return values, nil
}

// NameFromPath derives a form name from a file path: "forms/signup.yaml"
// returns "signup".
func NameFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func decode(data []byte, format Format, v any) error {
	switch format {
	case FormatYAML:
		return yaml.Unmarshal(data, v)
	case FormatJSON:
		return gojson.Unmarshal(data, v)
	case FormatJSONC:
		return gojson.Unmarshal(jsonc.ToJSON(data), v)
	}
	return fmt.Errorf("%w: %d", ErrUnknownFormat, format)
}

// normalizeTree converts the integers YAML produces into float64, matching
// what JSON decoding and number inputs yield.
func normalizeTree(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out, _ := normalize(m).(map[string]any)
	return out
}

func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, x := range t {
			t[k] = normalize(x)
		}
		return t
	case []any:
		for i, x := range t {
			t[i] = normalize(x)
		}
		return t
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case uint64:
		return float64(t)
	}
	return v
}
