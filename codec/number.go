package codec

import (
	"math"
	"strconv"
	"strings"
)

// Number coerces raw widget text the way a numeric input reports it: an empty
// string yields NaN, numeric text yields a float64, and anything else is
// returned unchanged so a later required check can still see it.
func Number(s string) any {
	if s == "" {
		return math.NaN()
	}
	if f, ok := ParseNumber(s); ok {
		return f
	}
	return s
}

// ParseNumber parses decimal or exponent notation, ignoring surrounding space.
// Hex, octal and the Inf/NaN spellings accepted by strconv are rejected.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r == '.', r == '-', r == '+', r == 'e', r == 'E':
		default:
			return 0, false
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ToFloat converts a field value to a number when it has a numeric reading:
// Go numeric kinds directly, numeric strings through ParseNumber.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case string:
		return ParseNumber(n)
	}
	return 0, false
}

// FormatNumber renders a number for a text widget. NaN renders as "".
func FormatNumber(f float64) string {
	if math.IsNaN(f) {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
