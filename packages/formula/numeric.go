package formula

import (
	"regexp"
	"strconv"
	"strings"
)

var numericPattern = regexp.MustCompile(`^\s*-?\d+(\.\d+)?\s*$`)

// IsNumeric reports whether text is an optionally negative decimal number,
// optionally surrounded by whitespace. exponents, a leading "+" and
// thousands separators are not numbers.
func IsNumeric(text string) bool {
	return numericPattern.MatchString(text)
}

// ParseNumeric parses text accepted by IsNumeric
func ParseNumeric(text string) (float64, bool) {
	if !IsNumeric(text) {
		return 0, false
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ToNumber coerces a grammar value for arithmetic use. numbers pass
// through, numeric-looking strings are parsed, everything else is 0.
func ToNumber(value any) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case int32:
		return float64(v)
	case uint:
		return float64(v)
	case uint64:
		return float64(v)
	case string:
		if n, ok := ParseNumeric(v); ok {
			return n
		}
		return 0
	default:
		return 0
	}
}

// AsNumber reports the float64 form of a numeric grammar result
func AsNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint64:
		return float64(v), true
	default:
		return 0, false
	}
}
