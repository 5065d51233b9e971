package observation

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseNumber reports whether s reads as a finite floating point number.
// This is the only rule deciding number-vs-string on the wire: "007" is the
// number 7 and "N/A" stays a string.
func ParseNumber(s string) (float64, bool) {
	t := strings.TrimSpace(s)
	if t == "" {
		return 0, false
	}
	// strconv accepts hex floats; the wire never carries them as numbers.
	if l := strings.ToLower(strings.TrimLeft(t, "+-")); strings.HasPrefix(l, "0x") {
		return 0, false
	}
	f, err := strconv.ParseFloat(t, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// FormatNumber renders a float in its shortest round-trip form.
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// valueText converts a decoded wire value to its canonical text. A nil value
// is a removal tombstone.
func valueText(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", true
	case string:
		return t, false
	case json.Number:
		return t.String(), false
	case float64:
		return FormatNumber(t), false
	case float32:
		return FormatNumber(float64(t)), false
	case int:
		return strconv.Itoa(t), false
	case int64:
		return strconv.FormatInt(t, 10), false
	case uint64:
		return strconv.FormatUint(t, 10), false
	case bool:
		return strconv.FormatBool(t), false
	default:
		return fmt.Sprint(t), false
	}
}

// wireValue is the inverse of valueText: numeric-looking text becomes a
// float64, everything else stays a string.
func wireValue(s string) any {
	if f, ok := ParseNumber(s); ok {
		return f
	}
	return s
}
