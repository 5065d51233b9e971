package catalog

import (
	"strings"
	"unicode"
)

// TypeToElement converts an UPPER_SNAKE type string to its PascalCase
// element name: "PATH_FEEDRATE" becomes "PathFeedrate".
func TypeToElement(typ string) string {
	var b strings.Builder
	b.Grow(len(typ))
	for _, word := range strings.Split(typ, "_") {
		if word == "" {
			continue
		}
		runes := []rune(strings.ToLower(word))
		runes[0] = unicode.ToUpper(runes[0])
		b.WriteString(string(runes))
	}
	return b.String()
}

// ElementToType converts a PascalCase element name to an UPPER_SNAKE type
// string. Acronym runs stay together: "VoltageDC" becomes "VOLTAGE_DC" and
// "PHValue" becomes "PH_VALUE".
func ElementToType(element string) string {
	runes := []rune(element)
	var b strings.Builder
	b.Grow(len(runes) + 4)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}
