package etl

import (
	"strings"
	"unicode"
)

// locationTable maps neighborhood abbreviations to canonical names. Order
// matters: the first substring match wins, so broader abbreviations that could
// shadow earlier entries must stay below them.
var locationTable = []struct {
	abbrev    string
	canonical string
}{
	{"fidi", "Financial District"},
	{"soma", "SoMa"},
	{"nob hill", "Nob Hill"},
	{"pac heights", "Pacific Heights"},
	{"mission", "Mission District"},
	{"castro", "The Castro"},
	{"haight", "Haight-Ashbury"},
}

// NormalizeLocation maps a raw location string to a canonical neighborhood
// name. Empty input yields "Unknown"; unmapped input passes through
// title-cased.
func NormalizeLocation(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "Unknown"
	}

	lower := strings.ToLower(trimmed)
	for _, entry := range locationTable {
		if strings.Contains(lower, entry.abbrev) {
			return entry.canonical
		}
	}

	return titleCase(trimmed)
}

// CollapseWhitespace trims s and collapses internal runs of whitespace to a
// single space.
func CollapseWhitespace(s string) string {
	fields := strings.FieldsFunc(s, unicode.IsSpace)
	return strings.Join(fields, " ")
}

// titleCase capitalizes the first letter of every word and lowercases the rest
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
		} else {
			b.WriteRune(r)
			prevLetter = false
		}
	}

	return b.String()
}
