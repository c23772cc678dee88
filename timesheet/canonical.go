package timesheet

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Canonicalize returns the comparison key for a person's name: lowercase,
// without diacritics, inner whitespace collapsed to one space, trimmed.
//
//	Canonicalize("José  Çosta ") == "jose costa"
func Canonicalize(name string) string {
	if name == "" {
		return ""
	}
	return strings.Join(strings.Fields(stripMarks(strings.ToLower(name))), " ")
}

// stripMarks decomposes s and drops combining marks (Mn).
func stripMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

var leadingOrdinal = regexp.MustCompile(`^[0-9]+\.\s*`)

// CleanTaskName strips a leading ordinal ("3. Audiência" → "Audiência").
func CleanTaskName(label string) string {
	if label == "" {
		return ""
	}
	return strings.TrimSpace(leadingOrdinal.ReplaceAllString(label, ""))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
