package library

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// NormalizeName canonicalizes a display name for dedup comparison: trim,
// NFKC compatibility fold, lowercase, then strip everything that is not a
// letter, digit, or whitespace. Two names are the same entity iff their
// normalized forms are equal.
func NormalizeName(name string) string {
	folded := norm.NFKC.String(strings.TrimSpace(name))
	lowered := strings.ToLower(folded)

	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizePath canonicalizes a file path for identity comparison:
// lowercase with backslashes folded to forward slashes, so catalog rows
// written on Windows join against scans of the same files elsewhere.
func NormalizePath(path string) string {
	return strings.ToLower(strings.ReplaceAll(path, `\`, "/"))
}
