package services

import (
	"strings"
	"unicode"
)

// matchKey lowercases s and collapses every run of non-alphanumerics to one
// space. Bracketed text and words like "feat" are kept.
func matchKey(s string) string {
	return strings.TrimSpace(collapseSeparators(strings.ToLower(s)))
}

// containsFragment reports whether fragment occurs in value, case-insensitive.
// Both sides are compared by matchKey; a fragment that keys to nothing is
// compared raw.
func containsFragment(value, fragment string) bool {
	want := matchKey(fragment)
	if want == "" {
		return strings.Contains(strings.ToLower(value), strings.ToLower(strings.TrimSpace(fragment)))
	}
	return strings.Contains(matchKey(value), want)
}

func collapseSeparators(s string) string {
	var b strings.Builder
	space := false
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			space = false
			continue
		}
		if !space {
			b.WriteRune(' ')
			space = true
		}
	}
	return b.String()
}
