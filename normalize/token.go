package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Token canonicalizes a free-text identifier for containment tests: NFKC so
// full-width and half-width variants compare equal, then all whitespace
// removed. Empty input normalizes to the empty string.
func Token(s string) string {
	if s == "" {
		return ""
	}
	folded := norm.NFKC.String(s)
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
