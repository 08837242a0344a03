// Package match holds the literal-text matching rules used to tie a
// notification message to the triggering event: the fixed body phrase, the
// embedded document URL, and normalized token containment.
package match

import (
	"regexp"
	"strings"

	"mailresolve/normalize"
)

// PhrasePrefix is the fixed marker that precedes the personnel id in
// notification message bodies.
const PhrasePrefix = "弔事の発生した従業員："

var urlPattern = regexp.MustCompile(`https?://[^\s<>"']+`)

// Phrase builds the full body phrase for a personnel id.
func Phrase(personnelID string) string {
	return PhrasePrefix + personnelID
}

// BodyHasPhrase reports whether the body contains the literal phrase for the
// given personnel id. An empty id never matches.
func BodyHasPhrase(body, personnelID string) bool {
	if personnelID == "" {
		return false
	}
	return strings.Contains(body, Phrase(personnelID))
}

// FirstURL returns the first URL embedded in the text.
func FirstURL(text string) (string, bool) {
	m := urlPattern.FindString(text)
	return m, m != ""
}

// ContainsToken reports whether the normalized haystack contains the
// normalized token. Empty tokens never match.
func ContainsToken(haystack, token string) bool {
	tok := normalize.Token(token)
	if tok == "" {
		return false
	}
	return strings.Contains(normalize.Token(haystack), tok)
}
