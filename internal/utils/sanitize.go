package utils

import (
	"strings"
	"unicode/utf8"
)

// SanitizeSurrogates removes byte sequences that are not valid UTF-8 from s.
// Lone UTF-16 surrogate halves that reach Go as CESU-style byte triples are
// invalid UTF-8 and are dropped the same way, so every vendor receives text
// it can re-encode.
func SanitizeSurrogates(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	return strings.ToValidUTF8(s, "")
}
