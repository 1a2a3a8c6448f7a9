package extract

import (
	"regexp"
	"strings"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	commaRe      = regexp.MustCompile(`\s*,\s*`)
)

// Normalize cleans scraped text: non-breaking spaces become plain spaces,
// whitespace runs collapse to one space, comma spacing becomes ", " and the
// result is trimmed. Idempotent; safe for any input including "".
func Normalize(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = whitespaceRe.ReplaceAllString(s, " ")
	s = commaRe.ReplaceAllString(s, ", ")
	return strings.TrimSpace(s)
}
