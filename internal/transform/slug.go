package transform

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	slugInvalidRegex = regexp.MustCompile(`[^\w\s-]`)
	slugDashRegex    = regexp.MustCompile(`[\s_-]+`)
)

// asciiFold decomposes to NFKD and drops combining marks and any remaining
// non-ASCII runes, so "Café" slugs the same as "Cafe".
var asciiFold = transform.Chain(
	norm.NFKD,
	runes.Remove(runes.In(unicode.Mn)),
	runes.Remove(runes.Predicate(func(r rune) bool { return r > unicode.MaxASCII })),
)

// Slugify derives the URL-safe slug from a title: ASCII-fold, casefold, strip
// everything outside word chars/whitespace/hyphen, collapse separator runs to
// a single hyphen, trim leading and trailing separators.
func Slugify(title string) string {
	s, _, err := transform.String(asciiFold, title)
	if err != nil {
		s = title
	}
	s = strings.ToLower(strings.TrimSpace(s))
	s = slugInvalidRegex.ReplaceAllString(s, "")
	s = slugDashRegex.ReplaceAllString(s, "-")
	return strings.Trim(s, "-_")
}
