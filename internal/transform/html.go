package transform

import (
	"html"
	"regexp"
)

var (
	eolTagRegex   = regexp.MustCompile(`</p>|(<br>)+|(<br/>)+`)
	spaceTagRegex = regexp.MustCompile(`&nbsp;`)
	tagRegex      = regexp.MustCompile(`<.*?>`)
)

// CleanHTML strips markup from a description: paragraph and line breaks become
// newlines, non-breaking spaces become spaces, remaining tags are dropped and
// entities unescaped.
func CleanHTML(raw string) string {
	s := eolTagRegex.ReplaceAllString(raw, "\n")
	s = spaceTagRegex.ReplaceAllString(s, " ")
	s = tagRegex.ReplaceAllString(s, "")
	return html.UnescapeString(s)
}
