package matcher

import (
	"regexp"
	"strings"
)

var (
	// Leading "#12" / "12" or an "ep"/"episode" token with optional "#" and
	// digits, anywhere in the string. Applied to already-casefolded input but
	// kept case-insensitive for standalone use.
	epNumberRegex = regexp.MustCompile(`(?i)^#?\d+|(?:ep|episode)\s?#?\d+`)
	keywordsRegex = regexp.MustCompile(`\s+\|\s+`)
)

// ASCII punctuation set, same characters Python's string.punctuation removes.
const punctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// Normalize trims, casefolds and strips all punctuation. Total function:
// empty input yields empty output.
func Normalize(s string) string {
	return StripPunctuation(strings.ToLower(strings.TrimSpace(s)))
}

// StripPunctuation removes ASCII punctuation characters without touching
// case or whitespace.
func StripPunctuation(s string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(punctuation, r) {
			return -1
		}
		return r
	}, s)
}

// StripTagline removes a trailing " - " tagline: everything after the LAST
// occurrence of the separator is dropped. Taglines trail, so the rightmost
// split is the correct one here.
func StripTagline(s string) string {
	if idx := strings.LastIndex(s, " - "); idx != -1 {
		return s[:idx]
	}
	return s
}

// StripKeywords removes a " | "-delimited keyword block: only the segment
// before the FIRST separator survives. Keyword blocks lead from the first
// pipe onward, unlike taglines.
func StripKeywords(s string) string {
	return keywordsRegex.Split(s, -1)[0]
}

// StripEpisodeNumber removes episode-number patterns ("#12", a leading bare
// number, "ep 12", "episode #12") wherever they occur and trims the result.
func StripEpisodeNumber(s string) string {
	return strings.TrimSpace(epNumberRegex.ReplaceAllString(s, ""))
}
