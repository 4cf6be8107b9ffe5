package transform

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Date layouts seen across the sources: RSS pubDate variants, ISO-8601 with
// and without time, iTunes/Spotify release dates, Google Books partial dates
// and a couple of human-readable forms from scraped pages.
var dateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006-01",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
}

// US timezone abbreviations are ambiguous to the generic layouts; rewrite
// them to explicit offsets before parsing.
var usTimezones = map[string]string{
	"EST": "-0500",
	"EDT": "-0400",
	"CST": "-0600",
	"CDT": "-0500",
	"MST": "-0700",
	"MDT": "-0600",
	"PST": "-0800",
	"PDT": "-0700",
}

var (
	yearOnlyRegex = regexp.MustCompile(`^\d{4}$`)
	relativeRegex = regexp.MustCompile(`(?i)^(?:(\d+)\s*hours?)?\s*(?:(\d+)\s*days?)?\s*ago$`)
	relDayFirst   = regexp.MustCompile(`(?i)^(?:(\d+)\s*days?)?\s*(?:(\d+)\s*hours?)?\s*ago$`)
)

// StandardDate normalizes a source date string to "YYYY-MM-DD". A bare
// four-digit year maps to Jan 1 of that year; "<N> hours/days ago" phrases
// are resolved against the current clock. Returns "" when the input cannot
// be parsed; callers treat that as "unknown", never as an error.
func StandardDate(pubDate string) string {
	return standardDateAt(pubDate, time.Now().UTC())
}

func standardDateAt(pubDate string, now time.Time) string {
	s := strings.TrimSpace(pubDate)
	if s == "" {
		return ""
	}

	if yearOnlyRegex.MatchString(s) {
		return s + "-01-01"
	}

	if t, ok := parseRelative(s, now); ok {
		return t.Format("2006-01-02")
	}

	for abbr, offset := range usTimezones {
		if strings.HasSuffix(s, " "+abbr) {
			s = strings.TrimSuffix(s, abbr) + offset
			break
		}
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}

	return ""
}

// parseRelative handles "<N> hours ago", "<N> days ago" and combined phrases
// in either order; hour and day components are independently optional and
// summed.
func parseRelative(s string, now time.Time) (time.Time, bool) {
	for _, re := range []*regexp.Regexp{relativeRegex, relDayFirst} {
		m := re.FindStringSubmatch(s)
		if m == nil || (m[1] == "" && m[2] == "") {
			continue
		}
		var hours, days int
		switch re {
		case relativeRegex:
			hours, _ = strconv.Atoi(m[1])
			days, _ = strconv.Atoi(m[2])
		default:
			days, _ = strconv.Atoi(m[1])
			hours, _ = strconv.Atoi(m[2])
		}
		d := time.Duration(days)*24*time.Hour + time.Duration(hours)*time.Hour
		return now.Add(-d), true
	}
	return time.Time{}, false
}

// StandardDuration converts an audio length to canonical "HH:MM:SS". Accepts
// "HH:MM:SS", "MM:SS" and bare integer milliseconds (the iTunes
// trackTimeMillis shape). Returns "" when unparsable.
func StandardDuration(audioLength string) string {
	s := strings.TrimSpace(audioLength)
	if s == "" {
		return ""
	}

	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return MillisToDuration(ms)
	}

	parts := strings.Split(s, ":")
	switch len(parts) {
	case 3:
		h, errH := strconv.Atoi(parts[0])
		m, errM := strconv.Atoi(parts[1])
		sec, errS := strconv.Atoi(parts[2])
		if errH != nil || errM != nil || errS != nil || m > 59 || sec > 59 || h < 0 || m < 0 || sec < 0 {
			return ""
		}
		return fmt.Sprintf("%02d:%02d:%02d", h, m, sec)
	case 2:
		m, errM := strconv.Atoi(parts[0])
		sec, errS := strconv.Atoi(parts[1])
		if errM != nil || errS != nil || sec > 59 || m < 0 || sec < 0 {
			return ""
		}
		return fmt.Sprintf("%02d:%02d:%02d", m/60, m%60, sec)
	}
	return ""
}

// MillisToDuration converts a millisecond count to "HH:MM:SS".
func MillisToDuration(ms int64) string {
	if ms < 0 {
		return ""
	}
	total := ms / 1000
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}

// TimestampMillis is the record creation timestamp, milliseconds since epoch.
func TimestampMillis() int64 {
	return time.Now().UTC().UnixMilli()
}
