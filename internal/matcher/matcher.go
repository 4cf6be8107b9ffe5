// Package matcher decides whether two episode titles or two show names coming
// from unrelated catalogs refer to the same thing. The rules are a fixed set
// of hand-tuned heuristics for podcast title conventions, applied in order
// with short-circuit on the first hit; none of them ever returns an error.
package matcher

import (
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

// MatchTitle reports whether candidateTitle (from the other catalog) refers
// to the same episode as episodeTitle of podcastName. Pure, no I/O.
//
// Rules, in order:
//  1. exact match after normalization
//  2. candidate contains both episode title and podcast name
//  3. rule 1 after stripping episode numbers from both sides
//  4. rule 2 after stripping episode numbers from the titles
//
// No rule accepts podcast-name containment alone; that would false-positive
// on generic episode titles shared across many shows.
func MatchTitle(episodeTitle, podcastName, candidateTitle string) bool {
	title := Normalize(episodeTitle)
	candidate := Normalize(candidateTitle)
	podcast := Normalize(podcastName)

	if title == candidate {
		return true
	}
	if title != "" && podcast != "" &&
		strings.Contains(candidate, title) && strings.Contains(candidate, podcast) {
		return true
	}

	titleNoEp := StripEpisodeNumber(title)
	candidateNoEp := StripEpisodeNumber(candidate)
	if titleNoEp == candidateNoEp {
		return true
	}
	if titleNoEp != "" && podcast != "" &&
		strings.Contains(candidateNoEp, titleNoEp) && strings.Contains(candidateNoEp, podcast) {
		return true
	}

	return false
}

// MatchPodcast reports whether two show names refer to the same show.
// publisher, when known, is the publisher string attached to nameB's catalog
// entry; pass "" when unavailable.
//
// Rules, in order:
//  1. exact match after trim + casefold (punctuation kept)
//  2. nameA embeds both nameB and its publisher
//  3. equal after punctuation removal
//  4. equal after stripping a trailing " - " tagline from both
//  5. equal after stripping a " | " keyword block from both
func MatchPodcast(nameA, nameB, publisher string) bool {
	a := strings.ToLower(strings.TrimSpace(nameA))
	b := strings.ToLower(strings.TrimSpace(nameB))
	pub := strings.ToLower(strings.TrimSpace(publisher))

	if a == b {
		return true
	}
	if pub != "" && strings.Contains(a, b) && strings.Contains(a, pub) {
		return true
	}
	if StripPunctuation(a) == StripPunctuation(b) {
		return true
	}
	if StripTagline(a) == StripTagline(b) {
		return true
	}
	if StripKeywords(a) == StripKeywords(b) {
		return true
	}

	return false
}

// ClosestCandidate returns the candidate nearest to title by Jaro-Winkler
// similarity, for logging when no rule matched. Diagnostics only: similarity
// never accepts a match.
func ClosestCandidate(title string, candidates []string) (string, float64) {
	jw := metrics.NewJaroWinkler()
	best := ""
	var bestScore float64
	for _, c := range candidates {
		score := strutil.Similarity(Normalize(title), Normalize(c), jw)
		if score > bestScore {
			bestScore = score
			best = c
		}
	}
	return best, bestScore
}
