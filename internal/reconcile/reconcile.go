// Package reconcile pairs an already-normalized episode list from one catalog
// with the raw episode list of the same show on another catalog. Pass 1 pairs
// by title, pass 2 (optional) by exact publish-date string. Every candidate
// episode is consumed at most once, so a popular guest-appearance title cannot
// attach itself to several episodes.
package reconcile

import (
	"log"

	"kimeta/internal/matcher"
	"kimeta/internal/models"
)

// MergeFunc folds a matched candidate episode into the canonical record.
// The direction-specific merge (iTunes vs Spotify) is supplied by the caller.
type MergeFunc func(*models.CanonicalRecord, *models.StreamingEpisode)

// Options control one reconciliation run.
type Options struct {
	// Fuzzy enables the pass-2 date fallback.
	Fuzzy bool
	// Merge is applied to every matched pair. Defaults to transform.AddSpotifyData
	// at the call sites; reconcile itself has no catalog preference.
	Merge MergeFunc
	// Verbose logs every pairing decision.
	Verbose bool
}

// Result partitions the outcome of one run. Enriched aliases the input slice:
// records are mutated in place, never copied.
type Result struct {
	Enriched  []*models.CanonicalRecord
	Fuzzy     []*models.CanonicalRecord
	Failed    []*models.CanonicalRecord
	Unmatched []*models.StreamingEpisode
	Matched   int
	Untouched int
}

// candidateSet preserves insertion order while supporting removal by id,
// matching the original first-come-first-served scan semantics.
type candidateSet struct {
	episodes []*models.StreamingEpisode
	taken    []bool
	left     int
}

func newCandidateSet(episodes []*models.StreamingEpisode) *candidateSet {
	return &candidateSet{
		episodes: episodes,
		taken:    make([]bool, len(episodes)),
		left:     len(episodes),
	}
}

func (s *candidateSet) scan(fn func(*models.StreamingEpisode) bool) *models.StreamingEpisode {
	for i, ep := range s.episodes {
		if s.taken[i] {
			continue
		}
		if fn(ep) {
			s.taken[i] = true
			s.left--
			return ep
		}
	}
	return nil
}

func (s *candidateSet) remaining() []*models.StreamingEpisode {
	out := make([]*models.StreamingEpisode, 0, s.left)
	for i, ep := range s.episodes {
		if !s.taken[i] {
			out = append(out, ep)
		}
	}
	return out
}

func (s *candidateSet) names() []string {
	var out []string
	for i, ep := range s.episodes {
		if !s.taken[i] {
			out = append(out, ep.Name)
		}
	}
	return out
}

// Reconcile runs both passes over episodes and candidates. episodes are
// mutated in place by opts.Merge; the returned buckets share those pointers.
// Episodes that already carry a link for the candidate catalog are counted as
// untouched and skipped entirely.
func Reconcile(episodes []*models.CanonicalRecord, candidates []*models.StreamingEpisode, showName string, opts Options) Result {
	res := Result{Enriched: episodes}
	set := newCandidateSet(candidates)

	// Pass 1: title match in input order.
	var failed []*models.CanonicalRecord
	for _, item := range episodes {
		if hasSpotifyLink(item) {
			res.Untouched++
			continue
		}

		ep := set.scan(func(cand *models.StreamingEpisode) bool {
			return matcher.MatchTitle(item.Title, showName, cand.Name)
		})
		if ep != nil {
			merge(opts, item, ep)
			res.Matched++
			if opts.Verbose {
				log.Printf("matched %q -> %q", item.Title, ep.Name)
			}
			continue
		}
		failed = append(failed, item)
	}

	// Pass 2: exact publish-date string fallback over the pass-1 leftovers.
	// Raw strings are compared byte for byte, not as parsed dates, so
	// differently formatted but equal dates intentionally do not pair.
	if opts.Fuzzy {
		for _, item := range failed {
			if item.PublishedDate == nil || *item.PublishedDate == "" {
				res.Failed = append(res.Failed, item)
				continue
			}
			date := *item.PublishedDate

			ep := set.scan(func(cand *models.StreamingEpisode) bool {
				return cand.ReleaseDate != "" && cand.ReleaseDate == date
			})
			if ep != nil {
				merge(opts, item, ep)
				res.Fuzzy = append(res.Fuzzy, item)
				res.Matched++
				if opts.Verbose {
					log.Printf("matched %q -> %q by date not title", item.Title, ep.Name)
				}
				continue
			}
			res.Failed = append(res.Failed, item)
		}
	} else {
		res.Failed = failed
	}

	if opts.Verbose {
		for _, item := range res.Failed {
			if closest, score := matcher.ClosestCandidate(item.Title, set.names()); closest != "" {
				log.Printf("no match for %q; closest candidate %q (%.2f)", item.Title, closest, score)
			}
		}
	}

	res.Unmatched = set.remaining()
	return res
}

func merge(opts Options, item *models.CanonicalRecord, ep *models.StreamingEpisode) {
	if opts.Merge != nil {
		opts.Merge(item, ep)
	}
}

func hasSpotifyLink(item *models.CanonicalRecord) bool {
	links := item.Metadata.AdditionalLinks
	return links != nil && links.SpotifyURL != nil && *links.SpotifyURL != ""
}
