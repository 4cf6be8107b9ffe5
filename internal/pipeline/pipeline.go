// Package pipeline drives the per-source search flows and the cross-catalog
// link reconciliation. Everything here is single-threaded by design: the
// upstream APIs rate-limit aggressively enough that concurrency buys nothing.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"

	"kimeta/internal/books"
	"kimeta/internal/itunes"
	"kimeta/internal/matcher"
	"kimeta/internal/models"
	"kimeta/internal/rss"
	"kimeta/internal/scopus"
	"kimeta/internal/tedtalks"
	"kimeta/internal/transform"
	"kimeta/internal/youtube"
)

// Categories lists the search pipelines in their fixed run order.
var Categories = []string{"podcasts", "research", "videos", "tedtalks", "books"}

type Pipeline struct {
	Itunes  *itunes.Client
	RSS     *rss.Source
	YouTube *youtube.Client
	Books   *books.Client
	Scopus  *scopus.Client
	Curated tedtalks.Curated
	Verbose bool
}

// SearchCategory runs one category pipeline for one term.
func (p *Pipeline) SearchCategory(ctx context.Context, category, term string, limit int) ([]*models.CanonicalRecord, error) {
	switch category {
	case "podcasts":
		return p.Podcasts(ctx, term, limit)
	case "research":
		return p.Research(ctx, term, limit)
	case "videos":
		return p.Videos(ctx, term, limit)
	case "tedtalks":
		return tedtalks.SearchAndTransform(ctx, p.YouTube, term, limit, true, p.Curated)
	case "books":
		return p.BookSearch(ctx, term, limit)
	default:
		return nil, fmt.Errorf("unknown category %q", category)
	}
}

// Podcasts searches the directory for episodes and enriches each hit from its
// show's feed. Hits whose feed is unreachable or missing the episode fall
// back to the bare directory record; hits failing both are skipped.
func (p *Pipeline) Podcasts(ctx context.Context, term string, limit int) ([]*models.CanonicalRecord, error) {
	results, err := p.Itunes.Search(ctx, term, itunes.SearchOptions{Entity: "podcastEpisode", Limit: limit})
	if err != nil {
		return nil, err
	}

	var records []*models.CanonicalRecord
	for _, result := range results {
		rec, err := p.RSS.EpisodeRecord(ctx, result, term, nil)
		if err != nil {
			if p.Verbose {
				log.Printf("podcasts: feed path failed for %q: %v", result.TrackName, err)
			}
			rec, err = transform.TransformPodcastResult(result, term, nil)
			if err != nil {
				log.Printf("podcasts: skip %q: %v", result.TrackName, err)
				continue
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

func (p *Pipeline) Research(ctx context.Context, term string, limit int) ([]*models.CanonicalRecord, error) {
	entries, err := p.Scopus.Search(ctx, term, limit)
	if err != nil {
		return nil, err
	}

	var records []*models.CanonicalRecord
	for _, entry := range entries {
		rec, err := transform.TransformScopusItem(entry, term)
		if err != nil {
			log.Printf("research: skip %q: %v", entry.Title, err)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func (p *Pipeline) Videos(ctx context.Context, term string, limit int) ([]*models.CanonicalRecord, error) {
	videos, err := p.YouTube.Search(ctx, term, limit)
	if err != nil {
		return nil, err
	}

	var records []*models.CanonicalRecord
	for _, video := range videos {
		rec, err := transform.TransformYouTubeItem(video, term, "youtube")
		if err != nil {
			log.Printf("videos: skip %q: %v", video.Snippet.Title, err)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func (p *Pipeline) BookSearch(ctx context.Context, term string, limit int) ([]*models.CanonicalRecord, error) {
	volumes, err := p.Books.Search(ctx, term, limit)
	if err != nil {
		return nil, err
	}

	var records []*models.CanonicalRecord
	for _, volume := range volumes {
		rec, err := transform.TransformBookItem(volume, term)
		if err != nil {
			log.Printf("books: skip %q: %v", volume.VolumeInfo.Title, err)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// SearchAll runs every category over every term. On quota exhaustion it
// returns the partial results alongside the error so the caller can still
// write what was collected.
func (p *Pipeline) SearchAll(ctx context.Context, terms []string, limit int) (map[string][]*models.CanonicalRecord, error) {
	results := make(map[string][]*models.CanonicalRecord, len(Categories))
	for _, category := range Categories {
		for _, term := range terms {
			records, err := p.SearchCategory(ctx, category, term, limit)
			if errors.Is(err, models.ErrQuotaExceeded) {
				return results, fmt.Errorf("%s %q: %w", category, term, err)
			}
			if err != nil {
				log.Printf("%s %q: %v", category, term, err)
				continue
			}
			log.Printf("%-10s %-30s %d", category, term, len(records))
			results[category] = append(results[category], records...)
		}
	}
	return results, nil
}

// ShowEpisodes resolves a show name in the directory and transforms its whole
// feed, with the show-level metadata folded into every record.
func (p *Pipeline) ShowEpisodes(ctx context.Context, showName string) ([]*models.CanonicalRecord, error) {
	results, err := p.Itunes.Search(ctx, showName, itunes.SearchOptions{Entity: "podcast", Limit: 10})
	if err != nil {
		return nil, err
	}

	var show *models.DirectoryResult
	for _, result := range results {
		if matcher.MatchPodcast(showName, result.CollectionName, result.ArtistName) {
			show = result
			break
		}
	}
	if show == nil {
		return nil, fmt.Errorf("show %q not found in directory", showName)
	}

	showMeta, err := p.Itunes.ShowMetadata(ctx, show.CollectionID)
	if err != nil {
		// Metadata only feeds the score; the episodes are still worth having.
		log.Printf("episodes: no show metadata for %q: %v", showName, err)
		showMeta = nil
	}

	return p.RSS.ShowRecords(ctx, show, showMeta)
}
