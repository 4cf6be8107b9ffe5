// Package rss fetches and caches podcast feeds and enriches directory search
// hits with the richer feed-level data. Parsed feeds are cached on disk under
// original_rss/ so re-runs against the same show never refetch.
package rss

import (
	"context"
	"fmt"
	"html"
	"log"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"kimeta/internal/models"
	"kimeta/internal/storage"
	"kimeta/internal/transform"
)

const cacheFolder = "original_rss"

type Source struct {
	parser *gofeed.Parser
	// cacheDir is the parent of the original_rss folder; empty disables caching.
	cacheDir string
}

func NewSource(cacheDir string) *Source {
	parser := gofeed.NewParser()
	parser.UserAgent = "kimeta/1.0"
	if cacheDir != "" {
		cacheDir = filepath.Join(cacheDir, cacheFolder)
	}
	return &Source{parser: parser, cacheDir: cacheDir}
}

// cacheName builds the on-disk cache key for a show, show name plus
// collection id so renamed feeds don't collide.
func cacheName(result *models.DirectoryResult) string {
	return result.CollectionName + " " + strconv.FormatInt(result.CollectionID, 10)
}

// Feed returns the parsed feed for a directory hit, from cache when present.
func (s *Source) Feed(ctx context.Context, result *models.DirectoryResult) (*gofeed.Feed, error) {
	if result.FeedURL == "" {
		return nil, fmt.Errorf("rss: no feed url for %q", result.CollectionName)
	}

	if s.cacheDir != "" {
		var cached gofeed.Feed
		ok, err := storage.LoadJSONFile(s.cacheDir, cacheName(result), &cached)
		if err != nil {
			log.Printf("rss: cache read for %q: %v", result.CollectionName, err)
		} else if ok {
			return &cached, nil
		}
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	feed, err := s.parser.ParseURLWithContext(result.FeedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("rss: fetch %q: %w", result.CollectionName, err)
	}

	if s.cacheDir != "" {
		if _, err := storage.CreateJSONFile(s.cacheDir, cacheName(result), feed); err != nil {
			log.Printf("rss: cache write for %q: %v", result.CollectionName, err)
		}
	}
	return feed, nil
}

// FindEpisode locates the feed item whose title equals episodeTitle after
// trimming, checking the itunes:title too and the HTML-unescaped forms of
// both. Returns nil when no item matches.
func FindEpisode(feed *gofeed.Feed, episodeTitle string) *gofeed.Item {
	want := strings.TrimSpace(episodeTitle)
	for _, item := range feed.Items {
		for _, title := range itemTitles(item) {
			if title == want {
				return item
			}
		}
	}
	return nil
}

func itemTitles(item *gofeed.Item) []string {
	var titles []string
	if t := transform.ItunesTitle(item); t != "" {
		titles = append(titles, t, html.UnescapeString(t))
	}
	if item.Title != "" {
		t := strings.TrimSpace(item.Title)
		titles = append(titles, t, html.UnescapeString(t))
	}
	return titles
}

// Header assembles the feed-level fallback data for the transforms.
func Header(feed *gofeed.Feed, result *models.DirectoryResult, tag string) *models.FeedHeader {
	authors := ""
	if feed.ITunesExt != nil && feed.ITunesExt.Author != "" {
		authors = feed.ITunesExt.Author
	} else if feed.Author != nil {
		authors = feed.Author.Name
	}

	return &models.FeedHeader{
		PodcastName: result.CollectionName,
		Authors:     authors,
		Tag:         tag,
		ItunesURL:   result.TrackViewURL,
		Directory:   result,
	}
}

// EpisodeRecord turns one episode-level directory hit into a canonical record
// backed by its feed item. The error reports why the feed path failed; the
// caller falls back to the bare directory record.
func (s *Source) EpisodeRecord(ctx context.Context, result *models.DirectoryResult, term string, showMeta *models.ShowMetadata) (*models.CanonicalRecord, error) {
	feed, err := s.Feed(ctx, result)
	if err != nil {
		return nil, err
	}

	item := FindEpisode(feed, result.TrackName)
	if item == nil {
		return nil, fmt.Errorf("rss: %q not found in %q", result.TrackName, result.CollectionName)
	}

	return transform.TransformRSSItem(&models.RSSItem{
		Item:   item,
		Header: Header(feed, result, term),
	}, term, showMeta)
}

// ShowRecords transforms every item of a show's feed, skipping items the
// transform rejects. Used by the all-episodes pipeline.
func (s *Source) ShowRecords(ctx context.Context, result *models.DirectoryResult, showMeta *models.ShowMetadata) ([]*models.CanonicalRecord, error) {
	feed, err := s.Feed(ctx, result)
	if err != nil {
		return nil, err
	}

	header := Header(feed, result, "")
	var records []*models.CanonicalRecord
	for _, item := range feed.Items {
		rec, err := transform.TransformRSSItem(&models.RSSItem{Item: item, Header: header}, "", showMeta)
		if err != nil {
			log.Printf("rss: skip %q from %q: %v", item.Title, result.CollectionName, err)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}
