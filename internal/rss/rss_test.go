package rss

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"

	"kimeta/internal/models"
)

const feedXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:itunes="http://www.itunes.com/dtds/podcast-1.0.dtd">
  <channel>
    <title>Space Pod</title>
    <itunes:author>Jane Doe</itunes:author>
    <item>
      <title>Gravity Explained</title>
      <description>All about gravity.</description>
      <pubDate>Tue, 02 Jan 2024 10:00:00 +0000</pubDate>
      <enclosure url="https://cdn.example.com/ep1.mp3" type="audio/mpeg" length="1"/>
    </item>
    <item>
      <title>Black Holes &amp; You</title>
      <description>Void stuff.</description>
    </item>
  </channel>
</rss>`

func TestFindEpisode(t *testing.T) {
	feed := &gofeed.Feed{Items: []*gofeed.Item{
		{Title: " Gravity Explained "},
		{Title: "Black Holes &amp; You"},
		{Title: "Renamed", Extensions: ext.Extensions{
			"itunes": {"title": []ext.Extension{{Name: "title", Value: "Original Name"}}},
		}},
	}}

	tests := []struct {
		title string
		want  bool
	}{
		{"Gravity Explained", true},
		{"Black Holes & You", true}, // matches after unescaping
		{"Original Name", true},     // matches the itunes:title
		{"Missing", false},
	}
	for _, tt := range tests {
		got := FindEpisode(feed, tt.title)
		if (got != nil) != tt.want {
			t.Errorf("FindEpisode(%q) found=%v, want %v", tt.title, got != nil, tt.want)
		}
	}
}

func TestEpisodeRecordFromFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, feedXML)
	}))
	defer srv.Close()

	result := &models.DirectoryResult{
		TrackID:        111,
		TrackName:      "Gravity Explained",
		CollectionID:   222,
		CollectionName: "Space Pod",
		FeedURL:        srv.URL,
		TrackViewURL:   "https://podcasts.apple.com/ep1",
	}

	src := NewSource(t.TempDir())
	rec, err := src.EpisodeRecord(context.Background(), result, "gravity", nil)
	if err != nil {
		t.Fatalf("EpisodeRecord: %v", err)
	}
	if rec.Title != "Gravity Explained" {
		t.Errorf("title = %q", rec.Title)
	}
	if rec.Metadata.PodcastTitle != "Space Pod" {
		t.Errorf("podcast_title = %q", rec.Metadata.PodcastTitle)
	}
	if len(rec.Authors) != 1 || rec.Authors[0] != "Jane Doe" {
		t.Errorf("authors = %v", rec.Authors)
	}
	if rec.Metadata.AudioFile == nil || *rec.Metadata.AudioFile != "https://cdn.example.com/ep1.mp3" {
		t.Errorf("audio_file = %v", rec.Metadata.AudioFile)
	}
}

// The second call for the same show must be served from the on-disk cache.
func TestFeedCaching(t *testing.T) {
	fetches := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches++
		fmt.Fprint(w, feedXML)
	}))
	defer srv.Close()

	result := &models.DirectoryResult{
		CollectionID:   222,
		CollectionName: "Space Pod",
		FeedURL:        srv.URL,
	}

	src := NewSource(t.TempDir())
	for i := 0; i < 2; i++ {
		if _, err := src.Feed(context.Background(), result); err != nil {
			t.Fatalf("Feed #%d: %v", i+1, err)
		}
	}
	if fetches != 1 {
		t.Errorf("feed fetched %d times, want 1", fetches)
	}
}

func TestShowRecordsSkipsInvalidItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<?xml version="1.0"?><rss version="2.0"><channel><title>S</title>
			<item><title>Good</title><description>ok</description></item>
			<item><title>No Description</title></item>
		</channel></rss>`)
	}))
	defer srv.Close()

	src := NewSource("")
	records, err := src.ShowRecords(context.Background(), &models.DirectoryResult{
		CollectionName: "S",
		FeedURL:        srv.URL,
	}, nil)
	if err != nil {
		t.Fatalf("ShowRecords: %v", err)
	}
	if len(records) != 1 || records[0].Title != "Good" {
		t.Errorf("records = %+v", records)
	}
}
