package transform

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"

	"kimeta/internal/models"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Hello, World! 2024", "hello-world-2024"},
		{"  spaced   out  ", "spaced-out"},
		{"Café con Leche", "cafe-con-leche"},
		{"already-a-slug", "already-a-slug"},
		{"__under__", "under"},
	}
	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCleanHTML(t *testing.T) {
	in := "<p>First</p>Second&nbsp;part &amp; <b>more</b>"
	want := "First\nSecond part & more"
	if got := CleanHTML(in); got != want {
		t.Errorf("CleanHTML = %q, want %q", got, want)
	}
}

func TestSplitAuthors(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"Alice and Bob", []string{"Alice", "Bob"}},
		{"Alice & Bob", []string{"Alice", "Bob"}},
		{"Alice, Bob; Carol", []string{"Alice", "Bob", "Carol"}},
		{"  Alice  ", []string{"Alice"}},
		{"", nil},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, SplitAuthors(tt.in)); diff != "" {
			t.Errorf("SplitAuthors(%q) mismatch (-want +got):\n%s", tt.in, diff)
		}
	}
}

func feedItem() *models.RSSItem {
	return &models.RSSItem{
		Item: &gofeed.Item{
			Title:       "Gravity Explained",
			Description: "<p>All about gravity.</p>",
			Link:        "https://example.com/ep1",
			Published:   "Tue, 02 Jan 2024 10:00:00 +0000",
			Enclosures:  []*gofeed.Enclosure{{URL: "https://cdn.example.com/ep1.mp3"}},
			ITunesExt: &ext.ITunesItemExtension{
				Author:   "Jane Doe and John Doe",
				Duration: "42:10",
				Image:    "https://cdn.example.com/art.jpg",
			},
		},
		Header: &models.FeedHeader{
			PodcastName: "Space Pod",
			Authors:     "Fallback Author",
			Tag:         "physics",
			Directory: &models.DirectoryResult{
				TrackID:       111,
				CollectionID:  222,
				TrackViewURL:  "https://podcasts.apple.com/ep1",
				ArtworkURL600: "https://apple.example.com/600.jpg",
			},
		},
	}
}

func TestTransformRSSItem(t *testing.T) {
	rec, err := TransformRSSItem(feedItem(), "Gravity", nil)
	if err != nil {
		t.Fatalf("TransformRSSItem: %v", err)
	}

	if rec.Title != "Gravity Explained" {
		t.Errorf("title = %q", rec.Title)
	}
	if rec.Slug != "gravity-explained" {
		t.Errorf("slug = %q", rec.Slug)
	}
	if rec.Description == nil || *rec.Description != "All about gravity.\n" {
		t.Errorf("description = %v", rec.Description)
	}
	if diff := cmp.Diff([]string{"Jane Doe", "John Doe"}, rec.Authors); diff != "" {
		t.Errorf("authors mismatch (-want +got):\n%s", diff)
	}
	if rec.Thumbnail != "https://cdn.example.com/art.jpg" {
		t.Errorf("thumbnail = %q", rec.Thumbnail)
	}
	if rec.Metadata.AudioLength == nil || *rec.Metadata.AudioLength != "00:42:10" {
		t.Errorf("audio_length = %v", rec.Metadata.AudioLength)
	}
	if rec.Metadata.AudioFile == nil || *rec.Metadata.AudioFile != "https://cdn.example.com/ep1.mp3" {
		t.Errorf("audio_file = %v", rec.Metadata.AudioFile)
	}
	if rec.PublishedDate == nil || *rec.PublishedDate != "2024-01-02" {
		t.Errorf("publishedDate = %v", rec.PublishedDate)
	}
	if got := rec.Metadata.AdditionalLinks.ItunesURL; got == nil || *got != "https://podcasts.apple.com/ep1" {
		t.Errorf("itunes_url = %v", got)
	}
	if rec.Metadata.AdditionalLinks.SpotifyURL != nil {
		t.Error("spotify_url should start unset")
	}
	if got := rec.Metadata.ID.ItunesID; got == nil || *got != 111 {
		t.Errorf("id.itunes_id = %v", got)
	}
	if got := rec.Metadata.PodcastID.ItunesID; got == nil || *got != 222 {
		t.Errorf("podcast_id.itunes_id = %v", got)
	}
	if diff := cmp.Diff([]string{"gravity"}, rec.Metadata.Tag); diff != "" {
		t.Errorf("tag mismatch (-want +got):\n%s", diff)
	}
	// provenance: feed item first, then the directory hit
	if len(rec.Original) != 2 {
		t.Fatalf("original has %d entries, want 2", len(rec.Original))
	}
}

// The itunes:title tag, when the feed carries one, wins over the plain title.
// gofeed only exposes it through the raw extension map.
func TestTransformRSSItemPrefersItunesTitle(t *testing.T) {
	raw := feedItem()
	raw.Item.Extensions = ext.Extensions{
		"itunes": {"title": []ext.Extension{{Name: "title", Value: "Gravity, Revisited"}}},
	}

	rec, err := TransformRSSItem(raw, "", nil)
	if err != nil {
		t.Fatalf("TransformRSSItem: %v", err)
	}
	if rec.Title != "Gravity, Revisited" {
		t.Errorf("title = %q, want the itunes:title", rec.Title)
	}
}

// A feed-sourced episode without a description must be rejected, while the
// same record shape from a directory search transforms fine without one.
func TestTransformRSSItemRequiresDescription(t *testing.T) {
	raw := feedItem()
	raw.Item.Description = ""

	_, err := TransformRSSItem(raw, "", nil)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("want ValidationError, got %v", err)
	}
	if verr.Field != "description" {
		t.Errorf("field = %q", verr.Field)
	}

	rec, err := TransformPodcastResult(&models.DirectoryResult{TrackName: "Gravity Explained"}, "", nil)
	if err != nil {
		t.Fatalf("directory record without description must transform: %v", err)
	}
	if rec.Description != nil {
		t.Errorf("description = %v, want nil", rec.Description)
	}
}

func TestTransformStreamingEpisodeOptionalDescription(t *testing.T) {
	rec, err := TransformStreamingEpisode(&models.StreamingEpisode{
		ID:          "abc",
		Name:        "Ep 1",
		URL:         "https://open.spotify.com/episode/abc",
		ReleaseDate: "2024-01-02",
	}, "space")
	if err != nil {
		t.Fatalf("TransformStreamingEpisode: %v", err)
	}
	if rec.Description != nil {
		t.Errorf("description = %v, want nil", rec.Description)
	}
	if got := rec.Metadata.ID.SpotifyID; got == nil || *got != "abc" {
		t.Errorf("id.spotify_id = %v", got)
	}
	if rec.Metadata.ID.ItunesID != nil {
		t.Error("itunes_id must stay unset for streaming records")
	}
}

func TestTransformDispatch(t *testing.T) {
	tests := []struct {
		name     string
		raw      models.RawRecord
		wantTags string
	}{
		{"book", &models.BookVolume{VolumeInfo: models.VolumeInfo{
			Title:       "Deep Space",
			Description: "A book.",
			PreviewLink: "https://books.example.com/1",
			ImageLinks:  map[string]string{"thumbnail": "https://img/1", "large": "https://img/L"},
		}}, "books"},
		{"video", &models.VideoItem{VideoID: "v1", Snippet: models.VideoSnippet{
			Title:        "Launch",
			Description:  "A launch.",
			ChannelTitle: "Space Channel",
			PublishedAt:  "2024-01-02T10:00:00Z",
			Thumbnails:   map[string]models.Thumbnail{"default": {URL: "https://img/d"}},
		}}, "youtube"},
		{"article", &models.ArticleEntry{
			Title:     "On Gravity",
			Creator:   "Doe J.",
			CoverDate: "2024-01-02",
			Links:     []models.ArticleLink{{Ref: "scopus", Href: "https://scopus/1"}},
		}, "research"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := Transform(tt.raw, "gravity", nil)
			if err != nil {
				t.Fatalf("Transform: %v", err)
			}
			if rec.Tags != tt.wantTags {
				t.Errorf("tags = %q, want %q", rec.Tags, tt.wantTags)
			}
			if len(rec.Original) != 1 {
				t.Errorf("original has %d entries, want 1", len(rec.Original))
			}
		})
	}
}

func TestTransformBookThumbnailRanking(t *testing.T) {
	rec, err := TransformBookItem(&models.BookVolume{VolumeInfo: models.VolumeInfo{
		Title:       "Deep Space",
		Description: "A book.",
		ImageLinks:  map[string]string{"small": "https://img/s", "large": "https://img/L"},
	}}, "")
	if err != nil {
		t.Fatal(err)
	}
	if rec.Thumbnail != "https://img/L" {
		t.Errorf("thumbnail = %q, want the larger image", rec.Thumbnail)
	}
}

func TestTransformBookNoThumbnailIsEmptyString(t *testing.T) {
	rec, err := TransformBookItem(&models.BookVolume{VolumeInfo: models.VolumeInfo{
		Title:       "Deep Space",
		Description: "A book.",
	}}, "")
	if err != nil {
		t.Fatal(err)
	}
	if rec.Thumbnail != "" {
		t.Errorf("thumbnail = %q, want empty string", rec.Thumbnail)
	}
}

func TestAddSpotifyDataFillsWithoutOverwriting(t *testing.T) {
	rec, err := TransformRSSItem(feedItem(), "", nil)
	if err != nil {
		t.Fatal(err)
	}
	before := len(rec.Original)

	ep := &models.StreamingEpisode{
		ID:     "sp1",
		Name:   "Gravity Explained",
		URL:    "https://open.spotify.com/episode/sp1",
		ShowID: "show1",
	}
	AddSpotifyData(rec, ep)

	if got := rec.Metadata.AdditionalLinks.SpotifyURL; got == nil || *got != ep.URL {
		t.Errorf("spotify_url = %v", got)
	}
	if got := rec.Metadata.ID.SpotifyID; got == nil || *got != "sp1" {
		t.Errorf("id.spotify_id = %v", got)
	}
	if got := rec.Metadata.ID.ItunesID; got == nil || *got != 111 {
		t.Errorf("itunes id clobbered: %v", got)
	}
	if len(rec.Original) != before+1 {
		t.Errorf("original grew by %d, want 1", len(rec.Original)-before)
	}

	// A second merge with an empty payload must not null anything out.
	AddSpotifyData(rec, &models.StreamingEpisode{})
	if got := rec.Metadata.AdditionalLinks.SpotifyURL; got == nil || *got != ep.URL {
		t.Errorf("spotify_url overwritten: %v", got)
	}
}

func TestAddItunesDataRecomputesScore(t *testing.T) {
	rec, err := TransformStreamingEpisode(&models.StreamingEpisode{
		ID:          "sp1",
		Name:        "Ep 1",
		URL:         "https://open.spotify.com/episode/sp1",
		ReleaseDate: "2024-01-02",
	}, "")
	if err != nil {
		t.Fatal(err)
	}
	if rec.Score != 0 {
		t.Fatalf("score = %d before merge", rec.Score)
	}

	AddItunesData(rec, &models.DirectoryResult{
		TrackID:      111,
		TrackViewURL: "https://podcasts.apple.com/ep1",
	}, &models.ShowMetadata{Rating: 4.8, RatingCount: 3000, TotalEpisodes: 600})

	if rec.Score == 0 {
		t.Error("score not recomputed after iTunes merge")
	}
	if got := rec.Metadata.AdditionalLinks.ItunesURL; got == nil || *got != "https://podcasts.apple.com/ep1" {
		t.Errorf("itunes_url = %v", got)
	}
}
