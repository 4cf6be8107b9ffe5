package spotify

import (
	"testing"

	api "github.com/zmb3/spotify/v2"
)

func TestConvertEpisode(t *testing.T) {
	ep := api.EpisodePage{
		ID:           "ep1",
		Name:         "Gravity Explained",
		Description:  "All about gravity.",
		ExternalURLs: map[string]string{"spotify": "https://open.spotify.com/episode/ep1"},
		ReleaseDate:  "2024-01-02",
		Duration_ms:  2530000,
		Images:       []api.Image{{URL: "https://i/600.jpg"}, {URL: "https://i/300.jpg"}},
	}

	got := convertEpisode(ep)
	if got.ID != "ep1" || got.Name != "Gravity Explained" {
		t.Errorf("identity = %q %q", got.ID, got.Name)
	}
	if got.URL != "https://open.spotify.com/episode/ep1" {
		t.Errorf("url = %q", got.URL)
	}
	if got.DurationMS != 2530000 {
		t.Errorf("duration_ms = %d, want 2530000", got.DurationMS)
	}
	if got.ImageURL != "https://i/600.jpg" {
		t.Errorf("image_url = %q, want the first image", got.ImageURL)
	}
	if got.ReleaseDate != "2024-01-02" {
		t.Errorf("release_date = %q", got.ReleaseDate)
	}
}

func TestTruncateQueryDropsWholeWords(t *testing.T) {
	q := ""
	for i := 0; i < 30; i++ {
		q += "word "
	}
	q += "tail"
	got := truncateQuery(q)
	if len(got) > 100 {
		t.Fatalf("len = %d", len(got))
	}
	if got[len(got)-1] == ' ' {
		t.Errorf("trailing space left: %q", got)
	}
}
