package tedtalks

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"kimeta/internal/models"
	"kimeta/internal/transform"
)

func video(id string) *models.VideoItem {
	return &models.VideoItem{
		VideoID: id,
		Snippet: models.VideoSnippet{
			Title:        "Raw YouTube Title",
			Description:  "Raw description.",
			ChannelTitle: "TED",
			PublishedAt:  "2024-01-02T10:00:00Z",
		},
	}
}

func TestCuratedOverlay(t *testing.T) {
	rec, err := transform.TransformYouTubeItem(video("v1"), "ideas", "tedtalks")
	if err != nil {
		t.Fatal(err)
	}

	curated := Curated{
		"https://www.youtube.com/watch?v=v1": {
			Title:       "The Real Talk Title",
			Description: "Curated description.",
			Speaker:     []string{"Jane Doe"},
			URL:         "https://www.ted.com/talks/jane_doe_real_talk",
			Length:      "00:12:30",
			PublishDate: "2024-01-01",
		},
	}

	if !curated.apply(rec) {
		t.Fatal("curated entry not applied")
	}
	if rec.Title != "The Real Talk Title" {
		t.Errorf("title = %q", rec.Title)
	}
	if rec.Metadata.URL != "https://www.ted.com/talks/jane_doe_real_talk" {
		t.Errorf("url = %q", rec.Metadata.URL)
	}
	if rec.Metadata.VideoLength != "00:12:30" {
		t.Errorf("video_length = %q", rec.Metadata.VideoLength)
	}
	if diff := cmp.Diff([]string{"Jane Doe"}, rec.Authors); diff != "" {
		t.Errorf("authors mismatch (-want +got):\n%s", diff)
	}
	if len(rec.Original) != 2 {
		t.Errorf("original has %d entries, want video plus curated talk", len(rec.Original))
	}
}

func TestCuratedDropsUnknownVideos(t *testing.T) {
	rec, err := transform.TransformYouTubeItem(video("v2"), "ideas", "tedtalks")
	if err != nil {
		t.Fatal(err)
	}
	curated := Curated{"https://www.youtube.com/watch?v=other": {}}
	if curated.apply(rec) {
		t.Error("video without a curated entry must be dropped")
	}
}

func TestEmptyTableKeepsEverything(t *testing.T) {
	rec, err := transform.TransformYouTubeItem(video("v3"), "ideas", "tedtalks")
	if err != nil {
		t.Fatal(err)
	}
	if !(Curated{}).apply(rec) {
		t.Error("empty table must keep the raw record")
	}
	if rec.Title != "Raw YouTube Title" {
		t.Errorf("title = %q, must stay untouched", rec.Title)
	}
}

func TestSpeakerAcceptsStringOrList(t *testing.T) {
	var a, b CuratedTalk
	if err := json.Unmarshal([]byte(`{"speaker":"Jane Doe"}`), &a); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal([]byte(`{"speaker":["Jane","John"]}`), &b); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(stringList{"Jane Doe"}, a.Speaker); diff != "" {
		t.Errorf("string speaker mismatch:\n%s", diff)
	}
	if diff := cmp.Diff(stringList{"Jane", "John"}, b.Speaker); diff != "" {
		t.Errorf("list speaker mismatch:\n%s", diff)
	}
}
