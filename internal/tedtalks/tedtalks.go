// Package tedtalks searches the TED and TEDx channels and overlays curated
// talk metadata from ted.com on the raw video records. The curated table is
// loaded once at startup and passed in read-only.
package tedtalks

import (
	"context"
	"encoding/json"
	"log"

	"kimeta/internal/models"
	"kimeta/internal/storage"
	"kimeta/internal/transform"
	"kimeta/internal/youtube"
)

const (
	ChannelTED  = "UCAuUUnT6oDeKwE6v1NGQxug"
	ChannelTEDx = "UCsT0YIqwnpJCM-mx7-gSA4Q"
)

// CuratedTalk is one ted.com entry, keyed in the table by its YouTube URL.
type CuratedTalk struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Speaker     stringList `json:"speaker"`
	URL         string     `json:"url"`
	Length      string     `json:"length"`
	PublishDate string     `json:"publishdate"`
}

// stringList tolerates both a single speaker string and a list.
type stringList []string

func (s *stringList) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*s = []string{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*s = many
	return nil
}

type Curated map[string]CuratedTalk

// LoadCurated reads the curated table from folder/ted_db.json. A missing file
// yields an empty table, which disables the overlay but not the pipeline.
func LoadCurated(folder string) (Curated, error) {
	var table Curated
	ok, err := storage.LoadJSONFile(folder, "ted_db", &table)
	if err != nil {
		return nil, err
	}
	if !ok {
		return Curated{}, nil
	}
	return table, nil
}

// apply overlays the curated entry for rec's video URL. With a non-empty
// table, videos without an entry are dropped: they are usually shorts or
// channel trailers that never aired as talks.
func (c Curated) apply(rec *models.CanonicalRecord) bool {
	if len(c) == 0 {
		return true
	}
	talk, ok := c[rec.Metadata.URL]
	if !ok {
		return false
	}

	rec.Title = talk.Title
	rec.Description = &talk.Description
	rec.Authors = talk.Speaker
	rec.Metadata.URL = talk.URL
	rec.Metadata.VideoLength = talk.Length
	rec.PublishedDate = &talk.PublishDate
	rec.Original = append(rec.Original, talk)
	return true
}

// SearchAndTransform runs one term through the TED channels. With TEDx
// included the limit is split between the two channels.
func SearchAndTransform(ctx context.Context, yt *youtube.Client, term string, limit int, includeTEDx bool, curated Curated) ([]*models.CanonicalRecord, error) {
	if includeTEDx {
		limit /= 2
	}

	videos, err := yt.SearchChannel(ctx, term, ChannelTED, limit, "relevance")
	if err != nil {
		return nil, err
	}
	if includeTEDx {
		tedx, err := yt.SearchChannel(ctx, term, ChannelTEDx, limit, "relevance")
		if err != nil {
			return nil, err
		}
		videos = append(videos, tedx...)
	}

	var records []*models.CanonicalRecord
	for _, video := range videos {
		rec, err := transform.TransformYouTubeItem(video, term, "tedtalks")
		if err != nil {
			log.Printf("tedtalks: skip %q: %v", video.Snippet.Title, err)
			continue
		}
		if !curated.apply(rec) {
			log.Printf("tedtalks: no curated entry for %s", rec.Metadata.URL)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}
