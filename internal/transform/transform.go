// Package transform maps raw source records into the canonical record shape.
// Each source kind has its own transform; all of them fail with a
// ValidationError when a required field is missing, which callers log and
// skip. Parse failures on dates and durations never fail a record; the
// field is simply left unset.
package transform

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mmcdole/gofeed"

	"kimeta/internal/models"
)

const (
	defaultPermission = "Global"
	defaultType       = "ki"
)

// ValidationError marks a raw record that cannot become a canonical record.
// The record is skipped, not retried.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required field %q", e.Field)
}

var authorSplitRegex = regexp.MustCompile(`\s+(?:and|&)\s+|\s*[,;]\s*`)

// SplitAuthors breaks a combined author string ("A and B", "A & B", "A, B")
// into individual names.
func SplitAuthors(s string) []string {
	var out []string
	for _, part := range authorSplitRegex.Split(s, -1) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Transform dispatches a raw record to its kind-specific transform.
// showMeta, when available, contributes rating fields and the score.
func Transform(raw models.RawRecord, searchTerm string, showMeta *models.ShowMetadata) (*models.CanonicalRecord, error) {
	switch r := raw.(type) {
	case *models.RSSItem:
		return TransformRSSItem(r, searchTerm, showMeta)
	case *models.DirectoryResult:
		return TransformPodcastResult(r, searchTerm, showMeta)
	case *models.StreamingEpisode:
		return TransformStreamingEpisode(r, searchTerm)
	case *models.BookVolume:
		return TransformBookItem(r, searchTerm)
	case *models.VideoItem:
		return TransformYouTubeItem(r, searchTerm, "youtube")
	case *models.ArticleEntry:
		return TransformScopusItem(r, searchTerm)
	default:
		return nil, fmt.Errorf("unsupported source kind %q", raw.Kind())
	}
}

// newRecord fills the fields every canonical record shares.
func newRecord(title string) *models.CanonicalRecord {
	return &models.CanonicalRecord{
		Title:      title,
		Permission: defaultPermission,
		Type:       defaultType,
		Created:    TimestampMillis(),
		Updated:    "",
		IsDeleted:  false,
		Slug:       Slugify(title),
	}
}

func strptr(s string) *string { return &s }

func tagList(searchTerm string) []string {
	term := strings.ToLower(strings.TrimSpace(searchTerm))
	if term == "" {
		return []string{}
	}
	return []string{term}
}

func applyShowMeta(rec *models.CanonicalRecord, showMeta *models.ShowMetadata) {
	if showMeta == nil {
		return
	}
	rec.Metadata.Rating = showMeta.Rating
	rec.Metadata.RatingCount = showMeta.RatingCount
	rec.Metadata.TotalEpisodes = showMeta.TotalEpisodes
	if rec.PublishedDate != nil && *rec.PublishedDate != "" {
		rec.Score = CalculateScorePodcast(
			showMeta.Rating, showMeta.RatingCount, showMeta.TotalEpisodes, *rec.PublishedDate)
	}
}

// TransformRSSItem converts one podcast feed item into a canonical record.
// The feed header supplies the show name and fallbacks for authors, artwork,
// duration and URLs when the item itself lacks them. Both title and
// description are required for feed-sourced episodes.
func TransformRSSItem(raw *models.RSSItem, searchTerm string, showMeta *models.ShowMetadata) (*models.CanonicalRecord, error) {
	item := raw.Item
	header := raw.Header
	if header == nil {
		header = &models.FeedHeader{}
	}
	dir := header.Directory

	if item == nil || (item.Description == "" && item.Content == "") {
		return nil, &ValidationError{Field: "description"}
	}

	title := item.Title
	if t := ItunesTitle(item); t != "" {
		title = t
	}
	if strings.TrimSpace(title) == "" {
		return nil, &ValidationError{Field: "title"}
	}

	var authors []string
	if item.ITunesExt != nil && strings.TrimSpace(item.ITunesExt.Author) != "" {
		authors = SplitAuthors(item.ITunesExt.Author)
	} else {
		authors = SplitAuthors(header.Authors)
	}
	if len(authors) == 0 && header.PodcastName != "" {
		authors = []string{header.PodcastName}
	}

	thumbnail := ""
	if item.ITunesExt != nil && item.ITunesExt.Image != "" {
		thumbnail = item.ITunesExt.Image
	} else if dir != nil {
		thumbnail = firstNonEmpty(dir.ArtworkURL600, dir.ArtworkURL160, dir.ArtworkURL60)
	}

	duration := ""
	if item.ITunesExt != nil {
		duration = StandardDuration(item.ITunesExt.Duration)
	}
	if duration == "" && dir != nil && dir.TrackTimeMillis > 0 {
		duration = MillisToDuration(dir.TrackTimeMillis)
	}

	itunesURL := header.ItunesURL
	if itunesURL == "" && dir != nil {
		itunesURL = dir.TrackViewURL
	}

	url := itunesURL
	if url == "" {
		url = item.Link
	}
	if url == "" && dir != nil {
		url = dir.CollectionViewURL
	}

	description := item.Description
	if description == "" {
		description = item.Content
	}

	rec := newRecord(title)
	rec.Thumbnail = thumbnail
	rec.Description = strptr(CleanHTML(description))
	rec.Authors = authors
	rec.MediaType = "audio"
	rec.Tags = "podcast"
	rec.Metadata = models.Metadata{
		AudioLength:  optional(duration),
		AudioFile:    enclosureURL(raw),
		PodcastTitle: header.PodcastName,
		URL:          url,
		Transcript:   transcriptURL(raw),
		Tag:          tagList(firstNonEmpty(searchTerm, header.Tag)),
		AdditionalLinks: &models.AdditionalLinks{
			ItunesURL: optional(itunesURL),
		},
	}
	if dir != nil {
		rec.IDs().ItunesID = optionalID(dir.TrackID)
		rec.PodcastIDs().ItunesID = optionalID(dir.CollectionID)
	}

	rec.Original = []any{item}
	if dir != nil {
		rec.Original = append(rec.Original, dir)
	}
	if d := StandardDate(item.Published); d != "" {
		rec.PublishedDate = strptr(d)
	}
	applyShowMeta(rec, showMeta)
	return rec, nil
}

// TransformPodcastResult converts a bare directory search result, used when
// the show's feed is unreachable. Only the title is required; a missing
// description stays null, a later catalog merge may still fill it.
func TransformPodcastResult(result *models.DirectoryResult, searchTerm string, showMeta *models.ShowMetadata) (*models.CanonicalRecord, error) {
	if strings.TrimSpace(result.TrackName) == "" {
		return nil, &ValidationError{Field: "title"}
	}

	rec := newRecord(result.TrackName)
	rec.Thumbnail = firstNonEmpty(result.ArtworkURL600, result.ArtworkURL160, result.ArtworkURL60)
	if result.Description != "" {
		rec.Description = strptr(CleanHTML(result.Description))
	}
	if result.CollectionName != "" {
		rec.Authors = []string{result.CollectionName}
	}
	rec.MediaType = "audio"
	rec.Tags = "podcast"

	duration := ""
	if result.TrackTimeMillis > 0 {
		duration = MillisToDuration(result.TrackTimeMillis)
	}
	rec.Metadata = models.Metadata{
		AudioLength:  optional(duration),
		AudioFile:    optional(result.EpisodeURL),
		PodcastTitle: result.CollectionName,
		URL:          result.TrackViewURL,
		Tag:          tagList(searchTerm),
		AdditionalLinks: &models.AdditionalLinks{
			ItunesURL: optional(result.TrackViewURL),
		},
	}
	rec.IDs().ItunesID = optionalID(result.TrackID)
	rec.PodcastIDs().ItunesID = optionalID(result.CollectionID)

	rec.Original = []any{result}
	if d := StandardDate(result.ReleaseDate); d != "" {
		rec.PublishedDate = strptr(d)
	}
	applyShowMeta(rec, showMeta)
	return rec, nil
}

// TransformStreamingEpisode converts an episode object from the streaming
// catalog into a canonical record. Description is optional for this kind.
func TransformStreamingEpisode(ep *models.StreamingEpisode, searchTerm string) (*models.CanonicalRecord, error) {
	if strings.TrimSpace(ep.Name) == "" {
		return nil, &ValidationError{Field: "title"}
	}

	rec := newRecord(ep.Name)
	rec.Thumbnail = ep.ImageURL
	if ep.Description != "" {
		rec.Description = strptr(CleanHTML(ep.Description))
	}
	if ep.ShowName != "" {
		rec.Authors = []string{ep.ShowName}
	}
	rec.MediaType = "audio"
	rec.Tags = "podcast"

	duration := ""
	if ep.DurationMS > 0 {
		duration = MillisToDuration(int64(ep.DurationMS))
	}
	rec.Metadata = models.Metadata{
		AudioLength:  optional(duration),
		PodcastTitle: ep.ShowName,
		URL:          ep.URL,
		Tag:          tagList(searchTerm),
		AdditionalLinks: &models.AdditionalLinks{
			SpotifyURL: optional(ep.URL),
		},
	}
	if ep.ID != "" {
		rec.IDs().SpotifyID = strptr(ep.ID)
	}
	if ep.ShowID != "" {
		rec.PodcastIDs().SpotifyID = strptr(ep.ShowID)
	}

	rec.Original = []any{ep}
	if d := StandardDate(ep.ReleaseDate); d != "" {
		rec.PublishedDate = strptr(d)
	}
	return rec, nil
}

// Ranked thumbnail keys per source, largest first.
var (
	bookThumbnailChoices  = []string{"extraLarge", "large", "medium", "small", "thumbnail", "smallThumbnail"}
	videoThumbnailChoices = []string{"maxres", "high", "medium", "default"}
)

// TransformBookItem converts a Google Books volume.
func TransformBookItem(book *models.BookVolume, searchTerm string) (*models.CanonicalRecord, error) {
	volume := book.VolumeInfo
	if strings.TrimSpace(volume.Title) == "" {
		return nil, &ValidationError{Field: "title"}
	}
	if volume.Description == "" {
		return nil, &ValidationError{Field: "description"}
	}

	thumbnail := ""
	for _, choice := range bookThumbnailChoices {
		if u := volume.ImageLinks[choice]; u != "" {
			thumbnail = u
			break
		}
	}

	var authors []string
	for _, a := range volume.Authors {
		if a = strings.TrimSpace(a); a != "" {
			authors = append(authors, a)
		}
	}

	rec := newRecord(volume.Title)
	rec.Thumbnail = thumbnail
	rec.Description = strptr(volume.Description)
	rec.Authors = authors
	rec.MediaType = "books"
	rec.Tags = "books"
	rec.Metadata = models.Metadata{
		URL: volume.PreviewLink,
		Tag: tagList(searchTerm),
	}
	rec.Original = []any{book}
	if d := StandardDate(volume.PublishedDate); d != "" {
		rec.PublishedDate = strptr(d)
	}
	return rec, nil
}

// TransformYouTubeItem converts a YouTube video. tags distinguishes the plain
// video pipeline ("youtube") from the TED one ("tedtalks").
func TransformYouTubeItem(video *models.VideoItem, searchTerm, tags string) (*models.CanonicalRecord, error) {
	snippet := video.Snippet
	if strings.TrimSpace(snippet.Title) == "" {
		return nil, &ValidationError{Field: "title"}
	}
	if snippet.Description == "" {
		return nil, &ValidationError{Field: "description"}
	}

	thumbnail := ""
	for _, choice := range videoThumbnailChoices {
		if t, ok := snippet.Thumbnails[choice]; ok && t.URL != "" {
			thumbnail = t.URL
			break
		}
	}

	rec := newRecord(snippet.Title)
	rec.Thumbnail = thumbnail
	rec.Description = strptr(CleanHTML(snippet.Description))
	if snippet.ChannelTitle != "" {
		rec.Authors = []string{snippet.ChannelTitle}
	}
	rec.MediaType = "video"
	rec.Tags = tags
	rec.Metadata = models.Metadata{
		URL: "https://www.youtube.com/watch?v=" + video.VideoID,
		Tag: tagList(searchTerm),
	}
	rec.Original = []any{video}
	if d := StandardDate(snippet.PublishedAt); d != "" {
		rec.PublishedDate = strptr(d)
	}
	return rec, nil
}

// TransformScopusItem converts a research article entry. Scopus provides no
// abstract or artwork at this API tier, so description stays null and the
// thumbnail empty.
func TransformScopusItem(entry *models.ArticleEntry, searchTerm string) (*models.CanonicalRecord, error) {
	if strings.TrimSpace(entry.Title) == "" {
		return nil, &ValidationError{Field: "title"}
	}

	url := ""
	for _, link := range entry.Links {
		if link.Ref == "scopus" {
			url = link.Href
		}
	}

	rec := newRecord(entry.Title)
	if entry.Creator != "" {
		rec.Authors = []string{entry.Creator}
	}
	rec.MediaType = "article"
	rec.Tags = "research"
	rec.Metadata = models.Metadata{
		URL: url,
		Tag: tagList(searchTerm),
	}
	rec.Original = []any{entry}
	if d := StandardDate(entry.CoverDate); d != "" {
		rec.PublishedDate = strptr(d)
	}
	return rec, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func optionalID(id int64) *int64 {
	if id == 0 {
		return nil
	}
	return &id
}

func enclosureURL(raw *models.RSSItem) *string {
	for _, enc := range raw.Item.Enclosures {
		if enc != nil && enc.URL != "" {
			return strptr(enc.URL)
		}
	}
	return nil
}

// ItunesTitle returns the item's itunes:title, or "" when the feed carries
// none. gofeed's typed iTunes extension does not surface the title tag, so it
// is read from the raw extension map.
func ItunesTitle(item *gofeed.Item) string {
	for _, e := range item.Extensions["itunes"]["title"] {
		if t := strings.TrimSpace(e.Value); t != "" {
			return t
		}
	}
	return ""
}

// transcriptURL pulls the podcast-namespace transcript extension when the
// feed carries one; gofeed exposes unknown namespaces via Item.Extensions.
func transcriptURL(raw *models.RSSItem) *string {
	exts, ok := raw.Item.Extensions["podcast"]
	if !ok {
		return strptr("")
	}
	for _, ext := range exts["transcript"] {
		if u := ext.Attrs["url"]; u != "" {
			return strptr(u)
		}
	}
	return strptr("")
}
