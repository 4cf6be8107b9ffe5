package models

import (
	"errors"

	"github.com/mmcdole/gofeed"
)

// ErrQuotaExceeded is returned by catalog clients when the upstream API
// signals rate-limit or quota exhaustion. It aborts the current run; partial
// results gathered so far are still written out.
var ErrQuotaExceeded = errors.New("upstream quota exceeded")

type SourceKind string

const (
	KindDirectoryResult  SourceKind = "directory"
	KindRSSItem          SourceKind = "rss"
	KindStreamingEpisode SourceKind = "streaming"
	KindVideo            SourceKind = "video"
	KindBook             SourceKind = "book"
	KindArticle          SourceKind = "article"
)

// RawRecord is the tagged union of origin-specific records returned by the
// source clients. The transform package switches exhaustively over the
// concrete types.
type RawRecord interface {
	Kind() SourceKind
}

// DirectoryResult is one item from the iTunes Search/Lookup API. Field names
// mirror the wire format so the provenance trail round-trips unchanged.
type DirectoryResult struct {
	WrapperType       string  `json:"wrapperType,omitempty"`
	TrackID           int64   `json:"trackId,omitempty"`
	TrackName         string  `json:"trackName,omitempty"`
	CollectionID      int64   `json:"collectionId,omitempty"`
	CollectionName    string  `json:"collectionName,omitempty"`
	CollectionViewURL string  `json:"collectionViewUrl,omitempty"`
	TrackViewURL      string  `json:"trackViewUrl,omitempty"`
	FeedURL           string  `json:"feedUrl,omitempty"`
	ArtistName        string  `json:"artistName,omitempty"`
	ArtworkURL600     string  `json:"artworkUrl600,omitempty"`
	ArtworkURL160     string  `json:"artworkUrl160,omitempty"`
	ArtworkURL60      string  `json:"artworkUrl60,omitempty"`
	TrackTimeMillis   int64   `json:"trackTimeMillis,omitempty"`
	EpisodeURL        string  `json:"episodeUrl,omitempty"`
	ReleaseDate       string  `json:"releaseDate,omitempty"`
	Description       string  `json:"description,omitempty"`
	ShortDescription  string  `json:"shortDescription,omitempty"`
	TrackCount        int     `json:"trackCount,omitempty"`
	AverageRating     float64 `json:"averageUserRating,omitempty"`
	RatingCount       int     `json:"userRatingCount,omitempty"`
	PrimaryGenreName  string  `json:"primaryGenreName,omitempty"`
	Country           string  `json:"country,omitempty"`
}

func (*DirectoryResult) Kind() SourceKind { return KindDirectoryResult }

// FeedHeader carries podcast-level context for transforming a single feed
// item: the show name, the feed-level author string and the directory search
// hit that led to the feed (used for artwork and URL fallbacks).
type FeedHeader struct {
	PodcastName string           `json:"podcastName"`
	Authors     string           `json:"authors,omitempty"`
	Tag         string           `json:"tag,omitempty"`
	ItunesURL   string           `json:"itunes_url,omitempty"`
	Directory   *DirectoryResult `json:"original,omitempty"`
}

// RSSItem is one episode item from a podcast RSS feed plus its feed header.
type RSSItem struct {
	Item   *gofeed.Item `json:"item"`
	Header *FeedHeader  `json:"header,omitempty"`
}

func (*RSSItem) Kind() SourceKind { return KindRSSItem }

// StreamingEpisode is one episode object from the streaming catalog,
// flattened by the API client.
type StreamingEpisode struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url"`
	ReleaseDate string `json:"release_date"`
	DurationMS  int    `json:"duration_ms,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	ShowID      string `json:"show_id,omitempty"`
	ShowName    string `json:"show_name,omitempty"`
	Publisher   string `json:"publisher,omitempty"`
}

func (*StreamingEpisode) Kind() SourceKind { return KindStreamingEpisode }

// VideoItem is one video from the YouTube Data API v3. The client normalizes
// the two id shapes (search returns an object, the videos endpoint a bare
// string) into VideoID.
type VideoItem struct {
	VideoID    string           `json:"videoId"`
	Snippet    VideoSnippet     `json:"snippet"`
	Statistics *VideoStatistics `json:"statistics,omitempty"`
}

type VideoSnippet struct {
	Title        string               `json:"title"`
	Description  string               `json:"description"`
	ChannelTitle string               `json:"channelTitle"`
	PublishedAt  string               `json:"publishedAt"`
	Thumbnails   map[string]Thumbnail `json:"thumbnails"`
}

type Thumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

type VideoStatistics struct {
	ViewCount string `json:"viewCount,omitempty"`
	LikeCount string `json:"likeCount,omitempty"`
}

func (*VideoItem) Kind() SourceKind { return KindVideo }

// BookVolume is one volume from the Google Books API.
type BookVolume struct {
	ID         string     `json:"id"`
	SelfLink   string     `json:"selfLink,omitempty"`
	VolumeInfo VolumeInfo `json:"volumeInfo"`
}

type VolumeInfo struct {
	Title         string            `json:"title"`
	Authors       []string          `json:"authors,omitempty"`
	Description   string            `json:"description,omitempty"`
	PublishedDate string            `json:"publishedDate,omitempty"`
	PreviewLink   string            `json:"previewLink,omitempty"`
	ImageLinks    map[string]string `json:"imageLinks,omitempty"`
	AverageRating float64           `json:"averageRating,omitempty"`
	RatingsCount  int               `json:"ratingsCount,omitempty"`
}

func (*BookVolume) Kind() SourceKind { return KindBook }

// ArticleEntry is one entry from the Scopus search API.
type ArticleEntry struct {
	Title     string        `json:"dc:title"`
	Creator   string        `json:"dc:creator,omitempty"`
	CoverDate string        `json:"prism:coverDate,omitempty"`
	Links     []ArticleLink `json:"link,omitempty"`
}

type ArticleLink struct {
	Ref  string `json:"@ref"`
	Href string `json:"@href"`
}

func (*ArticleEntry) Kind() SourceKind { return KindArticle }

// AdditionalLinks holds the cross-catalog episode URLs. Each side is set only
// by its own catalog's merge step and is never overwritten with nil.
type AdditionalLinks struct {
	ItunesURL  *string `json:"itunes_url"`
	SpotifyURL *string `json:"spotify_url"`
}

// CatalogIDs keeps the per-catalog identifiers side by side; they are never
// merged into one ID.
type CatalogIDs struct {
	ItunesID  *int64  `json:"itunes_id"`
	SpotifyID *string `json:"spotify_id"`
}

type Metadata struct {
	URL             string           `json:"url,omitempty"`
	AudioLength     *string          `json:"audio_length,omitempty"`
	AudioFile       *string          `json:"audio_file,omitempty"`
	PodcastTitle    string           `json:"podcast_title,omitempty"`
	VideoLength     string           `json:"video_length,omitempty"`
	Transcript      *string          `json:"transcript,omitempty"`
	Tag             []string         `json:"tag"`
	AdditionalLinks *AdditionalLinks `json:"additional_links,omitempty"`
	PodcastID       *CatalogIDs      `json:"podcast_id,omitempty"`
	ID              *CatalogIDs      `json:"id,omitempty"`
	Rating          float64          `json:"rating,omitempty"`
	RatingCount     int              `json:"rating_count,omitempty"`
	TotalEpisodes   int              `json:"total_episodes,omitempty"`
}

// CanonicalRecord is the unified output entity. A record is created once by
// the transform package from a single raw record; the reconciliation driver
// may later merge in data from the other catalog. Original is append-only.
type CanonicalRecord struct {
	Title         string   `json:"title"`
	Thumbnail     string   `json:"thumbnail"`
	Description   *string  `json:"description"`
	Permission    string   `json:"permission"`
	Authors       []string `json:"authors"`
	MediaType     string   `json:"mediaType"`
	Tags          string   `json:"tags"`
	Type          string   `json:"type"`
	Metadata      Metadata `json:"metadata"`
	Created       int64    `json:"created"`
	CreatedBy     *string  `json:"createdBy"`
	Updated       string   `json:"updated"`
	IsDeleted     bool     `json:"isDeleted"`
	Original      []any    `json:"original"`
	PublishedDate *string  `json:"publishedDate"`
	Score         int      `json:"score"`
	Slug          string   `json:"slug"`
}

// Links returns the additional_links sub-structure, allocating it on first
// use so merge steps can rely on it being present.
func (r *CanonicalRecord) Links() *AdditionalLinks {
	if r.Metadata.AdditionalLinks == nil {
		r.Metadata.AdditionalLinks = &AdditionalLinks{}
	}
	return r.Metadata.AdditionalLinks
}

// IDs returns the per-catalog episode id sub-structure, allocating on first use.
func (r *CanonicalRecord) IDs() *CatalogIDs {
	if r.Metadata.ID == nil {
		r.Metadata.ID = &CatalogIDs{}
	}
	return r.Metadata.ID
}

// PodcastIDs returns the per-catalog show id sub-structure, allocating on first use.
func (r *CanonicalRecord) PodcastIDs() *CatalogIDs {
	if r.Metadata.PodcastID == nil {
		r.Metadata.PodcastID = &CatalogIDs{}
	}
	return r.Metadata.PodcastID
}

// ShowMetadata is the show-level summary returned by a catalog's
// show-metadata lookup; it feeds the podcast score.
type ShowMetadata struct {
	Rating        float64  `json:"rating,omitempty"`
	RatingCount   int      `json:"rating_count,omitempty"`
	TotalEpisodes int      `json:"total_episodes,omitempty"`
	Description   string   `json:"description,omitempty"`
	Authors       []string `json:"authors,omitempty"`
	Thumbnail     string   `json:"thumbnail,omitempty"`
}
