package transform

import (
	"kimeta/internal/models"
)

// Merge functions enrich an existing canonical record with data found in the
// other catalog. They only ever fill absent fields (a previously populated
// link or id is never overwritten) and always append the contributing raw
// record to the provenance trail.

// AddSpotifyData merges a matched streaming-catalog episode into rec.
// Fills spotify_url, the spotify episode/show ids and an empty description.
func AddSpotifyData(rec *models.CanonicalRecord, ep *models.StreamingEpisode) {
	links := rec.Links()
	if links.SpotifyURL == nil && ep.URL != "" {
		links.SpotifyURL = strptr(ep.URL)
	}
	ids := rec.IDs()
	if ids.SpotifyID == nil && ep.ID != "" {
		ids.SpotifyID = strptr(ep.ID)
	}
	showIDs := rec.PodcastIDs()
	if showIDs.SpotifyID == nil && ep.ShowID != "" {
		showIDs.SpotifyID = strptr(ep.ShowID)
	}
	if (rec.Description == nil || *rec.Description == "") && ep.Description != "" {
		rec.Description = strptr(CleanHTML(ep.Description))
	}
	rec.Original = append(rec.Original, ep)
}

// AddItunesData merges a matched directory episode into rec. Fills
// itunes_url, the itunes episode/show ids and an empty description, updates
// the rating fields from showMeta when given and recomputes the score.
func AddItunesData(rec *models.CanonicalRecord, result *models.DirectoryResult, showMeta *models.ShowMetadata) {
	links := rec.Links()
	if links.ItunesURL == nil && result.TrackViewURL != "" {
		links.ItunesURL = strptr(result.TrackViewURL)
	}
	ids := rec.IDs()
	if ids.ItunesID == nil && result.TrackID != 0 {
		ids.ItunesID = optionalID(result.TrackID)
	}
	showIDs := rec.PodcastIDs()
	if showIDs.ItunesID == nil && result.CollectionID != 0 {
		showIDs.ItunesID = optionalID(result.CollectionID)
	}
	if (rec.Description == nil || *rec.Description == "") && result.Description != "" {
		rec.Description = strptr(CleanHTML(result.Description))
	}
	rec.Original = append(rec.Original, result)

	if showMeta != nil {
		rec.Metadata.Rating = showMeta.Rating
		rec.Metadata.RatingCount = showMeta.RatingCount
		rec.Metadata.TotalEpisodes = showMeta.TotalEpisodes
	}
	if rec.PublishedDate != nil && *rec.PublishedDate != "" {
		rec.Score = CalculateScorePodcast(
			rec.Metadata.Rating, rec.Metadata.RatingCount,
			rec.Metadata.TotalEpisodes, *rec.PublishedDate)
	}
}
