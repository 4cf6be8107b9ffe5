package pipeline

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"kimeta/internal/database"
	"kimeta/internal/itunes"
	"kimeta/internal/models"
	"kimeta/internal/reconcile"
	"kimeta/internal/spotify"
	"kimeta/internal/transform"
)

// PodcastTitle returns the show name shared by a file of episode records.
func PodcastTitle(episodes []*models.CanonicalRecord) (string, error) {
	if len(episodes) == 0 {
		return "", errors.New("no episodes in source")
	}
	name := episodes[0].Metadata.PodcastTitle
	if name == "" {
		return "", errors.New("source records carry no podcast title")
	}
	return name, nil
}

// ResolveSpotifyShowID returns the show's Spotify ID, preferring the registry
// and falling back to a verified catalog search whose result is stored back.
func ResolveSpotifyShowID(ctx context.Context, sp *spotify.Client, db *sql.DB, name string) (string, error) {
	id, err := database.GetSpotifyID(db, name)
	if err != nil {
		return "", fmt.Errorf("registry lookup %q: %w", name, err)
	}
	if id != "" {
		return id, nil
	}

	id, err = sp.FindShowID(ctx, name)
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", fmt.Errorf("no spotify show found for %q", name)
	}
	if err := database.UpsertShow(db, database.ShowMapping{Name: name, SpotifyID: id}); err != nil {
		log.Printf("registry: store %q: %v", name, err)
	}
	return id, nil
}

// MatchSpotify enriches a show's episode records with their Spotify links by
// listing the whole show on Spotify and reconciling the two lists.
func MatchSpotify(ctx context.Context, sp *spotify.Client, db *sql.DB, episodes []*models.CanonicalRecord, fuzzy, verbose bool) (reconcile.Result, error) {
	name, err := PodcastTitle(episodes)
	if err != nil {
		return reconcile.Result{}, err
	}

	showID, err := ResolveSpotifyShowID(ctx, sp, db, name)
	if err != nil {
		return reconcile.Result{}, err
	}
	if verbose {
		log.Printf("updating spotify links for %q (show %s)", name, showID)
	}

	candidates, err := sp.ShowEpisodes(ctx, showID)
	if err != nil {
		return reconcile.Result{}, err
	}

	return reconcile.Reconcile(episodes, candidates, name, reconcile.Options{
		Fuzzy:   fuzzy,
		Merge:   transform.AddSpotifyData,
		Verbose: verbose,
	}), nil
}

// ItunesResult partitions the outcome of an iTunes link run.
type ItunesResult struct {
	Matched   int
	Untouched int
	Failed    []*models.CanonicalRecord
}

// MatchItunes fills in iTunes links per episode via the directory's episode
// search; a hit counts only when the title matches exactly and the episode
// belongs to the same show. Quota exhaustion aborts the run, keeping the
// records already enriched.
func MatchItunes(ctx context.Context, it *itunes.Client, episodes []*models.CanonicalRecord, verbose bool) (ItunesResult, error) {
	var res ItunesResult

	showID := itunesShowID(episodes)
	if showID == 0 {
		return res, errors.New("source records carry no itunes show id")
	}

	for _, item := range episodes {
		links := item.Links()
		if links.ItunesURL != nil && *links.ItunesURL != "" {
			res.Untouched++
			continue
		}

		results, err := it.Search(ctx, item.Title, itunes.SearchOptions{Attribute: "titleTerm", Limit: 10})
		if errors.Is(err, models.ErrQuotaExceeded) {
			res.Failed = append(res.Failed, item)
			return res, err
		}
		if err != nil {
			log.Printf("itunes match %q: %v", item.Title, err)
			res.Failed = append(res.Failed, item)
			continue
		}

		matched := false
		for _, result := range results {
			if result.TrackName == item.Title && result.CollectionID == showID {
				transform.AddItunesData(item, result, nil)
				res.Matched++
				matched = true
				break
			}
		}
		if !matched {
			res.Failed = append(res.Failed, item)
			if verbose {
				log.Printf("no itunes match for %q", item.Title)
			}
		}
	}
	return res, nil
}

func itunesShowID(episodes []*models.CanonicalRecord) int64 {
	for _, item := range episodes {
		if item.Metadata.PodcastID != nil && item.Metadata.PodcastID.ItunesID != nil {
			return *item.Metadata.PodcastID.ItunesID
		}
	}
	return 0
}
