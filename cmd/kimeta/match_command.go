package main

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"kimeta/internal/models"
	"kimeta/internal/pipeline"
	"kimeta/internal/spotify"
	"kimeta/internal/storage"
)

func newMatchCommand(ctx *commandContext) *cobra.Command {
	matchCmd := &cobra.Command{
		Use:   "match",
		Short: "Cross-link a show's episode records with the other catalogs",
	}
	matchCmd.AddCommand(newMatchSpotifyCommand(ctx))
	matchCmd.AddCommand(newMatchItunesCommand(ctx))
	return matchCmd
}

func newMatchSpotifyCommand(ctx *commandContext) *cobra.Command {
	var sourceFlag string
	var txtFlag string
	var fuzzy bool

	cmd := &cobra.Command{
		Use:   "spotify",
		Short: "Fill in Spotify links for a show's episode records",
		Long: `With --source, load a JSON file of one show's episode records, list the
show's episodes on Spotify and fill in the matching links. Updated records,
the failed bucket and date-only matches are written next to the source under
updated/. With --txt, only resolve and store the Spotify show ID for each
listed podcast name.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.cfg.RequireSpotify(); err != nil {
				return err
			}
			sp := spotify.New(cmd.Context(), ctx.cfg.SpotifyClientID, ctx.cfg.SpotifyClientSecret)

			db, err := ctx.registry()
			if err != nil {
				return err
			}
			defer db.Close()

			if txtFlag != "" {
				names, err := storage.ReadLines(txtFlag)
				if err != nil {
					return err
				}
				for _, name := range names {
					id, err := pipeline.ResolveSpotifyShowID(cmd.Context(), sp, db, name)
					if errors.Is(err, models.ErrQuotaExceeded) {
						return fmt.Errorf("quota exceeded at %q: %w", name, err)
					}
					if err != nil {
						log.Printf("match spotify: %q: %v", name, err)
						continue
					}
					log.Printf("%s -> %s", name, id)
				}
				return nil
			}

			if sourceFlag == "" {
				return errors.New("pass either --source with a show's JSON file or --txt with podcast names")
			}

			var episodes []*models.CanonicalRecord
			ok, err := storage.LoadJSONPath(sourceFlag, &episodes)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("source %s does not exist", sourceFlag)
			}

			res, matchErr := pipeline.MatchSpotify(cmd.Context(), sp, db, episodes, fuzzy, ctx.verbose)

			dest := filepath.Join(filepath.Dir(sourceFlag), "updated")
			if res.Matched > 0 {
				name := strings.TrimSuffix(filepath.Base(sourceFlag), ".json")
				if _, err := storage.CreateJSONFile(dest, name, episodes); err != nil {
					return err
				}
				log.Printf("spotify links for %d out of %d", res.Matched+res.Untouched, len(episodes))
			}
			if err := writeBuckets(dest, res.Failed, res.Fuzzy); err != nil {
				return err
			}

			if errors.Is(matchErr, models.ErrQuotaExceeded) {
				return fmt.Errorf("quota exceeded: %w", matchErr)
			}
			return matchErr
		},
	}

	cmd.Flags().StringVar(&sourceFlag, "source", "", "Path to a show's episode records (JSON)")
	cmd.Flags().StringVar(&txtFlag, "txt", "", "Path to a text file of podcast names")
	cmd.Flags().BoolVarP(&fuzzy, "fuzzy", "f", false, "Also match episodes whose dates match but titles do not")
	return cmd
}

func newMatchItunesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "itunes <source>",
		Short: "Fill in iTunes links for a show's episode records",
		Long: `Load a JSON file of one show's episode records and search the Apple
Podcasts directory for each episode by title. A result counts as a match only
when the title is identical and it belongs to the same show. Updated records
and the failed bucket are written next to the source under updated/.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var episodes []*models.CanonicalRecord
			ok, err := storage.LoadJSONPath(args[0], &episodes)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("source %s does not exist", args[0])
			}

			p, err := ctx.pipeline()
			if err != nil {
				return err
			}

			res, matchErr := pipeline.MatchItunes(cmd.Context(), p.Itunes, episodes, ctx.verbose)

			dest := filepath.Join(filepath.Dir(args[0]), "updated")
			name := strings.TrimSuffix(filepath.Base(args[0]), ".json")
			if _, err := storage.CreateJSONFile(dest, name, episodes); err != nil {
				return err
			}
			log.Printf("itunes links for %d out of %d", res.Matched+res.Untouched, len(episodes))
			if err := writeBuckets(dest, res.Failed, nil); err != nil {
				return err
			}

			if errors.Is(matchErr, models.ErrQuotaExceeded) {
				return fmt.Errorf("quota exceeded: %w", matchErr)
			}
			return matchErr
		},
	}
}

// writeBuckets saves the failed and date-only buckets, writing empty arrays
// so a re-run never mistakes stale buckets for current ones.
func writeBuckets(dest string, failed, fuzzy []*models.CanonicalRecord) error {
	if failed == nil {
		failed = []*models.CanonicalRecord{}
	}
	if fuzzy == nil {
		fuzzy = []*models.CanonicalRecord{}
	}
	if _, err := storage.CreateJSONFile(dest, "failed", failed); err != nil {
		return err
	}
	_, err := storage.CreateJSONFile(dest, "fuzzy_matches", fuzzy)
	return err
}
