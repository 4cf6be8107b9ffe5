package main

import (
	"errors"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"kimeta/internal/models"
	"kimeta/internal/storage"
)

func newEpisodesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "episodes <shows-file> <destination>",
		Short: "Fetch and normalize every episode of each listed show",
		Long: `Resolve each show name in the given text file against the Apple Podcasts
directory, fetch the show's RSS feed and write all of its episodes as one
JSON file per show in the destination folder.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			shows, err := storage.ReadLines(args[0])
			if err != nil {
				return err
			}

			p, err := ctx.pipeline()
			if err != nil {
				return err
			}

			for _, show := range shows {
				records, err := p.ShowEpisodes(cmd.Context(), show)
				if errors.Is(err, models.ErrQuotaExceeded) {
					return fmt.Errorf("quota exceeded at %q: %w", show, err)
				}
				if err != nil {
					log.Printf("episodes: %q: %v", show, err)
					continue
				}
				path, err := storage.CreateJSONFile(args[1], show, records)
				if err != nil {
					return err
				}
				log.Printf("wrote %d episodes of %q to %s", len(records), show, path)
			}
			return nil
		},
	}
}
