package main

import (
	"errors"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"kimeta/internal/models"
	"kimeta/internal/storage"
	"kimeta/internal/transform"
)

func newChannelCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "channel <destination> <channel-id>",
		Short: "Normalize every upload of a YouTube channel",
		Long: `List a channel's uploads newest first and write them as canonical records
to one JSON file in the destination folder, named after the channel. Without
a YouTube API key the uploads playlist is scraped instead, which carries no
view statistics.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := ctx.pipeline()
			if err != nil {
				return err
			}

			videos, err := p.YouTube.SearchChannel(cmd.Context(), "", args[1], limit, "date")
			if errors.Is(err, models.ErrQuotaExceeded) {
				return fmt.Errorf("quota exceeded: %w", err)
			}
			if err != nil {
				return err
			}

			var records []*models.CanonicalRecord
			for _, video := range videos {
				rec, err := transform.TransformYouTubeItem(video, "", "youtube")
				if err != nil {
					log.Printf("channel: skip %q: %v", video.Snippet.Title, err)
					continue
				}
				records = append(records, rec)
			}
			if len(records) == 0 {
				return fmt.Errorf("no usable videos on channel %s", args[1])
			}

			name := args[1]
			if len(records[0].Authors) > 0 {
				name = records[0].Authors[0]
			}
			path, err := storage.CreateJSONFile(args[0], name, records)
			if err != nil {
				return err
			}
			log.Printf("wrote %d videos to %s", len(records), path)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Only process the newest N uploads (0 = all)")
	return cmd
}
