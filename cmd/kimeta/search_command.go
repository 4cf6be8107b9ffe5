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
	"kimeta/internal/storage"
)

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var folder string

	cmd := &cobra.Command{
		Use:   "search <terms-file>",
		Short: "Search all sources for each term and save one JSON file per category",
		Long: `Search Apple Podcasts, Scopus, YouTube, the TED channels and Google Books
for every term in the given text file (one term per line). Results are
written as one JSON array per category under the destination folder.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			terms, err := storage.ReadLines(args[0])
			if err != nil {
				return err
			}

			p, err := ctx.pipeline()
			if err != nil {
				return err
			}

			results, runErr := p.SearchAll(cmd.Context(), terms, limit)

			// Write whatever was collected even when the run aborted.
			base := strings.TrimSuffix(filepath.Base(args[0]), ".txt")
			dest := ctx.dataPath(folder, base)
			for _, category := range pipeline.Categories {
				records := results[category]
				if records == nil {
					records = []*models.CanonicalRecord{}
				}
				if _, err := storage.CreateJSONFile(dest, category, records); err != nil {
					return err
				}
				log.Printf("wrote %d %s records", len(records), category)
			}

			if errors.Is(runErr, models.ErrQuotaExceeded) {
				return fmt.Errorf("quota exceeded, partial results written to %s: %w", dest, runErr)
			}
			return runErr
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 50, "Results per term and category")
	cmd.Flags().StringVarP(&folder, "folder", "f", "ki_json", "Destination folder")
	return cmd
}
