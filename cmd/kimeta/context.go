package main

import (
	"database/sql"
	"path/filepath"

	"kimeta/internal/books"
	"kimeta/internal/config"
	"kimeta/internal/database"
	"kimeta/internal/itunes"
	"kimeta/internal/pipeline"
	"kimeta/internal/rss"
	"kimeta/internal/scopus"
	"kimeta/internal/tedtalks"
	"kimeta/internal/youtube"
)

// commandContext carries the loaded config and builds the shared clients.
type commandContext struct {
	cfg     *config.Config
	verbose bool
}

func (c *commandContext) loadConfig() {
	if c.cfg == nil {
		c.cfg = config.Load()
	}
}

// dataPath resolves a path inside the data directory.
func (c *commandContext) dataPath(parts ...string) string {
	return filepath.Join(append([]string{c.cfg.DataDir}, parts...)...)
}

func (c *commandContext) pipeline() (*pipeline.Pipeline, error) {
	curated, err := tedtalks.LoadCurated(c.dataPath("db"))
	if err != nil {
		return nil, err
	}
	return &pipeline.Pipeline{
		Itunes:  itunes.NewClient(),
		RSS:     rss.NewSource(c.cfg.DataDir),
		YouTube: youtube.NewClient(c.cfg.YouTubeAPIKey),
		Books:   books.NewClient(c.cfg.GoogleBooksAPIKey),
		Scopus:  scopus.NewClient(c.cfg.ScopusAPIKey),
		Curated: curated,
		Verbose: c.verbose,
	}, nil
}

func (c *commandContext) registry() (*sql.DB, error) {
	return database.Open(c.dataPath("db", "registry.db"))
}
