// Package config loads settings from the environment, with a .env file as the
// usual source during development.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	SpotifyClientID     string
	SpotifyClientSecret string
	YouTubeAPIKey       string
	GoogleBooksAPIKey   string
	ScopusAPIKey        string
	// DataDir holds the JSON output folders, the RSS cache and the registry.
	DataDir string
}

// Load reads .env when present and assembles the config. Nothing is validated
// here; each command requires only the keys it uses.
func Load() *Config {
	// A missing .env is fine, the environment may carry everything already.
	_ = godotenv.Load()

	cfg := &Config{
		SpotifyClientID:     os.Getenv("SPOTIFY_CLIENT_ID"),
		SpotifyClientSecret: os.Getenv("SPOTIFY_CLIENT_SECRET"),
		YouTubeAPIKey:       os.Getenv("YOUTUBE_API_KEY"),
		GoogleBooksAPIKey:   os.Getenv("GOOGLEBOOKS_API_KEY"),
		ScopusAPIKey:        os.Getenv("SCOPUS_API_KEY"),
		DataDir:             os.Getenv("KIMETA_DATA_DIR"),
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "."
	}
	return cfg
}

// RequireSpotify fails when the client-credentials pair is incomplete.
func (c *Config) RequireSpotify() error {
	if c.SpotifyClientID == "" || c.SpotifyClientSecret == "" {
		return fmt.Errorf("SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET must be set")
	}
	return nil
}
