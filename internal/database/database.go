// Package database keeps the show-ID registry: a small sqlite table mapping a
// podcast name to the catalog IDs resolved for it, so repeated runs don't
// re-search shows that were already identified.
package database

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schema string

type ShowMapping struct {
	Name      string
	SpotifyID string
	ItunesID  int64
}

func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open registry %s: %w", path, err)
	}
	if err := InitDatabase(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init registry %s: %w", path, err)
	}
	return db, nil
}

// InitDatabase runs the embedded schema and sets performance PRAGMAs
func InitDatabase(db *sql.DB) error {
	_, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL; PRAGMA cache_size=-2000;")
	if err != nil {
		return err
	}
	_, err = db.Exec(schema)
	return err
}

// UpsertShow inserts or updates the registry.
// It uses COALESCE to ensure we don't wipe out an ID one catalog already has
// when the other catalog resolves later.
func UpsertShow(db *sql.DB, m ShowMapping) error {
	if db == nil || m.Name == "" {
		return nil
	}

	query := `
	INSERT INTO show_registry (name, spotify_id, itunes_id, last_updated)
	VALUES (?, ?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT(name) DO UPDATE SET
		spotify_id = COALESCE(NULLIF(excluded.spotify_id, ''), show_registry.spotify_id),
		itunes_id = COALESCE(NULLIF(excluded.itunes_id, 0), show_registry.itunes_id),
		last_updated = CURRENT_TIMESTAMP;`

	_, err := db.Exec(query, m.Name, m.SpotifyID, m.ItunesID)
	return err
}

// GetSpotifyID looks up the stored Spotify show ID for a podcast name.
// Returns "" with a nil error when the show is not in the registry.
func GetSpotifyID(db *sql.DB, name string) (string, error) {
	if db == nil || name == "" {
		return "", fmt.Errorf("invalid lookup")
	}

	var id sql.NullString
	err := db.QueryRow("SELECT spotify_id FROM show_registry WHERE name = ?", name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return id.String, nil
}

// GetItunesID looks up the stored iTunes collection ID for a podcast name.
// Returns 0 with a nil error when the show is not in the registry.
func GetItunesID(db *sql.DB, name string) (int64, error) {
	if db == nil || name == "" {
		return 0, fmt.Errorf("invalid lookup")
	}

	var id sql.NullInt64
	err := db.QueryRow("SELECT itunes_id FROM show_registry WHERE name = ?", name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return id.Int64, nil
}
