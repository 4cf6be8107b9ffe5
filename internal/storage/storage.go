// Package storage handles the JSON file layout shared by every pipeline:
// one folder per run, one file per category or show, plus the raw RSS cache.
package storage

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var invalidFilenameChars = regexp.MustCompile(`[^-\w.]`)

// ErrInvalidName is returned when nothing usable is left after sanitizing.
var ErrInvalidName = errors.New("storage: name reduces to an invalid filename")

// ValidFilename converts a display name to a safe filename. Leading and
// trailing spaces go, inner spaces become underscores, and everything that is
// not alphanumeric, dash, underscore or dot is dropped.
func ValidFilename(name string) (string, error) {
	s := strings.TrimSpace(name)
	s = strings.ReplaceAll(s, " ", "_")
	s = invalidFilenameChars.ReplaceAllString(s, "")
	if s == "" || s == "." || s == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return s, nil
}

// CreateJSONFile writes v as indented JSON to folder/<sanitized name>.json,
// creating the folder as needed, and returns the path written.
func CreateJSONFile(folder, name string, v any) (string, error) {
	filename, err := ValidFilename(name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return "", fmt.Errorf("storage: create %s: %w", folder, err)
	}

	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return "", fmt.Errorf("storage: marshal %s: %w", name, err)
	}

	path := filepath.Join(folder, filename+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("storage: write %s: %w", path, err)
	}
	return path, nil
}

// LoadJSONFile reads folder/<sanitized name>.json into out. The second return
// is false when the file does not exist, which is not an error.
func LoadJSONFile(folder, name string, out any) (bool, error) {
	filename, err := ValidFilename(name)
	if err != nil {
		return false, err
	}
	return LoadJSONPath(filepath.Join(folder, filename+".json"), out)
}

// LoadJSONPath reads an exact path into out, reporting absence as (false, nil).
func LoadJSONPath(path string, out any) (bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("storage: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("storage: parse %s: %w", path, err)
	}
	return true, nil
}

// ReadLines returns the non-empty trimmed lines of a text file; used for the
// search-term and show-name inputs.
func ReadLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", path, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", path, err)
	}
	return lines, nil
}
