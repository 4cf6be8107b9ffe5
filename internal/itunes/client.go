// Package itunes wraps the iTunes Search and Lookup APIs for podcast and
// podcast-episode queries.
package itunes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"golang.org/x/time/rate"

	"kimeta/internal/models"
)

const defaultBaseURL = "https://itunes.apple.com"

// The search API throttles at roughly 20 calls/minute per IP; stay under it.
var defaultLimiter = rate.NewLimiter(rate.Every(3*time.Second), 1)

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Limiter    *rate.Limiter
}

func NewClient() *Client {
	return &Client{
		BaseURL:    defaultBaseURL,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		Limiter:    defaultLimiter,
	}
}

type searchResponse struct {
	ResultCount int                       `json:"resultCount"`
	Results     []*models.DirectoryResult `json:"results"`
}

// SearchOptions narrow a directory search.
type SearchOptions struct {
	// Entity is "podcast" or "podcastEpisode".
	Entity string
	// Attribute restricts matching to one field, e.g. "titleTerm".
	Attribute string
	Limit     int
}

// Search queries the directory for term. Returns ErrQuotaExceeded when the
// API signals throttling, which callers treat as fatal for the current run.
func (c *Client) Search(ctx context.Context, term string, opts SearchOptions) ([]*models.DirectoryResult, error) {
	entity := opts.Entity
	if entity == "" {
		entity = "podcastEpisode"
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}

	params := url.Values{}
	params.Set("term", truncateQuery(term))
	params.Set("media", "podcast")
	params.Set("entity", entity)
	params.Set("limit", strconv.Itoa(limit))
	if opts.Attribute != "" {
		params.Set("attribute", opts.Attribute)
	}

	var parsed searchResponse
	if err := c.get(ctx, "/search?"+params.Encode(), &parsed); err != nil {
		return nil, fmt.Errorf("itunes search %q: %w", term, err)
	}
	return parsed.Results, nil
}

// Lookup fetches a collection by id, optionally expanded to its episodes.
func (c *Client) Lookup(ctx context.Context, collectionID int64, entity string, limit int) ([]*models.DirectoryResult, error) {
	params := url.Values{}
	params.Set("id", strconv.FormatInt(collectionID, 10))
	if entity != "" {
		params.Set("entity", entity)
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var parsed searchResponse
	if err := c.get(ctx, "/lookup?"+params.Encode(), &parsed); err != nil {
		return nil, fmt.Errorf("itunes lookup %d: %w", collectionID, err)
	}
	return parsed.Results, nil
}

// ShowMetadata assembles the show-level summary for scoring from a lookup of
// the collection record.
func (c *Client) ShowMetadata(ctx context.Context, collectionID int64) (*models.ShowMetadata, error) {
	results, err := c.Lookup(ctx, collectionID, "podcast", 1)
	if err != nil {
		return nil, err
	}
	for _, r := range results {
		if r.CollectionName == "" {
			continue
		}
		meta := &models.ShowMetadata{
			Rating:        r.AverageRating,
			RatingCount:   r.RatingCount,
			TotalEpisodes: r.TrackCount,
			Description:   r.Description,
			Thumbnail:     firstNonEmpty(r.ArtworkURL600, r.ArtworkURL160, r.ArtworkURL60),
		}
		if r.ArtistName != "" {
			meta.Authors = []string{r.ArtistName}
		}
		return meta, nil
	}
	return nil, fmt.Errorf("itunes lookup %d: no collection record", collectionID)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	if err := c.Limiter.Wait(ctx); err != nil {
		return err
	}

	body, err := retry.DoWithData(
		func() ([]byte, error) { return c.fetch(ctx, c.BaseURL+path) },
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(500*time.Millisecond),
		retry.MaxJitter(250*time.Millisecond),
		retry.RetryIf(isRetryable),
	)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}

func (c *Client) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests:
		return nil, models.ErrQuotaExceeded
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("itunes api: status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

// Quota exhaustion is fatal by contract, never retried.
func isRetryable(err error) bool {
	return !errors.Is(err, models.ErrQuotaExceeded) && !errors.Is(err, context.Canceled)
}

// truncateQuery keeps queries under the API's 100-character cap by dropping
// whole words from the end.
func truncateQuery(q string) string {
	for len(q) > 100 {
		idx := strings.LastIndex(q, " ")
		if idx == -1 {
			return q[:100]
		}
		q = q[:idx]
	}
	return q
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
