// Package youtube wraps the YouTube Data API v3 for video search, channel
// listings and per-video statistics. When no API key is configured, channel
// listings fall back to scraping the channel's uploads playlist, which needs
// no credentials but carries no statistics.
package youtube

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
	kkdai "github.com/kkdai/youtube/v2"
	"golang.org/x/time/rate"

	"kimeta/internal/models"
)

const (
	defaultBaseURL = "https://www.googleapis.com/youtube/v3"
	maxPageSize    = 50
)

type Client struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	Limiter    *rate.Limiter
}

func NewClient(apiKey string) *Client {
	return &Client{
		APIKey:     apiKey,
		BaseURL:    defaultBaseURL,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		Limiter:    rate.NewLimiter(rate.Every(200*time.Millisecond), 1),
	}
}

// searchItem is the wire shape of /search hits, where the id is an object.
type searchItem struct {
	ID struct {
		VideoID string `json:"videoId"`
	} `json:"id"`
	Snippet models.VideoSnippet `json:"snippet"`
}

// videoItem is the wire shape of /videos hits, where the id is a string.
type videoItem struct {
	ID         string                  `json:"id"`
	Snippet    models.VideoSnippet     `json:"snippet"`
	Statistics *models.VideoStatistics `json:"statistics"`
}

type listResponse struct {
	Items         []json.RawMessage `json:"items"`
	NextPageToken string            `json:"nextPageToken"`
}

// Search queries the whole of YouTube for term and returns up to limit videos
// with snippet and statistics filled in.
func (c *Client) Search(ctx context.Context, term string, limit int) ([]*models.VideoItem, error) {
	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("type", "video")
	params.Set("q", term)
	params.Set("regionCode", "US")
	params.Set("relevanceLanguage", "en")

	ids, err := c.searchIDs(ctx, params, limit)
	if err != nil {
		return nil, err
	}
	videos, err := c.VideoStats(ctx, ids)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(videos) > limit {
		videos = videos[:limit]
	}
	return videos, nil
}

// SearchChannel queries a single channel. An empty term with order "date"
// lists the channel's uploads newest first. limit <= 0 means no cap.
func (c *Client) SearchChannel(ctx context.Context, term, channelID string, limit int, order string) ([]*models.VideoItem, error) {
	if c.APIKey == "" {
		return c.channelUploads(ctx, channelID, limit)
	}

	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("type", "video")
	params.Set("channelId", channelID)
	if term != "" {
		params.Set("q", term)
	}
	if order != "" {
		params.Set("order", order)
	}

	ids, err := c.searchIDs(ctx, params, limit)
	if err != nil {
		return nil, err
	}
	return c.VideoStats(ctx, ids)
}

func (c *Client) searchIDs(ctx context.Context, params url.Values, limit int) ([]string, error) {
	pageSize := maxPageSize
	if limit > 0 && limit < maxPageSize {
		pageSize = limit
	}
	params.Set("maxResults", strconv.Itoa(pageSize))

	var ids []string
	for {
		page, err := c.list(ctx, "search", params)
		if err != nil {
			return nil, err
		}
		for _, raw := range page.Items {
			var item searchItem
			if err := json.Unmarshal(raw, &item); err != nil {
				return nil, fmt.Errorf("youtube search: parse item: %w", err)
			}
			if item.ID.VideoID != "" {
				ids = append(ids, item.ID.VideoID)
			}
		}
		if page.NextPageToken == "" || (limit > 0 && len(ids) >= limit) {
			break
		}
		params.Set("pageToken", page.NextPageToken)
	}

	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

// VideoStats fetches snippet and statistics for the given video ids, batching
// requests at the API's 50-id cap.
func (c *Client) VideoStats(ctx context.Context, ids []string) ([]*models.VideoItem, error) {
	var videos []*models.VideoItem
	for start := 0; start < len(ids); start += maxPageSize {
		end := start + maxPageSize
		if end > len(ids) {
			end = len(ids)
		}

		params := url.Values{}
		params.Set("part", "snippet,statistics")
		params.Set("id", strings.Join(ids[start:end], ","))
		params.Set("maxResults", strconv.Itoa(maxPageSize))

		page, err := c.list(ctx, "videos", params)
		if err != nil {
			return nil, err
		}
		for _, raw := range page.Items {
			var item videoItem
			if err := json.Unmarshal(raw, &item); err != nil {
				return nil, fmt.Errorf("youtube videos: parse item: %w", err)
			}
			videos = append(videos, &models.VideoItem{
				VideoID:    item.ID,
				Snippet:    item.Snippet,
				Statistics: item.Statistics,
			})
		}
	}
	return videos, nil
}

// channelUploads lists a channel's uploads playlist without an API key. The
// uploads playlist id is the channel id with its "UC" prefix swapped for "UU".
func (c *Client) channelUploads(ctx context.Context, channelID string, limit int) ([]*models.VideoItem, error) {
	if !strings.HasPrefix(channelID, "UC") {
		return nil, fmt.Errorf("youtube uploads: unexpected channel id %q", channelID)
	}
	playlistID := "UU" + channelID[2:]

	client := kkdai.Client{}
	playlist, err := client.GetPlaylistContext(ctx, playlistID)
	if err != nil {
		return nil, fmt.Errorf("youtube uploads %s: %w", channelID, err)
	}

	var videos []*models.VideoItem
	for _, entry := range playlist.Videos {
		if limit > 0 && len(videos) >= limit {
			break
		}
		item := &models.VideoItem{
			VideoID: entry.ID,
			Snippet: models.VideoSnippet{
				Title:        entry.Title,
				ChannelTitle: entry.Author,
				Thumbnails:   map[string]models.Thumbnail{},
			},
		}
		if len(entry.Thumbnails) > 0 {
			item.Snippet.Thumbnails["default"] = models.Thumbnail{URL: entry.Thumbnails[0].URL}
		}
		videos = append(videos, item)
	}
	return videos, nil
}

func (c *Client) list(ctx context.Context, path string, params url.Values) (*listResponse, error) {
	if err := c.Limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params.Set("key", c.APIKey)
	rawURL := c.BaseURL + "/" + path + "?" + params.Encode()

	body, err := retry.DoWithData(
		func() ([]byte, error) { return c.fetch(ctx, rawURL) },
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(500*time.Millisecond),
		retry.MaxJitter(250*time.Millisecond),
		retry.RetryIf(isRetryable),
	)
	if err != nil {
		return nil, fmt.Errorf("youtube %s: %w", path, err)
	}

	var parsed listResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("youtube %s: parse response: %w", path, err)
	}
	return &parsed, nil
}

func (c *Client) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	// The Data API reports quota exhaustion as 403.
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests:
		return nil, models.ErrQuotaExceeded
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func isRetryable(err error) bool {
	return !errors.Is(err, models.ErrQuotaExceeded) && !errors.Is(err, context.Canceled)
}
