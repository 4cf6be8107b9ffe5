// Package scopus wraps the Elsevier Scopus search API for research articles.
package scopus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"golang.org/x/time/rate"

	"kimeta/internal/models"
)

const defaultBaseURL = "https://api.elsevier.com/content/search/scopus"

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
		Limiter:    rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

type searchResponse struct {
	Results struct {
		Entries []*models.ArticleEntry `json:"entry"`
	} `json:"search-results"`
}

// Search runs an all-fields query for term.
func (c *Client) Search(ctx context.Context, term string, limit int) ([]*models.ArticleEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	params := url.Values{}
	params.Set("query", "all("+term+")")
	params.Set("apiKey", c.APIKey)
	params.Set("httpAccept", "application/json")
	params.Set("count", strconv.Itoa(limit))

	if err := c.Limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, err := retry.DoWithData(
		func() ([]byte, error) { return c.fetch(ctx, c.BaseURL+"?"+params.Encode()) },
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(500*time.Millisecond),
		retry.MaxJitter(250*time.Millisecond),
		retry.RetryIf(isRetryable),
	)
	if err != nil {
		return nil, fmt.Errorf("scopus search %q: %w", term, err)
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("scopus search %q: parse response: %w", term, err)
	}
	return parsed.Results.Entries, nil
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
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, models.ErrQuotaExceeded
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func isRetryable(err error) bool {
	return !errors.Is(err, models.ErrQuotaExceeded) && !errors.Is(err, context.Canceled)
}
