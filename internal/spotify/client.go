// Package spotify wraps the Spotify Web API for podcast episode search, show
// resolution and full show listings.
package spotify

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	api "github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"

	"kimeta/internal/matcher"
	"kimeta/internal/models"
)

type Client struct {
	api     *api.Client
	limiter *rate.Limiter
}

// New builds a client-credentials Spotify client. The credentials are
// validated lazily on the first call.
func New(ctx context.Context, clientID, clientSecret string) *Client {
	config := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}
	httpClient := config.Client(ctx)
	httpClient.Timeout = 30 * time.Second

	return &Client{
		api:     api.New(httpClient),
		limiter: rate.NewLimiter(rate.Every(500*time.Millisecond), 1),
	}
}

// NewFromAPI wraps an existing API client; used by tests.
func NewFromAPI(client *api.Client) *Client {
	return &Client{api: client, limiter: rate.NewLimiter(rate.Inf, 1)}
}

// FindEpisode searches the catalog for an episode with the given title on the
// given podcast. Candidates pass the title matcher first; the podcast name is
// then verified against the candidate's show and publisher. Returns nil when
// nothing matches; that is a normal outcome, not an error.
func (c *Client) FindEpisode(ctx context.Context, title, podcast string) (*models.StreamingEpisode, error) {
	// Searching for episode and show name together gives better results.
	ids, err := c.matchingEpisodeIDs(ctx, title, podcast)
	if err != nil {
		return nil, err
	}

	for _, id := range ids {
		ep, err := c.getEpisode(ctx, id)
		if err != nil {
			return nil, err
		}
		if matcher.MatchPodcast(podcast, ep.ShowName, ep.Publisher) {
			return ep, nil
		}
	}
	return nil, nil
}

// matchingEpisodeIDs returns the ids of search hits whose display name passes
// the title matcher.
func (c *Client) matchingEpisodeIDs(ctx context.Context, title, podcast string) ([]string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	query := truncateQuery(title + " " + podcast)
	res, err := c.api.Search(ctx, query, api.SearchTypeEpisode, api.Limit(10), api.Market("US"))
	if err != nil {
		return nil, wrapErr("episode search", err)
	}
	if res.Episodes == nil {
		return nil, nil
	}

	var ids []string
	for _, ep := range res.Episodes.Episodes {
		if matcher.MatchTitle(title, podcast, ep.Name) {
			ids = append(ids, string(ep.ID))
		}
	}
	return ids, nil
}

func (c *Client) getEpisode(ctx context.Context, id string) (*models.StreamingEpisode, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	ep, err := c.api.GetEpisode(ctx, id, api.Market("US"))
	if err != nil {
		return nil, wrapErr("get episode", err)
	}
	out := convertEpisode(*ep)
	out.ShowID = string(ep.Show.ID)
	out.ShowName = ep.Show.Name
	out.Publisher = ep.Show.Publisher
	return out, nil
}

// FindShowID resolves a podcast name to its catalog show id, verifying each
// search hit with the podcast matcher. Empty result means no show matched.
func (c *Client) FindShowID(ctx context.Context, name string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	res, err := c.api.Search(ctx, truncateQuery(name), api.SearchTypeShow, api.Limit(10), api.Market("US"))
	if err != nil {
		return "", wrapErr("show search", err)
	}
	if res.Shows == nil {
		return "", nil
	}

	for _, show := range res.Shows.Shows {
		if matcher.MatchPodcast(name, show.Name, show.Publisher) {
			return string(show.ID), nil
		}
		log.Printf("show search: rejected %q for %q", show.Name, name)
	}
	return "", nil
}

// ShowEpisodes lists every episode of a show, following pagination to the end.
func (c *Client) ShowEpisodes(ctx context.Context, showID string) ([]*models.StreamingEpisode, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	page, err := c.api.GetShowEpisodes(ctx, showID, api.Limit(50), api.Market("US"))
	if err != nil {
		return nil, wrapErr("show episodes", err)
	}

	var episodes []*models.StreamingEpisode
	for {
		for _, ep := range page.Episodes {
			out := convertEpisode(ep)
			out.ShowID = showID
			episodes = append(episodes, out)
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return episodes, err
		}
		err = c.api.NextPage(ctx, page)
		if errors.Is(err, api.ErrNoMorePages) {
			break
		}
		if err != nil {
			return episodes, wrapErr("show episodes pagination", err)
		}
	}
	return episodes, nil
}

func convertEpisode(ep api.EpisodePage) *models.StreamingEpisode {
	out := &models.StreamingEpisode{
		ID:          string(ep.ID),
		Name:        ep.Name,
		Description: ep.Description,
		URL:         ep.ExternalURLs["spotify"],
		ReleaseDate: ep.ReleaseDate,
		DurationMS:  int(ep.Duration_ms),
	}
	if len(ep.Images) > 0 {
		out.ImageURL = ep.Images[0].URL
	}
	return out
}

// wrapErr maps API throttling onto the shared quota sentinel so the
// orchestration layer can abort the run; everything else is wrapped as-is.
func wrapErr(op string, err error) error {
	var apiErr api.Error
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusTooManyRequests {
		return fmt.Errorf("spotify %s: %w", op, models.ErrQuotaExceeded)
	}
	return fmt.Errorf("spotify %s: %w", op, err)
}

func truncateQuery(q string) string {
	for len(q) > 100 {
		idx := lastSpace(q)
		if idx == -1 {
			return q[:100]
		}
		q = q[:idx]
	}
	return q
}

func lastSpace(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == ' ' {
			return i
		}
	}
	return -1
}
