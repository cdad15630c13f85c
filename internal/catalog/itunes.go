// Package catalog proxies free-text queries to the iTunes Search API and maps
// results into the application's canonical podcast shape.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"podlib/internal/middleware"
	"podlib/internal/models"
)

// DefaultSearchLimit caps how many directory results a single query returns.
const DefaultSearchLimit = 10

// StatusError reports a non-200 answer from the podcast directory. The
// upstream status code is propagated to the caller.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("podcast directory returned status %d", e.StatusCode)
}

// Client queries an iTunes Search API compatible directory. Base URL and
// transport are injected; the client holds no mutable credential state.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limit      int
}

// NewClient returns a directory client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limit:      DefaultSearchLimit,
	}
}

// itunesResult is the upstream record shape for a podcast search hit.
type itunesResult struct {
	CollectionID      json.Number `json:"collectionId"`
	CollectionName    string      `json:"collectionName"`
	ArtistName        string      `json:"artistName"`
	ArtworkURL100     string      `json:"artworkUrl100"`
	ArtworkURL600     string      `json:"artworkUrl600"`
	CollectionViewURL string      `json:"collectionViewUrl"`
	TrackCount        int         `json:"trackCount"`
	FeedURL           string      `json:"feedUrl"`
}

type itunesResponse struct {
	ResultCount int            `json:"resultCount"`
	Results     []itunesResult `json:"results"`
}

// Search issues a podcast search for the free-text term and maps each hit
// into the canonical shape. Non-200 upstream answers surface as *StatusError.
func (c *Client) Search(ctx context.Context, term string) ([]models.PodcastRef, error) {
	searchURL := fmt.Sprintf("%s/search?media=podcast&term=%s&limit=%d",
		c.baseURL, url.QueryEscape(term), c.limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		middleware.UpstreamRequests.WithLabelValues("itunes", "error").Inc()
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		middleware.UpstreamRequests.WithLabelValues("itunes", "error").Inc()
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	var body itunesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		middleware.UpstreamRequests.WithLabelValues("itunes", "error").Inc()
		return nil, fmt.Errorf("decoding directory response: %w", err)
	}

	middleware.UpstreamRequests.WithLabelValues("itunes", "ok").Inc()

	mapped := make([]models.PodcastRef, 0, len(body.Results))
	for _, r := range body.Results {
		mapped = append(mapped, mapResult(r))
	}
	return mapped, nil
}

// mapResult converts an upstream record into the frontend's canonical shape.
// The 600px artwork is preferred with the 100px thumbnail as fallback.
func mapResult(r itunesResult) models.PodcastRef {
	artwork := r.ArtworkURL600
	if artwork == "" {
		artwork = r.ArtworkURL100
	}

	ref := models.PodcastRef{
		ID:            models.PodcastID(r.CollectionID),
		Name:          r.CollectionName,
		Publisher:     r.ArtistName,
		Description:   r.CollectionName + " by " + r.ArtistName,
		TotalEpisodes: r.TrackCount,
		FeedURL:       r.FeedURL,
	}
	if artwork != "" {
		ref.Images = []models.ImageRef{{URL: artwork}}
	}
	if r.CollectionViewURL != "" {
		ref.ExternalURLs = map[string]string{"apple": r.CollectionViewURL}
	}
	return ref
}
