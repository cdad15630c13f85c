// Package client is a Go client for the podcast library API. It keeps a local
// mirror of the caller's liked podcasts for optimistic favorite toggling; the
// server's liked list is refetched after every mutation and always wins.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"podlib/internal/models"
)

// APIError is a non-2xx answer from the API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// Client talks to a podcast library server. Safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu        sync.RWMutex
	token     string
	email     string
	name      string
	favorites []models.PodcastRef
}

// New returns a client for the given server base URL.
func New(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Signup registers a new account.
func (c *Client) Signup(ctx context.Context, name, email, password string) error {
	return c.doJSON(ctx, http.MethodPost, "/api/signup", map[string]string{
		"name": name, "email": email, "password": password,
	}, nil)
}

// Login authenticates, stores the session token and primes the favorites
// mirror from the server.
func (c *Client) Login(ctx context.Context, email, password string) error {
	var resp struct {
		Token string `json:"token"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/login", map[string]string{
		"email": email, "password": password,
	}, &resp); err != nil {
		return err
	}

	c.mu.Lock()
	c.token = resp.Token
	c.name = resp.Name
	c.email = resp.Email
	c.favorites = nil
	c.mu.Unlock()

	// Identity changed: refresh the mirror.
	_, err := c.RefreshFavorites(ctx)
	return err
}

// Logout drops the session and empties the favorites mirror.
func (c *Client) Logout() {
	c.mu.Lock()
	c.token = ""
	c.name = ""
	c.email = ""
	c.favorites = nil
	c.mu.Unlock()
}

// Email returns the authenticated identity, or "" when logged out.
func (c *Client) Email() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.email
}

// Search queries the podcast directory through the server.
func (c *Client) Search(ctx context.Context, query string) ([]models.PodcastRef, error) {
	var results []models.PodcastRef
	path := "/api/search?query=" + url.QueryEscape(query)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// Episodes resolves a feed URL into its playable episodes.
func (c *Client) Episodes(ctx context.Context, feedURL string) ([]models.Episode, error) {
	var episodes []models.Episode
	path := "/api/episodes?feedUrl=" + url.QueryEscape(feedURL)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &episodes); err != nil {
		return nil, err
	}
	return episodes, nil
}

// Profile fetches the public profile for an email.
func (c *Client) Profile(ctx context.Context, email string) (*models.ProfileResponse, error) {
	var profile models.ProfileResponse
	path := "/api/profile?email=" + url.QueryEscape(email)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// RefreshFavorites replaces the local mirror with the server's liked list.
func (c *Client) RefreshFavorites(ctx context.Context) ([]models.PodcastRef, error) {
	c.mu.RLock()
	email := c.email
	c.mu.RUnlock()
	if email == "" {
		return nil, &APIError{StatusCode: http.StatusUnauthorized, Code: "UNAUTHORIZED", Message: "not logged in"}
	}

	var liked []models.PodcastRef
	path := "/api/liked?email=" + url.QueryEscape(email)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &liked); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.favorites = liked
	c.mu.Unlock()
	return liked, nil
}

// Favorites returns a snapshot of the mirror, insertion order preserved.
func (c *Client) Favorites() []models.PodcastRef {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.PodcastRef, len(c.favorites))
	copy(out, c.favorites)
	return out
}

// IsFavorited reports whether the mirror currently holds the podcast.
func (c *Client) IsFavorited(podcastID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for i := range c.favorites {
		if c.favorites[i].ID.String() == podcastID {
			return true
		}
	}
	return false
}

// ToggleFavorite flips the favorite state of a podcast. The mirror is updated
// optimistically, the matching mutation is sent, and the mirror is then
// reconciled against a fresh server fetch. The fetched truth wins over the
// optimistic state, so a concurrent mutation from another session is absorbed
// rather than fought. Returns the reconciled favorite state.
func (c *Client) ToggleFavorite(ctx context.Context, podcast models.PodcastRef) (bool, error) {
	id := podcast.ID.String()

	c.mu.Lock()
	wasFavorited := false
	for i := range c.favorites {
		if c.favorites[i].ID.String() == id {
			wasFavorited = true
			c.favorites = append(c.favorites[:i], c.favorites[i+1:]...)
			break
		}
	}
	if !wasFavorited {
		c.favorites = append(c.favorites, podcast)
	}
	c.mu.Unlock()

	var mutErr error
	if wasFavorited {
		mutErr = c.doJSON(ctx, http.MethodPut, "/api/unlike", map[string]string{"podcastId": id}, nil)
	} else {
		mutErr = c.doJSON(ctx, http.MethodPost, "/api/like", map[string]any{"podcast": podcast}, nil)
	}

	// Reconcile even when the mutation failed: the mirror must converge on
	// whatever the server actually holds.
	if _, err := c.RefreshFavorites(ctx); err != nil && mutErr == nil {
		mutErr = err
	}

	return c.IsFavorited(id), mutErr
}

// ClearFavorites empties the liked set on the server and locally.
func (c *Client) ClearFavorites(ctx context.Context) error {
	if err := c.doJSON(ctx, http.MethodPost, "/api/clear-likes", nil, nil); err != nil {
		return err
	}
	c.mu.Lock()
	c.favorites = nil
	c.mu.Unlock()
	return nil
}

// doJSON performs a JSON round trip and decodes the answer into out when the
// caller wants one. Non-2xx answers come back as *APIError.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var payload struct {
			Error string `json:"error"`
			Code  string `json:"code"`
		}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&payload); decodeErr == nil {
			apiErr.Code = payload.Code
			apiErr.Message = payload.Error
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
