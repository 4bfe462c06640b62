package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ecaytracker/models"
)

// Client reads the dashboard API. It never retries; callers decide what
// a failure means.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a Client for baseURL with a per-request timeout.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

type envelope[T any] struct {
	Data  T       `json:"data"`
	Error *string `json:"error"`
}

// FetchStats retrieves GET /api/stats.
func (c *Client) FetchStats(ctx context.Context) (*models.Stats, error) {
	var env envelope[*models.Stats]
	if err := c.get(ctx, "/api/stats", &env); err != nil {
		return nil, err
	}
	if env.Error != nil {
		return nil, fmt.Errorf("client: stats: %s", *env.Error)
	}
	if env.Data == nil {
		return nil, fmt.Errorf("client: stats: empty data")
	}
	return env.Data, nil
}

// FetchListings retrieves GET /api/listings.
func (c *Client) FetchListings(ctx context.Context) ([]models.Listing, error) {
	var env envelope[[]models.Listing]
	if err := c.get(ctx, "/api/listings", &env); err != nil {
		return nil, err
	}
	if env.Error != nil {
		return nil, fmt.Errorf("client: listings: %s", *env.Error)
	}
	return env.Data, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("client: build request %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("client: GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("client: GET %s: status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("client: decode %s: %w", path, err)
	}
	return nil
}
