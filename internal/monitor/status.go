package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/alexcarney460-hue/skynet/internal/session"
)

// StatusPath is the watch server route polled by StatusClient.
const StatusPath = "/api/v1/status"

// StatusClient polls a running `skynet watch` server.
type StatusClient struct {
	baseURL string
	client  *http.Client
}

// NewStatusClient creates a client for the watch server at baseURL.
func NewStatusClient(baseURL string) *StatusClient {
	return &StatusClient{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 2 * time.Second,
		},
	}
}

// Fetch returns the watch server's current session status.
func (c *StatusClient) Fetch(ctx context.Context) (session.Status, error) {
	u, err := url.Parse(c.baseURL + StatusPath)
	if err != nil {
		return session.Status{}, fmt.Errorf("invalid base URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return session.Status{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return session.Status{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return session.Status{}, fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}

	var st session.Status
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return session.Status{}, fmt.Errorf("failed to decode response: %w", err)
	}
	return st, nil
}
