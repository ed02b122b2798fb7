// Package notify delivers applicant notifications: the HTTP client used to
// reach the notification endpoint, and the email rendering and sending done
// behind it.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"google.golang.org/api/idtoken"
)

// Notifier requests a notification for an applicant's step.
type Notifier interface {
	Notify(ctx context.Context, applicantID, step string) error
}

// Client calls the step-notifier function over HTTP.
type Client struct {
	url  string
	http *http.Client
}

var _ Notifier = (*Client)(nil)

// NewClient returns a client for the notification endpoint at url. HTTPS
// endpoints are called with a Google-signed ID token for that audience;
// plain HTTP endpoints (local runs) are called without one.
func NewClient(ctx context.Context, url string, timeout time.Duration) (*Client, error) {
	if url == "" {
		return nil, fmt.Errorf("notification endpoint URL must be set")
	}
	httpClient := &http.Client{}
	if strings.HasPrefix(url, "https://") {
		c, err := idtoken.NewClient(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("failed to create ID token client: %w", err)
		}
		httpClient = c
	}
	httpClient.Timeout = timeout
	return &Client{url: url, http: httpClient}, nil
}

// NewClientWithHTTP is NewClient with a caller-supplied http.Client.
func NewClientWithHTTP(url string, c *http.Client) *Client {
	return &Client{url: url, http: c}
}

func (c *Client) Notify(ctx context.Context, applicantID, step string) error {
	body, err := json.Marshal(map[string]string{"applicantId": applicantID, "step": step})
	if err != nil {
		return fmt.Errorf("failed to marshal notification request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("notification request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("notification endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}
