// Package premium asks the payment backend whether premium features are
// unlocked.
package premium

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const userAgent = "confere/1.0"

// Client is an HTTP client for the premium status endpoint.
type Client struct {
	httpClient *http.Client
	statusURL  string
	deviceID   string
}

// NewClient creates a client for statusURL. deviceID is sent as a query
// parameter when set, next to any query statusURL already carries.
func NewClient(statusURL, deviceID string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		statusURL:  statusURL,
		deviceID:   deviceID,
	}
}

func (c *Client) getAndDecode(ctx context.Context, reqURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, reqURL)
	}

	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	if err := dec.Decode(new(struct{})); !errors.Is(err, io.EOF) {
		return fmt.Errorf("decoding response: trailing JSON content")
	}
	return nil
}

// FetchStatus fetches the current premium status.
func (c *Client) FetchStatus(ctx context.Context) (*StatusResponse, error) {
	u, err := url.Parse(c.statusURL)
	if err != nil {
		return nil, fmt.Errorf("parsing premium status url: %w", err)
	}
	if c.deviceID != "" {
		q := u.Query()
		q.Set("deviceId", c.deviceID)
		u.RawQuery = q.Encode()
	}

	var resp StatusResponse
	if err := c.getAndDecode(ctx, u.String(), &resp); err != nil {
		return nil, fmt.Errorf("fetching premium status: %w", err)
	}
	return &resp, nil
}
