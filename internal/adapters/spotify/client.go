package spotify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ewilliams-labs/spotilyze/internal/core/ports"
)

// DefaultBaseURL is the Web API root.
const DefaultBaseURL = "https://api.spotify.com/v1"

// Client reads playlists and audio features from the Web API. The supplied
// http.Client is expected to authenticate and retry, see NewHTTPClient.
type Client struct {
	httpClient *http.Client
	baseURL    string
	market     string
}

// compile-time interface assertion
var _ ports.CatalogClient = (*Client)(nil)

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithMarket restricts playlist items to a market (ISO 3166-1 alpha-2).
func WithMarket(market string) ClientOption {
	return func(c *Client) { c.market = strings.TrimSpace(market) }
}

// NewClient constructs a new Spotify client.
func NewClient(httpClient *http.Client, baseURL string, opts ...ClientOption) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) get(ctx context.Context, endpoint string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	// #nosec G107 -- URL built from the configured API base or a next link it returned
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// statusError captures a short excerpt of the body for diagnostics.
func statusError(op string, resp *http.Response) *ports.StatusError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &ports.StatusError{
		Op:         op,
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(body)),
	}
}
