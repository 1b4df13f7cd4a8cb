package dexscreener

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tokenagg/internal/client/rest"
)

const DefaultBaseURL = "https://api.dexscreener.com"

type Client struct {
	rest *rest.Client
}

func NewClient(httpClient *http.Client, baseURL string, timeout time.Duration) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{rest: rest.NewClient(httpClient, baseURL, timeout)}
}

// Search returns the pairs matching a free-text query.
func (c *Client) Search(ctx context.Context, query string) ([]Pair, error) {
	var resp SearchResponse
	if err := c.rest.GetJSON(ctx, "/latest/dex/search", url.Values{"q": {query}}, &resp); err != nil {
		return nil, fmt.Errorf("dexscreener search: %w", err)
	}
	return resp.Pairs, nil
}

// TokenPairs returns every pair that trades the given token address.
func (c *Client) TokenPairs(ctx context.Context, address string) ([]Pair, error) {
	path := "/latest/dex/tokens/" + url.PathEscape(strings.TrimSpace(address))
	var resp SearchResponse
	if err := c.rest.GetJSON(ctx, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("dexscreener token pairs: %w", err)
	}
	return resp.Pairs, nil
}
