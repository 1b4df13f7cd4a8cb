package geckoterminal

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tokenagg/internal/client/rest"
)

const DefaultBaseURL = "https://api.geckoterminal.com/api/v2"

type Client struct {
	rest *rest.Client
}

// NewClient sends apiKey as a bearer token when non-empty.
func NewClient(httpClient *http.Client, baseURL, apiKey string, timeout time.Duration) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	c := rest.NewClient(httpClient, baseURL, timeout)
	if key := strings.TrimSpace(apiKey); key != "" {
		c.SetHeader("Authorization", "Bearer "+key)
	}
	return &Client{rest: c}
}

// NetworkTokens searches tokens on one network.
func (c *Client) NetworkTokens(ctx context.Context, network, query string) ([]Token, error) {
	path := "/networks/" + url.PathEscape(network) + "/tokens"
	params := url.Values{"query": {query}, "page": {"1"}}
	var resp TokensResponse
	if err := c.rest.GetJSON(ctx, path, params, &resp); err != nil {
		return nil, fmt.Errorf("geckoterminal %s tokens: %w", network, err)
	}
	return resp.Data, nil
}
