package jupiter

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tokenagg/internal/client/rest"
)

const DefaultBaseURL = "https://lite-api.jup.ag"

type Client struct {
	rest *rest.Client
}

func NewClient(httpClient *http.Client, baseURL string, timeout time.Duration) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{rest: rest.NewClient(httpClient, baseURL, timeout)}
}

func (c *Client) Search(ctx context.Context, query string) ([]Token, error) {
	var tokens []Token
	if err := c.rest.GetJSON(ctx, "/tokens/v2/search", url.Values{"query": {query}}, &tokens); err != nil {
		return nil, fmt.Errorf("jupiter search: %w", err)
	}
	return tokens, nil
}
