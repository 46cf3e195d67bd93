// Package cmc is a small client for the CoinMarketCap Pro API.
// Only the two endpoints the gateway proxies are implemented:
// listings/latest and quotes/latest.
package cmc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"
)

// DefaultBaseURL is the production API root.
const DefaultBaseURL = "https://pro-api.coinmarketcap.com"

// APIKeyHeader carries the API key.
const APIKeyHeader = "X-CMC_PRO_API_KEY"

// maxErrorBody bounds how much of a failed response is kept for details.
const maxErrorBody = 64 << 10

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=cmc_test -destination=mock_http_client_test.go -source=client.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is a client for the CoinMarketCap API.
type Client struct {
	// baseURL is the API root, without a trailing slash.
	baseURL string
	// apiKey is sent in APIKeyHeader when non-empty.
	apiKey string
	// httpClient performs the requests.
	httpClient HTTPClient
	// header contains additional headers sent with each request.
	header http.Header
	log    zerolog.Logger
}

// Option is a configuration option for the client.
type Option func(*Client)

// WithBaseURL sets the base URL for the API.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets the HTTP client for the API.
func WithHTTPClient(httpClient HTTPClient) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithHeader sets additional headers to be sent with each request.
func WithHeader(header http.Header) Option {
	return func(c *Client) {
		for key, values := range header {
			for _, value := range values {
				c.header.Add(key, value)
			}
		}
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) {
		c.log = log.With().Str("component", "cmc").Logger()
	}
}

// New creates a new CoinMarketCap client. An empty key is allowed; requests
// then go out unauthenticated and the provider decides what to do with them.
func New(apiKey string, options ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		apiKey:     apiKey,
		httpClient: http.DefaultClient,
		header:     http.Header{},
		log:        zerolog.Nop(),
	}
	for _, option := range options {
		option(c)
	}
	return c
}

// envelope is the top-level shape of every API response.
type envelope struct {
	Data   json.RawMessage `json:"data"`
	Status *Status         `json:"status"`
}

// get performs a GET on path and decodes the envelope.
func (c *Client) get(ctx context.Context, path string, query url.Values) (*envelope, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header = c.header.Clone()
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set(APIKeyHeader, c.apiKey)
	}

	c.log.Debug().Str("path", path).Str("query", query.Encode()).Msg("upstream request")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("performing request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		return nil, &APIError{
			StatusCode: res.StatusCode,
			Status:     res.Status,
			Body:       body,
		}
	}

	// A 2xx body that is not an envelope carries no records.
	var env envelope
	if err := json.NewDecoder(res.Body).Decode(&env); err != nil {
		c.log.Warn().Err(err).Str("path", path).Msg("unexpected response shape, treating as empty")
		return &envelope{}, nil
	}
	return &env, nil
}
