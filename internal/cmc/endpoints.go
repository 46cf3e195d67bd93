package cmc

import (
	"context"
	"net/url"
	"strings"
)

// ListingsParams are the query parameters for ListingsLatest.
type ListingsParams struct {
	Convert string
	// Limit is forwarded verbatim; empty omits it.
	Limit string
}

// ListingsLatest fetches the latest market listings.
func (c *Client) ListingsLatest(ctx context.Context, p ListingsParams) ([]Coin, error) {
	q := url.Values{}
	if p.Convert != "" {
		q.Set("convert", p.Convert)
	}
	if p.Limit != "" {
		q.Set("limit", p.Limit)
	}
	env, err := c.get(ctx, "/v1/cryptocurrency/listings/latest", q)
	if err != nil {
		return nil, err
	}
	return decodeList(env.Data), nil
}

// QuotesParams are the query parameters for QuotesLatest. Slugs and Symbols
// are comma separated lists and are forwarded verbatim.
type QuotesParams struct {
	Slugs   string
	Symbols string
	Convert string
}

// QuotesLatest fetches the latest quotes for the given slugs and/or symbols.
func (c *Client) QuotesLatest(ctx context.Context, p QuotesParams) ([]Coin, error) {
	q := url.Values{}
	if s := strings.TrimSpace(p.Slugs); s != "" {
		q.Set("slug", s)
	}
	if s := strings.TrimSpace(p.Symbols); s != "" {
		q.Set("symbol", s)
	}
	if p.Convert != "" {
		q.Set("convert", p.Convert)
	}
	env, err := c.get(ctx, "/v1/cryptocurrency/quotes/latest", q)
	if err != nil {
		return nil, err
	}
	return decodeQuoteMap(env.Data), nil
}
