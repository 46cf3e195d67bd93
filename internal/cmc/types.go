package cmc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Status is the status block present on every response.
type Status struct {
	Timestamp    string  `json:"timestamp"`
	ErrorCode    int     `json:"error_code"`
	ErrorMessage *string `json:"error_message"`
	CreditCount  int     `json:"credit_count"`
}

// Quote is a market quote in one convert currency. Every numeric field may be
// absent or null upstream.
type Quote struct {
	Price            *float64 `json:"price"`
	MarketCap        *float64 `json:"market_cap"`
	Volume24h        *float64 `json:"volume_24h"`
	PercentChange1h  *float64 `json:"percent_change_1h"`
	PercentChange24h *float64 `json:"percent_change_24h"`
	PercentChange7d  *float64 `json:"percent_change_7d"`
	LastUpdated      string   `json:"last_updated"`
}

// Coin is a cryptocurrency record as returned by both listings and quotes.
type Coin struct {
	ID      int64             `json:"id"`
	Name    string            `json:"name"`
	Symbol  string            `json:"symbol"`
	Slug    string            `json:"slug"`
	CMCRank int               `json:"cmc_rank"`
	Quote   map[string]*Quote `json:"quote"`
}

// QuoteFor returns the quote keyed by convert. The upstream keys quotes by the
// uppercase currency code; a case-insensitive match is tried as a fallback.
func (c Coin) QuoteFor(convert string) *Quote {
	if c.Quote == nil {
		return nil
	}
	if q, ok := c.Quote[strings.ToUpper(convert)]; ok {
		return q
	}
	for k, q := range c.Quote {
		if strings.EqualFold(k, convert) {
			return q
		}
	}
	return nil
}

// APIError is returned when the upstream answers with a non-2xx status.
type APIError struct {
	StatusCode int
	Status     string
	Body       []byte
}

func (e *APIError) Error() string {
	var env struct {
		Status *Status `json:"status"`
	}
	if json.Unmarshal(e.Body, &env) == nil && env.Status != nil && env.Status.ErrorMessage != nil {
		return fmt.Sprintf("cmc: HTTP %d: %s", e.StatusCode, *env.Status.ErrorMessage)
	}
	return fmt.Sprintf("cmc: HTTP %d", e.StatusCode)
}

// Details returns the upstream response body for inclusion in client-facing
// error payloads: decoded JSON when the body is JSON, the raw text otherwise.
func (e *APIError) Details() any {
	body := bytes.TrimSpace(e.Body)
	if len(body) == 0 {
		return e.Status
	}
	if json.Valid(body) {
		return json.RawMessage(body)
	}
	return string(body)
}

// decodeList decodes a data array. Anything that is not an array yields an
// empty list; individual records that fail to decode are skipped.
func decodeList(data json.RawMessage) []Coin {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	coins := make([]Coin, 0, len(raw))
	for _, r := range raw {
		var c Coin
		if err := json.Unmarshal(r, &c); err != nil {
			continue
		}
		coins = append(coins, c)
	}
	return coins
}

// decodeQuoteMap decodes a quotes data map whose values are either a single
// record or an array of records. Results are ordered by map key, then by
// position within each value.
func decodeQuoteMap(data json.RawMessage) []Coin {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var coins []Coin
	for _, k := range keys {
		v := bytes.TrimSpace(m[k])
		if len(v) == 0 {
			continue
		}
		switch v[0] {
		case '[':
			coins = append(coins, decodeList(v)...)
		case '{':
			var c Coin
			if err := json.Unmarshal(v, &c); err == nil {
				coins = append(coins, c)
			}
		}
	}
	return coins
}
