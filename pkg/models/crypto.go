// Package models holds the shapes shared between the gateway, the converter
// and the HTTP layer.
package models

import "strings"

// Prices maps lower-cased fiat codes to a price. A nil value means the
// upstream record carried no quote for that currency.
type Prices map[string]*float64

// Get returns the price for code and whether it is present.
func (p Prices) Get(code string) (float64, bool) {
	v, ok := p[strings.ToLower(code)]
	if !ok || v == nil {
		return 0, false
	}
	return *v, true
}

// CoinSummary is one entry of the coin listing.
type CoinSummary struct {
	ID           string   `json:"id"` // upstream slug
	Symbol       string   `json:"symbol"`
	Name         string   `json:"name"`
	Image        string   `json:"image"`
	CMCID        int64    `json:"cmc_id"`
	MarketCap    *float64 `json:"market_cap"`
	CurrentPrice Prices   `json:"current_price"`
	Change24h    *float64 `json:"change24h"`
}

// PriceQuote is the latest quote for one coin.
type PriceQuote struct {
	ID        string   `json:"id"`
	Symbol    string   `json:"symbol"`
	Name      string   `json:"name"`
	Prices    Prices   `json:"prices"`
	Change24h *float64 `json:"change24h"`
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }
