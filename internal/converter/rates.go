// Package converter holds the state and arithmetic behind the converter UI:
// a per-browser Session fed by a QuoteSource, and the fiat RateTable used to
// turn reference-currency prices into other fiats.
package converter

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// ReferenceFiat is the fiat the upstream prices are expressed in.
const ReferenceFiat = "inr"

// RateTable maps lower-cased fiat codes to reference→target multipliers.
// The reference entry is always exactly 1.
type RateTable map[string]decimal.Decimal

func inverse(n float64) decimal.Decimal {
	return decimal.NewFromInt(1).Div(decimal.NewFromFloat(n))
}

// DefaultRates returns the built-in table.
func DefaultRates() RateTable {
	return RateTable{
		"inr": decimal.NewFromInt(1),
		"usd": inverse(83),
		"eur": inverse(90),
		"gbp": inverse(105),
		"aed": inverse(22.6),
		"aud": inverse(56),
	}
}

// WithOverrides returns a copy of t with the given multipliers replaced or
// added. Non-positive values and the reference entry are ignored.
func (t RateTable) WithOverrides(overrides map[string]float64) RateTable {
	out := make(RateTable, len(t)+len(overrides))
	for k, v := range t {
		out[k] = v
	}
	for k, v := range overrides {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" || k == ReferenceFiat || v <= 0 {
			continue
		}
		out[k] = decimal.NewFromFloat(v)
	}
	out[ReferenceFiat] = decimal.NewFromInt(1)
	return out
}

// Rate returns the multiplier for code.
func (t RateTable) Rate(code string) (decimal.Decimal, bool) {
	r, ok := t[strings.ToLower(code)]
	return r, ok
}

// Codes returns the table's codes, sorted.
func (t RateTable) Codes() []string {
	codes := make([]string, 0, len(t))
	for k := range t {
		codes = append(codes, k)
	}
	sort.Strings(codes)
	return codes
}
