package gateway

import (
	"context"
	"strings"

	"github.com/seenimoa/coinconvert/internal/cmc"
	"github.com/seenimoa/coinconvert/pkg/models"
)

// PriceParams are the inputs of GetPrice. IDs and Symbol are comma separated
// lists of slugs and symbols; at least one is required.
type PriceParams struct {
	IDs     string
	Symbol  string
	Convert string
}

// GetPrice returns the latest quotes keyed by slug, else symbol, else upstream
// id. It returns ErrMissingIdentifier without calling upstream when neither
// IDs nor Symbol is set.
func (s *Service) GetPrice(ctx context.Context, p PriceParams) (map[string]models.PriceQuote, error) {
	if strings.TrimSpace(p.IDs) == "" && strings.TrimSpace(p.Symbol) == "" {
		return nil, ErrMissingIdentifier
	}
	if p.Convert == "" {
		p.Convert = s.ReferenceCurrency()
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	records, err := s.upstream.QuotesLatest(ctx, cmc.QuotesParams{
		Slugs:   p.IDs,
		Symbols: p.Symbol,
		Convert: p.Convert,
	})
	if err != nil {
		s.log.Error().Err(err).Str("ids", p.IDs).Str("symbol", p.Symbol).Msg("get price failed")
		return nil, &UpstreamError{Op: "get price", Err: err}
	}

	out := make(map[string]models.PriceQuote, len(records))
	for _, c := range records {
		q := models.PriceQuote{
			ID:     c.Slug,
			Symbol: c.Symbol,
			Name:   c.Name,
			Prices: s.prices(c, p.Convert),
		}
		if pq := s.primaryQuote(c, p.Convert); pq != nil {
			q.Change24h = pq.PercentChange24h
		}
		out[quoteKey(c)] = q
	}
	return out, nil
}
