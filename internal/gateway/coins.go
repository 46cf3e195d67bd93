package gateway

import (
	"context"
	"strconv"
	"strings"

	"github.com/seenimoa/coinconvert/internal/cmc"
	"github.com/seenimoa/coinconvert/pkg/models"
)

// ListParams are the inputs of ListCoins. Empty fields take the defaults.
type ListParams struct {
	Convert string
	Limit   string
}

// ListCoins returns the latest listing as coin summaries in upstream order.
// Convert and Limit are forwarded verbatim. When Limit is a positive integer
// the result never exceeds it, and non-empty ids are unique (first occurrence wins).
func (s *Service) ListCoins(ctx context.Context, p ListParams) ([]models.CoinSummary, error) {
	if p.Convert == "" {
		p.Convert = s.ReferenceCurrency()
	}
	if p.Limit == "" {
		p.Limit = s.cfg.DefaultLimit
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	records, err := s.upstream.ListingsLatest(ctx, cmc.ListingsParams{Convert: p.Convert, Limit: p.Limit})
	if err != nil {
		s.log.Error().Err(err).Str("convert", p.Convert).Str("limit", p.Limit).Msg("list coins failed")
		return nil, &UpstreamError{Op: "list coins", Err: err}
	}

	limit := -1
	if n, err := strconv.Atoi(strings.TrimSpace(p.Limit)); err == nil && n > 0 {
		limit = n
	}

	out := make([]models.CoinSummary, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for _, c := range records {
		if limit >= 0 && len(out) >= limit {
			break
		}
		if c.Slug != "" {
			if _, dup := seen[c.Slug]; dup {
				continue
			}
			seen[c.Slug] = struct{}{}
		}
		out = append(out, s.summary(c, p.Convert))
	}

	s.log.Debug().Int("count", len(out)).Str("convert", p.Convert).Msg("listed coins")
	return out, nil
}

func (s *Service) summary(c cmc.Coin, convert string) models.CoinSummary {
	cs := models.CoinSummary{
		ID:           c.Slug,
		Symbol:       c.Symbol,
		Name:         c.Name,
		Image:        s.imageURL(c.ID),
		CMCID:        c.ID,
		CurrentPrice: s.prices(c, convert),
	}
	if q := s.primaryQuote(c, convert); q != nil {
		cs.MarketCap = q.MarketCap
		cs.Change24h = q.PercentChange24h
	}
	return cs
}
