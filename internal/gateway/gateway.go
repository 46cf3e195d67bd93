// Package gateway implements the quote gateway: it forwards listing and price
// requests to the upstream provider and reshapes the answers into the
// client-facing models.
package gateway

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/seenimoa/coinconvert/internal/cmc"
	"github.com/seenimoa/coinconvert/internal/config"
	"github.com/seenimoa/coinconvert/pkg/models"
)

// DefaultImageURLTemplate renders a coin logo URL from the upstream numeric id.
const DefaultImageURLTemplate = "https://s2.coinmarketcap.com/static/img/coins/64x64/%d.png"

// Upstream is the subset of the CoinMarketCap client used by the gateway.
type Upstream interface {
	ListingsLatest(ctx context.Context, p cmc.ListingsParams) ([]cmc.Coin, error)
	QuotesLatest(ctx context.Context, p cmc.QuotesParams) ([]cmc.Coin, error)
}

// Config holds gateway settings.
type Config struct {
	// ReferenceCurrency is the fiat every summary is priced in; default "INR".
	ReferenceCurrency string
	// DefaultLimit is sent when the caller gives no limit; default "5000".
	DefaultLimit string
	// Timeout bounds each upstream call; default 15s.
	Timeout time.Duration
	// ImageURLTemplate has one %d verb for the upstream id.
	ImageURLTemplate string
}

// ConfigFrom builds a gateway Config from the application configuration.
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		ReferenceCurrency: cfg.Gateway.ReferenceCurrency,
		DefaultLimit:      cfg.Gateway.DefaultLimit,
		Timeout:           cfg.Upstream.Timeout(),
		ImageURLTemplate:  cfg.Gateway.ImageURLTemplate,
	}
}

func (c Config) withDefaults() Config {
	if c.ReferenceCurrency == "" {
		c.ReferenceCurrency = "INR"
	}
	if c.DefaultLimit == "" {
		c.DefaultLimit = "5000"
	}
	if c.Timeout <= 0 {
		c.Timeout = 15 * time.Second
	}
	if c.ImageURLTemplate == "" {
		c.ImageURLTemplate = DefaultImageURLTemplate
	}
	return c
}

// Service is the quote gateway. It holds no mutable state and is safe for
// concurrent use.
type Service struct {
	cfg      Config
	upstream Upstream
	log      zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Service) {
		s.log = log.With().Str("component", "gateway").Logger()
	}
}

// New creates a gateway over upstream.
func New(cfg Config, upstream Upstream, opts ...Option) *Service {
	s := &Service{
		cfg:      cfg.withDefaults(),
		upstream: upstream,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ReferenceCurrency returns the upper-cased reference fiat code.
func (s *Service) ReferenceCurrency() string {
	return strings.ToUpper(s.cfg.ReferenceCurrency)
}

// prices builds the price map for a record: the reference currency is always
// present, plus the requested convert currency when it differs.
func (s *Service) prices(c cmc.Coin, convert string) models.Prices {
	ref := strings.ToLower(s.cfg.ReferenceCurrency)
	out := models.Prices{ref: price(c.QuoteFor(ref))}
	if conv := strings.ToLower(convert); conv != "" && conv != ref {
		out[conv] = price(c.QuoteFor(conv))
	}
	return out
}

// primaryQuote is the quote market cap and 24h change are read from: the
// reference currency, else the requested one.
func (s *Service) primaryQuote(c cmc.Coin, convert string) *cmc.Quote {
	if q := c.QuoteFor(s.cfg.ReferenceCurrency); q != nil {
		return q
	}
	return c.QuoteFor(convert)
}

func (s *Service) imageURL(id int64) string {
	return fmt.Sprintf(s.cfg.ImageURLTemplate, id)
}

// price returns the quote price or nil when absent.
func price(q *cmc.Quote) *float64 {
	if q == nil {
		return nil
	}
	return q.Price
}

// quoteKey implements the response keying precedence: slug, then symbol,
// then the upstream numeric id.
func quoteKey(c cmc.Coin) string {
	switch {
	case c.Slug != "":
		return c.Slug
	case c.Symbol != "":
		return c.Symbol
	default:
		return strconv.FormatInt(c.ID, 10)
	}
}
