package converter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/seenimoa/coinconvert/internal/config"
	"github.com/seenimoa/coinconvert/pkg/models"
	"github.com/seenimoa/coinconvert/pkg/utils"
)

// Result messages shown instead of a converted amount.
const (
	MsgPriceNotAvailable = "Price not available"
	MsgNotAvailable      = "Not available"
	MsgInvalidAmount     = "Invalid amount"
)

var (
	// ErrUnknownFiat is returned by SetTarget for a code missing from the rate table.
	ErrUnknownFiat = errors.New("unknown fiat currency")
	// ErrQuoteNotFound means the price response had no entry for the selected coin.
	ErrQuoteNotFound = errors.New("no quote for selected coin")
)

// Options configures new sessions.
type Options struct {
	// Reference is the upstream convert code, e.g. "INR".
	Reference string
	// Limit is the listing size requested by Init.
	Limit       string
	DefaultFiat string
	DisplayCap  int
	Rates       RateTable
}

// OptionsFrom builds session options from the application configuration.
func OptionsFrom(cfg *config.Config) Options {
	return Options{
		Reference:   cfg.Gateway.ReferenceCurrency,
		Limit:       cfg.Gateway.DefaultLimit,
		DefaultFiat: cfg.Converter.DefaultFiat,
		DisplayCap:  cfg.Converter.DisplayCap,
		Rates:       DefaultRates().WithOverrides(cfg.Converter.Rates),
	}
}

func (o Options) withDefaults() Options {
	if o.Reference == "" {
		o.Reference = "INR"
	}
	if o.Limit == "" {
		o.Limit = "5000"
	}
	if o.DisplayCap <= 0 {
		o.DisplayCap = 200
	}
	if o.Rates == nil {
		o.Rates = DefaultRates()
	}
	if _, ok := o.Rates.Rate(o.DefaultFiat); !ok {
		o.DefaultFiat = ReferenceFiat
	}
	o.DefaultFiat = strings.ToLower(o.DefaultFiat)
	return o
}

// Session is the state of one converter view. All methods are safe for
// concurrent use; price fetches run without holding the lock.
type Session struct {
	src  QuoteSource
	opts Options

	mu       sync.Mutex
	coins    []models.CoinSummary // replaced, never mutated
	coinsErr error
	selected string
	search   string
	amount   string
	target   string
	quote    *models.PriceQuote
	quoteErr error
	loading  bool
	result   string
	label    string // fiat label bound when result was computed; empty for messages
	dark     bool

	gen    uint64
	cancel context.CancelFunc
}

// NewSession returns a session with amount 1 and the default target fiat.
func NewSession(src QuoteSource, opts Options) *Session {
	opts = opts.withDefaults()
	return &Session{
		src:    src,
		opts:   opts,
		amount: "1",
		target: opts.DefaultFiat,
	}
}

// Init loads the coin set and selects the first coin. On failure the coin set
// is empty and the error is kept for the view.
func (s *Session) Init(ctx context.Context) error {
	coins, err := s.src.ListCoins(ctx, s.opts.Reference, s.opts.Limit)

	s.mu.Lock()
	if err != nil {
		s.coins = nil
		s.coinsErr = err
		s.mu.Unlock()
		return fmt.Errorf("loading coins: %w", err)
	}
	s.coins = coins
	s.coinsErr = nil
	s.mu.Unlock()

	if len(coins) == 0 {
		return nil
	}
	return s.Select(ctx, coins[0].ID)
}

// Select makes id the active coin and loads its price. A newer Select
// cancels this one's fetch, and a response that arrives after a newer Select
// is discarded.
func (s *Session) Select(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)

	s.mu.Lock()
	s.gen++
	gen := s.gen
	if s.cancel != nil {
		s.cancel()
	}
	fetchCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.selected = id
	s.loading = true
	s.mu.Unlock()

	defer cancel()
	quotes, err := s.src.GetPrice(fetchCtx, id, s.opts.Reference)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return nil
	}
	s.loading = false
	s.cancel = nil

	if err != nil {
		s.quote = nil
		s.quoteErr = err
		return fmt.Errorf("loading price for %q: %w", id, err)
	}
	q, ok := quotes[id]
	if !ok {
		s.quote = nil
		s.quoteErr = ErrQuoteNotFound
		return nil
	}
	s.quote = &q
	s.quoteErr = nil
	return nil
}

// SetSearch sets the coin list filter.
func (s *Session) SetSearch(q string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.search = q
}

// Filtered returns the coins whose name or symbol contains the search text,
// case-insensitively, capped at the display limit.
func (s *Session) Filtered() []models.CoinSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filtered()
}

func (s *Session) filtered() []models.CoinSummary {
	q := strings.ToLower(s.search)
	out := make([]models.CoinSummary, 0, min(len(s.coins), s.opts.DisplayCap))
	for _, c := range s.coins {
		if len(out) >= s.opts.DisplayCap {
			break
		}
		if strings.Contains(strings.ToLower(c.Name), q) || strings.Contains(strings.ToLower(c.Symbol), q) {
			out = append(out, c)
		}
	}
	return out
}

// SetAmount stores the raw amount input. It is parsed on Convert.
func (s *Session) SetAmount(raw string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.amount = strings.TrimSpace(raw)
}

// SetTarget sets the target fiat.
func (s *Session) SetTarget(code string) error {
	code = strings.ToLower(strings.TrimSpace(code))
	if _, ok := s.opts.Rates.Rate(code); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownFiat, code)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.target = code
	return nil
}

// SetDark sets the dark-mode flag.
func (s *Session) SetDark(dark bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dark = dark
}

// Convert computes amount × reference price × rate[target] for the active
// quote and stores the displayed result, which it also returns.
func (s *Session) Convert() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.label = ""
	if s.quote == nil {
		s.result = MsgPriceNotAvailable
		return s.result
	}
	price, ok := s.quote.Prices.Get(s.opts.Reference)
	if !ok || price == 0 {
		s.result = MsgNotAvailable
		return s.result
	}
	amount, err := parseAmount(s.amount)
	if err != nil {
		s.result = MsgInvalidAmount
		return s.result
	}
	rate, _ := s.opts.Rates.Rate(s.target)

	v := decimal.NewFromFloat(price).Mul(amount).Mul(rate)
	s.result = utils.FormatLocale(v.Round(3).InexactFloat64())
	s.label = models.FiatLabel(s.target)
	return s.resultText()
}

// Reset sets the amount back to 1 and clears the result. The selection and
// the active quote are kept.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.amount = "1"
	s.result = ""
	s.label = ""
}

// LivePrice is the active quote's reference price in the target fiat, or
// false when there is no usable price.
func (s *Session) LivePrice() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.livePrice()
}

func (s *Session) livePrice() (string, bool) {
	if s.quote == nil {
		return "", false
	}
	price, ok := s.quote.Prices.Get(s.opts.Reference)
	if !ok || price == 0 {
		return "", false
	}
	rate, _ := s.opts.Rates.Rate(s.target)
	v := decimal.NewFromFloat(price).Mul(rate)
	return utils.FormatLocale(v.Round(3).InexactFloat64()), true
}

func (s *Session) resultText() string {
	if s.label == "" {
		return s.result
	}
	return s.label + " " + s.result
}

// parseAmount parses the amount input; blank input counts as zero.
func parseAmount(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(raw)
}
