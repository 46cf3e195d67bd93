package converter

import (
	"github.com/seenimoa/coinconvert/pkg/models"
	"github.com/seenimoa/coinconvert/pkg/utils"
)

// Fiat is one entry of the target selector.
type Fiat struct {
	Code     string
	Label    string
	Flag     string
	Selected bool
}

// View is a snapshot of a session for rendering. Slices are shared with the
// session and must not be modified.
type View struct {
	Coins    []models.CoinSummary
	Filtered []models.CoinSummary
	CoinsErr string

	Selected string
	Search   string
	Amount   string
	Target   string
	Fiats    []Fiat

	Quote    *models.PriceQuote
	QuoteErr string
	Loading  bool

	// Result is the text under "Result": "Loading...", "—", a message or
	// "<LABEL> <value>".
	Result      string
	HasResult   bool
	TargetLabel string
	LivePrice   string
	Change      string
	Dark        bool
}

// View returns a snapshot of the session.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		Coins:       s.coins,
		Filtered:    s.filtered(),
		Selected:    s.selected,
		Search:      s.search,
		Amount:      s.amount,
		Target:      s.target,
		Loading:     s.loading,
		HasResult:   s.result != "",
		TargetLabel: models.FiatLabel(s.target),
		Dark:        s.dark,
		LivePrice:   "—",
	}
	if s.coinsErr != nil {
		v.CoinsErr = s.coinsErr.Error()
	}
	if s.quoteErr != nil {
		v.QuoteErr = s.quoteErr.Error()
	}

	switch {
	case s.loading:
		v.Result = "Loading..."
	case s.result == "":
		v.Result = "—"
	default:
		v.Result = s.resultText()
	}

	if s.quote != nil {
		q := *s.quote
		v.Quote = &q
		if lp, ok := s.livePrice(); ok {
			v.LivePrice = lp
		}
		if q.Change24h != nil {
			v.Change = utils.FormatChange(*q.Change24h)
		}
	}

	for _, code := range models.FiatCodes {
		if _, ok := s.opts.Rates.Rate(code); !ok {
			continue
		}
		v.Fiats = append(v.Fiats, Fiat{
			Code:     code,
			Label:    models.FiatLabel(code),
			Flag:     models.FiatFlag(code),
			Selected: code == s.target,
		})
	}
	for _, code := range s.opts.Rates.Codes() {
		if models.IsFiat(code) {
			continue
		}
		v.Fiats = append(v.Fiats, Fiat{Code: code, Label: models.FiatLabel(code), Selected: code == s.target})
	}
	return v
}
