package converter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/seenimoa/coinconvert/internal/gateway"
	"github.com/seenimoa/coinconvert/pkg/models"
)

// ErrUnexpectedShape is returned when a gateway answers 2xx with a body that
// is not the documented shape.
var ErrUnexpectedShape = errors.New("unexpected response shape")

// QuoteSource supplies coins and prices to sessions.
type QuoteSource interface {
	ListCoins(ctx context.Context, convert, limit string) ([]models.CoinSummary, error)
	GetPrice(ctx context.Context, ids, convert string) (map[string]models.PriceQuote, error)
}

// GatewaySource adapts an in-process gateway.Service.
type GatewaySource struct {
	Service *gateway.Service
}

func (g GatewaySource) ListCoins(ctx context.Context, convert, limit string) ([]models.CoinSummary, error) {
	return g.Service.ListCoins(ctx, gateway.ListParams{Convert: convert, Limit: limit})
}

func (g GatewaySource) GetPrice(ctx context.Context, ids, convert string) (map[string]models.PriceQuote, error) {
	return g.Service.GetPrice(ctx, gateway.PriceParams{IDs: ids, Convert: convert})
}

// HTTPSource talks to a remote gateway's /api endpoints.
type HTTPSource struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPSource returns a source for the gateway at baseURL.
func NewHTTPSource(baseURL string, client *http.Client) *HTTPSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSource{BaseURL: strings.TrimRight(baseURL, "/"), Client: client}
}

// GatewayError is a non-2xx answer from a remote gateway.
type GatewayError struct {
	StatusCode int
	Message    string
	Details    json.RawMessage
}

func (e *GatewayError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("gateway: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("gateway: HTTP %d: %s", e.StatusCode, e.Message)
}

func (h *HTTPSource) ListCoins(ctx context.Context, convert, limit string) ([]models.CoinSummary, error) {
	q := url.Values{}
	q.Set("convert", convert)
	q.Set("limit", limit)

	body, err := h.get(ctx, "/api/coins", q)
	if err != nil {
		return nil, err
	}
	var coins []models.CoinSummary
	if err := json.Unmarshal(body, &coins); err != nil || coins == nil {
		return nil, fmt.Errorf("list coins: %w", ErrUnexpectedShape)
	}
	return coins, nil
}

func (h *HTTPSource) GetPrice(ctx context.Context, ids, convert string) (map[string]models.PriceQuote, error) {
	q := url.Values{}
	q.Set("ids", ids)
	q.Set("convert", convert)

	body, err := h.get(ctx, "/api/price", q)
	if err != nil {
		return nil, err
	}
	var quotes map[string]models.PriceQuote
	if err := json.Unmarshal(body, &quotes); err != nil || quotes == nil {
		return nil, fmt.Errorf("get price: %w", ErrUnexpectedShape)
	}
	return quotes, nil
}

func (h *HTTPSource) get(ctx context.Context, path string, q url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.BaseURL+path+"?"+q.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := h.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("performing request: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		gerr := &GatewayError{StatusCode: res.StatusCode}
		var payload struct {
			Error   string          `json:"error"`
			Details json.RawMessage `json:"details"`
		}
		if json.Unmarshal(body, &payload) == nil {
			gerr.Message = payload.Error
			gerr.Details = payload.Details
		}
		return nil, gerr
	}
	return body, nil
}
