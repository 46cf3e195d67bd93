package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/seenimoa/coinconvert/internal/config"
)

// ════════════════════════════════════════════════════════════════════
// Test Helpers
// ════════════════════════════════════════════════════════════════════

const upstreamListing = `{"data": [
  {"id": 1, "name": "Bitcoin", "symbol": "BTC", "slug": "bitcoin",
   "quote": {"INR": {"price": 8300000, "market_cap": 160000000000000, "percent_change_24h": 2.5}}},
  {"id": 1027, "name": "Ethereum", "symbol": "ETH", "slug": "ethereum",
   "quote": {"INR": {"price": 250000, "market_cap": null, "percent_change_24h": -1.25}}}
]}`

const upstreamQuotes = `{"data": {
  "1": {"id": 1, "name": "Bitcoin", "symbol": "BTC", "slug": "bitcoin",
        "quote": {"INR": {"price": 8300000, "percent_change_24h": 2.5}}},
  "1027": {"id": 1027, "name": "Ethereum", "symbol": "ETH", "slug": "ethereum",
        "quote": {"INR": {"price": 250000, "percent_change_24h": -1.25}}}
}}`

// fakeUpstream answers like the provider. fail switches it to 500s.
type fakeUpstream struct {
	hits atomic.Int32
	fail atomic.Bool
	// listings and quotes override the response bodies when non-empty.
	listings string
	quotes   string
	// block makes every call wait for the client to give up.
	block bool
}

func (f *fakeUpstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.hits.Add(1)
	if f.block {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if f.fail.Load() {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"status": {"error_code": 500, "error_message": "upstream broke"}}`))
		return
	}
	switch r.URL.Path {
	case "/v1/cryptocurrency/listings/latest":
		body := upstreamListing
		if f.listings != "" {
			body = f.listings
		}
		_, _ = w.Write([]byte(body))
	case "/v1/cryptocurrency/quotes/latest":
		body := upstreamQuotes
		if f.quotes != "" {
			body = f.quotes
		}
		_, _ = w.Write([]byte(body))
	default:
		http.NotFound(w, r)
	}
}

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		API: config.APIConfig{Host: "127.0.0.1", Port: 0, CORSOrigins: []string{"*"}},
		Upstream: config.UpstreamConfig{
			BaseURL:    baseURL,
			APIKey:     "secret-key-123456",
			TimeoutSec: 15,
		},
		Gateway: config.GatewayConfig{
			ReferenceCurrency: "INR",
			DefaultLimit:      "5000",
		},
		Converter: config.ConverterConfig{DefaultFiat: "inr", DisplayCap: 200},
		Logging:   config.LoggingConfig{Level: "info", Format: "json"},
	}
}

func testServer(t *testing.T, up *fakeUpstream) *Server {
	t.Helper()
	upstream := httptest.NewServer(up)
	t.Cleanup(upstream.Close)

	srv, err := NewServer(testConfig(upstream.URL), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return srv
}

func testServerWithConfig(t *testing.T, up *fakeUpstream, mutate func(*config.Config)) *Server {
	t.Helper()
	upstream := httptest.NewServer(up)
	t.Cleanup(upstream.Close)

	cfg := testConfig(upstream.URL)
	mutate(cfg)
	srv, err := NewServer(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return srv
}

func get(t *testing.T, srv *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return body
}

// ════════════════════════════════════════════════════════════════════
// Health
// ════════════════════════════════════════════════════════════════════

func TestHealthEndpoint(t *testing.T) {
	srv := testServer(t, &fakeUpstream{})

	rec := get(t, srv, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}

	var resp HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" || resp.Version != Version {
		t.Errorf("unexpected health response: %+v", resp)
	}
}

// ════════════════════════════════════════════════════════════════════
// /api/coins
// ════════════════════════════════════════════════════════════════════

func TestCoinsEndpoint(t *testing.T) {
	up := &fakeUpstream{}
	srv := testServer(t, up)

	req := httptest.NewRequest(http.MethodGet, "/api/coins", nil)
	req.Header.Set("Origin", "http://elsewhere.example")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q", ct)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("CORS origin: got %q, want *", got)
	}

	var coins []map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&coins); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(coins) != 2 {
		t.Fatalf("expected 2 coins, got %d", len(coins))
	}
	btc := coins[0]
	if btc["id"] != "bitcoin" || btc["symbol"] != "BTC" || btc["cmc_id"] != float64(1) {
		t.Errorf("unexpected coin: %v", btc)
	}
	if btc["image"] != "https://s2.coinmarketcap.com/static/img/coins/64x64/1.png" {
		t.Errorf("image: got %v", btc["image"])
	}
	prices, _ := btc["current_price"].(map[string]any)
	if prices["inr"] != float64(8300000) {
		t.Errorf("current_price: got %v", btc["current_price"])
	}
	if v, ok := coins[1]["market_cap"]; !ok || v != nil {
		t.Errorf("market_cap: want explicit null, got %v (present=%v)", v, ok)
	}
}

func TestCoinsEndpointLimit(t *testing.T) {
	srv := testServer(t, &fakeUpstream{})

	rec := get(t, srv, "/api/coins?limit=1&convert=INR")
	var coins []map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&coins); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(coins) != 1 {
		t.Errorf("expected 1 coin, got %d", len(coins))
	}
}

func TestCoinsUpstreamFailureKeepsServing(t *testing.T) {
	up := &fakeUpstream{}
	up.fail.Store(true)
	srv := testServer(t, up)

	rec := get(t, srv, "/api/coins")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status: got %d, want 500", rec.Code)
	}
	body := decodeError(t, rec)
	if body["error"] != "Failed to fetch coins" {
		t.Errorf("error: got %v", body["error"])
	}
	details, _ := body["details"].(map[string]any)
	status, _ := details["status"].(map[string]any)
	if status["error_message"] != "upstream broke" {
		t.Errorf("details: got %v", body["details"])
	}

	up.fail.Store(false)
	if rec := get(t, srv, "/api/coins"); rec.Code != http.StatusOK {
		t.Errorf("follow-up status: got %d, want 200", rec.Code)
	}
}

func TestCoinsUpstreamTimeout(t *testing.T) {
	up := &fakeUpstream{block: true}
	srv := testServerWithConfig(t, up, func(c *config.Config) { c.Upstream.TimeoutSec = 1 })

	start := time.Now()
	rec := get(t, srv, "/api/coins")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status: got %d, want 500", rec.Code)
	}
	if elapsed := time.Since(start); elapsed > 4*time.Second {
		t.Errorf("timeout not enforced: %v", elapsed)
	}
	body := decodeError(t, rec)
	if body["error"] != "Failed to fetch coins" {
		t.Errorf("error: got %v", body["error"])
	}

	if rec := get(t, srv, "/health"); rec.Code != http.StatusOK {
		t.Errorf("health after timeout: got %d", rec.Code)
	}
}

// ════════════════════════════════════════════════════════════════════
// /api/price
// ════════════════════════════════════════════════════════════════════

func TestPriceMissingIdentifier(t *testing.T) {
	up := &fakeUpstream{}
	srv := testServer(t, up)

	for _, target := range []string{"/api/price", "/api/price?convert=USD", "/api/price?ids=&symbol="} {
		rec := get(t, srv, target)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: status %d, want 400", target, rec.Code)
		}
		body := decodeError(t, rec)
		if body["error"] != `Query parameter "ids" or "symbol" is required` {
			t.Errorf("%s: error %v", target, body["error"])
		}
		if _, ok := body["details"]; ok {
			t.Errorf("%s: unexpected details", target)
		}
	}
	if n := up.hits.Load(); n != 0 {
		t.Errorf("upstream called %d times", n)
	}
}

func TestPriceEndpoint(t *testing.T) {
	srv := testServer(t, &fakeUpstream{})

	rec := get(t, srv, "/api/price?ids=bitcoin,ethereum&convert=INR")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rec.Code, rec.Body.String())
	}

	var quotes map[string]map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&quotes); err != nil {
		t.Fatalf("decode: %v", err)
	}
	btc, ok := quotes["bitcoin"]
	if !ok {
		t.Fatalf("missing bitcoin key: %v", quotes)
	}
	if btc["change24h"] != 2.5 {
		t.Errorf("change24h: got %v", btc["change24h"])
	}
	if _, ok := quotes["ethereum"]; !ok {
		t.Errorf("missing ethereum key")
	}
}

func TestPriceKeyingFallsBackToSymbol(t *testing.T) {
	up := &fakeUpstream{quotes: `{"data": {
		"bitcoin": {"id": 1, "name": "Bitcoin", "symbol": "BTC", "slug": "bitcoin", "quote": {"INR": {"price": 1}}},
		"ETH": {"id": 1027, "name": "Ether", "symbol": "eth", "quote": {"INR": {"price": 2}}}
	}}`}
	srv := testServer(t, up)

	rec := get(t, srv, "/api/price?ids=bitcoin&symbol=eth")
	var quotes map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&quotes); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(quotes) != 2 {
		t.Fatalf("expected 2 keys, got %v", quotes)
	}
	for _, k := range []string{"bitcoin", "eth"} {
		if _, ok := quotes[k]; !ok {
			t.Errorf("missing key %q in %v", k, quotes)
		}
	}
}

func TestPriceUpstreamFailure(t *testing.T) {
	up := &fakeUpstream{}
	up.fail.Store(true)
	srv := testServer(t, up)

	rec := get(t, srv, "/api/price?ids=bitcoin")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status: got %d, want 500", rec.Code)
	}
	body := decodeError(t, rec)
	if body["error"] != "Failed to fetch price" {
		t.Errorf("error: got %v", body["error"])
	}
	if body["details"] == nil {
		t.Error("expected details")
	}
}

// ════════════════════════════════════════════════════════════════════
// /api/config
// ════════════════════════════════════════════════════════════════════

func TestGetConfigMasksKey(t *testing.T) {
	srv := testServer(t, &fakeUpstream{})

	rec := get(t, srv, "/api/config")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	var resp ConfigResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Config.Upstream.APIKey != "sec...456" {
		t.Errorf("api key not masked: %q", resp.Config.Upstream.APIKey)
	}
	if len(resp.Keys) != 1 || !resp.Keys[0].IsSet {
		t.Errorf("keys: %+v", resp.Keys)
	}
	if srv.cfg.Upstream.APIKey != "secret-key-123456" {
		t.Error("running config was modified")
	}
}

// ════════════════════════════════════════════════════════════════════
// Router options
// ════════════════════════════════════════════════════════════════════

func TestSetServeUIDisablesPage(t *testing.T) {
	srv := testServer(t, &fakeUpstream{})
	srv.SetServeUI(false)

	if rec := get(t, srv, "/"); rec.Code != http.StatusNotFound {
		t.Errorf("GET / with UI disabled: got %d, want 404", rec.Code)
	}
	if rec := get(t, srv, "/health"); rec.Code != http.StatusOK {
		t.Errorf("health: got %d", rec.Code)
	}
}

func TestRunShutsDownOnCancel(t *testing.T) {
	srv := testServer(t, &fakeUpstream{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx, "127.0.0.1:0") }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestWrongShapeBodyIsEmptyResult(t *testing.T) {
	for _, body := range []string{`[1,2,3]`, `"text"`, `<html>maintenance</html>`} {
		t.Run(body, func(t *testing.T) {
			srv := testServer(t, &fakeUpstream{listings: body, quotes: body})

			rec := get(t, srv, "/api/coins")
			if rec.Code != http.StatusOK {
				t.Fatalf("coins status: got %d, body %s", rec.Code, rec.Body.String())
			}
			if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
				t.Errorf("coins body: got %s, want []", got)
			}

			rec = get(t, srv, "/api/price?ids=bitcoin")
			if rec.Code != http.StatusOK {
				t.Fatalf("price status: got %d, body %s", rec.Code, rec.Body.String())
			}
			if got := strings.TrimSpace(rec.Body.String()); got != "{}" {
				t.Errorf("price body: got %s, want {}", got)
			}
		})
	}
}
