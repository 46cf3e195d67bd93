// Package api provides the HTTP server for coinconvert.
//
// It exposes the quote gateway (/api/coins, /api/price), a health probe and
// the server-rendered converter UI.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/coinconvert/internal/cmc"
	"github.com/seenimoa/coinconvert/internal/config"
	"github.com/seenimoa/coinconvert/internal/converter"
	"github.com/seenimoa/coinconvert/internal/gateway"
	"github.com/seenimoa/coinconvert/internal/infra"
	"github.com/seenimoa/coinconvert/web"
)

// Version is reported by /health. Set at build time with -ldflags.
var Version = "dev"

// sessionIdleTTL bounds how long an unused converter session is kept.
const sessionIdleTTL = 30 * time.Minute

// Server is the HTTP server.
type Server struct {
	router   chi.Router
	cfg      *config.Config
	gw       *gateway.Service
	sessions *converter.SessionStore
	tmpl     *template.Template
	log      zerolog.Logger
	serveUI  bool // when true, serve the converter UI at /
}

// NewServer creates a configured server with all routes and middleware.
func NewServer(cfg *config.Config, log zerolog.Logger) (*Server, error) {
	client := cmc.New(cfg.Upstream.APIKey,
		cmc.WithBaseURL(cfg.Upstream.BaseURL),
		cmc.WithHTTPClient(infra.NewHTTPClient(cfg.Upstream.Timeout(), cfg.Upstream.UserAgent)),
		cmc.WithLogger(log),
	)
	gw := gateway.New(gateway.ConfigFrom(cfg), client, gateway.WithLogger(log))

	tmpl, err := web.Templates(templateFuncs)
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}

	opts := converter.OptionsFrom(cfg)
	srv := &Server{
		cfg: cfg,
		gw:  gw,
		sessions: converter.NewSessionStore(func() *converter.Session {
			return converter.NewSession(converter.GatewaySource{Service: gw}, opts)
		}, sessionIdleTTL),
		tmpl:    tmpl,
		log:     log.With().Str("component", "api").Logger(),
		serveUI: true,
	}

	srv.router = srv.buildRouter()
	return srv, nil
}

// SetServeUI controls whether the converter UI is served.
// Must be called before Run.
func (s *Server) SetServeUI(enabled bool) {
	s.serveUI = enabled
	s.router = s.buildRouter()
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.log.Info().Str("addr", addr).Msg("server listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		s.log.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(hlog.NewHandler(s.log))
	r.Use(requestIDLogger)
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	}))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS
	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	// Health check
	r.Get("/health", s.handleHealth)

	// Quote gateway
	r.Route("/api", func(r chi.Router) {
		r.Get("/coins", s.handleCoins)
		r.Get("/price", s.handlePrice)
		r.Get("/config", s.handleGetConfig)
	})

	if s.serveUI {
		s.mountUI(r)
	}

	return r
}

// requestIDLogger tags the request logger with chi's request id.
func requestIDLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := middleware.GetReqID(r.Context()); id != "" {
			hlog.FromRequest(r).UpdateContext(func(c zerolog.Context) zerolog.Context {
				return c.Str("request_id", id)
			})
		}
		next.ServeHTTP(w, r)
	})
}

// ════════════════════════════════════════════════════════════════════
// Response types
// ════════════════════════════════════════════════════════════════════

// ErrorResponse is the JSON body of every failed gateway call.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// Client-facing error messages.
const (
	msgFetchCoins        = "Failed to fetch coins"
	msgFetchPrice        = "Failed to fetch price"
	msgMissingIdentifier = `Query parameter "ids" or "symbol" is required`
)

// ════════════════════════════════════════════════════════════════════
// Handlers
// ════════════════════════════════════════════════════════════════════

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, HealthResponse{Status: "ok", Version: Version})
}

func (s *Server) handleCoins(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	coins, err := s.gw.ListCoins(r.Context(), gateway.ListParams{
		Convert: q.Get("convert"),
		Limit:   q.Get("limit"),
	})
	if err != nil {
		writeUpstreamError(w, r, msgFetchCoins, err)
		return
	}
	writeJSON(w, r, http.StatusOK, coins)
}

func (s *Server) handlePrice(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	quotes, err := s.gw.GetPrice(r.Context(), gateway.PriceParams{
		IDs:     q.Get("ids"),
		Symbol:  q.Get("symbol"),
		Convert: q.Get("convert"),
	})
	switch {
	case errors.Is(err, gateway.ErrMissingIdentifier):
		writeError(w, r, http.StatusBadRequest, msgMissingIdentifier)
		return
	case err != nil:
		writeUpstreamError(w, r, msgFetchPrice, err)
		return
	}
	writeJSON(w, r, http.StatusOK, quotes)
}

// ════════════════════════════════════════════════════════════════════
// Helpers
// ════════════════════════════════════════════════════════════════════

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("failed to write JSON response")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, ErrorResponse{Error: msg})
}

// writeUpstreamError logs err and answers 500 with msg and the best
// available upstream details.
func writeUpstreamError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	hlog.FromRequest(r).Error().Err(err).Msg(msg)

	var details any = err.Error()
	var upErr *gateway.UpstreamError
	if errors.As(err, &upErr) {
		details = upErr.Details()
	}
	writeJSON(w, r, http.StatusInternalServerError, ErrorResponse{Error: msg, Details: details})
}
