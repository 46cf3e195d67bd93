package api

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/seenimoa/coinconvert/internal/converter"
	"github.com/seenimoa/coinconvert/pkg/models"
	"github.com/seenimoa/coinconvert/pkg/utils"
	"github.com/seenimoa/coinconvert/web"
)

// sessionCookie carries the converter session id.
const sessionCookie = "coinconvert_session"

var templateFuncs = map[string]any{
	"upper": strings.ToUpper,
	"inr": func(p models.Prices) string {
		v, _ := p.Get("inr")
		return utils.FormatINR(v)
	},
}

// pageData is the root object of the index template.
type pageData struct {
	View    converter.View
	Version string
}

// mountUI registers the converter page, its form actions and static assets.
func (s *Server) mountUI(r chi.Router) {
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(web.StaticFS())))

	r.Get("/", s.handleIndex)
	r.Route("/ui", func(r chi.Router) {
		r.Post("/select", s.handleSelect)
		r.Post("/convert", s.handleConvert)
		r.Post("/reset", s.handleReset)
		r.Post("/target", s.handleTarget)
		r.Post("/theme", s.handleTheme)
	})
}

// session returns the caller's session, creating and initialising one when
// the cookie is missing or unknown.
func (s *Server) session(w http.ResponseWriter, r *http.Request) *converter.Session {
	if c, err := r.Cookie(sessionCookie); err == nil {
		if sess, ok := s.sessions.Get(c.Value); ok {
			return sess
		}
	}

	id, sess := s.sessions.Create()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	if err := sess.Init(r.Context()); err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("converter session init failed")
	}
	return sess
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if q, ok := r.URL.Query()["q"]; ok && len(q) > 0 {
		sess.SetSearch(q[0])
	}

	var buf bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&buf, "index.html", pageData{View: sess.View(), Version: Version}); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("render index")
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if id := r.PostFormValue("coin"); id != "" {
		if err := sess.Select(r.Context(), id); err != nil {
			hlog.FromRequest(r).Warn().Err(err).Str("coin", id).Msg("price fetch failed")
		}
	}
	backToIndex(w, r)
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if !s.applyTarget(w, r, sess) {
		return
	}
	sess.SetAmount(r.PostFormValue("amount"))
	sess.Convert()
	backToIndex(w, r)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.session(w, r).Reset()
	backToIndex(w, r)
}

func (s *Server) handleTarget(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if !s.applyTarget(w, r, sess) {
		return
	}
	if _, ok := r.PostForm["amount"]; ok {
		sess.SetAmount(r.PostFormValue("amount"))
	}
	backToIndex(w, r)
}

func (s *Server) handleTheme(w http.ResponseWriter, r *http.Request) {
	switch strings.ToLower(r.PostFormValue("dark")) {
	case "on", "true", "1":
		s.session(w, r).SetDark(true)
	default:
		s.session(w, r).SetDark(false)
	}
	backToIndex(w, r)
}

// applyTarget sets the target fiat from the form when present. It answers
// 400 and returns false for an unknown code.
func (s *Server) applyTarget(w http.ResponseWriter, r *http.Request, sess *converter.Session) bool {
	target := r.PostFormValue("target")
	if target == "" {
		return true
	}
	if err := sess.SetTarget(target); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// backToIndex redirects after a form post.
func backToIndex(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
