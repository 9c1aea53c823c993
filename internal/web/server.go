// Package web provides the HTTP server, handlers and live updates for the
// spreadsheet intake page.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"

	"github.com/JonMunkholm/orcaflow/internal/config"
	"github.com/JonMunkholm/orcaflow/internal/core"
	"github.com/JonMunkholm/orcaflow/internal/web/middleware"
	"github.com/JonMunkholm/orcaflow/internal/web/templates"
)

//go:embed static
var staticFiles embed.FS

// uploadOverhead covers the multipart envelope around the file itself.
const uploadOverhead = 1 << 20

// cspPolicy allows the datastar runtime from its CDN. datastar evaluates
// data-* expressions, which needs 'unsafe-eval'.
const cspPolicy = "default-src 'self'; " +
	"script-src 'self' 'unsafe-eval' https://cdn.jsdelivr.net; " +
	"style-src 'self' 'unsafe-inline'; " +
	"img-src 'self' data:; " +
	"connect-src 'self'; " +
	"frame-ancestors 'none'"

// Server is the HTTP server for the intake page.
type Server struct {
	cfg     *config.Config
	service *core.Service
	router  *chi.Mux
	server  *http.Server

	sessions   *sessions.CookieStore
	cookieName string

	limiters []*rateLimiter
}

// NewServer creates a Server for svc configured by cfg.
func NewServer(cfg *config.Config, svc *core.Service) *Server {
	s := &Server{
		cfg:        cfg,
		service:    svc,
		router:     chi.NewRouter(),
		sessions:   newSessionStore([]byte(cfg.Session.Secret), int(cfg.Session.TTL.Seconds()), cfg.Session.Secure),
		cookieName: cfg.Session.CookieName,
	}
	s.setupMiddleware()
	s.setupRoutes()
	s.server = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(s.securityHeaders)
}

// setupRoutes configures all HTTP routes. The event stream sits outside the
// request timeout, compression and general rate limit.
func (s *Server) setupRoutes() {
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(fmt.Sprintf("static assets: %v", err))
	}

	s.router.Get("/api/health", s.handleHealth)

	s.router.Group(func(r chi.Router) {
		r.Use(s.sessionMiddleware)
		r.Get("/updates", s.handleUpdates)
	})

	s.router.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))
		r.Use(chimw.Compress(5))
		if s.cfg.Rate.Enabled {
			r.Use(s.newRateLimiter(s.cfg.Rate.RequestsPerMinute, time.Minute).middleware)
		}

		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

		r.Group(func(r chi.Router) {
			r.Use(s.sessionMiddleware)

			r.Get("/", s.handleIndex)
			r.Get("/api/state", s.handleState)
			r.Post("/download", s.handleDownload)

			r.Group(func(r chi.Router) {
				if s.cfg.Rate.Enabled {
					r.Use(s.newRateLimiter(s.cfg.Rate.UploadLimit, time.Minute).middleware)
				}
				r.Post("/upload", s.handleUpload)
				r.Post("/process", s.handleProcess)
			})
		})
	})
}

// Start begins listening for HTTP requests. It returns http.ErrServerClosed
// after Shutdown.
func (s *Server) Start() error {
	slog.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server and the rate limiter sweepers.
func (s *Server) Shutdown(ctx context.Context) error {
	for _, l := range s.limiters {
		l.stop()
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func (s *Server) securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		if s.cfg.Security.EnableCSP {
			h.Set("Content-Security-Policy", cspPolicy)
		}
		next.ServeHTTP(w, r)
	})
}

// renderPage writes a full page for the request's session.
func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, ctrl *core.Controller) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.Page(s.appView(ctrl.Snapshot())).Render(r.Context(), w); err != nil {
		slog.ErrorContext(r.Context(), "render page", "error", err)
	}
}

func (s *Server) appView(state core.State) templates.AppView {
	a, b := s.service.SourceNames()
	return templates.NewAppView(state, s.service.Checklist(), a, b)
}

// writeJSON encodes v as JSON with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}

// redirectHome answers a form post from a non-JS client.
func redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// clientIP strips the port that RemoteAddr carries unless TrustedRealIP
// replaced it with a bare address.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
