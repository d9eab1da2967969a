// Package web serves the conversion API, the status page and the metrics
// endpoint.
package web

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/JonMunkholm/csvcast/internal/config"
	"github.com/JonMunkholm/csvcast/internal/core"
	"github.com/JonMunkholm/csvcast/internal/field"
	"github.com/JonMunkholm/csvcast/internal/metrics"
	"github.com/JonMunkholm/csvcast/internal/store"
	webmw "github.com/JonMunkholm/csvcast/internal/web/middleware"
)

// Server is the HTTP server.
type Server struct {
	service  *core.Service
	sink     *store.Sink
	metrics  *metrics.Metrics
	cfg      *config.Config
	defaults field.ParseOptions
	validate *validator.Validate
	router   *chi.Mux
	server   *http.Server
	limiters []*webmw.RateLimiter
}

// NewServer wires the routes. sink may be nil when no database is
// configured; m may be nil to serve without metrics.
func NewServer(service *core.Service, sink *store.Sink, m *metrics.Metrics, cfg *config.Config) (*Server, error) {
	defaults, err := cfg.CSV.ParseOptions()
	if err != nil {
		return nil, err
	}

	s := &Server{
		service:  service,
		sink:     sink,
		metrics:  m,
		cfg:      cfg,
		defaults: defaults,
		validate: newValidator(),
		router:   chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s, nil
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(webmw.Logger)
	s.router.Use(middleware.Recoverer)
	if s.metrics != nil {
		s.router.Use(s.metrics.Middleware)
	}
	if s.cfg.Server.RequestTimeout > 0 {
		s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
	}
	s.router.Use(securityHeaders)

	if s.cfg.Rate.Enabled {
		s.router.Use(s.rateLimiter(s.cfg.Rate.RequestsPerMinute).Handler)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/", s.handleStatus)
	s.router.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics.Handler())
	}

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/options", s.handleOptions)
		r.Post("/hash", s.handleHash)

		// Conversions share a tighter limit.
		r.Group(func(r chi.Router) {
			if s.cfg.Rate.Enabled {
				r.Use(s.rateLimiter(s.cfg.Rate.ConvertLimit).Handler)
			}
			r.Use(middleware.Compress(5))
			r.Post("/convert", s.handleConvert)
			r.Post("/load/{table}", s.handleLoad)
		})
	})
}

func (s *Server) rateLimiter(perMinute int) *webmw.RateLimiter {
	rl := webmw.NewRateLimiter(perMinute)
	s.limiters = append(s.limiters, rl)
	return rl
}

// Start listens on the configured address. It sweeps idle rate limit
// entries until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	for _, rl := range s.limiters {
		go rl.Run(ctx, time.Minute)
	}

	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next.ServeHTTP(w, r)
	})
}
