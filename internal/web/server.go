// Package web provides the HTTP server and handlers for the import and bulk
// mutation API.
package web

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ormside/listflow/internal/config"
	"github.com/ormside/listflow/internal/importer"
	"github.com/ormside/listflow/internal/layout"
	"github.com/ormside/listflow/internal/metrics"
	"github.com/ormside/listflow/internal/mutate"
	"github.com/ormside/listflow/internal/web/middleware"
)

// Server is the HTTP server for the listing import/mutation service.
type Server struct {
	imports   *importer.Service
	mutations *mutate.Service
	layouts   *layout.Registry
	cfg       config.ServerConfig
	router    *chi.Mux
	server    *http.Server
}

// NewServer creates a new Server instance.
func NewServer(imports *importer.Service, mutations *mutate.Service, layouts *layout.Registry, cfg config.ServerConfig) *Server {
	s := &Server{
		imports:   imports,
		mutations: mutations,
		layouts:   layouts,
		cfg:       cfg,
		router:    chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.TrustedProxies))
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(chimw.Compress(5))
	s.router.Use(chimw.Timeout(s.cfg.RequestTimeout))

	// Security hardening
	s.router.Use(securityHeaders)

	// Request latency by route pattern
	s.router.Use(requestMetrics)
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/api", func(r chi.Router) {
		// Import operations
		r.Post("/accounts/{accountID}/imports", s.handleStartImport)
		r.Get("/imports/{jobID}", s.handleJobStatus)

		// Layout registry
		r.Get("/layouts", s.handleListLayouts)
		r.Get("/layouts/{name}/template", s.handleLayoutTemplate)

		// Bulk mutations
		r.Post("/bulk/{entityType}/validate", s.handleValidateBulk)
		r.Post("/bulk/{entityType}", s.handleExecuteBulk)
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
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
		// Prevent MIME type sniffing
		w.Header().Set("X-Content-Type-Options", "nosniff")

		// Prevent clickjacking
		w.Header().Set("X-Frame-Options", "DENY")

		// Control referrer information
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next.ServeHTTP(w, r)
	})
}

// requestMetrics records request latency labelled by route pattern rather
// than raw path, keeping label cardinality bounded.
func requestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequestDuration.
			WithLabelValues(r.Method, route, strconv.Itoa(ww.Status())).
			Observe(time.Since(start).Seconds())
	})
}
